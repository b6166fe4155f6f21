// Package v4l2 lists video4linux camera devices and their formats with
// v4l2-ctl.
package v4l2

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"github.com/camkit/camselect"

	"go.uber.org/zap"
)

var errInstallHint = errors.New("executable not found, install with: sudo apt install -y v4l-utils")

// Opts has options for listing devices.
type Opts struct {
	Logger *zap.Logger // If nil, nothing is logged.
}

type node struct {
	Name string
	Path string
}

// ListDevices returns the camera devices known to v4l2-ctl, with their
// formats. Device nodes without capture formats, such as metadata nodes, are
// skipped. ListDevices returns an error if no devices are available.
func ListDevices(ctx context.Context, opts *Opts) ([]camselect.Device, error) {
	var xopts Opts
	if opts != nil {
		xopts = *opts
	}
	log := xopts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	buf, err := v4l2ctl(ctx, "--list-devices")
	if err != nil {
		return nil, fmt.Errorf("listing devices using v4l2-ctl: %v", err)
	}
	nodes := parseNodes(string(buf))

	devices := []camselect.Device{}
	for _, n := range nodes {
		buf, err := v4l2ctl(ctx, "-d", n.Path, "--list-formats-ext")
		if err != nil {
			log.Debug("listing formats", zap.String("device", n.Path), zap.Error(err))
			continue
		}
		formats, err := parseFormats(strings.NewReader(string(buf)))
		if err != nil {
			return nil, fmt.Errorf("parsing formats of %s: %v", n.Path, err)
		}
		if len(formats) == 0 {
			log.Debug("skipping device without capture formats", zap.String("device", n.Path))
			continue
		}
		devices = append(devices, camselect.Device{
			ID:              n.Path,
			Name:            fmt.Sprintf("%s (%s)", n.Name, n.Path),
			Position:        "external",
			PhysicalDevices: []camselect.PhysicalDeviceType{camselect.WideAngleCamera},
			Formats:         formats,
		})
	}
	if len(devices) == 0 {
		return nil, fmt.Errorf("no devices available")
	}
	return devices, nil
}

func v4l2ctl(ctx context.Context, args ...string) ([]byte, error) {
	buf, err := exec.CommandContext(ctx, "v4l2-ctl", args...).Output()
	if err != nil && errors.Is(err, exec.ErrNotFound) {
		err = errInstallHint
	}
	return buf, err
}

// parseNodes parses the output of "v4l2-ctl --list-devices": a device name
// followed by tab-indented device nodes.
func parseNodes(s string) []node {
	var curDevice string
	nodes := []node{}
	for _, line := range strings.Split(s, "\n") {
		if !strings.HasPrefix(line, "\t") {
			curDevice = strings.TrimSuffix(strings.TrimSpace(line), ":")
			continue
		}
		if curDevice == "" || strings.HasPrefix(curDevice, "bcm2835-") {
			continue
		}

		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "/dev/video") {
			continue
		}
		nodes = append(nodes, node{Name: curDevice, Path: line})
	}
	return nodes
}

var (
	pixfmtRegexp   = regexp.MustCompile(`^\[[0-9]+\]: '([^']+)'`)
	sizeRegexp     = regexp.MustCompile(`^Size: Discrete ([0-9]+)x([0-9]+)`)
	stepwiseRegexp = regexp.MustCompile(`^Size: Stepwise [0-9]+x[0-9]+ - ([0-9]+)x([0-9]+)`)
	intervalRegexp = regexp.MustCompile(`^Interval: Discrete [0-9.]+s \(([0-9.]+) fps\)`)
	stepRegexp     = regexp.MustCompile(`^Interval: (?:Stepwise|Continuous) [0-9.]+s - [0-9.]+s with step [0-9.]+s \(([0-9.]+)-([0-9.]+) fps\)`)
)

// parseFormats parses the output of "v4l2-ctl --list-formats-ext", one format
// per pixel format and size, with one frame rate range per interval. Stepwise
// sizes are represented by their maximum size. Sizes without intervals are
// dropped.
func parseFormats(r io.Reader) ([]camselect.Format, error) {
	var formats []camselect.Format
	var pixfmt string
	var cur *camselect.Format

	flush := func() {
		if cur != nil && len(cur.FrameRateRanges) > 0 {
			formats = append(formats, *cur)
		}
		cur = nil
	}

	b := bufio.NewScanner(r)
	for b.Scan() {
		s := strings.TrimSpace(b.Text())
		if m := pixfmtRegexp.FindStringSubmatch(s); m != nil {
			flush()
			pixfmt = m[1]
			continue
		}
		m := sizeRegexp.FindStringSubmatch(s)
		if m == nil {
			m = stepwiseRegexp.FindStringSubmatch(s)
		}
		if m != nil {
			flush()
			width, werr := strconv.Atoi(m[1])
			height, herr := strconv.Atoi(m[2])
			if werr != nil || herr != nil || width == 0 || height == 0 {
				continue
			}
			cur = &camselect.Format{
				PhotoWidth:  width,
				PhotoHeight: height,
				VideoWidth:  width,
				VideoHeight: height,
				PixelFormat: pixfmt,
			}
			continue
		}
		if m := intervalRegexp.FindStringSubmatch(s); m != nil && cur != nil {
			fps, err := strconv.ParseFloat(m[1], 64)
			if err != nil || fps == 0 {
				continue
			}
			cur.FrameRateRanges = append(cur.FrameRateRanges, camselect.FrameRateRange{Min: fps, Max: fps})
			continue
		}
		if m := stepRegexp.FindStringSubmatch(s); m != nil && cur != nil {
			lo, lerr := strconv.ParseFloat(m[1], 64)
			hi, herr := strconv.ParseFloat(m[2], 64)
			if lerr != nil || herr != nil || lo == 0 || hi < lo {
				continue
			}
			cur.FrameRateRanges = append(cur.FrameRateRanges, camselect.FrameRateRange{Min: lo, Max: hi})
		}
	}
	if err := b.Err(); err != nil {
		return nil, err
	}
	flush()
	return formats, nil
}
