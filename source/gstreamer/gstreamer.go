// Package gstreamer lists camera devices and their formats with the gstreamer
// tools.
package gstreamer

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"github.com/camkit/camselect"
)

var errInstallHint = errors.New("executable not found, install with: sudo apt install -y gstreamer1.0-tools gstreamer1.0-plugins-good gstreamer1.0-plugins-base gstreamer1.0-plugins-base-apps")

type device struct {
	ID          string
	Name        string
	DeviceClass string
	RawCaps     []string
	inCapMode   bool
}

var widthRegexp = regexp.MustCompile(`width=(?:\(int\))?([0-9]+)[^0-9]`)
var heightRegexp = regexp.MustCompile(`height=(?:\(int\))?([0-9]+)[^0-9]`)
var fractionRegexp = regexp.MustCompile(`([0-9]+)/([0-9]+)`)
var formatRegexp = regexp.MustCompile(`format=(?:\(string\))?([A-Za-z0-9]+)`)

// ListDevices returns the video source devices reported by
// gst-device-monitor-1.0, with a format for each raw or jpeg capability.
// ListDevices returns an error if no devices are available.
func ListDevices(ctx context.Context) ([]camselect.Device, error) {
	cmd := exec.CommandContext(ctx, "gst-device-monitor-1.0", "Video/Source")
	buf, err := cmd.Output()
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			err = errInstallHint
		}
		return nil, fmt.Errorf("listing devices using gst-device-monitor-1.0: %v", err)
	}
	return parseDevices(buf)
}

func parseDevices(buf []byte) ([]camselect.Device, error) {
	var r []device
	var d *device
	b := bufio.NewScanner(bytes.NewReader(buf))
	for b.Scan() {
		s := strings.TrimSpace(b.Text())
		if s == "" {
			continue
		}
		if s == "Device found:" {
			if d != nil {
				r = append(r, *d)
			}
			d = &device{RawCaps: []string{}}
			continue
		}

		if d == nil {
			continue
		}

		if strings.HasPrefix(s, "name  :") {
			d.Name = strings.TrimSpace(strings.SplitN(s, ":", 2)[1])
			continue
		}
		if strings.HasPrefix(s, "class :") {
			d.DeviceClass = strings.TrimSpace(strings.SplitN(s, ":", 2)[1])
			continue
		}
		if strings.HasPrefix(s, "caps  :") {
			cap := strings.TrimSpace(strings.SplitN(s, ":", 2)[1])
			d.RawCaps = append(d.RawCaps, cap)
			d.inCapMode = true
			continue
		}
		if strings.HasPrefix(s, "properties:") {
			d.inCapMode = false
			continue
		}
		if d.inCapMode {
			d.RawCaps = append(d.RawCaps, s)
		}
		if strings.HasPrefix(s, "device.path =") || (d.ID == "" && strings.HasPrefix(s, "api.v4l2.path =")) {
			d.ID = strings.TrimSpace(strings.SplitN(s, "=", 2)[1])
		}
	}
	if err := b.Err(); err != nil {
		return nil, err
	}

	if d != nil && d.ID != "" {
		r = append(r, *d)
	}

	var devs []camselect.Device
	for _, d := range r {
		if d.DeviceClass != "Video/Source" || d.ID == "" {
			continue
		}
		formats := parseCaps(d.RawCaps)
		if len(formats) == 0 {
			continue
		}
		devs = append(devs, camselect.Device{
			ID:       d.ID,
			Name:     d.Name,
			Position: "external",
			// A v4l2 device is a single regular lens.
			PhysicalDevices: []camselect.PhysicalDeviceType{camselect.WideAngleCamera},
			Formats:         formats,
		})
	}
	if len(devs) == 0 {
		return nil, fmt.Errorf("no devices found")
	}

	return devs, nil
}

// parseCaps turns caps lines into formats, one per media type, pixel format
// and size. Frame rates of identical formats are merged.
func parseCaps(rawCaps []string) []camselect.Format {
	var formats []camselect.Format
	index := map[string]int{}
	for _, rc := range rawCaps {
		var pixfmt string
		switch {
		case strings.HasPrefix(rc, "video/x-raw"):
			if m := formatRegexp.FindStringSubmatch(rc); m != nil {
				pixfmt = m[1]
			}
		case strings.HasPrefix(rc, "image/jpeg"):
			pixfmt = "MJPG"
		default:
			continue
		}

		mw := widthRegexp.FindStringSubmatch(rc)
		mh := heightRegexp.FindStringSubmatch(rc)
		if mw == nil || mh == nil {
			continue
		}
		width, werr := strconv.ParseInt(mw[1], 10, 32)
		height, herr := strconv.ParseInt(mh[1], 10, 32)
		if werr != nil || herr != nil || width == 0 || height == 0 {
			continue
		}
		ranges := parseFramerates(rc)
		if len(ranges) == 0 {
			continue
		}

		key := fmt.Sprintf("%s %dx%d", pixfmt, width, height)
		i, ok := index[key]
		if !ok {
			i = len(formats)
			index[key] = i
			formats = append(formats, camselect.Format{
				PhotoWidth:  int(width),
				PhotoHeight: int(height),
				VideoWidth:  int(width),
				VideoHeight: int(height),
				PixelFormat: pixfmt,
			})
		}
		f := &formats[i]
	Ranges:
		for _, nr := range ranges {
			for _, fr := range f.FrameRateRanges {
				if fr == nr {
					continue Ranges
				}
			}
			f.FrameRateRanges = append(f.FrameRateRanges, nr)
		}
	}
	return formats
}

// parseFramerates parses "framerate=(fraction)30/1", a list
// "framerate={ (fraction)30/1, (fraction)15/1 }" or a range
// "framerate=[ (fraction)1/1, (fraction)30/1 ]". Lists and ranges may also
// carry the type up front, as in "framerate=(fraction)[ 1/1, 30/1 ]".
func parseFramerates(rc string) []camselect.FrameRateRange {
	i := strings.Index(rc, "framerate=")
	if i < 0 {
		return nil
	}
	s := strings.TrimPrefix(rc[i+len("framerate="):], "(fraction)")
	isRange := strings.HasPrefix(s, "[")
	if isRange || strings.HasPrefix(s, "{") {
		if end := strings.IndexAny(s, "]}"); end >= 0 {
			s = s[:end]
		}
	} else if end := strings.IndexAny(s, ",;"); end >= 0 {
		s = s[:end]
	}

	var rates []float64
	for _, m := range fractionRegexp.FindAllStringSubmatch(s, -1) {
		num, nerr := strconv.ParseFloat(m[1], 64)
		den, derr := strconv.ParseFloat(m[2], 64)
		if nerr != nil || derr != nil || den == 0 || num == 0 {
			continue
		}
		rates = append(rates, num/den)
	}

	if isRange && len(rates) == 2 {
		return []camselect.FrameRateRange{{Min: rates[0], Max: rates[1]}}
	}
	var r []camselect.FrameRateRange
	for _, fps := range rates {
		r = append(r, camselect.FrameRateRange{Min: fps, Max: fps})
	}
	return r
}
