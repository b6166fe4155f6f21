// Package imagesnap lists camera devices on macOS with the imagesnap command.
//
// imagesnap does not report formats, so devices are returned without any.
// They can still be ranked with camselect.CompareDevices.
package imagesnap

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/camkit/camselect"
)

// ListDevices returns all image capturing devices available to imagesnap.
// ListDevices returns an error if no devices are available.
func ListDevices(ctx context.Context) ([]camselect.Device, error) {
	cmd := exec.CommandContext(ctx, "imagesnap", "-l")
	buf, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("listing devices with imagesnap -l: %v", err)
	}
	return parseDevices(string(buf))
}

func newDevice(name string) camselect.Device {
	position := "external"
	if strings.Contains(name, "(Built-in)") {
		position = "front"
	}
	return camselect.Device{
		ID:              name,
		Name:            name,
		Position:        position,
		PhysicalDevices: []camselect.PhysicalDeviceType{camselect.WideAngleCamera},
	}
}

func parseDevices(s string) ([]camselect.Device, error) {
	devs := []camselect.Device{}
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "=> ") {
			// Newer format, example: "=> FaceTime HD Camera (Built-in)"
			devs = append(devs, newDevice(line[len("=> "):]))
		} else if strings.HasPrefix(line, "<") {
			// Older format, example: "<AVCaptureDALDevice: 0x7fa2c7852fd0 [FaceTime HD Camera (Built-in)][0x8020000005ac8514]>"
			t := strings.Split(line, "[")
			if len(t) < 2 {
				continue
			}
			devs = append(devs, newDevice(strings.Split(t[1], "]")[0]))
		}
	}
	if len(devs) == 0 {
		return nil, fmt.Errorf("no devices available")
	}
	return devs, nil
}
