// Package camselect ranks camera devices and capture formats, to pick the
// best device and format for an on-screen camera view.
//
// Devices and formats are plain values read from a capability source, see
// packages catalog, source/gstreamer, source/v4l2 and source/imagesnap.
// Comparison functions are pure and take their configuration as Options.
package camselect

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrNoDevices is returned when selecting from an empty device list.
var ErrNoDevices = errors.New("no devices")

// PhysicalDeviceType is the lens type of a physical camera that is part of a
// logical Device.
type PhysicalDeviceType string

// Known physical device types.
const (
	WideAngleCamera      PhysicalDeviceType = "wide-angle-camera"
	UltraWideAngleCamera PhysicalDeviceType = "ultra-wide-angle-camera"
	TelephotoCamera      PhysicalDeviceType = "telephoto-camera"
)

// ParsePhysicalDeviceType returns the physical device type named by s.
func ParsePhysicalDeviceType(s string) (PhysicalDeviceType, error) {
	t := PhysicalDeviceType(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case WideAngleCamera, UltraWideAngleCamera, TelephotoCamera:
		return t, nil
	}
	return "", fmt.Errorf("unknown physical device type %q", s)
}

// UnmarshalYAML rejects unknown physical device types.
func (t *PhysicalDeviceType) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	pt, err := ParsePhysicalDeviceType(s)
	if err != nil {
		return err
	}
	*t = pt
	return nil
}

// Device is a logical camera, made up of one or more physical cameras.
type Device struct {
	ID              string               `yaml:"id"`
	Name            string               `yaml:"name"`
	Position        string               `yaml:"position,omitempty"` // "front", "back" or "external".
	PhysicalDevices []PhysicalDeviceType `yaml:"physical_devices"`
	Formats         []Format             `yaml:"formats,omitempty"`
}

// Has returns whether one of the physical devices is of type t.
func (d Device) Has(t PhysicalDeviceType) bool {
	for _, pd := range d.PhysicalDevices {
		if pd == t {
			return true
		}
	}
	return false
}

func (d Device) String() string {
	l := make([]string, len(d.PhysicalDevices))
	for i, pd := range d.PhysicalDevices {
		l[i] = string(pd)
	}
	return fmt.Sprintf("%s: %s [%s]", d.ID, d.Name, strings.Join(l, " "))
}

// CompareDevices compares two devices with the following criteria:
//   - Devices with a wide-angle camera are 5 points better.
//   - Devices with an ultra-wide-angle camera are 5 points worse, unless
//     opts.PreferUltraWide is set.
//   - The device with more physical devices is 3 points better.
//
// CompareDevices returns a negative value if left is better than right, 0 if
// they are equal and a positive value if left is worse. Sorting ascending
// with it puts the best device first.
func CompareDevices(opts Options, left, right Device) int {
	var leftPoints, rightPoints int

	if left.Has(WideAngleCamera) {
		leftPoints += 5
	}
	if right.Has(WideAngleCamera) {
		rightPoints += 5
	}

	if !opts.PreferUltraWide {
		if left.Has(UltraWideAngleCamera) {
			leftPoints -= 5
		}
		if right.Has(UltraWideAngleCamera) {
			rightPoints -= 5
		}
	}

	if len(left.PhysicalDevices) > len(right.PhysicalDevices) {
		leftPoints += 3
	}
	if len(right.PhysicalDevices) > len(left.PhysicalDevices) {
		rightPoints += 3
	}

	return rightPoints - leftPoints
}

// SortDevices returns a copy of devices sorted best first. Equal devices keep
// their relative order.
func SortDevices(opts Options, devices []Device) []Device {
	r := make([]Device, len(devices))
	copy(r, devices)
	sort.SliceStable(r, func(i, j int) bool {
		return CompareDevices(opts, r[i], r[j]) < 0
	})
	return r
}

// SelectDevice returns the best device.
func SelectDevice(opts Options, devices []Device) (Device, error) {
	if len(devices) == 0 {
		return Device{}, ErrNoDevices
	}
	return SortDevices(opts, devices)[0], nil
}
