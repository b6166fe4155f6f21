package gstreamer

import (
	"reflect"
	"testing"

	"github.com/camkit/camselect"
)

const monitorOutput = `Probing devices...


Device found:

	name  : Integrated Camera: Integrated C
	class : Video/Source
	caps  : video/x-raw, format=(string)YUY2, width=(int)640, height=(int)480, pixel-aspect-ratio=(fraction)1/1, framerate=(fraction)30/1;
	        video/x-raw, format=(string)YUY2, width=(int)1280, height=(int)720, pixel-aspect-ratio=(fraction)1/1, framerate=(fraction)10/1;
	        image/jpeg, width=(int)1280, height=(int)720, pixel-aspect-ratio=(fraction)1/1, framerate={ (fraction)30/1, (fraction)15/1 };
	        image/jpeg, width=(int)1280, height=(int)720, pixel-aspect-ratio=(fraction)1/1, framerate=(fraction)30/1;
	properties:
		udev-probed = true
		device.bus_path = pci-0000:00:14.0-usb-0:8:1.0
		device.path = /dev/video0
	gst-launch-1.0 v4l2src ! ...


Device found:

	name  : Built-in Audio Analog Stereo
	class : Audio/Source
	caps  : audio/x-raw, format=(string)S16LE, layout=(string)interleaved, rate=(int)44100, channels=(int)2;
	properties:
		device.path = hw:0


Device found:

	name  : USB Capture
	class : Video/Source
	caps  : video/x-raw, format=(string)NV12, width=(int)1920, height=(int)1080, framerate=[ (fraction)1/1, (fraction)60/1 ];
	properties:
		device.path = /dev/video2


Device found:

	name  : HD Webcam
	class : Video/Source
	caps  : video/x-raw, format=(string)YUY2, width=(int)640, height=(int)480, framerate=(fraction){ 30/1, 15/1 };
	        image/jpeg, width=(int)1280, height=(int)720, framerate=(fraction)[ 1/1, 60/1 ];
	properties:
		device.path = /dev/video4
`

func TestParseDevices(t *testing.T) {
	devs, err := parseDevices([]byte(monitorOutput))
	if err != nil {
		t.Fatalf("parsing devices: %v", err)
	}

	wide := []camselect.PhysicalDeviceType{camselect.WideAngleCamera}
	exp := []camselect.Device{
		{
			ID:              "/dev/video0",
			Name:            "Integrated Camera: Integrated C",
			Position:        "external",
			PhysicalDevices: wide,
			Formats: []camselect.Format{
				{PhotoWidth: 640, PhotoHeight: 480, VideoWidth: 640, VideoHeight: 480, PixelFormat: "YUY2", FrameRateRanges: []camselect.FrameRateRange{{Min: 30, Max: 30}}},
				{PhotoWidth: 1280, PhotoHeight: 720, VideoWidth: 1280, VideoHeight: 720, PixelFormat: "YUY2", FrameRateRanges: []camselect.FrameRateRange{{Min: 10, Max: 10}}},
				{PhotoWidth: 1280, PhotoHeight: 720, VideoWidth: 1280, VideoHeight: 720, PixelFormat: "MJPG", FrameRateRanges: []camselect.FrameRateRange{{Min: 30, Max: 30}, {Min: 15, Max: 15}}},
			},
		},
		{
			ID:              "/dev/video2",
			Name:            "USB Capture",
			Position:        "external",
			PhysicalDevices: wide,
			Formats: []camselect.Format{
				{PhotoWidth: 1920, PhotoHeight: 1080, VideoWidth: 1920, VideoHeight: 1080, PixelFormat: "NV12", FrameRateRanges: []camselect.FrameRateRange{{Min: 1, Max: 60}}},
			},
		},
		{
			ID:              "/dev/video4",
			Name:            "HD Webcam",
			Position:        "external",
			PhysicalDevices: wide,
			Formats: []camselect.Format{
				{PhotoWidth: 640, PhotoHeight: 480, VideoWidth: 640, VideoHeight: 480, PixelFormat: "YUY2", FrameRateRanges: []camselect.FrameRateRange{{Min: 30, Max: 30}, {Min: 15, Max: 15}}},
				{PhotoWidth: 1280, PhotoHeight: 720, VideoWidth: 1280, VideoHeight: 720, PixelFormat: "MJPG", FrameRateRanges: []camselect.FrameRateRange{{Min: 1, Max: 60}}},
			},
		},
	}
	if !reflect.DeepEqual(devs, exp) {
		t.Fatalf("devices, got %#v, expected %#v", devs, exp)
	}

	for _, d := range devs {
		for _, f := range d.Formats {
			if err := f.Validate(); err != nil {
				t.Errorf("format %v: %v", f, err)
			}
		}
	}
}

func TestParseFramerates(t *testing.T) {
	tests := []struct {
		caps string
		exp  []camselect.FrameRateRange
	}{
		{"image/jpeg, framerate=(fraction)30/1, pixel-aspect-ratio=(fraction)1/1", []camselect.FrameRateRange{{Min: 30, Max: 30}}},
		{"image/jpeg, framerate={ (fraction)30/1, (fraction)15/1 }", []camselect.FrameRateRange{{Min: 30, Max: 30}, {Min: 15, Max: 15}}},
		{"image/jpeg, framerate=(fraction){ 30/1, 15/1 }", []camselect.FrameRateRange{{Min: 30, Max: 30}, {Min: 15, Max: 15}}},
		{"image/jpeg, framerate=[ (fraction)1/1, (fraction)60/1 ]", []camselect.FrameRateRange{{Min: 1, Max: 60}}},
		{"image/jpeg, framerate=(fraction)[ 1/1, 60/1 ], pixel-aspect-ratio=(fraction)1/1", []camselect.FrameRateRange{{Min: 1, Max: 60}}},
		{"image/jpeg, width=(int)640", nil},
	}
	for _, tc := range tests {
		if got := parseFramerates(tc.caps); !reflect.DeepEqual(got, tc.exp) {
			t.Errorf("framerates of %q, got %v, expected %v", tc.caps, got, tc.exp)
		}
	}
}

func TestParseDevicesNone(t *testing.T) {
	if _, err := parseDevices([]byte("Probing devices...\n")); err == nil {
		t.Fatalf("missing error for output without devices")
	}
}
