package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/camkit/camselect"
)

const phoneCatalog = `
devices:
  - id: back-triple
    name: Back Triple Camera
    position: back
    physical_devices: [wide-angle-camera, ultra-wide-angle-camera, telephoto-camera]
    formats:
      - photo_width: 4032
        photo_height: 3024
        video_width: 1920
        video_height: 1080
        video_stabilization_modes: [off, standard, cinematic]
        supports_photo_hdr: true
        frame_rate_ranges: [{min: 1, max: 30}]
      - photo_width: 1920
        photo_height: 1080
        video_width: 1920
        video_height: 1080
        frame_rate_ranges: [{min: 1, max: 60}]
  - id: front
    name: Front Camera
    position: front
    physical_devices: [wide-angle-camera]
`

func TestParse(t *testing.T) {
	c, err := Parse([]byte(phoneCatalog))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(c.Devices) != 2 {
		t.Fatalf("got %d devices, expected 2", len(c.Devices))
	}
	d, ok := c.Device("back-triple")
	if !ok {
		t.Fatalf("device back-triple not found")
	}
	exp := []camselect.PhysicalDeviceType{camselect.WideAngleCamera, camselect.UltraWideAngleCamera, camselect.TelephotoCamera}
	if !reflect.DeepEqual(d.PhysicalDevices, exp) {
		t.Errorf("physical devices, got %v, expected %v", d.PhysicalDevices, exp)
	}
	f := d.Formats[0]
	expFormat := camselect.Format{
		PhotoWidth:              4032,
		PhotoHeight:             3024,
		VideoWidth:              1920,
		VideoHeight:             1080,
		VideoStabilizationModes: []camselect.StabilizationMode{camselect.StabilizationOff, camselect.StabilizationStandard, camselect.StabilizationCinematic},
		SupportsPhotoHDR:        true,
		FrameRateRanges:         []camselect.FrameRateRange{{Min: 1, Max: 30}},
	}
	if !reflect.DeepEqual(f, expFormat) {
		t.Errorf("format, got %#v, expected %#v", f, expFormat)
	}
	if _, ok := c.Device("missing"); ok {
		t.Errorf("found missing device")
	}

	empty, err := Parse(nil)
	if err != nil || len(empty.Devices) != 0 {
		t.Errorf("parse empty catalog, got %v, %v", empty, err)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		err  error
	}{
		{"unknown stabilization", "devices: [{id: a, physical_devices: [], formats: [{photo_width: 1, photo_height: 1, video_stabilization_modes: [wobbly]}]}]", camselect.ErrUnknownStabilizationMode},
		{"unknown lens", "devices: [{id: a, physical_devices: [fisheye-camera]}]", nil},
		{"zero photo", "devices: [{id: a, physical_devices: [], formats: [{photo_width: 0, photo_height: 1}]}]", camselect.ErrInvalidDimension},
		{"missing id", "devices: [{name: a, physical_devices: []}]", nil},
		{"duplicate id", "devices: [{id: a, physical_devices: []}, {id: a, physical_devices: []}]", nil},
		{"unknown key", "devices: [{id: a, lenses: 3}]", nil},
	}
	for _, tc := range tests {
		_, err := Parse([]byte(tc.yaml))
		if err == nil {
			t.Errorf("%s: missing error", tc.name)
			continue
		}
		if tc.err != nil && !errors.Is(err, tc.err) {
			t.Errorf("%s: got err %v, expected %v", tc.name, err, tc.err)
		}
	}
}

func TestLoad(t *testing.T) {
	p := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(p, []byte(phoneCatalog), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	c, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	best, err := camselect.SelectDevice(camselect.Options{}, c.Devices)
	if err != nil {
		t.Fatalf("select device: %v", err)
	}
	if best.ID != "front" {
		t.Errorf("best device %s, expected front", best.ID)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Errorf("missing error loading missing catalog")
	}
}

func TestWatcher(t *testing.T) {
	p := filepath.Join(t.TempDir(), "catalog.yaml")
	front := phoneCatalog[strings.Index(phoneCatalog, "  - id: front"):]
	if err := os.WriteFile(p, []byte("devices:\n"+front), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	w, err := NewWatcher(p, nil)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	defer w.Close()

	ev := <-w.Events()
	if ev.Err != nil {
		t.Fatalf("initial event: %v", ev.Err)
	}
	if len(ev.Catalog.Devices) != 1 {
		t.Fatalf("initial catalog has %d devices, expected 1", len(ev.Catalog.Devices))
	}

	if err := os.WriteFile(p, []byte(phoneCatalog), 0o644); err != nil {
		t.Fatalf("rewrite catalog: %v", err)
	}

	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev := <-w.Events():
			// A write can be seen half done, wait for the complete file.
			if ev.Err == nil && len(ev.Catalog.Devices) == 2 {
				return
			}
		case <-timeout:
			t.Fatalf("no event for rewritten catalog")
		}
	}
}

func TestWatcherClose(t *testing.T) {
	p := filepath.Join(t.TempDir(), "catalog.yaml")
	w, err := NewWatcher(p, nil)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	ev := <-w.Events()
	if ev.Err == nil {
		t.Fatalf("missing error for missing catalog file")
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, ok := <-w.Events(); ok {
		t.Fatalf("events channel not closed after Close")
	}
}
