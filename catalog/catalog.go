// Package catalog reads camera capabilities from a YAML file, and can watch
// the file for changes.
package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/camkit/camselect"

	"gopkg.in/yaml.v3"
)

// Catalog is the list of devices with their formats, as stored in a file.
type Catalog struct {
	Devices []camselect.Device `yaml:"devices"`
}

// Parse parses and validates a YAML catalog. Unknown keys are an error, an
// empty document is an empty catalog.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Load reads the catalog at path.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Validate checks device IDs are present and unique, and validates all
// formats.
func (c *Catalog) Validate() error {
	seen := map[string]bool{}
	for i, d := range c.Devices {
		if d.ID == "" {
			return fmt.Errorf("device %d: missing id", i)
		}
		if seen[d.ID] {
			return fmt.Errorf("device %d: duplicate id %q", i, d.ID)
		}
		seen[d.ID] = true
		for j, f := range d.Formats {
			if err := f.Validate(); err != nil {
				return fmt.Errorf("device %q format %d: %w", d.ID, j, err)
			}
		}
	}
	return nil
}

// Device returns the device with the given ID.
func (c *Catalog) Device(id string) (camselect.Device, bool) {
	for _, d := range c.Devices {
		if d.ID == id {
			return d, true
		}
	}
	return camselect.Device{}, false
}
