package camselect

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// Options configure device and format selection. An Options value is meant
// to be set up once and then shared by all comparisons.
type Options struct {
	// Viewport is the size of the on-screen camera view.
	Viewport Size

	// PreferUltraWide stops devices with an ultra-wide-angle camera from being
	// ranked lower.
	PreferUltraWide bool

	// Trace, if set, is called for the left-hand format of each format
	// comparison. For debugging format selection.
	Trace TraceFunc
}

// Validate checks the viewport is usable.
func (o Options) Validate() error {
	if err := o.Viewport.Validate(); err != nil {
		return fmt.Errorf("viewport: %w", err)
	}
	return nil
}

// Config is the on-disk configuration.
type Config struct {
	Viewport        Size   `yaml:"viewport"`
	PreferUltraWide bool   `yaml:"prefer_ultrawide"`
	LogLevel        string `yaml:"log_level"` // "debug", "info", "warn" or "error".
}

// DefaultViewport is a typical portrait phone screen.
var DefaultViewport = Size{Width: 1080, Height: 2340}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Viewport: DefaultViewport,
		LogLevel: "info",
	}
}

// ConfigPath returns the configuration file path, $CAMSELECT_CONFIG if set.
func ConfigPath() string {
	if p := os.Getenv("CAMSELECT_CONFIG"); p != "" {
		return p
	}
	return "camselect.yaml"
}

// LoadConfig reads the YAML configuration at path, or at ConfigPath if path
// is empty. Keys missing from the file keep their default value. A missing
// file is not an error when path is empty.
func LoadConfig(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = ConfigPath()
	}

	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration values.
func (c *Config) Validate() error {
	if err := c.Viewport.Validate(); err != nil {
		return fmt.Errorf("viewport: %w", err)
	}
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	return nil
}

// Options returns selection options for the configuration.
func (c *Config) Options() Options {
	return Options{
		Viewport:        c.Viewport,
		PreferUltraWide: c.PreferUltraWide,
	}
}
