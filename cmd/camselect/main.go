// Command camselect lists camera devices and picks the best device and capture
// format for an on-screen camera view.
//
// Examples:
//
//	# List devices from a capability catalog, best first, with their formats.
//	camselect -catalog phone.yaml devices
//
//	# Pick a device and format for a 1170x2532 view at 60fps, tracing format comparisons.
//	camselect -catalog phone.yaml -viewport 1170x2532 -verbose select -fps 60
//
//	# Pick a format for a local webcam, listed with v4l2-ctl.
//	camselect -source v4l2 select -fps 30
//
//	# Print a new selection whenever the catalog file changes.
//	camselect -catalog phone.yaml watch
//
//	# Show which part of a captured frame the view displays.
//	camselect preview -out view.jpg frame.jpg
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/camkit/camselect"
	"github.com/camkit/camselect/catalog"
	"github.com/camkit/camselect/preview"
	"github.com/camkit/camselect/source/gstreamer"
	"github.com/camkit/camselect/source/imagesnap"
	"github.com/camkit/camselect/source/v4l2"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func defaultSource() string {
	if runtime.GOOS == "darwin" {
		return "imagesnap"
	}
	return "gstreamer"
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "camselect: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "camselect",
		Usage: "pick the best camera device and format for a camera view",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "configuration file, by default ./camselect.yaml or $CAMSELECT_CONFIG"},
			&cli.StringFlag{Name: "source", Usage: "device source: catalog, gstreamer, v4l2 or imagesnap; catalog if -catalog is set, otherwise " + defaultSource()},
			&cli.StringFlag{Name: "catalog", Usage: "capability catalog file"},
			&cli.StringFlag{Name: "viewport", Usage: "size of the camera view as WIDTHxHEIGHT, overrides the configuration"},
			&cli.BoolFlag{Name: "ultrawide", Usage: "do not rank devices with an ultra-wide-angle camera lower"},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error, overrides the configuration"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "print verbose output, including format comparisons"},
		},
		Commands: []*cli.Command{
			{
				Name:   "devices",
				Usage:  "list devices and their formats, best first",
				Action: devicesAction,
			},
			{
				Name:  "select",
				Usage: "print the best device and format",
				Flags: []cli.Flag{
					&cli.Float64Flag{Name: "fps", Usage: "required frame rate, 0 for any"},
					&cli.StringFlag{Name: "device", Usage: "use this device ID instead of the best device"},
				},
				Action: selectAction,
			},
			{
				Name:  "watch",
				Usage: "print the best device and format each time the catalog changes",
				Flags: []cli.Flag{
					&cli.Float64Flag{Name: "fps", Usage: "required frame rate, 0 for any"},
				},
				Action: watchAction,
			},
			{
				Name:      "preview",
				Usage:     "write the part of a frame that is visible in the camera view",
				ArgsUsage: "image",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Usage: "output image, by default preview.jpg in a temporary directory"},
					&cli.IntFlag{Name: "width", Usage: "resize the preview to this width"},
					&cli.BoolFlag{Name: "landscape", Usage: "do not rotate landscape frames to portrait"},
				},
				Action: previewAction,
			},
		},
	}
}

// env holds what all commands need, set up from the global flags.
type env struct {
	log  *zap.Logger
	cfg  *camselect.Config
	opts camselect.Options
}

func newLogger(level string, verbose bool) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("log level: %v", err)
	}
	config := zap.NewProductionConfig()
	if verbose {
		config = zap.NewDevelopmentConfig()
		lvl = zap.DebugLevel
	}
	config.Level = zap.NewAtomicLevelAt(lvl)
	return config.Build()
}

func newEnv(c *cli.Context) (*env, error) {
	cfg, err := camselect.LoadConfig(c.String("config"))
	if err != nil {
		return nil, err
	}
	if c.IsSet("viewport") {
		vp, err := camselect.ParseSize(c.String("viewport"))
		if err != nil {
			return nil, fmt.Errorf("viewport: %v", err)
		}
		cfg.Viewport = vp
	}
	if c.IsSet("ultrawide") {
		cfg.PreferUltraWide = c.Bool("ultrawide")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	verbose := c.Bool("verbose")
	log, err := newLogger(cfg.LogLevel, verbose)
	if err != nil {
		return nil, err
	}

	e := &env{log: log, cfg: cfg, opts: cfg.Options()}
	if verbose {
		e.opts.Trace = camselect.ZapTracer(log.Named("format"))
	}
	return e, nil
}

func sourceName(c *cli.Context) string {
	if s := c.String("source"); s != "" {
		return s
	}
	if c.String("catalog") != "" {
		return "catalog"
	}
	return defaultSource()
}

func (e *env) listDevices(ctx context.Context, c *cli.Context) ([]camselect.Device, error) {
	src := sourceName(c)
	e.log.Debug("listing devices", zap.String("source", src))
	switch src {
	case "catalog":
		path := c.String("catalog")
		if path == "" {
			return nil, fmt.Errorf("source catalog requires -catalog")
		}
		cat, err := catalog.Load(path)
		if err != nil {
			return nil, err
		}
		return cat.Devices, nil
	case "gstreamer":
		return gstreamer.ListDevices(ctx)
	case "v4l2":
		return v4l2.ListDevices(ctx, &v4l2.Opts{Logger: e.log})
	case "imagesnap":
		return imagesnap.ListDevices(ctx)
	}
	return nil, fmt.Errorf("unknown source %q", src)
}

func devicesAction(c *cli.Context) error {
	e, err := newEnv(c)
	if err != nil {
		return err
	}
	defer e.log.Sync()

	devs, err := e.listDevices(c.Context, c)
	if err != nil {
		return fmt.Errorf("listing devices: %v", err)
	}
	printDevices(c.App.Writer, e.opts, devs)
	return nil
}

func printDevices(w io.Writer, opts camselect.Options, devs []camselect.Device) {
	for _, d := range camselect.SortDevices(opts, devs) {
		fmt.Fprintf(w, "%s\n", d)
		for _, f := range camselect.SortFormats(opts, d.Formats) {
			fmt.Fprintf(w, "\t%s\n", f)
		}
	}
}

// printSelection writes the best device and its best format at fps. If
// deviceID is set, that device is used.
func printSelection(w io.Writer, opts camselect.Options, devs []camselect.Device, deviceID string, fps float64) error {
	var dev camselect.Device
	if deviceID == "" {
		var err error
		dev, err = camselect.SelectDevice(opts, devs)
		if err != nil {
			return err
		}
	} else {
		for _, d := range devs {
			if d.ID == deviceID {
				dev = d
				break
			}
		}
		if dev.ID == "" {
			return fmt.Errorf("device %q not found", deviceID)
		}
	}
	fmt.Fprintf(w, "device: %s\n", dev)

	if len(dev.Formats) == 0 {
		fmt.Fprintf(w, "format: none reported\n")
		return nil
	}
	f, err := camselect.SelectFormat(opts, dev.Formats, fps)
	if err != nil {
		return fmt.Errorf("device %s at %vfps: %w", dev.ID, fps, err)
	}
	fmt.Fprintf(w, "format: %s\n", f)
	return nil
}

func selectAction(c *cli.Context) error {
	e, err := newEnv(c)
	if err != nil {
		return err
	}
	defer e.log.Sync()

	devs, err := e.listDevices(c.Context, c)
	if err != nil {
		return fmt.Errorf("listing devices: %v", err)
	}
	return printSelection(c.App.Writer, e.opts, devs, c.String("device"), c.Float64("fps"))
}

func watchAction(c *cli.Context) error {
	e, err := newEnv(c)
	if err != nil {
		return err
	}
	defer e.log.Sync()

	path := c.String("catalog")
	if path == "" {
		return fmt.Errorf("watch requires -catalog")
	}
	w, err := catalog.NewWatcher(path, &catalog.WatcherOpts{Logger: e.log})
	if err != nil {
		return err
	}
	defer w.Close()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)

	for {
		select {
		case <-signals:
			return nil
		case ev, ok := <-w.Events():
			if !ok {
				return fmt.Errorf("no more events")
			}
			if ev.Err != nil {
				e.log.Error("catalog", zap.Error(ev.Err))
				continue
			}
			if err := printSelection(c.App.Writer, e.opts, ev.Catalog.Devices, "", c.Float64("fps")); err != nil {
				e.log.Error("selecting", zap.Error(err))
			}
		}
	}
}

func previewAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.ShowSubcommandHelp(c)
	}
	e, err := newEnv(c)
	if err != nil {
		return err
	}
	defer e.log.Sync()

	out := c.String("out")
	if out == "" {
		dir, err := camselect.TempDir()
		if err != nil {
			return fmt.Errorf("making temp dir: %v", err)
		}
		out = filepath.Join(dir, "preview.jpg")
	}

	opts := &preview.Opts{
		Logger:   e.log,
		Portrait: !c.Bool("landscape"),
		Width:    c.Int("width"),
	}
	if err := preview.RenderFile(c.Args().First(), out, e.opts.Viewport, opts); err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, out)
	return nil
}
