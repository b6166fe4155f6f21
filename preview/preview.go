// Package preview renders what an on-screen camera view shows of a captured
// frame.
package preview

import (
	"fmt"
	"image"
	"math"
	"time"

	"github.com/camkit/camselect"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"
)

// Opts are options for Render.
type Opts struct {
	Logger *zap.Logger // If nil, nothing is logged.

	// Portrait rotates landscape frames a quarter turn clockwise first,
	// matching how camera sensors are mounted in phones.
	Portrait bool

	// If > 0, the result is resized to Width pixels wide, keeping the aspect
	// ratio of the viewport. Otherwise the visible part is returned at the
	// frame's resolution.
	Width int
}

// VisibleRegion returns the size, in frame pixels, of the part of a frame
// that is visible when the frame fills the viewport. The rest overflows.
func VisibleRegion(frame, viewport camselect.Size) camselect.Size {
	scaled := camselect.FitScaled(viewport, frame)
	return camselect.Size{
		Width:  viewport.Width * frame.Width / scaled.Width,
		Height: viewport.Height * frame.Height / scaled.Height,
	}
}

func clamp(v float64, limit int) int {
	n := int(math.Round(v))
	if n < 1 {
		return 1
	}
	if n > limit {
		return limit
	}
	return n
}

// Render returns the center part of img that is visible in the viewport.
func Render(img image.Image, viewport camselect.Size, opts *Opts) (image.Image, error) {
	var xopts Opts
	if opts != nil {
		xopts = *opts
	}
	if xopts.Logger == nil {
		xopts.Logger = zap.NewNop()
	}
	if err := viewport.Validate(); err != nil {
		return nil, fmt.Errorf("viewport: %w", err)
	}

	t0 := time.Now()
	size := img.Bounds().Size()
	if size.X == 0 || size.Y == 0 {
		return nil, fmt.Errorf("empty image")
	}
	if xopts.Portrait && size.X > size.Y {
		img = imaging.Rotate270(img)
		size = img.Bounds().Size()
	}

	var r image.Image
	if xopts.Width > 0 {
		height := clamp(float64(xopts.Width)*viewport.Height/viewport.Width, math.MaxInt32)
		r = imaging.Fill(img, xopts.Width, height, imaging.Center, imaging.Lanczos)
	} else {
		frame := camselect.Size{Width: float64(size.X), Height: float64(size.Y)}
		vis := VisibleRegion(frame, viewport)
		r = imaging.CropCenter(img, clamp(vis.Width, size.X), clamp(vis.Height, size.Y))
	}

	xopts.Logger.Debug("rendered preview",
		zap.Stringer("viewport", viewport),
		zap.Stringer("frame", size),
		zap.Stringer("preview", r.Bounds().Size()),
		zap.Duration("duration", time.Since(t0)),
	)
	return r, nil
}

// RenderFile reads the image at src, renders it and writes the result to dst.
// Image formats are determined by file extension.
func RenderFile(src, dst string, viewport camselect.Size, opts *Opts) error {
	img, err := imaging.Open(src, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("opening image: %v", err)
	}
	r, err := Render(img, viewport, opts)
	if err != nil {
		return err
	}
	if err := imaging.Save(r, dst); err != nil {
		return fmt.Errorf("saving preview: %v", err)
	}
	return nil
}
