package camselect

// FitScaled scales mask so that it exactly fills base along one axis and
// overflows it along the other, keeping the aspect ratio of mask. The result
// is in the units of base.
//
// For example, a 12x12 base and a 6x12 mask give scale factors 0.5 and 1.0,
// and a 12x24 result.
func FitScaled(base, mask Size) Size {
	wScale := mask.Width / base.Width
	hScale := mask.Height / base.Height

	if wScale > hScale {
		return Size{
			Width:  mask.Width / hScale,
			Height: mask.Height / hScale,
		}
	}
	return Size{
		Width:  mask.Width / wScale,
		Height: mask.Height / wScale,
	}
}

// CoverScaled grows base towards covering mask. If mask is relatively taller
// than base, the width of base grows by a factor 1+heightScale, otherwise the
// height grows by 1+widthScale.
//
// This approximates cover scaling without being exact. Format rankings depend
// on the numbers it produces, so it must not be replaced by exact math.
func CoverScaled(base, mask Size) Size {
	wScale := mask.Width / base.Width
	hScale := mask.Height / base.Height

	if wScale < hScale {
		return Size{
			Width:  base.Width * (1 + hScale),
			Height: base.Height,
		}
	}
	return Size{
		Width:  base.Width,
		Height: base.Height * (1 + wScale),
	}
}

// AspectRatioOverflow returns how many viewport pixels are lost when the
// photo of f, rotated to portrait, fills the viewport.
func AspectRatioOverflow(viewport Size, f Format) float64 {
	return FitScaled(viewport, f.PortraitSize()).Area() - viewport.Area()
}

// CoverOverflow returns how many pixels the photo of f, rotated to portrait,
// grows by when scaled with CoverScaled towards the viewport.
func CoverOverflow(viewport Size, f Format) float64 {
	camera := f.PortraitSize()
	return CoverScaled(camera, viewport).Area() - camera.Area()
}
