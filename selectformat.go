package camselect

import (
	"errors"
	"math"
	"sort"
)

// ErrNoFormats is returned when no format matches the requirements.
var ErrNoFormats = errors.New("no matching formats")

// FrameRateIncluded returns whether fps lies within r, bounds included.
func FrameRateIncluded(r FrameRateRange, fps float64) bool {
	return fps >= r.Min && fps <= r.Max
}

// FilterFormatsByFrameRate returns the formats with a frame rate range that
// includes fps. If fps <= 0, all formats are returned.
func FilterFormatsByFrameRate(formats []Format, fps float64) []Format {
	var r []Format
	for _, f := range formats {
		if fps <= 0 {
			r = append(r, f)
			continue
		}
		for _, fr := range f.FrameRateRanges {
			if FrameRateIncluded(fr, fps) {
				r = append(r, f)
				break
			}
		}
	}
	return r
}

// FilterFormatsByAspectRatio returns the formats whose AspectRatioOverflow for
// the viewport is the smallest, in their original order. Overflows are
// compared exactly.
func FilterFormatsByAspectRatio(opts Options, formats []Format) []Format {
	overflows := make([]float64, len(formats))
	minOverflow := math.Inf(1)
	for i, f := range formats {
		overflows[i] = AspectRatioOverflow(opts.Viewport, f)
		if overflows[i] < minOverflow {
			minOverflow = overflows[i]
		}
	}

	var r []Format
	for i, f := range formats {
		if overflows[i] == minOverflow {
			r = append(r, f)
		}
	}
	return r
}

func stabilizationScore(f Format) int {
	var n int
	for _, m := range f.VideoStabilizationModes {
		p, err := m.Points()
		if err != nil {
			// Modes are validated when formats are read.
			panic(err)
		}
		n += p
	}
	return n
}

func boolScore(b bool) int {
	if b {
		return 1
	}
	return 0
}

// CompareFormats compares two formats. Each criterion gives its weight in
// points to the format that is strictly better for it:
//   - 5 for more photo pixels.
//   - 3 for more video pixels, only if both formats have a video size.
//   - 3 for a lower CoverOverflow.
//   - 2 for better video stabilization.
//   - 1 for video HDR.
//   - 1 for photo HDR.
//
// CompareFormats returns a negative value if left is better, 0 if the formats
// score the same and a positive value if right is better. There is no tie
// break.
func CompareFormats(opts Options, left, right Format) int {
	var leftPoints, rightPoints int
	award := func(l, r float64, weight int) {
		if l > r {
			leftPoints += weight
		} else if r > l {
			rightPoints += weight
		}
	}

	award(float64(left.PhotoPixels()), float64(right.PhotoPixels()), 5)

	if left.HasVideo() && right.HasVideo() {
		award(float64(left.VideoPixels()), float64(right.VideoPixels()), 3)
	}

	leftOverflow := CoverOverflow(opts.Viewport, left)
	rightOverflow := CoverOverflow(opts.Viewport, right)
	if opts.Trace != nil {
		camera := left.PortraitSize()
		opts.Trace(FormatTrace{
			Format:   left,
			Viewport: opts.Viewport,
			Camera:   camera,
			Scaled:   CoverScaled(camera, opts.Viewport),
			Overflow: leftOverflow,
		})
	}
	// Lower overflow is better.
	award(-leftOverflow, -rightOverflow, 3)

	award(float64(stabilizationScore(left)), float64(stabilizationScore(right)), 2)
	award(float64(boolScore(left.SupportsVideoHDR)), float64(boolScore(right.SupportsVideoHDR)), 1)
	award(float64(boolScore(left.SupportsPhotoHDR)), float64(boolScore(right.SupportsPhotoHDR)), 1)

	return rightPoints - leftPoints
}

// SortFormats returns a copy of formats sorted best first. Formats that
// compare equal keep their relative order.
func SortFormats(opts Options, formats []Format) []Format {
	r := make([]Format, len(formats))
	copy(r, formats)
	sort.SliceStable(r, func(i, j int) bool {
		return CompareFormats(opts, r[i], r[j]) < 0
	})
	return r
}

// SelectFormat returns the best format that supports fps (any frame rate if
// fps <= 0): formats are filtered by frame rate, then by aspect ratio, and the
// best remaining format by CompareFormats is returned.
func SelectFormat(opts Options, formats []Format, fps float64) (Format, error) {
	candidates := FilterFormatsByFrameRate(formats, fps)
	candidates = FilterFormatsByAspectRatio(opts, candidates)
	if len(candidates) == 0 {
		return Format{}, ErrNoFormats
	}
	return SortFormats(opts, candidates)[0], nil
}
