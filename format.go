package camselect

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// ErrInvalidDimension is returned when a size or format has a non-positive dimension.
	ErrInvalidDimension = errors.New("invalid dimension")

	// ErrUnknownStabilizationMode is returned for a stabilization mode outside the known set.
	ErrUnknownStabilizationMode = errors.New("unknown stabilization mode")
)

// Size is a width and height, in pixels or in display points.
type Size struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// Area returns Width * Height.
func (s Size) Area() float64 {
	return s.Width * s.Height
}

// Validate returns an error wrapping ErrInvalidDimension if either dimension
// is not positive.
func (s Size) Validate() error {
	if !(s.Width > 0) || !(s.Height > 0) {
		return fmt.Errorf("%w: %vx%v", ErrInvalidDimension, s.Width, s.Height)
	}
	return nil
}

func (s Size) String() string {
	return fmt.Sprintf("%gx%g", s.Width, s.Height)
}

// ParseSize parses a size written as "WIDTHxHEIGHT", e.g. "1080x2340".
func ParseSize(s string) (Size, error) {
	t := strings.SplitN(strings.ToLower(strings.TrimSpace(s)), "x", 2)
	if len(t) != 2 {
		return Size{}, fmt.Errorf("size %q: expected WIDTHxHEIGHT", s)
	}
	w, err := strconv.ParseFloat(strings.TrimSpace(t[0]), 64)
	if err != nil {
		return Size{}, fmt.Errorf("size %q: parsing width: %v", s, err)
	}
	h, err := strconv.ParseFloat(strings.TrimSpace(t[1]), 64)
	if err != nil {
		return Size{}, fmt.Errorf("size %q: parsing height: %v", s, err)
	}
	r := Size{Width: w, Height: h}
	if err := r.Validate(); err != nil {
		return Size{}, err
	}
	return r, nil
}

// StabilizationMode is a video stabilization mode supported by a format.
type StabilizationMode string

// Known stabilization modes.
const (
	StabilizationOff               StabilizationMode = "off"
	StabilizationAuto              StabilizationMode = "auto"
	StabilizationStandard          StabilizationMode = "standard"
	StabilizationCinematic         StabilizationMode = "cinematic"
	StabilizationCinematicExtended StabilizationMode = "cinematic-extended"
)

// ParseStabilizationMode returns the mode named by s, or an error wrapping
// ErrUnknownStabilizationMode.
func ParseStabilizationMode(s string) (StabilizationMode, error) {
	m := StabilizationMode(strings.ToLower(strings.TrimSpace(s)))
	if _, err := m.Points(); err != nil {
		return "", err
	}
	return m, nil
}

// Points returns how much the mode contributes to a format's stabilization
// score. Better stabilization gets more points.
func (m StabilizationMode) Points() (int, error) {
	switch m {
	case StabilizationCinematicExtended:
		return 3, nil
	case StabilizationCinematic:
		return 2, nil
	case StabilizationStandard, StabilizationAuto:
		return 1, nil
	case StabilizationOff:
		return 0, nil
	}
	return 0, fmt.Errorf("%w %q", ErrUnknownStabilizationMode, string(m))
}

// UnmarshalYAML rejects unknown modes.
func (m *StabilizationMode) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	mode, err := ParseStabilizationMode(s)
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// FrameRateRange is an inclusive range of frame rates.
type FrameRateRange struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

func (r FrameRateRange) String() string {
	if r.Min == r.Max {
		return fmt.Sprintf("%gfps", r.Max)
	}
	return fmt.Sprintf("%g-%gfps", r.Min, r.Max)
}

// Format is a capture format of a device. Video dimensions are optional: both
// zero means the format has no separate video size.
type Format struct {
	PhotoWidth              int                 `yaml:"photo_width"`
	PhotoHeight             int                 `yaml:"photo_height"`
	VideoWidth              int                 `yaml:"video_width,omitempty"`
	VideoHeight             int                 `yaml:"video_height,omitempty"`
	PixelFormat             string              `yaml:"pixel_format,omitempty"` // Informational, e.g. "MJPG" or "YUY2".
	VideoStabilizationModes []StabilizationMode `yaml:"video_stabilization_modes,omitempty"`
	SupportsPhotoHDR        bool                `yaml:"supports_photo_hdr,omitempty"`
	SupportsVideoHDR        bool                `yaml:"supports_video_hdr,omitempty"`
	FrameRateRanges         []FrameRateRange    `yaml:"frame_rate_ranges,omitempty"`
}

// HasVideo returns whether the format has video dimensions.
func (f Format) HasVideo() bool {
	return f.VideoWidth != 0 && f.VideoHeight != 0
}

// PhotoPixels returns the number of pixels of a photo.
func (f Format) PhotoPixels() int {
	return f.PhotoWidth * f.PhotoHeight
}

// VideoPixels returns the number of pixels of a video frame, 0 without video.
func (f Format) VideoPixels() int {
	return f.VideoWidth * f.VideoHeight
}

// PortraitSize returns the photo size rotated from the landscape sensor
// orientation to portrait: the photo height becomes the width.
func (f Format) PortraitSize() Size {
	return Size{Width: float64(f.PhotoHeight), Height: float64(f.PhotoWidth)}
}

// Validate checks the photo dimensions are positive and that video
// dimensions are either both set or both absent.
func (f Format) Validate() error {
	if f.PhotoWidth <= 0 || f.PhotoHeight <= 0 {
		return fmt.Errorf("photo size: %w: %dx%d", ErrInvalidDimension, f.PhotoWidth, f.PhotoHeight)
	}
	if (f.VideoWidth == 0) != (f.VideoHeight == 0) || f.VideoWidth < 0 || f.VideoHeight < 0 {
		return fmt.Errorf("video size: %w: %dx%d", ErrInvalidDimension, f.VideoWidth, f.VideoHeight)
	}
	for _, m := range f.VideoStabilizationModes {
		if _, err := m.Points(); err != nil {
			return err
		}
	}
	for _, r := range f.FrameRateRanges {
		if r.Min > r.Max {
			return fmt.Errorf("frame rate range %v: min > max", r)
		}
	}
	return nil
}

func (f Format) String() string {
	s := fmt.Sprintf("photo %dx%d", f.PhotoWidth, f.PhotoHeight)
	if f.HasVideo() {
		s += fmt.Sprintf(", video %dx%d", f.VideoWidth, f.VideoHeight)
	}
	if f.PixelFormat != "" {
		s += " " + f.PixelFormat
	}
	if len(f.FrameRateRanges) > 0 {
		l := make([]string, len(f.FrameRateRanges))
		for i, r := range f.FrameRateRanges {
			l[i] = r.String()
		}
		s += " @ " + strings.Join(l, ",")
	}
	if len(f.VideoStabilizationModes) > 0 {
		l := make([]string, len(f.VideoStabilizationModes))
		for i, m := range f.VideoStabilizationModes {
			l[i] = string(m)
		}
		s += ", stabilization " + strings.Join(l, ",")
	}
	if f.SupportsPhotoHDR {
		s += ", photo hdr"
	}
	if f.SupportsVideoHDR {
		s += ", video hdr"
	}
	return s
}
