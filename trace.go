package camselect

import (
	"go.uber.org/zap"
)

// FormatTrace describes the geometry computed for the left-hand format of a
// CompareFormats call.
type FormatTrace struct {
	Format   Format
	Viewport Size
	Camera   Size // Photo size rotated to portrait.
	Scaled   Size // Camera after CoverScaled towards Viewport.
	Overflow float64
}

// TraceFunc receives format traces, see Options.Trace.
type TraceFunc func(FormatTrace)

// ZapTracer returns a TraceFunc that logs each trace at debug level.
func ZapTracer(log *zap.Logger) TraceFunc {
	return func(t FormatTrace) {
		log.Debug("format overflow",
			zap.Stringer("viewport", t.Viewport),
			zap.Stringer("camera", t.Camera),
			zap.Stringer("scaled", t.Scaled),
			zap.Float64("overflow", t.Overflow),
			zap.Stringer("format", t.Format),
		)
	}
}
