package builder

import (
	"github.com/wudi/ocrpdf/layout"
	"github.com/wudi/ocrpdf/observability"
	"github.com/wudi/ocrpdf/ocr"
)

// Progress is reported once per exported page.
type Progress struct {
	N    int
	Type string
	Info map[string]any
}

// RenderOptions controls what Build writes.
type RenderOptions struct {
	// MinPage and MaxPage bound the exported page indices, inclusive. A
	// negative MaxPage selects the last page.
	MinPage int
	MaxPage int

	TextMode         layout.TextMode
	RotateText       bool
	RotateBackground bool

	// DimsLimit caps the output page size; pages are scaled down preserving
	// their aspect ratio. The zero value means no limit.
	DimsLimit ocr.Dims

	ConfThreshHigh float64
	ConfThreshMed  float64
	ProofOpacity   float64

	// IncludeImages embeds Document.Images as page backgrounds.
	IncludeImages bool

	Progress func(Progress)
	Logger   observability.Logger
}

// DefaultRenderOptions returns the options used when Build gets none.
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{
		MinPage:        0,
		MaxPage:        -1,
		TextMode:       layout.ModeEbook,
		ConfThreshHigh: 85,
		ConfThreshMed:  75,
		ProofOpacity:   0.8,
		Logger:         observability.NopLogger{},
	}
}

// Option configures RenderOptions.
type Option func(*RenderOptions)

// WithPageRange exports pages min..max inclusive; max < 0 means the last page.
func WithPageRange(min, max int) Option {
	return func(o *RenderOptions) {
		o.MinPage, o.MaxPage = min, max
	}
}

// WithTextMode selects ebook, eval, proof or invis rendering.
func WithTextMode(m layout.TextMode) Option {
	return func(o *RenderOptions) {
		o.TextMode = m
	}
}

// WithRotateText rotates text by the page's detected skew.
func WithRotateText(v bool) Option {
	return func(o *RenderOptions) {
		o.RotateText = v
	}
}

// WithRotateBackground deskews page images and moves text with them.
func WithRotateBackground(v bool) Option {
	return func(o *RenderOptions) {
		o.RotateBackground = v
	}
}

// WithDimsLimit caps page dimensions.
func WithDimsLimit(width, height float64) Option {
	return func(o *RenderOptions) {
		o.DimsLimit = ocr.Dims{Width: width, Height: height}
	}
}

// WithConfidenceThresholds sets the proof-mode colour bands.
func WithConfidenceThresholds(high, med float64) Option {
	return func(o *RenderOptions) {
		o.ConfThreshHigh, o.ConfThreshMed = high, med
	}
}

// WithProofOpacity sets the text opacity used by proof and eval modes.
func WithProofOpacity(v float64) Option {
	return func(o *RenderOptions) {
		o.ProofOpacity = v
	}
}

// WithImages toggles embedding of page images.
func WithImages(include bool) Option {
	return func(o *RenderOptions) {
		o.IncludeImages = include
	}
}

// WithProgress registers a per-page callback.
func WithProgress(fn func(Progress)) Option {
	return func(o *RenderOptions) {
		o.Progress = fn
	}
}

// WithLogger routes warnings and debug output to l.
func WithLogger(l observability.Logger) Option {
	return func(o *RenderOptions) {
		o.Logger = l
	}
}
