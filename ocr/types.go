package ocr

import "context"

// Rect is an axis-aligned box in image pixel coordinates with the origin in
// the upper-left corner of the page image.
type Rect struct {
	Left   float64
	Top    float64
	Right  float64
	Bottom float64
}

func (r Rect) Width() float64  { return r.Right - r.Left }
func (r Rect) Height() float64 { return r.Bottom - r.Top }

// IsEmpty reports whether the box has non-positive dimensions.
func (r Rect) IsEmpty() bool { return r.Width() <= 0 || r.Height() <= 0 }

// Union returns the smallest box containing r and o. An empty r is ignored.
func (r Rect) Union(o Rect) Rect {
	if r.IsEmpty() {
		return o
	}
	if o.IsEmpty() {
		return r
	}
	return Rect{
		Left:   min(r.Left, o.Left),
		Top:    min(r.Top, o.Top),
		Right:  max(r.Right, o.Right),
		Bottom: max(r.Bottom, o.Bottom),
	}
}

// Dims is the pixel size of a page image.
type Dims struct {
	Width  float64
	Height float64
}

// Orientation is the clockwise rotation of a text line in multiples of 90°.
type Orientation int

const (
	Orientation0 Orientation = iota
	Orientation90
	Orientation180
	Orientation270
)

// Normalize maps out-of-range values to Orientation0.
func (o Orientation) Normalize() Orientation {
	if o < Orientation0 || o > Orientation270 {
		return Orientation0
	}
	return o
}

// Style carries per-word typographic attributes.
type Style struct {
	Bold      bool
	Italic    bool
	Underline bool
	SmallCaps bool
	Sup       bool
	Dropcap   bool
	// Size is the font size in pixels; zero means derive it from the line.
	Size float64
	// Family names a font family in the catalog; empty selects the default.
	Family string
}

// Word is a single recognized token.
type Word struct {
	ID    string
	Text  string
	BBox  Rect
	Style Style
	// Conf is the recognition confidence in the range 0-100.
	Conf float64
	// Lang is the Tesseract language code the word was recognized with.
	Lang string
	// VisualCoords is false when BBox was synthesized rather than measured.
	VisualCoords bool
	// Matched marks words that agree with a reference transcription.
	Matched bool
}

// Line groups words sharing a baseline.
type Line struct {
	BBox Rect
	// Baseline is (slope, offset); offset is measured from BBox.Bottom at
	// BBox.Left, negative values lie above the bottom edge.
	Baseline    [2]float64
	Orientation Orientation
	// AscHeight and XHeight are optional measured line metrics in pixels.
	AscHeight float64
	XHeight   float64
	Words     []Word
}

// Paragraph references a run of lines by index.
type Paragraph struct {
	BBox  Rect
	Lines []int
}

// Page is the layout of one page image.
type Page struct {
	N    int
	Dims Dims
	// Angle is the detected skew in degrees, positive clockwise.
	Angle float64
	Lines []Line
	Pars  []Paragraph
}

// WordCount returns the number of words across all lines.
func (p Page) WordCount() int {
	n := 0
	for _, l := range p.Lines {
		n += len(l.Words)
	}
	return n
}

// ImageFormat identifies the content type of an OCR input image.
type ImageFormat string

const (
	ImageFormatPNG  ImageFormat = "image/png"
	ImageFormatJPEG ImageFormat = "image/jpeg"
	ImageFormatTIFF ImageFormat = "image/tiff"
)

// Region restricts recognition to part of an image, in pixels.
type Region struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// IsEmpty reports whether the region has non-positive dimensions.
func (r Region) IsEmpty() bool { return r.Width <= 0 || r.Height <= 0 }

// Input encapsulates a single image submitted for OCR.
type Input struct {
	// ID is an optional caller-provided identifier.
	ID string
	// Image is the encoded image payload in the format specified by Format.
	Image  []byte
	Format ImageFormat
	// PageIndex is the zero-based page number assigned to the resulting Page.
	PageIndex int
	// DPI carries the effective dots-per-inch for the image; zero means unknown.
	DPI int
	// Languages is a list of Tesseract language codes (e.g. "eng", "chi_sim").
	Languages []string
	// Region restricts recognition to a subsection of the image. Nil means the
	// full image should be processed.
	Region *Region
	// Metadata passes engine-specific knobs (e.g. "tessedit_pageseg_mode").
	Metadata map[string]string
}

// Engine is the simplest OCR provider contract: one image in, one page out.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, input Input) (Page, error)
}

// BatchEngine handles multiple images in a single call, enabling providers that
// amortize setup costs.
type BatchEngine interface {
	Engine
	RecognizeBatch(ctx context.Context, inputs []Input) ([]Page, error)
}
