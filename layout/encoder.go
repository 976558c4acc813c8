// Package layout encodes recognized text lines as PDF content-stream text so
// that substitute fonts land on the pixels of the source image.
package layout

import (
	"math"

	"github.com/bits-and-blooms/bitset"

	"github.com/wudi/ocrpdf/contentstream"
	"github.com/wudi/ocrpdf/fonts"
	"github.com/wudi/ocrpdf/observability"
	"github.com/wudi/ocrpdf/ocr"
)

// TextMode selects how the text layer is rendered.
type TextMode string

const (
	ModeEbook TextMode = "ebook"
	ModeEval  TextMode = "eval"
	ModeProof TextMode = "proof"
	ModeInvis TextMode = "invis"
)

// Valid reports whether m is a known mode.
func (m TextMode) Valid() bool {
	switch m {
	case ModeEbook, ModeEval, ModeProof, ModeInvis:
		return true
	}
	return false
}

// Graphics state resource names referenced by encoded streams.
const (
	GStateInvisible = "GSO0"
	GStateProof     = "GSO1"
)

// minSkew is the smallest deskew angle, in degrees, that moves line origins
// when the background is rotated.
const minSkew = 0.05

// Params configures EncodePage.
type Params struct {
	Mode             TextMode
	RotateText       bool
	RotateBackground bool
	ConfThreshHigh   float64
	ConfThreshMed    float64
	Logger           observability.Logger
}

// Result is the encoded text layer of one page.
type Result struct {
	// Stream is empty when the page has nothing to draw.
	Stream []byte
	// Used holds the indices of the font slots referenced by Stream.
	Used *bitset.BitSet
	// GState is the graphics state resource selected before BT, if any.
	GState string
}

// Empty reports whether no text was encoded.
func (r Result) Empty() bool { return len(r.Stream) == 0 }

// EncodePage writes the text of page as a content stream for a page of size
// out (points). The text object opens with the cursor at the top of the page. It never fails: words that cannot be placed are skipped and
// glyphs missing from a font are replaced by spacing.
func EncodePage(page ocr.Page, out ocr.Dims, slots *fonts.SlotTable, p Params) Result {
	if slots == nil || slots.Len() == 0 {
		return Result{Used: bitset.New(0)}
	}
	used := bitset.New(uint(slots.Len()))
	if len(page.Lines) == 0 {
		return Result{Used: used}
	}
	e := newEncoder(page, out, slots, p, used)

	gs := ""
	switch p.Mode {
	case ModeInvis:
		gs = GStateInvisible
	case ModeProof, ModeEval:
		gs = GStateProof
	}
	if gs != "" {
		e.cs.SetGraphicsState(gs)
	}
	e.cs.BeginText()
	e.cs.SetTextMatrix(contentstream.Translate(0, e.out.Height))
	for i := range page.Lines {
		e.line(&page.Lines[i])
	}
	e.cs.EndText()
	if e.drawn == 0 {
		return Result{Used: used}
	}
	e.underlines()
	e.log.Debug("page text encoded",
		observability.Int("page", page.N),
		observability.Int("words", e.drawn),
		observability.Int("bytes", e.cs.Len()))
	return Result{Stream: e.cs.Bytes(), Used: used, GState: gs}
}

type encoder struct {
	p     Params
	log   observability.Logger
	slots *fonts.SlotTable
	used  *bitset.BitSet
	cs    contentstream.Builder

	scale  float64
	out    ocr.Dims
	angle  float64
	center [2]float64

	// Text state as last written to the stream.
	font  *fonts.Slot
	size  float64
	color contentstream.RGB
	rise  float64
	tz    float64

	arr   contentstream.TextArray
	runs  []underline
	drawn int
}

func newEncoder(page ocr.Page, out ocr.Dims, slots *fonts.SlotTable, p Params, used *bitset.BitSet) *encoder {
	scale := 1.0
	if page.Dims.Width > 0 && out.Width > 0 {
		scale = out.Width / page.Dims.Width
	}
	if out.Width <= 0 || out.Height <= 0 {
		out = ocr.Dims{Width: page.Dims.Width * scale, Height: page.Dims.Height * scale}
	}
	return &encoder{
		p:      p,
		log:    observability.OrNop(p.Logger).With(observability.Int("page", page.N)),
		slots:  slots,
		used:   used,
		scale:  scale,
		out:    out,
		angle:  page.Angle,
		center: [2]float64{out.Width / 2, out.Height / 2},
		tz:     100,
	}
}

// line writes one text line: a Tm at the baseline origin followed by one TJ
// per word, each preceded by the state operators that changed.
func (e *encoder) line(ln *ocr.Line) {
	geo := newGeometry(ln, e.scale)
	var prev *word
	var run *underline
	for i := range ln.Words {
		w, ok := e.prepare(ln, &ln.Words[i], geo)
		if !ok {
			continue
		}
		if prev == nil {
			e.setState(w)
			origin := w.start - w.lsb*w.th()
			e.cs.SetTextMatrix(e.lineMatrix(ln, geo, origin))
			geo.origin, geo.pen = origin, origin
		} else {
			e.gap(prev, w, geo)
			e.cs.ShowArray(&e.arr)
			e.arr.Reset()
			e.setState(w)
		}
		e.glyphs(w, geo)
		e.used.Set(uint(w.slot.Index))
		e.drawn++

		if w.src.Style.Underline {
			if run == nil {
				e.runs = append(e.runs, underline{
					matrix: e.lineMatrix(ln, geo, geo.origin),
					start:  w.start - geo.origin,
					size:   w.size,
					bold:   w.src.Style.Bold,
					color:  w.color,
				})
				run = &e.runs[len(e.runs)-1]
			}
			run.end = w.end - geo.origin
		} else {
			run = nil
		}
		prev = w
	}
	if prev == nil {
		return
	}
	e.cs.ShowArray(&e.arr)
	e.arr.Reset()
	if e.rise != 0 {
		e.rise = 0
		e.cs.SetRise(0)
	}
}

// setState emits Tf, rg, Ts and Tz when they differ from the current state,
// and Tc unconditionally.
func (e *encoder) setState(w *word) {
	if e.font != w.slot || !sameNumber(e.size, w.glyphs[0].size) {
		e.font, e.size = w.slot, w.glyphs[0].size
		e.cs.SetFont(w.slot.Name, e.size)
	}
	if e.color != w.color {
		e.color = w.color
		e.cs.SetFillRGB(w.color)
	}
	if !sameNumber(e.rise, w.rise) {
		e.rise = w.rise
		e.cs.SetRise(w.rise)
	}
	if !sameNumber(e.tz, w.tz) {
		e.tz = w.tz
		e.cs.SetHorizontalScale(w.tz)
	}
	e.cs.SetCharSpacing(w.tc)
}

// glyphs appends the glyph tokens of w to the open TJ array, starting a new
// array whenever the font size changes inside the word.
func (e *encoder) glyphs(w *word, geo *geometry) {
	th := w.th()
	var carry float64 // points
	for i, g := range w.glyphs {
		if !sameNumber(e.size, g.size) {
			e.cs.ShowArray(&e.arr)
			e.arr.Reset()
			e.size = g.size
			e.cs.SetFont(w.slot.Name, g.size)
		}
		if i > 0 {
			carry -= g.kern * g.size / 1000
			if adj := math.Trunc(carry * 1000 / g.size); adj != 0 {
				e.arr.Adjust(adj)
				carry -= adj * g.size / 1000
				geo.pen -= adj * g.size / 1000 * th
			}
		}
		if w.slot.Kind == fonts.KindType1 {
			e.arr.Literal([]byte{g.code})
		} else {
			e.arr.Glyph(uint16(g.gid))
		}
		geo.pen += (g.pdf*g.size/1000 + w.tc) * th
		carry += (g.pdf - g.width) * g.size / 1000
	}
}

// gap closes the TJ array of prev with the spacing that moves the pen to the
// first glyph origin of next.
func (e *encoder) gap(prev, next *word, geo *geometry) {
	last := prev.glyphs[len(prev.glyphs)-1]
	size := last.size
	target := next.start - next.lsb*next.th()

	withSpace := !(prev.cjkTail && next.cjkHead) && prev.hasSpace
	space := 0.0
	if withSpace {
		space = prev.spacePDF * size / 1000
		if prev.slot.Kind == fonts.KindType1 {
			e.arr.Literal([]byte{' '})
		} else {
			e.arr.Glyph(uint16(prev.space))
		}
	}
	e.arr.Adjust(gapAdjust(geo.pen, target, space, prev.tc, size, prev.th(), withSpace))
	geo.pen = target
}

// gapAdjust returns the TJ adjustment, in thousandths of size, that moves the
// pen from end to target. end is the pen after the previous word including
// the character spacing of its last glyph. When withSpace is set a space glyph
// of advance space (points) and its own character spacing come first.
func gapAdjust(end, target, space, tc, size, th float64, withSpace bool) float64 {
	moved := end
	if withSpace {
		moved += (space + tc) * th
	}
	return (moved - target) * 1000 / (size * th)
}

func (e *encoder) lineMatrix(ln *ocr.Line, geo *geometry, along float64) contentstream.Matrix {
	x, y := geo.point(along)
	x, y = x*e.scale, e.out.Height-y*e.scale
	deskewed := e.p.RotateBackground && math.Abs(e.angle) > minSkew
	if deskewed {
		x, y = rotateAbout(x, y, e.center[0], e.center[1], e.angle)
	}
	rot := -90 * float64(ln.Orientation.Normalize())
	// Text on a deskewed background is already upright.
	if e.p.RotateText && !deskewed {
		rot -= e.angle
	}
	return contentstream.Rotation(rot, x, y)
}

func rotateAbout(x, y, cx, cy, deg float64) (float64, float64) {
	return contentstream.Translate(-cx, -cy).Multiply(contentstream.Rotation(deg, cx, cy)).Transform(x, y)
}

func sameNumber(a, b float64) bool {
	return contentstream.FormatNumber(a) == contentstream.FormatNumber(b)
}
