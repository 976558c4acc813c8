package layout

import (
	"math"
	"strings"
	"unicode"

	"github.com/go-text/typesetting/language"

	"github.com/wudi/ocrpdf/contentstream"
	"github.com/wudi/ocrpdf/fonts"
	"github.com/wudi/ocrpdf/observability"
	"github.com/wudi/ocrpdf/ocr"
)

// cjkLang is the recognition language whose words always use the CJK face.
const cjkLang = "chi_sim"

const smallCapsScale = 0.75

// fallbackAdvance is the advance, in thousandths of an em, given to a missing
// glyph when the font's .notdef has no width either.
const fallbackAdvance = 500

var (
	colorBlack  = contentstream.RGB{}
	colorHigh   = contentstream.RGB{R: 0, G: 1, B: 0.5}
	colorMedium = contentstream.RGB{R: 1, G: 0.8, B: 0}
	colorLow    = contentstream.RGB{R: 1, G: 0, B: 0}
)

type glyph struct {
	gid  fonts.GlyphID
	code byte
	size float64
	// width is the advance the glyph should occupy and pdf the advance a
	// viewer applies from /Widths or /W, both in thousandths of an em.
	width float64
	pdf   float64
	// kern is the pair adjustment with the preceding glyph.
	kern float64
}

// word is an OCR word resolved against a font slot with its spacing fitted to
// the measured box.
type word struct {
	src    *ocr.Word
	slot   *fonts.Slot
	size   float64
	glyphs []glyph

	// lsb and rsb are the outer side bearings in points at 100% scale.
	lsb, rsb   float64
	start, end float64

	tc, tz, rise float64
	color        contentstream.RGB

	space    fonts.GlyphID
	spacePDF float64
	hasSpace bool

	cjkHead, cjkTail bool
}

func (w *word) th() float64 { return w.tz / 100 }

func (e *encoder) prepare(ln *ocr.Line, src *ocr.Word, geo *geometry) (*word, bool) {
	text := strings.TrimSpace(src.Text)
	if text == "" || src.BBox.IsEmpty() {
		return nil, false
	}
	slot := e.slotFor(src)
	f := slot.Face
	w := &word{src: src, slot: slot, tz: 100}
	w.start, w.end = geo.span(src.BBox)
	w.size = e.fontSize(ln, src, geo, f)
	if !(w.size > 0) || math.IsInf(w.size, 0) {
		e.log.Debug("word skipped: no usable font size", observability.String("word", src.ID))
		return nil, false
	}
	e.shape(w, text)
	if len(w.glyphs) == 0 {
		return nil, false
	}

	first, last := w.glyphs[0], w.glyphs[len(w.glyphs)-1]
	lsb, _ := f.SideBearings(first.gid)
	_, rsb := f.SideBearings(last.gid)
	w.lsb = fonts.Scale(f, lsb) * first.size / 1000
	w.rsb = fonts.Scale(f, rsb) * last.size / 1000

	expected := -w.lsb - w.rsb
	for _, g := range w.glyphs {
		expected += (g.width + g.kern) * g.size / 1000
	}
	measured := w.end - w.start
	if src.Style.Dropcap {
		if expected > 0 {
			w.tz = 100 * measured / expected
		}
	} else {
		w.tc = (measured - expected) / float64(max(len(w.glyphs)-1, 1))
	}
	if src.Style.Sup || src.Style.Dropcap {
		w.rise = geo.rise(src.BBox, w.start)
	}
	w.color = e.colorOf(src)

	w.space, w.hasSpace = f.Glyph(' ')
	if w.hasSpace {
		w.spacePDF = float64(fonts.PDFWidth(f, w.space))
	}
	runes := []rune(text)
	w.cjkHead, w.cjkTail = isCJK(runes[0]), isCJK(runes[len(runes)-1])
	return w, true
}

// shape maps the runes of text to glyphs of the word's face.
func (e *encoder) shape(w *word, text string) {
	f := w.slot.Face
	simple := w.slot.Kind == fonts.KindType1
	space, _ := f.Glyph(' ')
	var prev fonts.GlyphID
	havePrev := false
	prevSize := 0.0
	for _, r := range text {
		if unicode.IsControl(r) {
			continue
		}
		g := glyph{size: w.size}
		if w.src.Style.SmallCaps && unicode.IsLower(r) {
			r = unicode.ToUpper(r)
			g.size = w.size * smallCapsScale
		}
		gid, ok := f.Glyph(r)
		code := byte(0)
		if simple && ok {
			code, ok = fonts.WinAnsiCode(r)
		}
		if ok {
			g.gid, g.code = gid, code
			g.width = fonts.Width(f, gid)
			if havePrev && prevSize == g.size {
				g.kern = fonts.Scale(f, f.Kern(prev, gid))
			}
		} else {
			e.log.Debug("glyph missing from font",
				observability.String("font", f.PostScriptName()),
				observability.Int("rune", int(r)))
			g.gid, g.code = space, ' '
			g.width = fonts.Width(f, 0)
			if g.width <= 0 {
				g.width = fallbackAdvance
			}
		}
		g.pdf = float64(fonts.PDFWidth(f, g.gid))
		w.glyphs = append(w.glyphs, g)
		prev, havePrev, prevSize = g.gid, ok, g.size
	}
}

// fontSize picks the size, in points, that makes f match the measured word.
func (e *encoder) fontSize(ln *ocr.Line, src *ocr.Word, geo *geometry, f fonts.Face) float64 {
	st := src.Style
	if st.Size > 0 {
		return st.Size * e.scale
	}
	upem := float64(f.UnitsPerEm())
	if st.Sup || st.Dropcap {
		if ch := f.CapHeight(); ch > 0 {
			return geo.height(src.BBox) * upem / float64(ch)
		}
	}
	if ln.AscHeight > 0 && f.CapHeight() > 0 {
		return ln.AscHeight * e.scale * upem / float64(f.CapHeight())
	}
	if ln.XHeight > 0 && f.XHeight() > 0 {
		return ln.XHeight * e.scale * upem / float64(f.XHeight())
	}
	h := geo.height(ln.BBox)
	if h <= 0 {
		h = geo.height(src.BBox)
	}
	if em := f.Ascent() - f.Descent(); em > 0 {
		return h * upem / float64(em)
	}
	return h
}

func (e *encoder) slotFor(w *ocr.Word) *fonts.Slot {
	if w.Lang == cjkLang {
		if s := e.slots.CJK(); s != nil {
			return s
		}
	}
	return e.slots.Lookup(w.Style.Family, fonts.StyleOf(w.Style.Bold, w.Style.Italic))
}

func (e *encoder) colorOf(w *ocr.Word) contentstream.RGB {
	switch e.p.Mode {
	case ModeProof:
		switch {
		case w.Conf > e.p.ConfThreshHigh:
			return colorHigh
		case w.Conf > e.p.ConfThreshMed:
			return colorMedium
		}
		return colorLow
	case ModeEval:
		if w.Matched {
			return colorHigh
		}
		return colorLow
	}
	return colorBlack
}

func isCJK(r rune) bool {
	switch language.LookupScript(r) {
	case language.Han, language.Hiragana, language.Katakana, language.Hangul:
		return true
	}
	return false
}
