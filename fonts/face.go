// Package fonts loads OpenType/TrueType faces, organises them into the catalog
// used for export, and serializes them as PDF font objects.
package fonts

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/go-text/typesetting/di"
	gotext "github.com/go-text/typesetting/font"
	ot "github.com/go-text/typesetting/font/opentype"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// GlyphID is a glyph index into a font's glyph table.
type GlyphID uint16

// Rect is a box in font units.
type Rect struct {
	XMin, YMin, XMax, YMax int
}

// Face is the read-only font handle used by the layout encoder and the
// embedder. All metrics are in font units unless stated otherwise.
type Face interface {
	PostScriptName() string
	FamilyName() string
	UnitsPerEm() int
	// Ascent is positive, Descent negative.
	Ascent() int
	Descent() int
	CapHeight() int
	XHeight() int
	ItalicAngle() float64
	// BBox reports the head table bounding box, ok is false if unknown.
	BBox() (r Rect, ok bool)
	NumGlyphs() int
	// Glyph maps r through the cmap; ok is false for unmapped runes.
	Glyph(r rune) (g GlyphID, ok bool)
	Advance(g GlyphID) int
	// SideBearings returns the left and right side bearings of g.
	SideBearings(g GlyphID) (lsb, rsb int)
	// Kern returns the pair adjustment between left and right, 0 if none.
	Kern(left, right GlyphID) int
	// ToUnicode maps every glyph reachable from the cmap to its lowest code point.
	ToUnicode() map[GlyphID]rune
	// Data is the raw font file.
	Data() []byte
}

// SFNT is a Face backed by golang.org/x/image/font/sfnt. It caches per-glyph
// metrics and is not safe for concurrent use.
type SFNT struct {
	data   []byte
	font   *sfnt.Font
	buf    sfnt.Buffer
	ppem   fixed.Int26_6
	upem   int
	psName string
	family string

	ascent, descent    int
	capHeight, xHeight int
	bbox               Rect
	hasBBox            bool

	advances []int32
	toUni    map[GlyphID]rune
	kerns    map[[2]GlyphID]int

	// shaped is parsed on first use; shapedErr records a failed parse.
	shaped    *gotext.Face
	shapedErr error
}

// LoadFace parses a TrueType or OpenType font file.
func LoadFace(name string, data []byte) (*SFNT, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("font %q: data is empty", name)
	}
	f, err := sfnt.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font %q: %w", name, err)
	}
	upem := int(f.UnitsPerEm())
	if upem == 0 {
		return nil, fmt.Errorf("font %q: invalid unitsPerEm", name)
	}
	s := &SFNT{
		data: data,
		font: f,
		ppem: fixed.Int26_6(upem << 6),
		upem: upem,
	}
	if fam, err := f.Name(&s.buf, sfnt.NameIDFamily); err == nil {
		s.family = fam
	}
	if s.family == "" {
		s.family = strings.TrimSpace(name)
	}
	if ps, err := f.Name(&s.buf, sfnt.NameIDPostScript); err == nil && ps != "" {
		s.psName = pdfName(ps)
	}
	if s.psName == "" {
		s.psName = pdfName(s.family)
	}
	if s.psName == "" {
		s.psName = "CustomFont"
	}

	if m, err := f.Metrics(&s.buf, s.ppem, xfont.HintingNone); err == nil {
		s.ascent = units(m.Ascent)
		s.descent = -units(m.Descent)
		s.capHeight = units(m.CapHeight)
		s.xHeight = units(m.XHeight)
	}
	if s.capHeight == 0 {
		s.capHeight = s.ascent * 7 / 10
	}
	if s.xHeight == 0 {
		s.xHeight = s.ascent / 2
	}
	if b, err := f.Bounds(&s.buf, s.ppem, xfont.HintingNone); err == nil && b.Min != b.Max {
		// sfnt reports bounds with y growing downwards.
		s.bbox = Rect{XMin: units(b.Min.X), YMin: -units(b.Max.Y), XMax: units(b.Max.X), YMax: -units(b.Min.Y)}
		s.hasBBox = true
	}
	s.kerns = make(map[[2]GlyphID]int)
	s.advances = make([]int32, f.NumGlyphs())
	for i := range s.advances {
		s.advances[i] = -1
	}
	return s, nil
}

func units(v fixed.Int26_6) int {
	if v < 0 {
		return -int((-v + 32) >> 6)
	}
	return int((v + 32) >> 6)
}

// pdfName strips characters that are not allowed unescaped in a PDF name.
func pdfName(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r <= ' ' || r > '~' || strings.ContainsRune("()<>[]{}/%#", r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SFNT) PostScriptName() string { return s.psName }
func (s *SFNT) FamilyName() string     { return s.family }
func (s *SFNT) UnitsPerEm() int        { return s.upem }
func (s *SFNT) Ascent() int            { return s.ascent }
func (s *SFNT) Descent() int           { return s.descent }
func (s *SFNT) CapHeight() int         { return s.capHeight }
func (s *SFNT) XHeight() int           { return s.xHeight }
func (s *SFNT) NumGlyphs() int         { return len(s.advances) }
func (s *SFNT) Data() []byte           { return s.data }
func (s *SFNT) BBox() (Rect, bool)     { return s.bbox, s.hasBBox }

func (s *SFNT) ItalicAngle() float64 {
	if post := s.font.PostTable(); post != nil {
		return post.ItalicAngle
	}
	return 0
}

func (s *SFNT) Glyph(r rune) (GlyphID, bool) {
	g, err := s.font.GlyphIndex(&s.buf, r)
	if err != nil || g == 0 {
		return 0, false
	}
	return GlyphID(g), true
}

func (s *SFNT) Advance(g GlyphID) int {
	if int(g) >= len(s.advances) {
		return 0
	}
	if a := s.advances[g]; a >= 0 {
		return int(a)
	}
	adv, err := s.font.GlyphAdvance(&s.buf, sfnt.GlyphIndex(g), s.ppem, xfont.HintingNone)
	if err != nil {
		adv = 0
	}
	s.advances[g] = int32(units(adv))
	return int(s.advances[g])
}

func (s *SFNT) SideBearings(g GlyphID) (int, int) {
	b, adv, err := s.font.GlyphBounds(&s.buf, sfnt.GlyphIndex(g), s.ppem, xfont.HintingNone)
	if err != nil || b.Min.X == b.Max.X {
		return 0, 0
	}
	return units(b.Min.X), units(adv - b.Max.X)
}

// Kern returns the pair adjustment HarfBuzz applies between left and right,
// which covers GPOS pair positioning as well as the legacy kern table.
func (s *SFNT) Kern(left, right GlyphID) int {
	key := [2]GlyphID{left, right}
	if k, ok := s.kerns[key]; ok {
		return k
	}
	k, ok := s.shapedKern(left, right)
	if !ok {
		k = s.tableKern(left, right)
	}
	s.kerns[key] = k
	return k
}

// noSubstitution keeps the shaper from replacing the pair with ligatures or
// contextual alternates so its output lines up with the input glyphs.
var noSubstitution = []shaping.FontFeature{
	{Tag: ot.MustNewTag("liga"), Value: 0},
	{Tag: ot.MustNewTag("clig"), Value: 0},
	{Tag: ot.MustNewTag("calt"), Value: 0},
	{Tag: ot.MustNewTag("dlig"), Value: 0},
}

func (s *SFNT) shapedKern(left, right GlyphID) (int, bool) {
	face := s.textFace()
	if face == nil {
		return 0, false
	}
	uni := s.ToUnicode()
	l, okl := uni[left]
	r, okr := uni[right]
	if !okl || !okr {
		return 0, false
	}
	out := (&shaping.HarfbuzzShaper{}).Shape(shaping.Input{
		Text:         []rune{l, r},
		RunStart:     0,
		RunEnd:       2,
		Direction:    di.DirectionLTR,
		Face:         face,
		FontFeatures: noSubstitution,
		// One unit per font unit.
		Size:     fixed.Int26_6(s.upem << 6),
		Script:   language.LookupScript(l),
		Language: language.DefaultLanguage(),
	})
	if len(out.Glyphs) != 2 || GlyphID(out.Glyphs[0].GlyphID) != left || GlyphID(out.Glyphs[1].GlyphID) != right {
		return 0, false
	}
	return units(out.Glyphs[0].XAdvance) - s.Advance(left), true
}

func (s *SFNT) tableKern(left, right GlyphID) int {
	k, err := s.font.Kern(&s.buf, sfnt.GlyphIndex(left), sfnt.GlyphIndex(right), s.ppem, xfont.HintingNone)
	if err != nil {
		return 0
	}
	return units(k)
}

func (s *SFNT) textFace() *gotext.Face {
	if s.shaped == nil && s.shapedErr == nil {
		s.shaped, s.shapedErr = gotext.ParseTTF(bytes.NewReader(s.data))
	}
	return s.shaped
}

func (s *SFNT) ToUnicode() map[GlyphID]rune {
	if s.toUni != nil {
		return s.toUni
	}
	m, err := cmapFromFace(s.textFace())
	if err != nil {
		m = s.cmapFromBMP()
	}
	s.toUni = m
	return m
}

var errNoCmap = errors.New("font has no usable cmap")

// cmapFromFace walks the cmap with go-text/typesetting, which exposes the
// full mapping (including supplementary planes).
func cmapFromFace(face *gotext.Face) (map[GlyphID]rune, error) {
	if face == nil || face.Cmap == nil {
		return nil, errNoCmap
	}
	m := make(map[GlyphID]rune)
	it := face.Cmap.Iter()
	for it.Next() {
		r, gid := it.Char()
		if gid == 0 || uint32(gid) > 0xFFFF {
			continue
		}
		g := GlyphID(gid)
		if prev, ok := m[g]; !ok || r < prev {
			m[g] = r
		}
	}
	if len(m) == 0 {
		return nil, errNoCmap
	}
	return m, nil
}

// cmapFromBMP looks up every Basic Multilingual Plane code point.
func (s *SFNT) cmapFromBMP() map[GlyphID]rune {
	m := make(map[GlyphID]rune)
	for r := rune(0x20); r <= 0xFFFF; r++ {
		if r >= 0xD800 && r <= 0xDFFF {
			continue
		}
		if g, ok := s.Glyph(r); ok {
			if _, seen := m[g]; !seen {
				m[g] = r
			}
		}
	}
	return m
}

// Width converts a glyph advance to thousandths of an em.
func Width(f Face, g GlyphID) float64 {
	return float64(f.Advance(g)) * 1000 / float64(f.UnitsPerEm())
}

// PDFWidth is the integer width written to /Widths and /W arrays.
func PDFWidth(f Face, g GlyphID) int {
	w := Width(f, g)
	return int(math.Floor(w))
}

// Scale converts font units to thousandths of an em.
func Scale(f Face, v int) float64 {
	return float64(v) * 1000 / float64(f.UnitsPerEm())
}
