package fonts

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/wudi/ocrpdf/writer"
)

func mustFace(t *testing.T, name string, data []byte) *SFNT {
	t.Helper()
	f, err := LoadFace(name, data)
	if err != nil {
		t.Fatalf("LoadFace(%s): %v", name, err)
	}
	return f
}

func goCatalog(t *testing.T) *Catalog {
	t.Helper()
	return &Catalog{
		Families: map[string]Family{
			"Go": {
				Normal:     mustFace(t, "Go", goregular.TTF),
				Italic:     mustFace(t, "Go Italic", goitalic.TTF),
				Bold:       mustFace(t, "Go Bold", gobold.TTF),
				BoldItalic: mustFace(t, "Go Bold Italic", gobolditalic.TTF),
			},
			"Courier": {Normal: mustFace(t, "Go Mono", gomono.TTF), Kind: KindType1},
		},
		Default: "Go",
	}
}

func TestLoadFace(t *testing.T) {
	f := mustFace(t, "Go", goregular.TTF)
	if f.UnitsPerEm() <= 0 {
		t.Fatalf("units per em = %d", f.UnitsPerEm())
	}
	if f.Ascent() <= 0 || f.Descent() >= 0 {
		t.Fatalf("ascent/descent = %d/%d", f.Ascent(), f.Descent())
	}
	if strings.ContainsAny(f.PostScriptName(), " /()") || f.PostScriptName() == "" {
		t.Fatalf("bad PostScript name %q", f.PostScriptName())
	}
	g, ok := f.Glyph('H')
	if !ok || g == 0 {
		t.Fatalf("no glyph for H")
	}
	if f.Advance(g) <= 0 {
		t.Fatalf("advance(H) = %d", f.Advance(g))
	}
	if _, ok := f.Glyph('\U0001F600'); ok {
		t.Fatalf("unexpected glyph for emoji")
	}
	if got := f.ToUnicode()[g]; got != 'H' {
		t.Fatalf("ToUnicode[%d] = %q, want H", g, got)
	}

	if _, err := LoadFace("empty", nil); err == nil {
		t.Fatalf("expected error for empty data")
	}
	if _, err := LoadFace("junk", []byte("not a font")); err == nil {
		t.Fatalf("expected error for junk data")
	}
}

func TestPDFWidthFloors(t *testing.T) {
	f := mustFace(t, "Go", goregular.TTF)
	for _, r := range "Hello, world" {
		g, _ := f.Glyph(r)
		w := Width(f, g)
		if got := PDFWidth(f, g); float64(got) > w || w-float64(got) >= 1 {
			t.Fatalf("PDFWidth(%q) = %d for width %v", r, got, w)
		}
	}
}

func TestIsSerif(t *testing.T) {
	tests := map[string]bool{
		"Times New Roman": true,
		"DejaVuSerif":     true,
		"DejaVuSans":      false,
		"NotoSansSC":      false,
		"Courier Mono":    false,
		"Go":              false,
		"EB Garamond":     true,
	}
	for name, want := range tests {
		if got := IsSerif(name); got != want {
			t.Errorf("IsSerif(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestWinAnsi(t *testing.T) {
	if c, ok := WinAnsiCode('€'); !ok || c != 0x80 {
		t.Fatalf("WinAnsiCode(€) = %#x, %v", c, ok)
	}
	if c, ok := WinAnsiCode('é'); !ok || c != 0xE9 {
		t.Fatalf("WinAnsiCode(é) = %#x, %v", c, ok)
	}
	if WinAnsiRune(0x97) != '—' {
		t.Fatalf("WinAnsiRune(0x97) = %q", WinAnsiRune(0x97))
	}
	if _, ok := WinAnsiCode('中'); ok {
		t.Fatalf("CJK rune encoded in WinAnsi")
	}
}

func TestSlotTableOrder(t *testing.T) {
	cat := goCatalog(t)
	cat.CJK = mustFace(t, "Go", goregular.TTF)
	alloc := writer.NewAllocator(3)
	tbl, err := NewSlotTable(cat, alloc)
	if err != nil {
		t.Fatalf("NewSlotTable: %v", err)
	}

	type row struct {
		Family string
		Style  Style
		Name   string
		First  writer.ObjectID
		Kind   Kind
	}
	var got []row
	for _, s := range tbl.Slots() {
		got = append(got, row{s.Family, s.Style, s.Name, s.First, s.Kind})
	}
	want := []row{
		{"Courier", StyleNormal, "FO0", 3, KindType1},
		{"Go", StyleNormal, "FO1", 6, KindType0},
		{"Go", StyleItalic, "FO2", 12, KindType0},
		{"Go", StyleBold, "FO3", 18, KindType0},
		{"Go", StyleBoldItalic, "FO4", 24, KindType0},
		{CJKFamily, StyleNormal, "FO5", 30, KindType0},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("slots mismatch (-want +got):\n%s", diff)
	}
	if alloc.Peek() != 36 {
		t.Fatalf("next object = %d, want 36", alloc.Peek())
	}
	if tbl.CJK().Name != "FO5" {
		t.Fatalf("CJK slot = %s", tbl.CJK().Name)
	}
}

func TestSlotLookupFallbacks(t *testing.T) {
	tbl, err := NewSlotTable(goCatalog(t), writer.NewAllocator(3))
	if err != nil {
		t.Fatalf("NewSlotTable: %v", err)
	}
	tests := []struct {
		family string
		style  Style
		want   string
	}{
		{"Go", StyleBold, "FO3"},
		{"Unknown", StyleItalic, "FO2"},
		{"", StyleNormal, "FO1"},
		{"Courier", StyleBoldItalic, "FO0"},
	}
	for _, tt := range tests {
		if got := tbl.Lookup(tt.family, tt.style).Name; got != tt.want {
			t.Errorf("Lookup(%q, %v) = %s, want %s", tt.family, tt.style, got, tt.want)
		}
	}
	if tbl.CJK() != nil {
		t.Fatalf("unexpected CJK slot")
	}
}

func TestSlotTableEmpty(t *testing.T) {
	if _, err := NewSlotTable(&Catalog{}, writer.NewAllocator(3)); err != ErrEmptyCatalog {
		t.Fatalf("err = %v, want ErrEmptyCatalog", err)
	}
	if _, err := NewSlotTable(nil, writer.NewAllocator(3)); err != ErrEmptyCatalog {
		t.Fatalf("nil catalog err = %v, want ErrEmptyCatalog", err)
	}
	hollow := &Catalog{Families: map[string]Family{CJKFamily: {}}}
	if !hollow.Empty() {
		t.Fatalf("catalog with a faceless CJK family is not empty")
	}
}

func TestSlotTableCJKFamily(t *testing.T) {
	cjk := mustFace(t, "Noto", goregular.TTF)
	cat := &Catalog{Families: map[string]Family{
		CJKFamily: {Bold: cjk},
		"Go":      {Normal: mustFace(t, "Go", goregular.TTF), Kind: KindType1},
	}}
	if cat.Empty() {
		t.Fatalf("catalog reported empty")
	}
	tbl, err := NewSlotTable(cat, writer.NewAllocator(3))
	if err != nil {
		t.Fatalf("NewSlotTable: %v", err)
	}
	if tbl.Len() != 2 {
		t.Fatalf("%d slots, want 2", tbl.Len())
	}
	s := tbl.CJK()
	if s == nil || s.Face != cjk || s.Kind != KindType0 || s.First != 6 || s.Index != 1 {
		t.Fatalf("CJK slot = %+v", s)
	}

	// An explicit CJK face wins over the family entry.
	cat.CJK = mustFace(t, "Explicit", goregular.TTF)
	tbl, err = NewSlotTable(cat, writer.NewAllocator(3))
	if err != nil {
		t.Fatalf("NewSlotTable: %v", err)
	}
	if tbl.CJK().Face != cat.CJK || tbl.Len() != 2 {
		t.Fatalf("explicit CJK face not used")
	}
}

var objHeader = regexp.MustCompile(`^(\d+) 0 obj\n`)

func objectNumber(t *testing.T, obj []byte) int {
	t.Helper()
	m := objHeader.FindSubmatch(obj)
	if m == nil {
		t.Fatalf("object does not start with a header: %.40q", obj)
	}
	n, _ := strconv.Atoi(string(m[1]))
	if !bytes.HasSuffix(obj, []byte("\nendobj\n\n")) {
		t.Fatalf("object %d is not terminated", n)
	}
	return n
}

func TestEmbedType0(t *testing.T) {
	f := mustFace(t, "Go Italic", goitalic.TTF)
	objs := EmbedType0(f, 10, true)
	for i, obj := range objs {
		if n := objectNumber(t, obj); n != 10+i {
			t.Fatalf("object %d numbered %d", i, n)
		}
	}
	mustContain := func(i int, subs ...string) {
		t.Helper()
		for _, s := range subs {
			if !bytes.Contains(objs[i], []byte(s)) {
				t.Errorf("object %d missing %q", i, s)
			}
		}
	}
	mustContain(0, "/Subtype/Type0", "/Encoding/Identity-H", "/DescendantFonts[14 0 R]", "/ToUnicode 15 0 R")
	mustContain(1, "/Type/FontDescriptor", "/FontFile3 13 0 R", "/Flags 96")
	mustContain(2, "[0 [")
	mustContain(3, "/Subtype/OpenType/Filter/ASCIIHexDecode")
	mustContain(4, "/Subtype/CIDFontType2", "/CIDSystemInfo<</Registry(Adobe)/Ordering(Identity)/Supplement 0>>",
		"/FontDescriptor 11 0 R", "/W 12 0 R", "/CIDToGIDMap/Identity")
	mustContain(5, "begincmap", "beginbfchar", "<0000> <FFFF>")

	g, _ := f.Glyph('H')
	if !bytes.Contains(objs[5], []byte("<"+strings.ToUpper(strconv.FormatInt(int64(g)|0x10000, 16)[1:])+"> <0048>")) {
		t.Errorf("ToUnicode lacks mapping for H (glyph %d)", g)
	}
}

func TestCIDWidthsCoverEveryGlyph(t *testing.T) {
	f := mustFace(t, "Go", goregular.TTF)
	w := string(cidWidths(f))
	if !strings.HasPrefix(w, "[0 [") || !strings.HasSuffix(w, "]]") {
		t.Fatalf("malformed W array %.40q", w)
	}
	if got := len(strings.Fields(w[4 : len(w)-2])); got != f.NumGlyphs() {
		t.Fatalf("W has %d widths, want %d", got, f.NumGlyphs())
	}
	lines := strings.Split(w, "\n")
	if want := (f.NumGlyphs() + 31) / 32; len(lines) != want {
		t.Fatalf("W has %d lines, want %d", len(lines), want)
	}
}

func TestEmbedType1(t *testing.T) {
	f := mustFace(t, "Go Mono", gomono.TTF)
	objs := EmbedType1(f, 3, false)
	for i, obj := range objs {
		if n := objectNumber(t, obj); n != 3+i {
			t.Fatalf("object %d numbered %d", i, n)
		}
	}
	dict := string(objs[0])
	for _, s := range []string{"/Subtype/Type1", "/Encoding/WinAnsiEncoding", "/FirstChar 32", "/LastChar 255", "/FontDescriptor 4 0 R"} {
		if !strings.Contains(dict, s) {
			t.Errorf("font dict missing %q", s)
		}
	}
	start := strings.Index(dict, "/Widths[")
	end := strings.Index(dict[start:], "]")
	widths := strings.Fields(dict[start+len("/Widths[") : start+end])
	if len(widths) != LastChar-FirstChar+1 {
		t.Fatalf("%d widths, want %d", len(widths), LastChar-FirstChar+1)
	}
	g, _ := f.Glyph('A')
	if widths['A'-FirstChar] != strconv.Itoa(PDFWidth(f, g)) {
		t.Fatalf("width of A = %s, want %d", widths['A'-FirstChar], PDFWidth(f, g))
	}
	if !strings.Contains(string(objs[1]), "/Flags 32/") {
		t.Errorf("descriptor flags: %s", objs[1])
	}
	if !strings.Contains(string(objs[1]), "/FontFile3 5 0 R") {
		t.Errorf("descriptor does not reference font file: %s", objs[1])
	}
}

func TestEmbedDispatch(t *testing.T) {
	tbl, err := NewSlotTable(goCatalog(t), writer.NewAllocator(3))
	if err != nil {
		t.Fatalf("NewSlotTable: %v", err)
	}
	for _, s := range tbl.Slots() {
		objs := Embed(&s)
		if len(objs) != s.Kind.Objects() {
			t.Fatalf("%s: %d objects, want %d", s.Name, len(objs), s.Kind.Objects())
		}
		if n := objectNumber(t, objs[0]); n != int(s.First) {
			t.Fatalf("%s: first object %d, want %d", s.Name, n, s.First)
		}
	}
}

func TestToUnicodeChunks(t *testing.T) {
	m := make(map[GlyphID]rune)
	for i := 1; i <= 250; i++ {
		m[GlyphID(i)] = rune('A' + i%26)
	}
	m[300] = '\U0001F600'
	cmap := string(ToUnicodeCMap(m))
	if got := strings.Count(cmap, "beginbfchar"); got != 3 {
		t.Fatalf("%d bfchar blocks, want 3", got)
	}
	for _, s := range []string{"100 beginbfchar", "51 beginbfchar", "<012C> <D83DDE00>", "/CMapName /Adobe-Identity-UCS def"} {
		if !strings.Contains(cmap, s) {
			t.Errorf("cmap missing %q", s)
		}
	}
}

func TestKernWithoutPairTables(t *testing.T) {
	// The Go fonts carry neither GPOS nor kern, so shaping the pair leaves
	// the advances untouched.
	f := mustFace(t, "Go", goregular.TTF)
	a, _ := f.Glyph('A')
	v, _ := f.Glyph('V')
	if k := f.Kern(a, v); k != 0 {
		t.Fatalf("Kern(A, V) = %d, want 0", k)
	}
	if k := f.Kern(a, v); k != 0 {
		t.Fatalf("cached Kern(A, V) = %d, want 0", k)
	}
	if k := f.Kern(0, v); k != 0 {
		t.Fatalf("Kern(.notdef, V) = %d, want 0", k)
	}
}
