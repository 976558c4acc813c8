package fonts

import (
	"fmt"
	"math"
	"strconv"

	"github.com/wudi/ocrpdf/contentstream"
	"github.com/wudi/ocrpdf/filters"
	"github.com/wudi/ocrpdf/writer"
)

// Descriptor flag bits (1-based bit positions per ISO 32000-1 table 123).
const (
	flagSerif       = 1 << 1
	flagNonsymbolic = 1 << 5
	flagItalic      = 1 << 6
)

// Embed serializes the objects of slot, one complete indirect object per
// element, in object-number order starting at slot.First.
func Embed(slot *Slot) [][]byte {
	italic := slot.Style.Italic()
	if slot.Kind == KindType1 {
		objs := EmbedType1(slot.Face, slot.First, italic)
		return objs[:]
	}
	objs := EmbedType0(slot.Face, slot.First, italic)
	return objs[:]
}

// EmbedType1 returns the font dictionary, font descriptor and font file of a
// simple WinAnsi-encoded font using object numbers first..first+2.
func EmbedType1(f Face, first writer.ObjectID, italic bool) [3][]byte {
	var out [3][]byte

	widths := make([]byte, 0, 4*(LastChar-FirstChar+1))
	for code := FirstChar; code <= LastChar; code++ {
		if code > FirstChar {
			widths = append(widths, ' ')
		}
		g, _ := f.Glyph(WinAnsiRune(byte(code)))
		widths = strconv.AppendInt(widths, int64(PDFWidth(f, g)), 10)
	}
	out[0] = writer.AppendObject(nil, first, fmt.Sprintf(
		"<</Type/Font/Subtype/Type1/BaseFont/%s/Encoding/WinAnsiEncoding/FirstChar %d/LastChar %d/Widths[%s]/FontDescriptor %s>>",
		f.PostScriptName(), FirstChar, LastChar, widths, (first+1).Ref()))
	out[1] = writer.AppendObject(nil, first+1, Descriptor(f, italic, first+2))
	out[2] = FontFile(first+2, f.Data())
	return out
}

// EmbedType0 returns the Type0 font dictionary, font descriptor, widths array,
// font file, CIDFontType2 dictionary and ToUnicode CMap of a composite font
// using object numbers first..first+5.
//
// The widths array lists every glyph of the font rather than only the glyphs
// in use.
func EmbedType0(f Face, first writer.ObjectID, italic bool) [6][]byte {
	var out [6][]byte
	name := f.PostScriptName()
	out[0] = writer.AppendObject(nil, first, fmt.Sprintf(
		"<</Type/Font/Subtype/Type0/BaseFont/%s/Encoding/Identity-H/DescendantFonts[%s]/ToUnicode %s>>",
		name, (first+4).Ref(), (first+5).Ref()))
	out[1] = writer.AppendObject(nil, first+1, Descriptor(f, italic, first+3))
	out[2] = writer.AppendObject(nil, first+2, string(cidWidths(f)))
	out[3] = FontFile(first+3, f.Data())
	out[4] = writer.AppendObject(nil, first+4, fmt.Sprintf(
		"<</Type/Font/Subtype/CIDFontType2/BaseFont/%s/CIDSystemInfo<</Registry(Adobe)/Ordering(Identity)/Supplement 0>>/FontDescriptor %s/W %s/CIDToGIDMap/Identity>>",
		name, (first+1).Ref(), (first+2).Ref()))
	out[5] = writer.AppendStream(nil, first+5, "", ToUnicodeCMap(f.ToUnicode()))
	return out
}

// cidWidths renders "[0 [w0 w1 ...]]" covering glyphs 0..N-1.
func cidWidths(f Face) []byte {
	n := f.NumGlyphs()
	buf := make([]byte, 0, 8+5*n)
	buf = append(buf, "[0 ["...)
	for g := 0; g < n; g++ {
		if g > 0 {
			if g%32 == 0 {
				buf = append(buf, '\n')
			} else {
				buf = append(buf, ' ')
			}
		}
		buf = strconv.AppendInt(buf, int64(PDFWidth(f, GlyphID(g))), 10)
	}
	return append(buf, "]]"...)
}

// Descriptor renders the FontDescriptor dictionary for f.
func Descriptor(f Face, italic bool, fontFile writer.ObjectID) string {
	flags := flagNonsymbolic
	if IsSerif(f.FamilyName()) || IsSerif(f.PostScriptName()) {
		flags |= flagSerif
	}
	if italic {
		flags |= flagItalic
	}
	var bbox Rect
	if b, ok := f.BBox(); ok {
		bbox = b
	}
	scale := func(v int) int { return int(math.Round(Scale(f, v))) }
	stemV := int(math.Round(0.08 * float64(f.UnitsPerEm())))
	return fmt.Sprintf(
		"<</Type/FontDescriptor/FontName/%s/Flags %d/FontBBox[%d %d %d %d]/ItalicAngle %s/Ascent %d/Descent %d/CapHeight %d/StemV %d/FontFile3 %s>>",
		f.PostScriptName(), flags,
		scale(bbox.XMin), scale(bbox.YMin), scale(bbox.XMax), scale(bbox.YMax),
		contentstream.FormatNumber(f.ItalicAngle()),
		scale(f.Ascent()), scale(f.Descent()), scale(f.CapHeight()),
		stemV, fontFile.Ref())
}

// FontFile renders the hex-encoded OpenType font program stream.
func FontFile(id writer.ObjectID, data []byte) []byte {
	return writer.AppendStream(nil, id, "/Subtype/OpenType/Filter/"+filters.ASCIIHexName, filters.AppendASCIIHex(nil, data))
}
