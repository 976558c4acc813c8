package fonts

import (
	"fmt"
	"sort"
	"unicode/utf16"
)

// bfcharBlock is the maximum number of entries per beginbfchar block.
const bfcharBlock = 100

// ToUnicodeCMap builds a ToUnicode CMap mapping two-byte glyph codes to the
// Unicode text they represent.
func ToUnicodeCMap(m map[GlyphID]rune) []byte {
	gids := make([]int, 0, len(m))
	for g := range m {
		gids = append(gids, int(g))
	}
	sort.Ints(gids)

	buf := make([]byte, 0, 256+len(gids)*20)
	buf = append(buf, "/CIDInit /ProcSet findresource begin\n"...)
	buf = append(buf, "12 dict begin\n"...)
	buf = append(buf, "begincmap\n"...)
	buf = append(buf, "/CIDSystemInfo << /Registry (Adobe) /Ordering (UCS) /Supplement 0 >> def\n"...)
	buf = append(buf, "/CMapName /Adobe-Identity-UCS def\n"...)
	buf = append(buf, "/CMapType 2 def\n"...)
	buf = append(buf, "1 begincodespacerange\n<0000> <FFFF>\nendcodespacerange\n"...)
	for i := 0; i < len(gids); i += bfcharBlock {
		chunk := gids[i:min(i+bfcharBlock, len(gids))]
		buf = fmt.Appendf(buf, "%d beginbfchar\n", len(chunk))
		for _, g := range chunk {
			buf = fmt.Appendf(buf, "<%04X> <", g)
			for _, u := range utf16.Encode([]rune{m[GlyphID(g)]}) {
				buf = fmt.Appendf(buf, "%04X", u)
			}
			buf = append(buf, ">\n"...)
		}
		buf = append(buf, "endbfchar\n"...)
	}
	buf = append(buf, "endcmap\n"...)
	buf = append(buf, "CMapName currentdict /CMap defineresource pop\n"...)
	buf = append(buf, "end\nend"...)
	return buf
}
