package fonts

import "golang.org/x/text/encoding/charmap"

const (
	// FirstChar and LastChar bound the /Widths array of simple fonts.
	FirstChar = 32
	LastChar  = 255
)

// WinAnsiCode returns the WinAnsiEncoding byte for r.
func WinAnsiCode(r rune) (byte, bool) {
	return charmap.Windows1252.EncodeRune(r)
}

// WinAnsiRune returns the character encoded by code.
func WinAnsiRune(code byte) rune {
	return charmap.Windows1252.DecodeByte(code)
}
