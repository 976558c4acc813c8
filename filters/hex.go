// Package filters implements the stream encodings used when embedding binary
// payloads (fonts, images) into PDF objects.
package filters

import "encoding/hex"

// HexLineBytes is the number of source bytes encoded per output line.
const HexLineBytes = 32

// ASCIIHexName is the PDF filter name matching AppendASCIIHex output.
const ASCIIHexName = "ASCIIHexDecode"

// ASCIIHexLen returns the number of bytes AppendASCIIHex adds for n input bytes,
// including line breaks and the trailing '>' end-of-data marker.
func ASCIIHexLen(n int) int {
	if n == 0 {
		return 1
	}
	lines := (n + HexLineBytes - 1) / HexLineBytes
	return 2*n + (lines - 1) + 1
}

// AppendASCIIHex appends the ASCIIHexDecode encoding of data to dst, wrapping
// the output after every HexLineBytes input bytes and terminating it with '>'.
// Digits are written straight into dst.
func AppendASCIIHex(dst, data []byte) []byte {
	need := ASCIIHexLen(len(data))
	if cap(dst)-len(dst) < need {
		grown := make([]byte, len(dst), len(dst)+need)
		copy(grown, dst)
		dst = grown
	}
	for off := 0; off < len(data); off += HexLineBytes {
		end := min(off+HexLineBytes, len(data))
		if off > 0 {
			dst = append(dst, '\n')
		}
		start := len(dst)
		dst = dst[:start+2*(end-off)]
		hex.Encode(dst[start:], data[off:end])
	}
	return append(dst, '>')
}
