// Package contentstream writes PDF content-stream operators. Numbers are
// formatted deterministically with at most five decimals so identical input
// always yields identical bytes.
package contentstream

import (
	"math"
	"strconv"
)

const numberPrecision = 1e5

// AppendNumber appends v in the shortest decimal form after rounding to five
// decimals. Negative zero is written as 0.
func AppendNumber(dst []byte, v float64) []byte {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return append(dst, '0')
	}
	r := math.Round(v*numberPrecision) / numberPrecision
	if r == 0 {
		return append(dst, '0')
	}
	return strconv.AppendFloat(dst, r, 'f', -1, 64)
}

// FormatNumber is AppendNumber for a fresh string.
func FormatNumber(v float64) string { return string(AppendNumber(nil, v)) }

// AppendLiteral appends data as a PDF literal string, escaping delimiters and
// non-printable bytes.
func AppendLiteral(dst []byte, data []byte) []byte {
	dst = append(dst, '(')
	for _, ch := range data {
		switch ch {
		case '\\', '(', ')':
			dst = append(dst, '\\', ch)
		case '\n':
			dst = append(dst, '\\', 'n')
		case '\r':
			dst = append(dst, '\\', 'r')
		case '\t':
			dst = append(dst, '\\', 't')
		case '\b':
			dst = append(dst, '\\', 'b')
		case '\f':
			dst = append(dst, '\\', 'f')
		default:
			if ch < 0x20 || ch >= 0x7F {
				dst = append(dst, '\\', '0'+ch>>6, '0'+(ch>>3)&7, '0'+ch&7)
			} else {
				dst = append(dst, ch)
			}
		}
	}
	return append(dst, ')')
}

// Builder accumulates a content stream.
type Builder struct {
	buf []byte
}

// Bytes returns the stream written so far.
func (b *Builder) Bytes() []byte { return b.buf }

// Len returns the number of bytes written so far.
func (b *Builder) Len() int { return len(b.buf) }

// Op writes the operands followed by the operator and a newline.
func (b *Builder) Op(op string, operands ...float64) {
	for _, v := range operands {
		b.buf = AppendNumber(b.buf, v)
		b.buf = append(b.buf, ' ')
	}
	b.buf = append(b.buf, op...)
	b.buf = append(b.buf, '\n')
}

// NameOp writes "/name op".
func (b *Builder) NameOp(name, op string) {
	b.buf = append(b.buf, '/')
	b.buf = append(b.buf, name...)
	b.buf = append(b.buf, ' ')
	b.buf = append(b.buf, op...)
	b.buf = append(b.buf, '\n')
}

// Append copies raw bytes into the stream.
func (b *Builder) Append(p []byte) { b.buf = append(b.buf, p...) }

func (b *Builder) SetGraphicsState(name string) { b.NameOp(name, "gs") }
func (b *Builder) BeginText()                   { b.Op("BT") }
func (b *Builder) EndText()                     { b.Op("ET") }
func (b *Builder) Save()                        { b.Op("q") }
func (b *Builder) Restore()                     { b.Op("Q") }
func (b *Builder) DrawXObject(name string)      { b.NameOp(name, "Do") }

// SetFont writes "/name size Tf".
func (b *Builder) SetFont(name string, size float64) {
	b.buf = append(b.buf, '/')
	b.buf = append(b.buf, name...)
	b.buf = append(b.buf, ' ')
	b.Op("Tf", size)
}

func (b *Builder) SetTextMatrix(m Matrix)        { b.Op("Tm", m[:]...) }
func (b *Builder) Concat(m Matrix)               { b.Op("cm", m[:]...) }
func (b *Builder) SetFillRGB(c RGB)              { b.Op("rg", c.R, c.G, c.B) }
func (b *Builder) SetCharSpacing(tc float64)     { b.Op("Tc", tc) }
func (b *Builder) SetRise(ts float64)            { b.Op("Ts", ts) }
func (b *Builder) SetHorizontalScale(tz float64) { b.Op("Tz", tz) }
func (b *Builder) Rectangle(x, y, w, h float64)  { b.Op("re", x, y, w, h) }
func (b *Builder) Fill()                         { b.Op("f") }

// ShowArray writes "[...] TJ" for a.
func (b *Builder) ShowArray(a *TextArray) {
	b.buf = append(b.buf, '[')
	b.buf = append(b.buf, a.buf...)
	b.buf = append(b.buf, "] TJ\n"...)
}

// RGB is a DeviceRGB fill colour with components in [0,1].
type RGB struct{ R, G, B float64 }

// Matrix is a PDF transformation matrix [a b c d e f].
type Matrix [6]float64

// Rotation returns the matrix rotating counter-clockwise by deg degrees and
// translating to (x, y).
func Rotation(deg, x, y float64) Matrix {
	s, c := math.Sincos(deg * math.Pi / 180)
	return Matrix{c, s, -s, c, x, y}
}

// Translate returns a translation by (tx, ty).
func Translate(tx, ty float64) Matrix { return Matrix{1, 0, 0, 1, tx, ty} }

// Multiply returns the matrix applying m first and then o.
func (m Matrix) Multiply(o Matrix) Matrix {
	return Matrix{
		m[0]*o[0] + m[1]*o[2], m[0]*o[1] + m[1]*o[3],
		m[2]*o[0] + m[3]*o[2], m[2]*o[1] + m[3]*o[3],
		m[4]*o[0] + m[5]*o[2] + o[4], m[4]*o[1] + m[5]*o[3] + o[5],
	}
}

// Transform maps the point (x, y) through m.
func (m Matrix) Transform(x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// TextArray collects the operand of a TJ operator.
type TextArray struct {
	buf []byte
}

// Empty reports whether nothing has been added.
func (a *TextArray) Empty() bool { return len(a.buf) == 0 }

// Reset clears the array for reuse.
func (a *TextArray) Reset() { a.buf = a.buf[:0] }

// Glyph appends a two-byte glyph index as a hex string.
func (a *TextArray) Glyph(gid uint16) {
	const digits = "0123456789ABCDEF"
	a.buf = append(a.buf, '<', digits[gid>>12], digits[gid>>8&0xF], digits[gid>>4&0xF], digits[gid&0xF], '>')
}

// Literal appends a single-byte encoded string.
func (a *TextArray) Literal(code []byte) {
	a.buf = AppendLiteral(a.buf, code)
}

// Adjust appends a position adjustment in thousandths of text space units.
// Zero adjustments are omitted.
func (a *TextArray) Adjust(v float64) {
	if math.Round(v*numberPrecision) == 0 {
		return
	}
	a.buf = append(a.buf, ' ')
	a.buf = AppendNumber(a.buf, v)
	a.buf = append(a.buf, ' ')
}
