package contentstream

import (
	"math"
	"testing"
)

func TestAppendNumber(t *testing.T) {
	cases := map[float64]string{
		0:                    "0",
		math.Copysign(0, -1): "0",
		12:                   "12",
		-3.5:                 "-3.5",
		0.123456789:          "0.12346",
		1e-7:                 "0",
		math.NaN():           "0",
		1000.0000001:         "1000",
	}
	for in, want := range cases {
		if got := FormatNumber(in); got != want {
			t.Errorf("FormatNumber(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestAppendLiteral(t *testing.T) {
	got := string(AppendLiteral(nil, []byte("a(b)\\\n\xe9")))
	want := `(a\(b\)\\\n\351)`
	if got != want {
		t.Fatalf("AppendLiteral() = %q, want %q", got, want)
	}
}

func TestBuilderTextOperators(t *testing.T) {
	var b Builder
	b.SetGraphicsState("GSO0")
	b.BeginText()
	b.SetFont("FO3", 12.5)
	b.SetTextMatrix(Matrix{1, 0, 0, 1, 10, 20})
	b.SetFillRGB(RGB{0, 1, 0.5})
	b.SetCharSpacing(0.25)

	var arr TextArray
	arr.Glyph(0x002B)
	arr.Adjust(-12.5)
	arr.Literal([]byte("i"))
	arr.Adjust(0)
	b.ShowArray(&arr)
	b.EndText()

	want := "/GSO0 gs\nBT\n/FO3 12.5 Tf\n1 0 0 1 10 20 Tm\n0 1 0.5 rg\n0.25 Tc\n[<002B> -12.5 (i)] TJ\nET\n"
	if got := string(b.Bytes()); got != want {
		t.Fatalf("stream =\n%q\nwant\n%q", got, want)
	}
	if b.Len() != len(want) {
		t.Fatalf("Len() = %d", b.Len())
	}
}

func TestRotation(t *testing.T) {
	m := Rotation(90, 5, 6)
	want := Matrix{0, 1, -1, 0, 5, 6}
	for i := range m {
		if math.Abs(m[i]-want[i]) > 1e-12 {
			t.Fatalf("Rotation(90) = %v, want %v", m, want)
		}
	}
}

func TestTextArrayReset(t *testing.T) {
	var a TextArray
	if !a.Empty() {
		t.Fatal("new array should be empty")
	}
	a.Glyph(0xFFFF)
	if a.Empty() {
		t.Fatal("array should not be empty after Glyph")
	}
	a.Reset()
	if !a.Empty() {
		t.Fatal("Reset should empty the array")
	}
}

func TestMatrixMultiplyTransform(t *testing.T) {
	m := Translate(-10, -20).Multiply(Rotation(90, 10, 20))
	x, y := m.Transform(15, 20)
	if math.Abs(x-10) > 1e-12 || math.Abs(y-25) > 1e-12 {
		t.Fatalf("rotating (15,20) about (10,20) gave (%v, %v)", x, y)
	}
	id := Matrix{1, 0, 0, 1, 0, 0}
	r := Rotation(33, 4, 5)
	if got := id.Multiply(r); got != r {
		t.Fatalf("identity product = %v, want %v", got, r)
	}
}
