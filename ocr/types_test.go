package ocr

import "testing"

func TestRectUnion(t *testing.T) {
	a := Rect{Left: 10, Top: 10, Right: 20, Bottom: 20}
	b := Rect{Left: 15, Top: 5, Right: 30, Bottom: 18}
	got := a.Union(b)
	want := Rect{Left: 10, Top: 5, Right: 30, Bottom: 20}
	if got != want {
		t.Fatalf("Union() = %+v, want %+v", got, want)
	}
	if (Rect{}).Union(a) != a {
		t.Fatalf("union with empty rect should return the other rect")
	}
}

func TestOrientationNormalize(t *testing.T) {
	for in, want := range map[Orientation]Orientation{
		-1: Orientation0, 0: Orientation0, 1: Orientation90, 3: Orientation270, 7: Orientation0,
	} {
		if got := in.Normalize(); got != want {
			t.Errorf("Orientation(%d).Normalize() = %d, want %d", in, got, want)
		}
	}
}

func TestWordCount(t *testing.T) {
	p := Page{Lines: []Line{{Words: make([]Word, 2)}, {}, {Words: make([]Word, 3)}}}
	if p.WordCount() != 5 {
		t.Fatalf("WordCount() = %d", p.WordCount())
	}
}
