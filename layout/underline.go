package layout

import (
	"math"

	"github.com/wudi/ocrpdf/contentstream"
)

// underline is a contiguous run of underlined words on one line, in the
// line's text space.
type underline struct {
	matrix     contentstream.Matrix
	start, end float64
	size       float64
	bold       bool
	color      contentstream.RGB
}

func (u underline) thickness() float64 {
	if u.bold {
		return math.Ceil(u.size / 12)
	}
	return math.Ceil(u.size / 24)
}

// underlines draws one filled rectangle per run. It runs after ET.
func (e *encoder) underlines() {
	for _, u := range e.runs {
		if u.end <= u.start {
			continue
		}
		t := u.thickness()
		y := -(math.Ceil(u.size/12) + t)
		if e.color != u.color {
			e.color = u.color
			e.cs.SetFillRGB(u.color)
		}
		m := u.matrix
		if m[0] == 1 && m[1] == 0 && m[2] == 0 && m[3] == 1 {
			e.cs.Rectangle(m[4]+u.start, m[5]+y, u.end-u.start, t)
			e.cs.Fill()
			continue
		}
		e.cs.Save()
		e.cs.Concat(m)
		e.cs.Rectangle(u.start, y, u.end-u.start, t)
		e.cs.Fill()
		e.cs.Restore()
	}
}
