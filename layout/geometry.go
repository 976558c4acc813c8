package layout

import "github.com/wudi/ocrpdf/ocr"

// geometry maps between image pixels and distances along the reading
// direction of one line. Along coordinates are in points and grow in reading
// order for every orientation, so the gap between two words is always
// next.start - prev.end.
type geometry struct {
	o      ocr.Orientation
	bbox   ocr.Rect
	slope  float64
	offset float64
	scale  float64

	// origin is the along coordinate of the line's text matrix and pen the
	// current text position, both in points.
	origin float64
	pen    float64
}

func newGeometry(ln *ocr.Line, scale float64) *geometry {
	return &geometry{
		o:      ln.Orientation.Normalize(),
		bbox:   ln.BBox,
		slope:  ln.Baseline[0],
		offset: ln.Baseline[1],
		scale:  scale,
	}
}

// span returns the extent of r along the reading direction.
func (g *geometry) span(r ocr.Rect) (start, end float64) {
	switch g.o {
	case ocr.Orientation90:
		start, end = r.Top, r.Bottom
	case ocr.Orientation180:
		start, end = -r.Right, -r.Left
	case ocr.Orientation270:
		start, end = -r.Bottom, -r.Top
	default:
		start, end = r.Left, r.Right
	}
	return start * g.scale, end * g.scale
}

// height returns the extent of r across the reading direction, in points.
func (g *geometry) height(r ocr.Rect) float64 {
	if g.o == ocr.Orientation90 || g.o == ocr.Orientation270 {
		return r.Width() * g.scale
	}
	return r.Height() * g.scale
}

// point returns the image position of the baseline at along coordinate a.
// Each orientation places the baseline on a different edge of the line box:
// bottom for upright text, left when rotated clockwise, top when upside down
// and right when rotated counter-clockwise.
func (g *geometry) point(a float64) (x, y float64) {
	a /= g.scale
	b := g.bbox
	switch g.o {
	case ocr.Orientation90:
		y = a
		return b.Left - g.offset - g.slope*(y-b.Top), y
	case ocr.Orientation180:
		x = -a
		return x, b.Top - g.offset - g.slope*(b.Right-x)
	case ocr.Orientation270:
		y = -a
		return b.Right + g.offset + g.slope*(b.Bottom-y), y
	}
	x = a
	return x, b.Bottom + g.offset + g.slope*(x-b.Left)
}

// rise returns how far, in points, the text-space bottom edge of r lies above
// the baseline at along coordinate a.
func (g *geometry) rise(r ocr.Rect, a float64) float64 {
	x, y := g.point(a)
	switch g.o {
	case ocr.Orientation90:
		return (r.Left - x) * g.scale
	case ocr.Orientation180:
		return (r.Top - y) * g.scale
	case ocr.Orientation270:
		return (x - r.Right) * g.scale
	}
	return (y - r.Bottom) * g.scale
}
