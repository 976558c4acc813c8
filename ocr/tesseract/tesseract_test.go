package tesseract

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os/exec"
	"strings"
	"testing"

	"github.com/otiai10/gosseract/v2"
	"github.com/wudi/ocrpdf/ocr"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

func TestGroupLines(t *testing.T) {
	boxes := []gosseract.BoundingBox{
		{Box: image.Rect(60, 10, 90, 22), Word: "world", Confidence: 91, LineNum: 0, WordNum: 1},
		{Box: image.Rect(10, 10, 50, 22), Word: "hello", Confidence: 95, LineNum: 0, WordNum: 0},
		{Box: image.Rect(10, 30, 40, 42), Word: "again", Confidence: 80, LineNum: 1},
		{Box: image.Rect(0, 0, 1, 1), Word: ""},
	}
	lines := groupLines(boxes, "eng")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if got := lines[0].Words[0].Text; got != "hello" {
		t.Errorf("words must be sorted left to right, first word %q", got)
	}
	want := ocr.Rect{Left: 10, Top: 10, Right: 90, Bottom: 22}
	if lines[0].BBox != want {
		t.Errorf("line bbox = %+v, want %+v", lines[0].BBox, want)
	}
	if lines[1].Words[0].Conf != 80 || lines[1].Words[0].Lang != "eng" {
		t.Errorf("word attributes not copied: %+v", lines[1].Words[0])
	}
}

func ensureTesseractAvailable(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("tesseract"); err != nil {
		t.Skip("tesseract not installed in PATH")
	}
}

func TestTesseractEngineRecognize(t *testing.T) {
	ensureTesseractAvailable(t)

	img := image.NewRGBA(image.Rect(0, 0, 200, 80))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	d := &font.Drawer{
		Dst:  img,
		Src:  image.Black,
		Face: basicfont.Face7x13,
		Dot:  fixed.P(10, 50),
	}
	d.DrawString("Hello PDF")

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	in, err := ocr.InputFromImage(0, buf.Bytes(), ocr.WithLanguages("eng"), ocr.WithDPI(300))
	if err != nil {
		t.Fatalf("InputFromImage() error = %v", err)
	}
	page, err := NewTesseractEngine().Recognize(context.Background(), in)
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	if page.Dims.Width != 200 || page.Dims.Height != 80 {
		t.Errorf("unexpected dims %+v", page.Dims)
	}
	var words []string
	for _, l := range page.Lines {
		for _, w := range l.Words {
			words = append(words, w.Text)
		}
	}
	if !strings.Contains(strings.ToLower(strings.Join(words, " ")), "hello") {
		t.Errorf("expected recognized text to contain hello, got %q", words)
	}
}
