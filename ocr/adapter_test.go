package ocr

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func encodePNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestInputFromImage(t *testing.T) {
	region := Region{X: 0, Y: 0, Width: 2, Height: 2}
	meta := map[string]string{"psm": "6"}

	in, err := InputFromImage(2, encodePNG(t),
		WithLanguages("eng", "chi_sim"),
		WithRegion(region),
		WithDPI(300),
		WithMetadata(meta),
	)
	if err != nil {
		t.Fatalf("InputFromImage() error = %v", err)
	}
	if in.Format != ImageFormatPNG {
		t.Fatalf("unexpected format: %v", in.Format)
	}
	if in.ID != "page-2" || in.PageIndex != 2 {
		t.Fatalf("unexpected id/index: %s/%d", in.ID, in.PageIndex)
	}
	if diff := cmp.Diff([]string{"eng", "chi_sim"}, in.Languages); diff != "" {
		t.Errorf("languages mismatch (-want +got):\n%s", diff)
	}
	if in.Region == nil || *in.Region != region {
		t.Errorf("region not applied: %+v", in.Region)
	}
	if in.DPI != 300 {
		t.Errorf("dpi = %d", in.DPI)
	}
	meta["psm"] = "7"
	if in.Metadata["psm"] != "6" {
		t.Errorf("metadata must be copied")
	}
}

func TestInputFromImageRejectsUnknownFormat(t *testing.T) {
	if _, err := InputFromImage(0, []byte("plain text")); err == nil {
		t.Fatal("expected error for non-image payload")
	}
}

func TestWithRegionEmptyClears(t *testing.T) {
	in := Input{Region: &Region{Width: 1, Height: 1}}
	WithRegion(Region{})(&in)
	if in.Region != nil {
		t.Fatalf("empty region should clear restriction")
	}
}

type stubEngine struct {
	calls int
	fail  bool
}

func (s *stubEngine) Name() string { return "stub" }

func (s *stubEngine) Recognize(ctx context.Context, in Input) (Page, error) {
	s.calls++
	if s.fail {
		return Page{}, errors.New("engine down")
	}
	return Page{N: in.PageIndex, Lines: []Line{{Words: []Word{{Text: "x"}}}}}, nil
}

func TestRecognizeAllSequential(t *testing.T) {
	eng := &stubEngine{}
	pages, err := RecognizeAll(context.Background(), eng, []Input{{PageIndex: 0}, {PageIndex: 1}})
	if err != nil {
		t.Fatalf("RecognizeAll() error = %v", err)
	}
	if eng.calls != 2 || len(pages) != 2 || pages[1].N != 1 {
		t.Fatalf("unexpected result: calls=%d pages=%+v", eng.calls, pages)
	}

	eng.fail = true
	if _, err := RecognizeAll(context.Background(), eng, []Input{{ID: "p0"}}); err == nil {
		t.Fatal("expected engine error to propagate")
	}
}

func TestRecognizeAllCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := RecognizeAll(ctx, &stubEngine{}, []Input{{}}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestDefaultEngineIsNoop(t *testing.T) {
	p, err := DefaultEngine().Recognize(context.Background(), Input{PageIndex: 4})
	if err != nil || p.N != 4 || len(p.Lines) != 0 {
		t.Fatalf("noop engine returned %+v, %v", p, err)
	}
}
