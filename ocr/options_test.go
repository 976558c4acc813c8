package ocr

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTesseractOptions(t *testing.T) {
	in := Input{}
	for _, opt := range []InputOption{
		WithTesseractPSM(6),
		WithTesseractWhitelist("ABC"),
		WithPreservedSpacing(true),
	} {
		opt(&in)
	}
	want := map[string]string{
		VarPageSegMode:     "6",
		VarCharWhitelist:   "ABC",
		VarPreserveSpacing: "1",
	}
	if diff := cmp.Diff(want, in.Metadata); diff != "" {
		t.Fatalf("metadata mismatch (-want +got):\n%s", diff)
	}
}

func TestTesseractOptionsIgnoreDefaults(t *testing.T) {
	in := Input{}
	WithTesseractPSM(42)(&in)
	WithTesseractPSM(-1)(&in)
	WithTesseractWhitelist("")(&in)
	if in.Metadata != nil {
		t.Fatalf("metadata = %v, want nil", in.Metadata)
	}
}
