package ocr

import (
	"fmt"
	"net/http"
)

// InputOption mutates an OCR input.
type InputOption func(*Input)

// WithLanguages sets language hints on the OCR input.
func WithLanguages(langs ...string) InputOption {
	return func(in *Input) { in.Languages = append([]string(nil), langs...) }
}

// WithRegion sets the recognition region on the OCR input.
func WithRegion(region Region) InputOption {
	return func(in *Input) {
		if region.IsEmpty() {
			in.Region = nil
			return
		}
		in.Region = &region
	}
}

// WithDPI overrides the DPI value on the OCR input.
func WithDPI(dpi int) InputOption {
	return func(in *Input) { in.DPI = dpi }
}

// WithMetadata sets provider-specific metadata for the input.
func WithMetadata(metadata map[string]string) InputOption {
	return func(in *Input) {
		if len(metadata) == 0 {
			in.Metadata = nil
			return
		}
		in.Metadata = make(map[string]string, len(metadata))
		for k, v := range metadata {
			in.Metadata[k] = v
		}
	}
}

// InputFromImage builds an OCR input for the encoded page image data. The
// format is sniffed from the payload.
func InputFromImage(pageIndex int, data []byte, opts ...InputOption) (Input, error) {
	var format ImageFormat
	switch http.DetectContentType(data) {
	case "image/png":
		format = ImageFormatPNG
	case "image/jpeg":
		format = ImageFormatJPEG
	default:
		if len(data) >= 4 && (string(data[:4]) == "II*\x00" || string(data[:4]) == "MM\x00*") {
			format = ImageFormatTIFF
			break
		}
		return Input{}, fmt.Errorf("page %d: unsupported image format", pageIndex)
	}
	in := Input{
		ID:        fmt.Sprintf("page-%d", pageIndex),
		Image:     data,
		Format:    format,
		PageIndex: pageIndex,
	}
	for _, opt := range opts {
		opt(&in)
	}
	return in, nil
}
