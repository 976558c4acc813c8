package ocr

import "strconv"

// Tesseract variables set through Input.Metadata.
const (
	VarPageSegMode     = "tessedit_pageseg_mode"
	VarCharWhitelist   = "tessedit_char_whitelist"
	VarPreserveSpacing = "preserve_interword_spaces"
)

// PSMAuto is Tesseract's fully automatic page segmentation without
// orientation detection, its own default.
const PSMAuto = 3

func withVariable(name, value string) InputOption {
	return func(in *Input) {
		if in.Metadata == nil {
			in.Metadata = make(map[string]string)
		}
		in.Metadata[name] = value
	}
}

// WithTesseractPSM selects the page segmentation mode. Modes outside 0-13
// are ignored.
func WithTesseractPSM(mode int) InputOption {
	if mode < 0 || mode > 13 {
		return func(*Input) {}
	}
	return withVariable(VarPageSegMode, strconv.Itoa(mode))
}

// WithTesseractWhitelist restricts recognition to chars. An empty string
// leaves the engine unrestricted.
func WithTesseractWhitelist(chars string) InputOption {
	if chars == "" {
		return func(*Input) {}
	}
	return withVariable(VarCharWhitelist, chars)
}

// WithPreservedSpacing keeps runs of spaces between words, which keeps word
// boxes aligned with the gaps the layout encoder reproduces.
func WithPreservedSpacing(on bool) InputOption {
	v := "0"
	if on {
		v = "1"
	}
	return withVariable(VarPreserveSpacing, v)
}
