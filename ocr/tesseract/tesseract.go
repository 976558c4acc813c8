package tesseract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg" // Register decoders
	"image/png"
	"math"
	"sort"

	"github.com/otiai10/gosseract/v2"
	"github.com/wudi/ocrpdf/ocr"
)

func init() {
	ocr.SetDefaultEngine(NewTesseractEngine())
}

// TesseractEngine implements Engine and BatchEngine using the gosseract client.
type TesseractEngine struct {
	clientFactory func() *gosseract.Client
}

// NewTesseractEngine constructs a Tesseract-backed OCR engine.
func NewTesseractEngine() *TesseractEngine {
	return &TesseractEngine{clientFactory: gosseract.NewClient}
}

func (e *TesseractEngine) Name() string { return "tesseract" }

// Recognize performs OCR on a single image input.
func (e *TesseractEngine) Recognize(ctx context.Context, in ocr.Input) (ocr.Page, error) {
	c := e.clientFactory()
	defer c.Close()
	return e.recognizeWithClient(ctx, c, in)
}

// RecognizeBatch processes inputs sequentially, one client per input.
func (e *TesseractEngine) RecognizeBatch(ctx context.Context, inputs []ocr.Input) ([]ocr.Page, error) {
	pages := make([]ocr.Page, 0, len(inputs))
	for _, in := range inputs {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		c := e.clientFactory()
		p, err := e.recognizeWithClient(ctx, c, in)
		c.Close()
		if err != nil {
			return nil, fmt.Errorf("recognize %s: %w", in.ID, err)
		}
		pages = append(pages, p)
	}
	return pages, nil
}

func (e *TesseractEngine) recognizeWithClient(ctx context.Context, c *gosseract.Client, in ocr.Input) (ocr.Page, error) {
	imgData, err := cropImage(in.Image, in.Region)
	if err != nil {
		return ocr.Page{}, err
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(imgData))
	if err != nil {
		return ocr.Page{}, fmt.Errorf("decode image header: %w", err)
	}
	if err := c.SetImageFromBytes(imgData); err != nil {
		return ocr.Page{}, fmt.Errorf("set image: %w", err)
	}
	if len(in.Languages) > 0 {
		if err := c.SetLanguage(in.Languages...); err != nil {
			return ocr.Page{}, fmt.Errorf("set languages: %w", err)
		}
	}
	if in.DPI > 0 {
		if err := c.SetVariable(gosseract.SettableVariable("user_defined_dpi"), fmt.Sprint(in.DPI)); err != nil {
			return ocr.Page{}, fmt.Errorf("set dpi: %w", err)
		}
	}
	for k, v := range in.Metadata {
		if err := c.SetVariable(gosseract.SettableVariable(k), v); err != nil {
			return ocr.Page{}, fmt.Errorf("set variable %s: %w", k, err)
		}
	}
	boxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return ocr.Page{}, fmt.Errorf("recognize words: %w", err)
	}
	return ocr.Page{
		N:     in.PageIndex,
		Dims:  ocr.Dims{Width: float64(cfg.Width), Height: float64(cfg.Height)},
		Lines: groupLines(boxes, firstLanguage(in.Languages)),
	}, nil
}

type lineKey struct{ block, par, line int }

// groupLines collects word boxes into lines keyed by Tesseract's
// block/paragraph/line numbering, preserving reading order.
func groupLines(boxes []gosseract.BoundingBox, lang string) []ocr.Line {
	index := make(map[lineKey]int)
	var lines []ocr.Line
	for _, b := range boxes {
		if b.Word == "" {
			continue
		}
		k := lineKey{b.BlockNum, b.ParNum, b.LineNum}
		i, ok := index[k]
		if !ok {
			i = len(lines)
			index[k] = i
			lines = append(lines, ocr.Line{})
		}
		w := ocr.Word{
			ID:   fmt.Sprintf("word_%d_%d_%d_%d", b.BlockNum, b.ParNum, b.LineNum, b.WordNum),
			Text: b.Word,
			BBox: ocr.Rect{
				Left:   float64(b.Box.Min.X),
				Top:    float64(b.Box.Min.Y),
				Right:  float64(b.Box.Max.X),
				Bottom: float64(b.Box.Max.Y),
			},
			Conf:         b.Confidence,
			Lang:         lang,
			VisualCoords: true,
		}
		lines[i].Words = append(lines[i].Words, w)
		lines[i].BBox = lines[i].BBox.Union(w.BBox)
	}
	for i := range lines {
		sort.SliceStable(lines[i].Words, func(a, b int) bool {
			return lines[i].Words[a].BBox.Left < lines[i].Words[b].BBox.Left
		})
	}
	return lines
}

func firstLanguage(langs []string) string {
	if len(langs) == 0 {
		return "eng"
	}
	return langs[0]
}

func cropImage(data []byte, region *ocr.Region) ([]byte, error) {
	if region == nil || region.IsEmpty() {
		return data, nil
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode for region: %w", err)
	}
	rect := image.Rect(
		int(math.Round(region.X)),
		int(math.Round(region.Y)),
		int(math.Round(region.X+region.Width)),
		int(math.Round(region.Y+region.Height)),
	).Intersect(img.Bounds())
	if rect.Empty() {
		return nil, fmt.Errorf("region outside image bounds")
	}
	subImg, ok := img.(interface {
		SubImage(r image.Rectangle) image.Image
	})
	if !ok {
		return nil, fmt.Errorf("image does not support sub-image")
	}
	cropped := subImg.SubImage(rect)
	var buf bytes.Buffer
	if err := png.Encode(&buf, cropped); err != nil {
		return nil, fmt.Errorf("encode cropped image: %w", err)
	}
	return buf.Bytes(), nil
}
