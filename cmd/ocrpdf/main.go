package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/wudi/ocrpdf/builder"
	"github.com/wudi/ocrpdf/fonts"
	"github.com/wudi/ocrpdf/layout"
	"github.com/wudi/ocrpdf/observability"
	"github.com/wudi/ocrpdf/ocr"
	_ "github.com/wudi/ocrpdf/ocr/tesseract" // registers the default engine
)

type options struct {
	layoutPath string
	images     []string
	outPath    string
	recognize  bool
	langs      []string
	ocrOpts    []ocr.InputOption
	cjkFont    string
	type1      bool
	render     []builder.Option
	verbose    bool
}

func main() {
	opts, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ocrpdf: %v\n", err)
		os.Exit(2)
	}
	if err := run(context.Background(), opts); err != nil {
		fmt.Fprintf(os.Stderr, "ocrpdf: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() (options, error) {
	var opts options
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: go run ./cmd/ocrpdf [flags] <image>...\n")
		flag.PrintDefaults()
	}
	layoutPath := flag.String("layout", "", "JSON file with the recognized pages; when empty the images are recognized with Tesseract")
	outPath := flag.String("out", "out.pdf", "Output PDF path")
	mode := flag.String("mode", string(layout.ModeEbook), "Text mode: ebook, eval, proof or invis")
	minPage := flag.Int("min", 0, "First page index to export")
	maxPage := flag.Int("max", -1, "Last page index to export, -1 for the last page")
	rotateText := flag.Bool("rotate-text", false, "Rotate text by the detected page skew")
	rotateBackground := flag.Bool("rotate-background", false, "Deskew page images")
	dimsLimit := flag.String("dims-limit", "", "Maximum page size as WIDTHxHEIGHT")
	noImages := flag.Bool("no-images", false, "Do not embed page images")
	langs := flag.String("lang", "eng", "Comma separated Tesseract languages")
	psm := flag.Int("psm", ocr.PSMAuto, "Tesseract page segmentation mode")
	whitelist := flag.String("whitelist", "", "Restrict recognition to these characters")
	cjkFont := flag.String("cjk-font", "", "Font file used for chi_sim words")
	type1 := flag.Bool("type1", false, "Embed the Latin fonts as simple WinAnsi fonts")
	verbose := flag.Bool("v", false, "Log debug output to stderr")
	flag.Parse()

	if *layoutPath == "" && flag.NArg() == 0 {
		flag.Usage()
		return options{}, fmt.Errorf("need -layout or at least one image")
	}
	m := layout.TextMode(*mode)
	if !m.Valid() {
		return options{}, fmt.Errorf("unknown text mode %q", *mode)
	}
	opts.layoutPath = *layoutPath
	opts.images = flag.Args()
	opts.outPath = *outPath
	opts.recognize = *layoutPath == ""
	opts.langs = strings.Split(*langs, ",")
	opts.ocrOpts = []ocr.InputOption{
		ocr.WithLanguages(opts.langs...),
		ocr.WithTesseractPSM(*psm),
		ocr.WithTesseractWhitelist(*whitelist),
		ocr.WithPreservedSpacing(true),
	}
	opts.cjkFont = *cjkFont
	opts.type1 = *type1
	opts.verbose = *verbose
	opts.render = []builder.Option{
		builder.WithTextMode(m),
		builder.WithPageRange(*minPage, *maxPage),
		builder.WithRotateText(*rotateText),
		builder.WithRotateBackground(*rotateBackground),
		builder.WithImages(len(opts.images) > 0 && !*noImages),
	}
	if *dimsLimit != "" {
		var w, h float64
		if _, err := fmt.Sscanf(*dimsLimit, "%gx%g", &w, &h); err != nil {
			return options{}, fmt.Errorf("bad -dims-limit %q: %w", *dimsLimit, err)
		}
		opts.render = append(opts.render, builder.WithDimsLimit(w, h))
	}
	return opts, nil
}

func run(ctx context.Context, opts options) error {
	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := observability.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	catalog, err := defaultCatalog(opts)
	if err != nil {
		return err
	}

	var raw [][]byte
	var images []builder.Image
	for _, path := range opts.images {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read image: %w", err)
		}
		raw = append(raw, data)
		images = append(images, imageFromFile(path, data))
	}

	var pages []ocr.Page
	if opts.recognize {
		pages, err = recognize(ctx, raw, opts.ocrOpts)
	} else {
		pages, err = readLayout(opts.layoutPath)
	}
	if err != nil {
		return err
	}

	render := append(opts.render,
		builder.WithLogger(logger),
		builder.WithProgress(func(p builder.Progress) {
			logger.Debug("progress", observability.Int("page", p.N), observability.String("type", p.Type))
		}))
	pdf, err := builder.Build(builder.Document{Pages: pages, Fonts: catalog, Images: images}, render...)
	if err != nil {
		return fmt.Errorf("build pdf: %w", err)
	}
	if err := os.WriteFile(opts.outPath, pdf, 0o644); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	logger.Info("wrote pdf", observability.String("path", opts.outPath), observability.Int("pages", len(pages)))
	return nil
}

func recognize(ctx context.Context, images [][]byte, opts []ocr.InputOption) ([]ocr.Page, error) {
	inputs := make([]ocr.Input, 0, len(images))
	for i, data := range images {
		in, err := ocr.InputFromImage(i, data, opts...)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, in)
	}
	pages, err := ocr.RecognizeAll(ctx, ocr.DefaultEngine(), inputs)
	if err != nil {
		return nil, fmt.Errorf("recognize: %w", err)
	}
	return pages, nil
}

func readLayout(path string) ([]ocr.Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read layout: %w", err)
	}
	var pages []ocr.Page
	if err := json.Unmarshal(data, &pages); err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}
	return pages, nil
}

func imageFromFile(path string, data []byte) builder.Image {
	typ := mime.TypeByExtension(filepath.Ext(path))
	if typ == "" {
		typ = http.DetectContentType(data)
	}
	return builder.Image{
		Format: strings.TrimPrefix(typ, "image/"),
		Src:    "data:" + typ + ";base64," + base64.StdEncoding.EncodeToString(data),
	}
}

func defaultCatalog(opts options) (*fonts.Catalog, error) {
	kind := fonts.KindType0
	if opts.type1 {
		kind = fonts.KindType1
	}
	load := func(name string, data []byte) fonts.Face {
		f, err := fonts.LoadFace(name, data)
		if err != nil {
			panic(err) // bundled fonts always parse
		}
		return f
	}
	cat := &fonts.Catalog{
		Families: map[string]fonts.Family{
			"Go": {
				Normal:     load("Go", goregular.TTF),
				Italic:     load("Go Italic", goitalic.TTF),
				Bold:       load("Go Bold", gobold.TTF),
				BoldItalic: load("Go Bold Italic", gobolditalic.TTF),
				Kind:       kind,
			},
			"GoMono": {
				Normal:     load("Go Mono", gomono.TTF),
				Italic:     load("Go Mono Italic", gomonoitalic.TTF),
				Bold:       load("Go Mono Bold", gomonobold.TTF),
				BoldItalic: load("Go Mono Bold Italic", gomonobolditalic.TTF),
				Kind:       kind,
			},
		},
		Default: "Go",
	}
	if opts.cjkFont != "" {
		data, err := os.ReadFile(opts.cjkFont)
		if err != nil {
			return nil, fmt.Errorf("read cjk font: %w", err)
		}
		face, err := fonts.LoadFace(fonts.CJKFamily, data)
		if err != nil {
			return nil, err
		}
		cat.CJK = face
	}
	return cat, nil
}
