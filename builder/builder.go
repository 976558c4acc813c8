// Package builder assembles recognized pages, fonts and page images into a
// PDF 1.7 document in a single pass.
package builder

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/bits-and-blooms/bitset"

	"github.com/wudi/ocrpdf/contentstream"
	"github.com/wudi/ocrpdf/fonts"
	"github.com/wudi/ocrpdf/layout"
	"github.com/wudi/ocrpdf/observability"
	"github.com/wudi/ocrpdf/ocr"
	"github.com/wudi/ocrpdf/writer"
)

var (
	ErrNoFonts           = errors.New("no font catalog supplied")
	ErrNegativePageCount = errors.New("negative page count")
)

const (
	catalogID writer.ObjectID = 1
	pagesID   writer.ObjectID = 2
)

// letter is the page size used when neither the page nor its image has one.
var letter = ocr.Dims{Width: 612, Height: 792}

// Document is the input of Build.
type Document struct {
	Pages []ocr.Page
	Fonts *fonts.Catalog
	// Images holds one background per page index.
	Images []Image
}

// Build renders doc with the given options.
func Build(doc Document, opts ...Option) ([]byte, error) {
	o := DefaultRenderOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return BuildWithOptions(doc, o)
}

// BuildWithOptions renders doc. Objects are numbered catalog, page tree, font
// slots, images, then one group per page, and written in that order.
func BuildWithOptions(doc Document, o RenderOptions) ([]byte, error) {
	if doc.Fonts.Empty() {
		return nil, ErrNoFonts
	}
	minPage, maxPage := o.MinPage, o.MaxPage
	if maxPage < 0 || maxPage >= len(doc.Pages) {
		maxPage = len(doc.Pages) - 1
	}
	if maxPage-minPage+1 < 0 {
		return nil, fmt.Errorf("pages %d to %d: %w", minPage, maxPage, ErrNegativePageCount)
	}
	log := observability.OrNop(o.Logger)
	if !o.TextMode.Valid() {
		log.Warn("unknown text mode, using ebook", observability.String("mode", string(o.TextMode)))
		o.TextMode = layout.ModeEbook
	}

	alloc := writer.NewAllocator(pagesID + 1)
	slots, err := fonts.NewSlotTable(doc.Fonts, alloc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoFonts, err)
	}

	var images []imageSlot
	if o.IncludeImages {
		images = make([]imageSlot, len(doc.Images))
		for i, img := range doc.Images {
			id := alloc.Next()
			images[i].id = id
			if emb, ok := embedImage(id, img, log); ok {
				images[i].img, images[i].ok = emb, true
			}
		}
	}

	pb := pageBuilder{opts: o, slots: slots, alloc: alloc, log: log}
	used := bitset.New(uint(slots.Len()))
	var groups []pageGroup
	for i := max(minPage, 0); i <= maxPage; i++ {
		var bg *imageSlot
		if i < len(images) && images[i].ok {
			bg = &images[i]
		}
		g, pageUsed := pb.build(doc.Pages[i], bg)
		used.InPlaceUnion(pageUsed)
		groups = append(groups, g)
		log.Debug("page exported", observability.Int("page", i), observability.Int("objects", len(g.objs)))
		if o.Progress != nil {
			o.Progress(Progress{N: i, Type: "export", Info: map[string]any{}})
		}
	}

	em := writer.NewEmitter()
	if err := em.Append(catalogID, writer.AppendObject(nil, catalogID, "<</Type/Catalog/Pages "+pagesID.Ref()+">>")); err != nil {
		return nil, err
	}
	if err := em.Append(pagesID, writer.AppendObject(nil, pagesID, pageTree(groups))); err != nil {
		return nil, err
	}
	for i, s := range slots.Slots() {
		if !used.Test(uint(i)) {
			if err := em.Free(s.First, s.Kind.Objects()); err != nil {
				return nil, err
			}
			continue
		}
		for j, obj := range fonts.Embed(&s) {
			if err := em.Append(s.First+writer.ObjectID(j), obj); err != nil {
				return nil, fmt.Errorf("font %s: %w", s.Name, err)
			}
		}
	}
	for _, img := range images {
		if !img.ok {
			if err := em.Free(img.id, 1); err != nil {
				return nil, err
			}
			continue
		}
		if err := em.Append(img.id, img.img.obj); err != nil {
			return nil, err
		}
	}
	for _, g := range groups {
		for j, obj := range g.objs {
			if err := em.Append(g.page+writer.ObjectID(j), obj); err != nil {
				return nil, err
			}
		}
	}
	if em.Next() != alloc.Peek() {
		return nil, fmt.Errorf("%w: emitted up to %d, reserved up to %d", writer.ErrOutOfOrder, em.Next(), alloc.Peek())
	}
	out := em.Finish(catalogID)
	log.Info("document exported",
		observability.Int("pages", len(groups)),
		observability.Int("fonts", int(used.Count())),
		observability.Int("objects", len(em.Entries())),
		observability.Int("bytes", len(out)))
	return out, nil
}

type imageSlot struct {
	id  writer.ObjectID
	img embeddedImage
	ok  bool
}

// pageGroup holds the serialized objects of one page, numbered from page.
type pageGroup struct {
	page writer.ObjectID
	objs [][]byte
}

func pageTree(groups []pageGroup) string {
	var b strings.Builder
	b.WriteString("<</Type/Pages/Kids[")
	for i, g := range groups {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(g.page.Ref())
	}
	fmt.Fprintf(&b, "]/Count %d>>", len(groups))
	return b.String()
}

type pageBuilder struct {
	opts  RenderOptions
	slots *fonts.SlotTable
	alloc *writer.Allocator
	log   observability.Logger
}

// build encodes one page. A page without text or image is a single Page
// object with empty resources; any other page is Page, Resources and
// Contents.
func (pb *pageBuilder) build(page ocr.Page, bg *imageSlot) (pageGroup, *bitset.BitSet) {
	o := pb.opts
	dims := page.Dims
	if dims.Width <= 0 || dims.Height <= 0 {
		if bg != nil && bg.img.width > 0 && bg.img.height > 0 {
			dims = ocr.Dims{Width: float64(bg.img.width), Height: float64(bg.img.height)}
		} else {
			pb.log.Warn("page has no dimensions, using letter", observability.Int("page", page.N))
			dims = letter
		}
		page.Dims = dims
	}
	out := limitDims(dims, o.DimsLimit)

	text := layout.EncodePage(page, out, pb.slots, layout.Params{
		Mode:             o.TextMode,
		RotateText:       o.RotateText,
		RotateBackground: o.RotateBackground,
		ConfThreshHigh:   o.ConfThreshHigh,
		ConfThreshMed:    o.ConfThreshMed,
		Logger:           pb.log,
	})

	pageID := pb.alloc.Next()
	mediaBox := fmt.Sprintf("/MediaBox[0 0 %s %s]", contentstream.FormatNumber(out.Width), contentstream.FormatNumber(out.Height))
	if text.Empty() && bg == nil {
		obj := writer.AppendObject(nil, pageID, "<</Type/Page"+mediaBox+"/Parent "+pagesID.Ref()+"/Resources<<>>>>")
		return pageGroup{page: pageID, objs: [][]byte{obj}}, text.Used
	}
	resID, contentID := pb.alloc.Next(), pb.alloc.Next()

	var content []byte
	var res strings.Builder
	res.WriteString("<<")
	if bg != nil {
		rotation := 0.0
		if o.RotateBackground && math.Abs(page.Angle) > 0.05 {
			rotation = page.Angle
		}
		content = append(content, DrawImageCommands(0, 0, 0, out.Width, out.Height, rotation)...)
		res.WriteString(ImageResourceDict([]writer.ObjectID{bg.id}))
	}
	if !text.Empty() {
		content = append(content, text.Stream...)
		res.WriteString("/Font<<")
		for i, s := range pb.slots.Slots() {
			if text.Used.Test(uint(i)) {
				res.WriteString("/" + s.Name + " " + s.First.Ref())
			}
		}
		res.WriteString(">>")
		if text.GState != "" {
			fmt.Fprintf(&res, "/ExtGState<</%s<</ca 0>>/%s<</ca %s>>>>",
				layout.GStateInvisible, layout.GStateProof, contentstream.FormatNumber(o.ProofOpacity))
		}
	}
	res.WriteString(">>")

	objs := [][]byte{
		writer.AppendObject(nil, pageID, "<</Type/Page"+mediaBox+"/Parent "+pagesID.Ref()+
			"/Resources "+resID.Ref()+"/Contents "+contentID.Ref()+">>"),
		writer.AppendObject(nil, resID, res.String()),
		writer.AppendStream(nil, contentID, "", content),
	}
	return pageGroup{page: pageID, objs: objs}, text.Used
}

// limitDims scales d down to fit limit, keeping its aspect ratio.
func limitDims(d, limit ocr.Dims) ocr.Dims {
	if limit.Width <= 0 || limit.Height <= 0 {
		return d
	}
	s := math.Min(limit.Width/d.Width, limit.Height/d.Height)
	if s >= 1 {
		return d
	}
	return ocr.Dims{Width: d.Width * s, Height: d.Height * s}
}
