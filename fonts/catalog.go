package fonts

import (
	"errors"
	"sort"
	"strconv"

	"github.com/wudi/ocrpdf/writer"
)

// CJKFamily is the catalog key of the simplified Chinese fallback face.
const CJKFamily = "NotoSansSC"

// ErrEmptyCatalog is returned when no font faces are declared.
var ErrEmptyCatalog = errors.New("font catalog is empty")

// Style selects one face of a family.
type Style int

const (
	StyleNormal Style = iota
	StyleItalic
	StyleBold
	StyleBoldItalic
)

var styleNames = [...]string{"normal", "italic", "bold", "boldItalic"}

func (s Style) String() string {
	if s < StyleNormal || s > StyleBoldItalic {
		return "Style(" + strconv.Itoa(int(s)) + ")"
	}
	return styleNames[s]
}

// Italic reports whether s is an italic style.
func (s Style) Italic() bool { return s == StyleItalic || s == StyleBoldItalic }

// Bold reports whether s is a bold style.
func (s Style) Bold() bool { return s == StyleBold || s == StyleBoldItalic }

// StyleOf combines weight and slant flags.
func StyleOf(bold, italic bool) Style {
	switch {
	case bold && italic:
		return StyleBoldItalic
	case bold:
		return StyleBold
	case italic:
		return StyleItalic
	}
	return StyleNormal
}

// Kind is the PDF font structure used to embed a face.
type Kind int

const (
	// KindType0 embeds a composite Identity-H font addressed by glyph index.
	KindType0 Kind = iota
	// KindType1 embeds a simple WinAnsi-encoded font.
	KindType1
)

// Objects is the number of object numbers reserved for a face of kind k.
func (k Kind) Objects() int {
	if k == KindType1 {
		return 3
	}
	return 6
}

func (k Kind) String() string {
	if k == KindType1 {
		return "Type1"
	}
	return "Type0"
}

// Family holds the faces of one font family. Missing styles fall back to
// Normal. Kind applies to every face of the family.
type Family struct {
	Normal     Face
	Italic     Face
	Bold       Face
	BoldItalic Face
	Kind       Kind
}

// Face returns the face declared for s, or nil.
func (f Family) Face(s Style) Face {
	switch s {
	case StyleItalic:
		return f.Italic
	case StyleBold:
		return f.Bold
	case StyleBoldItalic:
		return f.BoldItalic
	}
	return f.Normal
}

// Catalog is the set of faces available to the exporter.
type Catalog struct {
	Families map[string]Family
	// Default names the family used for words without a known family. When
	// empty, the first family in name order is used.
	Default string
	// CJK is the optional simplified Chinese fallback, always embedded as
	// Type0. When nil, the first face of Families[CJKFamily] is used.
	CJK Face
}

// CJKFace returns the simplified Chinese fallback face, or nil.
func (c *Catalog) CJKFace() Face {
	if c.CJK != nil {
		return c.CJK
	}
	fam, ok := c.Families[CJKFamily]
	if !ok {
		return nil
	}
	for s := StyleNormal; s <= StyleBoldItalic; s++ {
		if f := fam.Face(s); f != nil {
			return f
		}
	}
	return nil
}

// Empty reports whether the catalog declares no face at all.
func (c *Catalog) Empty() bool {
	if c == nil {
		return true
	}
	if c.CJKFace() != nil {
		return false
	}
	for name, fam := range c.Families {
		if name == CJKFamily {
			continue
		}
		for s := StyleNormal; s <= StyleBoldItalic; s++ {
			if fam.Face(s) != nil {
				return false
			}
		}
	}
	return true
}

// FamilyNames returns the declared family names in slot order.
func (c *Catalog) FamilyNames() []string {
	names := make([]string, 0, len(c.Families))
	for name := range c.Families {
		if name == CJKFamily {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Slot is a reserved font resource. Object numbers First..First+Kind.Objects()-1
// belong to it whether or not the face is ever used.
type Slot struct {
	Index  int
	Family string
	Style  Style
	// Name is the resource name without the leading slash, e.g. "FO3".
	Name  string
	First writer.ObjectID
	Kind  Kind
	Face  Face
}

type slotKey struct {
	family string
	style  Style
}

// SlotTable maps family/style pairs to reserved slots.
type SlotTable struct {
	slots         []Slot
	index         map[slotKey]int
	defaultFamily string
	cjk           int
}

// NewSlotTable reserves object numbers for every declared face, families in
// name order and styles normal, italic, bold, boldItalic, followed by the CJK
// fallback.
func NewSlotTable(c *Catalog, alloc *writer.Allocator) (*SlotTable, error) {
	if c.Empty() {
		return nil, ErrEmptyCatalog
	}
	t := &SlotTable{index: make(map[slotKey]int), cjk: -1}
	for _, name := range c.FamilyNames() {
		fam := c.Families[name]
		for s := StyleNormal; s <= StyleBoldItalic; s++ {
			face := fam.Face(s)
			if face == nil {
				continue
			}
			t.add(name, s, fam.Kind, face, alloc)
		}
	}
	if cjk := c.CJKFace(); cjk != nil {
		t.cjk = t.add(CJKFamily, StyleNormal, KindType0, cjk, alloc)
	}
	t.defaultFamily = c.Default
	if _, ok := t.index[slotKey{t.defaultFamily, StyleNormal}]; !ok && len(t.slots) > 0 {
		t.defaultFamily = t.slots[0].Family
	}
	return t, nil
}

func (t *SlotTable) add(family string, s Style, k Kind, face Face, alloc *writer.Allocator) int {
	i := len(t.slots)
	t.slots = append(t.slots, Slot{
		Index:  i,
		Family: family,
		Style:  s,
		Name:   "FO" + strconv.Itoa(i),
		First:  alloc.Reserve(k.Objects()),
		Kind:   k,
		Face:   face,
	})
	t.index[slotKey{family, s}] = i
	return i
}

// Len is the number of slots.
func (t *SlotTable) Len() int { return len(t.slots) }

// Slots returns every slot in reservation order.
func (t *SlotTable) Slots() []Slot { return t.slots }

// Slot returns the slot with index i.
func (t *SlotTable) Slot(i int) *Slot { return &t.slots[i] }

// CJK returns the fallback slot, or nil when the catalog has none.
func (t *SlotTable) CJK() *Slot {
	if t.cjk < 0 {
		return nil
	}
	return &t.slots[t.cjk]
}

// Lookup resolves a family and style to a slot. Unknown families use the
// default family and undeclared styles fall back to the family's normal face
// (or its first declared face).
func (t *SlotTable) Lookup(family string, s Style) *Slot {
	if !t.hasFamily(family) {
		family = t.defaultFamily
	}
	if i, ok := t.index[slotKey{family, s}]; ok {
		return &t.slots[i]
	}
	if i, ok := t.index[slotKey{family, StyleNormal}]; ok {
		return &t.slots[i]
	}
	for i := range t.slots {
		if t.slots[i].Family == family {
			return &t.slots[i]
		}
	}
	return &t.slots[0]
}

func (t *SlotTable) hasFamily(family string) bool {
	for s := StyleNormal; s <= StyleBoldItalic; s++ {
		if _, ok := t.index[slotKey{family, s}]; ok {
			return true
		}
	}
	return false
}
