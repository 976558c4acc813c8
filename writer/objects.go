package writer

import (
	"errors"
	"fmt"
	"strconv"
)

// Header is written at the start of every document. The second line holds
// high-bit bytes so transfer tools treat the file as binary.
const Header = "%PDF-1.7\n%\xE2\xE3\xCF\xD3\n"

// ErrOutOfOrder is returned when an object is appended with a number other
// than the next one expected by the emitter.
var ErrOutOfOrder = errors.New("object emitted out of order")

// ObjectID is a PDF object number. Generation numbers are always zero.
type ObjectID int

// Ref renders the indirect reference "N 0 R".
func (id ObjectID) Ref() string { return strconv.Itoa(int(id)) + " 0 R" }

// Allocator hands out object numbers strictly in emission order.
type Allocator struct {
	next ObjectID
}

// NewAllocator returns an allocator whose first number is first.
func NewAllocator(first ObjectID) *Allocator {
	return &Allocator{next: first}
}

// Next allocates a single object number.
func (a *Allocator) Next() ObjectID {
	id := a.next
	a.next++
	return id
}

// Reserve allocates n consecutive numbers and returns the first.
func (a *Allocator) Reserve(n int) ObjectID {
	id := a.next
	a.next += ObjectID(n)
	return id
}

// Peek returns the number the next call to Next would return.
func (a *Allocator) Peek() ObjectID { return a.next }

// XrefEntry is one line of the cross-reference table.
type XrefEntry struct {
	Free   bool
	Offset int64
}

// Emitter accumulates serialized objects in number order and records each
// object's byte offset as it is appended.
type Emitter struct {
	buf     []byte
	entries []XrefEntry
}

// NewEmitter returns an emitter that has written the file header and the free
// entry for object 0.
func NewEmitter() *Emitter {
	return &Emitter{
		buf:     append(make([]byte, 0, 64*1024), Header...),
		entries: []XrefEntry{{Free: true}},
	}
}

// Len is the number of bytes written so far.
func (e *Emitter) Len() int64 { return int64(len(e.buf)) }

// Next is the object number the emitter expects next.
func (e *Emitter) Next() ObjectID { return ObjectID(len(e.entries)) }

// Append writes a complete serialized object. id must equal Next.
func (e *Emitter) Append(id ObjectID, obj []byte) error {
	if id != e.Next() {
		return fmt.Errorf("%w: got %d, want %d", ErrOutOfOrder, id, e.Next())
	}
	e.entries = append(e.entries, XrefEntry{Offset: int64(len(e.buf))})
	e.buf = append(e.buf, obj...)
	return nil
}

// Free marks n numbers starting at id as unused. id must equal Next.
func (e *Emitter) Free(id ObjectID, n int) error {
	if id != e.Next() {
		return fmt.Errorf("%w: free %d, want %d", ErrOutOfOrder, id, e.Next())
	}
	for i := 0; i < n; i++ {
		e.entries = append(e.entries, XrefEntry{Free: true})
	}
	return nil
}

// Entries returns the xref entries recorded so far.
func (e *Emitter) Entries() []XrefEntry { return e.entries }

// Finish appends the cross-reference table and trailer and returns the
// complete document.
func (e *Emitter) Finish(root ObjectID) []byte {
	xrefOffset := len(e.buf)
	size := len(e.entries)
	e.buf = append(e.buf, "xref\n0 "...)
	e.buf = strconv.AppendInt(e.buf, int64(size), 10)
	e.buf = append(e.buf, '\n')
	for _, ent := range e.entries {
		if ent.Free {
			e.buf = append(e.buf, "0000000000 65535 f \n"...)
			continue
		}
		e.buf = fmt.Appendf(e.buf, "%010d 00000 n \n", ent.Offset)
	}
	e.buf = fmt.Appendf(e.buf, "trailer\n<</Root %s/Size %d>>\nstartxref\n%d\n%%%%EOF", root.Ref(), size, xrefOffset)
	return e.buf
}

// AppendObject appends "N 0 obj\n<body>\nendobj\n\n" to dst.
func AppendObject(dst []byte, id ObjectID, body string) []byte {
	dst = strconv.AppendInt(dst, int64(id), 10)
	dst = append(dst, " 0 obj\n"...)
	dst = append(dst, body...)
	return append(dst, "\nendobj\n\n"...)
}

// AppendStream appends an indirect stream object. dict holds the dictionary
// entries without the enclosing << >>; /Length is added.
func AppendStream(dst []byte, id ObjectID, dict string, data []byte) []byte {
	dst = strconv.AppendInt(dst, int64(id), 10)
	dst = append(dst, " 0 obj\n<<"...)
	dst = append(dst, dict...)
	dst = append(dst, "/Length "...)
	dst = strconv.AppendInt(dst, int64(len(data)), 10)
	dst = append(dst, ">>\nstream\n"...)
	dst = append(dst, data...)
	return append(dst, "\nendstream\nendobj\n\n"...)
}
