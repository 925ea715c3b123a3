package types

import "bytes"

// Point is a zero-based position in a source: a row and a byte column within that row.
type Point struct {
	Row    uint
	Column uint
}

// Compare returns -1 if p is before other, 1 if it is after and 0 if both are equal.
func (p Point) Compare(other Point) int {
	switch {
	case p.Row < other.Row:
		return -1
	case p.Row > other.Row:
		return 1
	case p.Column < other.Column:
		return -1
	case p.Column > other.Column:
		return 1
	}
	return 0
}

// Range is a byte and row/column bounded span of a source. End positions are exclusive.
type Range struct {
	StartByte  uint
	EndByte    uint
	StartPoint Point
	EndPoint   Point
}

// ContainsRow reports whether the row lies within the rows spanned by r.
func (r Range) ContainsRow(row uint) bool {
	return r.StartPoint.Row <= row && row <= r.EndPoint.Row
}

// Contains reports whether other lies entirely within r.
func (r Range) Contains(other Range) bool {
	return r.StartByte <= other.StartByte && other.EndByte <= r.EndByte
}

// RangeSet is an ordered list of ranges parsed together as one unit.
// A nil RangeSet stands for the whole source.
type RangeSet []Range

// Bounds returns the smallest range covering every range of the set.
func (s RangeSet) Bounds() Range {
	if len(s) == 0 {
		return Range{}
	}
	bounds := s[0]
	for _, r := range s[1:] {
		if r.StartByte < bounds.StartByte {
			bounds.StartByte = r.StartByte
			bounds.StartPoint = r.StartPoint
		}
		if r.EndByte > bounds.EndByte {
			bounds.EndByte = r.EndByte
			bounds.EndPoint = r.EndPoint
		}
	}
	return bounds
}

// Equal reports whether both sets hold the same ranges in the same order.
func (s RangeSet) Equal(other RangeSet) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Extent is the size of a piece of text.
// Columns is a column offset when Rows is zero, and the column on the last row otherwise.
type Extent struct {
	Rows    uint
	Columns uint
	Bytes   uint
}

// ExtentOf measures text.
func ExtentOf(text []byte) Extent {
	rows := uint(bytes.Count(text, []byte{'\n'}))
	columns := uint(len(text))
	if i := bytes.LastIndexByte(text, '\n'); i != -1 {
		columns = uint(len(text) - i - 1)
	}
	return Extent{Rows: rows, Columns: columns, Bytes: uint(len(text))}
}

// Advance returns the point reached by moving over a piece of text of the given extent.
func (p Point) Advance(e Extent) Point {
	if e.Rows == 0 {
		return Point{Row: p.Row, Column: p.Column + e.Columns}
	}
	return Point{Row: p.Row + e.Rows, Column: e.Columns}
}

// InputEdit describes a single replacement in a source.
type InputEdit struct {
	StartByte   uint
	OldEndByte  uint
	NewEndByte  uint
	StartPoint  Point
	OldEndPoint Point
	NewEndPoint Point
}

// NewInputEdit builds an InputEdit from the shape hosts report byte changes in:
// the start position and the extents of the replaced and the inserted text.
func NewInputEdit(startRow, startCol, startByte uint, oldExtent, newExtent Extent) InputEdit {
	start := Point{Row: startRow, Column: startCol}
	return InputEdit{
		StartByte:   startByte,
		OldEndByte:  startByte + oldExtent.Bytes,
		NewEndByte:  startByte + newExtent.Bytes,
		StartPoint:  start,
		OldEndPoint: start.Advance(oldExtent),
		NewEndPoint: start.Advance(newExtent),
	}
}

// Edit returns r with its positions shifted to account for edit.
// Positions inside the replaced text move to the end of the inserted text.
func (r Range) Edit(edit InputEdit) Range {
	r.StartByte, r.StartPoint = editPosition(r.StartByte, r.StartPoint, edit)
	r.EndByte, r.EndPoint = editPosition(r.EndByte, r.EndPoint, edit)
	return r
}

func editPosition(b uint, p Point, edit InputEdit) (uint, Point) {
	switch {
	case b >= edit.OldEndByte:
		b = b - edit.OldEndByte + edit.NewEndByte
		if p.Row == edit.OldEndPoint.Row {
			p.Column = p.Column - edit.OldEndPoint.Column + edit.NewEndPoint.Column
		}
		p.Row = p.Row - edit.OldEndPoint.Row + edit.NewEndPoint.Row
	case b > edit.StartByte:
		b = edit.NewEndByte
		p = edit.NewEndPoint
	}
	return b, p
}

// PointAt converts a byte offset of source into a Point. Offsets past the end are clamped.
func PointAt(source []byte, offset uint) Point {
	if offset > uint(len(source)) {
		offset = uint(len(source))
	}
	head := source[:offset]
	row := uint(bytes.Count(head, []byte{'\n'}))
	column := offset
	if i := bytes.LastIndexByte(head, '\n'); i != -1 {
		column = offset - uint(i) - 1
	}
	return Point{Row: row, Column: column}
}

// RangeOf builds the Range of source between two byte offsets.
func RangeOf(source []byte, startByte, endByte uint) Range {
	return Range{
		StartByte:  startByte,
		EndByte:    endByte,
		StartPoint: PointAt(source, startByte),
		EndPoint:   PointAt(source, endByte),
	}
}

// Source is the mutable text being parsed. It is only referenced, never copied.
type Source interface {
	Bytes() []byte
}

// Buffer is a Source backed by a byte slice.
type Buffer struct {
	data []byte
}

// NewBuffer creates a Buffer holding data.
func NewBuffer(data []byte) *Buffer {
	return &Buffer{data: data}
}

func (b *Buffer) Bytes() []byte {
	return b.data
}

// Set replaces the content of the buffer.
func (b *Buffer) Set(data []byte) {
	b.data = data
}

// Replace substitutes the bytes between start and oldEnd with text and returns the
// matching InputEdit.
func (b *Buffer) Replace(start, oldEnd uint, text []byte) InputEdit {
	startPoint := PointAt(b.data, start)
	oldExtent := ExtentOf(b.data[start:oldEnd])
	newExtent := ExtentOf(text)

	data := make([]byte, 0, uint(len(b.data))-(oldEnd-start)+uint(len(text)))
	data = append(data, b.data[:start]...)
	data = append(data, text...)
	data = append(data, b.data[oldEnd:]...)
	b.data = data

	return NewInputEdit(startPoint.Row, startPoint.Column, start, oldExtent, newExtent)
}
