package highlight

import (
	"cmp"
	"slices"

	"github.com/noclaps/go-tree-sitter-langtree/types"
)

// Annotation is a highlighted span of the source.
type Annotation struct {
	Range    types.Range
	Group    Group
	Language string
	// Ephemeral annotations are only valid for the redraw epoch they were set in.
	Ephemeral bool
}

// Host is the rendering side of a Highlighter.
type Host interface {
	// SetHighlight annotates a span of the source.
	SetHighlight(a Annotation)
	// Redraw requests the rows startRow through endRow to be rendered again.
	Redraw(startRow, endRow uint)
}

// RowSpan is an inclusive span of rows.
type RowSpan struct {
	Start uint
	End   uint
}

// LineHost is a Host collecting annotations in memory.
// Ephemeral annotations are dropped by Reset; redraw requests are kept until
// TakeRedraws.
type LineHost struct {
	annotations []Annotation
	redraws     []RowSpan
}

func (h *LineHost) SetHighlight(a Annotation) {
	h.annotations = append(h.annotations, a)
}

func (h *LineHost) Redraw(startRow, endRow uint) {
	h.redraws = append(h.redraws, RowSpan{Start: startRow, End: endRow})
}

// Annotations returns the annotations in the order they were set.
func (h *LineHost) Annotations() []Annotation {
	return slices.Clone(h.annotations)
}

// Line returns the annotations overlapping row.
func (h *LineHost) Line(row uint) []Annotation {
	var result []Annotation
	for _, a := range h.annotations {
		if a.Range.StartPoint.Row <= row && row <= a.Range.EndPoint.Row {
			result = append(result, a)
		}
	}
	return result
}

// Reset drops the ephemeral annotations, starting a new epoch.
func (h *LineHost) Reset() {
	h.annotations = slices.DeleteFunc(h.annotations, func(a Annotation) bool {
		return a.Ephemeral
	})
}

// TakeRedraws returns the pending redraw requests merged into disjoint spans and
// clears them.
func (h *LineHost) TakeRedraws() []RowSpan {
	spans := h.redraws
	h.redraws = nil
	return mergeSpans(spans)
}

func mergeSpans(spans []RowSpan) []RowSpan {
	if len(spans) == 0 {
		return nil
	}
	slices.SortFunc(spans, func(a, b RowSpan) int {
		return cmp.Compare(a.Start, b.Start)
	})

	merged := []RowSpan{spans[0]}
	for _, s := range spans[1:] {
		last := &merged[len(merged)-1]
		if s.Start <= last.End+1 {
			last.End = max(last.End, s.End)
			continue
		}
		merged = append(merged, s)
	}
	return merged
}
