package highlight

import (
	"bytes"
	"cmp"
	"slices"
)

// run is a stretch of the source rendered with one group.
type run struct {
	start    uint
	end      uint
	group    Group
	language string
}

// runs splits source into runs. Where annotations overlap the innermost one wins:
// the one starting last, then the shorter one, then the one set last.
func runs(source []byte, annotations []Annotation) []run {
	order := make([]int, len(annotations))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		ra, rb := annotations[a].Range, annotations[b].Range
		if c := cmp.Compare(ra.StartByte, rb.StartByte); c != 0 {
			return c
		}
		return cmp.Compare(rb.EndByte, ra.EndByte)
	})

	size := uint(len(source))
	owner := make([]int, size)
	for i := range owner {
		owner[i] = -1
	}
	for _, i := range order {
		r := annotations[i].Range
		for b := r.StartByte; b < min(r.EndByte, size); b++ {
			owner[b] = i
		}
	}

	var result []run
	for b := uint(0); b < size; {
		end := b + 1
		for end < size && owner[end] == owner[b] {
			end++
		}

		r := run{start: b, end: end}
		if i := owner[b]; i != -1 {
			r.group = annotations[i].Group
			r.language = annotations[i].Language
		}
		result = append(result, r)
		b = end
	}
	return result
}

// lines calls fn for each line of text, newline excluded, and reports for every
// line but the last that a newline followed it.
func lines(text []byte, fn func(line []byte, newline bool) error) error {
	for {
		i := bytes.IndexByte(text, '\n')
		if i == -1 {
			return fn(text, false)
		}
		if err := fn(text[:i], true); err != nil {
			return err
		}
		text = text[i+1:]
	}
}
