// Package textedit derives the edits reported to a language tree from two versions of
// a text.
package textedit

import (
	"slices"
	"time"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/noclaps/go-tree-sitter-langtree/types"
)

// Timeout bounds the time spent diffing. Past it the edits get coarser but stay correct.
const Timeout = 100 * time.Millisecond

// Edits returns the edits turning before into after. They apply in order: positions
// of an edit are relative to the text produced by the edits before it.
func Edits(before, after []byte) []types.InputEdit {
	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = Timeout

	// the semantic cleanups of diffmatchpatch index strings by byte, which splits
	// the multi-byte encodings of the runes above 0x7f
	diffs := dmp.DiffMainRunes(byteRunes(before), byteRunes(after), false)

	var (
		edits   []types.InputEdit
		buf     = types.NewBuffer(slices.Clone(before))
		pos     uint
		deleted uint
		insert  []byte
	)
	flush := func() {
		if deleted == 0 && len(insert) == 0 {
			return
		}
		edits = append(edits, buf.Replace(pos, pos+deleted, insert))
		pos += uint(len(insert))
		deleted = 0
		insert = nil
	}

	for _, diff := range diffs {
		switch diff.Type {
		case diffmatchpatch.DiffEqual:
			flush()
			pos += uint(utf8.RuneCountInString(diff.Text))
		case diffmatchpatch.DiffDelete:
			deleted += uint(utf8.RuneCountInString(diff.Text))
		case diffmatchpatch.DiffInsert:
			for _, r := range diff.Text {
				insert = append(insert, byte(r))
			}
		}
	}
	flush()

	return edits
}

// byteRunes maps every byte of text to one rune so that diff offsets are byte
// offsets, whether or not text is valid UTF-8.
func byteRunes(text []byte) []rune {
	runes := make([]rune, len(text))
	for i, b := range text {
		runes[i] = rune(b)
	}
	return runes
}
