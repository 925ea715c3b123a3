// Package languagetree maintains the parse trees of one source for a root language and
// every language injected into it.
//
// A LanguageTree parses the ranges of the source assigned to its language, runs the
// language's injection query over the resulting trees and keeps one child per injected
// language, recursively. Parsing is pull based: edits and range changes only
// invalidate, and [LanguageTree.Parse] brings the forest up to date.
//
//	tree, err := languagetree.New(eng, buffer, "markdown")
//	if err != nil {
//		return err
//	}
//	defer tree.Destroy()
//
//	trees, changes, err := tree.Parse(ctx)
//
// Edits are reported with [LanguageTree.NotifyBytes] after the source has changed.
package languagetree

import (
	"context"
	"iter"
	"slices"

	"github.com/noclaps/go-tree-sitter-langtree/engine"
	"github.com/noclaps/go-tree-sitter-langtree/types"
)

// LanguageTree is a handle on one node of a Forest.
// Handles stay usable after the node is destroyed: they report Alive() == false,
// Parse fails with ErrDestroyed and mutations are no-ops.
type LanguageTree struct {
	forest   *Forest
	id       NodeID
	gen      uint64
	language string
}

// New creates the root language tree of a new forest over source.
// It fails with an error wrapping [engine.ErrUnavailableLanguage] if the grammar of
// language cannot be loaded.
func New(eng engine.Engine, source types.Source, language string, opts ...Option) (*LanguageTree, error) {
	f := newForest(eng, source, opts...)
	id, err := f.newNode(language, noParent)
	if err != nil {
		return nil, err
	}
	f.root = id
	return f.nodes[id].handle, nil
}

func (t *LanguageTree) node() *node {
	return t.forest.get(t.id, t.gen)
}

// Lang returns the language of the tree.
func (t *LanguageTree) Lang() string {
	return t.language
}

// ID returns the arena slot of the tree.
func (t *LanguageTree) ID() NodeID {
	return t.id
}

// Alive reports whether the tree has not been destroyed.
func (t *LanguageTree) Alive() bool {
	return t.node() != nil
}

// Source returns the source the forest parses.
func (t *LanguageTree) Source() types.Source {
	return t.forest.source
}

// Generation returns a counter of the changes to the trees of the whole forest: parses
// that produced new trees and destroyed language trees.
func (t *LanguageTree) Generation() uint64 {
	return t.forest.generation
}

// IsValid reports whether the trees reflect the current source and included ranges.
// Children of an invalid tree may still report valid until the next parse.
func (t *LanguageTree) IsValid() bool {
	n := t.node()
	return n != nil && n.valid
}

// Invalidate marks the tree and all of its descendants as out of date. The source
// may have changed in any way: the next parse does not reuse the current trees.
// Edits reported with [LanguageTree.NotifyBytes] invalidate on their own and keep
// the trees reusable.
func (t *LanguageTree) Invalidate() {
	if t.node() == nil {
		return
	}
	t.forest.discard(t.id)
}

// SetIncludedRanges replaces the range sets the tree parses and invalidates it.
// Each range set is parsed into one tree. No range sets means the whole source.
func (t *LanguageTree) SetIncludedRanges(rangeSets []types.RangeSet) {
	if t.node() == nil {
		return
	}
	t.forest.setIncludedRanges(t.id, rangeSets)
}

// IncludedRanges returns the range sets of the tree.
func (t *LanguageTree) IncludedRanges() []types.RangeSet {
	n := t.node()
	if n == nil {
		return nil
	}
	sets := make([]types.RangeSet, len(n.rangeSets))
	for i, set := range n.rangeSets {
		sets[i] = slices.Clone(set)
	}
	return sets
}

// Trees returns the current trees, one per range set.
func (t *LanguageTree) Trees() []engine.Tree {
	n := t.node()
	if n == nil {
		return nil
	}
	return slices.Clone(n.trees)
}

// NotifyBytes reports an edit of the source. The tree and its descendants are
// invalidated and their trees edited, then byte-edit callbacks run.
func (t *LanguageTree) NotifyBytes(edit types.InputEdit) {
	if t.node() == nil {
		return
	}
	t.forest.notifyBytes(t.id, edit)
}

// Parse brings the tree and its injected languages up to date and returns the trees
// along with the ranges that changed since the last parse. A valid tree returns its
// trees and no changes without parsing.
func (t *LanguageTree) Parse(ctx context.Context) ([]engine.Tree, []types.Range, error) {
	if t.node() == nil {
		return nil, nil, ErrDestroyed
	}
	return t.forest.parse(ctx, t.id)
}

// Parent returns the tree this language is injected into.
func (t *LanguageTree) Parent() (*LanguageTree, bool) {
	n := t.node()
	if n == nil || n.parent == noParent {
		return nil, false
	}
	return t.forest.nodes[n.parent].handle, true
}

// Child returns the tree of an injected language.
func (t *LanguageTree) Child(language string) (*LanguageTree, bool) {
	n := t.node()
	if n == nil {
		return nil, false
	}
	id, ok := n.children[language]
	if !ok {
		return nil, false
	}
	return t.forest.nodes[id].handle, true
}

// Children returns the trees of the injected languages by language.
func (t *LanguageTree) Children() map[string]*LanguageTree {
	n := t.node()
	if n == nil {
		return nil
	}
	children := make(map[string]*LanguageTree, len(n.children))
	for language, id := range n.children {
		children[language] = t.forest.nodes[id].handle
	}
	return children
}

// AllTrees iterates depth first over the trees of this language and of every
// injected language, this language first and children ordered by language.
func (t *LanguageTree) AllTrees() iter.Seq2[engine.Tree, *LanguageTree] {
	return func(yield func(engine.Tree, *LanguageTree) bool) {
		t.allTrees(yield)
	}
}

func (t *LanguageTree) allTrees(yield func(engine.Tree, *LanguageTree) bool) bool {
	n := t.node()
	if n == nil {
		return true
	}
	for _, tree := range n.trees {
		if !yield(tree, t) {
			return false
		}
	}
	for _, id := range childIDs(n) {
		if !t.forest.nodes[id].handle.allTrees(yield) {
			return false
		}
	}
	return true
}

// Contains reports whether one of the trees spans r.
func (t *LanguageTree) Contains(r types.Range) bool {
	n := t.node()
	if n == nil {
		return false
	}
	for _, tree := range n.trees {
		if tree.RootNode().Range().Contains(r) {
			return true
		}
	}
	return false
}

// LanguageFor returns the most deeply injected tree spanning r, or t itself.
func (t *LanguageTree) LanguageFor(r types.Range) *LanguageTree {
	n := t.node()
	if n == nil {
		return t
	}
	for _, id := range childIDs(n) {
		child := t.forest.nodes[id].handle
		if child.Contains(r) {
			return child.LanguageFor(r)
		}
	}
	return t
}

// Destroy destroys the tree and its descendants. Destroying an injected language
// removes it from its parent and runs the parent's child-removed callbacks. It is
// recreated once the parent is invalidated and parsed again.
func (t *LanguageTree) Destroy() {
	n := t.node()
	if n == nil {
		return
	}
	if n.parent == noParent {
		t.forest.destroy(t.id)
		return
	}
	t.forest.removeChild(context.Background(), n.parent, n.language)
}
