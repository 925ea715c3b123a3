package languagetree

import (
	"github.com/noclaps/go-tree-sitter-langtree/engine"
	"github.com/noclaps/go-tree-sitter-langtree/types"
)

// Event is emitted by a language tree. Possible implementations are:
// - [EventChangedTree]
// - [EventBytes]
// - [EventChildAdded]
// - [EventChildRemoved]
type Event interface {
	languageTreeEvent()
}

// EventChangedTree is emitted after a parse, once the tree is valid again.
type EventChangedTree struct {
	// Changes are the ranges that changed, injected languages included.
	Changes []types.Range
	Trees   []engine.Tree
}

func (EventChangedTree) languageTreeEvent() {}

// EventBytes is emitted after an edit has been applied to the trees.
type EventBytes struct {
	Edit types.InputEdit
}

func (EventBytes) languageTreeEvent() {}

// EventChildAdded is emitted when an injected language is first found.
type EventChildAdded struct {
	Child *LanguageTree
}

func (EventChildAdded) languageTreeEvent() {}

// EventChildRemoved is emitted when an injected language is no longer found.
// Child has already been destroyed.
type EventChildRemoved struct {
	Child *LanguageTree
}

func (EventChildRemoved) languageTreeEvent() {}

// Callbacks are called synchronously, in registration order, after the state change
// they report is complete. Nil fields are skipped.
type Callbacks struct {
	OnChangedTree  func(changes []types.Range, trees []engine.Tree)
	OnBytes        func(edit types.InputEdit)
	OnChildAdded   func(child *LanguageTree)
	OnChildRemoved func(child *LanguageTree)
}

// Subscribe registers fn for every event of the tree and returns a function
// unregistering it.
func (t *LanguageTree) Subscribe(fn func(Event)) func() {
	n := t.node()
	if n == nil {
		return func() {}
	}
	remove := n.events.Add(fn)
	return func() {
		// the registry is gone along with a destroyed node
		if t.node() != nil {
			remove()
		}
	}
}

// RegisterCallbacks registers callbacks and returns a function unregistering them.
func (t *LanguageTree) RegisterCallbacks(cb Callbacks) func() {
	return t.Subscribe(func(e Event) {
		switch e := e.(type) {
		case EventChangedTree:
			if cb.OnChangedTree != nil {
				cb.OnChangedTree(e.Changes, e.Trees)
			}
		case EventBytes:
			if cb.OnBytes != nil {
				cb.OnBytes(e.Edit)
			}
		case EventChildAdded:
			if cb.OnChildAdded != nil {
				cb.OnChildAdded(e.Child)
			}
		case EventChildRemoved:
			if cb.OnChildRemoved != nil {
				cb.OnChildRemoved(e.Child)
			}
		}
	})
}
