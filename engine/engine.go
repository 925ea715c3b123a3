// Package engine describes the incremental parsing and query capabilities the language
// tree and the highlighter are built on. Package treesitter implements it with
// tree-sitter.
package engine

import (
	"errors"

	"github.com/noclaps/go-tree-sitter-langtree/types"
)

// ErrUnavailableLanguage is returned when the grammar of a language cannot be loaded.
var ErrUnavailableLanguage = errors.New("language unavailable")

// Builtin query names.
const (
	QueryHighlights = "highlights"
	QueryInjections = "injections"
)

// Engine loads parsers and compiled queries for languages by name.
type Engine interface {
	// NewParser returns a parser bound to the grammar of the language.
	// It returns an error wrapping ErrUnavailableLanguage if the grammar is not available.
	NewParser(language string) (Parser, error)

	// Query compiles the named query of the language.
	// It returns nil and no error if the language does not define that query.
	Query(language string, name string) (Query, error)
}

// Parser parses a source into trees.
type Parser interface {
	// SetIncludedRanges restricts parsing to the given ranges. A nil set includes the whole source.
	SetIncludedRanges(ranges types.RangeSet) error

	// Parse parses source. old is an edited prior tree whose unchanged structure may be
	// reused, or nil. The returned ranges describe what changed compared to old; when
	// old is nil they cover the whole new tree.
	Parse(old Tree, source []byte) (Tree, []types.Range, error)

	Close()
}

// Tree is a parsed syntax tree.
type Tree interface {
	RootNode() Node

	// Edit shifts the positions of the tree to account for an edit of the source.
	Edit(edit types.InputEdit)

	Close()
}

// Node is a syntax node.
type Node interface {
	Kind() string
	Range() types.Range
}

// Capture is a named node of a match.
type Capture struct {
	Index uint
	Node  Node
}

// Match is one match of a query pattern.
type Match struct {
	Pattern  uint
	Captures []Capture
}

// Query is a compiled pattern query.
type Query interface {
	CaptureCount() uint
	CaptureName(index uint) string

	// Settings returns the key/value properties set on a pattern, if any.
	Settings(pattern uint) map[string]string

	// Matches iterates over the matches within node on rows startRow through endRow.
	Matches(node Node, source []byte, startRow, endRow uint) Matches

	// Captures iterates over the captures within node on rows startRow through endRow,
	// ordered by start position.
	Captures(node Node, source []byte, startRow, endRow uint) Captures
}

// Matches is an iterator over query matches.
type Matches interface {
	Next() (Match, bool)
	Close()
}

// Captures is an iterator over query captures.
type Captures interface {
	Next() (Capture, bool)
	Close()
}
