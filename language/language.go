package language

import (
	"unsafe"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// Language bundles a grammar with the query sources used for it.
// A nil query source means the language has no query of that kind.
type Language struct {
	Name            string
	HighlightsQuery []byte
	InjectionsQuery []byte
	Lang            *tree_sitter.Language
}

// NewLanguage creates a Language from the pointer returned by a grammar binding,
// e.g. tree_sitter_go.Language().
func NewLanguage(name string, ptr unsafe.Pointer, highlightsQuery, injectionsQuery []byte) Language {
	return Language{
		Name:            name,
		HighlightsQuery: highlightsQuery,
		InjectionsQuery: injectionsQuery,
		Lang:            tree_sitter.NewLanguage(ptr),
	}
}

// Alias returns a copy of l registered under another name, typically to inject a
// language into itself with a different set of queries.
func (l Language) Alias(name string, highlightsQuery, injectionsQuery []byte) Language {
	return Language{
		Name:            name,
		HighlightsQuery: highlightsQuery,
		InjectionsQuery: injectionsQuery,
		Lang:            l.Lang,
	}
}
