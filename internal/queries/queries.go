// Package queries bundles the grammars and queries shipped with the command line tool.
package queries

import (
	_ "embed"

	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"

	"github.com/noclaps/go-tree-sitter-langtree/language"
)

var (
	//go:embed go/highlights.scm
	goHighlights []byte

	//go:embed go/injections.scm
	goInjections []byte
)

// GoSnippet is the name Go code embedded in Go raw strings is injected as.
const GoSnippet = "gosnippet"

// Go returns the Go language along with the language of Go snippets injected into it.
// Snippets are highlighted like Go but have no injections of their own.
func Go() []language.Language {
	golang := language.NewLanguage("go", tree_sitter_go.Language(), goHighlights, goInjections)
	return []language.Language{
		golang,
		golang.Alias(GoSnippet, goHighlights, nil),
	}
}

// ByExtension maps file extensions to language names.
var ByExtension = map[string]string{
	".go": "go",
}
