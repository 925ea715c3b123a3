// Package treesitter implements engine.Engine on top of go-tree-sitter.
//
//	eng := treesitter.New(
//		language.NewLanguage("go", tree_sitter_go.Language(), highlightsQuery, injectionsQuery),
//	)
//	defer eng.Close()
//
//	tree, err := languagetree.New(eng, buffer, "go")
package treesitter

import (
	"errors"
	"fmt"
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/noclaps/go-tree-sitter-langtree/engine"
	"github.com/noclaps/go-tree-sitter-langtree/language"
)

// ErrParse is returned when tree-sitter produces no tree.
var ErrParse = errors.New("tree-sitter returned no tree")

type queryKey struct {
	language string
	name     string
}

// Engine serves parsers and compiled queries for a set of registered languages.
// Queries are compiled once per language and name. It is safe for concurrent use;
// the parsers and trees it hands out are not.
type Engine struct {
	mu        sync.Mutex
	languages map[string]language.Language
	queries   map[queryKey]*query
}

// New creates an Engine serving the given languages.
func New(languages ...language.Language) *Engine {
	e := &Engine{
		languages: make(map[string]language.Language),
		queries:   make(map[queryKey]*query),
	}
	for _, lang := range languages {
		e.Register(lang)
	}
	return e
}

// Register adds a language, replacing any language of the same name.
// Queries already compiled for that name are dropped.
func (e *Engine) Register(lang language.Language) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.languages[lang.Name] = lang
	for key, q := range e.queries {
		if key.language == lang.Name {
			if q != nil {
				q.query.Close()
			}
			delete(e.queries, key)
		}
	}
}

// Languages returns the names of the registered languages.
func (e *Engine) Languages() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	names := make([]string, 0, len(e.languages))
	for name := range e.languages {
		names = append(names, name)
	}
	return names
}

func (e *Engine) language(name string) (language.Language, error) {
	lang, ok := e.languages[name]
	if !ok || lang.Lang == nil {
		return language.Language{}, fmt.Errorf("%w: %s", engine.ErrUnavailableLanguage, name)
	}
	return lang, nil
}

func (e *Engine) NewParser(name string) (engine.Parser, error) {
	e.mu.Lock()
	lang, err := e.language(name)
	e.mu.Unlock()
	if err != nil {
		return nil, err
	}

	p := tree_sitter.NewParser()
	if err = p.SetLanguage(lang.Lang); err != nil {
		p.Close()
		return nil, fmt.Errorf("error setting language %s: %w", name, err)
	}
	return &parser{parser: p}, nil
}

func (e *Engine) Query(name string, queryName string) (engine.Query, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	key := queryKey{language: name, name: queryName}
	if q, ok := e.queries[key]; ok {
		if q == nil {
			return nil, nil
		}
		return q, nil
	}

	lang, err := e.language(name)
	if err != nil {
		return nil, err
	}

	var source []byte
	switch queryName {
	case engine.QueryHighlights:
		source = lang.HighlightsQuery
	case engine.QueryInjections:
		source = lang.InjectionsQuery
	default:
		return nil, fmt.Errorf("unknown query %q", queryName)
	}

	if len(source) == 0 {
		e.queries[key] = nil
		return nil, nil
	}

	q, err := newQuery(lang.Lang, source)
	if err != nil {
		return nil, fmt.Errorf("error creating %s query for %s: %w", queryName, name, err)
	}
	e.queries[key] = q
	return q, nil
}

// Close releases the compiled queries.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	for key, q := range e.queries {
		if q != nil {
			q.query.Close()
		}
		delete(e.queries, key)
	}
}
