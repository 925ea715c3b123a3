// Package enginetest provides a deterministic engine.Engine for tests.
//
// Parsing produces a tree whose root spans the included ranges. Queries are lists of
// regular expressions; every named group is a capture, "__" in a group name standing
// for "." (so (?P<keyword__function>...) captures @keyword.function). Patterns run over
// each included range of a tree separately.
package enginetest

import (
	"bytes"
	"cmp"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/noclaps/go-tree-sitter-langtree/engine"
	"github.com/noclaps/go-tree-sitter-langtree/types"
)

// ErrParse is returned by Parse when Engine.FailParse is set.
var ErrParse = errors.New("enginetest: parse failed")

// Pattern is one query pattern.
type Pattern struct {
	Regexp   string
	Settings map[string]string
}

// Language defines a fake grammar and its queries.
type Language struct {
	Injections []Pattern
	Highlights []Pattern
}

// Stats counts the calls made into an Engine.
type Stats struct {
	Parses          int
	ParsesByLang    map[string]int
	ReusedTrees     int
	Edits           int
	ClosedTrees     int
	CapturePulls    int
	QueriesCompiled int
}

// Engine is a fake engine.Engine.
type Engine struct {
	languages map[string]Language
	Stats     Stats

	// FailParse makes every Parse of the named language fail with ErrParse.
	FailParse map[string]bool
}

// New creates an Engine with no languages defined.
func New() *Engine {
	return &Engine{
		languages: make(map[string]Language),
		Stats:     Stats{ParsesByLang: make(map[string]int)},
		FailParse: make(map[string]bool),
	}
}

// Define makes a language available.
func (e *Engine) Define(name string, lang Language) *Engine {
	e.languages[name] = lang
	return e
}

func (e *Engine) NewParser(language string) (engine.Parser, error) {
	if _, ok := e.languages[language]; !ok {
		return nil, fmt.Errorf("%w: %s", engine.ErrUnavailableLanguage, language)
	}
	return &parser{engine: e, language: language}, nil
}

func (e *Engine) Query(language string, name string) (engine.Query, error) {
	lang, ok := e.languages[language]
	if !ok {
		return nil, fmt.Errorf("%w: %s", engine.ErrUnavailableLanguage, language)
	}

	var patterns []Pattern
	switch name {
	case engine.QueryHighlights:
		patterns = lang.Highlights
	case engine.QueryInjections:
		patterns = lang.Injections
	default:
		return nil, fmt.Errorf("enginetest: unknown query %q", name)
	}
	if len(patterns) == 0 {
		return nil, nil
	}

	q, err := newQuery(e, patterns)
	if err != nil {
		return nil, err
	}
	e.Stats.QueriesCompiled++
	return q, nil
}

type parser struct {
	engine   *Engine
	language string
	ranges   types.RangeSet
}

func (p *parser) SetIncludedRanges(ranges types.RangeSet) error {
	for i := 1; i < len(ranges); i++ {
		if ranges[i].StartByte < ranges[i-1].EndByte {
			return fmt.Errorf("enginetest: overlapping included ranges %d and %d", i-1, i)
		}
	}
	p.ranges = slices.Clone(ranges)
	return nil
}

func (p *parser) Parse(old engine.Tree, source []byte) (engine.Tree, []types.Range, error) {
	p.engine.Stats.Parses++
	p.engine.Stats.ParsesByLang[p.language]++
	if p.engine.FailParse[p.language] {
		return nil, nil, ErrParse
	}

	t := &Tree{
		engine:   p.engine,
		Language: p.language,
		Ranges:   slices.Clone(p.ranges),
		root:     types.RangeOf(source, 0, uint(len(source))),
	}
	if p.ranges != nil {
		t.root = p.ranges.Bounds()
	}
	t.text = includedText(source, p.ranges)

	if old == nil {
		return t, []types.Range{t.root}, nil
	}

	prior := old.(*Tree)
	p.engine.Stats.ReusedTrees++
	t.Reused = true
	if prior.root == t.root && bytes.Equal(prior.text, t.text) {
		return t, nil, nil
	}
	return t, []types.Range{t.root}, nil
}

func (p *parser) Close() {}

func includedText(source []byte, ranges types.RangeSet) []byte {
	if ranges == nil {
		return slices.Clone(source)
	}
	var text []byte
	for _, r := range ranges {
		if r.EndByte <= uint(len(source)) && r.StartByte <= r.EndByte {
			text = append(text, source[r.StartByte:r.EndByte]...)
		}
	}
	return text
}

// Tree is the fake engine.Tree.
type Tree struct {
	engine   *Engine
	Language string
	Ranges   types.RangeSet
	// Reused is set when the tree was parsed with a prior tree.
	Reused bool
	Edits  []types.InputEdit
	Closed bool

	root types.Range
	text []byte
}

func (t *Tree) RootNode() engine.Node {
	return &Node{kind: "root", r: t.root, tree: t}
}

func (t *Tree) Edit(edit types.InputEdit) {
	t.engine.Stats.Edits++
	t.Edits = append(t.Edits, edit)
	t.root = t.root.Edit(edit)
	for i := range t.Ranges {
		t.Ranges[i] = t.Ranges[i].Edit(edit)
	}
}

func (t *Tree) Close() {
	if !t.Closed {
		t.engine.Stats.ClosedTrees++
	}
	t.Closed = true
}

// Node is the fake engine.Node.
type Node struct {
	kind string
	r    types.Range
	tree *Tree
}

func (n *Node) Kind() string       { return n.kind }
func (n *Node) Range() types.Range { return n.r }

type compiledPattern struct {
	re       *regexp.Regexp
	captures []int // capture index per regexp group, -1 when unnamed
	settings map[string]string
}

type query struct {
	engine   *Engine
	names    []string
	patterns []compiledPattern
}

func newQuery(e *Engine, patterns []Pattern) (*query, error) {
	q := &query{engine: e}
	for i, p := range patterns {
		re, err := regexp.Compile(p.Regexp)
		if err != nil {
			return nil, fmt.Errorf("enginetest: pattern %d: %w", i, err)
		}

		cp := compiledPattern{re: re, settings: p.Settings}
		for _, group := range re.SubexpNames() {
			if group == "" {
				cp.captures = append(cp.captures, -1)
				continue
			}
			name := strings.ReplaceAll(group, "__", ".")
			index := slices.Index(q.names, name)
			if index == -1 {
				index = len(q.names)
				q.names = append(q.names, name)
			}
			cp.captures = append(cp.captures, index)
		}
		q.patterns = append(q.patterns, cp)
	}
	return q, nil
}

func (q *query) CaptureCount() uint { return uint(len(q.names)) }

func (q *query) CaptureName(index uint) string {
	if index >= uint(len(q.names)) {
		return ""
	}
	return q.names[index]
}

func (q *query) Settings(pattern uint) map[string]string {
	if pattern >= uint(len(q.patterns)) {
		return nil
	}
	return q.patterns[pattern].settings
}

func (q *query) matches(node engine.Node, source []byte, startRow, endRow uint) []engine.Match {
	n := node.(*Node)
	segments := n.tree.Ranges
	if segments == nil {
		segments = types.RangeSet{n.r}
	}

	var result []engine.Match
	for pi, p := range q.patterns {
		for _, seg := range segments {
			if seg.EndByte > uint(len(source)) || seg.StartByte > seg.EndByte {
				continue
			}
			text := source[seg.StartByte:seg.EndByte]
			for _, loc := range p.re.FindAllSubmatchIndex(text, -1) {
				whole := types.RangeOf(source, seg.StartByte+uint(loc[0]), seg.StartByte+uint(loc[1]))
				if whole.EndPoint.Row < startRow || whole.StartPoint.Row > endRow {
					continue
				}

				m := engine.Match{Pattern: uint(pi)}
				for group := 1; group < len(p.captures); group++ {
					index := p.captures[group]
					if index == -1 || loc[2*group] < 0 {
						continue
					}
					r := types.RangeOf(source, seg.StartByte+uint(loc[2*group]), seg.StartByte+uint(loc[2*group+1]))
					m.Captures = append(m.Captures, engine.Capture{
						Index: uint(index),
						Node:  &Node{kind: q.names[index], r: r, tree: n.tree},
					})
				}
				result = append(result, m)
			}
		}
	}

	slices.SortStableFunc(result, func(a, b engine.Match) int {
		return cmp.Compare(matchStart(a), matchStart(b))
	})
	return result
}

func matchStart(m engine.Match) uint {
	start := ^uint(0)
	for _, c := range m.Captures {
		start = min(start, c.Node.Range().StartByte)
	}
	return start
}

func (q *query) Matches(node engine.Node, source []byte, startRow, endRow uint) engine.Matches {
	return &matches{items: q.matches(node, source, startRow, endRow)}
}

func (q *query) Captures(node engine.Node, source []byte, startRow, endRow uint) engine.Captures {
	var items []engine.Capture
	for _, m := range q.matches(node, source, startRow, endRow) {
		for _, c := range m.Captures {
			r := c.Node.Range()
			if r.EndPoint.Row < startRow || r.StartPoint.Row > endRow {
				continue
			}
			items = append(items, c)
		}
	}
	slices.SortStableFunc(items, func(a, b engine.Capture) int {
		ra, rb := a.Node.Range(), b.Node.Range()
		if c := cmp.Compare(ra.StartByte, rb.StartByte); c != 0 {
			return c
		}
		return cmp.Compare(rb.EndByte, ra.EndByte)
	})
	return &captures{engine: q.engine, items: items}
}

type matches struct {
	items []engine.Match
}

func (m *matches) Next() (engine.Match, bool) {
	if len(m.items) == 0 {
		return engine.Match{}, false
	}
	next := m.items[0]
	m.items = m.items[1:]
	return next, true
}

func (m *matches) Close() { m.items = nil }

type captures struct {
	engine *Engine
	items  []engine.Capture
	closed bool
}

func (c *captures) Next() (engine.Capture, bool) {
	c.engine.Stats.CapturePulls++
	if c.closed || len(c.items) == 0 {
		return engine.Capture{}, false
	}
	next := c.items[0]
	c.items = c.items[1:]
	return next, true
}

func (c *captures) Close() { c.closed = true }
