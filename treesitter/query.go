package treesitter

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/noclaps/go-tree-sitter-langtree/engine"
)

type query struct {
	query    *tree_sitter.Query
	names    []string
	settings []map[string]string
}

func newQuery(lang *tree_sitter.Language, source []byte) (*query, error) {
	q, qErr := tree_sitter.NewQuery(lang, string(source))
	if qErr != nil {
		return nil, qErr
	}

	settings := make([]map[string]string, q.PatternCount())
	for i := range settings {
		properties := q.PropertySettings(uint(i))
		if len(properties) == 0 {
			continue
		}
		settings[i] = make(map[string]string, len(properties))
		for _, property := range properties {
			var value string
			if property.Value != nil {
				value = *property.Value
			}
			settings[i][property.Key] = value
		}
	}

	return &query{
		query:    q,
		names:    q.CaptureNames(),
		settings: settings,
	}, nil
}

func (q *query) CaptureCount() uint {
	return uint(len(q.names))
}

func (q *query) CaptureName(index uint) string {
	if index >= uint(len(q.names)) {
		return ""
	}
	return q.names[index]
}

func (q *query) Settings(pattern uint) map[string]string {
	if pattern >= uint(len(q.settings)) {
		return nil
	}
	return q.settings[pattern]
}

// cursor creates a query cursor limited to the rows startRow through endRow.
func cursor(startRow, endRow uint) *tree_sitter.QueryCursor {
	c := tree_sitter.NewQueryCursor()
	c.SetPointRange(tree_sitter.NewPoint(startRow, 0), tree_sitter.NewPoint(endRow+1, 0))
	return c
}

func (q *query) Matches(node engine.Node, source []byte, startRow, endRow uint) engine.Matches {
	c := cursor(startRow, endRow)
	return &matches{
		cursor:  c,
		matches: c.Matches(q.query, *node.(*Node).node, source),
	}
}

func (q *query) Captures(node engine.Node, source []byte, startRow, endRow uint) engine.Captures {
	c := cursor(startRow, endRow)
	return &captures{
		cursor:   c,
		captures: c.Captures(q.query, *node.(*Node).node, source),
	}
}

type matches struct {
	cursor  *tree_sitter.QueryCursor
	matches tree_sitter.QueryMatches
}

func (m *matches) Next() (engine.Match, bool) {
	if m.cursor == nil {
		return engine.Match{}, false
	}

	match := m.matches.Next()
	if match == nil {
		return engine.Match{}, false
	}

	// the match is overwritten by the next call, so copy the nodes out
	result := engine.Match{
		Pattern:  match.PatternIndex,
		Captures: make([]engine.Capture, len(match.Captures)),
	}
	for i, capture := range match.Captures {
		result.Captures[i] = newCapture(capture)
	}
	return result, true
}

func (m *matches) Close() {
	if m.cursor != nil {
		m.cursor.Close()
		m.cursor = nil
	}
}

// captures iterates over the captures of a query in the order they appear.
type captures struct {
	cursor   *tree_sitter.QueryCursor
	captures tree_sitter.QueryCaptures
}

func (c *captures) Next() (engine.Capture, bool) {
	if c.cursor == nil {
		return engine.Capture{}, false
	}

	match, index := c.captures.Next()
	if match == nil || index >= uint(len(match.Captures)) {
		return engine.Capture{}, false
	}
	return newCapture(match.Captures[index]), true
}

func (c *captures) Close() {
	if c.cursor != nil {
		c.cursor.Close()
		c.cursor = nil
	}
}

func newCapture(capture tree_sitter.QueryCapture) engine.Capture {
	node := capture.Node
	return engine.Capture{
		Index: uint(capture.Index),
		Node:  &Node{node: &node},
	}
}
