package treesitter

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/noclaps/go-tree-sitter-langtree/engine"
	"github.com/noclaps/go-tree-sitter-langtree/types"
)

type parser struct {
	parser *tree_sitter.Parser
}

func (p *parser) SetIncludedRanges(ranges types.RangeSet) error {
	tsRanges := make([]tree_sitter.Range, len(ranges))
	for i, r := range ranges {
		tsRanges[i] = toRange(r)
	}
	return p.parser.SetIncludedRanges(tsRanges)
}

// Parse parses source, reusing old when given. The changes are the ranges whose
// syntactic structure differs from old, or the whole tree without old.
func (p *parser) Parse(old engine.Tree, source []byte) (engine.Tree, []types.Range, error) {
	var oldTree *tree_sitter.Tree
	if old != nil {
		oldTree = old.(*Tree).tree
	}

	tsTree := p.parser.Parse(source, oldTree)
	if tsTree == nil {
		return nil, nil, ErrParse
	}
	t := &Tree{tree: tsTree}

	if oldTree == nil {
		return t, []types.Range{fromRange(tsTree.RootNode().Range())}, nil
	}

	changed := oldTree.ChangedRanges(tsTree)
	changes := make([]types.Range, len(changed))
	for i, r := range changed {
		changes[i] = fromRange(r)
	}
	return t, changes, nil
}

func (p *parser) Close() {
	p.parser.Close()
}

// Tree is the engine.Tree of this package.
type Tree struct {
	tree *tree_sitter.Tree
}

// Raw returns the underlying tree-sitter tree.
func (t *Tree) Raw() *tree_sitter.Tree {
	return t.tree
}

func (t *Tree) RootNode() engine.Node {
	root := t.tree.RootNode()
	return &Node{node: &root}
}

func (t *Tree) Edit(edit types.InputEdit) {
	t.tree.Edit(&tree_sitter.InputEdit{
		StartByte:      edit.StartByte,
		OldEndByte:     edit.OldEndByte,
		NewEndByte:     edit.NewEndByte,
		StartPosition:  toPoint(edit.StartPoint),
		OldEndPosition: toPoint(edit.OldEndPoint),
		NewEndPosition: toPoint(edit.NewEndPoint),
	})
}

func (t *Tree) Close() {
	t.tree.Close()
}

// Node is the engine.Node of this package.
type Node struct {
	node *tree_sitter.Node
}

// Raw returns the underlying tree-sitter node.
func (n *Node) Raw() *tree_sitter.Node {
	return n.node
}

func (n *Node) Kind() string {
	return n.node.Kind()
}

func (n *Node) Range() types.Range {
	return fromRange(n.node.Range())
}

func toPoint(p types.Point) tree_sitter.Point {
	return tree_sitter.NewPoint(p.Row, p.Column)
}

func fromPoint(p tree_sitter.Point) types.Point {
	return types.Point{Row: p.Row, Column: p.Column}
}

func toRange(r types.Range) tree_sitter.Range {
	return tree_sitter.Range{
		StartByte:  r.StartByte,
		EndByte:    r.EndByte,
		StartPoint: toPoint(r.StartPoint),
		EndPoint:   toPoint(r.EndPoint),
	}
}

func fromRange(r tree_sitter.Range) types.Range {
	return types.Range{
		StartByte:  r.StartByte,
		EndByte:    r.EndByte,
		StartPoint: fromPoint(r.StartPoint),
		EndPoint:   fromPoint(r.EndPoint),
	}
}
