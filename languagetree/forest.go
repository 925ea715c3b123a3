package languagetree

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/noclaps/go-tree-sitter-langtree/engine"
	"github.com/noclaps/go-tree-sitter-langtree/internal/events"
	"github.com/noclaps/go-tree-sitter-langtree/internal/injection"
	"github.com/noclaps/go-tree-sitter-langtree/types"
)

// NodeID addresses a node in the arena of a Forest.
type NodeID int

const noParent NodeID = -1

// Forest owns every language tree parsed over one source: the root language and
// the languages injected into it, recursively. Nodes live in an arena and refer to
// each other by NodeID. A Forest is not safe for concurrent use.
type Forest struct {
	engine engine.Engine
	source types.Source
	logger *slog.Logger

	nodes []*node
	free  []NodeID
	root  NodeID

	// nextGen tells apart nodes that reuse a freed arena slot.
	nextGen uint64
	// generation counts the changes to the set of trees: parses that replaced
	// trees and destroyed nodes.
	generation uint64

	unavailable map[string]bool
}

type node struct {
	handle *LanguageTree

	language string
	parent   NodeID
	parser   engine.Parser

	injections engine.Query
	roles      injection.Roles

	rangeSets []types.RangeSet
	trees     []engine.Tree
	valid     bool
	children  map[string]NodeID

	// reusable holds while every change since the last parse was reported
	// through notifyBytes, so the trees can seed the next parse.
	reusable bool

	events events.Registry[Event]
}

func newForest(eng engine.Engine, source types.Source, opts ...Option) *Forest {
	f := &Forest{
		engine:      eng,
		source:      source,
		logger:      slog.Default(),
		root:        noParent,
		unavailable: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// newNode allocates a node for language. It starts invalid, without trees, range sets
// or children.
func (f *Forest) newNode(language string, parent NodeID) (NodeID, error) {
	parser, err := f.engine.NewParser(language)
	if err != nil {
		return 0, fmt.Errorf("creating parser for %s: %w", language, err)
	}

	query, err := f.engine.Query(language, engine.QueryInjections)
	if err != nil {
		parser.Close()
		return 0, fmt.Errorf("loading injection query for %s: %w", language, err)
	}

	n := &node{
		language:   language,
		parent:     parent,
		parser:     parser,
		injections: query,
		children:   make(map[string]NodeID),
	}
	if query != nil {
		names := make([]string, query.CaptureCount())
		for i := range names {
			names[i] = query.CaptureName(uint(i))
		}
		n.roles = injection.Classify(names)
	}

	var id NodeID
	if len(f.free) > 0 {
		id = f.free[len(f.free)-1]
		f.free = f.free[:len(f.free)-1]
		f.nodes[id] = n
	} else {
		id = NodeID(len(f.nodes))
		f.nodes = append(f.nodes, n)
	}

	f.nextGen++
	n.handle = &LanguageTree{forest: f, id: id, gen: f.nextGen, language: language}

	return id, nil
}

// get returns the live node at id, or nil.
func (f *Forest) get(id NodeID, gen uint64) *node {
	if id < 0 || int(id) >= len(f.nodes) {
		return nil
	}
	n := f.nodes[id]
	if n == nil || n.handle.gen != gen {
		return nil
	}
	return n
}

// childIDs returns the children of n ordered by language.
func childIDs(n *node) []NodeID {
	ids := make([]NodeID, 0, len(n.children))
	for _, language := range slices.Sorted(maps.Keys(n.children)) {
		ids = append(ids, n.children[language])
	}
	return ids
}

func (f *Forest) invalidate(id NodeID) {
	n := f.nodes[id]
	n.valid = false
	for _, child := range n.children {
		f.invalidate(child)
	}
}

// discard invalidates id and its descendants for a change the trees were not
// edited for, so the next parse starts without prior trees.
func (f *Forest) discard(id NodeID) {
	n := f.nodes[id]
	n.valid = false
	n.reusable = false
	for _, child := range n.children {
		f.discard(child)
	}
}

func (f *Forest) setIncludedRanges(id NodeID, rangeSets []types.RangeSet) {
	sets := make([]types.RangeSet, len(rangeSets))
	for i, set := range rangeSets {
		sets[i] = slices.Clone(set)
	}
	f.nodes[id].rangeSets = sets
	f.invalidate(id)
}

// editTrees applies edit to the trees and included ranges of id and its descendants.
func (f *Forest) editTrees(id NodeID, edit types.InputEdit) {
	n := f.nodes[id]
	for _, tree := range n.trees {
		tree.Edit(edit)
	}
	for _, set := range n.rangeSets {
		for i := range set {
			set[i] = set[i].Edit(edit)
		}
	}
	for _, child := range n.children {
		f.editTrees(child, edit)
	}
}

func (f *Forest) notifyBytes(id NodeID, edit types.InputEdit) {
	f.invalidate(id)
	f.editTrees(id, edit)
	f.nodes[id].events.Emit(EventBytes{Edit: edit})
}

// addChild creates the node for an injected language under parent.
// Languages that cannot be loaded are logged once and skipped.
func (f *Forest) addChild(ctx context.Context, parent NodeID, language string) (NodeID, bool) {
	id, err := f.newNode(language, parent)
	if err != nil {
		if !f.unavailable[language] {
			f.unavailable[language] = true
			f.logger.Warn("injected language unavailable",
				slog.String("language", language),
				slog.String("parent", f.nodes[parent].language),
				slog.Any("error", err))
		} else {
			f.logger.Debug("skipping unavailable injected language",
				slog.String("language", language))
		}
		return 0, false
	}

	p := f.nodes[parent]
	p.children[language] = id
	recordChild(ctx, language, true)
	f.logger.Debug("injected language added",
		slog.String("language", language),
		slog.String("parent", p.language))

	p.events.Emit(EventChildAdded{Child: f.nodes[id].handle})
	return id, true
}

// removeChild destroys the child of parent for language and all of its descendants.
func (f *Forest) removeChild(ctx context.Context, parent NodeID, language string) {
	p := f.nodes[parent]
	id, ok := p.children[language]
	if !ok {
		return
	}

	delete(p.children, language)
	handle := f.nodes[id].handle
	f.destroy(id)
	recordChild(ctx, language, false)
	f.logger.Debug("injected language removed",
		slog.String("language", language),
		slog.String("parent", p.language))

	p.events.Emit(EventChildRemoved{Child: handle})
}

// destroy frees id after destroying its descendants.
func (f *Forest) destroy(id NodeID) {
	n := f.nodes[id]
	for _, child := range childIDs(n) {
		f.destroy(child)
	}
	n.children = nil

	closeTrees(n.trees)
	n.trees = nil
	n.reusable = false
	n.parser.Close()
	n.events.Clear()

	f.nodes[id] = nil
	f.free = append(f.free, id)
	f.generation++
	if id == f.root {
		f.root = noParent
	}
}

func closeTrees(trees []engine.Tree) {
	for _, tree := range trees {
		tree.Close()
	}
}
