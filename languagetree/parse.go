package languagetree

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/noclaps/go-tree-sitter-langtree/engine"
	"github.com/noclaps/go-tree-sitter-langtree/internal/injection"
	"github.com/noclaps/go-tree-sitter-langtree/types"
)

// parse brings id and its descendants up to date with the source and returns the
// trees of id along with the ranges that changed, descendants included.
func (f *Forest) parse(ctx context.Context, id NodeID) ([]engine.Tree, []types.Range, error) {
	n := f.nodes[id]
	if n.valid {
		return slices.Clone(n.trees), nil, nil
	}

	ctx, span := startParseSpan(ctx, n.language, len(n.rangeSets))
	defer span.End()

	start := time.Now()
	source := f.source.Bytes()

	rangeSets := n.rangeSets
	if len(rangeSets) == 0 {
		rangeSets = []types.RangeSet{nil}
	}

	trees := make([]engine.Tree, 0, len(rangeSets))
	var changes []types.Range
	for i, ranges := range rangeSets {
		if err := n.parser.SetIncludedRanges(ranges); err != nil {
			closeTrees(trees)
			span.RecordError(err)
			recordParse(ctx, n.language, time.Since(start), false)
			return nil, nil, fmt.Errorf("setting included ranges for %s: %w", n.language, err)
		}

		// the edited prior tree of the same range set lets the parser reuse what the
		// edits left untouched
		var old engine.Tree
		if n.reusable && i < len(n.trees) {
			old = n.trees[i]
		}

		tree, treeChanges, err := n.parser.Parse(old, source)
		if err != nil {
			closeTrees(trees)
			span.RecordError(err)
			recordParse(ctx, n.language, time.Since(start), false)
			return nil, nil, fmt.Errorf("parsing %s: %w", n.language, err)
		}
		trees = append(trees, tree)
		changes = append(changes, treeChanges...)
	}

	for _, old := range n.trees {
		if !slices.Contains(trees, old) {
			old.Close()
		}
	}
	n.trees = trees
	n.reusable = true
	f.generation++
	recordParse(ctx, n.language, time.Since(start), true)

	injections := f.injections(ctx, n, source)
	seen := make(map[string]bool, len(injections))
	for _, inj := range injections {
		childID, ok := n.children[inj.Language]
		if !ok {
			if childID, ok = f.addChild(ctx, id, inj.Language); !ok {
				continue
			}
		}
		seen[inj.Language] = true

		f.setIncludedRanges(childID, inj.RangeSets)
		_, childChanges, err := f.parse(ctx, childID)
		if err != nil {
			span.RecordError(err)
			return nil, nil, err
		}
		changes = append(changes, childChanges...)
	}

	for _, language := range slices.Sorted(maps.Keys(n.children)) {
		if !seen[language] {
			f.removeChild(ctx, id, language)
		}
	}

	n.valid = true
	n.events.Emit(EventChangedTree{Changes: changes, Trees: slices.Clone(n.trees)})

	return slices.Clone(n.trees), changes, nil
}

// injections runs the injection query of n over its trees.
func (f *Forest) injections(ctx context.Context, n *node, source []byte) []injection.Injection {
	if n.injections == nil {
		return nil
	}

	collector := injection.NewCollector(n.roles, n.rangeSets)
	for i, tree := range n.trees {
		root := tree.RootNode()
		r := root.Range()

		matches := n.injections.Matches(root, source, r.StartPoint.Row, r.EndPoint.Row)
		for {
			match, ok := matches.Next()
			if !ok {
				break
			}

			if err := collector.Add(i, match, n.injections.Settings(match.Pattern), source); err != nil {
				recordMalformedMatch(ctx, n.language)
				f.logger.Debug("skipping injection match",
					slog.String("language", n.language),
					slog.Int("tree", i),
					slog.Any("error", err))
			}
		}
		matches.Close()
	}

	return collector.Injections()
}
