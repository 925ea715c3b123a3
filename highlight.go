package highlight

import (
	"context"
	"log/slog"

	"github.com/noclaps/go-tree-sitter-langtree/engine"
	"github.com/noclaps/go-tree-sitter-langtree/languagetree"
	"github.com/noclaps/go-tree-sitter-langtree/types"
)

// iterState is the resumable position of the highlight query in one tree.
type iterState struct {
	language string
	query    *Query
	// nextRow is the first row the next pull may be needed for.
	nextRow  uint
	captures engine.Captures
	done     bool
}

func (s *iterState) close() {
	if s.captures != nil {
		s.captures.Close()
		s.captures = nil
	}
}

// Highlighter annotates the lines of one source as they are rendered. Within a redraw
// epoch it resumes the capture iterator of every tree where the previous line left
// it, so highlighting a whole epoch pulls every capture once.
// It is not safe for concurrent use.
type Highlighter struct {
	tree    *languagetree.LanguageTree
	host    Host
	queries *QueryCache
	logger  *slog.Logger

	states     map[engine.Tree]*iterState
	generation uint64
	failed     map[string]bool

	unregister func()
	detach     func()
	destroyed  bool
}

func newHighlighter(tree *languagetree.LanguageTree, host Host, queries *QueryCache, logger *slog.Logger) *Highlighter {
	h := &Highlighter{
		tree:    tree,
		host:    host,
		queries: queries,
		logger:  logger,
		states:  make(map[engine.Tree]*iterState),
		failed:  make(map[string]bool),
		detach:  func() {},
	}
	h.unregister = tree.RegisterCallbacks(languagetree.Callbacks{
		OnChangedTree: h.onChangedTree,
	})
	return h
}

// Tree returns the root language tree.
func (h *Highlighter) Tree() *languagetree.LanguageTree {
	return h.tree
}

func (h *Highlighter) onChangedTree(changes []types.Range, _ []engine.Tree) {
	for _, change := range changes {
		h.host.Redraw(change.StartPoint.Row, change.EndPoint.Row)
	}
}

// OnRedrawEpochStart parses the forest if it is out of date and discards every
// iteration state. Call it before the first OnLine of a redraw.
func (h *Highlighter) OnRedrawEpochStart(ctx context.Context) error {
	if h.destroyed {
		return languagetree.ErrDestroyed
	}

	ctx, span := startEpochSpan(ctx, h.tree.Lang())
	defer span.End()

	_, _, err := h.tree.Parse(ctx)
	h.reset()
	if err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// OnSourceChanged marks the forest out of date for a change that was not reported
// as an edit. It is parsed again from scratch at the start of the next epoch.
func (h *Highlighter) OnSourceChanged() {
	if h.destroyed {
		return
	}
	h.tree.Invalidate()
}

// OnLine sets the annotations of every capture overlapping line that has not been
// set yet in this epoch.
func (h *Highlighter) OnLine(line uint) {
	if h.destroyed || !h.tree.Alive() {
		return
	}
	if generation := h.tree.Generation(); generation != h.generation {
		h.pruneStale()
		h.generation = generation
	}

	source := h.tree.Source().Bytes()
	pulls := 0
	for tree, owner := range h.tree.AllTrees() {
		root := tree.RootNode()
		r := root.Range()
		if !r.ContainsRow(line) {
			continue
		}

		state := h.state(tree, owner.Lang())
		if state.done {
			continue
		}
		if state.captures == nil {
			state.captures = state.query.Engine().Captures(root, source, line, r.EndPoint.Row)
		}
		pulls += h.advance(state, line)
	}
	recordLine(context.Background(), pulls)
}

// state returns the iteration state of tree, creating it on first use in the epoch.
func (h *Highlighter) state(tree engine.Tree, language string) *iterState {
	if state, ok := h.states[tree]; ok {
		return state
	}

	state := &iterState{language: language, query: h.query(language)}
	if state.query == nil {
		state.done = true
	}
	h.states[tree] = state
	return state
}

// advance pulls captures until one starts after line and returns the number of pulls.
func (h *Highlighter) advance(state *iterState, line uint) int {
	pulls := 0
	for state.nextRow <= line {
		capture, ok := state.captures.Next()
		pulls++
		if !ok {
			state.done = true
			state.close()
			break
		}

		r := capture.Node.Range()
		group := state.query.Group(capture.Index)
		if r.EndPoint.Row >= line && group != NoGroup {
			h.host.SetHighlight(Annotation{
				Range:     r,
				Group:     group,
				Language:  state.language,
				Ephemeral: true,
			})
		}
		if r.StartPoint.Row > line {
			state.nextRow = r.StartPoint.Row
			break
		}
	}
	return pulls
}

func (h *Highlighter) query(language string) *Query {
	q, err := h.queries.Get(language)
	if err != nil {
		if !h.failed[language] {
			h.failed[language] = true
			h.logger.Warn("highlight query unavailable",
				slog.String("language", language),
				slog.Any("error", err))
		}
		return nil
	}
	return q
}

// pruneStale drops the states of trees that are no longer part of the forest.
func (h *Highlighter) pruneStale() {
	live := make(map[engine.Tree]bool, len(h.states))
	for tree := range h.tree.AllTrees() {
		live[tree] = true
	}

	for tree, state := range h.states {
		if live[tree] {
			continue
		}
		h.logger.Debug("dropping iteration state",
			slog.String("language", state.language),
			slog.Any("error", ErrStaleIterator))
		recordStaleIterator(context.Background(), state.language)
		state.close()
		delete(h.states, tree)
	}
}

func (h *Highlighter) reset() {
	for tree, state := range h.states {
		state.close()
		delete(h.states, tree)
	}
	h.generation = h.tree.Generation()
}

// Destroy unregisters the highlighter from its tree and its registry.
func (h *Highlighter) Destroy() {
	if h.destroyed {
		return
	}
	h.destroyed = true
	h.unregister()
	for tree, state := range h.states {
		state.close()
		delete(h.states, tree)
	}
	h.detach()
}
