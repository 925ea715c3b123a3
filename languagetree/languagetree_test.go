package languagetree

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/noclaps/go-tree-sitter-langtree/engine"
	"github.com/noclaps/go-tree-sitter-langtree/internal/enginetest"
	"github.com/noclaps/go-tree-sitter-langtree/types"
)

func newTestEngine() *enginetest.Engine {
	return enginetest.New().
		Define("host", enginetest.Language{
			Injections: []enginetest.Pattern{
				{Regexp: `(?s)\[\[\n(?P<embedded>.*?)\n\]\]`},
				{Regexp: `(?s)~~~(?P<injection__language>\w+)\n(?P<injection__content>.*?)~~~`},
				{Regexp: `%(?P<injection__language>\w+) (?P<injection__content>[^\n]*)`, Settings: map[string]string{"injection.combined": ""}},
				{Regexp: `@(?P<injection__language>\w+) (?P<injection__content>[^\n]*)`},
				{Regexp: `!(?P<injection__content>\w+)`},
				{Regexp: `\$(?P<injection__content>\w+)`, Settings: map[string]string{"injection.language": "vim"}},
			},
		}).
		Define("lua", enginetest.Language{
			Injections: []enginetest.Pattern{
				{Regexp: `\{(?P<vim>[^}]*)\}`},
			},
		}).
		Define("vim", enginetest.Language{}).
		Define("embedded", enginetest.Language{})
}

func newTestTree(t *testing.T, eng engine.Engine, source string) (*LanguageTree, *types.Buffer) {
	t.Helper()
	buf := types.NewBuffer([]byte(source))
	tree, err := New(eng, buf, "host", WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)
	t.Cleanup(tree.Destroy)
	return tree, buf
}

func mustParse(t *testing.T, tree *LanguageTree) ([]engine.Tree, []types.Range) {
	t.Helper()
	trees, changes, err := tree.Parse(context.Background())
	require.NoError(t, err)
	return trees, changes
}

func TestNew_UnavailableLanguage(t *testing.T) {
	_, err := New(newTestEngine(), types.NewBuffer(nil), "python")
	require.ErrorIs(t, err, engine.ErrUnavailableLanguage)
}

func TestNew_StartsInvalid(t *testing.T) {
	tree, _ := newTestTree(t, newTestEngine(), "plain\n")

	assert.False(t, tree.IsValid())
	assert.Empty(t, tree.Trees())
	assert.Empty(t, tree.Children())
	assert.Equal(t, "host", tree.Lang())
	_, ok := tree.Parent()
	assert.False(t, ok)
}

func TestLanguageTree_Parse(t *testing.T) {
	eng := newTestEngine()
	tree, _ := newTestTree(t, eng, "a\n~~~lua\nx {set}\n~~~\n")

	trees, changes := mustParse(t, tree)
	require.Len(t, trees, 1)
	assert.NotEmpty(t, changes)
	assert.True(t, tree.IsValid())

	lua, ok := tree.Child("lua")
	require.True(t, ok)
	assert.True(t, lua.IsValid())
	parent, ok := lua.Parent()
	require.True(t, ok)
	assert.Same(t, tree, parent)

	vim, ok := lua.Child("vim")
	require.True(t, ok)
	ranges := vim.IncludedRanges()
	require.Len(t, ranges, 1)
	require.Len(t, ranges[0], 1)
	assert.Equal(t, uint(12), ranges[0][0].StartByte)
	assert.Equal(t, uint(15), ranges[0][0].EndByte)

	assert.Equal(t, 3, eng.Stats.Parses)
}

func TestLanguageTree_ParseIdempotent(t *testing.T) {
	eng := newTestEngine()
	tree, _ := newTestTree(t, eng, "a\n~~~lua\nx {set}\n~~~\n")

	first, _ := mustParse(t, tree)
	parses := eng.Stats.Parses
	generation := tree.Generation()

	second, changes := mustParse(t, tree)
	assert.Equal(t, first, second)
	assert.Empty(t, changes)
	assert.Equal(t, parses, eng.Stats.Parses)
	assert.Equal(t, generation, tree.Generation())
}

func TestLanguageTree_ParseError(t *testing.T) {
	eng := newTestEngine()
	eng.FailParse["lua"] = true
	tree, _ := newTestTree(t, eng, "~~~lua\nx\n~~~\n")

	_, _, err := tree.Parse(context.Background())
	require.ErrorIs(t, err, enginetest.ErrParse)
	assert.False(t, tree.IsValid())

	delete(eng.FailParse, "lua")
	mustParse(t, tree)
	assert.True(t, tree.IsValid())
}

func TestLanguageTree_Invalidate(t *testing.T) {
	tree, _ := newTestTree(t, newTestEngine(), "~~~lua\nx {set}\n~~~\n")
	mustParse(t, tree)

	lua, _ := tree.Child("lua")
	vim, _ := lua.Child("vim")

	lua.Invalidate()
	assert.True(t, tree.IsValid())
	assert.False(t, lua.IsValid())
	assert.False(t, vim.IsValid())

	lua.Invalidate()
	assert.False(t, lua.IsValid())

	tree.Invalidate()
	assert.False(t, tree.IsValid())

	mustParse(t, tree)
	assert.True(t, tree.IsValid())
	assert.True(t, lua.IsValid())
	assert.True(t, vim.IsValid())
}

func TestLanguageTree_InvalidateParsesFromScratch(t *testing.T) {
	eng := newTestEngine()
	tree, buf := newTestTree(t, eng, "~~~lua\nx\n~~~\n")
	mustParse(t, tree)

	buf.Set([]byte("~~~lua\nyy\n~~~\n"))
	tree.Invalidate()
	tree.NotifyBytes(buf.Replace(0, 0, []byte("a\n")))
	trees, _ := mustParse(t, tree)
	assert.False(t, trees[0].(*enginetest.Tree).Reused)
	assert.Zero(t, eng.Stats.ReusedTrees)

	lua, ok := tree.Child("lua")
	require.True(t, ok)
	assert.False(t, lua.Trees()[0].(*enginetest.Tree).Reused)

	// reported edits keep the next parse incremental
	tree.NotifyBytes(buf.Replace(0, 1, []byte("b")))
	trees, _ = mustParse(t, tree)
	assert.True(t, trees[0].(*enginetest.Tree).Reused)
	assert.True(t, lua.Trees()[0].(*enginetest.Tree).Reused)
}

func TestLanguageTree_ChildAddedStartsInvalid(t *testing.T) {
	tree, _ := newTestTree(t, newTestEngine(), "~~~lua\nx\n~~~\n")

	var added []*LanguageTree
	tree.RegisterCallbacks(Callbacks{
		OnChildAdded: func(child *LanguageTree) {
			assert.False(t, child.IsValid())
			assert.Empty(t, child.Trees())
			got, ok := tree.Child(child.Lang())
			assert.True(t, ok)
			assert.Same(t, child, got)
			added = append(added, child)
		},
	})

	mustParse(t, tree)
	require.Len(t, added, 1)
	assert.Equal(t, "lua", added[0].Lang())
}

func TestLanguageTree_InvalidationProperty(t *testing.T) {
	fragments := []string{
		"plain\n",
		"~~~lua\nx {set}\n~~~\n",
		"@lua a\n",
		"%vim b\n",
		"[[\nq\n]]\n",
		"$word\n",
	}

	rapid.Check(t, func(rt *rapid.T) {
		parts := rapid.SliceOfN(rapid.SampledFrom(fragments), 1, 8).Draw(rt, "fragments")

		tree, err := New(newTestEngine(), types.NewBuffer([]byte(strings.Join(parts, ""))), "host",
			WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
		if err != nil {
			rt.Fatalf("new: %v", err)
		}
		defer tree.Destroy()

		if _, _, err := tree.Parse(context.Background()); err != nil {
			rt.Fatalf("parse: %v", err)
		}

		var handles []*LanguageTree
		collectHandles(tree, &handles)
		target := handles[rapid.IntRange(0, len(handles)-1).Draw(rt, "target")]

		target.Invalidate()
		var descendants []*LanguageTree
		collectHandles(target, &descendants)
		for _, d := range descendants {
			if d.IsValid() {
				rt.Fatalf("%s valid after invalidating %s", d.Lang(), target.Lang())
			}
		}
		for p, ok := target.Parent(); ok; p, ok = p.Parent() {
			if !p.IsValid() {
				rt.Fatalf("ancestor %s invalidated", p.Lang())
			}
		}

		if _, _, err := tree.Parse(context.Background()); err != nil {
			rt.Fatalf("reparse: %v", err)
		}
		_, changes, err := tree.Parse(context.Background())
		if err != nil {
			rt.Fatalf("reparse: %v", err)
		}
		if len(changes) != 0 {
			rt.Fatalf("second parse reported %d changes", len(changes))
		}
	})
}

func collectHandles(tree *LanguageTree, handles *[]*LanguageTree) {
	*handles = append(*handles, tree)
	for _, child := range tree.Children() {
		collectHandles(child, handles)
	}
}

func TestLanguageTree_ChildRemoved(t *testing.T) {
	tree, buf := newTestTree(t, newTestEngine(), "~~~lua\nx {set}\n~~~\n")

	var removed []*LanguageTree
	tree.RegisterCallbacks(Callbacks{
		OnChildRemoved: func(child *LanguageTree) {
			_, ok := tree.Child(child.Lang())
			assert.False(t, ok)
			removed = append(removed, child)
		},
	})

	mustParse(t, tree)
	lua, _ := tree.Child("lua")
	vim, _ := lua.Child("vim")

	tree.NotifyBytes(buf.Replace(0, uint(len(buf.Bytes())), []byte("plain\n")))
	mustParse(t, tree)

	require.Len(t, removed, 1)
	assert.Same(t, lua, removed[0])
	assert.False(t, lua.Alive())
	assert.False(t, vim.Alive())
	assert.Empty(t, tree.Children())

	tree.Invalidate()
	mustParse(t, tree)
	assert.Len(t, removed, 1)
}

func TestLanguageTree_EditOutsideInjection(t *testing.T) {
	tree, buf := newTestTree(t, newTestEngine(), "title\nintro\n[[\nalpha\nbeta\ngamma\n]]\n")

	var added, removed int
	tree.RegisterCallbacks(Callbacks{
		OnChildAdded:   func(*LanguageTree) { added++ },
		OnChildRemoved: func(*LanguageTree) { removed++ },
	})

	mustParse(t, tree)
	require.Equal(t, 1, added)

	embedded, ok := tree.Child("embedded")
	require.True(t, ok)
	ranges := embedded.IncludedRanges()
	require.Len(t, ranges, 1)
	require.Len(t, ranges[0], 1)
	assert.Equal(t, uint(3), ranges[0][0].StartPoint.Row)
	assert.Equal(t, uint(5), ranges[0][0].EndPoint.Row)

	tree.NotifyBytes(buf.Replace(0, 5, []byte("Title!")))
	assert.False(t, tree.IsValid())
	assert.False(t, embedded.IsValid())

	mustParse(t, tree)
	assert.Equal(t, 1, added)
	assert.Equal(t, 0, removed)
	assert.True(t, embedded.Alive())

	ranges = embedded.IncludedRanges()
	require.Len(t, ranges, 1)
	require.Len(t, ranges[0], 1)
	assert.Equal(t, uint(3), ranges[0][0].StartPoint.Row)
	assert.Equal(t, uint(5), ranges[0][0].EndPoint.Row)
	assert.Equal(t, uint(16), ranges[0][0].StartByte)
}

func TestLanguageTree_CombinedInjection(t *testing.T) {
	tree, _ := newTestTree(t, newTestEngine(), "%lua a\n%lua b\n")
	mustParse(t, tree)

	lua, ok := tree.Child("lua")
	require.True(t, ok)
	ranges := lua.IncludedRanges()
	require.Len(t, ranges, 1)
	require.Len(t, ranges[0], 2)
	assert.Less(t, ranges[0][0].StartByte, ranges[0][1].StartByte)
	assert.Len(t, lua.Trees(), 1)
}

func TestLanguageTree_IsolatedInjection(t *testing.T) {
	tree, _ := newTestTree(t, newTestEngine(), "@lua a\n@lua b\n")
	mustParse(t, tree)

	lua, ok := tree.Child("lua")
	require.True(t, ok)
	ranges := lua.IncludedRanges()
	require.Len(t, ranges, 2)
	assert.Len(t, ranges[0], 1)
	assert.Len(t, ranges[1], 1)
	assert.Len(t, lua.Trees(), 2)
}

func TestLanguageTree_CombinedInjectionPerTree(t *testing.T) {
	source := []byte("%lua a\n%lua b\n")
	tree, _ := newTestTree(t, newTestEngine(), string(source))
	tree.SetIncludedRanges([]types.RangeSet{
		{types.RangeOf(source, 0, 7)},
		{types.RangeOf(source, 7, 14)},
	})

	trees, _ := mustParse(t, tree)
	require.Len(t, trees, 2)

	lua, ok := tree.Child("lua")
	require.True(t, ok)
	assert.Len(t, lua.IncludedRanges(), 2)
}

func TestLanguageTree_UnavailableInjectedLanguage(t *testing.T) {
	var logs bytes.Buffer
	buf := types.NewBuffer([]byte("~~~python\nx\n~~~\n@lua a\n"))
	tree, err := New(newTestEngine(), buf, "host",
		WithLogger(slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))))
	require.NoError(t, err)
	defer tree.Destroy()

	mustParse(t, tree)
	tree.Invalidate()
	mustParse(t, tree)

	_, ok := tree.Child("python")
	assert.False(t, ok)
	_, ok = tree.Child("lua")
	assert.True(t, ok)
	assert.Equal(t, 1, strings.Count(logs.String(), "injected language unavailable"))
}

func TestLanguageTree_MalformedMatchSkipped(t *testing.T) {
	tree, _ := newTestTree(t, newTestEngine(), "!orphan\n$word\n")
	mustParse(t, tree)

	children := tree.Children()
	require.Len(t, children, 1)
	vim, ok := children["vim"]
	require.True(t, ok)
	assert.Len(t, vim.IncludedRanges(), 1)
}

func TestLanguageTree_NotifyBytes(t *testing.T) {
	eng := newTestEngine()
	tree, buf := newTestTree(t, eng, "~~~lua\nx\n~~~\n")
	first, _ := mustParse(t, tree)
	lua, _ := tree.Child("lua")
	luaFirst := lua.Trees()

	var edits []types.InputEdit
	tree.RegisterCallbacks(Callbacks{
		OnBytes: func(edit types.InputEdit) {
			assert.False(t, tree.IsValid())
			assert.Len(t, first[0].(*enginetest.Tree).Edits, 1)
			assert.Len(t, luaFirst[0].(*enginetest.Tree).Edits, 1)
			edits = append(edits, edit)
		},
	})

	edit := buf.Replace(7, 8, []byte("yy"))
	tree.NotifyBytes(edit)
	require.Equal(t, []types.InputEdit{edit}, edits)

	second, changes := mustParse(t, tree)
	assert.NotEmpty(t, changes)
	assert.True(t, second[0].(*enginetest.Tree).Reused)
	assert.True(t, first[0].(*enginetest.Tree).Closed)

	luaSecond := lua.Trees()
	require.Len(t, luaSecond, 1)
	assert.True(t, luaSecond[0].(*enginetest.Tree).Reused)
	assert.Equal(t, []types.RangeSet{{types.RangeOf(buf.Bytes(), 7, 10)}}, lua.IncludedRanges())
}

func TestLanguageTree_CallbackOrder(t *testing.T) {
	tree, _ := newTestTree(t, newTestEngine(), "~~~lua\nx\n~~~\n")
	mustParse(t, tree)
	lua, _ := tree.Child("lua")

	var order []string
	tree.RegisterCallbacks(Callbacks{
		OnChangedTree: func([]types.Range, []engine.Tree) {
			assert.True(t, tree.IsValid())
			order = append(order, "host")
		},
	})
	remove := lua.RegisterCallbacks(Callbacks{
		OnChangedTree: func([]types.Range, []engine.Tree) {
			assert.True(t, lua.IsValid())
			order = append(order, "lua")
		},
	})
	tree.Subscribe(func(e Event) {
		if _, ok := e.(EventChangedTree); ok {
			order = append(order, "event")
		}
	})

	tree.Invalidate()
	mustParse(t, tree)
	assert.Equal(t, []string{"lua", "host", "event"}, order)

	remove()
	remove()
	order = nil
	tree.Invalidate()
	mustParse(t, tree)
	assert.Equal(t, []string{"host", "event"}, order)
}

func TestLanguageTree_AllTrees(t *testing.T) {
	tree, _ := newTestTree(t, newTestEngine(), "@vim a\n~~~lua\nx {set}\n~~~\n")
	mustParse(t, tree)

	var langs []string
	for _, owner := range tree.AllTrees() {
		langs = append(langs, owner.Lang())
	}
	assert.Equal(t, []string{"host", "lua", "vim", "vim"}, langs)

	for range tree.AllTrees() {
		break
	}
}

func TestLanguageTree_LanguageFor(t *testing.T) {
	source := []byte("a\n~~~lua\nx {set}\n~~~\n")
	tree, _ := newTestTree(t, newTestEngine(), string(source))
	mustParse(t, tree)

	assert.Equal(t, "vim", tree.LanguageFor(types.RangeOf(source, 12, 15)).Lang())
	assert.Equal(t, "lua", tree.LanguageFor(types.RangeOf(source, 9, 10)).Lang())
	assert.Equal(t, "host", tree.LanguageFor(types.RangeOf(source, 0, 1)).Lang())
}

func TestLanguageTree_Destroy(t *testing.T) {
	eng := newTestEngine()
	buf := types.NewBuffer([]byte("~~~lua\nx {set}\n~~~\n"))
	tree, err := New(eng, buf, "host")
	require.NoError(t, err)
	mustParse(t, tree)

	lua, _ := tree.Child("lua")
	vim, _ := lua.Child("vim")

	tree.Destroy()
	assert.False(t, tree.Alive())
	assert.False(t, lua.Alive())
	assert.False(t, vim.Alive())
	assert.Equal(t, 3, eng.Stats.ClosedTrees)

	_, _, err = tree.Parse(context.Background())
	require.ErrorIs(t, err, ErrDestroyed)
	_, _, err = vim.Parse(context.Background())
	require.ErrorIs(t, err, ErrDestroyed)

	tree.Invalidate()
	tree.NotifyBytes(types.InputEdit{})
	tree.Destroy()
	assert.Nil(t, tree.Trees())
}

func TestLanguageTree_DestroyChild(t *testing.T) {
	tree, _ := newTestTree(t, newTestEngine(), "~~~lua\nx\n~~~\n")
	mustParse(t, tree)

	var removed []string
	tree.RegisterCallbacks(Callbacks{
		OnChildRemoved: func(child *LanguageTree) { removed = append(removed, child.Lang()) },
	})

	lua, _ := tree.Child("lua")
	generation := tree.Generation()
	lua.Destroy()
	assert.Equal(t, []string{"lua"}, removed)
	assert.Greater(t, tree.Generation(), generation)
	assert.False(t, lua.Alive())
	assert.True(t, tree.Alive())

	tree.Invalidate()
	mustParse(t, tree)
	again, ok := tree.Child("lua")
	require.True(t, ok)
	assert.NotSame(t, lua, again)
	assert.False(t, lua.Alive())
}
