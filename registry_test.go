package highlight

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noclaps/go-tree-sitter-langtree/internal/enginetest"
	"github.com/noclaps/go-tree-sitter-langtree/languagetree"
	"github.com/noclaps/go-tree-sitter-langtree/types"
)

func newRegistryTree(t *testing.T, eng *enginetest.Engine, source string) *languagetree.LanguageTree {
	t.Helper()
	tree, err := languagetree.New(eng, types.NewBuffer([]byte(source)), "host", languagetree.WithLogger(discardLogger()))
	require.NoError(t, err)
	t.Cleanup(tree.Destroy)
	return tree
}

func TestRegistry_AttachReplaces(t *testing.T) {
	eng := newTestEngine()
	tree := newRegistryTree(t, eng, testSource)
	r := NewRegistry[string](eng, WithLogger(discardLogger()))
	t.Cleanup(r.Close)

	firstHost := &LineHost{}
	first, err := r.Attach(context.Background(), "a", tree, firstHost)
	require.NoError(t, err)
	second, err := r.Attach(context.Background(), "a", tree, &LineHost{})
	require.NoError(t, err)

	assert.Equal(t, 1, r.Len())
	got, ok := r.Get("a")
	require.True(t, ok)
	assert.Same(t, second, got)

	// the replaced highlighter no longer reaches its host
	first.OnLine(0)
	assert.Empty(t, firstHost.Annotations())
	assert.Same(t, tree, second.Tree())
}

func TestRegistry_Detach(t *testing.T) {
	eng := newTestEngine()
	r := NewRegistry[int](eng, WithLogger(discardLogger()))
	t.Cleanup(r.Close)

	for target := range 3 {
		_, err := r.Attach(context.Background(), target, newRegistryTree(t, eng, testSource), &LineHost{})
		require.NoError(t, err)
	}
	assert.Equal(t, 3, r.Len())

	assert.True(t, r.Detach(1))
	assert.False(t, r.Detach(1))
	_, ok := r.Get(1)
	assert.False(t, ok)
	assert.Equal(t, 2, r.Len())

	h, ok := r.Get(2)
	require.True(t, ok)
	h.Destroy()
	assert.Equal(t, 1, r.Len())

	r.Close()
	assert.Zero(t, r.Len())
}

func TestRegistry_AttachDestroyedTree(t *testing.T) {
	eng := newTestEngine()
	tree := newRegistryTree(t, eng, testSource)
	tree.Destroy()

	r := NewRegistry[string](eng)
	_, err := r.Attach(context.Background(), "a", tree, &LineHost{})
	require.ErrorIs(t, err, languagetree.ErrDestroyed)
	assert.Zero(t, r.Len())
}

func TestRegistry_AttachParseError(t *testing.T) {
	eng := newTestEngine()
	eng.FailParse["lua"] = true
	tree := newRegistryTree(t, eng, testSource)

	r := NewRegistry[string](eng, WithLogger(discardLogger()))
	_, err := r.Attach(context.Background(), "a", tree, &LineHost{})
	require.ErrorIs(t, err, enginetest.ErrParse)
	assert.Zero(t, r.Len())
}

func TestRegistry_Options(t *testing.T) {
	eng := newTestEngine()
	queries := NewQueryCache(eng, nil, 0, nil)

	r := NewRegistry[string](eng, WithQueryCache(queries), WithLogger(nil))
	assert.Same(t, queries, r.Queries())

	r = NewRegistry[string](eng, WithGroups(GroupTable{"keyword": "Statement"}))
	q, err := r.Queries().Get("host")
	require.NoError(t, err)
	assert.Equal(t, Group("Statement"), q.Group(0))
}
