package treesitter

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noclaps/go-tree-sitter-langtree/engine"
	"github.com/noclaps/go-tree-sitter-langtree/internal/queries"
	"github.com/noclaps/go-tree-sitter-langtree/languagetree"
	"github.com/noclaps/go-tree-sitter-langtree/types"
)

const source = "package main\n" +
	"\n" +
	"const snippet = `package inner\n" +
	"\n" +
	"func f() {}\n" +
	"`\n" +
	"\n" +
	"func main() {}\n"

func newEngine(t *testing.T) *Engine {
	t.Helper()
	e := New(queries.Go()...)
	t.Cleanup(e.Close)
	return e
}

func parse(t *testing.T, e *Engine, lang string, text []byte, old engine.Tree) (engine.Tree, []types.Range) {
	t.Helper()
	p, err := e.NewParser(lang)
	require.NoError(t, err)
	defer p.Close()

	require.NoError(t, p.SetIncludedRanges(nil))
	tree, changes, err := p.Parse(old, text)
	require.NoError(t, err)
	return tree, changes
}

func TestEngine_UnavailableLanguage(t *testing.T) {
	e := newEngine(t)

	_, err := e.NewParser("python")
	require.ErrorIs(t, err, engine.ErrUnavailableLanguage)

	_, err = e.Query("python", engine.QueryHighlights)
	require.ErrorIs(t, err, engine.ErrUnavailableLanguage)

	assert.ElementsMatch(t, []string{"go", queries.GoSnippet}, e.Languages())
}

func TestEngine_Query(t *testing.T) {
	e := newEngine(t)

	q, err := e.Query("go", engine.QueryHighlights)
	require.NoError(t, err)
	require.NotNil(t, q)

	again, err := e.Query("go", engine.QueryHighlights)
	require.NoError(t, err)
	assert.Same(t, q, again)

	injections, err := e.Query(queries.GoSnippet, engine.QueryInjections)
	require.NoError(t, err)
	assert.Nil(t, injections)

	_, err = e.Query("go", "folds")
	require.Error(t, err)
}

func TestParser_Parse(t *testing.T) {
	e := newEngine(t)
	text := []byte(source)

	tree, changes := parse(t, e, "go", text, nil)
	defer tree.Close()

	root := tree.RootNode()
	assert.Equal(t, "source_file", root.Kind())
	require.Len(t, changes, 1)
	assert.Equal(t, root.Range(), changes[0])
}

func TestParser_Reparse(t *testing.T) {
	e := newEngine(t)
	buf := types.NewBuffer([]byte(source))

	old, _ := parse(t, e, "go", buf.Bytes(), nil)
	defer old.Close()

	start := uint(strings.Index(source, "main() {}"))
	edit := buf.Replace(start, start+4, []byte("run"))
	old.Edit(edit)

	tree, _ := parse(t, e, "go", buf.Bytes(), old)
	defer tree.Close()

	assert.Equal(t, "source_file", tree.RootNode().Kind())
	assert.Equal(t, uint(len(buf.Bytes())), tree.RootNode().Range().EndByte)
}

func TestQuery_Captures(t *testing.T) {
	e := newEngine(t)
	text := []byte(source)

	tree, _ := parse(t, e, "go", text, nil)
	defer tree.Close()

	q, err := e.Query("go", engine.QueryHighlights)
	require.NoError(t, err)

	captures := q.Captures(tree.RootNode(), text, 7, 7)
	defer captures.Close()

	var got []string
	for {
		c, ok := captures.Next()
		if !ok {
			break
		}
		r := c.Node.Range()
		got = append(got, q.CaptureName(c.Index)+":"+string(text[r.StartByte:r.EndByte]))
	}

	assert.Contains(t, got, "keyword:func")
	assert.Contains(t, got, "function:main")
	for _, g := range got {
		assert.NotContains(t, g, "package")
	}

	_, ok := captures.Next()
	assert.False(t, ok)
}

func TestQuery_Settings(t *testing.T) {
	e := newEngine(t)

	q, err := e.Query("go", engine.QueryInjections)
	require.NoError(t, err)
	require.NotNil(t, q)

	assert.Equal(t, "injection.content", q.CaptureName(0))
	assert.Equal(t, uint(1), q.CaptureCount())
	assert.Equal(t, map[string]string{"injection.language": queries.GoSnippet}, q.Settings(0))
	assert.Nil(t, q.Settings(5))
}

func TestEngine_LanguageTree(t *testing.T) {
	e := newEngine(t)
	buf := types.NewBuffer([]byte(source))

	tree, err := languagetree.New(e, buf, "go")
	require.NoError(t, err)
	defer tree.Destroy()

	_, changes, err := tree.Parse(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, changes)

	snippet, ok := tree.Child(queries.GoSnippet)
	require.True(t, ok)

	ranges := snippet.IncludedRanges()
	require.Len(t, ranges, 1)
	require.Len(t, ranges[0], 1)
	assert.Equal(t, uint(2), ranges[0][0].StartPoint.Row)
	assert.Equal(t, uint(5), ranges[0][0].EndPoint.Row)

	trees := snippet.Trees()
	require.Len(t, trees, 1)
	assert.Equal(t, "source_file", trees[0].RootNode().Kind())

	start := uint(strings.Index(source, "func main"))
	tree.NotifyBytes(buf.Replace(start, start, []byte("var x = 1\n\n")))

	_, _, err = tree.Parse(context.Background())
	require.NoError(t, err)
	again, ok := tree.Child(queries.GoSnippet)
	require.True(t, ok)
	assert.Same(t, snippet, again)
}

func TestEngine_LanguageTreeReplacedSource(t *testing.T) {
	e := newEngine(t)
	buf := types.NewBuffer([]byte("package main\n\nvar x = 1\n"))

	tree, err := languagetree.New(e, buf, "go")
	require.NoError(t, err)
	defer tree.Destroy()

	_, _, err = tree.Parse(context.Background())
	require.NoError(t, err)

	// the content changes without an edit being reported
	buf.Set([]byte("package main\n\nfunc f() {}\n"))
	tree.Invalidate()

	trees, _, err := tree.Parse(context.Background())
	require.NoError(t, err)
	require.Len(t, trees, 1)

	fresh, _ := parse(t, e, "go", buf.Bytes(), nil)
	defer fresh.Close()

	got := trees[0].RootNode().(*Node).Raw().ToSexp()
	assert.Equal(t, fresh.RootNode().(*Node).Raw().ToSexp(), got)
	assert.Contains(t, got, "function_declaration")
}
