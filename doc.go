/*
Package highlight highlights source incrementally via [tree-sitter](https://github.com/tree-sitter/tree-sitter),
one line at a time, including the languages injected into it.

# Usage

Highlighting is driven by the renderer of the source. Create a [languagetree.LanguageTree]
for the source and attach it to a [Registry], together with the [Host] annotations are
reported to. Then, for every redraw, call [Highlighter.OnRedrawEpochStart] followed by
[Highlighter.OnLine] for each line being rendered. Lines are expected in increasing order
within a redraw; every capture of the highlight queries is then pulled at most once.

	eng := treesitter.New(queries.Go()...)
	defer eng.Close()

	buf := types.NewBuffer(source)
	tree, err := languagetree.New(eng, buf, "go")
	if err != nil {
		log.Fatal(err)
	}
	defer tree.Destroy()

	registry := highlight.NewRegistry[string](eng)
	defer registry.Close()

	host := &highlight.LineHost{}
	highlighter, err := registry.Attach(context.Background(), "main.go", tree, host)
	if err != nil {
		log.Fatal(err)
	}

	if err := highlighter.OnRedrawEpochStart(context.Background()); err != nil {
		log.Fatal(err)
	}
	for line := range uint(bytes.Count(source, []byte("\n")) + 1) {
		highlighter.OnLine(line)
	}

	for _, a := range host.Annotations() {
		log.Printf("%d-%d: %s (%s)", a.Range.StartByte, a.Range.EndByte, a.Group, a.Language)
	}

When the source changes, report the edit with [languagetree.LanguageTree.NotifyBytes]
and redraw the rows the host was asked to. A change that cannot be described as an
edit is reported with [Highlighter.OnSourceChanged] instead.

The collected annotations can be rendered with [RenderHTML] or [RenderANSI].
*/
package highlight
