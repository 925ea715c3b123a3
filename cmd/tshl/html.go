package main

import (
	"fmt"
	"io"

	highlight "github.com/noclaps/go-tree-sitter-langtree"
)

const htmlFooter = "</code></pre>\n</body>\n</html>\n"

func writeHTMLHeader(w io.Writer, theme highlight.Theme, prefix string) error {
	if _, err := fmt.Fprint(w, "<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<style>\n"); err != nil {
		return err
	}
	if err := highlight.RenderCSS(w, theme, prefix); err != nil {
		return err
	}
	_, err := fmt.Fprint(w, "</style>\n</head>\n<body>\n<pre><code>")
	return err
}
