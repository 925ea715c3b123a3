package highlight

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/noclaps/go-tree-sitter-langtree/internal/html"
)

// AttributeCallback returns the html element attributes for a highlighted span.
// This can be anything from classes, ids, or inline styles.
type AttributeCallback func(group Group, language string) []byte

// ClassAttributes returns an AttributeCallback setting a class made of prefix and the
// lower-cased group, e.g. class="hl-keyword".
func ClassAttributes(prefix string) AttributeCallback {
	return func(group Group, _ string) []byte {
		return []byte(`class="` + className(prefix, group) + `"`)
	}
}

func className(prefix string, group Group) string {
	return prefix + strings.ToLower(string(group))
}

// RenderHTML renders source to the writer with a span for each highlighted run.
// Spans never cross lines.
func RenderHTML(w io.Writer, source []byte, annotations []Annotation, callback AttributeCallback) error {
	hw := html.NewWriter(w)

	for _, r := range runs(source, annotations) {
		err := lines(source[r.start:r.end], func(line []byte, newline bool) error {
			if len(line) > 0 {
				if r.group != NoGroup {
					var attributes []byte
					if callback != nil {
						attributes = callback(r.group, r.language)
					}
					if err := hw.StartSpan(attributes); err != nil {
						return err
					}
				}
				if err := hw.Text(line); err != nil {
					return err
				}
				if r.group != NoGroup {
					if err := hw.EndSpan(); err != nil {
						return err
					}
				}
			}
			if newline {
				return hw.Text([]byte("\n"))
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("error while rendering: %w", err)
		}
	}

	return nil
}

// RenderCSS writes a CSS rule for every style of theme, using the classes of
// ClassAttributes(prefix).
func RenderCSS(w io.Writer, theme Theme, prefix string) error {
	groups := make([]Group, 0, len(theme.Styles))
	for group := range theme.Styles {
		groups = append(groups, group)
	}
	slices.Sort(groups)

	for _, group := range groups {
		if _, err := fmt.Fprintf(w, ".%s { %s }\n", className(prefix, group), theme.Styles[group].CSS()); err != nil {
			return fmt.Errorf("error while rendering css: %w", err)
		}
	}
	return nil
}
