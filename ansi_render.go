package highlight

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// RenderANSI renders source to the writer with terminal colors. The color profile
// is detected from w, so nothing but the source is written to non-terminals.
func RenderANSI(w io.Writer, source []byte, annotations []Annotation, theme Theme) error {
	renderer := lipgloss.NewRenderer(w)
	styles := make(map[Group]lipgloss.Style)

	for _, r := range runs(source, annotations) {
		style, ok := styles[r.group]
		if !ok {
			style = ansiStyle(renderer, theme, r.group)
			styles[r.group] = style
		}

		err := lines(source[r.start:r.end], func(line []byte, newline bool) error {
			if len(line) > 0 {
				if _, err := io.WriteString(w, style.Render(string(line))); err != nil {
					return err
				}
			}
			if newline {
				_, err := io.WriteString(w, "\n")
				return err
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("error while rendering: %w", err)
		}
	}

	return nil
}

func ansiStyle(renderer *lipgloss.Renderer, theme Theme, group Group) lipgloss.Style {
	style := renderer.NewStyle().TabWidth(lipgloss.NoTabConversion)

	s, ok := theme.Style(group)
	if !ok {
		return style
	}
	if s.Foreground != "" {
		style = style.Foreground(lipgloss.Color(s.Foreground))
	}
	if s.Background != "" {
		style = style.Background(lipgloss.Color(s.Background))
	}
	return style.Bold(s.Bold).Italic(s.Italic).Underline(s.Underline)
}
