package highlight

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Style holds the display attributes of a group. Colors are CSS hex colors or ANSI
// color numbers.
type Style struct {
	Foreground string `yaml:"fg,omitempty"`
	Background string `yaml:"bg,omitempty"`
	Bold       bool   `yaml:"bold,omitempty"`
	Italic     bool   `yaml:"italic,omitempty"`
	Underline  bool   `yaml:"underline,omitempty"`
}

// CSS returns the style as CSS declarations.
func (s Style) CSS() string {
	var decls []string
	if s.Foreground != "" {
		decls = append(decls, "color: "+s.Foreground+";")
	}
	if s.Background != "" {
		decls = append(decls, "background-color: "+s.Background+";")
	}
	if s.Bold {
		decls = append(decls, "font-weight: bold;")
	}
	if s.Italic {
		decls = append(decls, "font-style: italic;")
	}
	if s.Underline {
		decls = append(decls, "text-decoration: underline;")
	}
	return strings.Join(decls, " ")
}

// Theme maps groups to styles.
type Theme struct {
	Name   string          `yaml:"name"`
	Styles map[Group]Style `yaml:"styles"`
}

// LoadTheme reads a YAML theme:
//
//	name: dark
//	styles:
//	  Keyword: {fg: "#A578EA", bold: true}
//	  String: {fg: "#B8E466"}
func LoadTheme(r io.Reader) (Theme, error) {
	var theme Theme
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&theme); err != nil {
		return Theme{}, fmt.Errorf("error decoding theme: %w", err)
	}
	if theme.Styles == nil {
		theme.Styles = make(map[Group]Style)
	}
	return theme, nil
}

// DefaultTheme returns the theme used when none is configured.
func DefaultTheme() Theme {
	return Theme{
		Name: "default",
		Styles: map[Group]Style{
			"Boolean":     {Foreground: "#F78C6C"},
			"Comment":     {Foreground: "#8A8A8A", Italic: true},
			"Constant":    {Foreground: "#F78C6C"},
			"Delimiter":   {Foreground: "#89DDFF"},
			"Function":    {Foreground: "#73FBF1"},
			"Identifier":  {Foreground: "#FEFEF8"},
			"Keyword":     {Foreground: "#A578EA"},
			"Number":      {Foreground: "#F78C6C"},
			"Operator":    {Foreground: "#89DDFF"},
			"Special":     {Foreground: "#FFCB6B"},
			"SpecialChar": {Foreground: "#FFCB6B"},
			"String":      {Foreground: "#B8E466"},
			"Type":        {Foreground: "#FFCB6B"},
		},
	}
}

// Style returns the style of group.
func (t Theme) Style(group Group) (Style, bool) {
	s, ok := t.Styles[group]
	return s, ok
}
