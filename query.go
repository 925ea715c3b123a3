package highlight

import (
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/noclaps/go-tree-sitter-langtree/engine"
)

// Group names the display attributes of a highlighted span, e.g. "Keyword".
type Group string

// NoGroup is resolved for captures that are not highlighted.
const NoGroup Group = ""

// GroupTable maps dotted capture names to groups.
type GroupTable map[string]Group

// DefaultGroups maps the capture names used by common highlight queries to groups.
var DefaultGroups = GroupTable{
	"attribute":             "PreProc",
	"boolean":               "Boolean",
	"character":             "Character",
	"comment":               "Comment",
	"conditional":           "Conditional",
	"constant":              "Constant",
	"constant.builtin":      "Special",
	"constructor":           "Special",
	"embedded":              "Normal",
	"escape":                "SpecialChar",
	"exception":             "Exception",
	"field":                 "Identifier",
	"float":                 "Float",
	"function":              "Function",
	"function.builtin":      "Special",
	"function.macro":        "Macro",
	"function.method":       "Function",
	"include":               "Include",
	"keyword":               "Keyword",
	"keyword.function":      "Keyword",
	"keyword.operator":      "Operator",
	"keyword.return":        "Keyword",
	"label":                 "Label",
	"method":                "Function",
	"module":                "Identifier",
	"namespace":             "Identifier",
	"number":                "Number",
	"operator":              "Operator",
	"parameter":             "Identifier",
	"property":              "Identifier",
	"punctuation.bracket":   "Delimiter",
	"punctuation.delimiter": "Delimiter",
	"punctuation.special":   "Delimiter",
	"repeat":                "Repeat",
	"string":                "String",
	"string.escape":         "SpecialChar",
	"string.regex":          "String",
	"string.special":        "SpecialChar",
	"tag":                   "Label",
	"text.emphasis":         "Italic",
	"text.strong":           "Bold",
	"text.title":            "Title",
	"text.uri":              "Underlined",
	"type":                  "Type",
	"type.builtin":          "Type",
	"variable":              "Identifier",
	"variable.builtin":      "Special",
}

// Query is the highlight query of one language. It resolves each capture to a
// group at most once. A Query is shared by the highlighters of its language and
// is safe for concurrent use.
type Query struct {
	language string
	query    engine.Query
	groups   GroupTable

	mu       sync.Mutex
	memo     []Group
	resolved []bool
	lookups  int
}

// NewQuery wraps the highlight query of language. A nil groups table uses DefaultGroups.
func NewQuery(language string, query engine.Query, groups GroupTable) *Query {
	if groups == nil {
		groups = DefaultGroups
	}
	count := query.CaptureCount()
	return &Query{
		language: language,
		query:    query,
		groups:   groups,
		memo:     make([]Group, count),
		resolved: make([]bool, count),
	}
}

// Language returns the language of the query.
func (q *Query) Language() string {
	return q.language
}

// Engine returns the wrapped query.
func (q *Query) Engine() engine.Query {
	return q.query
}

// Group returns the group a capture is highlighted with, or NoGroup.
//
// Capture names starting with an upper case letter name their group directly:
// @Keyword.go resolves to "Keyword". Other names are looked up as a whole in the
// group table.
func (q *Query) Group(index uint) Group {
	if index >= uint(len(q.memo)) {
		return NoGroup
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.resolved[index] {
		return q.memo[index]
	}

	q.lookups++
	group := resolveGroup(q.query.CaptureName(index), q.groups)
	q.memo[index] = group
	q.resolved[index] = true
	return group
}

// Lookups returns how many captures have been resolved so far.
func (q *Query) Lookups() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.lookups
}

func resolveGroup(name string, groups GroupTable) Group {
	if first, _ := utf8.DecodeRuneInString(name); unicode.IsUpper(first) {
		group, _, _ := strings.Cut(name, ".")
		return Group(group)
	}
	if group, ok := groups[name]; ok {
		return group
	}
	return NoGroup
}
