// Package injection turns the matches of an injection query into the range sets each
// injected language has to be parsed over.
package injection

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/noclaps/go-tree-sitter-langtree/engine"
	"github.com/noclaps/go-tree-sitter-langtree/types"
)

// ErrMalformedMatch is returned for a match that names no language or marks no content.
var ErrMalformedMatch = errors.New("malformed injection match")

// Injection is one language and the range sets it is injected into.
type Injection struct {
	Language  string
	RangeSets []types.RangeSet
}

type groupKey struct {
	tree     int
	language string
	pattern  uint
}

type group struct {
	combined bool
	// content holds the pieces of every content node, one entry per node.
	content [][]types.Range
}

// Collector groups injection matches by tree, language and pattern.
type Collector struct {
	roles   Roles
	parents []types.RangeSet
	groups  map[groupKey]*group
	order   []groupKey
}

// NewCollector creates a Collector for matches of a query with the given capture roles.
// parents holds the included ranges of each tree matches are collected from; content
// nodes are clipped to them. A nil entry includes the whole source.
func NewCollector(roles Roles, parents []types.RangeSet) *Collector {
	return &Collector{
		roles:   roles,
		parents: parents,
		groups:  make(map[groupKey]*group),
	}
}

// Add records a match found in the tree at index tree.
// settings are the properties of the match's pattern.
func (c *Collector) Add(tree int, match engine.Match, settings map[string]string, source []byte) error {
	var (
		language         string
		inferredLanguage string
		content          *types.Range
		inferredContent  *types.Range
		combined         bool
	)

	for _, capture := range match.Captures {
		r := capture.Node.Range()
		switch c.roles.Role(capture.Index) {
		case RoleLanguage:
			language = nodeText(source, r)
		case RoleCombined:
			combined = true
		case RoleContent:
			content = &r
		case RoleOther:
			if inferredLanguage == "" {
				inferredLanguage = c.roles.Name(capture.Index)
			}
			if inferredContent == nil {
				inferredContent = &r
			}
		}
	}

	if language == "" {
		language = settings[PropertyLanguage]
	}
	if language == "" {
		language = inferredLanguage
	}
	if content == nil {
		content = inferredContent
	}
	if _, ok := settings[PropertyCombined]; ok {
		combined = true
	}

	if language == "" || content == nil {
		return fmt.Errorf("%w: pattern %d", ErrMalformedMatch, match.Pattern)
	}

	var parent types.RangeSet
	if tree < len(c.parents) {
		parent = c.parents[tree]
	}
	pieces := Intersect(parent, *content)
	if len(pieces) == 0 {
		return nil
	}

	key := groupKey{tree: tree, language: language, pattern: match.Pattern}
	g, ok := c.groups[key]
	if !ok {
		g = &group{}
		c.groups[key] = g
		c.order = append(c.order, key)
	}
	g.combined = g.combined || combined
	g.content = append(g.content, pieces)

	return nil
}

// Injections returns the collected injections, languages in order of first appearance.
func (c *Collector) Injections() []Injection {
	var result []Injection
	byLanguage := make(map[string]int)

	for _, key := range c.order {
		g := c.groups[key]

		i, ok := byLanguage[key.language]
		if !ok {
			i = len(result)
			byLanguage[key.language] = i
			result = append(result, Injection{Language: key.language})
		}

		if g.combined {
			var set types.RangeSet
			for _, pieces := range g.content {
				set = append(set, pieces...)
			}
			slices.SortStableFunc(set, func(a, b types.Range) int {
				return cmp.Compare(a.StartByte, b.StartByte)
			})
			set = slices.Compact(set)
			result[i].RangeSets = append(result[i].RangeSets, set)
			continue
		}

		for _, pieces := range g.content {
			result[i].RangeSets = append(result[i].RangeSets, types.RangeSet(pieces))
		}
	}

	return result
}

// Intersect clips r to the ranges of parent, returning the pieces of r that lie
// within them. A nil parent includes everything.
func Intersect(parent types.RangeSet, r types.Range) []types.Range {
	if parent == nil {
		return []types.Range{r}
	}

	var result []types.Range
	for _, p := range parent {
		if p.EndByte <= r.StartByte || r.EndByte <= p.StartByte {
			continue
		}

		piece := r
		if p.StartByte > piece.StartByte {
			piece.StartByte = p.StartByte
			piece.StartPoint = p.StartPoint
		}
		if p.EndByte < piece.EndByte {
			piece.EndByte = p.EndByte
			piece.EndPoint = p.EndPoint
		}
		result = append(result, piece)
	}

	return result
}

func nodeText(source []byte, r types.Range) string {
	if r.StartByte > r.EndByte || r.EndByte > uint(len(source)) {
		return ""
	}
	return strings.TrimSpace(string(source[r.StartByte:r.EndByte]))
}
