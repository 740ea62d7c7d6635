// Package stylesheet models an SCSS/CSS document as a tree of rules and
// renders in-place edits back into the original source text.
package stylesheet

import (
	"errors"
	"slices"
	"sort"
	"strings"
)

// ErrParse is returned when the source contains syntax the parser rejects.
var ErrParse = errors.New("stylesheet parse error")

// Sheet is a parsed stylesheet. Edits made to its rules are spliced back into
// the original bytes by Render, so untouched regions stay byte-identical.
type Sheet struct {
	// Path identifies the stylesheet on disk.
	Path string

	// Root holds top-level declarations (SCSS variables) and rules.
	Root *Rule

	// Recovered lists the spans skipped because the grammar rejected them.
	Recovered []Recovery

	src []byte
}

// Source returns the original text the sheet was parsed from.
func (s *Sheet) Source() []byte {
	return s.src
}

// Rule is a style rule or an at-rule block. At-rules and the root carry no
// selectors and terminate ancestor walks.
type Rule struct {
	// Selectors are the comma-separated alternatives, trimmed.
	Selectors []string

	// AtRule is the prelude of an at-rule block (e.g. "@media print").
	AtRule string

	Declarations []*Declaration
	Comments     []*Comment
	Children     []*Rule

	// Parent is the enclosing rule; nil for the root.
	Parent *Rule

	// Line and Column are 1-based positions of the rule start.
	Line   int
	Column int

	// Block is the raw text of the declaration block including braces.
	Block string

	origSelectors []string
	separator     string
	selStart      int
	selEnd        int
}

// Declaration is a property/value pair.
type Declaration struct {
	Property  string
	Value     string
	Important bool

	// Line is the 1-based line of the declaration.
	Line int

	origValue     string
	origImportant bool
	valStart      int
	valEnd        int
}

// Comment is a block or line comment inside a rule.
type Comment struct {
	Text string
	Line int
}

// IsStyle reports whether the rule has selectors.
func (r *Rule) IsStyle() bool {
	return len(r.Selectors) > 0
}

// IsLeaf reports whether the rule has no nested rules.
func (r *Rule) IsLeaf() bool {
	return len(r.Children) == 0
}

// SelectorText returns the selector list joined the way it appears in source.
func (r *Rule) SelectorText() string {
	sep := r.separator
	if sep == "" {
		sep = ", "
	}

	return strings.Join(r.Selectors, sep)
}

// HasComment reports whether any comment inside the rule contains marker.
func (r *Rule) HasComment(marker string) bool {
	for _, c := range r.Comments {
		if strings.Contains(c.Text, marker) {
			return true
		}
	}

	return false
}

// Rules returns every style rule in document order (parents before children).
func (s *Sheet) Rules() []*Rule {
	var out []*Rule

	var walk func(r *Rule)
	walk = func(r *Rule) {
		if r.IsStyle() {
			out = append(out, r)
		}

		for _, child := range r.Children {
			walk(child)
		}
	}

	walk(s.Root)

	return out
}

// Declarations returns all declarations in document order, root first.
func (s *Sheet) Declarations() []*Declaration {
	var out []*Declaration

	var walk func(r *Rule)
	walk = func(r *Rule) {
		out = append(out, r.Declarations...)

		for _, child := range r.Children {
			walk(child)
		}
	}

	walk(s.Root)

	return out
}

type edit struct {
	start, end int
	text       string
}

// Render returns the source with every selector, value and importance change
// applied. A sheet without changes renders to its original bytes.
func (s *Sheet) Render() []byte {
	var edits []edit

	var collect func(r *Rule)
	collect = func(r *Rule) {
		if r.IsStyle() && !slices.Equal(r.Selectors, r.origSelectors) {
			edits = append(edits, edit{start: r.selStart, end: r.selEnd, text: r.SelectorText()})
		}

		for _, d := range r.Declarations {
			if d.Value != d.origValue {
				edits = append(edits, edit{start: d.valStart, end: d.valEnd, text: d.Value})
			}

			if d.Important && !d.origImportant {
				edits = append(edits, edit{start: d.valEnd, end: d.valEnd, text: " !important"})
			}
		}

		for _, child := range r.Children {
			collect(child)
		}
	}

	collect(s.Root)

	if len(edits) == 0 {
		return slices.Clone(s.src)
	}

	sort.SliceStable(edits, func(i, j int) bool { return edits[i].start < edits[j].start })

	var b strings.Builder

	b.Grow(len(s.src))

	last := 0

	for _, e := range edits {
		b.Write(s.src[last:e.start])
		b.WriteString(e.text)
		last = e.end
	}

	b.Write(s.src[last:])

	return []byte(b.String())
}

// Changed reports whether Render would differ from the source.
func (s *Sheet) Changed() bool {
	return string(s.Render()) != string(s.src)
}

// SplitSelectors splits a selector list on top-level commas, ignoring commas
// nested in parentheses, brackets, interpolation or quotes. It also returns
// the first separator seen so edits can be joined back the same way.
func SplitSelectors(list string) ([]string, string) {
	var (
		parts     []string
		separator string
		depth     int
		quote     byte
		start     int
	)

	for i := 0; i < len(list); i++ {
		ch := list[i]

		switch {
		case quote != 0:
			if ch == '\\' {
				i++
			} else if ch == quote {
				quote = 0
			}
		case ch == '"' || ch == '\'':
			quote = ch
		case ch == '(' || ch == '[' || ch == '{':
			depth++
		case ch == ')' || ch == ']' || ch == '}':
			depth--
		case ch == ',' && depth == 0:
			parts = append(parts, strings.TrimSpace(list[start:i]))

			end := i + 1
			for end < len(list) && isSpace(list[end]) {
				end++
			}

			if separator == "" {
				separator = list[i:end]
			}

			start = i + 1
		}
	}

	if last := strings.TrimSpace(list[start:]); last != "" || len(parts) > 0 {
		parts = append(parts, last)
	}

	return parts, separator
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == '\f'
}
