// Package selector scans CSS/SCSS selectors for class tokens and decides
// which selectors are eligible for namespacing.
package selector

import (
	"regexp"
	"strings"
)

const (
	// Marker separates a base class name from its namespace hash.
	Marker = "-sqkd-"

	// ExceptionMarker in a rule comment blocks the whole rule.
	ExceptionMarker = "squeaky-skip"
)

var (
	namespaceSuffix = regexp.MustCompile(`-sqkd-\w+`)
	leadingNumber   = regexp.MustCompile(`^\d+(\.\d+)?`)
)

// Token is a class token inside a selector. Start points at the dot and End
// just past the class name.
type Token struct {
	Name  string
	Start int
	End   int
}

// Classes returns the class tokens of sel in order. Dots inside attribute
// selectors, quoted strings and escapes are not class tokens.
func Classes(sel string) []Token {
	var (
		tokens  []Token
		bracket int
		quote   byte
	)

	for i := 0; i < len(sel); i++ {
		ch := sel[i]

		switch {
		case quote != 0:
			if ch == '\\' {
				i++
			} else if ch == quote {
				quote = 0
			}
		case ch == '\\':
			i++
		case ch == '"' || ch == '\'':
			quote = ch
		case ch == '[':
			bracket++
		case ch == ']':
			if bracket > 0 {
				bracket--
			}
		case ch == '.' && bracket == 0:
			end := i + 1
			for end < len(sel) && isNameChar(sel[end]) {
				end++
			}

			if end > i+1 {
				tokens = append(tokens, Token{Name: sel[i+1 : end], Start: i, End: end})
				i = end - 1
			}
		}
	}

	return tokens
}

// ClassNames returns the class names of sel without their leading dots.
func ClassNames(sel string) []string {
	tokens := Classes(sel)
	names := make([]string, 0, len(tokens))

	for _, tok := range tokens {
		names = append(names, tok.Name)
	}

	return names
}

// IsNamespaced reports whether s carries a namespace marker.
func IsNamespaced(s string) bool {
	return strings.Contains(s, Marker)
}

// BaseName strips every namespace suffix from a class name or selector.
func BaseName(s string) string {
	return namespaceSuffix.ReplaceAllString(s, "")
}

// BaseSelectors deduplicates class names, then strips their namespaces.
// Distinct namespaced names sharing a base therefore yield repeated bases.
func BaseSelectors(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))

	for _, name := range names {
		if _, dup := seen[name]; dup {
			continue
		}

		seen[name] = struct{}{}
		out = append(out, BaseName(name))
	}

	return out
}

// Namespaced filters sels down to the entries that carry a namespace marker.
func Namespaced(sels []string) []string {
	var out []string

	for _, sel := range sels {
		if IsNamespaced(sel) {
			out = append(out, sel)
		}
	}

	return out
}

// IsIgnored reports whether sel is outside the namespacing domain: SCSS
// interpolation, keyframe percentages and selectors without classes.
func IsIgnored(sel string) bool {
	return strings.Contains(sel, "#{") ||
		leadingNumber.MatchString(strings.TrimSpace(sel)) ||
		len(Classes(sel)) == 0
}

func isNameChar(ch byte) bool {
	return ch == '-' || ch == '_' ||
		(ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') ||
		ch >= 0x80
}
