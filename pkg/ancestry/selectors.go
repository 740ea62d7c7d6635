// Package ancestry finds the namespaced ancestors of leaf selectors and
// drives the whitelist heuristic from the leaves up.
package ancestry

import (
	"regexp"
	"slices"
	"strings"

	"github.com/Sumatoshi-tech/squeaky/pkg/selector"
	"github.com/Sumatoshi-tech/squeaky/pkg/stylesheet"
)

var (
	siblingCombinator = regexp.MustCompile(`[~+]`)
	leadingSibling    = regexp.MustCompile(`(.+?)[+~]`)
	pseudoSuffix      = regexp.MustCompile(`:not\(.+?\)|:\w+$`)
	nonClassChars     = regexp.MustCompile(`[^\w.-]`)
	classSelector     = regexp.MustCompile(`\.[\w-]+`)
	namespacedClass   = regexp.MustCompile(`\.([\w-]+sqkd[\w-]+)`)
	parentPseudo      = regexp.MustCompile(`^&(?:\s+?[~+]|:\w+)`)
	parentReference   = regexp.MustCompile(`\s&`)
)

// SingleSelectors returns the chained namespaced classes of the most specific
// namespaced compound of sel, without pseudo selectors. Each side of a
// sibling combinator is handled separately.
func SingleSelectors(sel string) []string {
	if siblingCombinator.MatchString(sel) {
		var out []string

		for _, side := range siblingCombinator.Split(sel, -1) {
			out = append(out, SingleSelectors(lastNamespaced(strings.Split(side, " ")))...)
		}

		return out
	}

	compound := pseudoSuffix.ReplaceAllString(lastNamespaced(strings.Split(sel, " ")), "")

	var out []string

	for part := range strings.SplitSeq(compound, ".") {
		if part != "" && selector.IsNamespaced(part) {
			out = append(out, nonClassChars.ReplaceAllString("."+part, ""))
		}
	}

	return out
}

// ClassSelectors returns every class selector of the namespaced compounds in
// sels, dropping tags attached to them.
func ClassSelectors(sels []string) []string {
	var out []string

	for _, sel := range uniq(sels) {
		for part := range strings.SplitSeq(sel, " ") {
			if selector.IsNamespaced(part) {
				out = append(out, classSelector.FindAllString(part, -1)...)
			}
		}
	}

	return out
}

// RelatedSelectors climbs `&` parent references from rule and returns the
// namespaced classes they resolve to, nearest first. `&.x` keeps climbing,
// `& ~ x`, `& + x` and `&:pseudo` are parsed in place and keep climbing, and
// any other shape with a namespaced descendant stops the climb. The rule the
// climb ends on contributes its own selectors.
func RelatedSelectors(rule *stylesheet.Rule) []string {
	var found []string

	cur := rule

	for cur != nil && cur.IsStyle() && strings.Contains(cur.SelectorText(), "&") && selector.IsNamespaced(cur.SelectorText()) {
		checkParent := false
		terminated := false

		for _, sel := range selector.Namespaced(cur.Selectors) {
			switch {
			case strings.HasPrefix(sel, "&.") && !strings.Contains(sel, " "):
				found = append(found, namespacedClass.FindAllString(sel, -1)...)
				checkParent = true
			case parentPseudo.MatchString(sel):
				found = append(found, SingleSelectors(sel)...)
				checkParent = true
			default:
				descendants := SingleSelectors(sel)
				if len(descendants) > 0 {
					found = append(found, descendants...)
					terminated = true
				} else {
					checkParent = true
				}
			}
		}

		if terminated {
			cur = nil

			break
		}

		if !checkParent {
			break
		}

		cur = cur.Parent
	}

	if cur != nil && cur.IsStyle() {
		for _, sel := range cur.Selectors {
			found = append(found, SingleSelectors(sel)...)
		}
	}

	return uniq(slices.DeleteFunc(found, func(s string) bool { return s == "" }))
}

// Ancestors returns the class selectors of the nearest namespaced ancestor
// of leaf in each full selector.
func Ancestors(leaf string, full []string) []string {
	var out []string

	for _, sel := range full {
		collapsed := parentReference.ReplaceAllString(sel, "")

		trimmed := collapsed + " .foo"

		sibling := leadingSibling.FindStringSubmatch(collapsed)
		if sibling != nil {
			trimmed = sibling[1]
		}

		parts := strings.Split(strings.TrimSpace(trimmed), " ")
		ancestors := selector.Namespaced(parts[:len(parts)-1])

		var nearest string

		switch {
		case len(ancestors) > 1 && sibling != nil:
			nearest = ancestors[len(ancestors)-1]
		case len(ancestors) > 1:
			if until := ancestorsUntil(leaf, ancestors); len(until) > 0 {
				nearest = until[len(until)-1]
			}
		case len(ancestors) == 1 && sibling != nil:
			nearest = ancestors[0]
		}

		if nearest != "" {
			out = append(out, ClassSelectors(SingleSelectors(nearest))...)
		}
	}

	return uniq(out)
}

// ancestorsUntil trims parts at the first entry containing sel.
func ancestorsUntil(sel string, parts []string) []string {
	idx := max(0, slices.IndexFunc(parts, func(p string) bool { return strings.Contains(p, sel) }))

	return parts[:idx]
}

func lastNamespaced(parts []string) string {
	namespaced := selector.Namespaced(parts)
	if len(namespaced) == 0 {
		return ""
	}

	return namespaced[len(namespaced)-1]
}

// uniq drops repeated entries, keeping the first occurrence.
func uniq(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))

	for _, item := range items {
		if _, dup := seen[item]; dup {
			continue
		}

		seen[item] = struct{}{}
		out = append(out, item)
	}

	return out
}
