// Package flatten rewrites a nested stylesheet into flat rules, each keyed on
// its most powerful namespaced selector.
package flatten

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/Sumatoshi-tech/squeaky/pkg/selector"
	"github.com/Sumatoshi-tech/squeaky/pkg/stylesheet"
)

var (
	classPattern = regexp.MustCompile(`\.[\w-]+`)
	negation     = regexp.MustCompile(`:not\(.+?\)`)
	sibling      = regexp.MustCompile(`[~+]`)
)

// Result is a flattened stylesheet.
type Result struct {
	// CSS is the flattened text.
	CSS string

	// TopLevel lists the namespaced classes that now start a selector.
	TopLevel []string
}

// Flatten emits every rule with declarations as a top-level rule. Each rule
// is prefixed with a comment holding the specificity of its original full
// selectors. Declarations of rules whose leaf compound carries a namespaced
// class are made important, so the shorter selector keeps winning.
func Flatten(sheet *stylesheet.Sheet) Result {
	var (
		blocks   []string
		topLevel []string
	)

	for _, rule := range sheet.Rules() {
		if len(rule.Declarations) == 0 {
			continue
		}

		full := selector.FullSelectors(rule)
		important := false

		var sels []string

		for _, sel := range full {
			flat, imp := flattenSelector(rule, sel)
			important = important || imp

			if !slices.Contains(sels, flat) {
				sels = append(sels, flat)
			}
		}

		for _, sel := range sels {
			topLevel = append(topLevel, topLevelClasses(sel)...)
		}

		blocks = append(blocks, wrap(rule, renderRule(sels, specificityComment(full), rule.Declarations, important)))
	}

	var unique []string

	for _, class := range topLevel {
		if !slices.Contains(unique, class) {
			unique = append(unique, class)
		}
	}

	css := strings.Join(blocks, "\n")
	if css != "" {
		css += "\n"
	}

	return Result{CSS: css, TopLevel: unique}
}

// flattenSelector trims a full selector and reports whether the rule's
// declarations must become important.
func flattenSelector(rule *stylesheet.Rule, full string) (string, bool) {
	if strings.Contains(full, "%") {
		for _, own := range rule.Selectors {
			if strings.HasSuffix(full, own) {
				return own, false
			}
		}

		return full, false
	}

	compounds := strings.Split(full, " ")
	leaf := compounds[len(compounds)-1]

	classes := classPattern.FindAllString(leaf, -1)
	if len(classes) > 0 && selector.IsNamespaced(leaf) && !strings.Contains(full, "~") {
		important := selector.IsNamespaced(negation.ReplaceAllString(leaf, ""))

		if len(classes) > 1 {
			return leaf, important
		}

		return classes[0], important
	}

	if !selector.IsNamespaced(full) {
		return full, false
	}

	return nearestAncestor(compounds), false
}

// nearestAncestor keeps the compounds from the nearest namespaced ancestor
// to the leaf. When the selector starts with a compound that is not
// namespaced, the ancestor is reduced to its first class.
func nearestAncestor(compounds []string) string {
	ancestors := compounds[:len(compounds)-1]

	for idx := len(ancestors) - 1; idx >= 0; idx-- {
		if !selector.IsNamespaced(ancestors[idx]) {
			continue
		}

		kept := slices.Clone(compounds[idx:])

		if !selector.IsNamespaced(compounds[0]) {
			if class := classPattern.FindString(kept[0]); class != "" {
				kept[0] = class
			}
		}

		return strings.Join(kept, " ")
	}

	return strings.Join(compounds, " ")
}

func topLevelClasses(sel string) []string {
	var out []string

	for _, compound := range strings.Fields(sibling.ReplaceAllString(sel, "")) {
		if !selector.IsNamespaced(compound) {
			continue
		}

		if class := classPattern.FindString(compound); class != "" {
			out = append(out, class)
		}
	}

	return out
}

func specificityComment(full []string) string {
	specs := make([]string, 0, len(full))
	for _, sel := range full {
		specs = append(specs, selector.Calculate(sel).String())
	}

	same := true

	for _, s := range specs {
		if s != specs[0] {
			same = false

			break
		}
	}

	if same && len(specs) > 0 {
		return fmt.Sprintf("Specificity: %s (%d) ", specs[0], len(specs))
	}

	return fmt.Sprintf("Specificity: %s ", strings.Join(specs, "; "))
}

func renderRule(sels []string, comment string, decls []*stylesheet.Declaration, important bool) string {
	var b strings.Builder

	b.WriteString(strings.Join(sels, ", "))
	b.WriteString(" {\n  /* ")
	b.WriteString(comment)
	b.WriteString(" */\n")

	for _, d := range decls {
		b.WriteString("  ")
		b.WriteString(d.Property)
		b.WriteString(": ")
		b.WriteString(d.Value)

		if important || d.Important {
			b.WriteString(" !important")
		}

		b.WriteString(";\n")
	}

	b.WriteString("}")

	return b.String()
}

// wrap nests text inside the at-rules enclosing rule, outermost first.
func wrap(rule *stylesheet.Rule, text string) string {
	for p := rule.Parent; p != nil; p = p.Parent {
		if p.AtRule == "" {
			continue
		}

		text = p.AtRule + " {\n" + text + "\n}"
	}

	return text
}
