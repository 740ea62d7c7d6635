package selector

import (
	"strings"

	"github.com/Sumatoshi-tech/squeaky/pkg/stylesheet"
)

// FullSelectors returns the fully-qualified selectors of rule: the cartesian
// product of the selector lists from the outermost styled ancestor down to the
// rule, each combination joined by a single space. The walk stops at the first
// ancestor without selectors (an at-rule or the root).
func FullSelectors(rule *stylesheet.Rule) []string {
	var levels [][]string

	for cur := rule; cur != nil && cur.IsStyle(); cur = cur.Parent {
		levels = append(levels, cur.Selectors)
	}

	if len(levels) == 0 {
		return nil
	}

	product := []string{""}

	for i := len(levels) - 1; i >= 0; i-- {
		next := make([]string, 0, len(product)*len(levels[i]))

		for _, prefix := range product {
			for _, sel := range levels[i] {
				next = append(next, prefix+" "+sel)
			}
		}

		product = next
	}

	for i, sel := range product {
		product[i] = strings.TrimSpace(sel)
	}

	return product
}
