package namespace

import (
	"slices"
	"strings"

	"github.com/Sumatoshi-tech/squeaky/pkg/selector"
	"github.com/Sumatoshi-tech/squeaky/pkg/stylesheet"
)

// Duplicate is a base class that received more than one namespace.
type Duplicate struct {
	Base  string   `json:"base"  yaml:"base"`
	Names []string `json:"names" yaml:"names"`
}

// DuplicateBases groups the namespaced classes of sheet by base name and
// returns the bases with more than one distinct namespaced name, sorted.
func DuplicateBases(sheet *stylesheet.Sheet) []Duplicate {
	byBase := make(map[string][]string)

	for _, rule := range sheet.Rules() {
		for _, sel := range rule.Selectors {
			for _, name := range selector.ClassNames(sel) {
				if !selector.IsNamespaced(name) {
					continue
				}

				base := selector.BaseName(name)
				if !slices.Contains(byBase[base], name) {
					byBase[base] = append(byBase[base], name)
				}
			}
		}
	}

	var out []Duplicate

	for base, names := range byBase {
		if len(names) < 2 {
			continue
		}

		slices.Sort(names)
		out = append(out, Duplicate{Base: base, Names: names})
	}

	slices.SortFunc(out, func(a, b Duplicate) int { return strings.Compare(a.Base, b.Base) })

	return out
}
