// Package analytics tabulates how far a stylesheet has progressed through
// namespacing.
package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/Sumatoshi-tech/squeaky/pkg/search"
	"github.com/Sumatoshi-tech/squeaky/pkg/selector"
	"github.com/Sumatoshi-tech/squeaky/pkg/stylesheet"
)

var combinators = regexp.MustCompile(`[&~>$+]`)

// Stats counts the classes of one stylesheet.
type Stats struct {
	// All is the number of class tokens across every selector.
	All int `json:"all" yaml:"all"`

	// Clean is the number of namespaced base classes used in no stylesheet.
	Clean int `json:"clean" yaml:"clean"`

	// Total is the number of namespaced base classes.
	Total int `json:"total" yaml:"total"`
}

// Ready reports whether every namespaced class is clean.
func (s Stats) Ready() bool {
	return s.Clean == s.Total
}

// Analyzer collects Stats per stylesheet. It is not safe for concurrent use.
type Analyzer struct {
	searcher    search.Searcher
	stylesheets []string
	logger      *slog.Logger
	results     map[string]Stats
}

// NewAnalyzer creates an Analyzer checking base classes against stylesheets,
// a list of stylesheet files or directories.
func NewAnalyzer(searcher search.Searcher, stylesheets []string, logger *slog.Logger) *Analyzer {
	return &Analyzer{
		searcher:    searcher,
		stylesheets: stylesheets,
		logger:      logger,
		results:     make(map[string]Stats),
	}
}

// Results returns stylesheet path -> stats for every analyzed sheet.
func (a *Analyzer) Results() map[string]Stats {
	return a.results
}

// Analyze counts the classes of sheet and records the result under its path.
func (a *Analyzer) Analyze(ctx context.Context, sheet *stylesheet.Sheet) (Stats, error) {
	var stats Stats

	for _, rule := range sheet.Rules() {
		for _, sel := range rule.Selectors {
			if !strings.Contains(sel, ".") {
				continue
			}

			classes := collectClasses(sel)
			stats.All += len(classes)

			if !selector.IsNamespaced(sel) {
				continue
			}

			bases := selector.BaseSelectors(classes)
			stats.Total += len(bases)

			for _, base := range bases {
				clean, err := a.isClean(ctx, base)
				if err != nil {
					return Stats{}, err
				}

				if clean {
					stats.Clean++
				}
			}
		}
	}

	a.logger.InfoContext(ctx, "stylesheet stats",
		"path", sheet.Path, "all", stats.All, "clean", stats.Clean, "total", stats.Total)

	if stats.Ready() {
		a.logger.InfoContext(ctx, sheet.Path+" can proceed to phase 2")
	}

	a.results[sheet.Path] = stats

	return stats, nil
}

func (a *Analyzer) isClean(ctx context.Context, base string) (bool, error) {
	matches, err := a.searcher.Lines(ctx, search.Query{
		Pattern:    regexp.QuoteMeta(base) + `[[:space:]{,]`,
		IgnoreCase: true,
		Paths:      a.stylesheets,
	})
	if err != nil {
		return false, fmt.Errorf("search %s: %w", base, err)
	}

	if len(matches) == 0 {
		a.logger.DebugContext(ctx, "class is only used here", "class", base)

		return true, nil
	}

	files := make([]string, 0, len(matches))
	for _, m := range matches {
		files = append(files, m.Path)
	}

	a.logger.DebugContext(ctx, "class appears elsewhere", "class", base, "files", search.Unique(files))

	return false, nil
}

// collectClasses returns the class names of sel after dropping combinators
// and parent references. Ignored selectors have no classes.
func collectClasses(sel string) []string {
	stripped := strings.TrimSpace(combinators.ReplaceAllString(sel, ""))
	if selector.IsIgnored(stripped) {
		return nil
	}

	return selector.ClassNames(stripped)
}
