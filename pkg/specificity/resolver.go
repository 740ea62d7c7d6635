// Package specificity records competing declarations for namespaced base
// selectors and resolves which one wins.
package specificity

import (
	"log/slog"
	"math"
	"strings"

	"github.com/Sumatoshi-tech/squeaky/pkg/selector"
	"github.com/Sumatoshi-tech/squeaky/pkg/stylesheet"
)

// DefaultBuckets orders path fragments from lowest to highest precedence.
var DefaultBuckets = []string{
	"common/",
	"styleguide/layout",
	"reset",
	"helper",
	"styleguide/",
	"internal/",
	"backbone/",
	"stylesheets/",
	"javascripts/",
}

// DefaultExceptionBuckets add their score on top of the regular bucket.
var DefaultExceptionBuckets = []string{"styleguide/modules/tables/header-cell"}

// Candidate is one declaration competing for a (base selector, property) pair.
type Candidate struct {
	Value       string               `json:"value"       yaml:"value"`
	Important   bool                 `json:"important"   yaml:"important"`
	Source      string               `json:"source"      yaml:"source"`
	Specificity selector.Specificity `json:"specificity" yaml:"specificity"`
	File        string               `json:"file"        yaml:"file"`
	Line        int                  `json:"line"        yaml:"line"`
}

// Sighting is a declaration observed for a base selector.
type Sighting struct {
	Base     string
	Property string
	Candidate
}

// Conflict tracks the winning candidate and the history of losers.
type Conflict struct {
	MostSpecific Candidate   `json:"mostSpecific" yaml:"mostSpecific"`
	Values       []Candidate `json:"values"       yaml:"values"`
}

// Tie records two candidates of equal specificity and the one file
// precedence picked.
type Tie struct {
	Winner Candidate `json:"winner" yaml:"winner"`
	Loser  Candidate `json:"loser"  yaml:"loser"`
}

// Precedence scores stylesheet paths for tie breaks.
type Precedence struct {
	Buckets    []string
	Exceptions []string
}

// Score returns 10^(i+1) for the first bucket i contained in file, plus the
// same for the first matching exception bucket. Files in no bucket score 0.
func (p Precedence) Score(file string) int {
	return bucketScore(file, p.Buckets) + bucketScore(file, p.Exceptions)
}

func bucketScore(file string, buckets []string) int {
	for idx, bucket := range buckets {
		if strings.Contains(file, bucket) {
			return int(math.Pow10(idx + 1))
		}
	}

	return 0
}

// Resolver accumulates sightings over a run. It is single-writer: feed it one
// stylesheet at a time.
type Resolver struct {
	precedence Precedence
	logger     *slog.Logger

	first     map[string]map[string]Candidate
	conflicts map[string]map[string]*Conflict
	ties      map[string]Tie
}

// NewResolver creates an empty Resolver.
func NewResolver(precedence Precedence, logger *slog.Logger) *Resolver {
	return &Resolver{
		precedence: precedence,
		logger:     logger,
		first:      make(map[string]map[string]Candidate),
		conflicts:  make(map[string]map[string]*Conflict),
		ties:       make(map[string]Tie),
	}
}

// Conflicts returns base selector -> property -> conflict.
func (r *Resolver) Conflicts() map[string]map[string]*Conflict {
	return r.conflicts
}

// Ties returns base selector -> the last tie broken by file precedence.
func (r *Resolver) Ties() map[string]Tie {
	return r.ties
}

// Seed installs a known conflict, e.g. carried over from an earlier report.
func (r *Resolver) Seed(base, property string, c Candidate) {
	props := r.conflicts[base]
	if props == nil {
		props = make(map[string]*Conflict)
		r.conflicts[base] = props
	}

	props[property] = &Conflict{MostSpecific: c, Values: []Candidate{c}}
}

// Observe records one sighting. The first sighting per (base, property) is
// remembered; later sightings from a different full selector become conflicts.
func (r *Resolver) Observe(s Sighting) {
	props := r.first[s.Base]
	if props == nil {
		props = make(map[string]Candidate)
		r.first[s.Base] = props
	}

	prior, seen := props[s.Property]
	if !seen {
		props[s.Property] = s.Candidate

		return
	}

	if prior.Source == s.Source {
		return
	}

	r.logger.Info("conflict detected",
		"property", s.Property, "value", s.Value, "base", s.Base,
		"existing", prior.Value, "existing_source", prior.Source)

	conflicts := r.conflicts[s.Base]
	if conflicts == nil {
		conflicts = make(map[string]*Conflict)
		r.conflicts[s.Base] = conflicts
	}

	conflict, exists := conflicts[s.Property]
	if !exists {
		conflicts[s.Property] = &Conflict{
			MostSpecific: r.Resolve(s.Base, s.Candidate, prior),
			Values:       []Candidate{s.Candidate, prior},
		}

		return
	}

	conflict.MostSpecific = r.Resolve(s.Base, s.Candidate, conflict.MostSpecific)
	if conflict.MostSpecific.Source == s.Source {
		return
	}

	conflict.Values = append(conflict.Values, s.Candidate)
}

// Resolve picks the winner between a new and an old candidate. Importance
// decides when exactly one is important; otherwise the higher specificity
// wins, and equal specificity falls back to file precedence.
func (r *Resolver) Resolve(base string, newer, older Candidate) Candidate {
	if newer.Important != older.Important {
		if newer.Important {
			return newer
		}

		return older
	}

	switch newer.Specificity.Compare(older.Specificity) {
	case 1:
		return newer
	case -1:
		return older
	}

	winner, loser := newer, older
	if r.precedes(older, newer) {
		winner, loser = older, newer
	}

	r.ties[base] = Tie{Winner: winner, Loser: loser}

	return winner
}

// precedes reports whether a beats b on file precedence: higher bucket score,
// then the lexicographically later path, then the later line in one file.
func (r *Resolver) precedes(a, b Candidate) bool {
	if a.File == b.File {
		return a.Line > b.Line
	}

	scoreA, scoreB := r.precedence.Score(a.File), r.precedence.Score(b.File)
	if scoreA != scoreB {
		return scoreA > scoreB
	}

	return a.File > b.File
}

// ObserveSheet feeds every declaration of every namespaced rule in sheet.
// Only selectors whose last compound starts with a class are considered; the
// base selector is the last class of the selector with its namespace removed.
func (r *Resolver) ObserveSheet(sheet *stylesheet.Sheet) {
	for _, rule := range sheet.Rules() {
		if len(rule.Declarations) == 0 {
			continue
		}

		full := selector.FullSelectors(rule)

		for _, sel := range rule.Selectors {
			fields := strings.Fields(sel)
			if !selector.IsNamespaced(sel) || len(fields) == 0 || !strings.HasPrefix(fields[len(fields)-1], ".") {
				continue
			}

			bases := selector.BaseSelectors(selector.ClassNames(sel))
			if len(bases) == 0 {
				continue
			}

			base := bases[len(bases)-1]
			source := firstContaining(full, base, sel)
			spec := selector.Calculate(source)

			for _, decl := range rule.Declarations {
				r.Observe(Sighting{
					Base:     base,
					Property: decl.Property,
					Candidate: Candidate{
						Value:       decl.Value,
						Important:   decl.Important,
						Source:      source,
						Specificity: spec,
						File:        sheet.Path,
						Line:        rule.Line,
					},
				})
			}
		}
	}
}

func firstContaining(full []string, base, fallback string) string {
	for _, sel := range full {
		if strings.Contains(sel, base) {
			return sel
		}
	}

	return fallback
}
