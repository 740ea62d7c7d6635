package ancestry

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Sumatoshi-tech/squeaky/pkg/depgraph"
	"github.com/Sumatoshi-tech/squeaky/pkg/search"
	"github.com/Sumatoshi-tech/squeaky/pkg/selector"
	"github.com/Sumatoshi-tech/squeaky/pkg/stylesheet"
)

// DefaultCacheSize bounds the ancestor whitelist cache.
const DefaultCacheSize = 1024

// WhitelistFinder computes the whitelist of a selector list.
type WhitelistFinder interface {
	Find(ctx context.Context, sels []string) (depgraph.Whitelist, error)
}

// Removal is one namespaced selector and the files it can be removed from.
type Removal struct {
	Selector string   `json:"selector" yaml:"selector"`
	Files    []string `json:"files"    yaml:"files"`
}

// Round is one pass of the heuristic over a set of selectors.
type Round struct {
	Removals  []Removal `json:"removals"  yaml:"removals"`
	Ancestors []string  `json:"ancestors" yaml:"ancestors"`
}

// FeatureNamer derives a feature name from a path with the first capture
// group of the first matching pattern.
type FeatureNamer []*regexp.Regexp

// Name returns the feature of path, or "" when no pattern matches.
func (f FeatureNamer) Name(path string) string {
	for _, re := range f {
		if m := re.FindStringSubmatch(path); len(m) > 1 {
			return m[1]
		}
	}

	return ""
}

// Heuristic walks from the leaf selectors of a stylesheet to their
// namespaced ancestors and computes, per selector, the files the selector
// can be removed from. It is not safe for concurrent use.
type Heuristic struct {
	finder   WhitelistFinder
	searcher search.Searcher
	dirs     []string
	features FeatureNamer
	cache    *lru.Cache[string, depgraph.Whitelist]
	logger   *slog.Logger
}

// NewHeuristic creates a Heuristic with an ancestor cache of cacheSize entries.
func NewHeuristic(
	finder WhitelistFinder, searcher search.Searcher, dirs []string, features FeatureNamer, cacheSize int,
	logger *slog.Logger,
) (*Heuristic, error) {
	cache, err := lru.New[string, depgraph.Whitelist](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create ancestor cache: %w", err)
	}

	return &Heuristic{
		finder:   finder,
		searcher: searcher,
		dirs:     dirs,
		features: features,
		cache:    cache,
		logger:   logger,
	}, nil
}

// Run processes sheet until no unvisited ancestors remain.
func (h *Heuristic) Run(ctx context.Context, sheet *stylesheet.Sheet) ([]Round, error) {
	nodes := make(map[string]*stylesheet.Rule)

	var pending []string

	for _, rule := range sheet.Rules() {
		for _, class := range ClassSelectors(selector.Namespaced(rule.Selectors)) {
			nodes[class] = rule
		}

		if isLeaf(rule) {
			pending = append(pending, ruleSelectors(rule)...)
		}
	}

	squeaky, err := search.SqueakyFiles(ctx, h.searcher, h.dirs)
	if err != nil {
		return nil, err
	}

	styleFeature := h.features.Name(sheet.Path)
	visited := make(map[string]struct{}, len(pending))

	for _, sel := range pending {
		visited[sel] = struct{}{}
	}

	var rounds []Round

	for len(pending) > 0 {
		round, roundErr := h.round(ctx, ClassSelectors(pending), nodes, squeaky, styleFeature)
		if roundErr != nil {
			return nil, roundErr
		}

		pending = pending[:0]

		for _, anc := range round.Ancestors {
			if _, seen := visited[anc]; !seen {
				visited[anc] = struct{}{}
				pending = append(pending, anc)
			}
		}

		for _, removal := range round.Removals {
			h.logger.Info("removing selector", "selector", removal.Selector, "files", len(removal.Files))
		}

		h.logger.Info("ancestor selectors queued", "ancestors", pending)

		rounds = append(rounds, round)
	}

	return rounds, nil
}

func (h *Heuristic) round(
	ctx context.Context, sels []string, nodes map[string]*stylesheet.Rule, squeaky []string, styleFeature string,
) (Round, error) {
	var round Round

	for _, sel := range uniq(sels) {
		rule, ok := nodes[sel]
		if !ok {
			h.logger.Warn("selector has no rule", "selector", sel)

			continue
		}

		ancestors := Ancestors(sel, selector.FullSelectors(rule))

		files, err := h.whitelist(ctx, sel, ancestors, squeaky)
		if err != nil {
			return Round{}, err
		}

		if styleFeature != "" {
			files = slices.DeleteFunc(files, func(f string) bool { return h.features.Name(f) == styleFeature })
		}

		round.Removals = append(round.Removals, Removal{Selector: sel, Files: uniq(files)})
		round.Ancestors = append(round.Ancestors, ancestors...)
	}

	round.Ancestors = uniq(round.Ancestors)

	return round, nil
}

// whitelist combines the whitelists of sel's ancestors. A selector without
// ancestors uses its own whitelist.
func (h *Heuristic) whitelist(ctx context.Context, sel string, ancestors, squeaky []string) ([]string, error) {
	if len(ancestors) == 0 {
		own, err := h.finder.Find(ctx, []string{sel})
		if err != nil {
			return nil, err
		}

		return own.Files, nil
	}

	leafFiles, err := search.SelectorFiles(ctx, h.searcher, []string{sel}, h.dirs)
	if err != nil {
		return nil, err
	}

	var files []string

	for _, anc := range ancestors {
		ancWhitelist, ok := h.cache.Get(anc)
		if !ok {
			ancWhitelist, err = h.finder.Find(ctx, []string{anc})
			if err != nil {
				return nil, err
			}

			h.cache.Add(anc, ancWhitelist)
		}

		ancFiles, searchErr := search.SelectorFiles(ctx, h.searcher, []string{anc}, h.dirs)
		if searchErr != nil {
			return nil, searchErr
		}

		leafParents := search.Intersection(leafFiles, ancWhitelist.ParentFiles)
		shared := search.Intersection(leafFiles, ancFiles)

		switch {
		case len(leafParents) > 0:
			files = append(files, search.Difference(squeaky, leafParents)...)
		case len(shared) > 0:
			files = append(files, search.Difference(squeaky, shared)...)
		default:
			files = append(files, ancWhitelist.Files...)
		}
	}

	return files, nil
}

// ruleSelectors returns the namespaced selectors a leaf rule contributes.
// Selectors using `&` are resolved through their parents.
func ruleSelectors(rule *stylesheet.Rule) []string {
	if !selector.IsNamespaced(rule.SelectorText()) {
		return nil
	}

	namespaced := selector.Namespaced(rule.Selectors)
	single := slices.DeleteFunc(slices.Clone(namespaced), func(s string) bool { return strings.Contains(s, "&") })

	var out []string

	if len(single) != len(namespaced) {
		out = append(out, RelatedSelectors(rule)...)
	}

	for _, sel := range single {
		out = append(out, SingleSelectors(sel)...)
	}

	return out
}

// isLeaf reports whether rule nests no style rules; nested at-rules are
// allowed.
func isLeaf(rule *stylesheet.Rule) bool {
	return !slices.ContainsFunc(rule.Children, (*stylesheet.Rule).IsStyle)
}
