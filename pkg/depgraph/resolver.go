package depgraph

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strings"

	"github.com/Sumatoshi-tech/squeaky/pkg/search"
)

// MissingReportHint is logged when the report cannot be loaded.
const MissingReportHint = "Please run `webpack --json` first and try again!"

// DefaultTemplateLeaf matches template files that import nothing themselves.
var DefaultTemplateLeaf = regexp.MustCompile(`\.eco$`)

// Options filters which files take part in a traversal.
type Options struct {
	// FilterInclude admits a file when any expression matches. Empty admits all.
	FilterInclude []*regexp.Regexp

	// FilterExclude rejects a file when any expression matches.
	FilterExclude []*regexp.Regexp

	// CommonInclude extracts the path of a common-chunk identifier. Nil keeps
	// the whole identifier.
	CommonInclude *regexp.Regexp

	// TemplateLeaf marks files whose importer is traversed when they have no
	// dependents. Nil uses DefaultTemplateLeaf.
	TemplateLeaf *regexp.Regexp

	// SqkdExclude drops direct matches before traversal. Nil drops nothing.
	SqkdExclude *regexp.Regexp
}

// Whitelist is the result of a traversal.
type Whitelist struct {
	// Files reference squeaky classes but are not part of the usage chain.
	Files []string `json:"files" yaml:"files"`

	// ParentFiles are importers of top-level leaf templates.
	ParentFiles []string `json:"parentFiles,omitempty" yaml:"parentFiles,omitempty"`
}

// Resolver traces selector usage through a module graph.
type Resolver struct {
	graph    *Graph
	searcher search.Searcher
	dirs     []string
	opts     Options
	logger   *slog.Logger
}

// NewResolver creates a Resolver. A nil graph yields ErrNoGraph from Find.
func NewResolver(graph *Graph, searcher search.Searcher, dirs []string, opts Options, logger *slog.Logger) *Resolver {
	if opts.TemplateLeaf == nil {
		opts.TemplateLeaf = DefaultTemplateLeaf
	}

	return &Resolver{graph: graph, searcher: searcher, dirs: dirs, opts: opts, logger: logger}
}

// included reports whether file passes the include and exclude filters.
func (r *Resolver) included(file string) bool {
	admitted := len(r.opts.FilterInclude) == 0 || slices.ContainsFunc(r.opts.FilterInclude, func(re *regexp.Regexp) bool {
		return re.MatchString(file)
	})

	return admitted && !slices.ContainsFunc(r.opts.FilterExclude, func(re *regexp.Regexp) bool {
		return re.MatchString(file)
	})
}

// Find returns the squeaky files outside the usage chain of sels. The chain
// starts at the files referencing sels directly and grows through modules
// imported by any file already in it. A leaf template with no dependents is
// replaced by its importer for the scan.
func (r *Resolver) Find(ctx context.Context, sels []string) (Whitelist, error) {
	if r.graph == nil {
		return Whitelist{}, ErrNoGraph
	}

	direct, err := search.SelectorFiles(ctx, r.searcher, sels, r.dirs)
	if err != nil {
		return Whitelist{}, err
	}

	worklist := slices.DeleteFunc(direct, func(f string) bool {
		return r.opts.SqkdExclude != nil && r.opts.SqkdExclude.MatchString(f)
	})
	firstLevel := len(worklist)
	queued := make(map[string]struct{}, len(worklist))

	for _, f := range worklist {
		queued[f] = struct{}{}
	}

	var parents []string

	scan := func(file string) bool {
		pushed := false

		for _, m := range r.graph.Dependents(file) {
			name := strings.TrimPrefix(m.Name, "./")
			if _, dup := queued[name]; dup || !r.included(name) {
				continue
			}

			r.logger.Debug("dependency found", "file", file, "module", name)

			queued[name] = struct{}{}
			worklist = append(worklist, name)
			pushed = true
		}

		return pushed
	}

	for idx := 0; idx < len(worklist); idx++ {
		err = ctx.Err()
		if err != nil {
			return Whitelist{}, err
		}

		file := worklist[idx]

		r.logger.Debug("finding dependencies", "file", file)

		if scan(file) || !r.opts.TemplateLeaf.MatchString(file) {
			continue
		}

		importer, found := r.graph.Importer(file)
		if !found || importer.IssuerName == "" {
			return Whitelist{}, fmt.Errorf("%w: %s", ErrOrphanedFile, file)
		}

		parent := strings.TrimPrefix(importer.IssuerName, "./")
		if idx < firstLevel {
			parents = append(parents, parent)
		}

		r.logger.Debug("leaf template, scanning importer", "file", file, "parent", parent)

		scan(parent)
	}

	for _, m := range r.graph.CommonModules() {
		if !r.included(m.Identifier) {
			continue
		}

		path := m.Identifier
		if r.opts.CommonInclude != nil {
			path = r.opts.CommonInclude.FindString(m.Identifier)
		}

		if path != "" {
			worklist = append(worklist, path)
		}
	}

	squeaky, err := search.SqueakyFiles(ctx, r.searcher, r.dirs)
	if err != nil {
		return Whitelist{}, err
	}

	return Whitelist{
		Files:       search.Unique(search.Difference(squeaky, worklist)),
		ParentFiles: parents,
	}, nil
}
