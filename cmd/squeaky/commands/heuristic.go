package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/squeaky/pkg/ancestry"
	"github.com/Sumatoshi-tech/squeaky/pkg/config"
	"github.com/Sumatoshi-tech/squeaky/pkg/depgraph"
	"github.com/Sumatoshi-tech/squeaky/pkg/search"
	"github.com/Sumatoshi-tech/squeaky/pkg/stylesheet"
)

func newHeuristicCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "heuristic [paths...]",
		Short: "Find the files each namespaced selector can be removed from",
		Long: `Walk the dependency report from the files that use each namespaced selector
and list the files that reference squeaky classes but are outside that usage
chain. Leaf selectors are handled first, then their namespaced ancestors.`,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			sess, err := opts.setup(cmd)
			if err != nil {
				return err
			}

			defer func() { err = sess.close(err) }()

			return sess.heuristic(cmd.Context(), args)
		},
	}
}

func (s *session) heuristic(ctx context.Context, args []string) error {
	files, err := s.stylesheets(args)
	if err != nil {
		return err
	}

	graphOpts, err := graphOptions(s.cfg.Graph)
	if err != nil {
		return err
	}

	features, err := config.CompileAll(s.cfg.Heuristic.FeaturePatterns)
	if err != nil {
		return err
	}

	statsPath := search.DirectoryPaths(s.cfg.Search.PathRoot, []string{s.cfg.Graph.StatsPath})[0]

	graph := depgraph.LoadGraph(s.fs, statsPath, s.cfg.Graph.CommonChunkName, s.logger)
	if graph == nil {
		return fmt.Errorf("%w: %s", depgraph.ErrNoGraph, statsPath)
	}

	dirs := s.cfg.Search.Paths()
	resolver := depgraph.NewResolver(graph, s.searcher, dirs, graphOpts, s.logger)

	driver, err := ancestry.NewHeuristic(resolver, s.searcher, dirs, ancestry.FeatureNamer(features),
		s.cfg.Heuristic.CacheSize, s.logger)
	if err != nil {
		return err
	}

	return s.eachSheet(ctx, files, func(ctx context.Context, sheet *stylesheet.Sheet) error {
		rounds, err := driver.Run(ctx, sheet)
		if err != nil {
			return err
		}

		return s.printer.Rounds(sheet.Path, rounds)
	})
}

func graphOptions(cfg config.GraphConfig) (depgraph.Options, error) {
	var (
		opts depgraph.Options
		err  error
	)

	if opts.FilterInclude, err = config.CompileAll(cfg.FilterInclude); err != nil {
		return opts, err
	}

	if opts.FilterExclude, err = config.CompileAll(cfg.FilterExclude); err != nil {
		return opts, err
	}

	if opts.CommonInclude, err = config.Compile(cfg.CommonInclude); err != nil {
		return opts, err
	}

	if opts.TemplateLeaf, err = config.Compile(cfg.TemplateLeafInclude); err != nil {
		return opts, err
	}

	if opts.SqkdExclude, err = config.Compile(cfg.SqkdExclude); err != nil {
		return opts, err
	}

	return opts, nil
}
