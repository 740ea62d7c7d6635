package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/squeaky/pkg/namespace"
	"github.com/Sumatoshi-tech/squeaky/pkg/selector"
	"github.com/Sumatoshi-tech/squeaky/pkg/stylesheet"
)

func newCleanCommand(opts *globalOptions) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "clean [paths...]",
		Short: "Namespace classes and rewrite their references",
		Long: `Rewrite every eligible class selector to <name>-sqkd-<hash> and replace
the class in every referencing script, template and view under the configured
search directories. With --dry-run nothing is written and diffs are printed.`,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			sess, err := opts.setup(cmd)
			if err != nil {
				return err
			}

			defer func() { err = sess.close(err) }()

			return sess.clean(cmd.Context(), args, dryRun)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "compute changes without writing files")

	return cmd
}

func (s *session) clean(ctx context.Context, args []string, dryRun bool) error {
	files, err := s.stylesheets(args)
	if err != nil {
		return err
	}

	classifier := selector.NewClassifier(s.cfg.Denylist.Classes, s.cfg.Denylist.Prefixes)
	engine := namespace.NewEngine(classifier, s.searcher, s.fs, namespace.Options{
		Directories: s.cfg.Search.Paths(),
		Extensions:  s.cfg.Search.Extensions,
		ExcludePath: s.cfg.Search.ExcludePath,
		Regexps:     s.cfg.Search.Regexps,
		DryRun:      dryRun,
	}, s.logger)

	return s.eachSheet(ctx, files, func(ctx context.Context, sheet *stylesheet.Sheet) error {
		classes := engine.NamespaceSheet(sheet)

		var rewrites []namespace.Rewrite

		if sheet.Changed() {
			own := namespace.Rewrite{Path: sheet.Path, Before: string(sheet.Source()), After: string(sheet.Render())}
			rewrites = append(rewrites, own)

			if !dryRun {
				if err := s.writeFile(sheet.Path, []byte(own.After)); err != nil {
					return err
				}
			}
		}

		refs, err := engine.RewriteReferences(ctx, sheet.Path, classes)
		if err != nil {
			return err
		}

		rewrites = append(rewrites, refs...)

		s.metrics.AddNamespaced(ctx, len(classes))
		s.metrics.AddRewrites(ctx, len(rewrites))

		return s.printer.Clean(sheet.Path, classes, rewrites, dryRun)
	})
}
