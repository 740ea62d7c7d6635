package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/squeaky/pkg/analytics"
	"github.com/Sumatoshi-tech/squeaky/pkg/stylesheet"
)

func newAnalyticsCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "analytics [paths...]",
		Short: "Tabulate namespacing progress per stylesheet",
		Long: `Count, per stylesheet, every class token, the namespaced base classes and
those whose base name no longer appears in any of the given stylesheets.`,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			sess, err := opts.setup(cmd)
			if err != nil {
				return err
			}

			defer func() { err = sess.close(err) }()

			return sess.analytics(cmd.Context(), args)
		},
	}
}

func (s *session) analytics(ctx context.Context, args []string) error {
	files, err := s.stylesheets(args)
	if err != nil {
		return err
	}

	analyzer := analytics.NewAnalyzer(s.searcher, files, s.logger)

	err = s.eachSheet(ctx, files, func(ctx context.Context, sheet *stylesheet.Sheet) error {
		_, err := analyzer.Analyze(ctx, sheet)

		return err
	})
	if err != nil {
		return err
	}

	return s.printer.Stats(analyzer.Results())
}
