package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/squeaky/pkg/specificity"
	"github.com/Sumatoshi-tech/squeaky/pkg/stylesheet"
)

func newSpecificityCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "specificity [paths...]",
		Short: "Report competing declarations for namespaced classes",
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			sess, err := opts.setup(cmd)
			if err != nil {
				return err
			}

			defer func() { err = sess.close(err) }()

			return sess.specificity(cmd.Context(), args)
		},
	}
}

func (s *session) specificity(ctx context.Context, args []string) error {
	files, err := s.stylesheets(args)
	if err != nil {
		return err
	}

	resolver := specificity.NewResolver(specificity.Precedence{
		Buckets:    s.cfg.Specificity.Buckets,
		Exceptions: s.cfg.Specificity.ExceptionBuckets,
	}, s.logger)

	err = s.eachSheet(ctx, files, func(_ context.Context, sheet *stylesheet.Sheet) error {
		resolver.ObserveSheet(sheet)

		return nil
	})
	if err != nil {
		return err
	}

	total := 0
	for _, props := range resolver.Conflicts() {
		total += len(props)
	}

	s.metrics.AddConflicts(ctx, total)
	s.logger.InfoContext(ctx, "specificity conflicts", "count", total, "ties", len(resolver.Ties()))

	return s.printer.Conflicts(resolver.Conflicts(), resolver.Ties())
}
