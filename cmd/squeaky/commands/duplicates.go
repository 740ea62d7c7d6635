package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/squeaky/pkg/namespace"
	"github.com/Sumatoshi-tech/squeaky/pkg/stylesheet"
)

func newDuplicatesCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "duplicates [paths...]",
		Short: "Find namespaced classes sharing a base name",
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			sess, err := opts.setup(cmd)
			if err != nil {
				return err
			}

			defer func() { err = sess.close(err) }()

			return sess.duplicates(cmd.Context(), args)
		},
	}
}

func (s *session) duplicates(ctx context.Context, args []string) error {
	files, err := s.stylesheets(args)
	if err != nil {
		return err
	}

	return s.eachSheet(ctx, files, func(ctx context.Context, sheet *stylesheet.Sheet) error {
		dups := namespace.DuplicateBases(sheet)
		if len(dups) > 0 {
			s.logger.WarnContext(ctx, "duplicate base selectors", "path", sheet.Path, "count", len(dups))
		}

		return s.printer.Duplicates(sheet.Path, dups)
	})
}
