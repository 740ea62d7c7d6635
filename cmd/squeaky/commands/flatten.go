package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/squeaky/pkg/flatten"
	"github.com/Sumatoshi-tech/squeaky/pkg/stylesheet"
)

func newFlattenCommand(opts *globalOptions) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "flatten [paths...]",
		Short: "Flatten nested rules onto their namespaced selectors",
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			sess, err := opts.setup(cmd)
			if err != nil {
				return err
			}

			defer func() { err = sess.close(err) }()

			return sess.flatten(cmd.Context(), args, dryRun)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the flattened diff without writing files")

	return cmd
}

func (s *session) flatten(ctx context.Context, args []string, dryRun bool) error {
	files, err := s.stylesheets(args)
	if err != nil {
		return err
	}

	return s.eachSheet(ctx, files, func(ctx context.Context, sheet *stylesheet.Sheet) error {
		result := flatten.Flatten(sheet)

		s.logger.InfoContext(ctx, "selectors made top level", "path", sheet.Path, "selectors", result.TopLevel)

		if !dryRun {
			if err := s.writeFile(sheet.Path, []byte(result.CSS)); err != nil {
				return err
			}
		}

		return s.printer.Flattened(sheet.Path, string(sheet.Source()), result, dryRun)
	})
}
