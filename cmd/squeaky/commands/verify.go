package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/squeaky/pkg/search"
	"github.com/Sumatoshi-tech/squeaky/pkg/verify"
)

func newVerifyCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "verify [directories...]",
		Short: "Cross-check defined and used namespaced class names",
		Long: `Collect the namespaced class names defined in stylesheets and those used in
scripts, templates and views. Names found on only one side are listed and the
exit code is their count.`,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			sess, err := opts.setup(cmd)
			if err != nil {
				return err
			}

			defer func() { err = sess.close(err) }()

			return sess.verify(cmd.Context(), args)
		},
	}
}

func (s *session) verify(ctx context.Context, args []string) error {
	dirs := args
	if len(dirs) == 0 {
		dirs = s.cfg.Search.Paths()
	}

	verifier := verify.NewVerifier(s.fs, verify.Options{
		Directories:        dirs,
		ComposeDirectories: search.DirectoryPaths(s.cfg.Search.PathRoot, s.cfg.Verify.ComposeDirectories),
		UsageExtensions:    s.cfg.Verify.UsageExtensions,
	}, s.logger)

	result, err := verifier.Run(ctx)
	if err != nil {
		return err
	}

	s.metrics.AddMismatches(ctx, len(result.Mismatched))

	err = s.printer.Verify(result)
	if err != nil {
		return err
	}

	if !result.OK() {
		return &ExitError{
			Code: min(len(result.Mismatched), maxExitCode),
			Err:  fmt.Errorf("%w: %d", ErrMismatchedNames, len(result.Mismatched)),
		}
	}

	return nil
}
