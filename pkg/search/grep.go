package search

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
)

// exitNoMatch is grep's exit status when nothing matched.
const exitNoMatch = 1

// GrepSearcher shells out to grep. Anything grep writes to stderr is logged
// as a warning and its stdout is still used.
type GrepSearcher struct {
	binary string
	logger *slog.Logger
}

// NewGrepSearcher creates a searcher using the grep found on PATH.
func NewGrepSearcher(logger *slog.Logger) *GrepSearcher {
	return &GrepSearcher{binary: "grep", logger: logger}
}

// Files implements [Searcher].
func (g *GrepSearcher) Files(ctx context.Context, q Query) ([]string, error) {
	out, err := g.run(ctx, "-l", q)
	if err != nil {
		return nil, err
	}

	return Unique(strings.Split(out, "\n")), nil
}

// Lines implements [Searcher].
func (g *GrepSearcher) Lines(ctx context.Context, q Query) ([]Match, error) {
	out, err := g.run(ctx, "-n", q)
	if err != nil {
		return nil, err
	}

	var matches []Match

	for line := range strings.SplitSeq(out, "\n") {
		path, rest, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}

		num, text, ok := strings.Cut(rest, ":")
		if !ok {
			continue
		}

		n, convErr := strconv.Atoi(num)
		if convErr != nil {
			continue
		}

		matches = append(matches, Match{Path: path, Line: n, Text: text})
	}

	return matches, nil
}

func (g *GrepSearcher) run(ctx context.Context, mode string, q Query) (string, error) {
	if len(q.Paths) == 0 {
		return "", nil
	}

	args := []string{"-r", "-I", mode}

	if q.IgnoreCase {
		args = append(args, "-i")
	}

	if q.Literal {
		args = append(args, "-F")
	} else {
		args = append(args, "-E")
	}

	for _, glob := range q.Exclude {
		args = append(args, "--exclude="+glob)
	}

	args = append(args, "-e", q.Pattern, "--")
	args = append(args, q.Paths...)

	cmd := exec.CommandContext(ctx, g.binary, args...)

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	if stderr.Len() > 0 {
		g.logger.WarnContext(ctx, "search reported errors",
			"pattern", q.Pattern, "stderr", strings.TrimSpace(stderr.String()))
	}

	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return "", fmt.Errorf("run %s: %w", g.binary, err)
		}

		if exitErr.ExitCode() != exitNoMatch && stderr.Len() == 0 {
			g.logger.WarnContext(ctx, "search exited abnormally",
				"pattern", q.Pattern, "code", exitErr.ExitCode())
		}
	}

	return stdout.String(), nil
}
