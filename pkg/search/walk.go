package search

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"regexp"

	"github.com/spf13/afero"
)

// binarySniffLen is how much of a file is checked for NUL bytes.
const binarySniffLen = 8000

// WalkSearcher searches an afero filesystem in process.
type WalkSearcher struct {
	fs afero.Fs
}

// NewWalkSearcher creates a searcher over fsys.
func NewWalkSearcher(fsys afero.Fs) *WalkSearcher {
	return &WalkSearcher{fs: fsys}
}

// Files implements [Searcher].
func (w *WalkSearcher) Files(ctx context.Context, q Query) ([]string, error) {
	var files []string

	err := w.walk(ctx, q, func(path string, content []byte, match func([]byte) bool) {
		if match(content) {
			files = append(files, path)
		}
	})
	if err != nil {
		return nil, err
	}

	return Unique(files), nil
}

// Lines implements [Searcher].
func (w *WalkSearcher) Lines(ctx context.Context, q Query) ([]Match, error) {
	var matches []Match

	err := w.walk(ctx, q, func(path string, content []byte, match func([]byte) bool) {
		scanner := bufio.NewScanner(bytes.NewReader(content))
		scanner.Buffer(make([]byte, 0, 64*1024), len(content)+1)

		line := 0

		for scanner.Scan() {
			line++

			if match(scanner.Bytes()) {
				matches = append(matches, Match{Path: path, Line: line, Text: scanner.Text()})
			}
		}
	})
	if err != nil {
		return nil, err
	}

	return matches, nil
}

func (w *WalkSearcher) walk(
	ctx context.Context, q Query, visit func(path string, content []byte, match func([]byte) bool),
) error {
	match, err := matcher(q)
	if err != nil {
		return err
	}

	for _, root := range q.Paths {
		walkErr := afero.Walk(w.fs, root, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				if os.IsNotExist(err) {
					return nil
				}

				return err
			}

			ctxErr := ctx.Err()
			if ctxErr != nil {
				return ctxErr
			}

			if info.IsDir() || excluded(path, q.Exclude) {
				return nil
			}

			content, readErr := afero.ReadFile(w.fs, path)
			if readErr != nil {
				return fmt.Errorf("read %s: %w", path, readErr)
			}

			if bytes.IndexByte(content[:min(len(content), binarySniffLen)], 0) >= 0 {
				return nil
			}

			visit(path, content, match)

			return nil
		})
		if walkErr != nil {
			return fmt.Errorf("walk %s: %w", root, walkErr)
		}
	}

	return nil
}

func matcher(q Query) (func([]byte) bool, error) {
	pattern := q.Pattern
	if q.Literal {
		if !q.IgnoreCase {
			needle := []byte(q.Pattern)

			return func(b []byte) bool { return bytes.Contains(b, needle) }, nil
		}

		pattern = regexp.QuoteMeta(pattern)
	}

	if q.IgnoreCase {
		pattern = "(?i)" + pattern
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compile pattern %q: %w", q.Pattern, err)
	}

	return re.Match, nil
}
