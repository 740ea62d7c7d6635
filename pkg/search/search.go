// Package search locates files and lines referencing class names. It wraps
// the external grep process and an in-process walker behind one interface so
// graph and whitelist logic can run against an in-memory filesystem.
package search

import (
	"context"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
)

// StylesheetExcludes are the base-name globs that keep stylesheets out of
// reference searches.
var StylesheetExcludes = []string{"*.css", "*.scss"}

// Query describes one text search.
type Query struct {
	// Pattern is a fixed string when Literal is set, otherwise an extended
	// regular expression.
	Pattern string
	Literal bool

	// IgnoreCase matches without regard to letter case.
	IgnoreCase bool

	// Paths are files or directories searched recursively.
	Paths []string

	// Exclude holds base-name globs of files to skip.
	Exclude []string
}

// Match is one matching line.
type Match struct {
	Path string
	Line int
	Text string
}

// Searcher answers text queries. Implementations return sorted, unique paths.
type Searcher interface {
	Files(ctx context.Context, q Query) ([]string, error)
	Lines(ctx context.Context, q Query) ([]Match, error)
}

// SelectorFiles returns the non-stylesheet files referencing any namespaced
// selector in sels. Each entry may be a comma-separated list; the leading dot
// is dropped before searching.
func SelectorFiles(ctx context.Context, s Searcher, sels, dirs []string) ([]string, error) {
	var out []string

	for _, entry := range sels {
		if !strings.Contains(entry, "sqkd") {
			continue
		}

		for sel := range strings.SplitSeq(entry, ",") {
			name := strings.TrimPrefix(strings.TrimSpace(sel), ".")
			if name == "" {
				continue
			}

			files, err := s.Files(ctx, Query{Pattern: name, Literal: true, Paths: dirs, Exclude: StylesheetExcludes})
			if err != nil {
				return nil, err
			}

			out = append(out, files...)
		}
	}

	return Unique(out), nil
}

// SqueakyFiles returns every non-stylesheet file containing a namespaced class.
func SqueakyFiles(ctx context.Context, s Searcher, dirs []string) ([]string, error) {
	return s.Files(ctx, Query{Pattern: "sqkd", Literal: true, Paths: dirs, Exclude: StylesheetExcludes})
}

// DirectoryPaths joins each directory onto root.
func DirectoryPaths(root string, dirs []string) []string {
	out := make([]string, 0, len(dirs))

	for _, dir := range dirs {
		if root == "" {
			out = append(out, filepath.Clean(dir))

			continue
		}

		out = append(out, filepath.Join(root, dir))
	}

	return out
}

// Expand resolves paths into files. Directories are globbed with pattern
// (e.g. "**/*.{css,scss}"); plain files are kept as given.
func Expand(fsys afero.Fs, paths []string, pattern string) ([]string, error) {
	var out []string

	for _, path := range paths {
		info, err := fsys.Stat(path)
		if err != nil {
			return nil, err
		}

		if !info.IsDir() {
			out = append(out, path)

			continue
		}

		matches, err := doublestar.Glob(afero.NewIOFS(afero.NewBasePathFs(fsys, path)), pattern)
		if err != nil {
			return nil, err
		}

		for _, match := range matches {
			out = append(out, filepath.Join(path, match))
		}
	}

	return Unique(out), nil
}

// Unique sorts paths and drops duplicates and empty entries.
func Unique(paths []string) []string {
	out := slices.DeleteFunc(slices.Clone(paths), func(p string) bool { return p == "" })
	slices.Sort(out)

	return slices.Compact(out)
}

// Difference returns the entries of all that are not in remove, preserving order.
func Difference(all, remove []string) []string {
	drop := make(map[string]struct{}, len(remove))
	for _, r := range remove {
		drop[r] = struct{}{}
	}

	var out []string

	for _, a := range all {
		if _, ok := drop[a]; !ok {
			out = append(out, a)
		}
	}

	return out
}

// Intersection returns the entries of a also present in b, preserving order.
func Intersection(a, b []string) []string {
	keep := make(map[string]struct{}, len(b))
	for _, v := range b {
		keep[v] = struct{}{}
	}

	var out []string

	for _, v := range a {
		if _, ok := keep[v]; ok {
			out = append(out, v)
		}
	}

	return out
}

func excluded(path string, globs []string) bool {
	base := filepath.Base(path)

	for _, glob := range globs {
		if ok, _ := doublestar.Match(glob, base); ok {
			return true
		}
	}

	return false
}
