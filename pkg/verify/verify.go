// Package verify cross-checks the namespaced class names defined in
// stylesheets against the names used by scripts, templates and views.
package verify

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strings"

	"github.com/spf13/afero"

	"github.com/Sumatoshi-tech/squeaky/pkg/search"
)

// StylesheetPattern globs the stylesheets that define names.
const StylesheetPattern = "**/*.{css,scss}"

// DefaultUsageExtensions are the extensions of files that use names.
var DefaultUsageExtensions = []string{"js", "coffee", "eco", "rb", "erb", "ejs"}

var (
	definedName = regexp.MustCompile(`\.[\w-]+-sqkd-\w+`)
	usedName    = regexp.MustCompile(`[\w-]+-sqkd-\w+`)
	composes    = regexp.MustCompile(`composes:[\s\n]+?([\w\n\s-]+)`)
)

// Options configures a Verifier.
type Options struct {
	// Directories are searched for both stylesheets and usages.
	Directories []string

	// ComposeDirectories hold additional stylesheets whose composes
	// references count as usages.
	ComposeDirectories []string

	// UsageExtensions overrides DefaultUsageExtensions when set.
	UsageExtensions []string
}

// Result holds the outcome of a verification run.
type Result struct {
	Defined []string `json:"defined" yaml:"defined"`
	Used    []string `json:"used"    yaml:"used"`

	// Mismatched lists names defined but never used, or used but never
	// defined. Sorted.
	Mismatched []string `json:"mismatched" yaml:"mismatched"`
}

// OK reports whether every defined name is used and every used name defined.
func (r Result) OK() bool {
	return len(r.Mismatched) == 0
}

// Verifier reads files from an afero filesystem.
type Verifier struct {
	fsys   afero.Fs
	opts   Options
	logger *slog.Logger
}

// NewVerifier creates a Verifier.
func NewVerifier(fsys afero.Fs, opts Options, logger *slog.Logger) *Verifier {
	if len(opts.UsageExtensions) == 0 {
		opts.UsageExtensions = DefaultUsageExtensions
	}

	return &Verifier{fsys: fsys, opts: opts, logger: logger}
}

// Run collects defined and used names and returns their symmetric difference.
func (v *Verifier) Run(ctx context.Context) (Result, error) {
	dirs := v.existing(v.opts.Directories)

	sheets, err := search.Expand(v.fsys, dirs, StylesheetPattern)
	if err != nil {
		return Result{}, fmt.Errorf("expand stylesheets: %w", err)
	}

	v.logger.InfoContext(ctx, "stylesheets found", "count", len(sheets))

	var composed []string

	defined, err := v.collect(sheets, definedName, &composed)
	if err != nil {
		return Result{}, err
	}

	composeSheets, err := search.Expand(v.fsys, v.existing(v.opts.ComposeDirectories), StylesheetPattern)
	if err != nil {
		return Result{}, fmt.Errorf("expand compose stylesheets: %w", err)
	}

	v.logger.InfoContext(ctx, "compose stylesheets found", "count", len(composeSheets))

	for _, path := range composeSheets {
		data, err := afero.ReadFile(v.fsys, path)
		if err != nil {
			return Result{}, fmt.Errorf("read %s: %w", path, err)
		}

		composed = append(composed, composedNames(string(data))...)
	}

	usages, err := search.Expand(v.fsys, dirs, usagePattern(v.opts.UsageExtensions))
	if err != nil {
		return Result{}, fmt.Errorf("expand usages: %w", err)
	}

	v.logger.InfoContext(ctx, "usage files found", "count", len(usages))

	used, err := v.collect(usages, usedName, nil)
	if err != nil {
		return Result{}, err
	}

	used = search.Unique(append(used, composed...))

	mismatched := search.Unique(append(search.Difference(defined, used), search.Difference(used, defined)...))

	if len(mismatched) > 0 {
		v.logger.WarnContext(ctx, "unused squeaky class names", "names", mismatched)
	}

	return Result{Defined: defined, Used: used, Mismatched: mismatched}, nil
}

// collect extracts names matching re from every file. When composed is
// non-nil, composes references found in the files are appended to it.
func (v *Verifier) collect(paths []string, re *regexp.Regexp, composed *[]string) ([]string, error) {
	var names []string

	for _, path := range paths {
		data, err := afero.ReadFile(v.fsys, path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}

		contents := string(data)

		if composed != nil {
			*composed = append(*composed, composedNames(contents)...)
		}

		for _, m := range re.FindAllString(contents, -1) {
			names = append(names, strings.TrimPrefix(m, "."))
		}
	}

	return search.Unique(names), nil
}

func (v *Verifier) existing(dirs []string) []string {
	return slices.DeleteFunc(slices.Clone(dirs), func(dir string) bool {
		ok, err := afero.Exists(v.fsys, dir)
		if err != nil || !ok {
			v.logger.Debug("skipping missing directory", "dir", dir)

			return true
		}

		return false
	})
}

func composedNames(contents string) []string {
	var out []string

	for _, m := range composes.FindAllString(contents, -1) {
		for _, field := range strings.Fields(m) {
			if strings.Contains(field, "-sqkd-") {
				out = append(out, field)
			}
		}
	}

	return out
}

func usagePattern(exts []string) string {
	if len(exts) == 1 {
		return "**/*." + exts[0]
	}

	return "**/*.{" + strings.Join(exts, ",") + "}"
}
