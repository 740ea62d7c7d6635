// Package namespace appends a content hash to the class selectors of a
// stylesheet and propagates the namespaced names into every file that
// references them.
package namespace

import (
	"context"
	"crypto/md5" //nolint:gosec // content fingerprint, not a security boundary.
	"encoding/hex"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/spf13/afero"
	"github.com/src-d/enry/v2"

	"github.com/Sumatoshi-tech/squeaky/pkg/search"
	"github.com/Sumatoshi-tech/squeaky/pkg/selector"
	"github.com/Sumatoshi-tech/squeaky/pkg/stylesheet"
)

// HashLen is the number of hex characters kept from the block digest.
const HashLen = 6

// DefaultExcludePath keeps the component library out of cross-file rewrites.
const DefaultExcludePath = "styleguide"

var (
	classNameVariable = regexp.MustCompile(`^\$.+[ckCK]lass_?[nN]ame$`)
	quotedValue       = regexp.MustCompile(`['"](.+)['"]`)
)

// Namespaced is a class that received a namespace.
type Namespaced struct {
	Hash  string `json:"hash"  yaml:"hash"`
	Class string `json:"class" yaml:"class"`
}

// Name returns the namespaced class name.
func (n Namespaced) Name() string {
	return n.Class + selector.Marker + n.Hash
}

// Rewrite is the before and after text of a referencing file.
type Rewrite struct {
	Path   string `json:"path"   yaml:"path"`
	Before string `json:"-"      yaml:"-"`
	After  string `json:"-"      yaml:"-"`
}

// Options configures cross-file propagation.
type Options struct {
	// Directories are searched for references.
	Directories []string

	// Extensions limits which referencing files are rewritten (without dots).
	Extensions []string

	// ExcludePath drops any path containing it.
	ExcludePath string

	// Regexps are extra class-list prefixes for the replacer.
	Regexps []string

	// DryRun computes rewrites without writing them.
	DryRun bool
}

// Engine namespaces stylesheets. It is not safe for concurrent use.
type Engine struct {
	classifier *selector.Classifier
	searcher   search.Searcher
	fs         afero.Fs
	opts       Options
	logger     *slog.Logger
}

// NewEngine creates an Engine.
func NewEngine(
	classifier *selector.Classifier, searcher search.Searcher, fsys afero.Fs, opts Options, logger *slog.Logger,
) *Engine {
	return &Engine{classifier: classifier, searcher: searcher, fs: fsys, opts: opts, logger: logger}
}

// Hash returns the first HashLen hex characters of the md5 of text.
func Hash(text string) string {
	sum := md5.Sum([]byte(text)) //nolint:gosec // see import.

	return hex.EncodeToString(sum[:])[:HashLen]
}

// Namespace rewrites the selectors of sheet in place and propagates every
// namespaced class into the configured directories.
func (e *Engine) Namespace(ctx context.Context, sheet *stylesheet.Sheet) ([]Namespaced, error) {
	namespaced := e.NamespaceSheet(sheet)

	_, err := e.RewriteReferences(ctx, sheet.Path, namespaced)
	if err != nil {
		return nil, err
	}

	return namespaced, nil
}

// NamespaceSheet appends `-sqkd-<hash>` to every eligible class of sheet and
// to quoted class-name variables. Call sheet.Render for the new text.
func (e *Engine) NamespaceSheet(sheet *stylesheet.Sheet) []Namespaced {
	var out []Namespaced

	record := func(n Namespaced) {
		if !slices.Contains(out, n) {
			out = append(out, n)
		}
	}

	e.namespaceVariables(sheet.Root, Hash(string(sheet.Source())), record)

	for _, rule := range sheet.Rules() {
		hash := Hash(rule.Block)

		e.namespaceVariables(rule, hash, record)

		for i, sel := range rule.Selectors {
			rule.Selectors[i] = e.namespaceSelector(rule, sel, hash, record)
		}
	}

	return out
}

func (e *Engine) namespaceVariables(rule *stylesheet.Rule, hash string, record func(Namespaced)) {
	for _, decl := range rule.Declarations {
		if !classNameVariable.MatchString(decl.Property) {
			continue
		}

		m := quotedValue.FindStringSubmatchIndex(decl.Value)
		if m == nil {
			continue
		}

		sel := decl.Value[m[2]:m[3]]

		updated := e.namespaceSelector(rule, sel, hash, record)
		if updated == sel {
			continue
		}

		decl.Value = decl.Value[:m[0]] + `"` + updated + `"` + decl.Value[m[1]:]
	}
}

func (e *Engine) namespaceSelector(rule *stylesheet.Rule, sel, hash string, record func(Namespaced)) string {
	if selector.IsNamespaced(sel) {
		return sel
	}

	if rule.HasComment(selector.ExceptionMarker) {
		e.logger.Info("ignored selector", "selector", sel, "reason", "exception", "line", rule.Line)

		return sel
	}

	verdict := e.classifier.Classify(sel)

	switch {
	case verdict.BlockedBy != "":
		e.logger.Info("ignored selector", "selector", verdict.BlockedBy, "reason", "denylist", "line", rule.Line)

		return sel
	case verdict.Ignored:
		if strings.Contains(sel, "#{") {
			e.logger.Info("ignored selector", "selector", sel, "reason", "interpolation", "line", rule.Line)
		}

		return sel
	}

	var b strings.Builder

	last := 0

	for _, tok := range selector.Classes(sel) {
		b.WriteString(sel[last:tok.End])
		b.WriteString(selector.Marker + hash)

		last = tok.End

		record(Namespaced{Hash: hash, Class: tok.Name})
	}

	b.WriteString(sel[last:])

	return b.String()
}

// RewriteReferences adds the namespaced name next to every reference of each
// class in the configured directories. Files are written unless DryRun is
// set; the returned rewrites hold one entry per changed file.
func (e *Engine) RewriteReferences(ctx context.Context, sheetPath string, classes []Namespaced) ([]Rewrite, error) {
	var (
		order   []string
		before  = make(map[string]string)
		current = make(map[string]string)
	)

	for _, n := range classes {
		e.logger.Debug("propagating class", "class", n.Class, "hash", n.Hash)

		files, err := e.searcher.Files(ctx, search.Query{Pattern: n.Class, Literal: true, Paths: e.opts.Directories})
		if err != nil {
			return nil, fmt.Errorf("search %s: %w", n.Class, err)
		}

		replacer, err := NewReplacer(n.Class, n.Hash, e.opts.Regexps)
		if err != nil {
			return nil, err
		}

		for _, file := range files {
			if !e.candidate(file, sheetPath) {
				continue
			}

			contents, seen := current[file]
			if !seen {
				raw, readErr := afero.ReadFile(e.fs, file)
				if readErr != nil {
					return nil, fmt.Errorf("read %s: %w", file, readErr)
				}

				contents = string(raw)
				before[file] = contents
				current[file] = contents
				order = append(order, file)
			}

			current[file] = replacer.Replace(contents, CategoryOf(file))
		}
	}

	var rewrites []Rewrite

	for _, file := range order {
		if current[file] == before[file] {
			continue
		}

		rewrites = append(rewrites, Rewrite{Path: file, Before: before[file], After: current[file]})
	}

	if e.opts.DryRun {
		return rewrites, nil
	}

	for _, rw := range rewrites {
		err := writePreservingMode(e.fs, rw.Path, rw.After)
		if err != nil {
			return nil, err
		}

		e.logger.Info("rewrote references", "path", rw.Path)
	}

	return rewrites, nil
}

func (e *Engine) candidate(file, sheetPath string) bool {
	if filepath.Clean(file) == filepath.Clean(sheetPath) {
		return false
	}

	if e.opts.ExcludePath != "" && strings.Contains(file, e.opts.ExcludePath) {
		return false
	}

	if enry.IsVendor(file) {
		return false
	}

	if len(e.opts.Extensions) == 0 {
		return CategoryOf(file) != Unknown
	}

	ext := strings.TrimPrefix(filepath.Ext(file), ".")

	return slices.Contains(e.opts.Extensions, ext)
}

func writePreservingMode(fsys afero.Fs, path, contents string) error {
	info, err := fsys.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	err = afero.WriteFile(fsys, path, []byte(contents), info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	return nil
}
