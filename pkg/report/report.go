// Package report renders command results as terminal tables or as JSON and
// YAML documents.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/squeaky/pkg/analytics"
	"github.com/Sumatoshi-tech/squeaky/pkg/ancestry"
	"github.com/Sumatoshi-tech/squeaky/pkg/flatten"
	"github.com/Sumatoshi-tech/squeaky/pkg/namespace"
	"github.com/Sumatoshi-tech/squeaky/pkg/specificity"
	"github.com/Sumatoshi-tech/squeaky/pkg/verify"
)

// Format selects how results are written.
type Format string

// Supported formats.
const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ErrUnknownFormat is returned for an unsupported output format.
var ErrUnknownFormat = errors.New("unknown output format")

// ParseFormat validates a format name. The empty string means text.
func ParseFormat(name string) (Format, error) {
	switch Format(strings.ToLower(name)) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatYAML:
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q (want text, json or yaml)", ErrUnknownFormat, name)
	}
}

// Printer writes results to w in one format.
type Printer struct {
	w      io.Writer
	format Format
}

// NewPrinter creates a Printer.
func NewPrinter(w io.Writer, format Format) *Printer {
	return &Printer{w: w, format: format}
}

// Clean reports the classes namespaced in one stylesheet and the files
// rewritten to match. With showDiff the rewrites are reported as pending and
// shown as diffs.
func (p *Printer) Clean(path string, classes []namespace.Namespaced, rewrites []namespace.Rewrite, showDiff bool) error {
	if p.format != FormatText {
		return p.encode(struct {
			Path     string                 `json:"path"     yaml:"path"`
			Classes  []namespace.Namespaced `json:"classes"  yaml:"classes"`
			Rewrites []namespace.Rewrite    `json:"rewrites" yaml:"rewrites"`
		}{path, classes, rewrites})
	}

	p.heading(path)

	tbl := newTable()
	tbl.AppendHeader(table.Row{"Class", "Namespaced"})

	for _, c := range classes {
		tbl.AppendRow(table.Row{c.Class, c.Name()})
	}

	tbl.AppendFooter(table.Row{"Total", count(len(classes), "class", "classes")})
	fmt.Fprintln(p.w, tbl.Render())

	for _, r := range rewrites {
		if !showDiff {
			fmt.Fprintf(p.w, "rewrote %s\n", r.Path)

			continue
		}

		fmt.Fprintf(p.w, "would rewrite %s\n", r.Path)
		fmt.Fprint(p.w, UnifiedDiff(r.Path, r.Before, r.After))
	}

	return nil
}

// Conflicts reports the declaration conflicts and specificity ties of a run.
func (p *Printer) Conflicts(conflicts map[string]map[string]*specificity.Conflict, ties map[string]specificity.Tie) error {
	if p.format != FormatText {
		return p.encode(struct {
			Conflicts map[string]map[string]*specificity.Conflict `json:"conflicts" yaml:"conflicts"`
			Ties      map[string]specificity.Tie                  `json:"ties"      yaml:"ties"`
		}{conflicts, ties})
	}

	tbl := newTable()
	tbl.AppendHeader(table.Row{"Selector", "Property", "Winner", "Specificity", "Source", "Values"})

	rows := 0

	for _, base := range slices.Sorted(maps.Keys(conflicts)) {
		props := conflicts[base]

		for _, prop := range slices.Sorted(maps.Keys(props)) {
			c := props[prop]
			w := c.MostSpecific

			value := w.Value
			if w.Important {
				value += " !important"
			}

			tbl.AppendRow(table.Row{
				base, prop, value, w.Specificity.String(),
				fmt.Sprintf("%s:%d", w.File, w.Line), len(c.Values),
			})

			rows++
		}
	}

	tbl.AppendFooter(table.Row{"Total", count(rows, "conflict", "conflicts")})
	fmt.Fprintln(p.w, tbl.Render())

	if len(ties) == 0 {
		return nil
	}

	p.heading("Specificity ties")

	tieTbl := newTable()
	tieTbl.AppendHeader(table.Row{"Selector", "Winner", "Loser"})

	for _, base := range slices.Sorted(maps.Keys(ties)) {
		tie := ties[base]
		tieTbl.AppendRow(table.Row{
			base,
			fmt.Sprintf("%s:%d", tie.Winner.File, tie.Winner.Line),
			fmt.Sprintf("%s:%d", tie.Loser.File, tie.Loser.Line),
		})
	}

	fmt.Fprintln(p.w, tieTbl.Render())

	return nil
}

// Rounds reports the heuristic removals for one stylesheet.
func (p *Printer) Rounds(path string, rounds []ancestry.Round) error {
	if p.format != FormatText {
		return p.encode(struct {
			Path   string           `json:"path"   yaml:"path"`
			Rounds []ancestry.Round `json:"rounds" yaml:"rounds"`
		}{path, rounds})
	}

	p.heading(path)

	tbl := newTable()
	tbl.AppendHeader(table.Row{"Round", "Selector", "Whitelisted files"})

	for i, round := range rounds {
		for _, removal := range round.Removals {
			tbl.AppendRow(table.Row{i + 1, removal.Selector, strings.Join(removal.Files, "\n")})
		}
	}

	tbl.AppendFooter(table.Row{"Total", count(len(rounds), "round", "rounds")})
	fmt.Fprintln(p.w, tbl.Render())

	return nil
}

// Stats reports per-stylesheet analytics.
func (p *Printer) Stats(results map[string]analytics.Stats) error {
	if p.format != FormatText {
		return p.encode(results)
	}

	tbl := newTable()
	tbl.AppendHeader(table.Row{"Stylesheet", "All", "Clean", "Total", "Ready"})

	var all, clean, total int

	for _, path := range slices.Sorted(maps.Keys(results)) {
		s := results[path]
		all += s.All
		clean += s.Clean
		total += s.Total

		ready := color.RedString("no")
		if s.Ready() {
			ready = color.GreenString("yes")
		}

		tbl.AppendRow(table.Row{path, humanize.Comma(int64(s.All)), humanize.Comma(int64(s.Clean)),
			humanize.Comma(int64(s.Total)), ready})
	}

	tbl.AppendFooter(table.Row{count(len(results), "stylesheet", "stylesheets"),
		humanize.Comma(int64(all)), humanize.Comma(int64(clean)), humanize.Comma(int64(total)), ""})
	fmt.Fprintln(p.w, tbl.Render())

	return nil
}

// Flattened writes the flattened text of one stylesheet. In text mode a
// diff against the original source is printed when showDiff is set.
func (p *Printer) Flattened(path, source string, result flatten.Result, showDiff bool) error {
	if p.format != FormatText {
		return p.encode(struct {
			Path     string   `json:"path"     yaml:"path"`
			CSS      string   `json:"css"      yaml:"css"`
			TopLevel []string `json:"topLevel" yaml:"topLevel"`
		}{path, result.CSS, result.TopLevel})
	}

	p.heading(path)

	if showDiff {
		fmt.Fprint(p.w, UnifiedDiff(path, source, result.CSS))
	} else {
		fmt.Fprint(p.w, result.CSS)
	}

	fmt.Fprintf(p.w, "top level: %s\n", strings.Join(result.TopLevel, ", "))

	return nil
}

// Duplicates reports namespaced selectors sharing a base name.
func (p *Printer) Duplicates(path string, dups []namespace.Duplicate) error {
	if p.format != FormatText {
		return p.encode(struct {
			Path       string                `json:"path"       yaml:"path"`
			Duplicates []namespace.Duplicate `json:"duplicates" yaml:"duplicates"`
		}{path, dups})
	}

	p.heading(path)

	if len(dups) == 0 {
		fmt.Fprintln(p.w, color.GreenString("no duplicate base selectors"))

		return nil
	}

	tbl := newTable()
	tbl.AppendHeader(table.Row{"Base", "Namespaced"})

	for _, d := range dups {
		tbl.AppendRow(table.Row{d.Base, strings.Join(d.Names, "\n")})
	}

	tbl.AppendFooter(table.Row{"Total", count(len(dups), "duplicate", "duplicates")})
	fmt.Fprintln(p.w, tbl.Render())

	return nil
}

// Verify reports mismatched class names.
func (p *Printer) Verify(result verify.Result) error {
	if p.format != FormatText {
		return p.encode(result)
	}

	fmt.Fprintf(p.w, "defined %s, used %s\n",
		count(len(result.Defined), "name", "names"), count(len(result.Used), "name", "names"))

	if result.OK() {
		fmt.Fprintln(p.w, color.GreenString("every squeaky class name is defined and used"))

		return nil
	}

	color.New(color.FgRed).Fprintln(p.w, "UNUSED SQUEAKY CLASSNAMES")

	for _, name := range result.Mismatched {
		fmt.Fprintf(p.w, "  - %s\n", name)
	}

	color.New(color.FgRed).Fprintln(p.w,
		"Please check the usage of the class name(s) mentioned above by running `squeaky verify` locally!")

	return nil
}

func (p *Printer) heading(title string) {
	color.New(color.Bold).Fprintf(p.w, "=== %s ===\n", title)
}

func (p *Printer) encode(v any) error {
	switch p.format {
	case FormatJSON:
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")

		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
	case FormatYAML:
		enc := yaml.NewEncoder(p.w)
		enc.SetIndent(2)

		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}

		if err := enc.Close(); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
	case FormatText:
		return fmt.Errorf("%w: text has no document encoding", ErrUnknownFormat)
	}

	return nil
}

func newTable() table.Writer {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Options.DrawBorder = false
	tbl.Style().Format.Footer = text.FormatDefault

	return tbl
}

func count(n int, singular, plural string) string {
	return humanize.Comma(int64(n)) + " " + humanize.PluralWord(n, singular, plural)
}
