package report_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/squeaky/pkg/analytics"
	"github.com/Sumatoshi-tech/squeaky/pkg/ancestry"
	"github.com/Sumatoshi-tech/squeaky/pkg/flatten"
	"github.com/Sumatoshi-tech/squeaky/pkg/namespace"
	"github.com/Sumatoshi-tech/squeaky/pkg/report"
	"github.com/Sumatoshi-tech/squeaky/pkg/selector"
	"github.com/Sumatoshi-tech/squeaky/pkg/specificity"
	"github.com/Sumatoshi-tech/squeaky/pkg/verify"
)

func TestParseFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    report.Format
		wantErr bool
	}{
		{in: "", want: report.FormatText},
		{in: "text", want: report.FormatText},
		{in: "JSON", want: report.FormatJSON},
		{in: "yaml", want: report.FormatYAML},
		{in: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got, err := report.ParseFormat(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, report.ErrUnknownFormat)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func conflicts() map[string]map[string]*specificity.Conflict {
	winner := specificity.Candidate{
		Value: "peru", Source: ".table .btn", Specificity: selector.Specificity{0, 0, 2, 0},
		File: "b.scss", Line: 4,
	}

	return map[string]map[string]*specificity.Conflict{
		".btn": {"color": {MostSpecific: winner, Values: []specificity.Candidate{winner, {Value: "orange"}}}},
	}
}

func TestPrinter_ConflictsText(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	ties := map[string]specificity.Tie{".btn": {
		Winner: specificity.Candidate{File: "b.scss", Line: 4},
		Loser:  specificity.Candidate{File: "a.scss", Line: 2},
	}}

	require.NoError(t, report.NewPrinter(&buf, report.FormatText).Conflicts(conflicts(), ties))

	out := buf.String()
	assert.Contains(t, out, ".btn")
	assert.Contains(t, out, "peru")
	assert.Contains(t, out, "0,0,2,0")
	assert.Contains(t, out, "b.scss:4")
	assert.Contains(t, out, "a.scss:2")
	assert.Contains(t, out, "1 conflict")
}

func TestPrinter_ConflictsJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, report.NewPrinter(&buf, report.FormatJSON).Conflicts(conflicts(), nil))

	var decoded struct {
		Conflicts map[string]map[string]specificity.Conflict `json:"conflicts"`
	}

	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "peru", decoded.Conflicts[".btn"]["color"].MostSpecific.Value)
	assert.Len(t, decoded.Conflicts[".btn"]["color"].Values, 2)
}

func TestPrinter_StatsYAML(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	results := map[string]analytics.Stats{"a.scss": {All: 4, Clean: 1, Total: 2}}
	require.NoError(t, report.NewPrinter(&buf, report.FormatYAML).Stats(results))

	var decoded map[string]analytics.Stats
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, results, decoded)
}

func TestPrinter_StatsText(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	results := map[string]analytics.Stats{
		"a.scss": {All: 1200, Clean: 2, Total: 2},
		"b.scss": {All: 3, Clean: 0, Total: 1},
	}
	require.NoError(t, report.NewPrinter(&buf, report.FormatText).Stats(results))

	out := buf.String()
	assert.Contains(t, out, "1,200")
	assert.Contains(t, out, "1,203")
	assert.Contains(t, out, "2 stylesheets")
	assert.Contains(t, out, "yes")
	assert.Contains(t, out, "no")
}

func TestPrinter_CleanWithDiff(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	classes := []namespace.Namespaced{{Hash: "71ff59", Class: ".btn"}}
	rewrites := []namespace.Rewrite{{
		Path:   "app/view.js",
		Before: "a\nel.addClass('btn')\nb\n",
		After:  "a\nel.addClass('btn-sqkd-71ff59')\nb\n",
	}}

	require.NoError(t, report.NewPrinter(&buf, report.FormatText).Clean("a.scss", classes, rewrites, true))

	out := buf.String()
	assert.Contains(t, out, "=== a.scss ===")
	assert.Contains(t, out, ".btn-sqkd-71ff59")
	assert.Contains(t, out, "would rewrite app/view.js")
	assert.Contains(t, out, "-el.addClass('btn')")
	assert.Contains(t, out, "+el.addClass('btn-sqkd-71ff59')")
}

func TestPrinter_CleanJSONOmitsContents(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	rewrites := []namespace.Rewrite{{Path: "app/view.js", Before: "secret", After: "other"}}
	require.NoError(t, report.NewPrinter(&buf, report.FormatJSON).Clean("a.scss", nil, rewrites, true))

	assert.Contains(t, buf.String(), `"path": "app/view.js"`)
	assert.NotContains(t, buf.String(), "secret")
}

func TestPrinter_Rounds(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	rounds := []ancestry.Round{{Removals: []ancestry.Removal{{Selector: ".bar-sqkd-fadedbabe", Files: []string{"app/b.js"}}}}}
	require.NoError(t, report.NewPrinter(&buf, report.FormatText).Rounds("a.scss", rounds))

	assert.Contains(t, buf.String(), ".bar-sqkd-fadedbabe")
	assert.Contains(t, buf.String(), "app/b.js")
	assert.Contains(t, buf.String(), "1 round")
}

func TestPrinter_Duplicates(t *testing.T) {
	t.Parallel()

	var none bytes.Buffer
	require.NoError(t, report.NewPrinter(&none, report.FormatText).Duplicates("a.scss", nil))
	assert.Contains(t, none.String(), "no duplicate base selectors")

	var buf bytes.Buffer

	dups := []namespace.Duplicate{{Base: ".btn", Names: []string{".btn-sqkd-aaaaaa", ".btn-sqkd-bbbbbb"}}}
	require.NoError(t, report.NewPrinter(&buf, report.FormatText).Duplicates("a.scss", dups))
	assert.Contains(t, buf.String(), ".btn-sqkd-bbbbbb")
}

func TestPrinter_Verify(t *testing.T) {
	t.Parallel()

	var ok bytes.Buffer
	require.NoError(t, report.NewPrinter(&ok, report.FormatText).Verify(verify.Result{}))
	assert.Contains(t, ok.String(), "every squeaky class name is defined and used")

	var bad bytes.Buffer

	result := verify.Result{Defined: []string{"a-sqkd-aaaaaa"}, Mismatched: []string{"a-sqkd-aaaaaa"}}
	require.NoError(t, report.NewPrinter(&bad, report.FormatText).Verify(result))
	assert.Contains(t, bad.String(), "UNUSED SQUEAKY CLASSNAMES")
	assert.Contains(t, bad.String(), "  - a-sqkd-aaaaaa")
}

func TestPrinter_Flattened(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	result := flatten.Result{CSS: ".a {\n}\n", TopLevel: []string{".a"}}
	require.NoError(t, report.NewPrinter(&buf, report.FormatText).Flattened("a.scss", "", result, false))

	assert.Contains(t, buf.String(), ".a {\n}\n")
	assert.Contains(t, buf.String(), "top level: .a")
}

func TestUnifiedDiff(t *testing.T) {
	t.Parallel()

	assert.Empty(t, report.UnifiedDiff("a", "same\n", "same\n"))

	got := report.UnifiedDiff("a.js", "one\ntwo\n", "one\nthree\n")
	assert.Contains(t, got, "--- a/a.js\n+++ b/a.js\n")
	assert.Contains(t, got, " one\n")
	assert.Contains(t, got, "-two\n")
	assert.Contains(t, got, "+three\n")
}
