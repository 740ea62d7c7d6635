package namespace_test

import (
	"context"
	"log/slog"
	"os"
	"regexp"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/squeaky/pkg/namespace"
	"github.com/Sumatoshi-tech/squeaky/pkg/search"
	"github.com/Sumatoshi-tech/squeaky/pkg/selector"
	"github.com/Sumatoshi-tech/squeaky/pkg/stylesheet"
)

var doubledClass = regexp.MustCompile(`\b([\w-]+)\s+([\w-]+)-sqkd-\w+\b`)

func newEngine(t *testing.T, fsys afero.Fs, opts namespace.Options) *namespace.Engine {
	t.Helper()

	return namespace.NewEngine(
		selector.NewClassifier([]string{".foo"}, []string{".ui"}),
		search.NewWalkSearcher(fsys),
		fsys,
		opts,
		slog.New(slog.DiscardHandler),
	)
}

func parse(t *testing.T, path, src string) *stylesheet.Sheet {
	t.Helper()

	sheet, err := stylesheet.Parse(context.Background(), path, []byte(src))
	require.NoError(t, err)

	return sheet
}

func TestHash(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "71ff59", namespace.Hash("{ color: fuchsia }"))
	assert.Len(t, namespace.Hash(""), namespace.HashLen)
}

func TestNamespace_AddsNamespaceAndPropagates(t *testing.T) {
	t.Parallel()

	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "app/dummy.js", []byte(`$el.addClass("a-class-selector")`), 0o600))

	sheet := parse(t, "app/styles.scss", ".a-class-selector { color: fuchsia }")
	engine := newEngine(t, fsys, namespace.Options{Directories: []string{"app"}, Extensions: []string{"js"}})

	classes, err := engine.Namespace(context.Background(), sheet)
	require.NoError(t, err)

	require.Equal(t, []namespace.Namespaced{{Hash: "71ff59", Class: "a-class-selector"}}, classes)
	assert.Equal(t, ".a-class-selector-sqkd-71ff59 { color: fuchsia }", string(sheet.Render()))

	content, err := afero.ReadFile(fsys, "app/dummy.js")
	require.NoError(t, err)
	assert.Equal(t, `$el.addClass("a-class-selector a-class-selector-sqkd-71ff59")`, string(content))
	assert.Regexp(t, doubledClass, string(content))

	info, err := fsys.Stat("app/dummy.js")
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestNamespace_IsIdempotent(t *testing.T) {
	t.Parallel()

	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "app/dummy.js", []byte(`$el.addClass("btn")`), 0o644))

	engine := newEngine(t, fsys, namespace.Options{Directories: []string{"app"}})

	first := parse(t, "app/styles.scss", ".btn { color: red; }")
	_, err := engine.Namespace(context.Background(), first)
	require.NoError(t, err)

	once, err := afero.ReadFile(fsys, "app/dummy.js")
	require.NoError(t, err)

	second := parse(t, "app/styles.scss", string(first.Render()))
	classes, err := engine.Namespace(context.Background(), second)
	require.NoError(t, err)

	twice, err := afero.ReadFile(fsys, "app/dummy.js")
	require.NoError(t, err)

	assert.Empty(t, classes)
	assert.False(t, second.Changed())
	assert.Equal(t, string(once), string(twice))
}

func TestNamespaceSheet_SkipsIneligibleSelectors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
	}{
		{name: "denylisted class", input: ".foo { color: fuchsia }"},
		{name: "denylisted prefix", input: ".ui-button { color: fuchsia }"},
		{name: "no class", input: "div > a { color: fuchsia }"},
		{name: "already namespaced", input: ".btn-sqkd-abcdef { color: fuchsia }"},
		{name: "exception comment", input: ".btn {\n  /* squeaky-skip */\n  color: fuchsia;\n}"},
		{name: "keyframes", input: "@keyframes spin { 0% { opacity: 0; } 100% { opacity: 1; } }"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sheet := parse(t, "a.scss", tt.input)
			engine := newEngine(t, afero.NewMemMapFs(), namespace.Options{})

			assert.Empty(t, engine.NamespaceSheet(sheet))
			assert.Equal(t, tt.input, string(sheet.Render()))
		})
	}
}

func TestNamespaceSheet_PreservesSuffixes(t *testing.T) {
	t.Parallel()

	sheet := parse(t, "a.scss", ".card:hover > .title[data-x], .card::after { color: red; }")
	engine := newEngine(t, afero.NewMemMapFs(), namespace.Options{})

	classes := engine.NamespaceSheet(sheet)

	assert.Equal(t, []namespace.Namespaced{
		{Hash: "cc5d44", Class: "card"},
		{Hash: "cc5d44", Class: "title"},
	}, classes)
	assert.Equal(t,
		".card-sqkd-cc5d44:hover > .title-sqkd-cc5d44[data-x], .card-sqkd-cc5d44::after { color: red; }",
		string(sheet.Render()))
}

func TestNamespaceSheet_ClassNameVariables(t *testing.T) {
	t.Parallel()

	src := "$buttonClassName: '.btn';\n$label_class_name: \"plain\";\n"
	sheet := parse(t, "a.scss", src)
	engine := newEngine(t, afero.NewMemMapFs(), namespace.Options{})

	classes := engine.NamespaceSheet(sheet)

	hash := namespace.Hash(src)
	require.Equal(t, []namespace.Namespaced{{Hash: hash, Class: "btn"}}, classes)
	assert.Equal(t,
		"$buttonClassName: \".btn-sqkd-"+hash+"\";\n$label_class_name: \"plain\";\n",
		string(sheet.Render()))
}

func TestRewriteReferences_DryRunAndFilters(t *testing.T) {
	t.Parallel()

	fsys := afero.NewMemMapFs()
	files := map[string]string{
		"app/views/row.eco":          `<div class="row other"></div>`,
		"app/views/row.coffee":       `@$el.toggleClass 'row'`,
		"app/views/row.txt":          `class="row"`,
		"app/styleguide/row.js":      `addClass("row")`,
		"app/styles/row.scss":        ".x { composes: row from './row.scss'; }",
		"app/views/untouched.coffee": `row = 1`,
	}

	for path, content := range files {
		require.NoError(t, afero.WriteFile(fsys, path, []byte(content), 0o644))
	}

	engine := newEngine(t, fsys, namespace.Options{
		Directories: []string{"app"},
		Extensions:  []string{"js", "coffee", "eco", "scss"},
		ExcludePath: namespace.DefaultExcludePath,
		DryRun:      true,
	})

	rewrites, err := engine.RewriteReferences(context.Background(), "app/styles/main.scss",
		[]namespace.Namespaced{{Hash: "abc123", Class: "row"}})
	require.NoError(t, err)

	got := make(map[string]string, len(rewrites))
	for _, rw := range rewrites {
		got[rw.Path] = rw.After
		assert.Equal(t, files[rw.Path], rw.Before)
	}

	assert.Equal(t, map[string]string{
		"app/styles/row.scss":  ".x { composes: row row-sqkd-abc123 from './row.scss'; }",
		"app/views/row.coffee": `@$el.toggleClass 'row row-sqkd-abc123'`,
		"app/views/row.eco":    `<div class="row row-sqkd-abc123 other"></div>`,
	}, got)

	for path, content := range files {
		onDisk, readErr := afero.ReadFile(fsys, path)
		require.NoError(t, readErr)
		assert.Equal(t, content, string(onDisk), path)
	}
}

func TestRewriteReferences_SkipsSheetItself(t *testing.T) {
	t.Parallel()

	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "app/a.scss", []byte(".x { composes: row from './b'; }"), 0o644))

	engine := newEngine(t, fsys, namespace.Options{Directories: []string{"app"}})

	rewrites, err := engine.RewriteReferences(context.Background(), "app/a.scss",
		[]namespace.Namespaced{{Hash: "abc123", Class: "row"}})
	require.NoError(t, err)
	assert.Empty(t, rewrites)
}

func TestRewriteReferences_InvalidCustomRegexp(t *testing.T) {
	t.Parallel()

	engine := newEngine(t, afero.NewMemMapFs(), namespace.Options{Regexps: []string{"("}})

	_, err := engine.RewriteReferences(context.Background(), "a.scss",
		[]namespace.Namespaced{{Hash: "abc123", Class: "row"}})
	require.Error(t, err)
}

func TestDuplicateBases(t *testing.T) {
	t.Parallel()

	sheet := parse(t, "a.scss", `
.btn-sqkd-aaaaaa { color: red; }
.btn-sqkd-bbbbbb .icon-sqkd-cccccc { color: blue; }
.icon-sqkd-cccccc, .plain { color: green; }
`)

	assert.Equal(t, []namespace.Duplicate{
		{Base: "btn", Names: []string{"btn-sqkd-aaaaaa", "btn-sqkd-bbbbbb"}},
	}, namespace.DuplicateBases(sheet))
}
