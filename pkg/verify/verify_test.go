package verify_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/squeaky/pkg/verify"
)

func newFs(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()

	fsys := afero.NewMemMapFs()
	for path, content := range files {
		require.NoError(t, afero.WriteFile(fsys, path, []byte(content), 0o644))
	}

	return fsys
}

func TestRun_AllNamesMatch(t *testing.T) {
	t.Parallel()

	fsys := newFs(t, map[string]string{
		"app/styles/table.scss": ".row-sqkd-aaaaaa { color: red; }\n.cell-sqkd-bbbbbb a { color: blue; }\n",
		"app/views/table.js":    `el.className = "row-sqkd-aaaaaa";`,
		"app/views/cell.eco":    `<td class="cell-sqkd-bbbbbb"></td>`,
	})

	result, err := verify.NewVerifier(fsys, verify.Options{Directories: []string{"app"}},
		slog.New(slog.DiscardHandler)).Run(context.Background())
	require.NoError(t, err)

	assert.True(t, result.OK())
	assert.Equal(t, []string{"cell-sqkd-bbbbbb", "row-sqkd-aaaaaa"}, result.Defined)
	assert.Equal(t, result.Defined, result.Used)
}

func TestRun_ReportsBothDirections(t *testing.T) {
	t.Parallel()

	fsys := newFs(t, map[string]string{
		"app/styles/table.css": ".row-sqkd-aaaaaa { color: red; }\n.stale-sqkd-cccccc { color: blue; }\n",
		"app/views/table.rb":   `content_tag :div, class: "row-sqkd-aaaaaa typo-sqkd-dddddd"`,
		"app/views/notes.txt":  `stray-sqkd-eeeeee`,
	})

	result, err := verify.NewVerifier(fsys, verify.Options{Directories: []string{"app"}},
		slog.New(slog.DiscardHandler)).Run(context.Background())
	require.NoError(t, err)

	assert.False(t, result.OK())
	assert.Equal(t, []string{"stale-sqkd-cccccc", "typo-sqkd-dddddd"}, result.Mismatched)
}

func TestRun_ComposesCountAsUsage(t *testing.T) {
	t.Parallel()

	fsys := newFs(t, map[string]string{
		"app/styles/base.scss":   ".btn-sqkd-aaaaaa { color: red; }\n.link-sqkd-bbbbbb { color: blue; }\n",
		"app/styles/button.scss": ".primary { composes: btn-sqkd-aaaaaa from './base.scss'; }\n",
		"web/src/link.css":       ".anchor {\n  composes: link-sqkd-bbbbbb plain from '../../app/styles/base.scss';\n}\n",
	})

	result, err := verify.NewVerifier(fsys, verify.Options{
		Directories:        []string{"app"},
		ComposeDirectories: []string{"web", "missing"},
	}, slog.New(slog.DiscardHandler)).Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, result.Mismatched)
	assert.Equal(t, []string{"btn-sqkd-aaaaaa", "link-sqkd-bbbbbb"}, result.Used)
}

func TestRun_UsageExtensionsOverride(t *testing.T) {
	t.Parallel()

	fsys := newFs(t, map[string]string{
		"app/styles/a.scss": ".row-sqkd-aaaaaa { color: red; }\n",
		"app/views/a.tsx":   `<div className="row-sqkd-aaaaaa" />`,
	})

	opts := verify.Options{Directories: []string{"app"}, UsageExtensions: []string{"tsx"}}

	result, err := verify.NewVerifier(fsys, opts, slog.New(slog.DiscardHandler)).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, result.OK())
}

func TestRun_NoDirectories(t *testing.T) {
	t.Parallel()

	result, err := verify.NewVerifier(afero.NewMemMapFs(), verify.Options{Directories: []string{"nope"}},
		slog.New(slog.DiscardHandler)).Run(context.Background())
	require.NoError(t, err)

	assert.True(t, result.OK())
	assert.Empty(t, result.Defined)
}
