package stylesheet_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/squeaky/pkg/stylesheet"
)

const nestedSource = `.foo, .bar {
  color: fuchsia;

  a {
    border: 0;

    .baz { padding: 1px !important; }
  }
}
`

func parse(t *testing.T, src string) *stylesheet.Sheet {
	t.Helper()

	sheet, err := stylesheet.Parse(context.Background(), "test.scss", []byte(src))
	require.NoError(t, err)

	return sheet
}

func TestParse_NestedRules(t *testing.T) {
	t.Parallel()

	sheet := parse(t, nestedSource)

	rules := sheet.Rules()
	require.Len(t, rules, 3)

	assert.Equal(t, []string{".foo", ".bar"}, rules[0].Selectors)
	assert.Equal(t, 1, rules[0].Line)
	assert.Equal(t, []string{"a"}, rules[1].Selectors)
	assert.Same(t, rules[0], rules[1].Parent)
	assert.Equal(t, []string{".baz"}, rules[2].Selectors)
	assert.True(t, rules[2].IsLeaf())
	assert.False(t, rules[0].IsLeaf())

	require.Len(t, rules[0].Declarations, 1)
	assert.Equal(t, "color", rules[0].Declarations[0].Property)
	assert.Equal(t, "fuchsia", rules[0].Declarations[0].Value)
	assert.Equal(t, 2, rules[0].Declarations[0].Line)

	require.Len(t, rules[2].Declarations, 1)
	assert.Equal(t, "1px", rules[2].Declarations[0].Value)
	assert.True(t, rules[2].Declarations[0].Important)
}

func TestParse_RootHasNoSelectors(t *testing.T) {
	t.Parallel()

	sheet := parse(t, nestedSource)

	assert.False(t, sheet.Root.IsStyle())
	assert.Nil(t, sheet.Root.Parent)
	assert.Same(t, sheet.Root, sheet.Rules()[0].Parent)
}

func TestParse_AtRuleTerminatesAncestry(t *testing.T) {
	t.Parallel()

	sheet := parse(t, "@media print {\n  .foo { color: red; }\n}\n")

	rules := sheet.Rules()
	require.Len(t, rules, 1)

	parent := rules[0].Parent
	require.NotNil(t, parent)
	assert.False(t, parent.IsStyle())
	assert.Equal(t, "@media print", parent.AtRule)
}

func TestParse_Comments(t *testing.T) {
	t.Parallel()

	sheet := parse(t, ".foo {\n  /* squeaky-skip */\n  color: red;\n}\n")

	rule := sheet.Rules()[0]
	require.Len(t, rule.Comments, 1)
	assert.Equal(t, "squeaky-skip", rule.Comments[0].Text)
	assert.True(t, rule.HasComment("squeaky-skip"))
	assert.False(t, rule.HasComment("other"))
}

func TestParse_BlockText(t *testing.T) {
	t.Parallel()

	sheet := parse(t, ".foo { color: red; }")

	assert.Equal(t, "{ color: red; }", sheet.Rules()[0].Block)
}

func TestParse_RecoversStrayBrace(t *testing.T) {
	t.Parallel()

	src := ".foo { color: red; }\n}\n"
	sheet := parse(t, src)

	require.NotEmpty(t, sheet.Recovered)
	assert.Equal(t, 2, sheet.Recovered[0].Line)
	assert.Equal(t, "}", sheet.Recovered[0].Text)
	require.NotEmpty(t, sheet.Rules())
	assert.Equal(t, []string{".foo"}, sheet.Rules()[0].Selectors)
	assert.Equal(t, src, string(sheet.Render()))
}

func TestParse_RecoversUnknownSyntax(t *testing.T) {
	t.Parallel()

	const head = ".head { color: red; }\n"

	tests := []struct {
		name string
		src  string
	}{
		{name: "comma listed keyframe selectors", src: "@keyframes k { 0%, 50% { opacity: 0 } }\n"},
		{name: "extend placeholder", src: ".a { @extend %ph; }\n"},
		{name: "sass map", src: "$m: (a: 1, b: 2);\n"},
		{name: "module function", src: ".a { width: math.div(1, 2); }\n"},
		{name: "each over list", src: "@each $n in a, b { .a { color: red; } }\n"},
		{name: "nested properties", src: ".a { font: { family: x; } }\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			src := head + tt.src
			sheet := parse(t, src)

			assert.NotEmpty(t, sheet.Recovered)
			require.NotEmpty(t, sheet.Rules())
			assert.Equal(t, []string{".head"}, sheet.Rules()[0].Selectors)
			assert.Equal(t, src, string(sheet.Render()))
		})
	}
}

func TestRender_Unchanged(t *testing.T) {
	t.Parallel()

	sheet := parse(t, nestedSource)

	assert.Equal(t, nestedSource, string(sheet.Render()))
	assert.False(t, sheet.Changed())
}

func TestRender_SelectorAndDeclarationEdits(t *testing.T) {
	t.Parallel()

	sheet := parse(t, nestedSource)
	rules := sheet.Rules()

	rules[0].Selectors[1] = ".bar-sqkd-abcdef"
	rules[1].Declarations[0].Important = true
	rules[2].Declarations[0].Value = "2px"

	expected := `.foo, .bar-sqkd-abcdef {
  color: fuchsia;

  a {
    border: 0 !important;

    .baz { padding: 2px !important; }
  }
}
`

	assert.Equal(t, expected, string(sheet.Render()))
	assert.True(t, sheet.Changed())
}

func TestRender_KeepsMultilineSeparator(t *testing.T) {
	t.Parallel()

	sheet := parse(t, ".a,\n.b {\n  color: red;\n}\n")
	rule := sheet.Rules()[0]

	rule.Selectors[0] = ".a-sqkd-123456"

	assert.Equal(t, ".a-sqkd-123456,\n.b {\n  color: red;\n}\n", string(sheet.Render()))
}

func TestSplitSelectors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     string
		parts     []string
		separator string
	}{
		{name: "single", input: ".a", parts: []string{".a"}},
		{name: "comma", input: ".a, .b", parts: []string{".a", ".b"}, separator: ", "},
		{name: "newline", input: ".a,\n  .b", parts: []string{".a", ".b"}, separator: ",\n  "},
		{name: "pseudo args", input: ".a:not(.b, .c), .d", parts: []string{".a:not(.b, .c)", ".d"}, separator: ", "},
		{name: "attribute", input: `[data-x="a,b"] .c`, parts: []string{`[data-x="a,b"] .c`}},
		{name: "interpolation", input: ".a-#{$x, $y}", parts: []string{".a-#{$x, $y}"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			parts, separator := stylesheet.SplitSelectors(tt.input)
			assert.Equal(t, tt.parts, parts)
			assert.Equal(t, tt.separator, separator)
		})
	}
}
