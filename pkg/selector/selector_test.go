package selector_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/squeaky/pkg/selector"
	"github.com/Sumatoshi-tech/squeaky/pkg/stylesheet"
)

func TestClasses(t *testing.T) {
	t.Parallel()

	tokens := selector.Classes(`a.foo:hover > .bar-baz[data-x=".no"] \.esc`)
	require.Len(t, tokens, 2)

	assert.Equal(t, "foo", tokens[0].Name)
	assert.Equal(t, 1, tokens[0].Start)
	assert.Equal(t, 5, tokens[0].End)
	assert.Equal(t, "bar-baz", tokens[1].Name)
}

func TestClassNames_PseudoArguments(t *testing.T) {
	t.Parallel()

	names := selector.ClassNames(".row:not(.a-sqkd-123456):not(.b)")
	assert.Equal(t, []string{"row", "a-sqkd-123456", "b"}, names)
}

func TestBaseSelectors(t *testing.T) {
	t.Parallel()

	bases := selector.BaseSelectors([]string{"std-btn-sqkd-beefdead", "icon-sqkd-fadebeef", "icon-sqkd-fadebeef", "x"})
	assert.Equal(t, []string{"std-btn", "icon", "x"}, bases)
}

func TestIsIgnored(t *testing.T) {
	t.Parallel()

	tests := []struct {
		sel     string
		ignored bool
	}{
		{sel: ".foo", ignored: false},
		{sel: "a.foo:hover", ignored: false},
		{sel: ".foo-#{$bar}", ignored: true},
		{sel: "50%", ignored: true},
		{sel: "12.5%", ignored: true},
		{sel: "h1 a", ignored: true},
		{sel: "#id", ignored: true},
	}

	for _, tt := range tests {
		t.Run(tt.sel, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.ignored, selector.IsIgnored(tt.sel))
		})
	}
}

func TestClassifier(t *testing.T) {
	t.Parallel()

	classifier := selector.NewClassifier(
		[]string{".disabled", "item"},
		[]string{".ui-", "select2"},
	)

	tests := []struct {
		name      string
		sel       string
		ignored   bool
		blockedBy string
	}{
		{name: "eligible", sel: ".btn .icon"},
		{name: "exact class", sel: ".btn.disabled", blockedBy: ".disabled"},
		{name: "entry without dot", sel: ".list .item", blockedBy: ".item"},
		{name: "prefix", sel: ".ui-widget .btn", blockedBy: ".ui-widget"},
		{name: "prefix reported before exact", sel: ".disabled .select2-drop", blockedBy: ".select2-drop"},
		{name: "selector order", sel: ".item .disabled", blockedBy: ".item"},
		{name: "ignored", sel: "h1", ignored: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := classifier.Classify(tt.sel)
			assert.Equal(t, tt.ignored, got.Ignored)
			assert.Equal(t, tt.blockedBy, got.BlockedBy)
			assert.Equal(t, !tt.ignored && tt.blockedBy == "", got.Eligible())
		})
	}
}

func TestCalculate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		sel  string
		want string
	}{
		{sel: ".foo", want: "0,0,1,0"},
		{sel: "h1", want: "0,0,0,1"},
		{sel: "h1 a.baz btn", want: "0,0,1,3"},
		{sel: ".foo button:hover", want: "0,0,2,1"},
		{sel: ".foo %baz", want: "0,0,1,1"},
		{sel: "#main .a > .b ~ li::before", want: "0,1,2,2"},
		{sel: ".foo .row:not(.a):not(.b)", want: "0,0,4,0"},
		{sel: "input[type=text]:focus", want: "0,0,2,1"},
		{sel: "& .a", want: "0,0,1,0"},
		{sel: "a:where(.x)", want: "0,0,0,1"},
		{sel: "p::after", want: "0,0,0,2"},
		{sel: "a:after", want: "0,0,0,2"},
		{sel: "> .a", want: "0,0,1,0"},
		{sel: "&.active", want: "0,0,1,0"},
		{sel: "&", want: "0,0,0,0"},
		{sel: ".icon-#{$n}:hover", want: "0,0,2,0"},
		{sel: "a[href=\"x:y\"]", want: "0,0,1,1"},
		{sel: ".a:nth-child(2n+1)", want: "0,0,2,0"},
		{sel: ":is(.a, #b) span", want: "0,1,0,1"},
		{sel: ".a:has(> img)", want: "0,0,1,1"},
		{sel: ".a:not(&.b)", want: "0,0,2,0"},
		{sel: ".a:not(%ph)", want: "0,0,1,1"},
	}

	for _, tt := range tests {
		t.Run(tt.sel, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, selector.Calculate(tt.sel).String())
		})
	}
}

func TestSpecificity_Compare(t *testing.T) {
	t.Parallel()

	low := selector.Specificity{0, 0, 2, 0}
	high := selector.Specificity{0, 1, 0, 0}

	assert.Equal(t, -1, low.Compare(high))
	assert.Equal(t, 1, high.Compare(low))
	assert.Equal(t, 0, low.Compare(low))
	assert.Equal(t, []int{0, 1, 0, 0}, high.Slice())
}

func TestFullSelectors(t *testing.T) {
	t.Parallel()

	src := `.c, .d {
  .a, .b {
    color: red;
  }
}
@media print {
  .e { .f { color: blue; } }
}
`

	sheet, err := stylesheet.Parse(context.Background(), "full.scss", []byte(src))
	require.NoError(t, err)

	rules := sheet.Rules()
	require.Len(t, rules, 4)

	assert.Equal(t, []string{".c", ".d"}, selector.FullSelectors(rules[0]))
	assert.Equal(t, []string{".c .a", ".c .b", ".d .a", ".d .b"}, selector.FullSelectors(rules[1]))
	assert.Equal(t, []string{".e .f"}, selector.FullSelectors(rules[3]))
	assert.Nil(t, selector.FullSelectors(sheet.Root))
}
