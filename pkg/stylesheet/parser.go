package stylesheet

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/alexaandru/go-sitter-forest/scss"
	sitter "github.com/alexaandru/go-tree-sitter-bare"
)

// Tree-sitter SCSS node types.
const (
	nodeRuleSet           = "rule_set"
	nodeSelectors         = "selectors"
	nodeBlock             = "block"
	nodeDeclaration       = "declaration"
	nodeImportant         = "important"
	nodeComment           = "comment"
	nodeSingleLineComment = "single_line_comment"
	nodePlaceholder       = "placeholder"
	nodeKeyframeBlock     = "keyframe_block"
	nodeKeyframeBlockList = "keyframe_block_list"
	nodeError             = "ERROR"
)

var importantSuffix = regexp.MustCompile(`\s*!\s*important\s*$`)

var (
	languageOnce sync.Once
	scssLanguage *sitter.Language
)

func language() *sitter.Language {
	languageOnce.Do(func() {
		scssLanguage = sitter.NewLanguage(scss.GetLanguage())
	})

	return scssLanguage
}

// maxRecoveries bounds how many times unparseable spans are blanked out and
// the source reparsed.
const maxRecoveries = 16

// Recovery is a span the parser could not understand. No rule is built from
// it and Render leaves it untouched.
type Recovery struct {
	Line   int
	Column int
	Text   string

	start, end int
}

// Parse builds a rule tree from SCSS or CSS source. Syntax the grammar does
// not know (Sass maps, module functions, nested properties and similar) is
// blanked out and reported in Sheet.Recovered. Parsing fails only when such a
// span overlaps a selector that namespacing would rewrite.
func Parse(ctx context.Context, path string, src []byte) (*Sheet, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(language())

	var (
		masked    = src
		cloned    bool
		recovered []Recovery
	)

	for attempt := 0; ; attempt++ {
		tree, err := parser.ParseString(ctx, nil, masked)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrParse, path, err)
		}

		root := tree.RootNode()
		if root.IsNull() {
			tree.Close()

			return nil, fmt.Errorf("%w: %s: empty tree", ErrParse, path)
		}

		spans := errorNodes(root, nil)
		if len(spans) == 0 {
			sheet, buildErr := build(path, src, root, recovered)
			tree.Close()

			return sheet, buildErr
		}

		tree.Close()

		if attempt == maxRecoveries {
			bad := spans[0]

			return nil, fmt.Errorf("%w: %s:%d:%d", ErrParse, path, bad.Line, bad.Column)
		}

		if !cloned {
			masked, cloned = slices.Clone(src), true
		}

		for _, span := range spans {
			span.Text = strings.TrimSpace(string(src[span.start:span.end]))
			recovered = append(recovered, span)
			blank(masked, span.start, span.end)
		}
	}
}

func build(path string, src []byte, root sitter.Node, recovered []Recovery) (*Sheet, error) {
	sheet := &Sheet{
		Path:      path,
		Root:      &Rule{Line: 1, Column: 1, Block: string(src)},
		Recovered: recovered,
		src:       src,
	}

	b := &builder{src: src}
	b.fill(sheet.Root, root)

	if bad, found := selectorOverlap(sheet.Rules(), recovered); found {
		return nil, fmt.Errorf("%w: %s:%d:%d: unparseable selector %q", ErrParse, path, bad.Line, bad.Column, bad.Text)
	}

	return sheet, nil
}

// errorNodes collects the outermost ERROR nodes under n.
func errorNodes(n sitter.Node, out []Recovery) []Recovery {
	if n.Type() == nodeError {
		return append(out, Recovery{
			Line:   int(n.StartPoint().Row) + 1,
			Column: int(n.StartPoint().Column) + 1,
			start:  int(n.StartByte()),
			end:    int(n.EndByte()),
		})
	}

	for idx := range n.ChildCount() {
		out = errorNodes(n.Child(idx), out)
	}

	return out
}

// blank replaces src[start:end] with spaces, keeping newlines so byte
// offsets and line numbers of everything else stay valid.
func blank(src []byte, start, end int) {
	for idx := start; idx < end && idx < len(src); idx++ {
		if src[idx] != '\n' && src[idx] != '\r' {
			src[idx] = ' '
		}
	}
}

// selectorOverlap finds a recovered span intersecting the selector text of
// any rule.
func selectorOverlap(rules []*Rule, recovered []Recovery) (Recovery, bool) {
	for _, r := range rules {
		if len(r.Selectors) == 0 {
			continue
		}

		for _, span := range recovered {
			if span.start < r.selEnd && r.selStart < span.end {
				return span, true
			}
		}
	}

	return Recovery{}, false
}

type builder struct {
	src []byte
}

func (b *builder) text(n sitter.Node) string {
	return string(b.src[n.StartByte():n.EndByte()])
}

func (b *builder) fill(rule *Rule, n sitter.Node) {
	for idx := range n.NamedChildCount() {
		child := n.NamedChild(idx)

		switch child.Type() {
		case nodeDeclaration:
			rule.Declarations = append(rule.Declarations, b.declaration(child))
		case nodeComment, nodeSingleLineComment:
			rule.Comments = append(rule.Comments, &Comment{
				Text: commentText(b.text(child)),
				Line: int(child.StartPoint().Row) + 1,
			})
		default:
			block, ok := blockOf(child)
			if !ok {
				continue
			}

			nested := b.rule(child, block)
			nested.Parent = rule
			rule.Children = append(rule.Children, nested)
			b.fill(nested, block)
		}
	}
}

func (b *builder) rule(n, block sitter.Node) *Rule {
	r := &Rule{
		Line:   int(n.StartPoint().Row) + 1,
		Column: int(n.StartPoint().Column) + 1,
		Block:  b.text(block),
	}

	switch n.Type() {
	case nodeRuleSet:
		for idx := range n.NamedChildCount() {
			if sel := n.NamedChild(idx); sel.Type() == nodeSelectors {
				b.selectors(r, int(sel.StartByte()), int(sel.EndByte()))

				break
			}
		}
	case nodePlaceholder, nodeKeyframeBlock:
		b.selectors(r, int(n.StartByte()), int(block.StartByte()))
	default:
		r.AtRule = strings.TrimSpace(string(b.src[n.StartByte():block.StartByte()]))
	}

	return r
}

func (b *builder) selectors(r *Rule, start, end int) {
	for start < end && isSpace(b.src[start]) {
		start++
	}

	for end > start && isSpace(b.src[end-1]) {
		end--
	}

	r.selStart, r.selEnd = start, end
	r.Selectors, r.separator = SplitSelectors(string(b.src[start:end]))
	r.origSelectors = append([]string(nil), r.Selectors...)
}

func (b *builder) declaration(n sitter.Node) *Declaration {
	start, end := int(n.StartByte()), int(n.EndByte())
	raw := string(b.src[start:end])

	d := &Declaration{Line: int(n.StartPoint().Row) + 1}

	colon := strings.IndexByte(raw, ':')
	if colon < 0 {
		d.Property = strings.TrimSpace(raw)
		d.valStart, d.valEnd = end, end

		return d
	}

	d.Property = strings.TrimSpace(raw[:colon])

	valStart := start + colon + 1
	valEnd := end

	if strings.HasSuffix(raw, ";") {
		valEnd--
	}

	for idx := range n.NamedChildCount() {
		if imp := n.NamedChild(idx); imp.Type() == nodeImportant {
			valEnd = int(imp.StartByte())
			d.Important = true

			break
		}
	}

	if !d.Important {
		if loc := importantSuffix.FindIndex(b.src[valStart:valEnd]); loc != nil {
			valEnd = valStart + loc[0]
			d.Important = true
		}
	}

	for valStart < valEnd && isSpace(b.src[valStart]) {
		valStart++
	}

	for valEnd > valStart && isSpace(b.src[valEnd-1]) {
		valEnd--
	}

	d.valStart, d.valEnd = valStart, valEnd
	d.Value = string(b.src[valStart:valEnd])
	d.origValue = d.Value
	d.origImportant = d.Important

	return d
}

// blockOf returns the block child of a rule-like node.
func blockOf(n sitter.Node) (sitter.Node, bool) {
	for idx := range n.NamedChildCount() {
		child := n.NamedChild(idx)
		if child.Type() == nodeBlock || child.Type() == nodeKeyframeBlockList {
			return child, true
		}
	}

	return sitter.Node{}, false
}

func commentText(raw string) string {
	switch {
	case strings.HasPrefix(raw, "/*"):
		raw = strings.TrimSuffix(strings.TrimPrefix(raw, "/*"), "*/")
	case strings.HasPrefix(raw, "//"):
		raw = strings.TrimPrefix(raw, "//")
	}

	return strings.TrimSpace(raw)
}
