package namespace

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Sumatoshi-tech/squeaky/pkg/selector"
)

// classChars is the character class of a space-separated class list.
const classChars = `[\w\s_-]`

var (
	composesRule = regexp.MustCompile(`(composes:\s+)(` + classChars + `+?)(from\b)`)

	scriptRules = []*regexp.Regexp{
		// class: "a b", className="a b", klass = 'a'
		regexp.MustCompile(`([cCk]lass(?:Names?|es)?[:=][^({:]*?['"])(\w` + classChars + `+)`),
		// addClass("a"), removeClassSVG 'a'
		regexp.MustCompile(`((?:(?:add|remove|toggle)Class(?:SVG)?)(?:\s|\()['"])(` + classChars + `+)`),
		// class: => "a", classes => 'a'
		regexp.MustCompile(`([cCk]lass(?:es)?.+?=>.+?)(\w` + classChars + `*)`),
		// class="a <%= x %> b" if cond
		regexp.MustCompile(`(class=['"]` + classChars + `+?<%=.+?['"])(\w` + classChars + `+)(['"]\s+(?:if|unless))`),
		// className = cond ? "a" : "b"
		regexp.MustCompile(`([cC]lass(?:Names?)?\s+?=.+?['"])(\w` + classChars + `+?)(['"])`),
	}

	dynamicClassNameRule = regexp.MustCompile(`\sclassName:\s+->[\n\r]+?(?:.+?[\n\r])+?`)
	quotedClauseRule     = regexp.MustCompile(`(.+?['"])(.+?)(['"])`)

	ternaryRule          = regexp.MustCompile(`(:?class.*?=>?.+?<%=.+?\s+?\?)(.+?)(%>)`)
	interpolationRule    = regexp.MustCompile(`(:?class.*?=>?.+?#\{)(.+?)(\})`)
	interpolationClauses = regexp.MustCompile(`(.*?['"])(.+?)(['"])`)
)

// Replacer rewrites references to one class in file contents.
type Replacer struct {
	class      string
	namespaced string
	custom     []*regexp.Regexp
}

// NewReplacer builds a Replacer for class and hash. Each custom expression is
// used as the prefix of a class list, e.g. `data-toggle-class="`.
func NewReplacer(class, hash string, custom []string) (*Replacer, error) {
	r := &Replacer{class: class, namespaced: class + selector.Marker + hash}

	for _, expr := range custom {
		re, err := regexp.Compile(`(` + expr + `)(\w` + classChars + `+)`)
		if err != nil {
			return nil, fmt.Errorf("compile custom replacer %q: %w", expr, err)
		}

		r.custom = append(r.custom, re)
	}

	return r, nil
}

// Replace applies the rules of category to contents.
func (r *Replacer) Replace(contents string, category Category) string {
	switch category {
	case Stylesheet:
		return replaceGroups(composesRule, contents, r.classList)
	case Script, Markup, TemplateWithInterpolation:
	default:
		return contents
	}

	out := contents
	for _, re := range scriptRules {
		out = replaceGroups(re, out, r.classList)
	}

	if category != Markup {
		out = dynamicClassNameRule.ReplaceAllStringFunc(out, r.dynamicBody)
	}

	for _, re := range r.custom {
		out = replaceGroups(re, out, r.classList)
	}

	if category == TemplateWithInterpolation {
		out = replaceGroups(ternaryRule, out, r.ternary)
		out = replaceGroups(interpolationRule, out, r.interpolation)
	}

	return out
}

// classList adds the namespaced token next to every exact occurrence of the
// class. Lists already carrying it, or spanning lines, are left alone.
func (r *Replacer) classList(classes string) string {
	if strings.Contains(classes, r.namespaced) || strings.Contains(classes, "\n") {
		return classes
	}

	parts := strings.Split(classes, " ")
	for i, part := range parts {
		if part == r.class {
			parts[i] = part + " " + r.namespaced
		}
	}

	return strings.Join(parts, " ")
}

func (r *Replacer) dynamicBody(body string) string {
	if strings.Contains(body, r.namespaced) {
		return body
	}

	lines := strings.Split(body, "\n")
	for i, line := range lines {
		lines[i] = replaceGroups(quotedClauseRule, line, r.classList)
	}

	return strings.Join(lines, "\n")
}

func (r *Replacer) ternary(ternary string) string {
	if strings.Contains(ternary, r.namespaced) {
		return ternary
	}

	clauses := strings.Split(ternary, ":")
	for i, clause := range clauses {
		clauses[i] = replaceGroups(quotedClauseRule, clause, r.classList)
	}

	return strings.Join(clauses, ":")
}

func (r *Replacer) interpolation(body string) string {
	if strings.Contains(body, r.namespaced) {
		return body
	}

	return replaceGroups(interpolationClauses, body, r.classList)
}

// replaceGroups rewrites capture group 2 of every match of re with fn,
// keeping group 1, any trailing groups, and the text between matches.
func replaceGroups(re *regexp.Regexp, s string, fn func(string) string) string {
	matches := re.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return s
	}

	var b strings.Builder

	b.Grow(len(s))

	last := 0

	for _, m := range matches {
		b.WriteString(s[last:m[4]])
		b.WriteString(fn(s[m[4]:m[5]]))
		b.WriteString(s[m[5]:m[1]])
		last = m[1]
	}

	b.WriteString(s[last:])

	return b.String()
}
