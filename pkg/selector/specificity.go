package selector

import (
	"strconv"
	"strings"

	"github.com/andybalholm/cascadia"
)

// Specificity is the (inline, id, class, type) tuple of a selector.
type Specificity [4]int

// Compare returns -1, 0 or 1 comparing s to o lexicographically.
func (s Specificity) Compare(o Specificity) int {
	for i := range s {
		switch {
		case s[i] < o[i]:
			return -1
		case s[i] > o[i]:
			return 1
		}
	}

	return 0
}

// String renders the tuple as "0,0,1,0".
func (s Specificity) String() string {
	parts := make([]string, len(s))
	for i, v := range s {
		parts[i] = strconv.Itoa(v)
	}

	return strings.Join(parts, ",")
}

// Slice returns the tuple as a slice, the shape used in reports.
func (s Specificity) Slice() []int {
	return []int{s[0], s[1], s[2], s[3]}
}

// Pseudo-elements written with a single colon for legacy reasons.
var legacyPseudoElements = map[string]bool{
	"before":       true,
	"after":        true,
	"first-line":   true,
	"first-letter": true,
}

// pseudoAttr stands in for pseudo-classes cascadia cannot parse. An
// attribute selector weighs the same as a pseudo-class.
const pseudoAttr = "[squeaky-pseudo]"

// Calculate computes the specificity of a single (non-list) selector.
// SCSS placeholders count as type selectors; `&` and interpolation count
// as nothing.
func Calculate(sel string) Specificity {
	sel = strings.TrimSpace(sel)

	css, types, ok := cssSelector(sel)
	if !ok {
		return scan(sel)
	}

	spec := Specificity{0, 0, 0, types}

	css = strings.Trim(css, " \t\n>+~")
	if css == "" {
		return spec
	}

	parsed, err := cascadia.Parse(css)
	if err != nil {
		return scan(sel)
	}

	weight := parsed.Specificity()
	spec[1] += weight[0]
	spec[2] += weight[1]
	spec[3] += weight[2]

	return spec
}

// cssSelector rewrites sel into plain CSS that cascadia parses. SCSS-only
// tokens are dropped. Pseudo-elements are removed and returned as a type
// count. Pseudo-classes weighing their most specific argument become :not,
// the rest become an attribute selector. It reports false when SCSS-only
// tokens sit inside a pseudo-class argument.
func cssSelector(sel string) (string, int, bool) {
	var (
		b     strings.Builder
		types int
		depth int
	)

	for i := 0; i < len(sel); {
		ch := sel[i]

		switch {
		case ch == '\\':
			end := min(i+2, len(sel))
			b.WriteString(sel[i:end])
			i = end
		case ch == '[':
			end := skipBalanced(sel, i, '[', ']')
			b.WriteString(sel[i:end])
			i = end
		case ch == '#' && i+1 < len(sel) && sel[i+1] == '{':
			i = skipBalanced(sel, i+1, '{', '}')
		case ch == '&' || ch == '%':
			if depth > 0 {
				return "", 0, false
			}

			if ch == '%' {
				types++
			}

			i = skipName(sel, i+1)
		case ch == ':':
			css, element, next := pseudoSelector(sel, i)
			if element {
				if depth > 0 {
					return "", 0, false
				}

				types++
			}

			if strings.HasSuffix(css, "(") {
				depth++
			}

			b.WriteString(css)
			i = next
		case ch == '(':
			depth++
			b.WriteByte(ch)
			i++
		case ch == ')':
			depth--
			b.WriteByte(ch)
			i++
		default:
			b.WriteByte(ch)
			i++
		}
	}

	return b.String(), types, true
}

// pseudoSelector replaces the pseudo-class or pseudo-element starting at
// sel[i]. It returns the replacement, whether it was a pseudo-element, and
// the index after it.
func pseudoSelector(sel string, i int) (string, bool, int) {
	element := strings.HasPrefix(sel[i:], "::")

	start := i + 1
	if element {
		start++
	}

	end := skipName(sel, start)
	name := strings.ToLower(sel[start:end])
	args := end < len(sel) && sel[end] == '('

	switch {
	case element || legacyPseudoElements[name]:
		if args {
			end = skipBalanced(sel, end, '(', ')')
		}

		return "", true, end
	case !args:
		return pseudoAttr, false, end
	}

	switch name {
	case "not", "is", "has", "matches", "any", "-webkit-any", "-moz-any":
		return ":not(", false, end + 1
	case "where":
		return "", false, skipBalanced(sel, end, '(', ')')
	default:
		return pseudoAttr, false, skipBalanced(sel, end, '(', ')')
	}
}

// scan counts selector parts by hand. It backs Calculate for SCSS that has
// no plain CSS equivalent, such as parent references inside :not().
func scan(sel string) Specificity {
	var spec Specificity

	s := strings.TrimSpace(sel)

	for i := 0; i < len(s); {
		ch := s[i]

		switch {
		case ch == '&':
			i = skipName(s, i+1)
		case ch == '#' && i+1 < len(s) && s[i+1] == '{':
			i = skipBalanced(s, i+1, '{', '}')
		case ch == '#':
			i = skipName(s, i+1)
			spec[1]++
		case ch == '.':
			i = skipName(s, i+1)
			spec[2]++
		case ch == '[':
			i = skipBalanced(s, i, '[', ']')
			spec[2]++
		case ch == ':':
			i = pseudo(s, i, &spec)
		case ch == '%' || isNameStart(ch):
			i = skipName(s, i+1)
			spec[3]++
		case ch == '\\':
			i += 2
		default:
			i++
		}
	}

	return spec
}

func pseudo(s string, i int, spec *Specificity) int {
	element := strings.HasPrefix(s[i:], "::")
	if element {
		i += 2
	} else {
		i++
	}

	start := i
	i = skipName(s, i)
	name := strings.ToLower(s[start:i])

	var args string

	if i < len(s) && s[i] == '(' {
		end := skipBalanced(s, i, '(', ')')
		args = s[i+1 : max(i+1, end-1)]
		i = end
	}

	switch {
	case element || legacyPseudoElements[name]:
		spec[3]++
	case name == "where":
	case name == "not" || name == "is" || name == "has" || name == "matches":
		var most Specificity

		for _, arg := range splitTopLevel(args) {
			if argSpec := scan(arg); argSpec.Compare(most) > 0 {
				most = argSpec
			}
		}

		for k := range spec {
			spec[k] += most[k]
		}
	default:
		spec[2]++
	}

	return i
}

func splitTopLevel(list string) []string {
	var (
		parts []string
		depth int
		start int
	)

	for i := range len(list) {
		switch list[i] {
		case '(', '[':
			depth++
		case ')', ']':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, list[start:i])
				start = i + 1
			}
		}
	}

	return append(parts, list[start:])
}

func skipName(s string, i int) int {
	for i < len(s) && (isNameChar(s[i]) || s[i] == '\\') {
		if s[i] == '\\' {
			i++
		}

		i++
	}

	return min(i, len(s))
}

func skipBalanced(s string, i int, open, closing byte) int {
	depth := 0

	for ; i < len(s); i++ {
		switch s[i] {
		case open:
			depth++
		case closing:
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}

	return len(s)
}

func isNameStart(ch byte) bool {
	return ch == '_' || ch == '-' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch >= 0x80
}
