package selector

import "strings"

// Classification is the verdict for a single selector.
type Classification struct {
	// Ignored selectors are outside the namespacing domain.
	Ignored bool

	// BlockedBy names the denylisted class (with its dot) that blocks the selector.
	BlockedBy string
}

// Eligible reports whether the selector may be namespaced.
func (c Classification) Eligible() bool {
	return !c.Ignored && c.BlockedBy == ""
}

// Classifier checks selectors against a class denylist and prefix denylist.
// It holds no mutable state and is safe for concurrent use.
type Classifier struct {
	classes  map[string]struct{}
	prefixes []string
}

// NewClassifier builds a Classifier. Entries may be given with or without
// the leading dot.
func NewClassifier(classes, prefixes []string) *Classifier {
	c := &Classifier{classes: make(map[string]struct{}, len(classes))}

	for _, cls := range classes {
		if cls = strings.TrimSpace(cls); cls != "" {
			c.classes[withDot(cls)] = struct{}{}
		}
	}

	for _, prefix := range prefixes {
		if prefix = strings.TrimSpace(prefix); prefix != "" {
			c.prefixes = append(c.prefixes, withDot(prefix))
		}
	}

	return c
}

// Classify returns whether sel is ignored and which denylist entry blocks it.
func (c *Classifier) Classify(sel string) Classification {
	if IsIgnored(sel) {
		return Classification{Ignored: true}
	}

	return Classification{BlockedBy: c.BlockedBy(sel)}
}

// BlockedBy returns the first class of sel carrying a denylisted prefix,
// otherwise the first denylisted class, otherwise "".
func (c *Classifier) BlockedBy(sel string) string {
	names := ClassNames(sel)

	for _, name := range names {
		for _, prefix := range c.prefixes {
			if strings.HasPrefix("."+name, prefix) {
				return "." + name
			}
		}
	}

	for _, name := range names {
		if _, denied := c.classes["."+name]; denied {
			return "." + name
		}
	}

	return ""
}

func withDot(s string) string {
	if strings.HasPrefix(s, ".") {
		return s
	}

	return "." + s
}
