package report

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// UnifiedDiff renders a line diff of before and after. Unchanged files
// produce the empty string.
func UnifiedDiff(path, before, after string) string {
	if before == after {
		return ""
	}

	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var sb strings.Builder

	fmt.Fprintf(&sb, "--- a/%s\n+++ b/%s\n", path, path)

	for _, d := range diffs {
		prefix, paint := " ", fmt.Sprintf

		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix, paint = "-", color.RedString
		case diffmatchpatch.DiffInsert:
			prefix, paint = "+", color.GreenString
		case diffmatchpatch.DiffEqual:
		}

		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}

			sb.WriteString(paint("%s%s", prefix, strings.TrimSuffix(line, "\n")))
			sb.WriteString("\n")
		}
	}

	return sb.String()
}
