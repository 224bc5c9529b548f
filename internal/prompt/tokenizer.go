package prompt

import (
	"strings"

	"github.com/samber/lo"
)

// bracketPriority is the order in which extracted runs are emitted.
var bracketPriority = []byte{'(', '[', '{', '<'}

const residueSeparators = ",，"

type bracketRun struct {
	start, end int
	open       byte
}

// SplitPromptLine tokenizes one prompt line. Outermost bracket runs are
// extracted as whole tokens and emitted first, grouped by kind in the order
// (), [], {}, <> and left to right within a kind. The remaining text is
// split on ASCII and full-width commas.
func SplitPromptLine(line string) []string {
	runs, residue := extractBracketRuns(line)

	tokens := make([]string, 0, len(runs))
	for _, open := range bracketPriority {
		for _, run := range runs {
			if run.open == open {
				tokens = append(tokens, line[run.start:run.end+1])
			}
		}
	}

	rest := lo.FilterMap(strings.FieldsFunc(residue, func(r rune) bool {
		return strings.ContainsRune(residueSeparators, r)
	}), func(fragment string, _ int) (string, bool) {
		fragment = strings.TrimSpace(fragment)
		return fragment, fragment != ""
	})
	return append(tokens, rest...)
}

// SplitPromptLines tokenizes every line, keeping line order.
func SplitPromptLines(lines []string) []string {
	return lo.FlatMap(lines, func(line string, _ int) []string {
		return SplitPromptLine(line)
	})
}

// extractBracketRuns finds the balanced top-level bracket runs of line and
// returns the line with those runs removed. An opener that is never closed
// stays in the residue as ordinary text.
func extractBracketRuns(line string) (runs []bracketRun, residue string) {
	var b strings.Builder
	for i := 0; i < len(line); i++ {
		c := line[i]
		if c == escapeChar && i+1 < len(line) {
			b.WriteByte(c)
			b.WriteByte(line[i+1])
			i++
			continue
		}
		if _, ok := closerOf[c]; ok {
			if end := matchingClose(line, i); end > i {
				runs = append(runs, bracketRun{start: i, end: end, open: c})
				i = end
				continue
			}
		}
		b.WriteByte(c)
	}
	return runs, b.String()
}
