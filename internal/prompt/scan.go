package prompt

import (
	"strings"
	"unicode/utf8"
)

const (
	escapeChar   = '\\'
	openBrackets = "([{<"
	wrapperChars = "()[]{}<>"
)

var closerOf = map[byte]byte{'(': ')', '[': ']', '{': '}', '<': '>'}

// matchingClose returns the index of the bracket closing the opener at
// s[start], or -1 when it is never closed. Only brackets of the same kind
// are counted and backslash-escaped characters are skipped.
func matchingClose(s string, start int) int {
	open := s[start]
	closer, ok := closerOf[open]
	if !ok {
		return -1
	}
	depth := 0
	for i := start; i < len(s); i++ {
		switch c := s[i]; c {
		case escapeChar:
			i++
		case open:
			depth++
		case closer:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// isWrapped reports whether s is exactly one balanced open...close run.
func isWrapped(s string, open byte) bool {
	if len(s) < 2 || s[0] != open {
		return false
	}
	return matchingClose(s, 0) == len(s)-1
}

// stripLayers removes every enclosing open...close layer of s and reports
// how many were removed.
func stripLayers(s string, open byte) (inner string, layers int) {
	inner = s
	for isWrapped(inner, open) {
		inner = strings.TrimSpace(inner[1 : len(inner)-1])
		layers++
	}
	return inner, layers
}

// splitTopLevel splits s on any rune of seps that is not nested inside
// brackets and not escaped.
func splitTopLevel(s string, seps string) []string {
	var parts []string
	depth, start, escaped := 0, 0, false
	for i, r := range s {
		switch {
		case escaped:
			escaped = false
		case r == escapeChar:
			escaped = true
		case strings.ContainsRune(openBrackets, r):
			depth++
		case strings.ContainsRune(")]}>", r):
			if depth > 0 {
				depth--
			}
		case depth == 0 && strings.ContainsRune(seps, r):
			parts = append(parts, s[start:i])
			start = i + utf8.RuneLen(r)
		}
	}
	return append(parts, s[start:])
}

// lastTopLevelIndex is strings.LastIndexByte restricted to the unnested,
// unescaped part of s.
func lastTopLevelIndex(s string, target rune) int {
	last, depth, escaped := -1, 0, false
	for i, r := range s {
		switch {
		case escaped:
			escaped = false
		case r == escapeChar:
			escaped = true
		case strings.ContainsRune(openBrackets, r):
			depth++
		case strings.ContainsRune(")]}>", r):
			if depth > 0 {
				depth--
			}
		case depth == 0 && r == target:
			last = i
		}
	}
	return last
}

func stripBrackets(s string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(wrapperChars, r) {
			return -1
		}
		return r
	}, s)
}

// splitOutsideQuotes splits s on sep, ignoring separators inside double quotes.
func splitOutsideQuotes(s string, sep rune) []string {
	var parts []string
	start, quoted := 0, false
	for i, r := range s {
		switch {
		case r == '"':
			quoted = !quoted
		case r == sep && !quoted:
			parts = append(parts, s[start:i])
			start = i + utf8.RuneLen(r)
		}
	}
	return append(parts, s[start:])
}

func countOutsideQuotes(s string, target rune) int {
	n, quoted := 0, false
	for _, r := range s {
		switch {
		case r == '"':
			quoted = !quoted
		case r == target && !quoted:
			n++
		}
	}
	return n
}

func indexOutsideQuotes(s string, target rune) int {
	quoted := false
	for i, r := range s {
		switch {
		case r == '"':
			quoted = !quoted
		case r == target && !quoted:
			return i
		}
	}
	return -1
}
