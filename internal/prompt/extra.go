package prompt

import (
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// ParseExtraInfo turns metadata text such as
// "Steps: 20, Sampler: Euler a, Seed: 1" into an ordered key/value map.
// Items are split on commas outside double quotes and then on the first
// colon; items without a colon or key are skipped and a repeated key keeps
// its first position but takes the last value.
func ParseExtraInfo(text string) *orderedmap.OrderedMap[string, string] {
	info := orderedmap.New[string, string]()
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line == "" {
			continue
		}
		for _, item := range splitOutsideQuotes(line, ',') {
			i := strings.IndexRune(item, ':')
			if i < 0 {
				continue
			}
			key := strings.TrimSpace(item[:i])
			if key == "" {
				continue
			}
			info.Set(key, strings.TrimSpace(item[i+1:]))
		}
	}
	return info
}

// FormatExtraInfo renders info as "key: value" lines.
func FormatExtraInfo(info *orderedmap.OrderedMap[string, string]) string {
	if info == nil {
		return ""
	}
	lines := make([]string, 0, info.Len())
	for pair := info.Oldest(); pair != nil; pair = pair.Next() {
		lines = append(lines, pair.Key+": "+pair.Value)
	}
	return strings.Join(lines, "\n")
}

func ReformatExtraInfo(text string) string {
	return FormatExtraInfo(ParseExtraInfo(text))
}
