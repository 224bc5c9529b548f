package cli

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/tagprompt/tagprompt/internal/prompt"
)

// TOON output: indentation based like YAML, with tag tables written as
// "key[n]{tag,weight}:" followed by one row per tag.

var (
	specialChars  = map[rune]bool{':': true, '"': true, '\\': true, '\n': true, '\t': true, '\r': true, '[': true, ']': true, '{': true, '}': true}
	numericRe     = regexp.MustCompile(`^-?\d+(?:\.\d+)?(?:[eE][+-]?\d+)?$`)
	leadingZeroRe = regexp.MustCompile(`^0\d+$`)
)

const toonDelimiter = ","

type toonField struct {
	key   string
	value interface{}
}

// toonObject keeps its fields in insertion order.
type toonObject []toonField

type toonEncoder interface {
	toon() toonObject
}

func needsQuoting(value string) bool {
	if value == "" || value == "true" || value == "false" || value == "null" {
		return true
	}
	if value[0] == ' ' || value[len(value)-1] == ' ' || value[0] == '-' {
		return true
	}
	for _, c := range value {
		if specialChars[c] {
			return true
		}
	}
	return strings.Contains(value, toonDelimiter) || numericRe.MatchString(value) || leadingZeroRe.MatchString(value)
}

func quote(value string) string {
	if !needsQuoting(value) {
		return value
	}
	r := strings.NewReplacer("\\", "\\\\", "\"", "\\\"", "\n", "\\n", "\r", "\\r", "\t", "\\t")
	return `"` + r.Replace(value) + `"`
}

func encodeScalar(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case string:
		return quote(v)
	default:
		return quote(fmt.Sprintf("%v", v))
	}
}

func primitiveList(values []string) string {
	if len(values) == 0 {
		return "[0]:"
	}
	quoted := lo.Map(values, func(v string, _ int) string { return quote(v) })
	return fmt.Sprintf("[%d]: %s", len(values), strings.Join(quoted, toonDelimiter))
}

func (o toonObject) encode(indent int) []string {
	pad := strings.Repeat("  ", indent)
	var lines []string
	for _, field := range o {
		key := quote(field.key)
		switch v := field.value.(type) {
		case toonObject:
			lines = append(lines, pad+key+":")
			lines = append(lines, v.encode(indent+1)...)
		case []prompt.Pair:
			lines = append(lines, fmt.Sprintf("%s%s[%d]{tag,weight}:", pad, key, len(v)))
			for _, p := range v {
				lines = append(lines, fmt.Sprintf("%s  %s%s%s", pad, quote(p.Tag), toonDelimiter, encodeScalar(p.Weight)))
			}
		case []string:
			lines = append(lines, pad+key+primitiveList(v))
		case [][]string:
			lines = append(lines, fmt.Sprintf("%s%s[%d]:", pad, key, len(v)))
			for _, row := range v {
				lines = append(lines, pad+"  - "+primitiveList(row))
			}
		default:
			lines = append(lines, fmt.Sprintf("%s%s: %s", pad, key, encodeScalar(v)))
		}
	}
	return lines
}

func encodeTOON(v toonEncoder) string {
	return strings.Join(v.toon().encode(0), "\n")
}

func (v promptView) toon() (obj toonObject) {
	for _, section := range []toonField{{"positive", v.Positive}, {"negative", v.Negative}} {
		switch tags := section.value.(type) {
		case *prompt.TagWeightTable:
			obj = append(obj, toonField{section.key, tags.Pairs()})
		case []string:
			obj = append(obj, toonField{section.key, tags})
		}
	}
	if v.Extra != "" {
		obj = append(obj, toonField{"extra", v.Extra})
	}
	if v.ExtraInfo != nil {
		info := toonObject{}
		for pair := v.ExtraInfo.m.Oldest(); pair != nil; pair = pair.Next() {
			info = append(info, toonField{pair.Key, pair.Value})
		}
		obj = append(obj, toonField{"extraInfo", info})
	}
	return obj
}

func (v analyzeViews) toon() toonObject {
	return lo.Map(v, func(view analyzeView, _ int) toonField {
		return toonField{view.Token, view.Pairs}
	})
}

func (v splitView) toon() toonObject {
	return toonObject{{"positive", v.Positive}, {"negative", v.Negative}}
}
