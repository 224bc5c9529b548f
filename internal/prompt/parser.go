package prompt

import (
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

const (
	positiveMarker = "Positive prompt:"
	negativeMarker = "Negative prompt:"
)

// Prompt is a parsed prompt: two deduplicated tag tables and the metadata
// text that followed them.
type Prompt struct {
	Positive *TagWeightTable `json:"positive" yaml:"positive"`
	Negative *TagWeightTable `json:"negative" yaml:"negative"`
	Extra    string          `json:"extra" yaml:"extra"`
}

func (p *Prompt) PositiveString(includeWeight bool) string {
	return WeightTableToString(p.Positive, includeWeight)
}

func (p *Prompt) NegativeString(includeWeight bool) string {
	return WeightTableToString(p.Negative, includeWeight)
}

func (p *Prompt) ExtraInfo() *orderedmap.OrderedMap[string, string] {
	return ParseExtraInfo(p.Extra)
}

// ReformatExtra renders the metadata as one "key: value" per line.
func (p *Prompt) ReformatExtra() string {
	return ReformatExtraInfo(p.Extra)
}

// Render writes the prompt back in the snippet layout: a "Positive prompt:"
// line, a "Negative prompt:" line when there are negative tags, then a
// blank line and the metadata block.
func (p *Prompt) Render(includeWeight, reformatExtra bool) string {
	lines := []string{strings.TrimSpace(positiveMarker + " " + p.PositiveString(includeWeight))}
	if p.Negative.Len() > 0 {
		lines = append(lines, strings.TrimSpace(negativeMarker+" "+p.NegativeString(includeWeight)))
	}
	extra := p.Extra
	if reformatExtra {
		extra = p.ReformatExtra()
	}
	if extra = strings.TrimSpace(extra); extra != "" {
		lines = append(lines, "", extra)
	}
	return strings.Join(lines, "\n")
}

// Parser runs the full pipeline: section grouping, tokenizing and
// reduction to tag weight tables. It is safe for concurrent use.
type Parser struct {
	analyzer *Analyzer
}

func NewParser(opts Options) *Parser {
	return &Parser{analyzer: NewAnalyzer(opts)}
}

var defaultParser = NewParser(DefaultOptions())

func (o *Parser) Analyzer() *Analyzer {
	return o.analyzer
}

func (o *Parser) Parse(text string) *Prompt {
	sections := GroupPrompts(text)
	return &Prompt{
		Positive: o.TagsToWeightTable(SplitPromptLines(sections.Positive)),
		Negative: o.TagsToWeightTable(SplitPromptLines(sections.Negative)),
		Extra:    sections.Extra,
	}
}

// TagsToWeightTable reduces tokens to a table. Tags keep the position of
// their first occurrence and repeated tags multiply their weights.
func (o *Parser) TagsToWeightTable(tokens []string) *TagWeightTable {
	table := NewTagWeightTable()
	for _, token := range tokens {
		for _, e := range o.analyzer.entries(token) {
			table.add(e)
		}
	}
	return table
}

// ParsePrompt parses text with the default options.
func ParsePrompt(text string) (positive, negative *TagWeightTable, extra string) {
	p := defaultParser.Parse(text)
	return p.Positive, p.Negative, p.Extra
}

// TagsToWeightTable reduces tokens with the default options.
func TagsToWeightTable(tokens []string) *TagWeightTable {
	return defaultParser.TagsToWeightTable(tokens)
}
