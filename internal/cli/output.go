package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/samber/lo"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gopkg.in/yaml.v3"

	"github.com/tagprompt/tagprompt/internal/i18n"
	"github.com/tagprompt/tagprompt/internal/prompt"
)

// promptView is the json/yaml shape of a parsed prompt. With --no-weight
// the tag fields hold plain tag lists.
type promptView struct {
	Positive  interface{} `json:"positive,omitempty" yaml:"positive,omitempty"`
	Negative  interface{} `json:"negative,omitempty" yaml:"negative,omitempty"`
	Extra     string      `json:"extra,omitempty" yaml:"extra,omitempty"`
	ExtraInfo *extraInfo  `json:"extraInfo,omitempty" yaml:"extraInfo,omitempty"`
}

type extraInfo struct {
	m *orderedmap.OrderedMap[string, string]
}

func (e *extraInfo) MarshalJSON() ([]byte, error) {
	return e.m.MarshalJSON()
}

func (e *extraInfo) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for pair := e.m.Oldest(); pair != nil; pair = pair.Next() {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: pair.Key},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: pair.Value},
		)
	}
	return node, nil
}

type analyzeView struct {
	Token string        `json:"token" yaml:"token"`
	Pairs []prompt.Pair `json:"pairs" yaml:"pairs"`
}

type analyzeViews []analyzeView

type splitView struct {
	Positive [][]string `json:"positive" yaml:"positive"`
	Negative [][]string `json:"negative" yaml:"negative"`
}

func tableView(table *prompt.TagWeightTable, includeWeight bool) interface{} {
	if !includeWeight {
		return table.Tags()
	}
	return table
}

// renderPrompt formats p for the selected format and section.
func renderPrompt(p *prompt.Prompt, o *Flags) (string, error) {
	includeWeight := !o.NoWeight
	extra := p.Extra
	if o.ReformatExtra {
		extra = p.ReformatExtra()
	}

	if o.Format == FormatText {
		switch o.Section {
		case SectionPositive:
			return p.PositiveString(includeWeight), nil
		case SectionNegative:
			return p.NegativeString(includeWeight), nil
		case SectionExtra:
			return extra, nil
		default:
			return p.Render(includeWeight, o.ReformatExtra), nil
		}
	}

	view := promptView{}
	if o.Section == SectionAll || o.Section == SectionPositive {
		view.Positive = tableView(p.Positive, includeWeight)
	}
	if o.Section == SectionAll || o.Section == SectionNegative {
		view.Negative = tableView(p.Negative, includeWeight)
	}
	if (o.Section == SectionAll || o.Section == SectionExtra) && p.Extra != "" {
		view.Extra = extra
		view.ExtraInfo = &extraInfo{m: p.ExtraInfo()}
	}
	return marshal(view, o.Format)
}

func renderAnalysis(analyzer *prompt.Analyzer, tokens []string, format string) (string, error) {
	views := analyzeViews(lo.Map(tokens, func(token string, _ int) analyzeView {
		pairs := lo.Map(analyzer.Analyze(token), func(p prompt.Pair, _ int) prompt.Pair {
			return prompt.Pair{Tag: p.Tag, Weight: prompt.RoundWeight(p.Weight)}
		})
		return analyzeView{Token: token, Pairs: pairs}
	}))

	if format != FormatText {
		return marshal(views, format)
	}
	var b strings.Builder
	for _, v := range views {
		b.WriteString(v.Token + "\n")
		for _, p := range v.Pairs {
			fmt.Fprintf(&b, "  %s: %s\n", p.Tag, prompt.FormatWeight(p.Weight))
		}
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func renderSplit(sections prompt.Sections, format string) (string, error) {
	view := splitView{
		Positive: lo.Map(sections.Positive, func(line string, _ int) []string { return prompt.SplitPromptLine(line) }),
		Negative: lo.Map(sections.Negative, func(line string, _ int) []string { return prompt.SplitPromptLine(line) }),
	}
	if format != FormatText {
		return marshal(view, format)
	}

	var lines []string
	for _, section := range []struct {
		name   string
		tokens [][]string
	}{{"Positive prompt:", view.Positive}, {"Negative prompt:", view.Negative}} {
		if len(section.tokens) == 0 {
			continue
		}
		lines = append(lines, section.name)
		for _, tokens := range section.tokens {
			lines = append(lines, "  "+strings.Join(tokens, " | "))
		}
	}
	return strings.Join(lines, "\n"), nil
}

func marshal(v interface{}, format string) (string, error) {
	switch format {
	case FormatYAML:
		data, err := yaml.Marshal(v)
		return strings.TrimRight(string(data), "\n"), err
	case FormatTOON:
		if enc, ok := v.(toonEncoder); ok {
			return encodeTOON(enc), nil
		}
	}
	data, err := json.MarshalIndent(v, "", "  ")
	return string(data), err
}

// writeOutput prints output and honors --output and --copy.
func writeOutput(output string, o *Flags, stdout io.Writer) (err error) {
	if o.Output != "" {
		if err = os.WriteFile(o.Output, []byte(output+"\n"), 0o644); err != nil {
			return fmt.Errorf(i18n.T("cli_error_write_output"), o.Output, err)
		}
	} else {
		fmt.Fprintln(stdout, output)
	}

	if o.Copy {
		if err = clipboard.WriteAll(output); err != nil {
			return fmt.Errorf(i18n.T("cli_error_copy_clipboard"), err)
		}
		fmt.Fprintln(os.Stderr, i18n.T("cli_copied"))
	}
	return nil
}
