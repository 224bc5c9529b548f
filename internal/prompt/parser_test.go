package prompt

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const a1111Snippet = `masterpiece, 1girl, <lora:add_detail:0.8>
Negative prompt: lowres, bad anatomy
Steps: 20, Sampler: Euler a, CFG scale: 7, Seed: 42, Size: 512x768`

func weights(table *TagWeightTable) map[string]float64 {
	m := map[string]float64{}
	table.Each(func(tag string, weight float64) {
		m[tag] = weight
	})
	return m
}

func TestParsePromptMarkers(t *testing.T) {
	positive, negative, extra := ParsePrompt("Positive prompt: a, b\nNegative prompt: c, d\nSeed: 1, Model: x")

	assert.Equal(t, []Pair{{"a", 1}, {"b", 1}}, positive.Pairs())
	assert.Equal(t, []Pair{{"c", 1}, {"d", 1}}, negative.Pairs())
	assert.Equal(t, "Seed: 1, Model: x", extra)
}

func TestParsePromptA1111(t *testing.T) {
	p := NewParser(DefaultOptions()).Parse(a1111Snippet)

	assert.Equal(t, []Pair{{"lora:add_detail", 0.8}, {"masterpiece", 1}, {"1girl", 1}}, p.Positive.Pairs())
	assert.True(t, p.Positive.IsNetwork("lora:add_detail"))
	assert.False(t, p.Positive.IsNetwork("masterpiece"))
	assert.Equal(t, []string{"lowres", "bad anatomy"}, p.Negative.Tags())
	assert.Equal(t, "Steps: 20\nSampler: Euler a\nCFG scale: 7\nSeed: 42\nSize: 512x768", p.ReformatExtra())
	assert.Equal(t, 5, p.ExtraInfo().Len())
}

func TestParsePromptBlankLineSections(t *testing.T) {
	p := NewParser(DefaultOptions()).Parse("((masterpiece)), best quality, [bad hands]\n\n\nlowres, (worst quality:1.4)")

	assert.Equal(t, []Pair{{"masterpiece", 1.21}, {"bad hands", 0.9}, {"best quality", 1}}, p.Positive.Pairs())
	assert.Equal(t, []Pair{{"worst quality", 1.4}, {"lowres", 1}}, p.Negative.Pairs())
	assert.Empty(t, p.Extra)
}

func TestTagsToWeightTableReduction(t *testing.T) {
	tests := []struct {
		name   string
		tokens []string
		want   []Pair
	}{
		{"plain repeats stay at one", []string{"a", "a", "a"}, []Pair{{"a", 1}}},
		{"emphasized repeats multiply", []string{"(a)", "(a)"}, []Pair{{"a", 1.21}}},
		{"first position wins", []string{"b", "a", "(b)"}, []Pair{{"b", 1.1}, {"a", 1}}},
		{"empty tokens ignored", []string{"", " ", "a"}, []Pair{{"a", 1}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, TagsToWeightTable(tc.tokens).Pairs())
		})
	}
}

func TestRenderRoundTrip(t *testing.T) {
	parser := NewParser(DefaultOptions())
	p := parser.Parse(a1111Snippet)

	rendered := p.Render(true, true)
	assert.Equal(t, "Positive prompt: <lora:add_detail:0.80>, masterpiece, 1girl\n"+
		"Negative prompt: lowres, bad anatomy\n\n"+
		"Steps: 20\nSampler: Euler a\nCFG scale: 7\nSeed: 42\nSize: 512x768", rendered)

	again := parser.Parse(rendered)
	assert.True(t, p.Positive.Equal(again.Positive), "positive %v", again.Positive.Pairs())
	assert.True(t, p.Negative.Equal(again.Negative), "negative %v", again.Negative.Pairs())
	assert.Equal(t, p.ReformatExtra(), again.ReformatExtra())
}

func TestRenderWithoutNegative(t *testing.T) {
	p := &Prompt{Positive: NewTagWeightTableFromPairs(Pair{"a", 1.1}), Negative: NewTagWeightTable()}
	assert.Equal(t, "Positive prompt: (a:1.10)", p.Render(true, false))
	assert.Equal(t, "Positive prompt: a", p.Render(false, false))
}

// Serializing a table and parsing it back keeps every tag and weight, and a
// second pass is a fixed point.
func TestSerializeParseIdempotent(t *testing.T) {
	inputs := [][]string{
		{"((masterpiece))", "best quality", "[[bad hands]]", "<lora:add_detail:1.5>", "<lora:more>", "{sparkle}", "tag:0.75", "(a, b:1.3)"},
		{"{a|b}", "[c]", "(d:0.5)"},
		{"[bad hands, lowres]", "best quality", "[[a, (b:1.5)]]"},
		{"artist:foo", "(style:anime)", "(artist:bar:1.2)", "<lora:x:0.7>"},
		{"plain"},
		{},
	}

	for i, tokens := range inputs {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			first := TagsToWeightTable(tokens)
			second := TagsToWeightTable(SplitPromptLine(WeightTableToString(first, true)))
			third := TagsToWeightTable(SplitPromptLine(WeightTableToString(second, true)))

			assert.Equal(t, weights(first), weights(second))
			first.Each(func(tag string, _ float64) {
				assert.Equal(t, first.IsNetwork(tag), second.IsNetwork(tag), tag)
			})
			assert.True(t, second.Equal(third), "second %v third %v", second.Pairs(), third.Pairs())
		})
	}
}

// Every parse result holds unique non-empty tags and finite weights.
func TestParseInvariants(t *testing.T) {
	inputs := []string{
		a1111Snippet,
		"",
		"\n\n\n",
		"((((((((a))))))))",
		"(unbalanced, [brackets}, <lora",
		"Negative prompt:\nPositive prompt:",
		"a\n\nb\n\n\nc\nSteps: 1",
		"，，,,",
		`\(escaped\), (x:nan), (y:inf)`,
	}

	for _, in := range inputs {
		p := NewParser(DefaultOptions()).Parse(in)
		require.NotNil(t, p.Positive, in)
		require.NotNil(t, p.Negative, in)
		for _, table := range []*TagWeightTable{p.Positive, p.Negative} {
			seen := map[string]bool{}
			table.Each(func(tag string, weight float64) {
				assert.NotEmpty(t, tag, in)
				assert.False(t, seen[tag], "duplicate %q in %q", tag, in)
				seen[tag] = true
				assert.Equal(t, RoundWeight(weight), weight, in)
			})
		}
	}
}

func TestParserConcurrentUse(t *testing.T) {
	parser := NewParser(DefaultOptions())
	want := parser.Parse(a1111Snippet)

	var wg sync.WaitGroup
	results := make([]*Prompt, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = parser.Parse(a1111Snippet)
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.True(t, want.Positive.Equal(got.Positive))
		assert.True(t, want.Negative.Equal(got.Negative))
		assert.Equal(t, want.Extra, got.Extra)
	}
}
