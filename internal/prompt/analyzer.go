package prompt

import (
	"strings"

	"github.com/samber/lo"
	debuglog "github.com/tagprompt/tagprompt/internal/log"
)

// maxAnalyzeDepth bounds the recursion of nested groups.
const maxAnalyzeDepth = 16

const (
	groupSeparators       = ",，"
	alternationSeparators = ",，|"
)

// ParenMode selects how "(...)" is weighted.
type ParenMode int

const (
	// ParenEmphasis multiplies by WeightIncBase per layer; an explicit
	// ":weight" inside replaces one layer.
	ParenEmphasis ParenMode = iota
	// ParenGroup strips a single layer and treats it as a weight-neutral
	// comma group.
	ParenGroup
)

func (m ParenMode) String() string {
	if m == ParenGroup {
		return "group"
	}
	return "emphasis"
}

// ParseParenMode maps "emphasis" and "group" to a ParenMode.
func ParseParenMode(s string) (ParenMode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "emphasis":
		return ParenEmphasis, true
	case "group":
		return ParenGroup, true
	default:
		return ParenEmphasis, false
	}
}

// Options fixes the weighting convention of an Analyzer.
type Options struct {
	// CurlyBase is the per-layer multiplier of "{...}".
	CurlyBase float64
	ParenMode ParenMode
	// LegacyColonGroups enables the old "(tagA:tagB:1.1:1.2)" syntax where
	// numeric parts are weights paired in order with the non-numeric tags.
	LegacyColonGroups bool
}

func DefaultOptions() Options {
	return Options{
		CurlyBase: WeightIncBase,
		ParenMode: ParenEmphasis,
	}
}

// Pair is one tag with its resolved weight.
type Pair struct {
	Tag    string  `json:"tag" yaml:"tag"`
	Weight float64 `json:"weight" yaml:"weight"`
}

// entry is a Pair plus whether it came from a "<...>" addition-network
// reference.
type entry struct {
	Pair
	network bool
}

func plainEntries(pairs ...Pair) []entry {
	return lo.Map(pairs, func(p Pair, _ int) entry {
		return entry{Pair: p}
	})
}

// Analyzer resolves single prompt tokens into (tag, weight) pairs. It holds
// no mutable state and is safe for concurrent use.
type Analyzer struct {
	opts Options
}

func NewAnalyzer(opts Options) *Analyzer {
	if opts.CurlyBase <= 0 {
		opts.CurlyBase = WeightIncBase
	}
	return &Analyzer{opts: opts}
}

func (o *Analyzer) Options() Options {
	return o.opts
}

var defaultAnalyzer = NewAnalyzer(DefaultOptions())

// AnalyzeToken analyzes token with the default options.
func AnalyzeToken(token string) []Pair {
	return defaultAnalyzer.Analyze(token)
}

// Analyze returns the pairs found in token in depth-first discovery order.
// It never fails: malformed weights fall back to DefaultWeight and
// unrecognized wrappers are treated as bare tags.
func (o *Analyzer) Analyze(token string) []Pair {
	return lo.Map(o.entries(token), func(e entry, _ int) Pair {
		return e.Pair
	})
}

func (o *Analyzer) entries(token string) []entry {
	return o.analyze(token, 0)
}

func (o *Analyzer) analyze(token string, depth int) []entry {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	if depth > maxAnalyzeDepth {
		debuglog.Debug(debuglog.Basic, "analyze depth limit reached for %q\n", token)
		return plainEntries(Pair{Tag: strings.TrimSpace(stripBrackets(token)), Weight: DefaultWeight})
	}

	switch {
	case isWrapped(token, '<'):
		return analyzeNetwork(token)
	case isWrapped(token, '{'):
		return o.analyzeCurly(token, depth)
	case isWrapped(token, '['):
		return o.analyzeSquare(token, depth)
	case isWrapped(token, '('):
		if o.opts.LegacyColonGroups && strings.Contains(token, ":") {
			return plainEntries(analyzeLegacyColon(token)...)
		}
		if o.opts.ParenMode == ParenGroup {
			return o.analyzeSegments(splitTopLevel(token[1:len(token)-1], groupSeparators), 1, depth)
		}
		return o.analyzeParen(token, depth)
	default:
		return plainEntries(analyzeBare(token))
	}
}

// analyzeSegments analyzes every segment one level deeper and scales the
// resulting weights by factor.
func (o *Analyzer) analyzeSegments(segments []string, factor float64, depth int) []entry {
	return lo.FlatMap(segments, func(segment string, _ int) []entry {
		entries := o.analyze(segment, depth+1)
		for i := range entries {
			entries[i].Weight *= factor
		}
		return entries
	})
}

func (o *Analyzer) analyzeParen(token string, depth int) []entry {
	inner, layers := stripLayers(token, '(')
	body, factor := emphasis(inner, WeightIncBase, layers)
	return o.analyzeSegments(splitTopLevel(body, groupSeparators), factor, depth)
}

func (o *Analyzer) analyzeCurly(token string, depth int) []entry {
	inner, layers := stripLayers(token, '{')
	if segments := splitTopLevel(inner, alternationSeparators); len(segments) > 1 {
		// the innermost layer is the group itself
		return o.analyzeSegments(segments, pow(o.opts.CurlyBase, layers-1), depth)
	}
	body, factor := emphasis(inner, o.opts.CurlyBase, layers)
	return o.analyzeSegments([]string{body}, factor, depth)
}

func (o *Analyzer) analyzeSquare(token string, depth int) []entry {
	inner, layers := stripLayers(token, '[')
	return o.analyzeSegments(splitTopLevel(inner, groupSeparators), pow(WeightDecBase, layers), depth)
}

// emphasis computes the multiplier of an emphasis wrapper with the given
// number of layers. An explicit weight replaces the innermost layer.
func emphasis(inner string, base float64, layers int) (body string, factor float64) {
	if i := lastTopLevelIndex(inner, ':'); i >= 0 {
		if w, ok := parseWeight(inner[i+1:]); ok {
			return strings.TrimSpace(inner[:i]), w * pow(base, layers-1)
		}
	}
	return inner, pow(base, layers)
}

// analyzeNetwork handles "<category:name[:strength]>" references.
func analyzeNetwork(token string) []entry {
	inner := strings.TrimSpace(token[1 : len(token)-1])
	if inner == "" {
		return nil
	}
	parts := lo.Map(strings.Split(inner, ":"), func(p string, _ int) string {
		return strings.TrimSpace(p)
	})

	pair := Pair{Tag: parts[0] + ":?", Weight: NetworkUnsetWeight}
	switch {
	case len(parts) >= 3:
		pair.Tag = parts[0] + ":" + parts[1]
		if w, ok := parseWeight(parts[2]); ok {
			pair.Weight = w
		}
	case len(parts) == 2:
		pair.Tag = parts[0] + ":" + parts[1]
	}
	return []entry{{Pair: pair, network: true}}
}

// analyzeBare splits an inline ":weight" suffix off token. Only the last
// colon can carry a weight, so "artist:foo:1.2" is the tag "artist:foo".
func analyzeBare(token string) Pair {
	if i := lastTopLevelIndex(token, ':'); i >= 0 {
		if w, ok := parseWeight(token[i+1:]); ok {
			return Pair{Tag: strings.TrimSpace(token[:i]), Weight: w}
		}
	}
	return Pair{Tag: token, Weight: DefaultWeight}
}

// analyzeLegacyColon resolves "(tagA:tagB:1.1:1.2)". Tags without a
// matching weight keep DefaultWeight; surplus weights are ignored.
func analyzeLegacyColon(token string) []Pair {
	flat := strings.NewReplacer("(", "", ")", "").Replace(token)
	var tags []string
	var weights []float64
	for _, part := range strings.Split(flat, ":") {
		if w, ok := parseWeight(part); ok {
			weights = append(weights, w)
		} else if part = strings.TrimSpace(part); part != "" {
			tags = append(tags, part)
		}
	}
	return lo.Map(tags, func(tag string, i int) Pair {
		if i < len(weights) {
			return Pair{Tag: tag, Weight: weights[i]}
		}
		return Pair{Tag: tag, Weight: DefaultWeight}
	})
}
