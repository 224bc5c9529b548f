package prompt

import (
	"fmt"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gopkg.in/yaml.v3"
)

// TagWeightTable is an insertion-ordered mapping of tag to weight with
// unique tags. Weights are kept rounded to two decimals. Tables returned by
// the parser are meant to be read only; Clone before mutating.
//
// Tags that came from "<...>" addition-network references are remembered
// so they render back with angle brackets. In JSON and YAML their keys are
// written as "<tag>".
type TagWeightTable struct {
	m        *orderedmap.OrderedMap[string, float64]
	networks map[string]bool
}

func NewTagWeightTable() *TagWeightTable {
	return &TagWeightTable{m: orderedmap.New[string, float64]()}
}

// NewTagWeightTableFromPairs builds a table from pairs; a repeated tag
// overwrites the earlier weight but keeps its position.
func NewTagWeightTableFromPairs(pairs ...Pair) *TagWeightTable {
	t := NewTagWeightTable()
	for _, p := range pairs {
		t.Set(p.Tag, p.Weight)
	}
	return t
}

func (t *TagWeightTable) ensure() {
	if t.m == nil {
		t.m = orderedmap.New[string, float64]()
	}
	if t.networks == nil {
		t.networks = map[string]bool{}
	}
}

func (t *TagWeightTable) Len() int {
	if t == nil || t.m == nil {
		return 0
	}
	return t.m.Len()
}

func (t *TagWeightTable) Get(tag string) (weight float64, ok bool) {
	if t == nil || t.m == nil {
		return 0, false
	}
	return t.m.Get(tag)
}

func (t *TagWeightTable) Has(tag string) bool {
	_, ok := t.Get(tag)
	return ok
}

// Set stores weight for tag, appending the tag when it is new.
func (t *TagWeightTable) Set(tag string, weight float64) {
	t.ensure()
	t.m.Set(tag, RoundWeight(weight))
}

// Add records one more occurrence of tag. A new tag is appended; an
// existing tag has its weight multiplied by weight. Tags are trimmed and
// empty tags are ignored. Add reports whether the tag was new.
func (t *TagWeightTable) Add(tag string, weight float64) bool {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return false
	}
	if old, ok := t.Get(tag); ok {
		t.Set(tag, old*weight)
		return false
	}
	t.Set(tag, weight)
	return true
}

// SetNetwork stores weight for tag and marks it as an addition-network
// reference.
func (t *TagWeightTable) SetNetwork(tag string, weight float64) {
	t.Set(tag, weight)
	t.networks[tag] = true
}

func (t *TagWeightTable) IsNetwork(tag string) bool {
	return t != nil && t.networks[tag]
}

// add is Add for analyzer output. A tag keeps the kind of its first
// occurrence.
func (t *TagWeightTable) add(e entry) bool {
	if !t.Add(e.Tag, e.Weight) {
		return false
	}
	if e.network {
		t.networks[strings.TrimSpace(e.Tag)] = true
	}
	return true
}

func (t *TagWeightTable) Delete(tag string) bool {
	if t == nil || t.m == nil {
		return false
	}
	delete(t.networks, tag)
	_, ok := t.m.Delete(tag)
	return ok
}

// Each calls fn for every entry in insertion order.
func (t *TagWeightTable) Each(fn func(tag string, weight float64)) {
	if t == nil || t.m == nil {
		return
	}
	for pair := t.m.Oldest(); pair != nil; pair = pair.Next() {
		fn(pair.Key, pair.Value)
	}
}

func (t *TagWeightTable) Tags() []string {
	tags := make([]string, 0, t.Len())
	t.Each(func(tag string, _ float64) {
		tags = append(tags, tag)
	})
	return tags
}

func (t *TagWeightTable) Pairs() []Pair {
	pairs := make([]Pair, 0, t.Len())
	t.Each(func(tag string, weight float64) {
		pairs = append(pairs, Pair{Tag: tag, Weight: weight})
	})
	return pairs
}

func (t *TagWeightTable) Clone() *TagWeightTable {
	clone := NewTagWeightTable()
	t.Each(func(tag string, weight float64) {
		clone.setKind(tag, weight, t.IsNetwork(tag))
	})
	return clone
}

func (t *TagWeightTable) setKind(tag string, weight float64, network bool) {
	if network {
		t.SetNetwork(tag, weight)
		return
	}
	t.Set(tag, weight)
}

// Equal reports whether both tables hold the same tags of the same kind in
// the same order with the same weights.
func (t *TagWeightTable) Equal(other *TagWeightTable) bool {
	a, b := t.Pairs(), other.Pairs()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] || t.IsNetwork(a[i].Tag) != other.IsNetwork(b[i].Tag) {
			return false
		}
	}
	return true
}

// key is the JSON and YAML key of tag.
func (t *TagWeightTable) key(tag string) string {
	if t.IsNetwork(tag) {
		return "<" + tag + ">"
	}
	return tag
}

// parseKey reverses key.
func parseKey(key string) (tag string, network bool) {
	if len(key) > 2 && key[0] == '<' && key[len(key)-1] == '>' {
		return key[1 : len(key)-1], true
	}
	return key, false
}

func (t *TagWeightTable) String() string {
	return WeightTableToString(t, true)
}

func (t *TagWeightTable) MarshalJSON() ([]byte, error) {
	if t == nil || t.m == nil {
		return []byte("{}"), nil
	}
	m := orderedmap.New[string, float64](orderedmap.WithCapacity[string, float64](t.Len()))
	t.Each(func(tag string, weight float64) {
		m.Set(t.key(tag), weight)
	})
	return m.MarshalJSON()
}

func (t *TagWeightTable) UnmarshalJSON(data []byte) error {
	m := orderedmap.New[string, float64]()
	if err := m.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("decode tag weight table: %w", err)
	}
	t.m, t.networks = nil, nil
	t.ensure()
	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		tag, network := parseKey(pair.Key)
		t.setKind(tag, pair.Value, network)
	}
	return nil
}

func (t *TagWeightTable) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	t.Each(func(tag string, weight float64) {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: t.key(tag)},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: FormatWeight(weight)},
		)
	})
	return node, nil
}

func (t *TagWeightTable) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("decode tag weight table: expected a mapping, got yaml kind %d", value.Kind)
	}
	t.m, t.networks = nil, nil
	t.ensure()
	for i := 0; i+1 < len(value.Content); i += 2 {
		var weight float64
		if err := value.Content[i+1].Decode(&weight); err != nil {
			return fmt.Errorf("decode weight of %q: %w", value.Content[i].Value, err)
		}
		tag, network := parseKey(value.Content[i].Value)
		t.setKind(tag, weight, network)
	}
	return nil
}
