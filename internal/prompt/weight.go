package prompt

import (
	"math"
	"strconv"
	"strings"
)

const (
	// WeightIncBase is the per-layer multiplier of emphasis brackets.
	WeightIncBase = 1.1
	// WeightDecBase is the per-layer multiplier of "[...]".
	WeightDecBase = 0.9
	// DefaultWeight is the weight of a tag without any annotation.
	DefaultWeight = 1.0
	// NetworkUnsetWeight marks an addition-network reference that carries no
	// explicit strength, e.g. "<lora:add_detail>".
	NetworkUnsetWeight = 0.0

	// MergeIncrement is added to a tag that already exists in the merge base.
	MergeIncrement = 0.1
	// MinMergedWeight is the lower bound of a bumped weight.
	MinMergedWeight = 0.1
)

// parseWeight is a float-or-nothing coercion. NaN and infinities are rejected
// so they can never leak into a table.
func parseWeight(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	w, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(w) || math.IsInf(w, 0) {
		return 0, false
	}
	return w, true
}

// RoundWeight rounds w to two decimals, the precision tables store.
func RoundWeight(w float64) float64 {
	return math.Round(w*100) / 100
}

// FormatWeight renders w with exactly two decimals.
func FormatWeight(w float64) string {
	return strconv.FormatFloat(RoundWeight(w), 'f', 2, 64)
}

func pow(base float64, n int) float64 {
	if n <= 0 {
		return 1
	}
	return math.Pow(base, float64(n))
}
