package prompt

import "strings"

// WeightTableToString serializes table to prompt text. Weights are written
// only when includeWeight is set and the weight is not 1.00. Addition-network
// tags keep their angle brackets; other tags, even ones holding a ":", use
// the "(tag:w)" form.
func WeightTableToString(table *TagWeightTable, includeWeight bool) string {
	rendered := make([]string, 0, table.Len())
	table.Each(func(tag string, weight float64) {
		rendered = append(rendered, formatTag(tag, weight, includeWeight, table.IsNetwork(tag)))
	})
	return strings.Join(rendered, ", ")
}

func formatTag(tag string, weight float64, includeWeight, network bool) string {
	if !includeWeight {
		return tag
	}
	w := FormatWeight(weight)
	if network {
		if w == FormatWeight(NetworkUnsetWeight) {
			return "<" + tag + ">"
		}
		return "<" + tag + ":" + w + ">"
	}
	if w == FormatWeight(DefaultWeight) {
		return tag
	}
	return "(" + tag + ":" + w + ")"
}
