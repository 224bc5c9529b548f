package prompt

import "math"

// MergeTagWeightTable merges update into base and returns base. A tag
// already in base is bumped by MergeIncrement (never below MinMergedWeight)
// whatever its weight in update; a new tag is appended with its weight from
// update.
func MergeTagWeightTable(base, update *TagWeightTable) *TagWeightTable {
	if base == nil {
		base = NewTagWeightTable()
	}
	update.Each(func(tag string, weight float64) {
		if old, ok := base.Get(tag); ok {
			base.Set(tag, math.Max(old+MergeIncrement, MinMergedWeight))
			return
		}
		base.setKind(tag, weight, update.IsNetwork(tag))
	})
	return base
}
