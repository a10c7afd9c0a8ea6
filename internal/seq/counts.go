// Package seq groups runs of equal values in lazily produced sample sequences.
package seq

import (
	"iter"
	"slices"
)

// GroupedValue is a sample value and the length of its run
type GroupedValue struct {
	Value float64 `json:"value"`
	Count uint64  `json:"count"`
}

// WithCounts collapses consecutive equal values of values into (value, count)
// pairs. Ordering is not checked here. The returned sequence is restartable
// exactly when values is.
func WithCounts(values iter.Seq[float64]) iter.Seq2[float64, uint64] {
	return func(yield func(float64, uint64) bool) {
		var prev float64
		var count uint64
		for v := range values {
			if count > 0 && v == prev {
				count++
				continue
			}
			if count > 0 && !yield(prev, count) {
				return
			}
			prev, count = v, 1
		}
		if count > 0 {
			yield(prev, count)
		}
	}
}

// Values is a restartable sequence over s
func Values(s []float64) iter.Seq[float64] {
	return slices.Values(s)
}

// Counts adapts already-grouped values into a pair sequence
func Counts(groups []GroupedValue) iter.Seq2[float64, uint64] {
	return func(yield func(float64, uint64) bool) {
		for _, g := range groups {
			if !yield(g.Value, g.Count) {
				return
			}
		}
	}
}

// Collect drains a pair sequence
func Collect(groups iter.Seq2[float64, uint64]) []GroupedValue {
	var out []GroupedValue
	for v, c := range groups {
		out = append(out, GroupedValue{Value: v, Count: c})
	}
	return out
}
