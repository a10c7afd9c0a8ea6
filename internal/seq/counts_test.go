package seq

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithCounts(t *testing.T) {
	dat := []float64{1, 3, 9, 9, 10, 10, 10, 10, 20}
	got := Collect(WithCounts(Values(dat)))
	expected := []GroupedValue{{1, 1}, {3, 1}, {9, 2}, {10, 4}, {20, 1}}
	assert.Equal(t, expected, got)
}

func TestWithCounts_EdgeCases(t *testing.T) {
	assert.Empty(t, Collect(WithCounts(Values(nil))))
	assert.Equal(t, []GroupedValue{{5, 1}}, Collect(WithCounts(Values([]float64{5}))))
	assert.Equal(t, []GroupedValue{{2, 4}}, Collect(WithCounts(Values([]float64{2, 2, 2, 2}))))
}

func TestWithCounts_OnlyMergesNeighbours(t *testing.T) {
	// Unsorted input is passed through; ordering is enforced downstream.
	got := Collect(WithCounts(Values([]float64{1, 2, 1, 1})))
	assert.Equal(t, []GroupedValue{{1, 1}, {2, 1}, {1, 2}}, got)
}

func TestWithCounts_NaNNeverMerges(t *testing.T) {
	got := Collect(WithCounts(Values([]float64{math.NaN(), math.NaN()})))
	assert.Len(t, got, 2)
	for _, g := range got {
		assert.Equal(t, uint64(1), g.Count)
	}
}

func TestWithCounts_Restartable(t *testing.T) {
	groups := WithCounts(Values([]float64{1, 1, 2}))
	first := Collect(groups)
	second := Collect(groups)
	assert.Equal(t, first, second)
}

func TestWithCounts_EarlyStop(t *testing.T) {
	var seen []GroupedValue
	for v, c := range WithCounts(Values([]float64{1, 1, 2, 3, 3, 3})) {
		seen = append(seen, GroupedValue{v, c})
		if len(seen) == 2 {
			break
		}
	}
	assert.Equal(t, []GroupedValue{{1, 2}, {2, 1}}, seen)
}

func TestWithCounts_ConsumesSourceOnce(t *testing.T) {
	pulls := 0
	source := func(yield func(float64) bool) {
		for _, v := range []float64{4, 4, 7} {
			pulls++
			if !yield(v) {
				return
			}
		}
	}
	assert.Equal(t, []GroupedValue{{4, 2}, {7, 1}}, Collect(WithCounts(source)))
	assert.Equal(t, 3, pulls)
}

func TestCounts(t *testing.T) {
	groups := []GroupedValue{{1, 2}, {4, 1}}
	assert.Equal(t, groups, Collect(Counts(groups)))
}
