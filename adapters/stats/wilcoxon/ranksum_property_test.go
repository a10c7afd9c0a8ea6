package wilcoxon

import (
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"ranksum/domain/core"
)

// sortedSample draws a sorted sample of small integers so that ties within and
// across samples are common.
func sortedSample(t *rapid.T, label string) []float64 {
	ints := rapid.SliceOfN(rapid.IntRange(-5, 15), 0, 40).Draw(t, label)
	out := make([]float64, len(ints))
	for i, v := range ints {
		out[i] = float64(v) / 2
	}
	slices.Sort(out)
	return out
}

type labeled struct {
	value float64
	fromY bool
}

// referenceRanks ranks the sorted union directly and returns the rank sums of
// both samples and the tie term.
func referenceRanks(x, y []float64) (sumX, sumY float64, ties uint64) {
	all := make([]labeled, 0, len(x)+len(y))
	for _, v := range x {
		all = append(all, labeled{value: v})
	}
	for _, v := range y {
		all = append(all, labeled{value: v, fromY: true})
	}
	slices.SortFunc(all, func(a, b labeled) int {
		switch {
		case a.value < b.value:
			return -1
		case a.value > b.value:
			return 1
		}
		return 0
	})

	for i := 0; i < len(all); {
		j := i
		for j < len(all) && all[j].value == all[i].value {
			j++
		}
		rank := float64(i+1+j) / 2
		for k := i; k < j; k++ {
			if all[k].fromY {
				sumY += rank
			} else {
				sumX += rank
			}
		}
		m := uint64(j - i)
		ties += (m - 1) * m * (m + 1)
		i = j
	}
	return sumX, sumY, ties
}

func TestProperty_RankSumComplementarity(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		x := sortedSample(rt, "x")
		y := sortedSample(rt, "y")

		rs, err := FromSlices(x, y)
		require.NoError(rt, err)

		sumX, sumY, ties := referenceRanks(x, y)
		n := float64(len(x) + len(y))

		assert.Equal(rt, uint64(len(x)), rs.NX())
		assert.Equal(rt, uint64(len(y)), rs.NY())
		assert.Equal(rt, sumY, rs.W(), "W must equal the directly computed rank sum of y")
		assert.Equal(rt, (1+n)*n/2, sumX+rs.W())
		assert.Equal(rt, ties, rs.TiesSumProd())
	})
}

func TestProperty_MannWhitneyU(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		x := sortedSample(rt, "x")
		y := sortedSample(rt, "y")

		rs, err := FromSlices(x, y)
		require.NoError(rt, err)

		product := float64(rs.NX()) * float64(rs.NY())
		ux, uy := rs.MannWhitneyUX(), rs.MannWhitneyUY()

		assert.Equal(rt, product, ux+uy)
		assert.GreaterOrEqual(rt, ux, 0.0)
		assert.GreaterOrEqual(rt, uy, 0.0)
		assert.LessOrEqual(rt, ux, product)
		assert.LessOrEqual(rt, uy, product)
		assert.Equal(rt, math.Min(ux, uy), rs.MannWhitneyU())

		// U of Y counts the (x, y) pairs with x before y, ties counting half.
		var pairs float64
		for _, vx := range x {
			for _, vy := range y {
				switch {
				case vx < vy:
					pairs++
				case vx == vy:
					pairs += 0.5
				}
			}
		}
		assert.Equal(rt, pairs, uy)
	})
}

func TestProperty_SwappingSamplesNegatesZ(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		x := sortedSample(rt, "x")
		y := sortedSample(rt, "y")

		xy, err := FromSlices(x, y)
		require.NoError(rt, err)
		yx, err := FromSlices(y, x)
		require.NoError(rt, err)

		assert.Equal(rt, xy.MannWhitneyUX(), yx.MannWhitneyUY())
		assert.Equal(rt, xy.TiesSumProd(), yx.TiesSumProd())

		zxy, errXY := xy.Z()
		zyx, errYX := yx.Z()
		if errXY != nil {
			if errors.Is(errXY, core.ErrEmptySample) {
				assert.ErrorIs(rt, errYX, core.ErrEmptySample)
			} else {
				assert.ErrorIs(rt, errYX, core.ErrExcessiveTies)
			}
			return
		}
		require.NoError(rt, errYX)
		assert.InDelta(rt, -zxy, zyx, 1e-9)
	})
}

func TestProperty_ZFailsOnlyWhenDegenerate(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		x := sortedSample(rt, "x")
		y := sortedSample(rt, "y")

		rs, err := FromSlices(x, y)
		require.NoError(rt, err)
		z, err := rs.Z()

		switch {
		case len(x) == 0 || len(y) == 0:
			assert.ErrorIs(rt, err, core.ErrEmptySample)
		case allEqual(append(slices.Clone(x), y...)):
			assert.ErrorIs(rt, err, core.ErrExcessiveTies)
		default:
			require.NoError(rt, err)
			assert.False(rt, math.IsNaN(z) || math.IsInf(z, 0))
		}
	})
}

func TestProperty_RejectsUnsortedInput(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		x := sortedSample(rt, "x")
		if len(x) < 2 || x[0] == x[len(x)-1] {
			rt.Skip("needs two distinct values")
		}
		slices.Reverse(x)

		_, err := FromSlices(sortedSample(rt, "y"), x)
		assert.ErrorIs(rt, err, core.ErrOrderingViolation)
	})
}

func allEqual(s []float64) bool {
	for _, v := range s {
		if v != s[0] {
			return false
		}
	}
	return true
}
