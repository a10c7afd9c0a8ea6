// Package wilcoxon implements the Wilcoxon rank sum two-sample test, also known
// as the Mann-Whitney U test, using the large sample normal approximation with
// tie correction and without continuity correction.
//
// Samples are supplied already sorted. They are merged lazily in a single pass
// and only the sample sizes, the rank sum of the second sample (Y) and the tie
// correction term are retained.
package wilcoxon

import (
	"iter"
	"math"

	"ranksum/adapters/stats/distributions"
	"ranksum/domain/core"
	"ranksum/domain/hypothesis"
	"ranksum/internal/seq"
)

// RankSum holds the rank statistics of two samples X and Y. It is immutable
// once constructed and safe for concurrent use.
type RankSum struct {
	nX          uint64
	nY          uint64
	w           float64
	tiesSumProd uint64
}

// FromGroupedSeqs ranks two samples given as (value, count) pairs. Values in
// each sequence must be strictly increasing; otherwise an error wrapping
// core.ErrOrderingViolation is returned. Each sequence is consumed once.
func FromGroupedSeqs(groupsX, groupsY iter.Seq2[float64, uint64]) (*RankSum, error) {
	return merge(groupsX, groupsY)
}

// FromSeqs ranks two samples whose values are in non-decreasing order
func FromSeqs(x, y iter.Seq[float64]) (*RankSum, error) {
	return merge(seq.WithCounts(x), seq.WithCounts(y))
}

// FromSlices ranks two samples sorted in non-decreasing order
func FromSlices(x, y []float64) (*RankSum, error) {
	return FromSeqs(seq.Values(x), seq.Values(y))
}

// NX returns the size of the first sample
func (r *RankSum) NX() uint64 {
	return r.nX
}

// NY returns the size of the second sample
func (r *RankSum) NY() uint64 {
	return r.nY
}

// W returns the Wilcoxon rank sum statistic: the sum of the ranks of Y in the
// combined ranking of X and Y (Hollander, Wolfe and Chicken, section 4.1).
func (r *RankSum) W() float64 {
	return r.w
}

// TiesSumProd returns the sum of (m-1)m(m+1) over every distinct combined
// value with multiplicity m.
func (r *RankSum) TiesSumProd() uint64 {
	return r.tiesSumProd
}

// MannWhitneyUY returns W - n_y(n_y+1)/2, the number of (x, y) pairs with
// x < y, ties counting one half.
func (r *RankSum) MannWhitneyUY() float64 {
	nY := float64(r.nY)
	return r.w - nY*(nY+1)/2
}

// MannWhitneyUX returns n_x*n_y - MannWhitneyUY(), the number of (x, y)
// pairs with y < x, ties counting one half.
func (r *RankSum) MannWhitneyUX() float64 {
	return float64(r.nX)*float64(r.nY) - r.MannWhitneyUY()
}

// MannWhitneyU returns the smaller of MannWhitneyUX and MannWhitneyUY
func (r *RankSum) MannWhitneyU() float64 {
	return math.Min(r.MannWhitneyUX(), r.MannWhitneyUY())
}

// RW returns the statistic R's wilcox.test reports as W for (x, y), which is
// MannWhitneyUX (Hollander, Wolfe and Chicken, Example 4.1).
func (r *RankSum) RW() float64 {
	return r.MannWhitneyUX()
}

// Z returns the z-score of W under the large sample normal approximation, with
// tie correction and without continuity correction. The sign is chosen so that
// Y tending to exceed X gives a negative z.
//
// It fails with core.ErrEmptySample when either sample is empty, and with
// core.ErrExcessiveTies when the tie-corrected variance is not positive, which
// happens when every observation in both samples has the same value.
func (r *RankSum) Z() (float64, error) {
	// Guards the division by n_x+n_y-1 in the tie adjustment.
	if r.nX == 0 || r.nY == 0 {
		return math.NaN(), core.NewEmptySampleError(r.nX, r.nY)
	}

	nX := float64(r.nX)
	nY := float64(r.nY)
	n := nX + nY
	ties := float64(r.tiesSumProd)

	e0 := nY * (n + 1) / 2
	var0Base := nX * nY * (n + 1) / 12
	var0TieAdjust := nX * nY * ties / (12 * n * (n - 1))
	var0 := var0Base - var0TieAdjust
	if var0 <= 0 {
		return math.NaN(), core.ErrExcessiveTies
	}

	return -(r.w - e0) / math.Sqrt(var0), nil
}

// P returns the p-value of the normal approximation for altHyp
func (r *RankSum) P(altHyp hypothesis.AltHyp) (float64, error) {
	z, err := r.Z()
	if err != nil {
		return math.NaN(), err
	}
	return distributions.ZToP(z, altHyp), nil
}

// Test runs the rank sum test at significance level alpha, which must lie in
// the open interval (0, 1).
func (r *RankSum) Test(altHyp hypothesis.AltHyp, alpha float64) (hypothesis.HypTestResult, error) {
	if err := hypothesis.CheckAlpha(alpha); err != nil {
		return hypothesis.HypTestResult{}, err
	}
	p, err := r.P(altHyp)
	if err != nil {
		return hypothesis.HypTestResult{}, err
	}
	return hypothesis.NewHypTestResult(p, alpha, altHyp), nil
}
