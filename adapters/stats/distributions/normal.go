package distributions

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"ranksum/domain/hypothesis"
)

// ZToP returns the probability that the standard normal distribution produces
// a value more extreme than z in the direction given by altHyp: the left tail
// for Lt, the right tail for Gt and both tails for Ne.
func ZToP(z float64, altHyp hypothesis.AltHyp) float64 {
	switch altHyp {
	case hypothesis.Lt:
		return distuv.UnitNormal.CDF(z)
	case hypothesis.Gt:
		return distuv.UnitNormal.CDF(-z)
	default:
		return 2 * distuv.UnitNormal.CDF(-math.Abs(z))
	}
}

// ZCritical returns the boundary of the rejection region for alpha, so that
// ZToP(ZCritical(alpha, a), a) == alpha. It is negative for Lt and positive
// for Gt and Ne (Ne rejects when |z| exceeds it).
func ZCritical(alpha float64, altHyp hypothesis.AltHyp) (float64, error) {
	if err := hypothesis.CheckAlpha(alpha); err != nil {
		return math.NaN(), err
	}
	switch altHyp {
	case hypothesis.Lt:
		return distuv.UnitNormal.Quantile(alpha), nil
	case hypothesis.Gt:
		return -distuv.UnitNormal.Quantile(alpha), nil
	default:
		return -distuv.UnitNormal.Quantile(alpha / 2), nil
	}
}
