// Package aok coerces (value, error) results into plain values, substituting a
// NaN-based fallback on error. It is meant for reporting, where a failed
// statistic should show up as NaN rather than abort the whole report.
package aok

import (
	"math"

	"ranksum/domain/hypothesis"
)

// Or returns v, or fallback when err is non-nil
func Or[T any](v T, err error, fallback T) T {
	if err != nil {
		return fallback
	}
	return v
}

// Float returns v, or NaN when err is non-nil
func Float(v float64, err error) float64 {
	return Or(v, err, math.NaN())
}

// TestResult returns r, or a result with NaN p and alpha, alternative Ne and
// the null hypothesis accepted when err is non-nil.
func TestResult(r hypothesis.HypTestResult, err error) hypothesis.HypTestResult {
	return Or(r, err, hypothesis.NewHypTestResult(math.NaN(), math.NaN(), hypothesis.Ne))
}

// Ci returns c, or (NaN, NaN) when err is non-nil
func Ci(c hypothesis.Ci, err error) hypothesis.Ci {
	return Or(c, err, hypothesis.Ci{Lo: math.NaN(), Hi: math.NaN()})
}
