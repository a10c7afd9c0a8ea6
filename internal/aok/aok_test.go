package aok

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"ranksum/adapters/stats/wilcoxon"
	"ranksum/domain/hypothesis"
)

var errBoom = errors.New("boom")

func TestFloat(t *testing.T) {
	assert.Equal(t, 1.5, Float(1.5, nil))
	assert.True(t, math.IsNaN(Float(1.5, errBoom)))
}

func TestOr(t *testing.T) {
	assert.Equal(t, "ok", Or("ok", nil, "fallback"))
	assert.Equal(t, "fallback", Or("ok", errBoom, "fallback"))
}

func TestTestResult(t *testing.T) {
	good := hypothesis.NewHypTestResult(0.01, 0.05, hypothesis.Gt)
	assert.Equal(t, good, TestResult(good, nil))

	fb := TestResult(good, errBoom)
	assert.True(t, math.IsNaN(fb.P()))
	assert.True(t, math.IsNaN(fb.Alpha()))
	assert.Equal(t, hypothesis.Ne, fb.AltHyp())
	assert.Equal(t, hypothesis.Null(), fb.Accepted())
}

func TestCi(t *testing.T) {
	ci := hypothesis.Ci{Lo: 1, Hi: 2}
	assert.Equal(t, ci, Ci(ci, nil))

	fb := Ci(ci, errBoom)
	assert.True(t, math.IsNaN(fb.Lo))
	assert.True(t, math.IsNaN(fb.Hi))
}

func TestWithRankSum(t *testing.T) {
	rs, err := wilcoxon.FromSlices(nil, []float64{1})
	assert.NoError(t, err)

	assert.True(t, math.IsNaN(Float(rs.Z())))
	assert.True(t, math.IsNaN(Float(rs.P(hypothesis.Ne))))
	assert.True(t, math.IsNaN(TestResult(rs.Test(hypothesis.Ne, 0.05)).P()))
}
