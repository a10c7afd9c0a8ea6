package distributions

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ranksum/domain/core"
	"ranksum/domain/hypothesis"
)

func TestZToP(t *testing.T) {
	z := 1.224744871391589 // book example: 10/sqrt(200/3)

	assert.InDelta(t, 0.8897, ZToP(z, hypothesis.Lt), 0.0005)
	assert.InDelta(t, 0.1103, ZToP(z, hypothesis.Gt), 0.0005)
	assert.InDelta(t, 0.2207, ZToP(z, hypothesis.Ne), 0.0005)
}

func TestZToP_Symmetry(t *testing.T) {
	for _, z := range []float64{-3, -1.5, -0.2, 0, 0.7, 2.5} {
		lt := ZToP(z, hypothesis.Lt)
		gt := ZToP(z, hypothesis.Gt)
		ne := ZToP(z, hypothesis.Ne)

		assert.InDelta(t, 1.0, lt+gt, 1e-12, "z=%v", z)
		assert.InDelta(t, 2*math.Min(lt, gt), ne, 1e-12, "z=%v", z)
		assert.InDelta(t, ne, ZToP(-z, hypothesis.Ne), 1e-12, "z=%v", z)
	}
	assert.Equal(t, 1.0, ZToP(0, hypothesis.Ne))
}

func TestZCritical(t *testing.T) {
	zc, err := ZCritical(0.05, hypothesis.Ne)
	require.NoError(t, err)
	assert.InDelta(t, 1.959964, zc, 1e-6)

	zc, err = ZCritical(0.05, hypothesis.Gt)
	require.NoError(t, err)
	assert.InDelta(t, 1.644854, zc, 1e-6)

	zc, err = ZCritical(0.05, hypothesis.Lt)
	require.NoError(t, err)
	assert.InDelta(t, -1.644854, zc, 1e-6)

	for _, alt := range []hypothesis.AltHyp{hypothesis.Lt, hypothesis.Gt, hypothesis.Ne} {
		zc, err := ZCritical(0.01, alt)
		require.NoError(t, err)
		assert.InDelta(t, 0.01, ZToP(zc, alt), 1e-9, "alt=%v", alt)
	}

	_, err = ZCritical(0, hypothesis.Ne)
	assert.ErrorIs(t, err, core.ErrInvalidAlpha)
}
