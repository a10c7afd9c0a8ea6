package batch

import (
	"context"
	"encoding/json"
	"math"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ranksum/domain/core"
	"ranksum/domain/hypothesis"
	"ranksum/internal/errors"
	"ranksum/internal/testkit"
)

func reversed(s []float64) []float64 {
	out := slices.Clone(s)
	slices.Reverse(out)
	return out
}

func TestRun_MixedPairs(t *testing.T) {
	bookX, bookY := testkit.BookData()
	shiftX, shiftY := testkit.ShiftedContrivedData()

	pairs := []Pair{
		{Name: "book", X: reversed(bookX), Y: bookY},
		{Name: "shifted", X: shiftX, Y: reversed(shiftY)},
		{Name: "empty", X: nil, Y: []float64{1, 2}},
		{Name: "tied", X: []float64{3, 3}, Y: []float64{3, 3, 3}},
		{Name: "nan", X: []float64{1, math.NaN()}, Y: []float64{2}},
	}

	report, err := NewRunner(2, nil).Run(context.Background(), pairs, hypothesis.Ne, 0.05)
	require.NoError(t, err)
	require.Len(t, report.Results, len(pairs))
	assert.False(t, report.RunID == "")
	assert.Equal(t, 3, report.Failed)

	for i, res := range report.Results {
		assert.Equal(t, pairs[i].Name, res.Name)
	}

	book := report.Results[0]
	assert.False(t, book.Failed())
	assert.Equal(t, 30.0, float64(book.W))
	assert.Equal(t, 35.0, float64(book.RW))
	assert.Equal(t, 15.0, float64(book.U))
	assert.InDelta(t, 0.2207, float64(book.P), 1e-4)
	assert.True(t, book.Accepted.IsNull())
	assert.Equal(t, len(bookX), book.X.N)

	shifted := report.Results[1]
	assert.InDelta(t, 0.0005974, float64(shifted.P), 1e-6)
	assert.Equal(t, hypothesis.Alt(hypothesis.Ne), shifted.Accepted)

	assert.Equal(t, errors.CodeEmptySample, report.Results[2].Code)
	assert.True(t, math.IsNaN(float64(report.Results[2].Z)))

	tied := report.Results[3]
	assert.Equal(t, errors.CodeExcessiveTies, tied.Code)
	assert.Equal(t, 9.0, float64(tied.W))
	assert.True(t, math.IsNaN(float64(tied.P)))
	assert.True(t, tied.Accepted.IsNull())

	assert.Equal(t, errors.CodeInvalidInput, report.Results[4].Code)
}

func TestRun_DoesNotMutateInput(t *testing.T) {
	x := []float64{3, 1, 2}
	y := []float64{6, 4, 5}

	_, err := NewRunner(1, nil).Run(context.Background(), []Pair{{Name: "p", X: x, Y: y}}, hypothesis.Lt, 0.05)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 1, 2}, x)
	assert.Equal(t, []float64{6, 4, 5}, y)
}

func TestRun_InvalidAlpha(t *testing.T) {
	_, err := NewRunner(1, nil).Run(context.Background(), nil, hypothesis.Ne, 1)
	assert.ErrorIs(t, err, core.ErrInvalidAlpha)
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	x, y := testkit.BookData()
	_, err := NewRunner(1, nil).Run(ctx, []Pair{{Name: "a", X: x, Y: y}, {Name: "b", X: x, Y: y}}, hypothesis.Ne, 0.05)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_Timeout(t *testing.T) {
	runner := NewRunner(1, nil)
	runner.Timeout = time.Nanosecond

	gen := testkit.NewSampleGenerator(3)
	pairs := make([]Pair, 50)
	for i := range pairs {
		pairs[i] = Pair{Name: "p", X: gen.Normal(2000, 0, 1), Y: gen.Normal(2000, 0, 1)}
	}

	_, err := runner.Run(context.Background(), pairs, hypothesis.Ne, 0.05)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRun_ManyPairsMatchSequential(t *testing.T) {
	gen := testkit.NewSampleGenerator(11)
	pairs := make([]Pair, 40)
	for i := range pairs {
		pairs[i] = Pair{Name: "p", X: gen.Rounded(30, 0, 1, 0.5), Y: gen.Rounded(25, 0.3, 1, 0.5)}
	}

	parallel, err := NewRunner(8, nil).Run(context.Background(), pairs, hypothesis.Gt, 0.1)
	require.NoError(t, err)
	sequential, err := NewRunner(1, nil).Run(context.Background(), pairs, hypothesis.Gt, 0.1)
	require.NoError(t, err)

	for i := range pairs {
		assert.Equal(t, sequential.Results[i], parallel.Results[i])
	}
}

func TestReport_JSON(t *testing.T) {
	report, err := NewRunner(1, nil).Run(context.Background(),
		[]Pair{{Name: "tied", X: []float64{1}, Y: []float64{1}}}, hypothesis.Gt, 0.05)
	require.NoError(t, err)

	b, err := json.Marshal(report)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, "gt", decoded["alt_hyp"])
	result := decoded["results"].([]any)[0].(map[string]any)
	assert.Nil(t, result["p"])
	assert.Equal(t, "null", result["accepted"])
	assert.Equal(t, errors.CodeExcessiveTies, result["code"])
}
