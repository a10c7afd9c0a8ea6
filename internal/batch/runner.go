// Package batch evaluates the rank sum test over many independent sample
// pairs concurrently and collects the outcomes into a single report.
package batch

import (
	"context"
	"fmt"
	"math"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"ranksum/adapters/stats/wilcoxon"
	"ranksum/domain/core"
	"ranksum/domain/hypothesis"
	"ranksum/internal"
	"ranksum/internal/aok"
	"ranksum/internal/errors"
	"ranksum/internal/jsonx"
	"ranksum/internal/profiling"
)

// Pair is one named two-sample comparison. X and Y need not be sorted.
type Pair struct {
	Name string    `json:"name"`
	X    []float64 `json:"x"`
	Y    []float64 `json:"y"`
}

// PairResult is the outcome for one pair. Statistics that could not be
// computed are NaN and Err/Code describe the failure.
type PairResult struct {
	Name     string            `json:"name"`
	NX       uint64            `json:"n_x"`
	NY       uint64            `json:"n_y"`
	W        jsonx.Float       `json:"w"`
	RW       jsonx.Float       `json:"r_w"`
	U        jsonx.Float       `json:"u"`
	Z        jsonx.Float       `json:"z"`
	P        jsonx.Float       `json:"p"`
	Accepted hypothesis.Hyp    `json:"accepted"`
	X        profiling.Summary `json:"x_summary"`
	Y        profiling.Summary `json:"y_summary"`
	Err      string            `json:"error,omitempty"`
	Code     string            `json:"code,omitempty"`
}

// Failed reports whether the pair could not be tested
func (r PairResult) Failed() bool {
	return r.Code != ""
}

// Report collects the results of one run in input order
type Report struct {
	RunID    core.RunID        `json:"run_id"`
	Alpha    float64           `json:"alpha"`
	AltHyp   hypothesis.AltHyp `json:"alt_hyp"`
	Results  []PairResult      `json:"results"`
	Failed   int               `json:"failed"`
	Duration time.Duration     `json:"duration_ns"`
}

// Runner evaluates pairs with bounded concurrency
type Runner struct {
	MaxConcurrency int
	Timeout        time.Duration // zero means no deadline
	Logger         *internal.Logger
}

// NewRunner creates a runner. A nil logger disables logging.
func NewRunner(maxConcurrency int, logger *internal.Logger) *Runner {
	return &Runner{
		MaxConcurrency: maxConcurrency,
		Logger:         logger.WithComponent("Batch"),
	}
}

// Run tests every pair against altHyp at level alpha. Per-pair failures are
// recorded in the report; only an invalid alpha or a cancelled context fail
// the whole run.
func (r *Runner) Run(ctx context.Context, pairs []Pair, altHyp hypothesis.AltHyp, alpha float64) (*Report, error) {
	if err := hypothesis.CheckAlpha(alpha); err != nil {
		return nil, err
	}
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	start := time.Now()
	report := &Report{
		RunID:   core.NewRunID(),
		Alpha:   alpha,
		AltHyp:  altHyp,
		Results: make([]PairResult, len(pairs)),
	}

	limit := max(r.MaxConcurrency, 1)
	r.Logger.Info("run %s: %d pairs, alt=%s, alpha=%v, concurrency=%d", report.RunID, len(pairs), altHyp, alpha, limit)

	sem := semaphore.NewWeighted(int64(limit))
	g, gctx := errgroup.WithContext(ctx)
	for i, pair := range pairs {
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			if err := gctx.Err(); err != nil {
				return err
			}
			report.Results[i] = r.evaluate(pair, altHyp, alpha)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		r.Logger.Warn("run %s aborted: %v", report.RunID, err)
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		r.Logger.Warn("run %s aborted: %v", report.RunID, err)
		return nil, err
	}

	for _, res := range report.Results {
		if res.Failed() {
			report.Failed++
		}
	}
	report.Duration = time.Since(start)
	r.Logger.Info("run %s done: %d/%d failed in %v", report.RunID, report.Failed, len(pairs), report.Duration)
	return report, nil
}

func (r *Runner) evaluate(pair Pair, altHyp hypothesis.AltHyp, alpha float64) (res PairResult) {
	nan := jsonx.Float(math.NaN())
	res = PairResult{
		Name: pair.Name,
		NX:   uint64(len(pair.X)),
		NY:   uint64(len(pair.Y)),
		W:    nan, RW: nan, U: nan, Z: nan, P: nan,
		Accepted: hypothesis.Null(),
	}
	defer func() {
		if v := recover(); v != nil {
			r.Logger.Error("pair %q: %v", pair.Name, v)
			res.Err = fmt.Sprint(v)
			res.Code = errors.CodeInternalError
		}
	}()

	x := slices.Clone(pair.X)
	y := slices.Clone(pair.Y)
	slices.Sort(x)
	slices.Sort(y)
	res.X = profiling.Describe(x)
	res.Y = profiling.Describe(y)

	if slices.ContainsFunc(x, math.IsNaN) || slices.ContainsFunc(y, math.IsNaN) {
		res.fail(errors.InvalidInput("samples must not contain NaN"))
		return res
	}

	rs, err := wilcoxon.FromSlices(x, y)
	if err != nil {
		res.fail(err)
		return res
	}
	res.W = jsonx.Float(rs.W())
	res.RW = jsonx.Float(rs.RW())
	res.U = jsonx.Float(rs.MannWhitneyU())
	res.Z = jsonx.Float(aok.Float(rs.Z()))

	result, err := rs.Test(altHyp, alpha)
	result = aok.TestResult(result, err)
	res.P = jsonx.Float(result.P())
	res.Accepted = result.Accepted()
	if err != nil {
		res.fail(err)
	}

	r.Logger.Debug("pair %q: n_x=%d n_y=%d w=%v p=%v", pair.Name, res.NX, res.NY, res.W, res.P)
	return res
}

func (res *PairResult) fail(err error) {
	appErr := errors.FromDomain(err)
	res.Err = appErr.Error()
	res.Code = appErr.Code
}
