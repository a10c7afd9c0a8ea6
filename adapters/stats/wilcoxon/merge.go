package wilcoxon

import (
	"fmt"
	"iter"
	"math"
	"math/bits"

	"ranksum/domain/core"
	"ranksum/internal/seq"
)

// cursor walks one grouped sample. head is valid while active is true.
type cursor struct {
	next   func() (float64, uint64, bool)
	stop   func()
	head   seq.GroupedValue
	active bool

	prev    float64
	started bool

	n       uint64
	rankSum float64
}

func newCursor(groups iter.Seq2[float64, uint64]) (*cursor, error) {
	next, stop := iter.Pull2(groups)
	c := &cursor{next: next, stop: stop}
	if err := c.advance(); err != nil {
		c.stop()
		return nil, err
	}
	return c, nil
}

// advance moves to the next group and rejects anything that is not strictly
// greater than the group before it. NaN is unordered and always rejected.
func (c *cursor) advance() error {
	v, count, ok := c.next()
	if !ok {
		c.active = false
		return nil
	}
	if math.IsNaN(v) {
		c.active = false
		return fmt.Errorf("%w: NaN is unordered", core.ErrOrderingViolation)
	}
	if c.started && !(c.prev < v) {
		c.active = false
		return core.NewOrderingError(c.prev, v)
	}
	if count == 0 {
		c.active = false
		return fmt.Errorf("%w: value %v", core.ErrInvalidGroup, v)
	}
	c.head = seq.GroupedValue{Value: v, Count: count}
	c.prev, c.started, c.active = v, true, true
	return nil
}

// take credits the head group with rank and returns its size
func (c *cursor) take(rank float64) uint64 {
	count := c.head.Count
	c.rankSum += float64(count) * rank
	c.n += count
	return count
}

type mergeState int

const (
	bothActive mergeState = iota
	onlyXLeft
	onlyYLeft
	bothExhausted
)

func stateOf(x, y *cursor) mergeState {
	switch {
	case x.active && y.active:
		return bothActive
	case x.active:
		return onlyXLeft
	case y.active:
		return onlyYLeft
	default:
		return bothExhausted
	}
}

// merger holds the running accumulators of one merge
type merger struct {
	x, y        *cursor
	prevRank    float64
	tiesSumProd uint64
}

// rankCohort assigns the midrank of one distinct combined value to the head of
// a and, when the heads are tied, to the head of b as well. The rank boundary
// moves past every item at that value and the tie term is added once.
func (m *merger) rankCohort(a, b *cursor) error {
	count := a.head.Count
	if b != nil {
		count += b.head.Count
	}
	rank := m.prevRank + (float64(count)+1)/2

	a.take(rank)
	if b != nil {
		b.take(rank)
	}
	m.prevRank += float64(count)
	term, ok := tieTerm(count)
	sum, carry := bits.Add64(m.tiesSumProd, term, 0)
	if !ok || carry != 0 {
		return fmt.Errorf("%w: %d observations at %v", core.ErrTieOverflow, count, a.head.Value)
	}
	m.tiesSumProd = sum

	if err := a.advance(); err != nil {
		return err
	}
	if b != nil {
		return b.advance()
	}
	return nil
}

// tieTerm returns (count-1)*count*(count+1) and false when it does not fit in
// a uint64.
func tieTerm(count uint64) (uint64, bool) {
	hi, lo := bits.Mul64(count-1, count)
	if hi != 0 {
		return 0, false
	}
	hi, lo = bits.Mul64(lo, count+1)
	return lo, hi == 0
}

func (m *merger) run() error {
	for {
		switch stateOf(m.x, m.y) {
		case bothExhausted:
			return nil
		case onlyXLeft:
			if err := m.rankCohort(m.x, nil); err != nil {
				return err
			}
		case onlyYLeft:
			if err := m.rankCohort(m.y, nil); err != nil {
				return err
			}
		case bothActive:
			var err error
			switch vx, vy := m.x.head.Value, m.y.head.Value; {
			case vx < vy:
				err = m.rankCohort(m.x, nil)
			case vy < vx:
				err = m.rankCohort(m.y, nil)
			default:
				err = m.rankCohort(m.x, m.y)
			}
			if err != nil {
				return err
			}
		}
	}
}

// checkRankSums panics when the rank sums of X and Y do not add up to the sum
// of the ranks 1..n_x+n_y.
func (m *merger) checkRankSums() {
	nx := float64(m.x.n)
	ny := float64(m.y.n)
	expectedX := (1+nx+ny)*(nx+ny)/2 - m.y.rankSum
	if expectedX != m.x.rankSum {
		panic(fmt.Errorf("%w: rank sum of x is %v, expected %v (n_x=%d, n_y=%d, w=%v)",
			core.ErrInvariantViolated, m.x.rankSum, expectedX, m.x.n, m.y.n, m.y.rankSum))
	}
}

// merge ranks the union of two grouped samples in one forward pass
func merge(groupsX, groupsY iter.Seq2[float64, uint64]) (*RankSum, error) {
	x, err := newCursor(groupsX)
	if err != nil {
		return nil, err
	}
	defer x.stop()

	y, err := newCursor(groupsY)
	if err != nil {
		return nil, err
	}
	defer y.stop()

	m := &merger{x: x, y: y}
	if err := m.run(); err != nil {
		return nil, err
	}
	m.checkRankSums()

	return &RankSum{
		nX:          x.n,
		nY:          y.n,
		w:           y.rankSum,
		tiesSumProd: m.tiesSumProd,
	}, nil
}
