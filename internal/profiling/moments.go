package profiling

import (
	"iter"
	"math"
)

// SampleMoments accumulates a sample's size, first and second moments, minimum
// and maximum in one pass. The zero value is an empty sample with NaN min and max
// reported through Min and Max.
type SampleMoments struct {
	count uint64
	sum   float64
	sum2  float64
	min   float64
	max   float64
}

// NewSampleMoments creates moments from known totals; min and max are NaN
func NewSampleMoments(count uint64, sum, sum2 float64) SampleMoments {
	return SampleMoments{count: count, sum: sum, sum2: sum2, min: math.NaN(), max: math.NaN()}
}

// MomentsOf accumulates every value of values
func MomentsOf(values iter.Seq[float64]) SampleMoments {
	m := NewSampleMoments(0, 0, 0)
	for v := range values {
		m.Collect(v)
	}
	return m
}

// Collect adds one value
func (m *SampleMoments) Collect(v float64) {
	if m.count == 0 {
		m.min, m.max = v, v
	} else {
		m.min = math.Min(m.min, v)
		m.max = math.Max(m.max, v)
	}
	m.count++
	m.sum += v
	m.sum2 += v * v
}

func (m SampleMoments) N() uint64 { return m.count }

func (m SampleMoments) Sum() float64 { return m.sum }

func (m SampleMoments) Sum2() float64 { return m.sum2 }

// Mean is NaN for an empty sample
func (m SampleMoments) Mean() float64 {
	if m.count == 0 {
		return math.NaN()
	}
	return m.sum / float64(m.count)
}

// Sum2Deviations is the sum of squared deviations from the mean; NaN when empty
func (m SampleMoments) Sum2Deviations() float64 {
	if m.count == 0 {
		return math.NaN()
	}
	return m.sum2 - m.sum*m.sum/float64(m.count)
}

// Var is the unbiased sample variance; NaN unless N() > 1
func (m SampleMoments) Var() float64 {
	if m.count <= 1 {
		return math.NaN()
	}
	return m.Sum2Deviations() / float64(m.count-1)
}

// Stdev is the sample standard deviation; NaN unless N() > 1
func (m SampleMoments) Stdev() float64 {
	return math.Sqrt(m.Var())
}

// Min is NaN for an empty sample
func (m SampleMoments) Min() float64 {
	if m.count == 0 {
		return math.NaN()
	}
	return m.min
}

// Max is NaN for an empty sample
func (m SampleMoments) Max() float64 {
	if m.count == 0 {
		return math.NaN()
	}
	return m.max
}
