package testkit

import (
	"math"
	"math/rand"
	"slices"
)

// BookData returns the samples of Hollander, Wolfe and Chicken,
// Nonparametric Statistical Methods (3rd ed.), Example 4.1.
func BookData() (x, y []float64) {
	x = []float64{0.73, 0.80, 0.83, 1.04, 1.38, 1.45, 1.46, 1.64, 1.89, 1.91}
	y = []float64{0.74, 0.88, 0.90, 1.15, 1.21}
	return x, y
}

// ContrivedData returns two sorted samples with ties within and across samples
func ContrivedData() (x, y []float64) {
	x = []float64{
		85, 90, 78, 92, 88, 76, 95, 89, 91, 82, 115, 120, 108, 122, 118, 106,
		125, 119, 121, 112, 145, 150, 138, 152, 148, 136, 155, 149, 151, 142,
		175, 180, 168, 182, 178, 166, 185, 179, 181, 172, 205, 210, 198, 212,
		208, 196, 215, 209, 211, 202,
	}
	y = []float64{
		70, 85, 80, 90, 75, 88, 92, 79, 86, 81, 92, 100, 115, 110, 120, 105,
		118, 122, 109, 116, 111, 122, 130, 145, 140, 150, 135, 148, 152, 139,
		146, 141, 152, 160, 175, 170, 180, 165, 178, 182, 169, 176, 171, 182,
		190, 205, 200, 210, 195, 208, 212, 199, 206, 201, 212,
	}
	slices.Sort(x)
	slices.Sort(y)
	return x, y
}

// ShiftedContrivedData is ContrivedData with 35 added to every value of y
func ShiftedContrivedData() (x, y []float64) {
	x, y = ContrivedData()
	return x, Shift(y, 35)
}

// Shift returns a copy of s with delta added to every value
func Shift(s []float64, delta float64) []float64 {
	out := make([]float64, len(s))
	for i, v := range s {
		out[i] = v + delta
	}
	return out
}

// SampleGenerator produces reproducible sorted samples
type SampleGenerator struct {
	rng *rand.Rand
}

// NewSampleGenerator creates a generator seeded with seed
func NewSampleGenerator(seed int64) *SampleGenerator {
	return &SampleGenerator{rng: rand.New(rand.NewSource(seed))}
}

// Normal returns n sorted draws from N(mean, sd^2)
func (g *SampleGenerator) Normal(n int, mean, sd float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = mean + sd*g.rng.NormFloat64()
	}
	slices.Sort(out)
	return out
}

// Rounded returns n sorted draws from N(mean, sd^2) rounded to step, which
// produces plenty of ties.
func (g *SampleGenerator) Rounded(n int, mean, sd, step float64) []float64 {
	out := g.Normal(n, mean, sd)
	for i, v := range out {
		out[i] = math.Round(v/step) * step
	}
	return out
}
