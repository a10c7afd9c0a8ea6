package profiling

import (
	"math"

	"github.com/montanaflynn/stats"

	"ranksum/internal/jsonx"
)

// Summary holds descriptive statistics of one sample for reports
type Summary struct {
	N      int         `json:"n"`
	Mean   jsonx.Float `json:"mean"`
	StdDev jsonx.Float `json:"std_dev"`
	Min    jsonx.Float `json:"min"`
	Q25    jsonx.Float `json:"q25"`
	Median jsonx.Float `json:"median"`
	Q75    jsonx.Float `json:"q75"`
	Max    jsonx.Float `json:"max"`
}

// Describe summarizes data. Statistics that are undefined for the sample size
// (everything when empty, the standard deviation below two values) are NaN.
func Describe(data []float64) Summary {
	nan := jsonx.Float(math.NaN())
	summary := Summary{N: len(data), Mean: nan, StdDev: nan, Min: nan, Q25: nan, Median: nan, Q75: nan, Max: nan}
	if len(data) == 0 {
		return summary
	}

	get := func(v float64, err error) jsonx.Float {
		if err != nil {
			return nan
		}
		return jsonx.Float(v)
	}

	summary.Mean = get(stats.Mean(data))
	summary.Min = get(stats.Min(data))
	summary.Max = get(stats.Max(data))
	summary.Median = get(stats.Median(data))
	summary.Q25 = get(stats.Percentile(data, 25))
	summary.Q75 = get(stats.Percentile(data, 75))
	if len(data) > 1 {
		summary.StdDev = get(stats.StandardDeviationSample(data))
	}

	return summary
}
