package kinematics

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// SeriesStats summarises one angle series. NaN samples (degenerate
// geometry) are excluded; Valid counts the samples that contributed. A
// series with no valid samples reports NaN for every statistic.
type SeriesStats struct {
	Mean  float64
	Std   float64
	Min   float64
	Max   float64
	Valid int
}

// ComputeStats computes mean, population standard deviation, min and max
// over the non-NaN samples of values.
func ComputeStats(values []float64) SeriesStats {
	valid := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			valid = append(valid, v)
		}
	}
	if len(valid) == 0 {
		nan := math.NaN()
		return SeriesStats{Mean: nan, Std: nan, Min: nan, Max: nan}
	}
	return SeriesStats{
		Mean:  stat.Mean(valid, nil),
		Std:   stat.PopStdDev(valid, nil),
		Min:   floats.Min(valid),
		Max:   floats.Max(valid),
		Valid: len(valid),
	}
}
