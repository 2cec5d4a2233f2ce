// Package stats provides the descriptive statistics used across the report
// pipeline: mean, sample standard deviation, extrema, linear-interpolation
// percentiles and the coefficient of variation.
package stats

import (
	"math"
	"sort"

	mstats "github.com/montanaflynn/stats"

	"policypilot/domain/core"
)

// Summary holds the descriptive statistics reported for a payout series.
type Summary struct {
	N    int
	Mean float64
	SD   float64
	Min  float64
	Max  float64
	P90  float64
	P95  float64
}

// Describe computes the summary statistics over xs.
// Returns core.ErrInsufficientData for an empty series.
func Describe(xs []float64) (Summary, error) {
	if len(xs) == 0 {
		return Summary{}, core.ErrInsufficientData
	}

	data := mstats.Float64Data(xs)
	mean, err := mstats.Mean(data)
	if err != nil {
		return Summary{}, err
	}
	min, err := mstats.Min(data)
	if err != nil {
		return Summary{}, err
	}
	max, err := mstats.Max(data)
	if err != nil {
		return Summary{}, err
	}
	p90, err := Quantile(xs, 0.90)
	if err != nil {
		return Summary{}, err
	}
	p95, err := Quantile(xs, 0.95)
	if err != nil {
		return Summary{}, err
	}

	return Summary{
		N:    len(xs),
		Mean: mean,
		SD:   SampleStdDev(xs),
		Min:  min,
		Max:  max,
		P90:  p90,
		P95:  p95,
	}, nil
}

// SampleStdDev computes the sample standard deviation (n-1 denominator).
// A series of fewer than two values has SD 0 by convention.
func SampleStdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	sd, err := mstats.StandardDeviationSample(mstats.Float64Data(xs))
	if err != nil {
		return 0
	}
	return sd
}

// Quantile computes the p-th quantile (p in [0,1]) with linear interpolation
// between order statistics, matching the pandas/NumPy default the payout
// thresholds were calibrated against. montanaflynn's Percentile uses a
// nearest-rank variant and gonum's Quantile a weighted empirical kind, so
// this one is implemented directly.
func Quantile(xs []float64, p float64) (float64, error) {
	if len(xs) == 0 {
		return 0, core.ErrInsufficientData
	}
	if p < 0 || p > 1 {
		return 0, core.NewValidationError("quantile", "p must be in [0,1]")
	}

	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)

	if len(sorted) == 1 {
		return sorted[0], nil
	}

	h := p * float64(len(sorted)-1)
	lo := int(math.Floor(h))
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1], nil
	}
	frac := h - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo]), nil
}

// CoV returns the coefficient of variation sd/mean. The second return value
// is false when the ratio is undefined (mean of zero), a state the report
// surfaces distinctly instead of conflating it with zero volatility.
func CoV(mean, sd float64) (float64, bool) {
	if mean == 0 {
		return 0, false
	}
	return sd / mean, true
}

// CoVOrZero applies the legacy convention of reporting an undefined CoV as 0.
func CoVOrZero(mean, sd float64) float64 {
	cov, ok := CoV(mean, sd)
	if !ok {
		return 0
	}
	return cov
}
