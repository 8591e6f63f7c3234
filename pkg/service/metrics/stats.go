package metrics

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// median returns the conventional median: the middle element for an
// odd count, the midpoint of the two middle elements for an even
// count, nil for an empty set. Computed directly because gonum's
// quantile cumulant kinds interpolate differently. The input slice is
// not modified.
func median(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	m := sorted[mid]
	if len(sorted)%2 == 0 {
		m = (sorted[mid-1] + sorted[mid]) / 2
	}
	return &m
}

// mean returns the arithmetic mean, 0 for an empty set
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// popStdDev returns the population standard deviation, 0 for fewer
// than two values
func popStdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	return stat.PopStdDev(values, nil)
}

// percent returns part/whole as a percentage, 0 when whole is 0
func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}
