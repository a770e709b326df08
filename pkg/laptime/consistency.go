package laptime

import (
	"math"
	"sort"
)

type ConsistencyOptions struct {
	// MaxLapSeconds drops laps at or above this value (stopped on track, long pit visits).
	MaxLapSeconds float64
	// MedianWindow keeps laps within median*(1+MedianWindow), so laps lost in traffic don't
	// count against the driver.
	MedianWindow float64
}

var DefaultConsistencyOptions = ConsistencyOptions{
	MaxLapSeconds: 300,
	MedianWindow:  0.03,
}

const (
	minConsistencyLaps   = 3
	minConsistencyWindow = 2
)

// Consistency is the population standard deviation of a driver's representative laps.
// ok is false when there are too few laps to say anything useful.
func Consistency(laps []float64, opts ConsistencyOptions) (stdDev float64, ok bool) {
	var valid []float64

	for _, lap := range laps {
		if lap > 0 && lap < opts.MaxLapSeconds {
			valid = append(valid, lap)
		}
	}

	if len(valid) < minConsistencyLaps {
		return 0, false
	}

	sorted := make([]float64, len(valid))
	copy(sorted, valid)
	sort.Float64s(sorted)

	var median float64

	if mid := len(sorted) / 2; len(sorted)%2 == 1 {
		median = sorted[mid]
	} else {
		median = (sorted[mid-1] + sorted[mid]) / 2
	}

	limit := median * (1 + opts.MedianWindow)

	var kept []float64

	for _, lap := range valid {
		if lap <= limit {
			kept = append(kept, lap)
		}
	}

	if len(kept) < minConsistencyWindow {
		return 0, false
	}

	var sum float64

	for _, lap := range kept {
		sum += lap
	}

	mean := sum / float64(len(kept))

	var variance float64

	for _, lap := range kept {
		variance += (lap - mean) * (lap - mean)
	}

	variance /= float64(len(kept))

	return math.Sqrt(variance), true
}

type Rating string

const (
	RatingExcellent       Rating = "Excellent"
	RatingGood            Rating = "Good"
	RatingFair            Rating = "Fair"
	RatingTrafficAffected Rating = "Traffic Affected"
)

func RateConsistency(stdDev float64) Rating {
	switch {
	case stdDev < 0.5:
		return RatingExcellent
	case stdDev < 0.9:
		return RatingGood
	case stdDev < 1.4:
		return RatingFair
	default:
		return RatingTrafficAffected
	}
}
