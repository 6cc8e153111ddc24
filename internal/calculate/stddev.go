package calculate

import (
	"math"

	"github.com/Alias1177/lpintel/models"
)

// SampleStdDev is the sample (n-1) standard deviation of values
func SampleStdDev(values []float64) (float64, error) {
	if len(values) < 2 {
		return 0, models.InsufficientData("variance", 2, len(values))
	}

	mean := Average(values)
	var variance float64
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(values) - 1)

	return math.Sqrt(variance), nil
}

// TailStdDev is the sample standard deviation of the last window values
func TailStdDev(values []float64, window int) (float64, error) {
	if window > len(values) {
		window = len(values)
	}
	return SampleStdDev(values[len(values)-window:])
}
