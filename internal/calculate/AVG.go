package calculate

import "github.com/Alias1177/lpintel/models"

// Average calculates simple average
func Average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	var sum float64
	for _, value := range values {
		sum += value
	}

	return sum / float64(len(values))
}

// SMA returns the arithmetic mean of the last period values
func SMA(values []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, models.InvalidField("period", "must be positive")
	}
	if len(values) < period {
		return 0, models.InsufficientData("moving average", period, len(values))
	}
	return Average(values[len(values)-period:]), nil
}
