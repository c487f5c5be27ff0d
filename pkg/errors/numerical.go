package errors

import (
	"math"
)

// CheckNumericalStability checks if values contain NaN or Inf
// and returns an error naming the first offending row.
func CheckNumericalStability(operation string, values []float64) error {
	var bad []float64
	first := -1
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			if first < 0 {
				first = i
			}
			bad = append(bad, v)
			if len(bad) >= 10 {
				break
			}
		}
	}
	if first >= 0 {
		return NewNumericalInstabilityError(operation, bad, first)
	}
	return nil
}

// CheckMatrix checks all values in a matrix for NaN or Inf.
func CheckMatrix(operation string, matrix interface{ At(int, int) float64 }, rows, cols int) error {
	for i := 0; i < rows; i++ {
		var unstableValues []float64
		for j := 0; j < cols; j++ {
			v := matrix.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				unstableValues = append(unstableValues, v)
			}
		}
		if len(unstableValues) > 0 {
			return NewNumericalInstabilityError(operation, unstableValues, i)
		}
	}

	return nil
}

// SafeDivide performs division with protection against division by zero.
// Returns 1 as the divisor when the denominator is zero or close to zero,
// which leaves constant columns unscaled.
func SafeDivide(numerator, denominator float64) float64 {
	if math.Abs(denominator) < 1e-8 {
		return numerator
	}
	return numerator / denominator
}
