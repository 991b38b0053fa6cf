package refiner

import (
	"math"
)

// mean computes the arithmetic mean of observed schedule seconds, NaN for an empty set
func mean(values []int) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sum := 0
	for _, value := range values {
		sum += value
	}
	return float64(sum) / float64(len(values))
}

// sampleStdDev computes the sample standard deviation around valuesMean with an n minus one divisor.
// NaN when fewer than two values, a single observation carries no spread information
func sampleStdDev(values []int, valuesMean float64) float64 {
	if len(values) < 2 {
		return math.NaN()
	}
	sumSquares := 0.0
	for _, value := range values {
		deviation := float64(value) - valuesMean
		sumSquares += deviation * deviation
	}
	return math.Sqrt(sumSquares / float64(len(values)-1))
}

// countEarlierThan counts values strictly below threshold
func countEarlierThan(values []int, threshold float64) int {
	count := 0
	for _, value := range values {
		if float64(value) < threshold {
			count++
		}
	}
	return count
}

// minMax finds the smallest and largest value, values must be non empty
func minMax(values []int) (int, int) {
	smallest := values[0]
	largest := values[0]
	for _, value := range values[1:] {
		if value < smallest {
			smallest = value
		}
		if value > largest {
			largest = value
		}
	}
	return smallest, largest
}

func abs(value int) int {
	if value < 0 {
		return -value
	}
	return value
}
