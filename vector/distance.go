package vector

import "math"

// Euclidean returns the weighted Euclidean distance between a and b.
func Euclidean(a, b FeatureVector, w Weights) float64 {
	return math.Sqrt(squaredDistance(a, b, w))
}

func squaredDistance(a, b FeatureVector, w Weights) float64 {
	var sum float64
	for i := range a {
		d := (a[i] - b[i]) * w[i]
		sum += d * d
	}
	return sum
}
