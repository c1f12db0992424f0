package catalog

import "math"

// Observation is a single rating of a title.
type Observation struct {
	ID     string
	Rating float64
}

// RatingStats summarizes every observation for one id.
type RatingStats struct {
	Count int
	Mean  float64
	Std   float64
}

type accumulator struct {
	n    int
	mean float64
	m2   float64
}

func (a *accumulator) add(x float64) {
	a.n++
	delta := x - a.mean
	a.mean += delta / float64(a.n)
	a.m2 += delta * (x - a.mean)
}

// std is the sample standard deviation; a single observation has none and
// reports 0.
func (a *accumulator) std() float64 {
	if a.n < 2 {
		return 0
	}
	return math.Sqrt(a.m2 / float64(a.n-1))
}

// Aggregate groups observations by id and computes count, mean and sample
// standard deviation for each group.
func Aggregate(obs []Observation) map[string]RatingStats {
	acc := make(map[string]*accumulator)
	for _, o := range obs {
		a, ok := acc[o.ID]
		if !ok {
			a = &accumulator{}
			acc[o.ID] = a
		}
		a.add(o.Rating)
	}

	stats := make(map[string]RatingStats, len(acc))
	for id, a := range acc {
		stats[id] = RatingStats{Count: a.n, Mean: a.mean, Std: a.std()}
	}
	return stats
}
