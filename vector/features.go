// Package vector builds book feature vectors and answers exact
// nearest-neighbor queries over them.
package vector

import "github.com/hubenschmidt/go-bookmatch/catalog"

// Dimensions of a FeatureVector.
const (
	DimAvgRating = iota
	DimNumRatings
	DimStdRating
	DimYear
	Dims
)

// FeatureVector is (avgRating, numRatings, stdRating, publicationYear).
// Dimensions are not scaled, so NumRatings usually dominates the distance.
type FeatureVector [Dims]float64

// Build maps a record to its feature vector.
func Build(r catalog.Record) FeatureVector {
	return FeatureVector{
		DimAvgRating:  r.AvgRating,
		DimNumRatings: float64(r.NumRatings),
		DimStdRating:  r.StdRating,
		DimYear:       float64(r.Year),
	}
}

// Weights scales each dimension inside the distance computation.
type Weights [Dims]float64

// UnitWeights leaves every dimension as is.
var UnitWeights = Weights{1, 1, 1, 1}
