package models

// Dimension identifies one of the Big Five personality dimensions.
type Dimension string

const (
	DimensionOpenness          Dimension = "openness"
	DimensionConscientiousness Dimension = "conscientiousness"
	DimensionExtraversion      Dimension = "extraversion"
	DimensionAgreeableness     Dimension = "agreeableness"
	DimensionNeuroticism       Dimension = "neuroticism"
)

// Dimensions lists all five dimensions in canonical order.
var Dimensions = []Dimension{
	DimensionOpenness,
	DimensionConscientiousness,
	DimensionExtraversion,
	DimensionAgreeableness,
	DimensionNeuroticism,
}

// IsValidDimension checks if the given dimension is one of the Big Five.
func IsValidDimension(d Dimension) bool {
	for _, dim := range Dimensions {
		if dim == d {
			return true
		}
	}
	return false
}

// TraitVector holds one value per Big Five dimension, each within [0,1].
// It is used both for scored personality profiles and for the trait weights
// declared on practice versions.
type TraitVector struct {
	Openness          float64 `json:"openness"`
	Conscientiousness float64 `json:"conscientiousness"`
	Extraversion      float64 `json:"extraversion"`
	Agreeableness     float64 `json:"agreeableness"`
	Neuroticism       float64 `json:"neuroticism"`
}

// Get returns the value for the given dimension. Unknown dimensions return 0.
func (v TraitVector) Get(d Dimension) float64 {
	switch d {
	case DimensionOpenness:
		return v.Openness
	case DimensionConscientiousness:
		return v.Conscientiousness
	case DimensionExtraversion:
		return v.Extraversion
	case DimensionAgreeableness:
		return v.Agreeableness
	case DimensionNeuroticism:
		return v.Neuroticism
	}
	return 0
}

// Set stores the value for the given dimension. Unknown dimensions are ignored.
func (v *TraitVector) Set(d Dimension, value float64) {
	switch d {
	case DimensionOpenness:
		v.Openness = value
	case DimensionConscientiousness:
		v.Conscientiousness = value
	case DimensionExtraversion:
		v.Extraversion = value
	case DimensionAgreeableness:
		v.Agreeableness = value
	case DimensionNeuroticism:
		v.Neuroticism = value
	}
}
