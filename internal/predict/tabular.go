package predict

import (
	"fmt"
	"strings"

	pkgerrors "github.com/agroscan/agroscan-backend/pkg/errors"
)

// Fixed N/P/K placeholders used until sensors report real nutrient levels.
const (
	placeholderNitrogen   = 50.0
	placeholderPhosphorus = 50.0
	placeholderPotassium  = 50.0
)

// EncodeSoilType label-encodes a soil type against the manifest's category
// list. Matching is case-insensitive; an unknown category is rejected before
// anything reaches the runner.
func EncodeSoilType(m *Manifest, soilType string) (int, error) {
	needle := strings.ToLower(strings.TrimSpace(soilType))
	for i, category := range m.SoilCategories {
		if strings.ToLower(category) == needle {
			return i, nil
		}
	}
	return 0, pkgerrors.New(pkgerrors.CodeValidation,
		fmt.Sprintf("unknown soil type %q", soilType))
}

// BuildSoilFeatures assembles the recommender's feature vector in training
// order: ph, moisture, encoded soil type, temperature, then N/P/K.
func BuildSoilFeatures(ph, moisture float64, encodedSoil int, temperature float64) []float64 {
	return []float64{
		ph,
		moisture,
		float64(encodedSoil),
		temperature,
		placeholderNitrogen,
		placeholderPhosphorus,
		placeholderPotassium,
	}
}

// LabelFor maps a class index from the runner back to a crop name.
func LabelFor(m *Manifest, index int) (string, error) {
	if index < 0 || index >= len(m.Labels) {
		return "", pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("runner returned class %d outside label range", index))
	}
	return m.Labels[index], nil
}
