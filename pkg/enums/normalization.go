package enums

import "fmt"

// Normalization names the pixel-scaling scheme an artifact was trained with.
// The two schemes are not interchangeable; a manifest binds exactly one.
type Normalization string

const (
	// NormalizationUnit scales raw pixel values into [0,1].
	NormalizationUnit Normalization = "unit"
	// NormalizationImageNet applies the ImageNet per-channel mean/std.
	NormalizationImageNet Normalization = "imagenet"
)

var validNormalizations = []Normalization{
	NormalizationUnit,
	NormalizationImageNet,
}

func (n Normalization) String() string {
	return string(n)
}

func (n Normalization) IsValid() bool {
	for _, candidate := range validNormalizations {
		if candidate == n {
			return true
		}
	}
	return false
}

func ParseNormalization(value string) (Normalization, error) {
	for _, candidate := range validNormalizations {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid normalization %q", value)
}
