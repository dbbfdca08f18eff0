package enums

import "fmt"

// CropCondition is the binary label produced by the crop-health classifier.
type CropCondition string

const (
	CropConditionHealthy   CropCondition = "Healthy"
	CropConditionUnhealthy CropCondition = "Unhealthy"
)

var validCropConditions = []CropCondition{
	CropConditionHealthy,
	CropConditionUnhealthy,
}

func (c CropCondition) String() string {
	return string(c)
}

func (c CropCondition) IsValid() bool {
	for _, candidate := range validCropConditions {
		if candidate == c {
			return true
		}
	}
	return false
}

func ParseCropCondition(value string) (CropCondition, error) {
	for _, candidate := range validCropConditions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid crop condition %q", value)
}
