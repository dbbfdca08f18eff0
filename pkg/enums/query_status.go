package enums

import "fmt"

// QueryStatus tracks the lifecycle of a farmer question.
type QueryStatus string

const (
	QueryStatusOpen     QueryStatus = "open"
	QueryStatusAnswered QueryStatus = "answered"
)

var validQueryStatuses = []QueryStatus{
	QueryStatusOpen,
	QueryStatusAnswered,
}

func (q QueryStatus) String() string {
	return string(q)
}

func (q QueryStatus) IsValid() bool {
	for _, candidate := range validQueryStatuses {
		if candidate == q {
			return true
		}
	}
	return false
}

func ParseQueryStatus(value string) (QueryStatus, error) {
	for _, candidate := range validQueryStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid query status %q", value)
}
