package similarity

import (
	"fmt"
	"math"
)

// ConfigurationError reports an invalid similarity setting.
// It is returned at construction time; invalid values are never clamped.
type ConfigurationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

// ValidateWindow checks a shingle window size.
func ValidateWindow(field string, window int) error {
	if window < 1 {
		return &ConfigurationError{Field: field, Value: window, Reason: "must be >= 1"}
	}
	return nil
}

// ValidateThreshold checks a similarity threshold.
func ValidateThreshold(field string, threshold float64) error {
	if math.IsNaN(threshold) || threshold < 0 || threshold > 1 {
		return &ConfigurationError{Field: field, Value: threshold, Reason: "must be within [0, 1]"}
	}
	return nil
}
