package errors

import (
	"math"
	"strings"
	"unicode"
)

// ValidatePath validates a local file path taken from flags or config files.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	return nil
}

// ValidateProbability checks that p is a finite value in the open interval (0, 1).
// The name is used in the error message.
func ValidateProbability(name string, p float64) error {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return New(ErrCodeInvalidConfig, "%s must be finite, got %v", name, p)
	}
	if p <= 0 || p >= 1 {
		return New(ErrCodeInvalidConfig, "%s must be in (0, 1), got %v", name, p)
	}
	return nil
}

// ValidateWeights checks that every weight is finite and non-negative.
// It returns the position of the first offending entry in the message.
func ValidateWeights(weights []float64) error {
	for i, w := range weights {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return New(ErrCodeInvalidInput, "weight %d is not finite: %v", i, w)
		}
		if w < 0 {
			return New(ErrCodeInvalidInput, "weight %d is negative: %v", i, w)
		}
	}
	return nil
}
