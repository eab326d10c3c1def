package errors

import (
	"math"
	"unicode"
)

// MaxIDLength bounds node and edge ids accepted from hosts.
const MaxIDLength = 256

// ValidateNodeID checks a node id received from outside the process.
func ValidateNodeID(id string) error {
	return validateID(ErrCodeInvalidNodeID, "node", id)
}

// ValidateEdgeID checks an edge id received from outside the process.
func ValidateEdgeID(id string) error {
	return validateID(ErrCodeInvalidEdgeID, "edge", id)
}

// validateID rejects ids that are empty, longer than [MaxIDLength], or that
// contain whitespace or control characters. The canvas treats the empty id as
// "none", so hosts must never forward one as a real identifier.
func validateID(code Code, what, id string) error {
	if id == "" {
		return New(code, "%s id cannot be empty", what)
	}
	if len(id) > MaxIDLength {
		return New(code, "%s id too long (max %d characters)", what, MaxIDLength)
	}
	for _, r := range id {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(code, "%s id contains invalid character %q", what, r)
		}
	}
	return nil
}

// ValidateRect checks node bounds: coordinates must be finite and the size
// positive.
func ValidateRect(x, y, width, height float64) error {
	for _, v := range []float64{x, y, width, height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return New(ErrCodeInvalidBounds, "bounds must be finite")
		}
	}
	if width <= 0 || height <= 0 {
		return New(ErrCodeInvalidBounds, "bounds size must be positive, got %vx%v", width, height)
	}
	return nil
}

// ValidatePoint checks a pointer position.
func ValidatePoint(x, y float64) error {
	if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
		return New(ErrCodeInvalidInput, "pointer position must be finite")
	}
	return nil
}
