package models

import (
	"fmt"
	"strings"
)

// ModelNotFoundError represents when an instance is not found.
type ModelNotFoundError struct {
	modelName string
}

func (e ModelNotFoundError) Error() string {
	return e.modelName + " not found"
}

// IsNotFoundError returns whether an error represents a "not found" error.
func IsNotFoundError(err error) bool {
	switch err.(type) {
	case ModelNotFoundError:
		return true
	}
	return false
}

// isUniqueViolation recognizes a unique-index violation, which each of
// the supported drivers reports only as its own error type.
func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || // sqlite3
		strings.Contains(msg, "Duplicate entry") || // mysql
		strings.Contains(msg, "duplicate key value") // postgres
}

// PathTakenError is returned when creating a link whose path is already
// used by another link of the same owner.
type PathTakenError struct {
	Path string
}

func (e PathTakenError) Error() string {
	return fmt.Sprintf("the path %s is already taken", e.Path)
}

// InvalidAmountError is returned when recording a sale with a
// non-positive amount. Counters are never mutated on this error.
type InvalidAmountError struct {
	Amount float64
}

func (e InvalidAmountError) Error() string {
	return fmt.Sprintf("invalid sale amount %v, must be positive", e.Amount)
}

// LinkNotEligibleError is returned when a sale is refused because the
// link's effective status is not active at the moment of recording.
type LinkNotEligibleError struct {
	Status string
}

func (e LinkNotEligibleError) Error() string {
	return "link is not eligible for a sale, effective status is " + e.Status
}
