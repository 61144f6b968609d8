package validation

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// MinNotesLength is the minimum trimmed length of allocation notes and
// deallocation reasons. Prevents rubber-stamp entries.
const MinNotesLength = 10

// Common validation errors
var (
	ErrInvalidUUID          = fmt.Errorf("invalid UUID format")
	ErrInvalidAccountNumber = fmt.Errorf("invalid account number")
	ErrEmptySlice           = fmt.Errorf("slice cannot be empty")
)

// Error reports field-level validation failures as a single error.
type Error struct {
	Fields map[string]string
}

func (e *Error) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		msgs = append(msgs, fmt.Sprintf("%s: %s", field, msg))
	}
	return strings.Join(msgs, "; ")
}

// ValidateUUID checks if a string is a valid UUID
func ValidateUUID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidUUID, id)
	}
	return nil
}

// ValidateAccountNumber checks that an MT5 login is a positive integer.
func ValidateAccountNumber(number int64) error {
	if number <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidAccountNumber, number)
	}
	return nil
}

// ValidateNotes checks that free-text notes meet the minimum trimmed length.
func ValidateNotes(notes string) error {
	if len(strings.TrimSpace(notes)) < MinNotesLength {
		return fmt.Errorf("notes must be at least %d characters after trimming", MinNotesLength)
	}
	return nil
}
