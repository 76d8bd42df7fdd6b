// Package uuid provides UUID v4 generation and validation for queue item ids.
package uuid

import (
	"fmt"

	"github.com/google/uuid"
)

// New generates a new UUID v4 string.
func New() string {
	return uuid.New().String()
}

// IsValid checks if a string parses as a UUID.
func IsValid(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// Validate returns an error if the string is not a valid UUID.
func Validate(s string) error {
	if !IsValid(s) {
		return fmt.Errorf("invalid UUID: %q", s)
	}
	return nil
}
