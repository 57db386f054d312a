package domain

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	MinShortCodeLength = 1
	MaxShortCodeLength = 50
)

var shortCodeRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ShortCode is a value object representing a URL short code.
// It is immutable and validated on creation; a zero ShortCode is invalid
// and never produced by NewShortCode.
type ShortCode struct {
	value string
}

// NewShortCode creates a ShortCode from a string, validating the format.
func NewShortCode(code string) (ShortCode, error) {
	if err := validation.Validate(code,
		validation.Required,
		validation.Length(MinShortCodeLength, MaxShortCodeLength),
		validation.Match(shortCodeRegex),
	); err != nil {
		return ShortCode{}, ErrInvalidShortCode
	}
	return ShortCode{value: code}, nil
}

// String returns the string representation of the ShortCode.
func (s ShortCode) String() string {
	return s.value
}

// IsEmpty returns true if the ShortCode is the zero value.
func (s ShortCode) IsEmpty() bool {
	return s.value == ""
}

// Equals compares two ShortCodes for equality.
func (s ShortCode) Equals(other ShortCode) bool {
	return s.value == other.value
}
