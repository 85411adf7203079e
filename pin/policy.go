package pin

import (
	"errors"
	"fmt"
)

const (
	// DefaultMinDigits is the shortest PIN accepted by ValidateFormat callers
	// that do not configure their own bounds.
	DefaultMinDigits = 4
	// DefaultMaxDigits is the longest PIN accepted by default.
	DefaultMaxDigits = 12
)

var (
	// ErrEmpty is returned for an empty PIN.
	ErrEmpty = errors.New("pin is empty")
	// ErrFormat is returned when a PIN violates the digit policy.
	ErrFormat = errors.New("pin must contain only digits")
	// ErrLength is returned when a PIN is outside the configured length bounds.
	ErrLength = errors.New("pin length out of bounds")
)

// ValidateFormat checks that pin consists of ASCII digits only and that its
// length lies in [minDigits, maxDigits].
func ValidateFormat(pin string, minDigits, maxDigits int) error {
	if pin == "" {
		return ErrEmpty
	}
	for i := 0; i < len(pin); i++ {
		if pin[i] < '0' || pin[i] > '9' {
			return ErrFormat
		}
	}
	if len(pin) < minDigits || len(pin) > maxDigits {
		return fmt.Errorf("%w: %d digits, want %d-%d", ErrLength, len(pin), minDigits, maxDigits)
	}
	return nil
}
