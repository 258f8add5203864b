package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation errors
var (
	ErrInvalidUsername = errors.New("invalid username")
	ErrPasswordTooWeak = errors.New("password does not meet requirements")
)

// Validation constants
const (
	MaxCurrencyLength = 16
	MinUsernameLength = 3
	MaxUsernameLength = 64
	MinPasswordLength = 8
	MaxPasswordLength = 128
)

var usernameRegex = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// ValidateAmount rejects zero and negative amounts.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: got %s", ErrInvalidAmount, amount.String())
	}
	return nil
}

// NormalizeCurrency trims the code and checks it is usable as a balance key.
// Case is preserved; codes are free-form and never converted.
func NormalizeCurrency(currency string) (string, error) {
	currency = strings.TrimSpace(currency)

	if currency == "" {
		return "", fmt.Errorf("%w: currency cannot be empty", ErrInvalidCurrency)
	}

	if len(currency) > MaxCurrencyLength {
		return "", fmt.Errorf("%w: %q exceeds %d characters", ErrInvalidCurrency, currency, MaxCurrencyLength)
	}

	return currency, nil
}

// ValidateUsername validates a user identifier. Identifiers are case-sensitive.
func ValidateUsername(username string) error {
	if len(username) < MinUsernameLength || len(username) > MaxUsernameLength {
		return fmt.Errorf("%w: must be %d-%d characters", ErrInvalidUsername, MinUsernameLength, MaxUsernameLength)
	}

	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("%w: only letters, digits, '.', '_' and '-' allowed", ErrInvalidUsername)
	}

	return nil
}

// ValidatePassword validates password length
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("%w: must be at least %d characters", ErrPasswordTooWeak, MinPasswordLength)
	}

	if len(password) > MaxPasswordLength {
		return fmt.Errorf("%w: must not exceed %d characters", ErrPasswordTooWeak, MaxPasswordLength)
	}

	return nil
}
