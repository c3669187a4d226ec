// Package validation provides input validation utilities
package validation

import (
	"errors"
	"regexp"
	"unicode"
)

const (
	minPasswordLen = 8
	maxPasswordLen = 128
)

var passwordSpecialRegex = regexp.MustCompile(`[!@#$%^&*(),.?":{}|<>\-_=+\[\];'\\/~]`)

// ValidatePassword checks if a password meets security requirements
func ValidatePassword(password string) error {
	if len(password) < minPasswordLen {
		return errors.New("password must be at least 8 characters long")
	}
	if len(password) > maxPasswordLen {
		return errors.New("password must not exceed 128 characters")
	}

	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasUpper {
		return errors.New("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return errors.New("password must contain at least one lowercase letter")
	}
	if !hasDigit {
		return errors.New("password must contain at least one number")
	}
	if !passwordSpecialRegex.MatchString(password) {
		return errors.New("password must contain at least one special character")
	}
	return nil
}
