package utils

import (
	"unicode"

	"github.com/yukikurage/event-platform-api/internal/constants"
)

// PasswordPolicyMessage describes the password complexity policy.
const PasswordPolicyMessage = "Password must be at least 8 characters long and include letters, numbers, and a special character"

// MeetsPasswordPolicy reports whether password has at least MinPasswordLength
// characters including a letter, a digit and a non-alphanumeric symbol.
func MeetsPasswordPolicy(password string) bool {
	if len([]rune(password)) < constants.MinPasswordLength {
		return false
	}

	var letter, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		case !unicode.IsSpace(r):
			symbol = true
		}
	}
	return letter && digit && symbol
}
