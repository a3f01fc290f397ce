package domain

import (
	"net/mail"
	"strings"

	"github.com/openshelf/openshelf/internal/library/apperr"
)

// Input validation is a standalone pass of pure functions, independent of the
// storage schema, so these rules are testable without a live store.

// MinPasswordLength is deliberately modest; length is the only rule enforced.
const MinPasswordLength = 6

// NormalizeEmail case-folds and trims an email for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateRegistration checks the register inputs and returns a
// Validation-kind error naming the first problem found.
func ValidateRegistration(name, email, password string) error {
	if strings.TrimSpace(name) == "" {
		return apperr.New(apperr.KindValidation, "please provide a name")
	}
	if err := validateEmail(email); err != nil {
		return err
	}
	if len(password) < MinPasswordLength {
		return apperr.New(apperr.KindValidation, "password must be at least 6 characters")
	}
	return nil
}

// ValidateCredentials checks the login inputs are present.
func ValidateCredentials(email, password string) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return apperr.New(apperr.KindValidation, "please provide email and password")
	}
	return nil
}

// ValidateBookInput checks the fields of a new or updated book.
func ValidateBookInput(title, author string, totalCopies int64) error {
	if strings.TrimSpace(title) == "" || strings.TrimSpace(author) == "" {
		return apperr.New(apperr.KindValidation, "title and author are required")
	}
	if totalCopies < 0 {
		return apperr.New(apperr.KindValidation, "totalCopies cannot be negative")
	}
	return nil
}

func validateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return apperr.New(apperr.KindValidation, "please provide an email")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return apperr.New(apperr.KindValidation, "please provide a valid email")
	}
	return nil
}
