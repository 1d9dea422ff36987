package auth

import (
	"errors"
	"net/mail"
	"strings"
)

const (
	MinPasswordLength = 6
	MinUsernameLength = 2
)

var (
	ErrInvalidEmail     = errors.New("invalid email address")
	ErrPasswordTooShort = errors.New("password must be at least 6 characters")
	ErrUsernameTooShort = errors.New("username must be at least 2 characters")
)

// ValidateEmail checks that email is a bare address
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email, "@") {
		return ErrInvalidEmail
	}
	return nil
}

// ValidateLogin checks the login form fields
func ValidateLogin(email, password string) error {
	if err := ValidateEmail(email); err != nil {
		return err
	}
	if len([]rune(password)) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}

// ValidateSignup checks the signup form fields
func ValidateSignup(email, password, username string) error {
	if err := ValidateLogin(email, password); err != nil {
		return err
	}
	if len([]rune(strings.TrimSpace(username))) < MinUsernameLength {
		return ErrUsernameTooShort
	}
	return nil
}
