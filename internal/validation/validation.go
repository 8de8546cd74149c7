// Package validation enforces input well-formedness for registration and
// login before anything touches the store. Rules run in a fixed order and
// the first failure wins; the functions are pure over their inputs.
package validation

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// specialChars is the character set a password must draw at least one
// character from to count as strong.
const specialChars = `!@#$%^&*(),.?":{}|<>`

var (
	ErrMissingFields    = errors.New("all fields are required")
	ErrInvalidEmail     = errors.New("please enter a valid email address")
	ErrPasswordTooShort = errors.New("password should be at least 6 characters long")
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrWeakPassword     = errors.New("password should include at least one special character")
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// eqfield/min/email come built in; strength needs a custom rule.
	_ = v.RegisterValidation("special_char", func(fl validator.FieldLevel) bool {
		return strings.ContainsAny(fl.Field().String(), specialChars)
	})
	return v
}

// Registration holds the normalized fields a successful validation returns.
// Name and Email are trimmed; passwords are kept verbatim since whitespace
// is part of the secret.
type Registration struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
}

// Login holds the normalized fields of a login attempt.
type Login struct {
	Email    string
	Password string
}

// ValidateRegistration applies the registration rules in order and returns
// the first failure: presence, email format, password length, then
// confirmation match. Strength is advisory and checked separately via
// CheckPasswordStrength.
func ValidateRegistration(name, email, password, confirmPassword string) (Registration, error) {
	r := Registration{
		Name:            strings.TrimSpace(name),
		Email:           strings.TrimSpace(email),
		Password:        password,
		ConfirmPassword: confirmPassword,
	}
	if r.Name == "" || r.Email == "" || r.Password == "" || r.ConfirmPassword == "" {
		return r, ErrMissingFields
	}
	if err := validate.Var(r.Email, "email"); err != nil {
		return r, ErrInvalidEmail
	}
	if err := validate.Var(r.Password, "min=6"); err != nil {
		return r, ErrPasswordTooShort
	}
	if r.Password != r.ConfirmPassword {
		return r, ErrPasswordMismatch
	}
	return r, nil
}

// CheckPasswordStrength reports whether the password draws at least one
// character from the special set. Advisory only: registration proceeds
// regardless, mirroring the client-side strength meter.
func CheckPasswordStrength(password string) error {
	if err := validate.Var(password, "special_char"); err != nil {
		return ErrWeakPassword
	}
	return nil
}

// ValidateLogin checks presence and email format for a login attempt.
func ValidateLogin(email, password string) (Login, error) {
	l := Login{
		Email:    strings.TrimSpace(email),
		Password: password,
	}
	if l.Email == "" || l.Password == "" {
		return l, ErrMissingFields
	}
	if err := validate.Var(l.Email, "email"); err != nil {
		return l, ErrInvalidEmail
	}
	return l, nil
}
