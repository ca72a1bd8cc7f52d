// Package validate checks the shape of contact fields before they are saved.
package validate

import (
	"errors"
	"regexp"
	"strings"
)

var (
	ErrInvalidEmail  = errors.New("invalid email")
	ErrInvalidNumber = errors.New("invalid phone number")
)

// Field names reported by [ValidationError].
const (
	FieldEmail  = "email"
	FieldNumber = "number"
)

// ValidationError reports the field that failed validation.
// It matches [ErrInvalidEmail] or [ErrInvalidNumber] with [errors.Is].
type ValidationError struct {
	Field string
	Value string
}

func (e *ValidationError) Error() string { return e.sentinel().Error() }

func (e *ValidationError) Is(target error) bool { return target == e.sentinel() }

func (e *ValidationError) sentinel() error {
	if e.Field == FieldEmail {
		return ErrInvalidEmail
	}
	return ErrInvalidNumber
}

const atom = "[A-Za-z0-9!#$%&'*+/=?^_`{|}~-]+"

var (
	// dot-separated atoms, one @, and at least two domain labels
	emailRe = regexp.MustCompile(`^` + atom + `(?:\.` + atom + `)*` +
		`@[A-Za-z0-9](?:[A-Za-z0-9-]*[A-Za-z0-9])?(?:\.[A-Za-z0-9](?:[A-Za-z0-9-]*[A-Za-z0-9])?)+$`)
	numberRe = regexp.MustCompile(`^\+?[(0-9][0-9 ().-]*$`)
)

const (
	minNumberDigits = 7
	maxNumberDigits = 15 // E.164
)

// IsValidEmail reports whether s is empty or shaped like local@domain.tld.
func IsValidEmail(s string) bool {
	return s == "" || emailRe.MatchString(s)
}

// IsValidNumber reports whether s is empty or a phone number: an optional
// leading '+', then digits separated by spaces, dots, dashes or
// non-nested parentheses.
func IsValidNumber(s string) bool {
	if s == "" {
		return true
	}
	if !numberRe.MatchString(s) || !balanced(s) {
		return false
	}
	digits := len(s) - len(strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return -1
		}
		return r
	}, s))
	return digits >= minNumberDigits && digits <= maxNumberDigits
}

// balanced reports whether every '(' in s is closed by a ')' before the
// next '('. Groups do not nest.
func balanced(s string) bool {
	open := false
	for _, r := range s {
		switch r {
		case '(':
			if open {
				return false
			}
			open = true
		case ')':
			if !open {
				return false
			}
			open = false
		}
	}
	return !open
}

// Contact checks email then number and returns the first failure as a
// [*ValidationError].
func Contact(email, number string) error {
	if !IsValidEmail(email) {
		return &ValidationError{Field: FieldEmail, Value: email}
	}
	if !IsValidNumber(number) {
		return &ValidationError{Field: FieldNumber, Value: number}
	}
	return nil
}
