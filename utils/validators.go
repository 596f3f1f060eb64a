package utils

import (
	"errors"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
)

// ReservedUsername is taken by the self-profile route and can never be an
// account name.
const ReservedUsername = "me"

var (
	usernameRegexp = regexp.MustCompile(`^[\w.@+-]+$`)
	slugRegexp     = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
)

var (
	ErrUsernameReserved = errors.New("this username is reserved")
	ErrUsernamePattern  = errors.New("username may only contain letters, digits and @/./+/-/_")
	ErrYearInFuture     = errors.New("year can not be greater than the current year")
)

// ValidateUsername enforces the username charset and the reserved token.
func ValidateUsername(username string) error {
	if username == ReservedUsername {
		return ErrUsernameReserved
	}
	if !usernameRegexp.MatchString(username) {
		return ErrUsernamePattern
	}
	return nil
}

// ValidateYear rejects years later than the current calendar year,
// evaluated against the wall clock at request time.
func ValidateYear(year int) error {
	if year > time.Now().Year() {
		return ErrYearInFuture
	}
	return nil
}

// RegisterCustomValidations wires the domain tags into the validator the app
// hands to Iris (app.Validator).
func RegisterCustomValidations(v *validator.Validate) {
	v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return ValidateUsername(fl.Field().String()) == nil
	})
	v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugRegexp.MatchString(fl.Field().String())
	})
}
