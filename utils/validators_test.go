package utils

import (
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

func TestValidateUsername(t *testing.T) {
	assert.ErrorIs(t, ValidateUsername("me"), ErrUsernameReserved)

	for _, ok := range []string{"alice", "bob.smith", "a+b", "user@host", "x_y-z", "Me"} {
		assert.NoError(t, ValidateUsername(ok), ok)
	}

	for _, bad := range []string{"has space", "semi;colon", "sla/sh", ""} {
		assert.ErrorIs(t, ValidateUsername(bad), ErrUsernamePattern, bad)
	}
}

func TestValidateYear(t *testing.T) {
	current := time.Now().Year()

	assert.NoError(t, ValidateYear(current))
	assert.NoError(t, ValidateYear(current-30))
	assert.ErrorIs(t, ValidateYear(current+1), ErrYearInFuture)
	assert.ErrorIs(t, ValidateYear(2999), ErrYearInFuture)
}

func TestCustomValidationTags(t *testing.T) {
	v := validator.New()
	RegisterCustomValidations(v)

	type form struct {
		Username string `validate:"username"`
		Slug     string `validate:"slug"`
	}

	assert.NoError(t, v.Struct(form{Username: "alice", Slug: "sci-fi"}))
	assert.Error(t, v.Struct(form{Username: "me", Slug: "sci-fi"}))
	assert.Error(t, v.Struct(form{Username: "alice", Slug: "bad slug"}))
}
