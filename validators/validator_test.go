package validators

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type signup struct {
	Username string `form:"username" validate:"required,max=150,username"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `form:"password" validate:"required,min=8"`
}

func TestUsernameRule(t *testing.T) {
	v := NewValidator()
	tests := map[string]bool{
		"leo":            true,
		"Лев_Толстой":    true,
		"user.name+tag@": true,
		"with space":     false,
		"semi;colon":     false,
	}
	for username, ok := range tests {
		t.Run(username, func(t *testing.T) {
			err := v.Validate(&signup{Username: username, Password: "long-enough"})
			assert.Equal(t, ok, err == nil, "error: %v", err)
		})
	}
}

func TestFieldErrors(t *testing.T) {
	v := NewValidator()
	err := v.Validate(&signup{Username: strings.Repeat("a", 151), Email: "nope", Password: "short"})

	got := FieldErrors(err)
	assert.Equal(t, map[string]string{
		"username": "Ensure this value has at most 150 characters.",
		"email":    "Enter a valid email address.",
		"password": "Ensure this value has at least 8 characters.",
	}, got)
}

func TestFieldErrorsRequired(t *testing.T) {
	got := FieldErrors(NewValidator().Validate(&signup{}))

	assert.Equal(t, "This field is required.", got["username"])
	assert.Equal(t, "This field is required.", got["password"])
	assert.NotContains(t, got, "email")
}

func TestFieldErrorsOther(t *testing.T) {
	assert.Nil(t, FieldErrors(nil))
	assert.Equal(t, map[string]string{"": "boom"}, FieldErrors(errors.New("boom")))
}
