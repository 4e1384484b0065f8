package contact

import (
	"testing"

	"github.com/dalemusser/contactform/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		email string
		valid bool
	}{
		{"test@test.com", true},
		{"first.last+tag@sub.example.org", true},
		{"Full Name <test@test.com>", true},
		{`"Quoted Name" <test@test.com>`, true},
		{"user@localhost", true},

		{"", false},
		{"   ", false},
		{"testtest.com", false},
		{"(test@test.com", false},
		{"test@", false},
		{"@test.com", false},
		{"Full Name <test@test.com", false},
		{"test@test.com>", false},
		{"te st@test.com", false},
		{"test@te st.com", false},
		{"a@b.com, c@d.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			e := apperr.From(err)
			assert.Equal(t, apperr.Validation, e.Kind)
			assert.Equal(t, EmailErrorMessage, e.Message)
		})
	}
}

func TestValidateEmail_Idempotent(t *testing.T) {
	inputs := []string{"test@test.com", "testtest.com", "(test@test.com", "Name <a@b.c>", "x"}
	for _, s := range inputs {
		first := ValidateEmail(s) == nil
		second := ValidateEmail(s) == nil
		assert.Equal(t, first, second, "verdict for %q changed between calls", s)
	}
}

func TestEmailErrorMessage(t *testing.T) {
	assert.Equal(t,
		"email: Invalid email address provided. Please check email and try again.",
		EmailErrorMessage)
}

func TestParseMailbox(t *testing.T) {
	assert.NoError(t, parseMailbox("Name <a@b.c>"))
	assert.EqualError(t, parseMailbox(" "), "empty address")
	assert.Error(t, parseMailbox("a@b.c, d@e.f"))
}
