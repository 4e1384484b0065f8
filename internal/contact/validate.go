// internal/contact/validate.go
package contact

import (
	"errors"
	"net/mail"
	"reflect"
	"strings"

	"github.com/dalemusser/contactform/internal/apperr"
	"github.com/go-playground/validator/v10"
)

// EmailErrorMessage is returned to the submitter when their address fails
// mailbox syntax checks.
const EmailErrorMessage = "email: Invalid email address provided. Please check email and try again."

// validate is safe for concurrent use once built; validator caches struct
// metadata internally.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their wire name rather than the Go field name.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})

	if err := v.RegisterValidation("mailbox", isMailbox); err != nil {
		panic("contact: register mailbox validation: " + err.Error())
	}
	return v
}

// isMailbox accepts an RFC 5322 address, with or without a display name.
func isMailbox(fl validator.FieldLevel) bool {
	return parseMailbox(fl.Field().String()) == nil
}

// parseMailbox returns an error if s is not a single syntactically valid
// mailbox such as "user@example.com" or "Name <user@example.com>".
func parseMailbox(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("empty address")
	}
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return err
	}
	local, domain, ok := strings.Cut(addr.Address, "@")
	if !ok || local == "" || domain == "" {
		return errors.New("address must have a local part and a domain")
	}
	return nil
}

// ValidateEmail checks the submitter-supplied address. The returned error is
// an *apperr.Error of kind Validation whose message can be shown as-is.
func ValidateEmail(email string) error {
	if err := validate.Var(email, "required,mailbox"); err != nil {
		return apperr.Wrap(err, apperr.Validation, EmailErrorMessage)
	}
	return nil
}

// checkRequired reports the wire names of required fields that are empty.
func checkRequired(s Submission) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Wrap(err, apperr.Internal, "submission validation failed")
	}

	missing := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		missing = append(missing, fe.Field())
	}
	return apperr.Wrap(err, apperr.Missing, "missing required field(s): "+strings.Join(missing, ", "))
}
