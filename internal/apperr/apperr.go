package apperr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

var (
	// ErrNetwork means the backend could not be reached. Callers offer a retry.
	ErrNetwork = errors.New("network unavailable")
	// ErrAuth means the identity token is missing, expired or rejected.
	ErrAuth = errors.New("not authenticated")
	// ErrNotFound means the requested quiz or record does not exist.
	ErrNotFound = errors.New("not found")
)

type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidationError collects every problem found on a form so all of them can be
// shown at once. It never reaches the network.
type ValidationError struct {
	errs *multierror.Error
}

func (v *ValidationError) Add(field, message string) {
	v.errs = multierror.Append(v.errs, &FieldError{Field: field, Message: message})
}

func (v *ValidationError) Addf(field, format string, args ...any) {
	v.Add(field, fmt.Sprintf(format, args...))
}

func (v *ValidationError) Fields() []*FieldError {
	if v == nil || v.errs == nil {
		return nil
	}
	fields := make([]*FieldError, 0, len(v.errs.Errors))
	for _, err := range v.errs.Errors {
		var fieldErr *FieldError
		if errors.As(err, &fieldErr) {
			fields = append(fields, fieldErr)
		}
	}
	return fields
}

func (v *ValidationError) Error() string {
	fields := v.Fields()
	if len(fields) == 0 {
		return "invalid input"
	}
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field.Error())
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

// Err returns nil when nothing was added, so a builder can be returned directly.
func (v *ValidationError) Err() error {
	if v == nil || v.errs.ErrorOrNil() == nil {
		return nil
	}
	return v
}

func IsValidation(err error) bool {
	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}

// Describe turns an error into the message the UI shows to the user.
func Describe(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNetwork):
		return "Cannot reach the quiz server. Check your connection and try again."
	case errors.Is(err, ErrAuth):
		return "Your session has expired. Please log in again."
	case errors.Is(err, ErrNotFound):
		return "The requested content was not found."
	case IsValidation(err):
		return err.Error()
	default:
		return "Something went wrong: " + err.Error()
	}
}
