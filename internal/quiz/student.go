package quiz

import (
	"net/mail"
	"strings"

	"quiz-client/internal/apperr"
)

const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

type Student struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Class string `json:"class"`
	Role  string `json:"role"`
}

// Validate checks the fields an admin can edit.
func (s Student) Validate() error {
	problems := &apperr.ValidationError{}
	if strings.TrimSpace(s.Name) == "" {
		problems.Add("name", "is required")
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(s.Email)); err != nil {
		problems.Add("email", "must be a valid email address")
	}
	if strings.TrimSpace(s.Class) == "" {
		problems.Add("class", "is required")
	}
	switch s.Role {
	case "", RoleStudent, RoleAdmin:
	default:
		problems.Addf("role", "must be %q or %q", RoleStudent, RoleAdmin)
	}
	return problems.Err()
}
