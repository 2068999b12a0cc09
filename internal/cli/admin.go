package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"quiz-client/internal/backend"
	"quiz-client/internal/quiz"
)

var errAdminOnly = errors.New("this command is for administrators only")

func (a *App) admin(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usage("admin upload|student ...")
	}
	if identity, ok := a.deps.Session.Identity(); ok && identity.Role != quiz.RoleAdmin {
		return errAdminOnly
	}

	switch args[0] {
	case "upload":
		if len(args) != 5 {
			return usage("admin upload <class> <subject> <topic> <file>")
		}
		return a.uploadQuiz(ctx, backend.UploadTarget{Class: args[1], Subject: args[2], Topic: args[3]}, args[4])
	case "student":
		if len(args) < 3 {
			return usage("admin student <id> name=<name> email=<email> class=<class> [role=<role>]")
		}
		return a.updateStudent(ctx, args[1], args[2:])
	default:
		return usage("admin upload|student ...")
	}
}

func (a *App) uploadQuiz(ctx context.Context, target backend.UploadTarget, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	summary, err := a.deps.Backend.UploadQuiz(ctx, target, filepath.Base(path), file)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Uploaded %q to %s/%s/%s: %d questions, %d min.\n",
		summary.Name, target.Class, target.Subject, target.Topic, summary.QuestionCount, summary.DurationMinutes)
	return nil
}

func (a *App) updateStudent(ctx context.Context, id string, assignments []string) error {
	fields, err := parseAssignments(assignments)
	if err != nil {
		return err
	}

	student := quiz.Student{
		ID:    id,
		Name:  fields["name"],
		Email: fields["email"],
		Class: fields["class"],
		Role:  fields["role"],
	}
	if student.Role == "" {
		student.Role = quiz.RoleStudent
	}

	updated, err := a.deps.Backend.UpdateStudent(ctx, student)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Updated %s: %s <%s>, class %s, role %s.\n", updated.ID, updated.Name, updated.Email, updated.Class, updated.Role)
	return nil
}
