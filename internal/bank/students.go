package bank

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"quiz-client/internal/quiz"
)

const defaultBcryptCost = 12

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// AddStudent registers an account. The id is generated when empty.
func (s *Store) AddStudent(ctx context.Context, student quiz.Student, password string) (quiz.Student, error) {
	if student.Role == "" {
		student.Role = quiz.RoleStudent
	}
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	student.Email = normalizeEmail(student.Email)
	if err := student.Validate(); err != nil {
		return quiz.Student{}, err
	}
	if strings.TrimSpace(password) == "" {
		return quiz.Student{}, errors.New("password is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return quiz.Student{}, errors.Wrap(err, "failed to hash password")
	}

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO students (id, name, email, class, role, password_hash, created_at_unix) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		student.ID, strings.TrimSpace(student.Name), student.Email, strings.TrimSpace(student.Class), student.Role,
		string(hash), s.now().UTC().UnixNano(),
	); err != nil {
		if s.emailInUse(ctx, student.Email, "") {
			return quiz.Student{}, ErrEmailTaken
		}
		return quiz.Student{}, errors.Wrap(err, "failed to add student")
	}
	return student, nil
}

// Authenticate checks a password. Unknown emails and wrong passwords give the
// same error.
func (s *Store) Authenticate(ctx context.Context, email, password string) (quiz.Student, error) {
	var (
		student quiz.Student
		hash    string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, class, role, password_hash FROM students WHERE email = ?`,
		normalizeEmail(email),
	).Scan(&student.ID, &student.Name, &student.Email, &student.Class, &student.Role, &hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return quiz.Student{}, ErrInvalidCredentials
		}
		return quiz.Student{}, err
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return quiz.Student{}, ErrInvalidCredentials
	}
	return student, nil
}

func (s *Store) GetStudent(ctx context.Context, id string) (quiz.Student, error) {
	var student quiz.Student
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, class, role FROM students WHERE id = ?`, id,
	).Scan(&student.ID, &student.Name, &student.Email, &student.Class, &student.Role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return quiz.Student{}, ErrStudentNotFound
		}
		return quiz.Student{}, err
	}
	return student, nil
}

// UpdateStudent edits name, email, class and role. The last admin cannot be
// demoted.
func (s *Store) UpdateStudent(ctx context.Context, student quiz.Student) (quiz.Student, error) {
	student.Email = normalizeEmail(student.Email)
	student.Name = strings.TrimSpace(student.Name)
	student.Class = strings.TrimSpace(student.Class)
	if err := student.Validate(); err != nil {
		return quiz.Student{}, err
	}

	current, err := s.GetStudent(ctx, student.ID)
	if err != nil {
		return quiz.Student{}, err
	}
	if s.emailInUse(ctx, student.Email, student.ID) {
		return quiz.Student{}, ErrEmailTaken
	}
	if current.Role == quiz.RoleAdmin && student.Role != quiz.RoleAdmin {
		var admins int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM students WHERE role = ?`, quiz.RoleAdmin).Scan(&admins); err != nil {
			return quiz.Student{}, err
		}
		if admins <= 1 {
			return quiz.Student{}, ErrLastAdmin
		}
	}

	if _, err := s.db.ExecContext(ctx,
		`UPDATE students SET name = ?, email = ?, class = ?, role = ? WHERE id = ?`,
		student.Name, student.Email, student.Class, student.Role, student.ID,
	); err != nil {
		return quiz.Student{}, errors.Wrap(err, "failed to update student")
	}
	return student, nil
}

func (s *Store) emailInUse(ctx context.Context, email, exceptID string) bool {
	var found int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM students WHERE email = ? AND id != ? LIMIT 1`, email, exceptID,
	).Scan(&found)
	return err == nil
}
