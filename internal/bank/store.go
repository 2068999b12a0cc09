package bank

import (
	"context"
	"database/sql"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"quiz-client/internal/quiz"
)

var (
	ErrQuizNotFound       = errors.New("quiz not found")
	ErrStudentNotFound    = errors.New("student not found")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrLastAdmin          = errors.New("cannot demote the last admin")
)

// Store is the development backend's SQLite database of quizzes, students and
// submissions.
type Store struct {
	db      *sql.DB
	now     func() time.Time
	shuffle quiz.ShuffleFunc
	cost    int
}

type Option func(*Store)

// WithShuffle replaces the option shuffle used when a quiz is saved.
func WithShuffle(shuffle quiz.ShuffleFunc) Option {
	return func(s *Store) { s.shuffle = shuffle }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithBcryptCost lowers the hashing cost, mostly for tests.
func WithBcryptCost(cost int) Option {
	return func(s *Store) { s.cost = cost }
}

func Open(path string, opts ...Option) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		path = "quiz-backend.db"
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}

	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA busy_timeout = 5000;`); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to set busy timeout")
	}

	store := &Store{db: db, now: time.Now, cost: defaultBcryptCost}
	for _, opt := range opts {
		opt(store)
	}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS quizzes (
			class TEXT NOT NULL,
			subject TEXT NOT NULL,
			topic TEXT NOT NULL,
			name TEXT NOT NULL,
			category TEXT NOT NULL,
			duration_minutes INTEGER NOT NULL,
			question_count INTEGER NOT NULL,
			created_at_unix INTEGER NOT NULL,
			PRIMARY KEY (class, subject, topic, name)
		);`,
		`CREATE TABLE IF NOT EXISTS questions (
			question_id TEXT PRIMARY KEY,
			class TEXT NOT NULL,
			subject TEXT NOT NULL,
			topic TEXT NOT NULL,
			quiz_name TEXT NOT NULL,
			position INTEGER NOT NULL,
			prompt TEXT NOT NULL,
			correct TEXT NOT NULL,
			alternatives TEXT NOT NULL,
			explanation TEXT NOT NULL,
			options_json TEXT NOT NULL,
			UNIQUE (class, subject, topic, quiz_name, position)
		);`,
		`CREATE TABLE IF NOT EXISTS students (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			class TEXT NOT NULL,
			role TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			created_at_unix INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS submissions (
			id TEXT PRIMARY KEY,
			student_id TEXT NOT NULL,
			class TEXT NOT NULL,
			subject TEXT NOT NULL,
			topic TEXT NOT NULL,
			quiz_name TEXT NOT NULL,
			answers_json TEXT NOT NULL,
			correct INTEGER NOT NULL,
			total INTEGER NOT NULL,
			percentage REAL NOT NULL,
			submitted_at_unix INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_submissions_student ON submissions(student_id, submitted_at_unix DESC);`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "failed to create schema")
		}
	}
	return nil
}
