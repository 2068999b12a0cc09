package cli

import (
	"bytes"
	"context"
	"io"
	"log"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"quiz-client/internal/app"
	"quiz-client/internal/apperr"
	"quiz-client/internal/auth"
	"quiz-client/internal/backend"
	"quiz-client/internal/quiz"
	"quiz-client/internal/session"
	"quiz-client/internal/storage"
)

type fakeBackend struct {
	quiz       quiz.Quiz
	catalogErr error
	profile    quiz.Student
	updated    []quiz.Student
	uploads    []string
}

func (f *fakeBackend) ListClasses(context.Context) ([]string, error) {
	if f.catalogErr != nil {
		return nil, f.catalogErr
	}
	return []string{"8", "9"}, nil
}

func (f *fakeBackend) ListSubjects(context.Context, string) ([]string, error) {
	return []string{"Science"}, f.catalogErr
}

func (f *fakeBackend) ListTopics(context.Context, string, string) ([]string, error) {
	return []string{"Light & Sound"}, f.catalogErr
}

func (f *fakeBackend) ListQuizzes(context.Context, string, string, string) ([]quiz.Summary, error) {
	return []quiz.Summary{f.quiz.Summary()}, f.catalogErr
}

func (f *fakeBackend) GetProfile(context.Context) (quiz.Student, error) {
	if f.catalogErr != nil {
		return quiz.Student{}, f.catalogErr
	}
	return f.profile, nil
}

func (f *fakeBackend) UpdateStudent(_ context.Context, student quiz.Student) (quiz.Student, error) {
	if err := student.Validate(); err != nil {
		return quiz.Student{}, err
	}
	f.updated = append(f.updated, student)
	return student, nil
}

func (f *fakeBackend) UploadQuiz(_ context.Context, _ backend.UploadTarget, filename string, document io.Reader) (quiz.Summary, error) {
	f.uploads = append(f.uploads, filename)
	return f.quiz.Summary(), nil
}

func (f *fakeBackend) FetchQuiz(context.Context, quiz.Key) (quiz.Quiz, error) {
	return f.quiz, nil
}

func (f *fakeBackend) SubmitAttempt(_ context.Context, _ quiz.Key, q quiz.Quiz, slots []quiz.Slot) (quiz.Result, error) {
	return quiz.Grade(q, quiz.EncodeAnswers(q, slots)), nil
}

type fakeProvider struct {
	signer *auth.Signer
	role   string
}

func (f fakeProvider) SignIn(_ context.Context, email, password string) (auth.Identity, error) {
	if password != "secret" {
		return auth.Identity{}, errors.Wrap(apperr.ErrAuth, "bad password")
	}
	token, err := f.signer.Issue("student-1", email, f.role)
	if err != nil {
		return auth.Identity{}, err
	}
	return auth.ParseIdentity(token)
}

type harness struct {
	app     *App
	out     *bytes.Buffer
	backend *fakeBackend
	store   *storage.SQLiteStore
	session *auth.Session
	ctrl    *app.Controller
}

func opticsQuiz() quiz.Quiz {
	return quiz.Quiz{
		Name:            "Optics 1",
		Category:        "Science",
		DurationMinutes: 5,
		Questions: []quiz.Question{
			{Prompt: "Speed of light?", Correct: "300000 km/s", Alternatives: "1 km/s|30 km/s|3 km/s"},
			{Prompt: "Mirror type in cars?", Correct: "Convex", Alternatives: "Concave|Plane|Flat"},
			{Prompt: "Unit of frequency?", Correct: "Hertz", Alternatives: "Watt|Joule|Newton"},
		},
	}
}

func keepOrder(int, func(i, j int)) {}

func newHarness(t *testing.T, role string, input string) *harness {
	t.Helper()

	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "cli.db"))
	require.NoError(t, err)

	fake := &fakeBackend{
		quiz:    opticsQuiz(),
		profile: quiz.Student{ID: "student-1", Name: "Asha", Email: "asha@example.com", Class: "8", Role: role},
	}
	authSession := auth.NewSession(nil)
	logger := log.New(io.Discard, "", 0)

	h := &harness{out: &bytes.Buffer{}, backend: fake, store: store, session: authSession}
	guard := auth.NewGuard(func() { h.app.forceLogout() })
	h.ctrl = app.NewController(session.NewState(nil), fake, store, app.Options{
		Guard:        guard,
		Logger:       logger,
		TickInterval: time.Hour,
		Shuffle:      keepOrder,
		OnExpire:     func() { h.app.announceExpiry() },
	})
	t.Cleanup(func() { _ = h.ctrl.Close() })

	h.app = NewApp(strings.NewReader(input), h.out, Deps{
		Backend:    fake,
		Provider:   fakeProvider{signer: auth.NewSigner("test-secret", time.Hour), role: role},
		Session:    authSession,
		Guard:      guard,
		Store:      store,
		Controller: h.ctrl,
		ServerURL:  "http://backend.test",
	})
	return h
}

func script(lines ...string) string {
	return strings.Join(lines, "\n") + "\n"
}

func TestLoopTakesQuizAndShowsResults(t *testing.T) {
	h := newHarness(t, quiz.RoleStudent, script(
		"login asha@example.com",
		"secret",
		"no",
		`take 8 Science "Light & Sound" "Optics 1"`,
		"a",
		"s",
		"c",
		"f",
		"yes",
		"last",
		"exit",
	))

	require.NoError(t, h.app.Loop(context.Background()))

	output := h.out.String()
	require.Contains(t, output, "Welcome, Asha (class 8).")
	require.Contains(t, output, "Question 1/3")
	require.Contains(t, output, "Score: 1/3 (33.33%)   correct 1, wrong 1, skipped 1")
	require.Contains(t, output, "your answer:    Joule")

	// The finished attempt stays stored for review until the next quiz.
	record, err := h.store.LoadSession(context.Background())
	require.NoError(t, err)
	require.NotNil(t, record.Result)
	require.Equal(t, 1, record.Result.Correct)
	require.Equal(t, "Optics 1", record.Key.Name)

	_, err = h.store.RecalledCredentials(context.Background())
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestLoopAutoAdvancesExceptOnLastQuestion(t *testing.T) {
	h := newHarness(t, quiz.RoleStudent, script(
		`take 8 Science "Light & Sound" "Optics 1"`,
		"a",
		"b",
		"c",
		"d",
		"q",
		"yes",
		"exit",
	))

	require.NoError(t, h.app.Loop(context.Background()))

	output := h.out.String()
	require.Contains(t, output, " * D) Newton")
	require.Contains(t, output, "Quiz abandoned.")
	require.Equal(t, session.Idle, h.ctrl.State().Phase())

	_, err := h.store.LoadSession(context.Background())
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestLoopLeavesAttemptResumableAtEndOfInput(t *testing.T) {
	h := newHarness(t, quiz.RoleStudent, script(
		`take 8 Science "Light & Sound" "Optics 1"`,
		"a",
	))

	require.NoError(t, h.app.Loop(context.Background()))
	require.True(t, h.ctrl.ConfirmLeave())

	record, err := h.store.LoadSession(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, record.Snapshot.Current)
	require.Equal(t, "300000 km/s", *record.Snapshot.Answers[0])
}

func TestQuitAsksWhileQuizIsActive(t *testing.T) {
	h := newHarness(t, quiz.RoleStudent, script(
		`take 8 Science "Light & Sound" "Optics 1"`,
		"q",
		"no",
		"",
	))
	require.NoError(t, h.app.Loop(context.Background()))
	require.Contains(t, h.out.String(), "A quiz is in progress and will be lost. Quit the quiz? (yes/no): ")
	require.Equal(t, session.InProgress, h.ctrl.State().Phase())
}

func TestAuthFailureLogsOutOnce(t *testing.T) {
	h := newHarness(t, quiz.RoleStudent, script(
		"login asha@example.com",
		"secret",
		"yes",
		"classes",
		"classes",
		"exit",
	))
	// Fail only after login so the welcome path still runs.
	h.app.deps.Backend = &failAfterLogin{fakeBackend: h.backend}

	require.NoError(t, h.app.Loop(context.Background()))

	output := h.out.String()
	require.Equal(t, 1, strings.Count(output, apperr.Describe(apperr.ErrAuth)))
	require.True(t, h.app.loggedOut.Load())

	_, signedIn := h.session.Identity()
	require.False(t, signedIn)

	_, err := h.store.RecalledCredentials(context.Background())
	require.ErrorIs(t, err, storage.ErrNotFound)
}

// signedInBackend fails catalog calls the way the real client does when the
// session has no token.
type signedInBackend struct {
	*fakeBackend
	session *auth.Session
}

func (b *signedInBackend) ListClasses(ctx context.Context) ([]string, error) {
	if _, err := b.session.Token(); err != nil {
		return nil, err
	}
	return b.fakeBackend.ListClasses(ctx)
}

func TestLogoutThenCommandAsksToLogIn(t *testing.T) {
	h := newHarness(t, quiz.RoleStudent, script(
		"login asha@example.com",
		"secret",
		"no",
		"logout",
		"classes",
		"exit",
	))
	h.app.deps.Backend = &signedInBackend{fakeBackend: h.backend, session: h.session}

	require.NoError(t, h.app.Loop(context.Background()))

	output := h.out.String()
	require.Contains(t, output, "Logged out.")
	require.Contains(t, output, notLoggedIn)
	require.NotContains(t, output, apperr.Describe(apperr.ErrAuth))
	require.False(t, h.app.loggedOut.Load())
}

type failAfterLogin struct {
	*fakeBackend
}

func (f *failAfterLogin) ListClasses(context.Context) ([]string, error) {
	return nil, errors.Wrap(apperr.ErrAuth, "backend returned 401")
}

func TestRestoreLoginUsesRememberedToken(t *testing.T) {
	h := newHarness(t, quiz.RoleStudent, script("exit"))

	token, err := auth.NewSigner("test-secret", time.Hour).Issue("student-1", "asha@example.com", quiz.RoleStudent)
	require.NoError(t, err)
	require.NoError(t, h.store.RememberCredentials(context.Background(), storage.Credentials{Email: "asha@example.com", Token: token}))

	require.NoError(t, h.app.Loop(context.Background()))
	require.Contains(t, h.out.String(), "Signed in as asha@example.com.")

	identity, ok := h.session.Identity()
	require.True(t, ok)
	require.Equal(t, token, identity.Token)
}

func TestRestoreLoginForgetsExpiredToken(t *testing.T) {
	h := newHarness(t, quiz.RoleStudent, script("exit"))

	token, err := auth.NewSigner("test-secret", -time.Minute).Issue("student-1", "asha@example.com", quiz.RoleStudent)
	require.NoError(t, err)
	require.NoError(t, h.store.RememberCredentials(context.Background(), storage.Credentials{Email: "asha@example.com", Token: token}))

	require.NoError(t, h.app.Loop(context.Background()))
	require.Contains(t, h.out.String(), "has expired")

	_, err = h.store.RecalledCredentials(context.Background())
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestAdminCommandsRequireAdminRole(t *testing.T) {
	h := newHarness(t, quiz.RoleStudent, script(
		"login asha@example.com",
		"secret",
		"no",
		"admin student s-2 name=Ravi email=ravi@example.com class=9",
		"exit",
	))

	require.NoError(t, h.app.Loop(context.Background()))
	require.Contains(t, h.out.String(), errAdminOnly.Error())
	require.Empty(t, h.backend.updated)
}

func TestAdminUpdatesStudent(t *testing.T) {
	h := newHarness(t, quiz.RoleAdmin, script(
		"login admin@example.com",
		"secret",
		"no",
		"admin student s-2 name=Ravi email=not-an-email class=9",
		`admin student s-2 "name=Ravi Kumar" email=ravi@example.com class=9`,
		"exit",
	))

	require.NoError(t, h.app.Loop(context.Background()))

	output := h.out.String()
	require.Contains(t, output, "email: must be a valid email address")
	require.Contains(t, output, "Updated s-2: Ravi Kumar <ravi@example.com>, class 9, role student.")
	require.Len(t, h.backend.updated, 1)
}

func TestCatalogAndEmptyState(t *testing.T) {
	h := newHarness(t, quiz.RoleStudent, script(
		"classes",
		`quizzes 8 Science "Light & Sound"`,
		"subjects",
		"last",
		"resume",
		"bogus",
		"exit",
	))

	require.NoError(t, h.app.Loop(context.Background()))

	output := h.out.String()
	require.Contains(t, output, "Classes:\n1. 8\n2. 9\n")
	require.Contains(t, output, "1. Optics 1 (3 questions, 5 min)")
	require.Contains(t, output, "usage: subjects <class>")
	require.Contains(t, output, "No previous attempt.")
	require.Contains(t, output, "No quiz to resume.")
	require.Contains(t, output, "unknown command")
}

func TestSplitArgs(t *testing.T) {
	args, err := splitArgs(`take 8 Science "Light & Sound" "" x`)
	require.NoError(t, err)
	require.Equal(t, []string{"take", "8", "Science", "Light & Sound", "", "x"}, args)

	_, err = splitArgs(`take "open`)
	require.ErrorIs(t, err, errUnterminatedQuote)
}

func TestHelpers(t *testing.T) {
	require.Equal(t, "04:05", formatClock(245))
	require.Equal(t, "00:00", formatClock(-3))
	require.Equal(t, "33.33%", formatPercentage(33.33))

	fields, err := parseAssignments([]string{"Name=Ravi", "class=9"})
	require.NoError(t, err)
	require.Equal(t, map[string]string{"name": "Ravi", "class": "9"}, fields)

	_, err = parseAssignments([]string{"oops"})
	require.Error(t, err)
}
