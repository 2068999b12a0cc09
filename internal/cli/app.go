package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"quiz-client/internal/app"
	"quiz-client/internal/apperr"
	"quiz-client/internal/auth"
	"quiz-client/internal/backend"
	"quiz-client/internal/quiz"
	"quiz-client/internal/session"
	"quiz-client/internal/storage"
)

type Config struct {
	ServerURL    string
	HTTPTimeout  time.Duration
	TickInterval time.Duration
	DBPath       string
	Logger       *log.Logger
}

type Backend interface {
	ListClasses(ctx context.Context) ([]string, error)
	ListSubjects(ctx context.Context, class string) ([]string, error)
	ListTopics(ctx context.Context, class, subject string) ([]string, error)
	ListQuizzes(ctx context.Context, class, subject, topic string) ([]quiz.Summary, error)
	GetProfile(ctx context.Context) (quiz.Student, error)
	UpdateStudent(ctx context.Context, student quiz.Student) (quiz.Student, error)
	UploadQuiz(ctx context.Context, target backend.UploadTarget, filename string, document io.Reader) (quiz.Summary, error)
}

type SignInProvider interface {
	SignIn(ctx context.Context, email, password string) (auth.Identity, error)
}

type UserStore interface {
	RememberCredentials(ctx context.Context, creds storage.Credentials) error
	RecalledCredentials(ctx context.Context) (storage.Credentials, error)
	ForgetCredentials(ctx context.Context) error
	SaveProfile(ctx context.Context, student quiz.Student) error
	LoadProfile(ctx context.Context) (quiz.Student, error)
	ClearUser(ctx context.Context) error
}

type Deps struct {
	Backend    Backend
	Provider   SignInProvider
	Session    *auth.Session
	Guard      *auth.Guard
	Store      UserStore
	Controller *app.Controller
	ServerURL  string
}

type App struct {
	reader *bufio.Reader
	out    io.Writer
	deps   Deps

	loggedOut atomic.Bool
}

// Run wires the real client stack and runs the interactive loop until exit or
// end of input.
func Run(ctx context.Context, in io.Reader, out io.Writer, cfg Config) error {
	store, err := storage.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		return err
	}

	authSession := auth.NewSession(nil)
	client := backend.NewClient(cfg.ServerURL, &http.Client{Timeout: cfg.HTTPTimeout}, authSession)

	var a *App
	guard := auth.NewGuard(func() { a.forceLogout() })
	controller := app.NewController(session.NewState(nil), client, store, app.Options{
		Guard:        guard,
		Logger:       cfg.Logger,
		TickInterval: cfg.TickInterval,
		OnExpire:     func() { a.announceExpiry() },
	})
	defer func() {
		if err := controller.Close(); err != nil {
			log.Printf("close failed: %v", err)
		}
	}()

	a = NewApp(in, out, Deps{
		Backend:    client,
		Provider:   auth.NewProvider(cfg.ServerURL, cfg.HTTPTimeout),
		Session:    authSession,
		Guard:      guard,
		Store:      store,
		Controller: controller,
		ServerURL:  cfg.ServerURL,
	})
	return a.Loop(ctx)
}

func NewApp(in io.Reader, out io.Writer, deps Deps) *App {
	return &App{
		reader: bufio.NewReader(in),
		out:    &syncWriter{w: out},
		deps:   deps,
	}
}

func (a *App) Loop(ctx context.Context) error {
	fmt.Fprintf(a.out, "quiz-cli\nserver=%s\n\n", a.deps.ServerURL)
	a.restoreLogin(ctx)
	printHelp(a.out)

	for {
		fmt.Fprint(a.out, "\n> ")
		line, err := readLine(a.reader)
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(a.out)
				return nil
			}
			return err
		}
		if line == "" {
			continue
		}

		args, err := splitArgs(line)
		if err != nil {
			fmt.Fprintf(a.out, "error: %v\n", err)
			continue
		}

		done, err := a.dispatch(ctx, args)
		if err != nil {
			a.report(err)
		}
		if done {
			return nil
		}
	}
}

func (a *App) dispatch(ctx context.Context, args []string) (bool, error) {
	switch command := args[0]; command {
	case "help":
		printHelp(a.out)
	case "exit":
		return a.confirmLeave("Exit anyway?")
	case "login":
		return false, a.login(ctx, args[1:])
	case "logout":
		return false, a.logout(ctx)
	case "classes":
		return false, a.listClasses(ctx)
	case "subjects":
		if len(args) != 2 {
			return false, usage("subjects <class>")
		}
		return false, a.listSubjects(ctx, args[1])
	case "topics":
		if len(args) != 3 {
			return false, usage("topics <class> <subject>")
		}
		return false, a.listTopics(ctx, args[1], args[2])
	case "quizzes":
		if len(args) != 4 {
			return false, usage("quizzes <class> <subject> <topic>")
		}
		return false, a.listQuizzes(ctx, args[1], args[2], args[3])
	case "take":
		if len(args) != 5 {
			return false, usage("take <class> <subject> <topic> <quiz>")
		}
		return false, a.take(ctx, quiz.Key{Class: args[1], Subject: args[2], Topic: args[3], Name: args[4]})
	case "last":
		return false, a.showLast(ctx)
	case "resume":
		return false, a.resume(ctx)
	case "profile":
		return false, a.showProfile(ctx)
	case "admin":
		return false, a.admin(ctx, args[1:])
	default:
		fmt.Fprintln(a.out, "unknown command. type 'help' for usage.")
	}
	return false, nil
}

type usageError string

func (u usageError) Error() string {
	return "usage: " + string(u)
}

func usage(text string) error {
	return usageError(text)
}

// report shows an error as a dismissable message. Auth failures have already
// been turned into a logout by the guard.
func (a *App) report(err error) {
	var usageErr usageError
	if errors.As(err, &usageErr) {
		fmt.Fprintln(a.out, usageErr.Error())
		return
	}
	a.deps.Guard.Check(err)
	if errors.Is(err, apperr.ErrAuth) {
		if a.loggedOut.Load() {
			return
		}
		if _, signedIn := a.deps.Session.Identity(); !signedIn {
			fmt.Fprintln(a.out, notLoggedIn)
			return
		}
	}
	fmt.Fprintf(a.out, "error: %s\n", apperr.Describe(err))
}

// confirmLeave asks before abandoning a running attempt. It reports whether
// the caller may go ahead.
func (a *App) confirmLeave(question string) (bool, error) {
	if !a.deps.Controller.ConfirmLeave() {
		return true, nil
	}
	return promptYesNo(a.reader, a.out, "A quiz is in progress and will be lost. "+question+" (yes/no): ")
}

func (a *App) announceExpiry() {
	fmt.Fprintln(a.out, "\nTime is up! Press enter to see your results.")
}

func (a *App) forceLogout() {
	a.loggedOut.Store(true)
	a.deps.Controller.Reset()
	if err := a.deps.Store.ClearUser(context.Background()); err != nil {
		log.Printf("failed to clear local user data: %v", err)
	}
	a.deps.Session.SignOut()
	fmt.Fprintf(a.out, "%s\n", apperr.Describe(apperr.ErrAuth))
}

func printHelp(out io.Writer) {
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  login [email]")
	fmt.Fprintln(out, "  logout")
	fmt.Fprintln(out, "  classes")
	fmt.Fprintln(out, "  subjects <class>")
	fmt.Fprintln(out, "  topics <class> <subject>")
	fmt.Fprintln(out, "  quizzes <class> <subject> <topic>")
	fmt.Fprintln(out, "  take <class> <subject> <topic> <quiz>")
	fmt.Fprintln(out, "  last")
	fmt.Fprintln(out, "  resume")
	fmt.Fprintln(out, "  profile")
	fmt.Fprintln(out, "  admin upload <class> <subject> <topic> <file>")
	fmt.Fprintln(out, "  admin student <id> name=<name> email=<email> class=<class> [role=<role>]")
	fmt.Fprintln(out, "  help")
	fmt.Fprintln(out, "  exit")
	fmt.Fprintln(out, "Quote names that contain spaces, e.g. take 8 Science \"Light & Sound\" \"Optics 1\".")
}
