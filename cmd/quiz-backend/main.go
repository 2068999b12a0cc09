package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quiz-client/internal/auth"
	"quiz-client/internal/bank"
	"quiz-client/internal/config"
	"quiz-client/internal/httpapi"
	"quiz-client/internal/opentdb"
	"quiz-client/internal/quiz"
)

const usageText = `usage: quiz-backend <command> [flags]

commands:
  serve        run the HTTP API
  seed         import an OpenTriviaDB batch as a quiz
  add-student  register a student or admin account`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usageText)
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "serve":
		err = serve(os.Args[2:])
	case "seed":
		err = seed(os.Args[2:])
	case "add-student":
		err = addStudent(os.Args[2:])
	default:
		fmt.Fprintln(os.Stderr, usageText)
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("%s failed: %v", os.Args[1], err)
	}
}

// loadConfig parses the shared -config and -db flags after the command's own.
func loadConfig(fs *flag.FlagSet, args []string) (config.Backend, error) {
	configPath := fs.String("config", os.Getenv("QUIZ_CONFIG"), "path to a YAML config file")
	dbPath := fs.String("db", "", "backend database (overrides config)")
	if err := fs.Parse(args); err != nil {
		return config.Backend{}, err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return config.Backend{}, err
	}
	if *dbPath != "" {
		cfg.Backend.DBPath = *dbPath
	}
	return cfg.Backend, nil
}

func serve(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", "", "HTTP listen address (overrides config)")
	cfg, err := loadConfig(fs, args)
	if err != nil {
		return err
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	if cfg.JWTSecret == "" {
		return errors.New("jwt secret is required, set backend.jwt_secret or QUIZ_JWT_SECRET")
	}

	store, err := bank.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	logger := log.New(os.Stderr, "quiz-backend: ", log.LstdFlags)
	api := httpapi.NewAPI(bank.NewCachedStore(store), auth.NewSigner(cfg.JWTSecret, cfg.TokenTTL), logger)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.NewRouter(api, httpapi.RouterOptions{AllowedOrigins: cfg.AllowedOrigins, RequestLog: true}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Printf("shutdown failed: %v", err)
		}
	}()

	logger.Printf("listening on %s", cfg.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func seed(args []string) error {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	class := fs.String("class", "", "class the quiz belongs to")
	subject := fs.String("subject", "", "subject")
	topic := fs.String("topic", "", "topic")
	name := fs.String("name", "", "quiz name")
	amount := fs.Int("amount", 10, "number of questions (max 50)")
	category := fs.Int("category", 0, "OpenTriviaDB category id, 0 for any")
	difficulty := fs.String("difficulty", "", "easy, medium or hard")
	duration := fs.Int("duration", 10, "time limit in minutes")
	cfg, err := loadConfig(fs, args)
	if err != nil {
		return err
	}

	store, err := bank.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	summary, err := store.Seed(ctx, opentdb.NewClient(nil), bank.SeedRequest{
		Key:             quiz.Key{Class: *class, Subject: *subject, Topic: *topic, Name: *name},
		Query:           opentdb.Query{Amount: *amount, Category: *category, Difficulty: *difficulty},
		DurationMinutes: *duration,
	})
	if err != nil {
		return err
	}
	log.Printf("seeded %q: %d questions, %d min", summary.Name, summary.QuestionCount, summary.DurationMinutes)
	return nil
}

func addStudent(args []string) error {
	fs := flag.NewFlagSet("add-student", flag.ExitOnError)
	name := fs.String("name", "", "display name")
	email := fs.String("email", "", "login email")
	class := fs.String("class", "", "class")
	role := fs.String("role", quiz.RoleStudent, "student or admin")
	password := fs.String("password", os.Getenv("QUIZ_STUDENT_PASSWORD"), "initial password")
	cfg, err := loadConfig(fs, args)
	if err != nil {
		return err
	}

	store, err := bank.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	student, err := store.AddStudent(context.Background(), quiz.Student{
		Name:  *name,
		Email: *email,
		Class: *class,
		Role:  *role,
	}, *password)
	if err != nil {
		return err
	}
	log.Printf("added %s %s (%s)", student.Role, student.Email, student.ID)
	return nil
}
