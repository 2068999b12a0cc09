package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type RouterOptions struct {
	AllowedOrigins []string
	// RequestLog enables chi's request logger.
	RequestLog bool
}

func NewRouter(api *API, opts RouterOptions) http.Handler {
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP)
	if opts.RequestLog {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "route not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
	})

	r.Post("/auth/login", api.HandleLogin)

	r.Group(func(r chi.Router) {
		r.Use(api.requireAuth)

		r.Get("/students/me", api.HandleProfile)

		r.Route("/classes", func(r chi.Router) {
			r.Get("/", api.HandleClasses)
			r.Get("/{class}/subjects", api.HandleSubjects)
			r.Get("/{class}/subjects/{subject}/topics", api.HandleTopics)
			r.Route("/{class}/subjects/{subject}/topics/{topic}/quizzes", func(r chi.Router) {
				r.Get("/", api.HandleQuizzes)
				r.Get("/{name}", api.HandleQuiz)
				r.Post("/{name}/submissions", api.HandleSubmit)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(requireAdmin)
			r.Put("/students/{id}", api.HandleUpdateStudent)
			r.Post("/quizzes", api.HandleUploadQuiz)
		})
	})

	return r
}
