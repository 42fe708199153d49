package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	auth "github.com/mind-engage/mindengage-grades/internal/auth/middleware"
	"github.com/mind-engage/mindengage-grades/internal/storage"
)

type Deps struct {
	Snapshots   Snapshots
	Week        WeekLister
	Exports     storage.Sink      // nil disables /api/exports
	Auth        *auth.AuthService // nil leaves /api open and disables login
	CORSOrigins []string
	Timeout     time.Duration
	Log         *slog.Logger
}

func NewRouter(d Deps) http.Handler {
	if d.Timeout <= 0 {
		d.Timeout = 60 * time.Second
	}
	if d.Log == nil {
		d.Log = slog.Default()
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(d.Timeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if d.Auth != nil {
		r.Post("/auth/login", auth.LoginHandler(d.Auth))
	}

	r.Route("/api", func(pr chi.Router) {
		if d.Auth != nil {
			pr.Use(auth.JWTMiddleware(d.Auth))
		}
		pr.Get("/grades", GradesHandler(d.Snapshots))
		pr.Get("/grades.csv", GradesCSVHandler(d.Snapshots))
		pr.Get("/courses/{courseID}", CourseHandler(d.Snapshots))
		pr.Post("/refresh", RefreshHandler(d.Snapshots, d.Log))
		if d.Week != nil {
			pr.Get("/week", WeekHandler(d.Week))
		}
		if d.Exports != nil {
			pr.Route("/exports", func(er chi.Router) {
				MountExports(er, d.Snapshots, d.Exports, d.Log)
			})
		}
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if _, err := d.Snapshots.Current(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	return r
}
