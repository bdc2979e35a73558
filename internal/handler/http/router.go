package http

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"

	"github.com/clockwork-hr/attendance-recon-go/internal/handler/http/middleware"
	"github.com/clockwork-hr/attendance-recon-go/internal/pkg/jwt"
)

func NewRouter(jwtService jwt.Service, authHandler AuthHandler, viewHandler ViewHandler, exportHandler ExportHandler, referenceHandler ReferenceHandler) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(false)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "attendance-recon"),
		slog.String("version", "v1.0.0"),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "Content-Disposition", "X-Row-Count"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/token", authHandler.Token)
		})

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(jwtService.JWTAuth()))
			r.Use(middleware.AuthRequired(jwtService.JWTAuth()))
			r.Use(tagClientID)

			r.Route("/views", func(r chi.Router) {
				r.Post("/", viewHandler.Create)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", viewHandler.Snapshot)
					r.Delete("/", viewHandler.Delete)
					r.Put("/filters", viewHandler.UpdateFilters)
					r.Post("/export", exportHandler.Create)
				})
			})

			r.Route("/exports", func(r chi.Router) {
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", exportHandler.Get)
					r.Get("/download", exportHandler.Download)
					r.Delete("/", exportHandler.Delete)
				})
			})

			r.Route("/reference", func(r chi.Router) {
				r.Get("/departments", referenceHandler.Departments)
				r.Get("/areas", referenceHandler.Areas)
			})
		})
	})

	return r
}

// tagClientID adds the authenticated client id to the request log line.
func tagClientID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := middleware.ClientID(r.Context()); id != "" {
			httplog.SetAttrs(r.Context(), slog.String("client_id", id))
		}
		next.ServeHTTP(w, r)
	})
}
