package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"creativelab/internal/auth"
	"creativelab/internal/http/handlers"
	"creativelab/internal/infra"
	"creativelab/internal/middleware"
)

// NewRouter assembles the API surface: a public login endpoint plus the
// JWT-protected creative pipeline and library routes.
func NewRouter(app *handlers.App, tokens *auth.TokenIssuer, cfg *infra.Config) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(app.Logger),
		middleware.CORS(cfg.CORSOrigins),
	)

	r.Get("/v1/healthz", app.Health)
	r.Post("/v1/auth/login", app.Login)

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthJWT(tokens))
		r.Get("/v1/me", app.Me)
		r.Route("/v1/creatives", func(r chi.Router) {
			r.Post("/", app.GenerateCreative)
			r.Get("/", app.ListCreatives)
			r.Get("/stats", app.CreativeStats)
			r.Get("/{id}/download", app.DownloadCreative)
		})
	})

	return r
}
