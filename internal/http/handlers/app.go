package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"creativelab/internal/auth"
	"creativelab/internal/creative"
	"creativelab/internal/domain"
	"creativelab/internal/history"
	"creativelab/internal/infra"
	"creativelab/internal/storage"
)

// CreativeGenerator is the slice of the pipeline the HTTP layer depends on.
type CreativeGenerator interface {
	Generate(ctx context.Context, in creative.Input) (*domain.CreativeOutput, error)
}

// App bundles the dependencies shared by all handlers.
type App struct {
	Logger   infra.Logger
	Auth     auth.Authenticator
	Pipeline CreativeGenerator
	History  history.Store
	Files    *storage.FileStore
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, kind, message string) {
	a.json(w, code, map[string]string{"error": kind, "message": message})
}

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{"status": "ok"})
}
