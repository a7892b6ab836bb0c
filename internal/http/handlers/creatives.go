package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/vincent-petithory/dataurl"

	"creativelab/internal/creative"
	"creativelab/internal/domain"
	"creativelab/internal/middleware"
)

// Uploads beyond this are rejected before the pipeline runs.
const maxUploadBytes = 15 << 20

// GenerateCreative accepts a multipart submission (product_text, occasion,
// format, optional image), runs the generation pipeline, and appends the
// result to the caller's history. History persistence failures are logged
// but never surfaced as generation failures.
func (a *App) GenerateCreative(w http.ResponseWriter, r *http.Request) {
	email := middleware.UserEmailFromContext(r.Context())
	if email == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid multipart payload")
		return
	}

	in := creative.Input{
		ProductText: r.FormValue("product_text"),
		Occasion:    r.FormValue("occasion"),
		Format:      domain.ParseCreativeFormat(r.FormValue("format")),
	}
	file, header, err := r.FormFile("image")
	switch {
	case err == nil:
		defer file.Close()
		in.Image = file
		in.ImageMIME = header.Header.Get("Content-Type")
	case errors.Is(err, http.ErrMissingFile):
		// no reference image supplied
	default:
		a.error(w, http.StatusBadRequest, "bad_request", "invalid image upload")
		return
	}

	output, err := a.Pipeline.Generate(r.Context(), in)
	if err != nil {
		a.error(w, statusForPipelineError(err), kindForPipelineError(err), creative.UserMessage(err))
		return
	}

	entry := &domain.HistoryEntry{
		ID:          uuid.NewString(),
		UserEmail:   email,
		Format:      in.Format,
		ProductText: strings.TrimSpace(in.ProductText),
		Occasion:    strings.TrimSpace(in.Occasion),
		Copy:        output.Copy,
		VisualURL:   output.VisualURL,
		CreatedAt:   time.Now().UTC(),
	}
	if err := a.History.Append(r.Context(), entry); err != nil {
		a.Logger.Error().Err(err).Str("entry_id", entry.ID).Msg("history append failed")
	}
	if a.Files != nil {
		if key, err := a.Files.WriteVisual(r.Context(), entry.ID, entry.VisualURL); err != nil {
			a.Logger.Warn().Err(err).Str("entry_id", entry.ID).Msg("visual archive failed")
		} else {
			a.Logger.Debug().Str("entry_id", entry.ID).Str("storage_key", key).Msg("visual archived")
		}
	}

	a.json(w, http.StatusCreated, entry)
}

// ListCreatives returns the caller's library in reverse chronological order.
func (a *App) ListCreatives(w http.ResponseWriter, r *http.Request) {
	email := middleware.UserEmailFromContext(r.Context())
	if email == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	limit := intQuery(r, "limit", 50)
	offset := intQuery(r, "offset", 0)
	entries, err := a.History.ListByUser(r.Context(), email, limit, offset)
	if err != nil {
		a.Logger.Error().Err(err).Msg("history list failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load library")
		return
	}
	if entries == nil {
		entries = []domain.HistoryEntry{}
	}
	a.json(w, http.StatusOK, map[string]any{"items": entries})
}

// CreativeStats returns the dashboard counters for the caller's library.
func (a *App) CreativeStats(w http.ResponseWriter, r *http.Request) {
	email := middleware.UserEmailFromContext(r.Context())
	if email == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	stats, err := a.History.StatsByUser(r.Context(), email)
	if err != nil {
		a.Logger.Error().Err(err).Msg("history stats failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load stats")
		return
	}
	a.json(w, http.StatusOK, stats)
}

// DownloadCreative streams the stored visual as an attachment named after the
// headline.
func (a *App) DownloadCreative(w http.ResponseWriter, r *http.Request) {
	email := middleware.UserEmailFromContext(r.Context())
	if email == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	id := chi.URLParam(r, "id")
	if id == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "id required")
		return
	}
	entry, err := a.History.GetByID(r.Context(), id, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "creative not found")
			return
		}
		a.Logger.Error().Err(err).Str("entry_id", id).Msg("history get failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load creative")
		return
	}
	decoded, err := dataurl.DecodeString(entry.VisualURL)
	if err != nil {
		a.Logger.Error().Err(err).Str("entry_id", id).Msg("visual decode failed")
		a.error(w, http.StatusInternalServerError, "internal", "stored visual is unreadable")
		return
	}
	w.Header().Set("Content-Type", decoded.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", downloadFilename(entry.Copy.Headline)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(decoded.Data)
}

var filenameUnsafe = regexp.MustCompile(`\s+`)

func downloadFilename(headline string) string {
	name := strings.ToLower(strings.TrimSpace(headline))
	name = filenameUnsafe.ReplaceAllString(name, "_")
	if name == "" {
		name = "creative"
	}
	return name + "_creative.jpg"
}

func intQuery(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}

func statusForPipelineError(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrEncoding):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrMalformedResponse), errors.Is(err, domain.ErrGenerationRefused):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrService):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func kindForPipelineError(err error) string {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return "validation_error"
	case errors.Is(err, domain.ErrEncoding):
		return "encoding_error"
	case errors.Is(err, domain.ErrMalformedResponse):
		return "malformed_response"
	case errors.Is(err, domain.ErrGenerationRefused):
		return "generation_refused"
	case errors.Is(err, domain.ErrService):
		return "service_error"
	default:
		return "internal"
	}
}
