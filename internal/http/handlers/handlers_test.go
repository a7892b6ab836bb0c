package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/vincent-petithory/dataurl"

	"creativelab/internal/auth"
	"creativelab/internal/creative"
	"creativelab/internal/domain"
	"creativelab/internal/middleware"
)

type fakePipeline struct {
	output  *domain.CreativeOutput
	err     error
	lastIn  creative.Input
	invoked int
}

func (f *fakePipeline) Generate(ctx context.Context, in creative.Input) (*domain.CreativeOutput, error) {
	f.invoked++
	f.lastIn = in
	if f.err != nil {
		return nil, f.err
	}
	return f.output, nil
}

type memoryHistory struct {
	entries   []domain.HistoryEntry
	appendErr error
	stats     domain.HistoryStats
	statsErr  error
}

func (m *memoryHistory) Append(ctx context.Context, entry *domain.HistoryEntry) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *memoryHistory) ListByUser(ctx context.Context, email string, limit, offset int) ([]domain.HistoryEntry, error) {
	var out []domain.HistoryEntry
	for _, e := range m.entries {
		if e.UserEmail == email {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memoryHistory) GetByID(ctx context.Context, id, email string) (*domain.HistoryEntry, error) {
	for _, e := range m.entries {
		if e.ID == id && e.UserEmail == email {
			entry := e
			return &entry, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memoryHistory) StatsByUser(ctx context.Context, email string) (*domain.HistoryStats, error) {
	if m.statsErr != nil {
		return nil, m.statsErr
	}
	stats := m.stats
	return &stats, nil
}

type stubAuth struct {
	session *auth.Session
	err     error
}

func (s *stubAuth) Login(ctx context.Context, email, password string) (*auth.Session, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.session, nil
}

func testApp(pipeline *fakePipeline, hist *memoryHistory) *App {
	return &App{
		Logger:   zerolog.New(os.Stderr).Level(zerolog.Disabled),
		Pipeline: pipeline,
		History:  hist,
	}
}

func sampleOutput() *domain.CreativeOutput {
	visual := dataurl.New([]byte("jpeg-bytes"), "image/jpeg").String()
	return &domain.CreativeOutput{
		Copy: domain.CreativeCopy{
			Headline:          "Big Diwali Sale",
			Subtext:           "Lights on everything",
			CTA:               "Shop Now",
			LayoutDescription: "warm golden scene",
			FestivalTheme:     "Diwali",
		},
		VisualURL: visual,
	}
}

func multipartBody(t *testing.T, fields map[string]string, image []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("WriteField(%s) error: %v", k, err)
		}
	}
	if image != nil {
		part, err := mw.CreateFormFile("image", "ref.png")
		if err != nil {
			t.Fatalf("CreateFormFile() error: %v", err)
		}
		if _, err := part.Write(image); err != nil {
			t.Fatalf("write image part: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func authedRequest(method, target, email string, body io.Reader) *http.Request {
	r := httptest.NewRequest(method, target, body)
	return r.WithContext(middleware.ContextWithUserEmail(r.Context(), email))
}

func TestGenerateCreativeSuccess(t *testing.T) {
	pipeline := &fakePipeline{output: sampleOutput()}
	hist := &memoryHistory{}
	app := testApp(pipeline, hist)

	body, contentType := multipartBody(t, map[string]string{
		"product_text": "Handmade diyas",
		"occasion":     "Diwali",
		"format":       "banner",
	}, nil)
	r := authedRequest(http.MethodPost, "/v1/creatives", "owner@example.com", body)
	r.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()

	app.GenerateCreative(w, r)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body: %s", w.Code, w.Body.String())
	}
	if pipeline.invoked != 1 {
		t.Fatalf("pipeline invoked %d times", pipeline.invoked)
	}
	if pipeline.lastIn.Format != domain.FormatBanner {
		t.Errorf("pipeline format = %q", pipeline.lastIn.Format)
	}
	if len(hist.entries) != 1 {
		t.Fatalf("history has %d entries, want 1", len(hist.entries))
	}
	entry := hist.entries[0]
	if entry.UserEmail != "owner@example.com" {
		t.Errorf("entry user = %q", entry.UserEmail)
	}
	if entry.ProductText != "Handmade diyas" || entry.Occasion != "Diwali" {
		t.Errorf("entry inputs = %q / %q", entry.ProductText, entry.Occasion)
	}

	var resp domain.HistoryEntry
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Copy.Headline != "Big Diwali Sale" {
		t.Errorf("response headline = %q", resp.Copy.Headline)
	}
	if resp.VisualURL == "" {
		t.Error("response visual URL is empty")
	}
}

func TestGenerateCreativeForwardsUpload(t *testing.T) {
	pipeline := &fakePipeline{output: sampleOutput()}
	app := testApp(pipeline, &memoryHistory{})

	body, contentType := multipartBody(t, map[string]string{"format": "brochure"}, []byte{0x89, 'P', 'N', 'G'})
	r := authedRequest(http.MethodPost, "/v1/creatives", "owner@example.com", body)
	r.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()

	app.GenerateCreative(w, r)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d; body: %s", w.Code, w.Body.String())
	}
	if pipeline.lastIn.Image == nil {
		t.Error("upload was not forwarded to the pipeline")
	}
}

func TestGenerateCreativeImageAsPlainFieldMeansNoImage(t *testing.T) {
	pipeline := &fakePipeline{output: sampleOutput()}
	app := testApp(pipeline, &memoryHistory{})

	// "image" sent as a value, not a file part: FormFile reports the file as
	// missing and generation proceeds from text alone.
	body, contentType := multipartBody(t, map[string]string{
		"product_text": "x",
		"image":        "not-a-file",
	}, nil)
	r := authedRequest(http.MethodPost, "/v1/creatives", "owner@example.com", body)
	r.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()

	app.GenerateCreative(w, r)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d; body: %s", w.Code, w.Body.String())
	}
	if pipeline.lastIn.Image != nil {
		t.Error("pipeline received an image for a valueless upload")
	}
}

func TestGenerateCreativeErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantKind   string
	}{
		{"validation", &creative.Error{Kind: domain.ErrValidation, Message: "Please provide product information, an occasion, or a reference image."}, http.StatusBadRequest, "validation_error"},
		{"encoding", &creative.Error{Kind: domain.ErrEncoding, Message: "Failed to process the uploaded image. Please try a different file."}, http.StatusBadRequest, "encoding_error"},
		{"malformed", &creative.Error{Kind: domain.ErrMalformedResponse, Message: "The AI returned an unexpected format. Please try again."}, http.StatusUnprocessableEntity, "malformed_response"},
		{"refused", &creative.Error{Kind: domain.ErrGenerationRefused, Message: "The AI couldn't generate an image for this request. Try rephrasing your input."}, http.StatusUnprocessableEntity, "generation_refused"},
		{"service", &creative.Error{Kind: domain.ErrService, Message: "The AI service had a temporary issue. Please try again in a moment."}, http.StatusBadGateway, "service_error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			hist := &memoryHistory{}
			app := testApp(&fakePipeline{err: tc.err}, hist)

			body, contentType := multipartBody(t, map[string]string{"product_text": "x"}, nil)
			r := authedRequest(http.MethodPost, "/v1/creatives", "owner@example.com", body)
			r.Header.Set("Content-Type", contentType)
			w := httptest.NewRecorder()

			app.GenerateCreative(w, r)

			if w.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tc.wantStatus)
			}
			var resp map[string]string
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if resp["error"] != tc.wantKind {
				t.Errorf("error kind = %q, want %q", resp["error"], tc.wantKind)
			}
			if resp["message"] != creative.UserMessage(tc.err) {
				t.Errorf("message = %q", resp["message"])
			}
			if len(hist.entries) != 0 {
				t.Error("failed generation must not reach history")
			}
		})
	}
}

func TestGenerateCreativeHistoryFailureIsNotFatal(t *testing.T) {
	hist := &memoryHistory{appendErr: errors.New("db down")}
	app := testApp(&fakePipeline{output: sampleOutput()}, hist)

	body, contentType := multipartBody(t, map[string]string{"product_text": "x"}, nil)
	r := authedRequest(http.MethodPost, "/v1/creatives", "owner@example.com", body)
	r.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()

	app.GenerateCreative(w, r)

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201 despite history failure", w.Code)
	}
}

func TestGenerateCreativeRequiresUser(t *testing.T) {
	app := testApp(&fakePipeline{output: sampleOutput()}, &memoryHistory{})

	body, contentType := multipartBody(t, map[string]string{"product_text": "x"}, nil)
	r := httptest.NewRequest(http.MethodPost, "/v1/creatives", body)
	r.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()

	app.GenerateCreative(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestListCreativesScopedToCaller(t *testing.T) {
	hist := &memoryHistory{entries: []domain.HistoryEntry{
		{ID: "1", UserEmail: "owner@example.com"},
		{ID: "2", UserEmail: "other@example.com"},
	}}
	app := testApp(&fakePipeline{}, hist)

	r := authedRequest(http.MethodGet, "/v1/creatives", "owner@example.com", nil)
	w := httptest.NewRecorder()
	app.ListCreatives(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Items []domain.HistoryEntry `json:"items"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Items) != 1 || resp.Items[0].ID != "1" {
		t.Errorf("items = %+v, want only the caller's entry", resp.Items)
	}
}

func TestListCreativesEmptyLibrary(t *testing.T) {
	app := testApp(&fakePipeline{}, &memoryHistory{})

	r := authedRequest(http.MethodGet, "/v1/creatives", "owner@example.com", nil)
	w := httptest.NewRecorder()
	app.ListCreatives(w, r)

	var resp map[string]json.RawMessage
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if string(resp["items"]) != "[]" {
		t.Errorf("items = %s, want empty array not null", resp["items"])
	}
}

func TestCreativeStats(t *testing.T) {
	hist := &memoryHistory{stats: domain.HistoryStats{CreatedToday: 2, CreatedThisWeek: 5, Total: 9}}
	app := testApp(&fakePipeline{}, hist)

	r := authedRequest(http.MethodGet, "/v1/creatives/stats", "owner@example.com", nil)
	w := httptest.NewRecorder()
	app.CreativeStats(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var stats domain.HistoryStats
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if stats != hist.stats {
		t.Errorf("stats = %+v, want %+v", stats, hist.stats)
	}
}

func TestDownloadCreative(t *testing.T) {
	entry := domain.HistoryEntry{
		ID:        "abc",
		UserEmail: "owner@example.com",
		Copy:      domain.CreativeCopy{Headline: "Big Diwali Sale"},
		VisualURL: dataurl.New([]byte("jpeg-bytes"), "image/jpeg").String(),
		CreatedAt: time.Now(),
	}
	app := testApp(&fakePipeline{}, &memoryHistory{entries: []domain.HistoryEntry{entry}})

	router := chi.NewRouter()
	router.Get("/v1/creatives/{id}/download", app.DownloadCreative)

	r := authedRequest(http.MethodGet, "/v1/creatives/abc/download", "owner@example.com", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; body: %s", w.Code, w.Body.String())
	}
	if got := w.Header().Get("Content-Type"); got != "image/jpeg" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := w.Header().Get("Content-Disposition"); got != `attachment; filename="big_diwali_sale_creative.jpg"` {
		t.Errorf("Content-Disposition = %q", got)
	}
	if w.Body.String() != "jpeg-bytes" {
		t.Errorf("body = %q", w.Body.String())
	}

	r = authedRequest(http.MethodGet, "/v1/creatives/abc/download", "other@example.com", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, r)
	if w.Code != http.StatusNotFound {
		t.Errorf("cross-user download status = %d, want 404", w.Code)
	}
}

func TestLogin(t *testing.T) {
	session := &auth.Session{
		Token:     "tok",
		User:      domain.User{Email: "owner@example.com", Name: "Owner"},
		ExpiresAt: time.Now().Add(time.Hour),
	}
	app := testApp(&fakePipeline{}, &memoryHistory{})
	app.Auth = &stubAuth{session: session}

	r := httptest.NewRequest(http.MethodPost, "/v1/auth/login", bytes.NewBufferString(`{"email":"owner@example.com","password":"pw"}`))
	w := httptest.NewRecorder()
	app.Login(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; body: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
		User  struct {
			Email string `json:"email"`
		} `json:"user"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Token != "tok" || resp.User.Email != "owner@example.com" {
		t.Errorf("response = %+v", resp)
	}
}

func TestLoginRejectsBadInput(t *testing.T) {
	app := testApp(&fakePipeline{}, &memoryHistory{})
	app.Auth = &stubAuth{err: domain.ErrUnauthorized}

	r := httptest.NewRequest(http.MethodPost, "/v1/auth/login", bytes.NewBufferString(`{"email":"owner@example.com"}`))
	w := httptest.NewRecorder()
	app.Login(w, r)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing password status = %d, want 400", w.Code)
	}

	r = httptest.NewRequest(http.MethodPost, "/v1/auth/login", bytes.NewBufferString(`{"email":"owner@example.com","password":"bad"}`))
	w = httptest.NewRecorder()
	app.Login(w, r)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("bad credentials status = %d, want 401", w.Code)
	}
}

func TestMe(t *testing.T) {
	app := testApp(&fakePipeline{}, &memoryHistory{})

	r := authedRequest(http.MethodGet, "/v1/me", "owner@example.com", nil)
	w := httptest.NewRecorder()
	app.Me(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["email"] != "owner@example.com" {
		t.Errorf("email = %q", resp["email"])
	}
}
