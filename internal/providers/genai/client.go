package genai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"creativelab/internal/infra"
)

// Options controls how the Gemini client is configured.
type Options struct {
	APIKey         string
	BaseURL        string
	CopyModel      string
	ImageModel     string
	ImageEditModel string
	HTTPClient     *http.Client
	Logger         *infra.Logger
}

// Client is a facade over the Gemini and Imagen REST APIs. It exposes the
// three calls the creative pipeline composes: structured copy generation,
// from-scratch image generation, and reference-image editing.
type Client struct {
	apiKey         string
	baseURL        string
	copyModel      string
	imageModel     string
	imageEditModel string
	httpClient     *http.Client
	logger         *infra.Logger
}

// InlineImage carries raw image bytes together with their declared MIME type.
type InlineImage struct {
	MIME string
	Data []byte
}

// CopyRequest describes a structured copy-generation call. When Image is
// non-nil it is attached as auxiliary context alongside the prompt.
type CopyRequest struct {
	Prompt    string
	Image     *InlineImage
	RequestID string
}

// ImageRequest describes a from-scratch image generation call.
type ImageRequest struct {
	Prompt      string
	AspectRatio string
	RequestID   string
}

// EditRequest describes an image-edit call against a reference image.
type EditRequest struct {
	Prompt    string
	Image     InlineImage
	RequestID string
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts,omitempty"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"`
}

type geminiSchema struct {
	Type       string                  `json:"type"`
	Properties map[string]geminiSchema `json:"properties,omitempty"`
	Required   []string                `json:"required,omitempty"`
}

type geminiGenerationConfig struct {
	CandidateCount     int           `json:"candidateCount,omitempty"`
	ResponseMimeType   string        `json:"responseMimeType,omitempty"`
	ResponseSchema     *geminiSchema `json:"responseSchema,omitempty"`
	ResponseModalities []string      `json:"responseModalities,omitempty"`
}

type geminiGenerateContentRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason,omitempty"`
}

type geminiGenerateContentResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
}

type imagenPredictRequest struct {
	Instances  []imagenInstance  `json:"instances"`
	Parameters *imagenParameters `json:"parameters,omitempty"`
}

type imagenInstance struct {
	Prompt string `json:"prompt"`
}

type imagenParameters struct {
	SampleCount    int    `json:"sampleCount,omitempty"`
	AspectRatio    string `json:"aspectRatio,omitempty"`
	OutputMimeType string `json:"outputMimeType,omitempty"`
}

type imagenPredictResponse struct {
	Predictions []struct {
		BytesBase64Encoded string `json:"bytesBase64Encoded"`
		MimeType           string `json:"mimeType"`
	} `json:"predictions"`
}

type geminiErrorResponse struct {
	Error struct {
		Code    int    `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
	} `json:"error"`
}

// copyResponseSchema is the strict wire schema for creative copy. All five
// fields are required at the schema level; optionality is expressed as an
// empty string.
func copyResponseSchema() *geminiSchema {
	str := geminiSchema{Type: "STRING"}
	return &geminiSchema{
		Type: "OBJECT",
		Properties: map[string]geminiSchema{
			"headline":           str,
			"subtext":            str,
			"CTA":                str,
			"layout_description": str,
			"festival_theme":     str,
		},
		Required: []string{"headline", "subtext", "CTA", "layout_description", "festival_theme"},
	}
}

// NewClient constructs a Gemini client with sane defaults. Callers may provide
// a nil HTTP client; a reusable one with sensible timeouts will be created.
func NewClient(opts Options) (*Client, error) {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}

	copyModel := opts.CopyModel
	if copyModel == "" {
		copyModel = "gemini-2.5-flash"
	}
	imageModel := opts.ImageModel
	if imageModel == "" {
		imageModel = "imagen-4.0-generate-001"
	}
	editModel := opts.ImageEditModel
	if editModel == "" {
		editModel = "gemini-2.5-flash-image-preview"
	}

	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}

	return &Client{
		apiKey:         strings.TrimSpace(opts.APIKey),
		baseURL:        baseURL,
		copyModel:      copyModel,
		imageModel:     imageModel,
		imageEditModel: editModel,
		httpClient:     client,
		logger:         logger,
	}, nil
}

// GenerateCopy invokes the text model with a strict JSON response schema and
// returns the raw response text. Parsing is left to the caller so it can
// classify malformed payloads.
func (c *Client) GenerateCopy(ctx context.Context, req CopyRequest) (string, error) {
	parts := []geminiPart{{Text: req.Prompt}}
	if req.Image != nil {
		parts = append(parts, geminiPart{InlineData: &geminiInlineData{
			MimeType: req.Image.MIME,
			Data:     base64.StdEncoding.EncodeToString(req.Image.Data),
		}})
	}
	payload := geminiGenerateContentRequest{
		Contents: []geminiContent{{Role: "user", Parts: parts}},
		GenerationConfig: &geminiGenerationConfig{
			CandidateCount:   1,
			ResponseMimeType: "application/json",
			ResponseSchema:   copyResponseSchema(),
		},
	}

	var response geminiGenerateContentResponse
	path := fmt.Sprintf("/models/%s:generateContent", url.PathEscape(c.copyModel))
	if err := c.invoke(ctx, path, payload, &response); err != nil {
		return "", err
	}

	text := firstText(response)
	c.logger.Debug().
		Str("request_id", req.RequestID).
		Str("model", c.copyModel).
		Int("chars", len(text)).
		Msg("genai: copy generated")
	return text, nil
}

// GenerateImage invokes the Imagen predict endpoint and returns every image
// payload the model produced. Callers decide how to treat an empty result.
func (c *Client) GenerateImage(ctx context.Context, req ImageRequest) ([]InlineImage, error) {
	payload := imagenPredictRequest{
		Instances: []imagenInstance{{Prompt: req.Prompt}},
		Parameters: &imagenParameters{
			SampleCount:    1,
			AspectRatio:    req.AspectRatio,
			OutputMimeType: "image/jpeg",
		},
	}

	var response imagenPredictResponse
	path := fmt.Sprintf("/models/%s:predict", url.PathEscape(c.imageModel))
	if err := c.invoke(ctx, path, payload, &response); err != nil {
		return nil, err
	}

	var images []InlineImage
	for _, pred := range response.Predictions {
		if pred.BytesBase64Encoded == "" {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(pred.BytesBase64Encoded)
		if err != nil {
			return nil, fmt.Errorf("decode prediction: %w", err)
		}
		mime := pred.MimeType
		if mime == "" {
			mime = "image/jpeg"
		}
		images = append(images, InlineImage{MIME: mime, Data: data})
	}

	c.logger.Debug().
		Str("request_id", req.RequestID).
		Str("model", c.imageModel).
		Str("aspect_ratio", req.AspectRatio).
		Int("images", len(images)).
		Msg("genai: images generated")
	return images, nil
}

// EditImage sends the reference image plus an edit instruction to the image
// model, requesting both image and text modalities back. It returns the first
// image-bearing part, or nil when the model produced none.
func (c *Client) EditImage(ctx context.Context, req EditRequest) (*InlineImage, error) {
	payload := geminiGenerateContentRequest{
		Contents: []geminiContent{{
			Role: "user",
			Parts: []geminiPart{
				{InlineData: &geminiInlineData{
					MimeType: req.Image.MIME,
					Data:     base64.StdEncoding.EncodeToString(req.Image.Data),
				}},
				{Text: req.Prompt},
			},
		}},
		GenerationConfig: &geminiGenerationConfig{
			ResponseModalities: []string{"IMAGE", "TEXT"},
		},
	}

	var response geminiGenerateContentResponse
	path := fmt.Sprintf("/models/%s:generateContent", url.PathEscape(c.imageEditModel))
	if err := c.invoke(ctx, path, payload, &response); err != nil {
		return nil, err
	}

	for _, candidate := range response.Candidates {
		for _, part := range candidate.Content.Parts {
			if part.InlineData == nil || part.InlineData.Data == "" {
				continue
			}
			data, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
			if err != nil {
				return nil, fmt.Errorf("decode edited image: %w", err)
			}
			mime := part.InlineData.MimeType
			if mime == "" {
				mime = "image/png"
			}
			c.logger.Debug().
				Str("request_id", req.RequestID).
				Str("model", c.imageEditModel).
				Str("mime", mime).
				Msg("genai: image edited")
			return &InlineImage{MIME: mime, Data: data}, nil
		}
	}
	return nil, nil
}

func (c *Client) invoke(ctx context.Context, path string, payload any, out any) error {
	endpoint := strings.TrimRight(c.baseURL, "/") + path
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-goog-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("invoke gemini: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr geminiErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("gemini status %d: %s", resp.StatusCode, apiErr.Error.Message)
		}
		data, _ := io.ReadAll(resp.Body)
		if len(data) > 0 {
			return fmt.Errorf("gemini status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
		}
		return fmt.Errorf("gemini status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode gemini response: %w", err)
	}
	return nil
}

func firstText(resp geminiGenerateContentResponse) string {
	for _, cand := range resp.Candidates {
		for _, part := range cand.Content.Parts {
			if strings.TrimSpace(part.Text) != "" {
				return part.Text
			}
		}
	}
	return ""
}
