package creative

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/vincent-petithory/dataurl"

	"creativelab/internal/domain"
	"creativelab/internal/providers/genai"
)

type fakeGenerator struct {
	copyCalls  int
	imageCalls int
	editCalls  int

	lastCopyReq  genai.CopyRequest
	lastImageReq genai.ImageRequest
	lastEditReq  genai.EditRequest

	copyFn  func(genai.CopyRequest) (string, error)
	imageFn func(genai.ImageRequest) ([]genai.InlineImage, error)
	editFn  func(genai.EditRequest) (*genai.InlineImage, error)
}

func (f *fakeGenerator) GenerateCopy(ctx context.Context, req genai.CopyRequest) (string, error) {
	f.copyCalls++
	f.lastCopyReq = req
	if f.copyFn != nil {
		return f.copyFn(req)
	}
	return `{"headline":"H","subtext":"S","CTA":"Buy now","layout_description":"A scene","festival_theme":""}`, nil
}

func (f *fakeGenerator) GenerateImage(ctx context.Context, req genai.ImageRequest) ([]genai.InlineImage, error) {
	f.imageCalls++
	f.lastImageReq = req
	if f.imageFn != nil {
		return f.imageFn(req)
	}
	return []genai.InlineImage{{MIME: "image/jpeg", Data: []byte("jpeg-bytes")}}, nil
}

func (f *fakeGenerator) EditImage(ctx context.Context, req genai.EditRequest) (*genai.InlineImage, error) {
	f.editCalls++
	f.lastEditReq = req
	if f.editFn != nil {
		return f.editFn(req)
	}
	return &genai.InlineImage{MIME: "image/png", Data: []byte("png-bytes")}, nil
}

func newTestPipeline(gen Generator) *Pipeline {
	return NewPipeline(gen, NewPromptBuilder(""), zerolog.New(io.Discard))
}

func TestGenerateEmptyInputMakesNoCalls(t *testing.T) {
	gen := &fakeGenerator{}
	_, err := newTestPipeline(gen).Generate(context.Background(), Input{Format: domain.FormatBanner})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("Generate() error = %v, want ErrValidation", err)
	}
	if total := gen.copyCalls + gen.imageCalls + gen.editCalls; total != 0 {
		t.Fatalf("external calls = %d, want 0", total)
	}
}

func TestGenerateMalformedCopyStopsBeforeVisual(t *testing.T) {
	gen := &fakeGenerator{
		copyFn: func(genai.CopyRequest) (string, error) { return "sorry, I cannot do that", nil },
	}
	_, err := newTestPipeline(gen).Generate(context.Background(), Input{ProductText: "camera", Format: domain.FormatBanner})
	if !errors.Is(err, domain.ErrMalformedResponse) {
		t.Fatalf("Generate() error = %v, want ErrMalformedResponse", err)
	}
	if gen.copyCalls != 1 {
		t.Errorf("copy calls = %d, want 1", gen.copyCalls)
	}
	if gen.imageCalls+gen.editCalls != 0 {
		t.Errorf("visual calls = %d, want 0", gen.imageCalls+gen.editCalls)
	}
}

func TestGenerateZeroImagesIsRefused(t *testing.T) {
	gen := &fakeGenerator{
		imageFn: func(genai.ImageRequest) ([]genai.InlineImage, error) { return nil, nil },
	}
	_, err := newTestPipeline(gen).Generate(context.Background(), Input{ProductText: "camera", Format: domain.FormatBanner})
	if !errors.Is(err, domain.ErrGenerationRefused) {
		t.Fatalf("Generate() error = %v, want ErrGenerationRefused", err)
	}
}

func TestGenerateMissingEditedImageIsRefused(t *testing.T) {
	gen := &fakeGenerator{
		editFn: func(genai.EditRequest) (*genai.InlineImage, error) { return nil, nil },
	}
	_, err := newTestPipeline(gen).Generate(context.Background(), Input{
		Image:     bytes.NewReader(pngHeader),
		ImageMIME: "image/png",
		Format:    domain.FormatBrochure,
	})
	if !errors.Is(err, domain.ErrGenerationRefused) {
		t.Fatalf("Generate() error = %v, want ErrGenerationRefused", err)
	}
}

func TestGenerateServiceFailureIsWrapped(t *testing.T) {
	gen := &fakeGenerator{
		copyFn: func(genai.CopyRequest) (string, error) { return "", errors.New("gemini status 503") },
	}
	_, err := newTestPipeline(gen).Generate(context.Background(), Input{ProductText: "camera", Format: domain.FormatBanner})
	if !errors.Is(err, domain.ErrService) {
		t.Fatalf("Generate() error = %v, want ErrService", err)
	}
	if msg := UserMessage(err); !strings.Contains(msg, "temporary issue") {
		t.Errorf("UserMessage() = %q, want a transient-sounding message", msg)
	}
}

func TestGenerateProductOnlyScenario(t *testing.T) {
	gen := &fakeGenerator{}
	out, err := newTestPipeline(gen).Generate(context.Background(), Input{
		ProductText: "New 8-channel CCTV, night vision, ₹4999",
		Format:      domain.FormatInstagramPost,
	})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if gen.copyCalls != 1 || gen.imageCalls != 1 || gen.editCalls != 0 {
		t.Fatalf("calls = (%d copy, %d image, %d edit), want (1, 1, 0)", gen.copyCalls, gen.imageCalls, gen.editCalls)
	}
	if gen.lastImageReq.AspectRatio != "1:1" {
		t.Errorf("aspect ratio = %q, want 1:1", gen.lastImageReq.AspectRatio)
	}
	if out.Copy.CTA == "" {
		t.Error("CTA should be non-empty for a product promotion")
	}
	if !strings.HasPrefix(out.VisualURL, "data:image/jpeg;base64,") {
		t.Errorf("VisualURL = %q, want a jpeg data URL", out.VisualURL)
	}
}

func TestGenerateOccasionOnlyScenario(t *testing.T) {
	gen := &fakeGenerator{
		copyFn: func(genai.CopyRequest) (string, error) {
			return `{"headline":"H","subtext":"S","CTA":"","layout_description":"Diya lamps","festival_theme":"Saffron and gold"}`, nil
		},
	}
	out, err := newTestPipeline(gen).Generate(context.Background(), Input{
		Occasion: "Diwali",
		Format:   domain.FormatBanner,
	})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if !strings.Contains(gen.lastCopyReq.Prompt, "Diwali") {
		t.Error("copy prompt should carry the occasion")
	}
	if gen.lastImageReq.AspectRatio != "16:9" {
		t.Errorf("aspect ratio = %q, want 16:9", gen.lastImageReq.AspectRatio)
	}
	if out.Copy.FestivalTheme == "" {
		t.Error("festival theme should be non-empty for occasion creatives")
	}
}

func TestGenerateReferenceImageScenario(t *testing.T) {
	gen := &fakeGenerator{}
	out, err := newTestPipeline(gen).Generate(context.Background(), Input{
		Image:     bytes.NewReader(pngHeader),
		ImageMIME: "image/png",
		Format:    domain.FormatBrochure,
	})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if gen.imageCalls != 0 || gen.editCalls != 1 {
		t.Fatalf("calls = (%d image, %d edit), want (0, 1)", gen.imageCalls, gen.editCalls)
	}
	if gen.lastCopyReq.Image == nil {
		t.Error("copy call should attach the reference image as auxiliary context")
	}
	if gen.lastEditReq.Image.MIME != "image/png" {
		t.Errorf("edit image MIME = %q, want image/png", gen.lastEditReq.Image.MIME)
	}
	decoded, err := dataurl.DecodeString(out.VisualURL)
	if err != nil {
		t.Fatalf("VisualURL is not a data URL: %v", err)
	}
	if decoded.ContentType() != "image/png" {
		t.Errorf("visual MIME = %q, want the edited image's image/png", decoded.ContentType())
	}
}
