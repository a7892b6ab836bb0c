package creative

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/vincent-petithory/dataurl"

	"creativelab/internal/domain"
	"creativelab/internal/infra"
	"creativelab/internal/providers/genai"
)

// Generator is the slice of the Gemini client the pipeline depends on.
type Generator interface {
	GenerateCopy(ctx context.Context, req genai.CopyRequest) (string, error)
	GenerateImage(ctx context.Context, req genai.ImageRequest) ([]genai.InlineImage, error)
	EditImage(ctx context.Context, req genai.EditRequest) (*genai.InlineImage, error)
}

// state tracks where a single generation run is in its lifecycle. Failed is
// absorbing: once entered, the run only reports its error.
type state string

const (
	stateIdle             state = "idle"
	stateGeneratingCopy   state = "generating_copy"
	stateGeneratingVisual state = "generating_visual"
	stateDone             state = "done"
	stateFailed           state = "failed"
)

const (
	msgMalformedCopy   = "Could not generate creative data. The AI returned an invalid format."
	msgNoImages        = "The image generator returned no images. This may be due to safety policies (e.g., prompts with real names) or if the prompt is unclear. Please try modifying your request."
	msgNoEditedImage   = "The image editor returned no image. The model might have refused the prompt. Please try a different instruction."
	msgGenerateService = "Image generation failed due to a service error. This could be a temporary issue. Please try again."
	msgEditService     = "Image editing failed due to a service error. This could be a temporary issue. Please try again."
	msgCopyService     = "Creative copy generation failed due to a service error. This could be a temporary issue. Please try again."
)

// Pipeline composes the two-stage generation round-trip: structured copy
// first, then either image generation or image editing depending on whether a
// reference image was supplied. Each run's working data is local to the
// invocation; the Gemini client handle is the only shared resource and is
// safe to reuse across calls.
type Pipeline struct {
	gen     Generator
	prompts PromptBuilder
	logger  infra.Logger
}

// NewPipeline wires a pipeline over the given generator.
func NewPipeline(gen Generator, prompts PromptBuilder, logger infra.Logger) *Pipeline {
	return &Pipeline{gen: gen, prompts: prompts, logger: logger}
}

// Generate runs one creative request through normalization, prompt building,
// and the two external calls. It returns a complete output or a taxonomy
// error; partial output is never returned and nothing is retried.
func (p *Pipeline) Generate(ctx context.Context, in Input) (*domain.CreativeOutput, error) {
	requestID := uuid.NewString()
	st := stateIdle

	req, err := normalize(in)
	if err != nil {
		return nil, p.fail(requestID, st, err)
	}

	st = stateGeneratingCopy
	copyPrompt := p.prompts.CopyPrompt(req.ProductText, req.Occasion, req.Format, req.Image != nil)
	raw, err := p.gen.GenerateCopy(ctx, genai.CopyRequest{
		Prompt:    copyPrompt,
		Image:     req.Image,
		RequestID: requestID,
	})
	if err != nil {
		return nil, p.fail(requestID, st, newError(domain.ErrService, msgCopyService, err))
	}

	copy, err := parseCopy(raw)
	if err != nil {
		return nil, p.fail(requestID, st, newError(domain.ErrMalformedResponse, msgMalformedCopy, err))
	}

	st = stateGeneratingVisual
	var visual *genai.InlineImage
	if req.Image != nil {
		visual, err = p.editVisual(ctx, requestID, copy, *req.Image)
	} else {
		visual, err = p.generateVisual(ctx, requestID, copy, req.Format)
	}
	if err != nil {
		return nil, p.fail(requestID, st, err)
	}

	st = stateDone
	out := &domain.CreativeOutput{
		Copy:      copy,
		VisualURL: dataurl.New(visual.Data, visual.MIME).String(),
	}
	p.logger.Info().
		Str("request_id", requestID).
		Str("format", string(req.Format)).
		Bool("edited", req.Image != nil).
		Str("state", string(st)).
		Msg("creative: generated")
	return out, nil
}

func (p *Pipeline) generateVisual(ctx context.Context, requestID string, copy domain.CreativeCopy, format domain.CreativeFormat) (*genai.InlineImage, error) {
	images, err := p.gen.GenerateImage(ctx, genai.ImageRequest{
		Prompt:      p.prompts.ImagePrompt(copy, format),
		AspectRatio: domain.AspectRatioFor(format),
		RequestID:   requestID,
	})
	if err != nil {
		return nil, newError(domain.ErrService, msgGenerateService, err)
	}
	if len(images) == 0 {
		return nil, newError(domain.ErrGenerationRefused, msgNoImages, nil)
	}
	return &images[0], nil
}

func (p *Pipeline) editVisual(ctx context.Context, requestID string, copy domain.CreativeCopy, image genai.InlineImage) (*genai.InlineImage, error) {
	edited, err := p.gen.EditImage(ctx, genai.EditRequest{
		Prompt:    p.prompts.EditPrompt(copy),
		Image:     image,
		RequestID: requestID,
	})
	if err != nil {
		return nil, newError(domain.ErrService, msgEditService, err)
	}
	if edited == nil {
		return nil, newError(domain.ErrGenerationRefused, msgNoEditedImage, nil)
	}
	return edited, nil
}

func (p *Pipeline) fail(requestID string, st state, err error) error {
	p.logger.Warn().
		Err(err).
		Str("request_id", requestID).
		Str("state", string(stateFailed)).
		Str("from", string(st)).
		Msg("creative: generation failed")
	return err
}

// parseCopy decodes the model's JSON payload into the copy contract. The
// schema constraint makes well-formed output the common case, but the text is
// still untrusted.
func parseCopy(raw string) (domain.CreativeCopy, error) {
	var copy domain.CreativeCopy
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &copy); err != nil {
		return domain.CreativeCopy{}, err
	}
	return copy, nil
}
