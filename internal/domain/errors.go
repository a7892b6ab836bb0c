package domain

import "errors"

// Pipeline error taxonomy. Handlers translate each kind into a single
// human-readable message; none of them are retried automatically.
var (
	ErrValidation        = errors.New("validation failed")
	ErrEncoding          = errors.New("image encoding failed")
	ErrMalformedResponse = errors.New("malformed model response")
	ErrGenerationRefused = errors.New("generation refused")
	ErrService           = errors.New("service failure")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrNotFound          = errors.New("not found")
)
