package creative

import (
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"creativelab/internal/domain"
	"creativelab/internal/providers/genai"
)

// Input is one generation submission as received from the HTTP layer. Image
// is optional; ImageMIME is the MIME type the upload declared, which may be
// empty or unreliable.
type Input struct {
	ProductText string
	Occasion    string
	Format      domain.CreativeFormat
	Image       io.Reader
	ImageMIME   string
}

// request is the normalized, transport-ready form of an Input. It is local to
// one pipeline invocation and never retained.
type request struct {
	ProductText string
	Occasion    string
	Format      domain.CreativeFormat
	Image       *genai.InlineImage
}

// normalize validates the submission and converts an uploaded image into an
// inline payload with an explicit MIME type. It performs no side effects
// beyond reading the file.
func normalize(in Input) (*request, error) {
	req := &request{
		ProductText: strings.TrimSpace(in.ProductText),
		Occasion:    strings.TrimSpace(in.Occasion),
		Format:      in.Format,
	}

	if in.Image != nil {
		data, err := io.ReadAll(in.Image)
		if err != nil {
			return nil, newError(domain.ErrEncoding, "Could not read the reference image. Please try a different file.", err)
		}
		if len(data) == 0 {
			return nil, newError(domain.ErrEncoding, "The reference image is empty. Please try a different file.", nil)
		}
		req.Image = &genai.InlineImage{MIME: imageMIME(in.ImageMIME, data), Data: data}
	}

	if req.ProductText == "" && req.Occasion == "" && req.Image == nil {
		return nil, newError(domain.ErrValidation, "Please provide product information, an occasion, or a reference image.", nil)
	}

	return req, nil
}

// imageMIME prefers the declared content type and falls back to sniffing the
// bytes when the upload declared nothing useful.
func imageMIME(declared string, data []byte) string {
	declared = strings.TrimSpace(strings.ToLower(declared))
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	return mimetype.Detect(data).String()
}
