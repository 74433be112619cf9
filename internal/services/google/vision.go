package google

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"

	"google.golang.org/api/option"
	vision "google.golang.org/api/vision/v1"
)

// OCRClient adapts the Cloud Vision API to the pipeline's TextDetector
// boundary. Document text detection is used rather than plain text detection:
// printed item numbers on box backs are dense small print.
type OCRClient struct {
	svc    *vision.Service
	logger *slog.Logger
}

func NewOCRClient(ctx context.Context, credentialsFile string, logger *slog.Logger) (*OCRClient, error) {
	if logger == nil {
		logger = slog.Default()
	}
	svc, err := vision.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(vision.CloudPlatformScope),
	)
	if err != nil {
		return nil, fmt.Errorf("create vision service: %w", err)
	}
	return &OCRClient{svc: svc, logger: logger}, nil
}

// DetectText runs document text detection over one image and returns the
// full recognized text.
func (c *OCRClient) DetectText(ctx context.Context, image []byte) (string, error) {
	req := &vision.BatchAnnotateImagesRequest{
		Requests: []*vision.AnnotateImageRequest{{
			Image:    &vision.Image{Content: base64.StdEncoding.EncodeToString(image)},
			Features: []*vision.Feature{{Type: "DOCUMENT_TEXT_DETECTION"}},
		}},
	}
	resp, err := c.svc.Images.Annotate(req).Context(ctx).Do()
	if err != nil {
		return "", classify(err)
	}
	if len(resp.Responses) == 0 {
		return "", fmt.Errorf("vision returned no responses")
	}
	r := resp.Responses[0]
	if r.Error != nil {
		// Image-level error from the service: the image was received but
		// could not be processed. Not retryable.
		return "", fmt.Errorf("vision rejected image: %s", r.Error.Message)
	}
	if r.FullTextAnnotation == nil {
		return "", nil
	}
	c.logger.Debug("vision.detected", "text_bytes", len(r.FullTextAnnotation.Text))
	return r.FullTextAnnotation.Text, nil
}
