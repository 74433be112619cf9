package identify

import "context"

// TextDetector is the OCR collaborator boundary: image bytes in, recognized
// text out. Service-level failures (quota, network, timeout) come back as
// errors; an image with no recognizable text is an empty string and nil error.
type TextDetector interface {
	DetectText(ctx context.Context, image []byte) (string, error)
}
