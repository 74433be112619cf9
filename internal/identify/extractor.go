package identify

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"shopflow/internal/common"
	"shopflow/internal/media"
	"shopflow/internal/watch"
)

// Extractor turns a batch into an Identifier by OCRing the designated back
// slot image. No filesystem mutation happens in this stage.
type Extractor struct {
	detector TextDetector
	reader   *media.Reader
	logger   *slog.Logger
	timeout  time.Duration
}

func NewExtractor(detector TextDetector, reader *media.Reader, timeout time.Duration, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		detector: detector,
		reader:   reader,
		logger:   logger,
		timeout:  timeout,
	}
}

// Identify OCRs the batch's back image and parses the first identifier out
// of the recognized text.
//
// ErrNoIdentifier covers the unmatched cases: grammar miss, empty OCR text,
// the OCR service rejecting the image, or the image being unreadable.
// Transient transport failures (network, timeout) propagate as-is so the
// driver retains the batch for a later cycle instead of quarantining it.
func (x *Extractor) Identify(ctx context.Context, batch *watch.Batch) (Identifier, error) {
	back := batch.Back()

	data, _, err := x.reader.ReadImage(ctx, back.Path)
	if err != nil {
		x.logger.Warn("extractor.unreadable_image", "batch", batch.ID, "path", back.Path, "error", err)
		return Identifier{}, errors.Join(common.ErrNoIdentifier, err)
	}

	cctx, cancel := context.WithTimeout(ctx, x.timeout)
	defer cancel()

	text, err := x.detector.DetectText(cctx, data)
	if err != nil {
		if common.IsTransient(err) {
			return Identifier{}, err
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return Identifier{}, common.Transient(err)
		}
		x.logger.Warn("extractor.ocr_rejected", "batch", batch.ID, "path", back.Path, "error", err)
		return Identifier{}, errors.Join(common.ErrNoIdentifier, err)
	}

	id, ok := ParseIdentifier(text)
	if !ok {
		x.logger.Info("extractor.no_match", "batch", batch.ID, "path", back.Path, "text_bytes", len(text))
		return Identifier{}, common.ErrNoIdentifier
	}
	x.logger.Info("extractor.identified", "batch", batch.ID, "identifier", id.Canonical())
	return id, nil
}
