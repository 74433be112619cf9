package upload

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"shopflow/internal/common"
	"shopflow/internal/retry"
)

// PublicLinkBase is the stable dereference form for an uploaded object.
const PublicLinkBase = "https://drive.google.com/uc?id="

// PublicLink derives the public link from an assigned object ID.
func PublicLink(objectID string) string {
	return PublicLinkBase + objectID
}

// Uploader pushes image bytes to blob storage with bounded retries and
// returns a stable public link. Each attempt uploads a fresh body; a prior
// attempt that partially succeeded remotely can leave a stray object behind,
// which is why successful object IDs are logged even when the permission
// step fails.
type Uploader struct {
	store    BlobStore
	folderID string
	policy   retry.Policy
	timeout  time.Duration
	logger   *slog.Logger
}

func NewUploader(store BlobStore, folderID string, policy retry.Policy, timeout time.Duration, logger *slog.Logger) *Uploader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Uploader{
		store:    store,
		folderID: folderID,
		policy:   policy,
		timeout:  timeout,
		logger:   logger,
	}
}

// Upload stores data under name in the destination folder, makes it public,
// and returns the public link. Transient failures are retried with the
// configured backoff; exhaustion surfaces ErrUploadExhausted.
func (u *Uploader) Upload(ctx context.Context, data []byte, name string) (string, error) {
	var link string

	err := u.policy.Do(ctx, func(attempt int) error {
		cctx, cancel := context.WithTimeout(ctx, u.timeout)
		defer cancel()

		objectID, err := u.store.CreateFile(cctx, name, u.folderID, data)
		if err != nil {
			u.logger.Warn("uploader.create_failed", "name", name, "attempt", attempt, "error", err)
			return err
		}
		if err := u.store.SetPublicReadPermission(cctx, objectID); err != nil {
			u.logger.Warn("uploader.permission_failed", "name", name, "object_id", objectID, "attempt", attempt, "error", err)
			return err
		}
		link = PublicLink(objectID)
		u.logger.Info("uploader.uploaded", "name", name, "object_id", objectID, "attempt", attempt)
		return nil
	}, common.IsTransient)

	if err != nil {
		if common.IsTransient(err) {
			return "", fmt.Errorf("%w: %s: %v", common.ErrUploadExhausted, name, err)
		}
		return "", common.WrapError(err, fmt.Sprintf("upload %s", name))
	}
	return link, nil
}
