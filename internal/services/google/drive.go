package google

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// DriveClient adapts the Google Drive API to the pipeline's BlobStore
// boundary.
type DriveClient struct {
	svc    *drive.Service
	logger *slog.Logger
}

func NewDriveClient(ctx context.Context, credentialsFile string, logger *slog.Logger) (*DriveClient, error) {
	if logger == nil {
		logger = slog.Default()
	}
	svc, err := drive.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(drive.DriveScope),
	)
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	return &DriveClient{svc: svc, logger: logger}, nil
}

// CreateFile uploads a complete object into the parent folder and returns
// the assigned object ID.
func (c *DriveClient) CreateFile(ctx context.Context, name, parentFolderID string, data []byte) (string, error) {
	meta := &drive.File{
		Name:    name,
		Parents: []string{parentFolderID},
	}
	f, err := c.svc.Files.Create(meta).
		Media(bytes.NewReader(data)).
		Fields("id").
		Context(ctx).
		Do()
	if err != nil {
		return "", classify(err)
	}
	c.logger.Debug("drive.created", "name", name, "object_id", f.Id)
	return f.Id, nil
}

// SetPublicReadPermission grants anyone-with-the-link read access, which is
// what makes the uc?id= form dereferenceable from the sheet.
func (c *DriveClient) SetPublicReadPermission(ctx context.Context, objectID string) error {
	perm := &drive.Permission{
		Type: "anyone",
		Role: "reader",
	}
	if _, err := c.svc.Permissions.Create(objectID, perm).Context(ctx).Do(); err != nil {
		return classify(err)
	}
	return nil
}
