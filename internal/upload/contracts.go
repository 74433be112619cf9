package upload

import "context"

// BlobStore is the boundary to the external blob-storage collaborator.
// CreateFile uploads a complete object (no resumption of partial uploads);
// SetPublicReadPermission makes an object publicly dereferenceable.
type BlobStore interface {
	CreateFile(ctx context.Context, name, parentFolderID string, data []byte) (objectID string, err error)
	SetPublicReadPermission(ctx context.Context, objectID string) error
}
