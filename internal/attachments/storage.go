package attachments

import "context"

// ObjectStorage stores and serves binary files by path. Put returns the
// public URL the stored object is reachable at.
type ObjectStorage interface {
	Put(ctx context.Context, path string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, path string) error
}
