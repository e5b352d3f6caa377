package storage

import (
	"context"
)

// FileStorage keeps clinic media in an object store and hands out public URLs.
type FileStorage interface {
	// UploadImage stores an image under folder and returns its public URL.
	UploadImage(ctx context.Context, folder string, data []byte, filename string) (string, error)

	DeleteFile(ctx context.Context, fileURL string) error
}
