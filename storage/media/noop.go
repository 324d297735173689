package media

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/indieinfra/cloudshelf/media"
)

// NoopMediaStore accepts every upload without storing anything. It is useful
// for local development against a real record store.
type NoopMediaStore struct{}

func (ms *NoopMediaStore) Upload(ctx context.Context, file *media.UploadedFile, kind media.Kind) (*Asset, error) {
	zap.S().Infow("no-op media upload",
		"filename", file.Filename,
		"content_type", file.ContentType,
		"size", file.Size,
		"kind", kind,
	)

	id := uuid.New().String()
	return &Asset{
		URL: fmt.Sprintf("https://noop.example.org/%s/%s", kind, id),
		ID:  id,
	}, nil
}

func (ms *NoopMediaStore) Delete(ctx context.Context, id string, kind media.Kind) error {
	zap.S().Infow("no-op media delete", "id", id, "kind", kind)
	return nil
}
