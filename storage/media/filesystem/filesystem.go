package filesystem

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/indieinfra/cloudshelf/config"
	"github.com/indieinfra/cloudshelf/media"
	mediastore "github.com/indieinfra/cloudshelf/storage/media"
	storageutil "github.com/indieinfra/cloudshelf/storage/util"
)

// StoreImpl stores uploaded media files in a local directory served from publicURL.
type StoreImpl struct {
	basePath  string
	publicURL string
	pattern   *storageutil.PathPattern
	mu        sync.RWMutex
}

// NewFilesystemMediaStore creates a new filesystem-based media store.
func NewFilesystemMediaStore(cfg *config.FilesystemMediaStrategy) (*StoreImpl, error) {
	if cfg == nil {
		return nil, fmt.Errorf("filesystem media config is nil")
	}

	if err := os.MkdirAll(cfg.Path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	pattern := storageutil.DefaultMediaPattern()
	if cfg.PathPattern != "" {
		pattern = storageutil.NewPathPattern(cfg.PathPattern)
	}

	return &StoreImpl{
		basePath:  cfg.Path,
		publicURL: storageutil.NormalizeBaseURL(cfg.PublicUrl),
		pattern:   pattern,
	}, nil
}

// Upload copies the staged file below the base path. The relative path doubles
// as the asset id.
func (fs *StoreImpl) Upload(ctx context.Context, file *media.UploadedFile, kind media.Kind) (*mediastore.Asset, error) {
	if file == nil || file.Path == "" {
		return nil, fmt.Errorf("staged file is required")
	}

	src, err := os.Open(file.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open staged file: %w", err)
	}
	defer src.Close()

	relPath, err := fs.pattern.Generate(kind.String(), storageutil.NewObjectName(file.Filename, file.ContentType), time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to generate path: %w", err)
	}

	absPath, err := fs.resolve(relPath)
	if err != nil {
		return nil, err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	// O_EXCL keeps a colliding name from overwriting an existing asset.
	outFile, err := os.OpenFile(absPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer outFile.Close()

	if _, err := io.Copy(outFile, src); err != nil {
		_ = os.Remove(absPath)
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	return &mediastore.Asset{URL: fs.publicURL + relPath, ID: relPath}, nil
}

// Delete removes a media file. Missing files are treated as already deleted.
func (fs *StoreImpl) Delete(ctx context.Context, id string, kind media.Kind) error {
	relPath := strings.TrimPrefix(id, fs.publicURL)
	absPath, err := fs.resolve(relPath)
	if err != nil {
		return err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err := os.Remove(absPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove file: %w", err)
	}

	return nil
}

// resolve maps a slash-separated key onto a path that stays inside basePath.
func (fs *StoreImpl) resolve(relPath string) (string, error) {
	clean := filepath.FromSlash(strings.TrimPrefix(relPath, "/"))
	if clean == "" || !filepath.IsLocal(clean) {
		return "", fmt.Errorf("invalid media path %q", relPath)
	}

	return filepath.Join(fs.basePath, clean), nil
}
