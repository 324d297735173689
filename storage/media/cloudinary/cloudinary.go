package cloudinary

import (
	"context"
	"errors"
	"fmt"
	"strings"

	cloudinarygo "github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"github.com/indieinfra/cloudshelf/config"
	"github.com/indieinfra/cloudshelf/media"
	mediastore "github.com/indieinfra/cloudshelf/storage/media"
)

// uploadAPI is the subset of the Cloudinary upload API the store relies on.
type uploadAPI interface {
	Upload(ctx context.Context, file interface{}, uploadParams uploader.UploadParams) (*uploader.UploadResult, error)
	Destroy(ctx context.Context, params uploader.DestroyParams) (*uploader.DestroyResult, error)
}

var newUploadAPI = func(cfg *config.CloudinaryMediaStrategy) (uploadAPI, error) {
	cld, err := cloudinarygo.NewFromParams(cfg.CloudName, cfg.ApiKey, cfg.ApiSecret)
	if err != nil {
		return nil, err
	}

	return &cld.Upload, nil
}

// StoreImpl forwards staged files to a Cloudinary account.
type StoreImpl struct {
	api    uploadAPI
	folder string
}

func NewCloudinaryMediaStore(cfg *config.Media) (*StoreImpl, error) {
	if cfg == nil || cfg.Cloudinary == nil {
		return nil, fmt.Errorf("cloudinary media config is nil")
	}

	api, err := newUploadAPI(cfg.Cloudinary)
	if err != nil {
		return nil, fmt.Errorf("failed to create cloudinary client: %w", err)
	}

	return &StoreImpl{
		api:    api,
		folder: strings.Trim(cfg.Cloudinary.Folder, "/"),
	}, nil
}

func (s *StoreImpl) Upload(ctx context.Context, file *media.UploadedFile, kind media.Kind) (*mediastore.Asset, error) {
	if file == nil || file.Path == "" {
		return nil, fmt.Errorf("staged file is required")
	}

	res, err := s.api.Upload(ctx, file.Path, uploader.UploadParams{
		ResourceType: kind.String(),
		Folder:       s.folder,
	})
	if err != nil {
		return nil, fmt.Errorf("upload to cloudinary failed: %w", err)
	}

	if res == nil {
		return nil, errors.New("upload to cloudinary failed: empty response")
	}

	if res.Error.Message != "" {
		return nil, fmt.Errorf("upload to cloudinary failed: %s", res.Error.Message)
	}

	url := res.SecureURL
	if url == "" {
		url = res.URL
	}

	if url == "" || res.PublicID == "" {
		return nil, errors.New("upload to cloudinary failed: response missing url or public id")
	}

	return &mediastore.Asset{URL: url, ID: res.PublicID}, nil
}

// Delete destroys the asset. A "not found" result counts as success so that a
// record whose asset vanished can still be removed.
func (s *StoreImpl) Delete(ctx context.Context, id string, kind media.Kind) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("public id is required")
	}

	res, err := s.api.Destroy(ctx, uploader.DestroyParams{
		PublicID:     id,
		ResourceType: kind.String(),
	})
	if err != nil {
		return fmt.Errorf("delete from cloudinary failed: %w", err)
	}

	if res == nil {
		return errors.New("delete from cloudinary failed: empty response")
	}

	if res.Error.Message != "" {
		return fmt.Errorf("delete from cloudinary failed: %s", res.Error.Message)
	}

	switch res.Result {
	case "ok", "not found":
		return nil
	default:
		return fmt.Errorf("delete from cloudinary failed: result %q", res.Result)
	}
}
