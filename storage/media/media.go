package media

import (
	"context"

	"github.com/indieinfra/cloudshelf/media"
)

// Asset is what the media host hands back for a stored file.
type Asset struct {
	// URL is the public, hosted location of the asset.
	URL string
	// ID is the host-assigned identifier used to delete the asset later.
	ID string
}

type MediaStore interface {
	// function Upload forwards the staged file to the media host as the given kind and returns
	// the hosted URL and identifier. The staged file is left in place; its owner removes it.
	Upload(ctx context.Context, file *media.UploadedFile, kind media.Kind) (*Asset, error)

	// function Delete removes the asset identified by id. Deleting an asset that no longer
	// exists is not an error.
	Delete(ctx context.Context, id string, kind media.Kind) error
}
