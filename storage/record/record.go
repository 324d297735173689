package record

import (
	"context"
	"errors"
	"time"

	"github.com/indieinfra/cloudshelf/media"
)

// ErrNotFound indicates that no record matched the lookup.
var ErrNotFound = errors.New("record not found")

// Record is the metadata kept for one hosted asset. Images and videos share
// the shape and live in separate collections.
type Record struct {
	ID         string    `json:"_id"`
	ExternalID string    `json:"public_id,omitempty"`
	Name       string    `json:"name"`
	URL        string    `json:"url"`
	CreatedAt  time.Time `json:"createdAt"`
}

type RecordStore interface {
	// function Insert stores rec in the collection for kind. The store assigns rec.ID and, when
	// unset, rec.CreatedAt.
	Insert(ctx context.Context, kind media.Kind, rec *Record) error

	// function FindAll returns every record of the kind in insertion order. The slice is never
	// nil, but may be empty.
	FindAll(ctx context.Context, kind media.Kind) ([]*Record, error)

	// function FindByID returns the record with the given local id, or ErrNotFound.
	FindByID(ctx context.Context, kind media.Kind, id string) (*Record, error)

	// function FindByExternalID returns the record holding the media host's id, or ErrNotFound.
	FindByExternalID(ctx context.Context, kind media.Kind, externalID string) (*Record, error)

	// function DeleteByID removes the record with the given local id, or returns ErrNotFound.
	DeleteByID(ctx context.Context, kind media.Kind, id string) error

	// function DeleteByExternalID removes the record holding the media host's id, or returns
	// ErrNotFound.
	DeleteByExternalID(ctx context.Context, kind media.Kind, externalID string) error
}
