package remove

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/indieinfra/cloudshelf/media"
	"github.com/indieinfra/cloudshelf/server/handler/common"
	"github.com/indieinfra/cloudshelf/server/resp"
	"github.com/indieinfra/cloudshelf/server/state"
	"github.com/indieinfra/cloudshelf/server/util"
	"github.com/indieinfra/cloudshelf/storage/record"
)

type target struct {
	kind    media.Kind
	success string
	failure string

	// find resolves the id from the query string to a record.
	find func(ctx context.Context, rs record.RecordStore, id string) (*record.Record, error)
	// drop removes the record once its asset is gone.
	drop func(ctx context.Context, rs record.RecordStore, rec *record.Record) error
}

var (
	imageTarget = target{
		kind:    media.KindImage,
		success: "Image deleted successfully",
		failure: "Error deleting image",
		find: func(ctx context.Context, rs record.RecordStore, id string) (*record.Record, error) {
			return rs.FindByID(ctx, media.KindImage, id)
		},
		drop: func(ctx context.Context, rs record.RecordStore, rec *record.Record) error {
			return rs.DeleteByID(ctx, media.KindImage, rec.ID)
		},
	}
	videoTarget = target{
		kind:    media.KindVideo,
		success: "Video deleted successfully",
		failure: "Error deleting video",
		find: func(ctx context.Context, rs record.RecordStore, id string) (*record.Record, error) {
			return rs.FindByExternalID(ctx, media.KindVideo, id)
		},
		drop: func(ctx context.Context, rs record.RecordStore, rec *record.Record) error {
			return rs.DeleteByExternalID(ctx, media.KindVideo, rec.ExternalID)
		},
	}
)

// HandleImageDelete removes an image addressed by its local id.
func HandleImageDelete(st *state.CloudshelfState) http.HandlerFunc {
	return handleDelete(st, imageTarget)
}

// HandleVideoDelete removes a video addressed by its media host id.
func HandleVideoDelete(st *state.CloudshelfState) http.HandlerFunc {
	return handleDelete(st, videoTarget)
}

func handleDelete(st *state.CloudshelfState, t target) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := remove(st, t, r)
		common.ObserveDelete(t.kind, common.Outcome(err))
		if err != nil {
			common.LogAndWriteError(w, r, t.kind, t.failure, err)
			return
		}

		resp.WriteMessage(w, t.success)
	}
}

// remove deletes the hosted asset first and the record second, so a failed
// remote delete leaves the record in place.
func remove(st *state.CloudshelfState, t target, r *http.Request) error {
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		return common.ErrMissingID
	}

	ctx := r.Context()
	rec, err := t.find(ctx, st.RecordStore, id)
	if err != nil {
		return err
	}

	if err := st.MediaStore.Delete(ctx, assetKey(rec), t.kind); err != nil {
		return fmt.Errorf("media delete: %w", err)
	}

	if err := t.drop(ctx, st.RecordStore, rec); err != nil {
		if errors.Is(err, record.ErrNotFound) {
			// Lost a race with another delete; the outcome is the same.
			util.LoggerFor(r, st.Logger).Infow("record already removed", "kind", t.kind, "id", rec.ID)
			return nil
		}
		return fmt.Errorf("record delete: %w", err)
	}

	return nil
}

// assetKey is the media host id for rec. Records written before the id was
// stored only carry the file name.
func assetKey(rec *record.Record) string {
	if rec.ExternalID != "" {
		return rec.ExternalID
	}
	return rec.Name
}
