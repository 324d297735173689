package upload

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"time"

	"github.com/indieinfra/cloudshelf/media"
	"github.com/indieinfra/cloudshelf/server/handler/common"
	"github.com/indieinfra/cloudshelf/server/resp"
	"github.com/indieinfra/cloudshelf/server/state"
	"github.com/indieinfra/cloudshelf/server/util"
	mediastore "github.com/indieinfra/cloudshelf/storage/media"
	"github.com/indieinfra/cloudshelf/storage/record"
)

// multipartOverhead is the slack allowed on top of the file size limit for
// boundaries, part headers and small form fields.
const multipartOverhead = 1 << 20

const compensationTimeout = 30 * time.Second

type endpoint struct {
	kind    media.Kind
	field   string
	success string
	failure string
}

var (
	imageEndpoint = endpoint{
		kind:    media.KindImage,
		field:   "file",
		success: "Image uploaded successfully!",
		failure: "Error uploading image",
	}
	videoEndpoint = endpoint{
		kind:    media.KindVideo,
		field:   "video",
		success: "Video uploaded successfully!",
		failure: "Error uploading video",
	}
)

func HandleImageUpload(st *state.CloudshelfState) http.HandlerFunc {
	return handleUpload(st, imageEndpoint)
}

func HandleVideoUpload(st *state.CloudshelfState) http.HandlerFunc {
	return handleUpload(st, videoEndpoint)
}

func handleUpload(st *state.CloudshelfState, ep endpoint) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		asset, err := process(st, ep, w, r)
		common.ObserveUpload(ep.kind, common.Outcome(err))
		if err != nil {
			common.LogAndWriteError(w, r, ep.kind, ep.failure, err)
			return
		}

		resp.WriteUploaded(w, ep.success, asset.URL)
	}
}

// process validates, stages and forwards one upload, then records it. When
// the record cannot be written the hosted asset is deleted again.
func process(st *state.CloudshelfState, ep endpoint, w http.ResponseWriter, r *http.Request) (*mediastore.Asset, error) {
	rl := util.LoggerFor(r, st.Logger)
	limits := st.Cfg.Server.Limits

	form, err := util.ParseMultipart(w, r, int64(limits.MaxMultipartMem), int64(limits.MaxFileSize)+multipartOverhead)
	if err != nil {
		if errors.Is(err, util.ErrBodyTooLarge) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", common.ErrMissingFile, err)
	}
	defer form.Cleanup()

	fh := form.FileByKey(ep.field)
	if fh == nil {
		return nil, fmt.Errorf("%w: expected form field %q", common.ErrMissingFile, ep.field)
	}

	contentType, err := st.Validator.Validate(media.DetectContentType(fh), fh.Size, ep.kind)
	if err != nil {
		return nil, err
	}

	rl.Debugw("upload received", "filename", fh.Filename, "content_type", contentType, "size", fh.Size)

	path, err := util.StageFile(fh, st.Cfg.Server.ScratchDir)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			rl.Warnw("failed to remove scratch file", "path", path, "error", err)
		}
	}()

	file := &media.UploadedFile{
		Filename:    fh.Filename,
		ContentType: contentType,
		Path:        path,
		Size:        fh.Size,
	}

	asset, err := st.MediaStore.Upload(r.Context(), file, ep.kind)
	if err != nil {
		return nil, fmt.Errorf("media upload: %w", err)
	}

	rec := &record.Record{ExternalID: asset.ID, Name: fh.Filename, URL: asset.URL}
	if err := st.RecordStore.Insert(r.Context(), ep.kind, rec); err != nil {
		compensate(r.Context(), st, ep.kind, asset, rl)
		return nil, fmt.Errorf("record insert: %w", err)
	}

	rl.Infow("upload stored", "kind", ep.kind, "id", rec.ID, "external_id", rec.ExternalID)
	return asset, nil
}

func compensate(ctx context.Context, st *state.CloudshelfState, kind media.Kind, asset *mediastore.Asset, rl *util.RequestLogger) {
	// Runs even if the client has gone away.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	if err := st.MediaStore.Delete(ctx, asset.ID, kind); err != nil {
		common.ObserveCompensation(kind, common.OutcomeFailed)
		rl.Errorw("compensating media delete failed, asset is orphaned", "kind", kind, "external_id", asset.ID, "error", err)
		return
	}

	common.ObserveCompensation(kind, common.OutcomeSuccess)
	rl.Warnw("record insert failed, media asset removed", "kind", kind, "external_id", asset.ID)
}
