package common

import (
	"errors"
	"net/http"

	"github.com/indieinfra/cloudshelf/media"
	"github.com/indieinfra/cloudshelf/server/resp"
	"github.com/indieinfra/cloudshelf/server/util"
	"github.com/indieinfra/cloudshelf/storage/record"
)

var (
	ErrMissingFile = errors.New("no file uploaded")
	ErrMissingID   = errors.New("ID is required")
)

// LogAndWriteError logs an error with request context and maps known conditions to client responses.
// failure is the message used when nothing more specific applies.
func LogAndWriteError(w http.ResponseWriter, r *http.Request, kind media.Kind, failure string, err error) {
	rl := util.LoggerFor(r, nil)

	switch {
	case errors.Is(err, ErrMissingID):
		rl.Warnw("rejected request", "kind", kind, "error", err)
		resp.WriteBadRequest(w, "ID is required")
	case errors.Is(err, ErrMissingFile):
		rl.Warnw("rejected request", "kind", kind, "error", err)
		resp.WriteBadRequest(w, "No file uploaded")
	case errors.Is(err, media.ErrUnsupportedMediaType):
		rl.Warnw("rejected upload", "kind", kind, "error", err)
		resp.WriteUnsupportedMediaType(w, "Unsupported file type", err.Error())
	case errors.Is(err, media.ErrPayloadTooLarge), errors.Is(err, util.ErrBodyTooLarge):
		rl.Warnw("rejected upload", "kind", kind, "error", err)
		resp.WritePayloadTooLarge(w, "File too large", err.Error())
	case errors.Is(err, record.ErrNotFound):
		rl.Infow("record not found", "kind", kind)
		resp.WriteNotFound(w, kind.Title()+" not found")
	default:
		rl.Errorw(failure, "kind", kind, "error", err)
		resp.WriteInternalServerError(w, failure, err.Error())
	}
}

// Outcome classifies err for the upload and delete counters.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, ErrMissingID),
		errors.Is(err, ErrMissingFile),
		errors.Is(err, media.ErrUnsupportedMediaType),
		errors.Is(err, media.ErrPayloadTooLarge),
		errors.Is(err, util.ErrBodyTooLarge),
		errors.Is(err, record.ErrNotFound):
		return OutcomeRejected
	default:
		return OutcomeFailed
	}
}
