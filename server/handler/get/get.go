package get

import (
	"net/http"

	"github.com/indieinfra/cloudshelf/media"
	"github.com/indieinfra/cloudshelf/server/handler/common"
	"github.com/indieinfra/cloudshelf/server/resp"
	"github.com/indieinfra/cloudshelf/server/state"
)

func HandleListImages(st *state.CloudshelfState) http.HandlerFunc {
	return handleList(st, media.KindImage, "Error fetching photos")
}

func HandleListVideos(st *state.CloudshelfState) http.HandlerFunc {
	return handleList(st, media.KindVideo, "Error fetching videos")
}

func handleList(st *state.CloudshelfState, kind media.Kind, failure string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := st.RecordStore.FindAll(r.Context(), kind)
		if err != nil {
			common.LogAndWriteError(w, r, kind, failure, err)
			return
		}

		resp.WriteOK(w, records)
	}
}

// HandleHealth reports liveness only; it does not probe the stores.
func HandleHealth(w http.ResponseWriter, r *http.Request) {
	resp.WriteOK(w, map[string]string{"status": "ok"})
}
