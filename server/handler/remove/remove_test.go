package remove

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/indieinfra/cloudshelf/config"
	"github.com/indieinfra/cloudshelf/media"
	"github.com/indieinfra/cloudshelf/server/resp"
	"github.com/indieinfra/cloudshelf/server/state"
	mediastore "github.com/indieinfra/cloudshelf/storage/media"
	"github.com/indieinfra/cloudshelf/storage/record"
)

type deleteCall struct {
	id   string
	kind media.Kind
}

type stubMediaStore struct {
	deleteErr error
	deletes   []deleteCall
}

func (s *stubMediaStore) Upload(context.Context, *media.UploadedFile, media.Kind) (*mediastore.Asset, error) {
	return nil, errors.New("not used")
}

func (s *stubMediaStore) Delete(ctx context.Context, id string, kind media.Kind) error {
	s.deletes = append(s.deletes, deleteCall{id: id, kind: kind})
	return s.deleteErr
}

type stickyRecordStore struct {
	*record.MemoryRecordStore
	deleteErr error
}

func (s *stickyRecordStore) DeleteByID(context.Context, media.Kind, string) error {
	return s.deleteErr
}

func (s *stickyRecordStore) DeleteByExternalID(context.Context, media.Kind, string) error {
	return s.deleteErr
}

func newState(ms mediastore.MediaStore, rs record.RecordStore) *state.CloudshelfState {
	return &state.CloudshelfState{
		Cfg:         &config.Config{},
		MediaStore:  ms,
		RecordStore: rs,
		Logger:      zap.NewNop().Sugar(),
	}
}

func seed(t *testing.T, rs record.RecordStore, kind media.Kind, rec *record.Record) *record.Record {
	t.Helper()
	require.NoError(t, rs.Insert(context.Background(), kind, rec))
	return rec
}

func message(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()

	var body resp.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body.Message
}

func TestImageDelete_Success(t *testing.T) {
	ms := &stubMediaStore{}
	rs := record.NewMemoryRecordStore()
	rec := seed(t, rs, media.KindImage, &record.Record{ExternalID: "shelf/photo", Name: "photo.png"})

	rr := httptest.NewRecorder()
	HandleImageDelete(newState(ms, rs))(rr, httptest.NewRequest(http.MethodDelete, "/delete?id="+rec.ID, nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"message":"Image deleted successfully"}`, rr.Body.String())
	assert.Equal(t, []deleteCall{{id: "shelf/photo", kind: media.KindImage}}, ms.deletes)

	_, err := rs.FindByID(context.Background(), media.KindImage, rec.ID)
	assert.ErrorIs(t, err, record.ErrNotFound)
}

func TestImageDelete_LegacyRecordUsesName(t *testing.T) {
	ms := &stubMediaStore{}
	rs := record.NewMemoryRecordStore()
	rec := seed(t, rs, media.KindImage, &record.Record{Name: "legacy.png"})

	rr := httptest.NewRecorder()
	HandleImageDelete(newState(ms, rs))(rr, httptest.NewRequest(http.MethodDelete, "/delete?id="+rec.ID, nil))

	require.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, ms.deletes, 1)
	assert.Equal(t, "legacy.png", ms.deletes[0].id)
}

func TestDelete_MissingID(t *testing.T) {
	for _, h := range []func(*state.CloudshelfState) http.HandlerFunc{HandleImageDelete, HandleVideoDelete} {
		ms := &stubMediaStore{}
		rr := httptest.NewRecorder()
		h(newState(ms, record.NewMemoryRecordStore()))(rr, httptest.NewRequest(http.MethodDelete, "/delete", nil))

		require.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "{\"message\":\"ID is required\"}\n", rr.Body.String())
		assert.Empty(t, ms.deletes)
	}
}

func TestDelete_NotFoundLeavesStoreUnchanged(t *testing.T) {
	ms := &stubMediaStore{}
	rs := record.NewMemoryRecordStore()
	seed(t, rs, media.KindImage, &record.Record{ExternalID: "keep", Name: "keep.png"})

	rr := httptest.NewRecorder()
	HandleImageDelete(newState(ms, rs))(rr, httptest.NewRequest(http.MethodDelete, "/delete?id=missing", nil))

	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Image not found", message(t, rr))
	assert.Empty(t, ms.deletes)

	records, _ := rs.FindAll(context.Background(), media.KindImage)
	assert.Len(t, records, 1)

	rr = httptest.NewRecorder()
	HandleVideoDelete(newState(ms, rs))(rr, httptest.NewRequest(http.MethodDelete, "/deletevid?id=missing", nil))
	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Video not found", message(t, rr))
}

func TestDelete_MediaFailureKeepsRecord(t *testing.T) {
	ms := &stubMediaStore{deleteErr: errors.New("cloud unavailable")}
	rs := record.NewMemoryRecordStore()
	rec := seed(t, rs, media.KindImage, &record.Record{ExternalID: "shelf/photo", Name: "photo.png"})

	rr := httptest.NewRecorder()
	HandleImageDelete(newState(ms, rs))(rr, httptest.NewRequest(http.MethodDelete, "/delete?id="+rec.ID, nil))

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "Error deleting image", message(t, rr))

	_, err := rs.FindByID(context.Background(), media.KindImage, rec.ID)
	assert.NoError(t, err, "record must survive a failed remote delete")
}

func TestVideoDelete_ByExternalIDRemovesOnlyThatRecord(t *testing.T) {
	ms := &stubMediaStore{}
	rs := record.NewMemoryRecordStore()
	seed(t, rs, media.KindVideo, &record.Record{ExternalID: "shelf/one", Name: "one.mp4"})
	seed(t, rs, media.KindVideo, &record.Record{ExternalID: "shelf/two", Name: "two.mp4"})

	rr := httptest.NewRecorder()
	HandleVideoDelete(newState(ms, rs))(rr, httptest.NewRequest(http.MethodDelete, "/deletevid?id=shelf/one", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"message":"Video deleted successfully"}`, rr.Body.String())
	assert.Equal(t, []deleteCall{{id: "shelf/one", kind: media.KindVideo}}, ms.deletes)

	records, _ := rs.FindAll(context.Background(), media.KindVideo)
	require.Len(t, records, 1)
	assert.Equal(t, "shelf/two", records[0].ExternalID)
}

func TestVideoDelete_LocalIDIsNotAKey(t *testing.T) {
	ms := &stubMediaStore{}
	rs := record.NewMemoryRecordStore()
	rec := seed(t, rs, media.KindVideo, &record.Record{ExternalID: "shelf/one", Name: "one.mp4"})

	rr := httptest.NewRecorder()
	HandleVideoDelete(newState(ms, rs))(rr, httptest.NewRequest(http.MethodDelete, "/deletevid?id="+rec.ID, nil))

	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.Empty(t, ms.deletes)
}

func TestDelete_RecordRemovalFailure(t *testing.T) {
	ms := &stubMediaStore{}
	rs := &stickyRecordStore{MemoryRecordStore: record.NewMemoryRecordStore(), deleteErr: errors.New("write conflict")}
	rec := seed(t, rs, media.KindVideo, &record.Record{ExternalID: "shelf/one", Name: "one.mp4"})

	rr := httptest.NewRecorder()
	HandleVideoDelete(newState(ms, rs))(rr, httptest.NewRequest(http.MethodDelete, "/deletevid?id="+rec.ExternalID, nil))

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "Error deleting video", message(t, rr))
}

func TestDelete_ConcurrentRemovalIsSuccess(t *testing.T) {
	ms := &stubMediaStore{}
	rs := &stickyRecordStore{MemoryRecordStore: record.NewMemoryRecordStore(), deleteErr: record.ErrNotFound}
	rec := seed(t, rs, media.KindImage, &record.Record{ExternalID: "shelf/photo", Name: "photo.png"})

	rr := httptest.NewRecorder()
	HandleImageDelete(newState(ms, rs))(rr, httptest.NewRequest(http.MethodDelete, "/delete?id="+rec.ID, nil))

	assert.Equal(t, http.StatusOK, rr.Code)
}
