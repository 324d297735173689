package get

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
	"github.com/indieinfra/cloudshelf/storage/record"
)

type brokenRecordStore struct {
	*record.MemoryRecordStore
}

func (brokenRecordStore) FindAll(context.Context, media.Kind) ([]*record.Record, error) {
	return nil, errors.New("connection refused")
}

func newState(rs record.RecordStore) *state.CloudshelfState {
	return &state.CloudshelfState{
		Cfg:         &config.Config{},
		RecordStore: rs,
		Logger:      zap.NewNop().Sugar(),
	}
}

func TestListImages_Empty(t *testing.T) {
	rr := httptest.NewRecorder()
	HandleListImages(newState(record.NewMemoryRecordStore()))(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())
}

func TestListImages_InsertionOrderAndStable(t *testing.T) {
	rs := record.NewMemoryRecordStore()
	ctx := context.Background()
	for _, name := range []string{"a.png", "b.png", "c.png"} {
		require.NoError(t, rs.Insert(ctx, media.KindImage, &record.Record{ExternalID: "ext-" + name, Name: name, URL: "https://cdn.test/" + name}))
	}
	require.NoError(t, rs.Insert(ctx, media.KindVideo, &record.Record{ExternalID: "v", Name: "clip.mp4"}))

	handler := HandleListImages(newState(rs))

	first := httptest.NewRecorder()
	handler(first, httptest.NewRequest(http.MethodGet, "/", nil))
	second := httptest.NewRecorder()
	handler(second, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, first.Body.String(), second.Body.String(), "repeated listings must be identical")

	var records []map[string]any
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &records))
	require.Len(t, records, 3)
	assert.Equal(t, "a.png", records[0]["name"])
	assert.Equal(t, "c.png", records[2]["name"])
	assert.Equal(t, "https://cdn.test/a.png", records[0]["url"])
	assert.NotEmpty(t, records[0]["_id"])
	assert.Equal(t, "ext-a.png", records[0]["public_id"])
}

func TestListVideos(t *testing.T) {
	rs := record.NewMemoryRecordStore()
	require.NoError(t, rs.Insert(context.Background(), media.KindVideo, &record.Record{ExternalID: "shelf/clip", Name: "clip.mp4", URL: "https://cdn.test/clip.mp4"}))

	rr := httptest.NewRecorder()
	HandleListVideos(newState(rs))(rr, httptest.NewRequest(http.MethodGet, "/getvideo", nil))

	require.Equal(t, http.StatusOK, rr.Code)

	var records []record.Record
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "shelf/clip", records[0].ExternalID)
}

func TestList_StoreFailure(t *testing.T) {
	cases := []struct {
		handler func(*state.CloudshelfState) http.HandlerFunc
		message string
	}{
		{HandleListImages, "Error fetching photos"},
		{HandleListVideos, "Error fetching videos"},
	}

	for _, tc := range cases {
		rr := httptest.NewRecorder()
		tc.handler(newState(brokenRecordStore{record.NewMemoryRecordStore()}))(rr, httptest.NewRequest(http.MethodGet, "/", nil))

		require.Equal(t, http.StatusInternalServerError, rr.Code)

		var body resp.ErrorResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, tc.message, body.Message)
		assert.Contains(t, body.Error, "connection refused")
	}
}

func TestHealth(t *testing.T) {
	rr := httptest.NewRecorder()
	HandleHealth(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}
