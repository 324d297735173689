package integration

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"testing"

	"go.uber.org/zap"

	"github.com/indieinfra/cloudshelf/config"
	"github.com/indieinfra/cloudshelf/media"
	"github.com/indieinfra/cloudshelf/server"
	"github.com/indieinfra/cloudshelf/server/resp"
	"github.com/indieinfra/cloudshelf/server/state"
	mediastore "github.com/indieinfra/cloudshelf/storage/media"
	"github.com/indieinfra/cloudshelf/storage/record"
)

var (
	jpegData = append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, []byte("fake image data")...)
	mp4Data  = append([]byte{0x00, 0x00, 0x00, 0x20, 0x66, 0x74, 0x79, 0x70}, []byte("isomfake video data")...)
)

func baseConfig(tb testing.TB) *config.Config {
	tb.Helper()

	return &config.Config{
		Server: config.Server{
			ScratchDir: tb.TempDir(),
			Limits:     config.ServerLimits{MaxFileSize: 1 << 20, MaxMultipartMem: 1 << 20},
			Cors:       config.Cors{AllowedOrigins: []string{"*"}},
		},
	}
}

func newRouter(cfg *config.Config, ms mediastore.MediaStore, rs record.RecordStore) http.Handler {
	return server.NewRouter(&state.CloudshelfState{
		Cfg:         cfg,
		Validator:   media.NewValidator(int64(cfg.Server.Limits.MaxFileSize)),
		MediaStore:  ms,
		RecordStore: rs,
		Logger:      zap.NewNop().Sugar(),
	})
}

func uploadRequest(t *testing.T, target, field, filename, contentType string, data []byte) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)

	part, err := writer.CreatePart(h)
	if err != nil {
		t.Fatal(err)
	}
	part.Write(data)
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, target, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func do(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func mustUpload(t *testing.T, h http.Handler, req *http.Request) string {
	t.Helper()

	rec := do(h, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body resp.MessageResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}
	if body.URL == "" {
		t.Fatalf("expected url in upload response")
	}

	return body.URL
}

func mustList(t *testing.T, h http.Handler, target string) []record.Record {
	t.Helper()

	rec := do(h, httptest.NewRequest(http.MethodGet, target, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 listing %s, got %d: %s", target, rec.Code, rec.Body.String())
	}

	var records []record.Record
	if err := json.Unmarshal(rec.Body.Bytes(), &records); err != nil {
		t.Fatalf("decode list: %v", err)
	}

	return records
}

func deleteRequest(target, id string) *http.Request {
	return httptest.NewRequest(http.MethodDelete, target+"?id="+url.QueryEscape(id), nil)
}
