package media

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http/httptest"
	"net/textproto"
	"testing"
)

func TestValidate_AllowedTypes(t *testing.T) {
	v := NewValidator(0)

	cases := []struct {
		contentType string
		kind        Kind
	}{
		{"image/jpeg", KindImage},
		{"image/jpg", KindImage},
		{"image/webp", KindImage},
		{"image/png", KindImage},
		{"IMAGE/PNG", KindImage},
		{"video/mp4", KindVideo},
		{"video/mp4; codecs=avc1", KindVideo},
	}

	for _, tc := range cases {
		if _, err := v.Validate(tc.contentType, 2<<20, tc.kind); err != nil {
			t.Fatalf("expected %q to be accepted, got %v", tc.contentType, err)
		}
	}
}

func TestValidate_RejectsUnsupportedTypes(t *testing.T) {
	v := NewValidator(0)

	for _, ct := range []string{"image/gif", "video/quicktime", "application/pdf", "text/plain", ""} {
		_, err := v.Validate(ct, 10, "")
		if !errors.Is(err, ErrUnsupportedMediaType) {
			t.Fatalf("expected unsupported media type for %q, got %v", ct, err)
		}
	}
}

func TestValidate_RejectsKindMismatch(t *testing.T) {
	v := NewValidator(0)

	if _, err := v.Validate("video/mp4", 10, KindImage); !errors.Is(err, ErrUnsupportedMediaType) {
		t.Fatalf("expected video on image endpoint to be rejected, got %v", err)
	}
	if _, err := v.Validate("image/png", 10, KindVideo); !errors.Is(err, ErrUnsupportedMediaType) {
		t.Fatalf("expected image on video endpoint to be rejected, got %v", err)
	}
}

func TestValidate_SizeLimit(t *testing.T) {
	v := NewValidator(0)

	if v.MaxSize != 100<<20 {
		t.Fatalf("expected default limit of 100 MiB, got %d", v.MaxSize)
	}

	if _, err := v.Validate("image/png", MaxFileSize, KindImage); err != nil {
		t.Fatalf("expected file at the limit to pass, got %v", err)
	}

	if _, err := v.Validate("image/png", MaxFileSize+1, KindImage); !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("expected payload too large, got %v", err)
	}
}

func TestKindTitle(t *testing.T) {
	if KindImage.Title() != "Image" || KindVideo.Title() != "Video" {
		t.Fatalf("unexpected titles %q %q", KindImage.Title(), KindVideo.Title())
	}
	if Kind("").Title() != "" {
		t.Fatalf("empty kind should have empty title")
	}
}

func fileHeader(t *testing.T, filename, contentType string, data []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}

	part, err := w.CreatePart(h)
	if err != nil {
		t.Fatal(err)
	}
	part.Write(data)
	w.Close()

	req := httptest.NewRequest("POST", "/", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if err := req.ParseMultipartForm(1 << 20); err != nil {
		t.Fatalf("parse multipart: %v", err)
	}

	return req.MultipartForm.File["file"][0]
}

func TestDetectContentType(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

	t.Run("declared type wins", func(t *testing.T) {
		fh := fileHeader(t, "photo.png", "image/webp", png)
		if got := DetectContentType(fh); got != "image/webp" {
			t.Fatalf("expected declared type, got %q", got)
		}
	})

	t.Run("sniffs octet-stream", func(t *testing.T) {
		fh := fileHeader(t, "blob", "application/octet-stream", png)
		if got := DetectContentType(fh); got != "image/png" {
			t.Fatalf("expected sniffed png, got %q", got)
		}
	})

	t.Run("falls back to extension", func(t *testing.T) {
		fh := fileHeader(t, "photo.jpg", "", []byte{0x00, 0x01, 0x02, 0xfe})
		if got := DetectContentType(fh); got != "image/jpeg" {
			t.Fatalf("expected type from extension, got %q", got)
		}
	})
}
