// Package media describes the kinds of media the service accepts and the
// rules an upload has to pass before it is forwarded anywhere.
package media

import "strings"

// Kind is the resource type of an asset on the media host.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

// MaxFileSize is the default upload ceiling (100 MiB).
const MaxFileSize int64 = 100 << 20

// allowedTypes lists every accepted MIME type and the kind it belongs to.
var allowedTypes = map[string]Kind{
	"image/jpeg": KindImage,
	"image/jpg":  KindImage,
	"image/webp": KindImage,
	"image/png":  KindImage,
	"video/mp4":  KindVideo,
}

func (k Kind) String() string { return string(k) }

// Title returns the kind for use at the start of a client-facing message.
func (k Kind) Title() string {
	if k == "" {
		return ""
	}
	return strings.ToUpper(string(k[:1])) + string(k[1:])
}

// UploadedFile is a file that has been staged in scratch storage and is ready
// to be forwarded to a media store.
type UploadedFile struct {
	Filename    string
	ContentType string
	Path        string
	Size        int64
}
