package ports

import (
	"context"
	"io"
)

// UploadInput describes a single media upload.
type UploadInput struct {
	Folder   string
	Filename string
	Body     io.Reader
}

// UploadedMedia is the stored asset as reported by the media host.
type UploadedMedia struct {
	PublicID string
	URL      string
}

// MediaUploader stores images on the third-party media host.
type MediaUploader interface {
	Upload(ctx context.Context, in UploadInput) (UploadedMedia, error)
	Delete(ctx context.Context, publicID string) error
}

// Notification is a plain-text message to lab staff.
type Notification struct {
	Subject string
	Body    string
	ReplyTo string
}

// Notifier delivers staff notifications (e.g. new contact messages).
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}
