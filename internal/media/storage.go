// Package media stores request attachments per institution and removes the
// ones no request references any more.
package media

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	ErrNotFound             = errors.New("media not found")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrPayloadTooLarge      = errors.New("media exceeds size limit")
)

// Object is an opened attachment. Callers must Close it.
type Object struct {
	io.ReadCloser
	Size        int64
	ContentType string
	ModTime     time.Time
}

// Storage is where attachment bytes live.
type Storage interface {
	Save(ctx context.Context, institutionID, filename string, r io.Reader, size int64, contentType string) error
	// Open returns ErrNotFound when the attachment is absent.
	Open(ctx context.Context, institutionID, filename string) (*Object, error)
	// Remove succeeds when the attachment is already absent.
	Remove(ctx context.Context, institutionID, filename string) error
	List(ctx context.Context, institutionID string) ([]string, error)
}
