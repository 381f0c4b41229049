package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/facilitydesk/facilitydesk/internal/institution"
	"github.com/gabriel-vasile/mimetype"
)

// LocalStorage keeps attachments in <root>/<institution>/media.
type LocalStorage struct {
	paths *institution.Resolver
}

func NewLocalStorage(paths *institution.Resolver) *LocalStorage {
	return &LocalStorage{paths: paths}
}

func (l *LocalStorage) Save(_ context.Context, institutionID, filename string, r io.Reader, _ int64, _ string) error {
	dir := l.paths.MediaDir(institutionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create media dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("write media: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), l.paths.MediaFile(institutionID, filename))
}

func (l *LocalStorage) Open(_ context.Context, institutionID, filename string) (*Object, error) {
	p := l.paths.MediaFile(institutionID, filename)
	f, err := os.Open(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil || st.IsDir() {
		f.Close()
		return nil, ErrNotFound
	}
	ctype := "application/octet-stream"
	if m, err := mimetype.DetectFile(p); err == nil {
		ctype = m.String()
	}
	return &Object{ReadCloser: f, Size: st.Size(), ContentType: ctype, ModTime: st.ModTime()}, nil
}

func (l *LocalStorage) Remove(_ context.Context, institutionID, filename string) error {
	err := os.Remove(l.paths.MediaFile(institutionID, filename))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (l *LocalStorage) List(_ context.Context, institutionID string) ([]string, error) {
	entries, err := os.ReadDir(l.paths.MediaDir(institutionID))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.Type().IsRegular() && institution.ValidateFilename(e.Name()) == nil {
			out = append(out, e.Name())
		}
	}
	return out, nil
}
