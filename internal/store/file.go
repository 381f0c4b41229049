package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/facilitydesk/facilitydesk/internal/institution"
)

// FileBackend keeps each collection in <root>/<institution>/<kind>.json.
type FileBackend struct {
	paths *institution.Resolver
}

func NewFileBackend(paths *institution.Resolver) *FileBackend {
	return &FileBackend{paths: paths}
}

func (f *FileBackend) Read(_ context.Context, institutionID string, kind Kind) ([]byte, error) {
	b, err := os.ReadFile(f.paths.File(institutionID, string(kind)))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotExist
	}
	return b, err
}

// Write replaces the file via a temp file and rename so readers never see a
// partially written document. The institution directory is created on demand.
func (f *FileBackend) Write(_ context.Context, institutionID string, kind Kind, data []byte) error {
	dir := f.paths.Dir(institutionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create institution dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+string(kind)+"-*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), f.paths.File(institutionID, string(kind))); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}

func (f *FileBackend) ModTime(_ context.Context, institutionID string, kind Kind) (time.Time, error) {
	fi, err := os.Stat(f.paths.File(institutionID, string(kind)))
	if errors.Is(err, os.ErrNotExist) {
		return time.Time{}, ErrNotExist
	}
	if err != nil {
		return time.Time{}, err
	}
	return fi.ModTime(), nil
}

func (f *FileBackend) Institutions(_ context.Context) ([]string, error) {
	return f.paths.List()
}
