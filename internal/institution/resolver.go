// Package institution maps tenant identifiers to their on-disk layout:
//
//	<root>/<institutionId>/<resource>.json
//	<root>/<institutionId>/media/<filename>
package institution

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// MediaDirName is the per-institution attachment subdirectory.
const MediaDirName = "media"

var (
	ErrInvalidID       = errors.New("invalid institution id")
	ErrInvalidFilename = errors.New("invalid filename")
)

// Resolver builds institution-scoped paths under Root.
type Resolver struct {
	Root string
}

func NewResolver(root string) *Resolver {
	return &Resolver{Root: root}
}

// ValidateID rejects identifiers that would escape the data root when joined.
func ValidateID(id string) error {
	if !safeName(id) {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

// ValidateFilename applies the same rule to media filenames.
func ValidateFilename(name string) error {
	if !safeName(name) {
		return fmt.Errorf("%w: %q", ErrInvalidFilename, name)
	}
	return nil
}

func safeName(s string) bool {
	if s == "" || s == "." || s == ".." || strings.HasPrefix(s, ".") {
		return false
	}
	return !strings.ContainsAny(s, `/\`+"\x00")
}

// Dir returns the institution root directory.
func (r *Resolver) Dir(id string) string {
	return filepath.Join(r.Root, id)
}

// File returns the JSON document path for a resource kind.
func (r *Resolver) File(id, resource string) string {
	return filepath.Join(r.Dir(id), resource+".json")
}

// MediaDir returns the attachment directory for an institution.
func (r *Resolver) MediaDir(id string) string {
	return filepath.Join(r.Dir(id), MediaDirName)
}

// MediaFile returns the path of one stored attachment.
func (r *Resolver) MediaFile(id, filename string) string {
	return filepath.Join(r.MediaDir(id), filename)
}

// List returns every institution directory under Root, sorted by name.
// A missing root yields an empty list.
func (r *Resolver) List() ([]string, error) {
	entries, err := os.ReadDir(r.Root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list institutions: %w", err)
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() && safeName(e.Name()) {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}
