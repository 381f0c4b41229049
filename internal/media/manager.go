package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/facilitydesk/facilitydesk/internal/institution"
	"github.com/facilitydesk/facilitydesk/internal/store"
	"github.com/facilitydesk/facilitydesk/pkg/logger"
	"github.com/facilitydesk/facilitydesk/pkg/metrics"
	"github.com/gabriel-vasile/mimetype"
)

const (
	defaultItemID    = "media"
	defaultExtension = ".jpg"
	sniffLen         = 512
)

// Upload describes one incoming attachment.
type Upload struct {
	ItemID       string
	OriginalName string
	ContentType  string
	Size         int64
	Body         io.Reader
}

// Manager validates uploads, names them and garbage-collects orphans.
type Manager struct {
	storage  Storage
	store    *store.Store
	maxBytes int64
	allowed  []string
	now      func() time.Time
}

func NewManager(storage Storage, s *store.Store, maxBytes int64, allowedPrefixes []string) *Manager {
	return &Manager{
		storage:  storage,
		store:    s,
		maxBytes: maxBytes,
		allowed:  allowedPrefixes,
		now:      time.Now,
	}
}

// MaxBytes is the configured upload ceiling.
func (m *Manager) MaxBytes() int64 { return m.maxBytes }

// Upload stores the attachment as <itemId>_<unixMillis><ext> and returns
// that filename.
func (m *Manager) Upload(ctx context.Context, institutionID string, up Upload) (string, error) {
	if err := institution.ValidateID(institutionID); err != nil {
		return "", err
	}
	if up.Size > m.maxBytes {
		return "", ErrPayloadTooLarge
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(up.Body, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]

	ctype := strings.TrimSpace(up.ContentType)
	if ctype == "" || strings.HasPrefix(ctype, "application/octet-stream") {
		ctype = mimetype.Detect(head).String()
	}
	if !m.accepts(ctype) {
		metrics.MediaUploads.WithLabelValues("rejected").Inc()
		return "", fmt.Errorf("%w: %s", ErrUnsupportedMediaType, ctype)
	}

	itemID := up.ItemID
	if itemID == "" {
		itemID = defaultItemID
	}
	ext := filepath.Ext(up.OriginalName)
	if ext == "" {
		ext = defaultExtension
	}
	filename := fmt.Sprintf("%s_%d%s", itemID, m.now().UnixMilli(), ext)
	if err := institution.ValidateFilename(filename); err != nil {
		return "", err
	}

	body := io.LimitReader(io.MultiReader(bytes.NewReader(head), up.Body), m.maxBytes)
	if err := m.storage.Save(ctx, institutionID, filename, body, up.Size, ctype); err != nil {
		metrics.MediaUploads.WithLabelValues("error").Inc()
		return "", fmt.Errorf("save media: %w", err)
	}
	metrics.MediaUploads.WithLabelValues("stored").Inc()
	logger.Debugf("media: stored %s/%s (%s)", institutionID, filename, ctype)
	return filename, nil
}

func (m *Manager) accepts(ctype string) bool {
	for _, p := range m.allowed {
		if strings.HasPrefix(ctype, p) {
			return true
		}
	}
	return false
}

// Open returns the stored attachment or ErrNotFound.
func (m *Manager) Open(ctx context.Context, institutionID, filename string) (*Object, error) {
	if err := validate(institutionID, filename); err != nil {
		return nil, err
	}
	return m.storage.Open(ctx, institutionID, filename)
}

// Delete removes the attachment; an absent attachment is not an error.
func (m *Manager) Delete(ctx context.Context, institutionID, filename string) error {
	if err := validate(institutionID, filename); err != nil {
		return err
	}
	return m.storage.Remove(ctx, institutionID, filename)
}

func validate(institutionID, filename string) error {
	if err := institution.ValidateID(institutionID); err != nil {
		return err
	}
	return institution.ValidateFilename(filename)
}

// CleanupOrphans removes every stored attachment whose filename is not the
// last path segment of some mediaUris entry in the open or completed
// collection. It returns the number removed.
func (m *Manager) CleanupOrphans(ctx context.Context, institutionID string) (int, error) {
	referenced := map[string]struct{}{}
	for _, kind := range []store.Kind{store.KindOpen, store.KindCompleted} {
		items, err := m.store.Load(ctx, institutionID, kind)
		if err != nil {
			return 0, err
		}
		for _, it := range items {
			for _, uri := range it.Strings("mediaUris") {
				referenced[filenameOf(uri)] = struct{}{}
			}
		}
	}

	files, err := m.storage.List(ctx, institutionID)
	if err != nil {
		return 0, fmt.Errorf("list media: %w", err)
	}
	removed := 0
	for _, f := range files {
		if _, ok := referenced[f]; ok {
			continue
		}
		if err := m.storage.Remove(ctx, institutionID, f); err != nil {
			logger.Errorf("media: remove orphan %s/%s: %v", institutionID, f, err)
			continue
		}
		removed++
	}
	if removed > 0 {
		metrics.OrphansRemoved.Add(float64(removed))
		logger.Infof("media: removed %d orphaned attachment(s) for %s", removed, institutionID)
	}
	return removed, nil
}

func filenameOf(uri string) string {
	p := uri
	if u, err := url.Parse(uri); err == nil {
		p = u.Path
	}
	return path.Base(p)
}

// URL builds the public address of an attachment under base.
func URL(base, institutionID, filename string) string {
	return strings.TrimRight(base, "/") + "/institutions/" + url.PathEscape(institutionID) + "/media/" + url.PathEscape(filename)
}
