// Package store persists institution collections as whole JSON documents.
// Every mutation rewrites the full collection; there is no locking, so two
// concurrent read-modify-write sequences on the same institution and kind
// race and the last writer wins.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/facilitydesk/facilitydesk/internal/institution"
	"github.com/facilitydesk/facilitydesk/internal/models"
	"github.com/facilitydesk/facilitydesk/pkg/logger"
	"github.com/facilitydesk/facilitydesk/pkg/metrics"
)

// Kind names one of the per-institution collections.
type Kind string

const (
	KindOpen      Kind = "maintenance_requests"
	KindCompleted Kind = "completed_maintenance_requests"
	KindWorkers   Kind = "workers"
	KindCities    Kind = "cities"
)

// Kinds lists every collection kind.
var Kinds = []Kind{KindOpen, KindCompleted, KindWorkers, KindCities}

// Tracked reports whether writes to this kind bump the institution's
// last-update time. Roster and reference data do not.
func (k Kind) Tracked() bool {
	return k == KindOpen || k == KindCompleted
}

// ErrNotExist is returned by a Backend when the collection was never written.
var ErrNotExist = errors.New("collection does not exist")

// Backend stores raw collection documents.
type Backend interface {
	Read(ctx context.Context, institutionID string, kind Kind) ([]byte, error)
	Write(ctx context.Context, institutionID string, kind Kind, data []byte) error
	ModTime(ctx context.Context, institutionID string, kind Kind) (time.Time, error)
	Institutions(ctx context.Context) ([]string, error)
}

// Recorder is notified after a successful write to a tracked kind.
type Recorder interface {
	RecordUpdate(ctx context.Context, institutionID string) error
}

// Store loads and saves collections over a Backend.
type Store struct {
	backend  Backend
	recorder Recorder
}

func New(b Backend, rec Recorder) *Store {
	return &Store{backend: b, recorder: rec}
}

// Institutions lists every institution known to the backend.
func (s *Store) Institutions(ctx context.Context) ([]string, error) {
	return s.backend.Institutions(ctx)
}

// ModTime returns the last write time of a collection, or ErrNotExist.
func (s *Store) ModTime(ctx context.Context, institutionID string, kind Kind) (time.Time, error) {
	return s.backend.ModTime(ctx, institutionID, kind)
}

// Load returns the collection. A missing document is an empty collection. A
// document that does not parse as a JSON array is reset to "[]" and also
// returned as empty; the parse failure is logged, never propagated.
func (s *Store) Load(ctx context.Context, institutionID string, kind Kind) ([]models.Record, error) {
	if err := institution.ValidateID(institutionID); err != nil {
		return nil, err
	}
	data, err := s.backend.Read(ctx, institutionID, kind)
	if errors.Is(err, ErrNotExist) {
		return []models.Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s/%s: %w", institutionID, kind, err)
	}
	records, perr := decodeCollection(data)
	if perr != nil {
		return s.recoverCorrupt(ctx, institutionID, kind, perr), nil
	}
	return records, nil
}

func decodeCollection(data []byte) ([]models.Record, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []models.Record{}, nil
	}
	var records []models.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	if records == nil {
		records = []models.Record{}
	}
	return records, nil
}

// recoverCorrupt is the self-healing policy for unparsable documents: the
// stored content is discarded and replaced by an empty array.
func (s *Store) recoverCorrupt(ctx context.Context, institutionID string, kind Kind, cause error) []models.Record {
	logger.Warnf("store: %s/%s is not a JSON array (%v); resetting to []", institutionID, kind, cause)
	metrics.StorageRecoveries.WithLabelValues(string(kind)).Inc()
	if err := s.backend.Write(ctx, institutionID, kind, []byte("[]")); err != nil {
		logger.Errorf("store: reset %s/%s failed: %v", institutionID, kind, err)
	}
	return []models.Record{}
}

// Save overwrites the collection and, for tracked kinds, records the update.
func (s *Store) Save(ctx context.Context, institutionID string, kind Kind, records []models.Record) error {
	if err := institution.ValidateID(institutionID); err != nil {
		return err
	}
	if records == nil {
		records = []models.Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", institutionID, kind, err)
	}
	if err := s.backend.Write(ctx, institutionID, kind, data); err != nil {
		return fmt.Errorf("write %s/%s: %w", institutionID, kind, err)
	}
	if kind.Tracked() && s.recorder != nil {
		if err := s.recorder.RecordUpdate(ctx, institutionID); err != nil {
			logger.Warnf("store: record update for %s failed: %v", institutionID, err)
		}
	}
	return nil
}
