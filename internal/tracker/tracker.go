// Package tracker records when each institution's request collections were
// last written so polling clients can detect change cheaply.
package tracker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/facilitydesk/facilitydesk/internal/store"
	"github.com/facilitydesk/facilitydesk/pkg/logger"
)

// ISOLayout matches the millisecond UTC form clients parse.
const ISOLayout = "2006-01-02T15:04:05.000Z07:00"

// Tracker stores the last-update time per institution.
type Tracker interface {
	// RecordUpdate sets the institution's last update to now.
	RecordUpdate(ctx context.Context, institutionID string) error
	// LastUpdate returns the recorded time; ok is false when nothing was recorded.
	LastUpdate(ctx context.Context, institutionID string) (t time.Time, ok bool, err error)
	// Observe raises the recorded time to t if t is later or nothing is recorded.
	Observe(ctx context.Context, institutionID string, t time.Time) error
}

// Memory is a process-local Tracker. Its contents are lost on restart.
type Memory struct {
	mu   sync.RWMutex
	last map[string]time.Time
	now  func() time.Time
}

func NewMemory() *Memory {
	return &Memory{last: make(map[string]time.Time), now: time.Now}
}

func (m *Memory) RecordUpdate(_ context.Context, institutionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last[institutionID] = m.now().UTC()
	return nil
}

func (m *Memory) LastUpdate(_ context.Context, institutionID string) (time.Time, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.last[institutionID]
	return t, ok, nil
}

func (m *Memory) Observe(_ context.Context, institutionID string, t time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.last[institutionID]; !ok || t.After(cur) {
		m.last[institutionID] = t.UTC()
	}
	return nil
}

// Source is what Seed needs from the store.
type Source interface {
	Institutions(ctx context.Context) ([]string, error)
	ModTime(ctx context.Context, institutionID string, kind store.Kind) (time.Time, error)
}

// Seed initializes every known institution with the newest modification time
// of its open and completed collections. Institutions with neither file are
// left unrecorded.
func Seed(ctx context.Context, tr Tracker, src Source) (int, error) {
	ids, err := src.Institutions(ctx)
	if err != nil {
		return 0, err
	}
	seeded := 0
	for _, id := range ids {
		var newest time.Time
		for _, kind := range []store.Kind{store.KindOpen, store.KindCompleted} {
			mt, err := src.ModTime(ctx, id, kind)
			if errors.Is(err, store.ErrNotExist) {
				continue
			}
			if err != nil {
				logger.Warnf("tracker: stat %s/%s: %v", id, kind, err)
				continue
			}
			if mt.After(newest) {
				newest = mt
			}
		}
		if newest.IsZero() {
			continue
		}
		if err := tr.Observe(ctx, id, newest); err != nil {
			return seeded, err
		}
		seeded++
	}
	return seeded, nil
}
