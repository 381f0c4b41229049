// Package requests implements the maintenance request lifecycle: submission,
// moving items between the open and completed sets, and field-level edits.
package requests

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/facilitydesk/facilitydesk/internal/models"
	"github.com/facilitydesk/facilitydesk/internal/store"
)

var (
	ErrNotFound = errors.New("request not found")
)

// Set selects the open or completed collection.
type Set int

const (
	Open Set = iota
	Completed
)

func (s Set) kind() store.Kind {
	if s == Completed {
		return store.KindCompleted
	}
	return store.KindOpen
}

// Service applies lifecycle transitions on top of the store. Each operation
// is a plain load, modify, save sequence.
type Service struct {
	store *store.Store
}

func NewService(s *store.Store) *Service {
	return &Service{store: s}
}

// List returns the chosen collection.
func (s *Service) List(ctx context.Context, institutionID string, set Set) ([]models.Record, error) {
	return s.store.Load(ctx, institutionID, set.kind())
}

// Submit appends a new open request.
func (s *Service) Submit(ctx context.Context, institutionID string, item models.Record) error {
	items, err := s.store.Load(ctx, institutionID, store.KindOpen)
	if err != nil {
		return err
	}
	return s.store.Save(ctx, institutionID, store.KindOpen, append(items, item))
}

// ReplaceAll overwrites the open collection, used by clients that sync a full list.
func (s *Service) ReplaceAll(ctx context.Context, institutionID string, items []models.Record) error {
	return s.store.Save(ctx, institutionID, store.KindOpen, items)
}

// Complete moves every open item whose id is in ids to the end of the
// completed collection, preserving relative order. Unknown ids are ignored.
func (s *Service) Complete(ctx context.Context, institutionID string, ids []string) error {
	return s.move(ctx, institutionID, Open, Completed, ids)
}

// Reopen is the inverse of Complete.
func (s *Service) Reopen(ctx context.Context, institutionID string, ids []string) error {
	return s.move(ctx, institutionID, Completed, Open, ids)
}

func (s *Service) move(ctx context.Context, institutionID string, from, to Set, ids []string) error {
	src, err := s.store.Load(ctx, institutionID, from.kind())
	if err != nil {
		return err
	}
	dst, err := s.store.Load(ctx, institutionID, to.kind())
	if err != nil {
		return err
	}
	keep, moved := partition(src, idSet(ids))
	// destination first: a failed second write leaves duplicates, not losses
	if err := s.store.Save(ctx, institutionID, to.kind(), append(dst, moved...)); err != nil {
		return err
	}
	return s.store.Save(ctx, institutionID, from.kind(), keep)
}

// Update shallow-merges patch onto the open item with the given id. The id
// itself cannot be changed through the patch.
func (s *Service) Update(ctx context.Context, institutionID, id string, patch models.Record) error {
	items, err := s.store.Load(ctx, institutionID, store.KindOpen)
	if err != nil {
		return err
	}
	idx := indexOf(items, id)
	if idx < 0 {
		return ErrNotFound
	}
	merged := items[idx].Clone()
	for k, v := range patch {
		merged[k] = v
	}
	merged["id"] = items[idx]["id"]
	items[idx] = merged
	return s.store.Save(ctx, institutionID, store.KindOpen, items)
}

// Replace swaps the whole item for body, keeping itemID as its id.
func (s *Service) Replace(ctx context.Context, institutionID string, set Set, itemID string, body models.Record) error {
	items, err := s.store.Load(ctx, institutionID, set.kind())
	if err != nil {
		return err
	}
	idx := indexOf(items, itemID)
	if idx < 0 {
		return ErrNotFound
	}
	repl := body.Clone()
	repl["id"] = items[idx]["id"]
	items[idx] = repl
	return s.store.Save(ctx, institutionID, set.kind(), items)
}

// Delete removes every item whose id is in ids. Unknown ids are ignored.
func (s *Service) Delete(ctx context.Context, institutionID string, set Set, ids []string) error {
	items, err := s.store.Load(ctx, institutionID, set.kind())
	if err != nil {
		return err
	}
	keep, _ := partition(items, idSet(ids))
	return s.store.Save(ctx, institutionID, set.kind(), keep)
}

// Assign unions workers into the assignees of every open item in ids.
// Existing assignees are kept as stored, whatever their JSON type.
func (s *Service) Assign(ctx context.Context, institutionID string, ids []string, workers []any) error {
	items, err := s.store.Load(ctx, institutionID, store.KindOpen)
	if err != nil {
		return err
	}
	want := idSet(ids)
	for i, it := range items {
		if _, ok := want[it.ID()]; !ok {
			continue
		}
		updated := it.Clone()
		updated["assignees"] = union(assignees(it), workers)
		items[i] = updated
	}
	return s.store.Save(ctx, institutionID, store.KindOpen, items)
}

func idSet(ids []string) map[string]struct{} {
	m := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return m
}

func partition(items []models.Record, ids map[string]struct{}) (keep, matched []models.Record) {
	keep = make([]models.Record, 0, len(items))
	for _, it := range items {
		if _, ok := ids[it.ID()]; ok {
			matched = append(matched, it)
		} else {
			keep = append(keep, it)
		}
	}
	return keep, matched
}

func indexOf(items []models.Record, id string) int {
	for i, it := range items {
		if it.ID() == id {
			return i
		}
	}
	return -1
}

func assignees(r models.Record) []any {
	switch v := r["assignees"].(type) {
	case []any:
		return v
	case []string:
		out := make([]any, len(v))
		for i, w := range v {
			out[i] = w
		}
		return out
	}
	return nil
}

// union keeps existing order and appends new workers once each. Scalars
// compare by their id form, so 7 and "7" are the same worker.
func union(existing, add []any) []any {
	seen := make(map[string]struct{}, len(existing)+len(add))
	out := make([]any, 0, len(existing)+len(add))
	for _, group := range [][]any{existing, add} {
		for _, w := range group {
			k := memberKey(w)
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, w)
		}
	}
	return out
}

func memberKey(v any) string {
	if id := models.IDString(v); id != "" {
		return "id:" + id
	}
	b, _ := json.Marshal(v)
	return "raw:" + string(b)
}
