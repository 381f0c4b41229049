// Package cities holds the per-institution city and street reference data.
package cities

import (
	"context"
	"errors"

	"github.com/facilitydesk/facilitydesk/internal/models"
	"github.com/facilitydesk/facilitydesk/internal/store"
)

var (
	ErrCityNotFound   = errors.New("city not found")
	ErrStreetNotFound = errors.New("street not found")
)

type Service struct {
	store *store.Store
}

func NewService(s *store.Store) *Service {
	return &Service{store: s}
}

func (s *Service) List(ctx context.Context, institutionID string) ([]models.Record, error) {
	return s.store.Load(ctx, institutionID, store.KindCities)
}

func (s *Service) ReplaceAll(ctx context.Context, institutionID string, cities []models.Record) error {
	return s.store.Save(ctx, institutionID, store.KindCities, cities)
}

// Delete removes every city named name.
func (s *Service) Delete(ctx context.Context, institutionID, name string) error {
	list, err := s.store.Load(ctx, institutionID, store.KindCities)
	if err != nil {
		return err
	}
	keep := make([]models.Record, 0, len(list))
	for _, c := range list {
		if c.String("name") != name {
			keep = append(keep, c)
		}
	}
	if len(keep) == len(list) {
		return ErrCityNotFound
	}
	return s.store.Save(ctx, institutionID, store.KindCities, keep)
}

// DeleteStreet removes the first occurrence of street from the named city,
// so duplicated street names go away one call at a time.
func (s *Service) DeleteStreet(ctx context.Context, institutionID, city, street string) error {
	list, err := s.store.Load(ctx, institutionID, store.KindCities)
	if err != nil {
		return err
	}
	for i, c := range list {
		if c.String("name") != city {
			continue
		}
		streets, ok := removeFirst(c["streets"], street)
		if !ok {
			return ErrStreetNotFound
		}
		updated := c.Clone()
		updated["streets"] = streets
		list[i] = updated
		return s.store.Save(ctx, institutionID, store.KindCities, list)
	}
	return ErrCityNotFound
}

// removeFirst drops one matching element, leaving non-string entries as they were.
func removeFirst(v any, street string) ([]any, bool) {
	var items []any
	switch s := v.(type) {
	case []any:
		items = s
	case []string:
		for _, e := range s {
			items = append(items, e)
		}
	}
	for i, e := range items {
		if name, _ := e.(string); name == street {
			out := make([]any, 0, len(items)-1)
			out = append(out, items[:i]...)
			return append(out, items[i+1:]...), true
		}
	}
	return nil, false
}
