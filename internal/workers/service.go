// Package workers manages institution rosters and verifies login credentials
// against them.
package workers

import (
	"context"
	"errors"
	"strings"

	"github.com/facilitydesk/facilitydesk/internal/models"
	"github.com/facilitydesk/facilitydesk/internal/store"
	"github.com/facilitydesk/facilitydesk/pkg/logger"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrNotFound           = errors.New("worker not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Identity is the result of a successful Authenticate.
type Identity struct {
	Username      string
	Name          string
	Role          string
	InstitutionID string
}

type Service struct {
	store *store.Store
}

func NewService(s *store.Store) *Service {
	return &Service{store: s}
}

func (s *Service) List(ctx context.Context, institutionID string) ([]models.Record, error) {
	return s.store.Load(ctx, institutionID, store.KindWorkers)
}

func (s *Service) ReplaceAll(ctx context.Context, institutionID string, roster []models.Record) error {
	return s.store.Save(ctx, institutionID, store.KindWorkers, roster)
}

// Delete removes every roster entry with the given username.
func (s *Service) Delete(ctx context.Context, institutionID, username string) error {
	roster, err := s.store.Load(ctx, institutionID, store.KindWorkers)
	if err != nil {
		return err
	}
	keep := make([]models.Record, 0, len(roster))
	for _, r := range roster {
		if r.String("username") != username {
			keep = append(keep, r)
		}
	}
	if len(keep) == len(roster) {
		return ErrNotFound
	}
	return s.store.Save(ctx, institutionID, store.KindWorkers, keep)
}

// Authenticate scans every institution's roster in Institutions order and
// returns the first entry matching username and password. Usernames are
// expected to be unique across institutions; when they are not, which one
// wins depends on that order.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*Identity, error) {
	if username == "" {
		return nil, ErrInvalidCredentials
	}
	ids, err := s.store.Institutions(ctx)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		roster, err := s.store.Load(ctx, id, store.KindWorkers)
		if err != nil {
			logger.Warnf("workers: skip roster %s: %v", id, err)
			continue
		}
		for _, r := range roster {
			w := models.WorkerFrom(r)
			if w.Username != username || !PasswordMatches(w.Password, password) {
				continue
			}
			return &Identity{Username: w.Username, Name: w.Name, Role: w.Role, InstitutionID: id}, nil
		}
	}
	return nil, ErrInvalidCredentials
}

// PasswordMatches compares a stored roster password with a candidate. Stored
// values starting with "$2" are treated as bcrypt hashes, anything else is
// compared verbatim.
func PasswordMatches(stored, candidate string) bool {
	if strings.HasPrefix(stored, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(candidate)) == nil
	}
	return stored != "" && stored == candidate
}

// HashPassword returns a bcrypt hash suitable for a roster "password" field.
func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}
