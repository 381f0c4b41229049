package workers

import (
	"context"
	"testing"

	"github.com/facilitydesk/facilitydesk/internal/institution"
	"github.com/facilitydesk/facilitydesk/internal/models"
	"github.com/facilitydesk/facilitydesk/internal/store"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	s := store.New(store.NewFileBackend(institution.NewResolver(t.TempDir())), nil)
	return NewService(s), s
}

func TestAuthenticate_FindsOwningInstitution(t *testing.T) {
	svc, s := newService(t)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, "hospitalA", store.KindWorkers, []models.Record{
		{"username": "alice", "password": "pw1", "name": "Alice", "role": "technician"},
	}))
	require.NoError(t, s.Save(ctx, "schoolB", store.KindWorkers, []models.Record{
		{"username": "bob", "password": "pw2", "name": "Bob", "position": "admin"},
	}))

	id, err := svc.Authenticate(ctx, "alice", "pw1")
	require.NoError(t, err)
	require.Equal(t, &Identity{Username: "alice", Name: "Alice", Role: "technician", InstitutionID: "hospitalA"}, id)

	id, err = svc.Authenticate(ctx, "bob", "pw2")
	require.NoError(t, err)
	require.Equal(t, "schoolB", id.InstitutionID)
	require.Equal(t, "admin", id.Role)

	_, err = svc.Authenticate(ctx, "alice", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "alice", "pw2")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticate_NoInstitutions(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.Authenticate(context.Background(), "alice", "pw1")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticate_BcryptPassword(t *testing.T) {
	svc, s := newService(t)
	ctx := context.Background()
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, "hospitalA", store.KindWorkers, []models.Record{
		{"username": "carol", "password": hash, "name": "Carol"},
	}))

	id, err := svc.Authenticate(ctx, "carol", "s3cret")
	require.NoError(t, err)
	require.Equal(t, "hospitalA", id.InstitutionID)

	_, err = svc.Authenticate(ctx, "carol", hash)
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestPasswordMatches_EmptyStoredNeverMatches(t *testing.T) {
	require.False(t, PasswordMatches("", ""))
	require.True(t, PasswordMatches("x", "x"))
}

func TestDelete(t *testing.T) {
	svc, s := newService(t)
	ctx := context.Background()
	require.NoError(t, svc.ReplaceAll(ctx, "hospitalA", []models.Record{
		{"username": "alice"}, {"username": "bob"},
	}))

	require.NoError(t, svc.Delete(ctx, "hospitalA", "alice"))
	roster, err := s.Load(ctx, "hospitalA", store.KindWorkers)
	require.NoError(t, err)
	require.Equal(t, []models.Record{{"username": "bob"}}, roster)

	require.ErrorIs(t, svc.Delete(ctx, "hospitalA", "alice"), ErrNotFound)
}
