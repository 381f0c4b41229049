package requests

import (
	"context"
	"errors"
	"testing"

	"github.com/facilitydesk/facilitydesk/internal/institution"
	"github.com/facilitydesk/facilitydesk/internal/models"
	"github.com/facilitydesk/facilitydesk/internal/store"
	"github.com/stretchr/testify/require"
)

const inst = "hospitalA"

func newService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	s := store.New(store.NewFileBackend(institution.NewResolver(t.TempDir())), nil)
	return NewService(s), s
}

func seed(t *testing.T, s *store.Store, kind store.Kind, items ...models.Record) {
	t.Helper()
	require.NoError(t, s.Save(context.Background(), inst, kind, items))
}

func ids(t *testing.T, svc *Service, set Set) []string {
	t.Helper()
	items, err := svc.List(context.Background(), inst, set)
	require.NoError(t, err)
	out := []string{}
	for _, it := range items {
		out = append(out, it.ID())
	}
	return out
}

func TestSubmitAppends(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	require.NoError(t, svc.Submit(ctx, inst, models.Record{"id": "1", "description": "broken door"}))
	require.NoError(t, svc.Submit(ctx, inst, models.Record{"id": "2"}))
	require.Equal(t, []string{"1", "2"}, ids(t, svc, Open))
}

func TestCompleteMovesMatchingItems(t *testing.T) {
	svc, s := newService(t)
	seed(t, s, store.KindOpen, models.Record{"id": "1"}, models.Record{"id": "2"})

	require.NoError(t, svc.Complete(context.Background(), inst, []string{"1"}))
	require.Equal(t, []string{"2"}, ids(t, svc, Open))
	require.Equal(t, []string{"1"}, ids(t, svc, Completed))
}

func TestCompleteAppendsAfterExistingAndIgnoresUnknown(t *testing.T) {
	svc, s := newService(t)
	seed(t, s, store.KindOpen, models.Record{"id": "a"}, models.Record{"id": "b"}, models.Record{"id": "c"})
	seed(t, s, store.KindCompleted, models.Record{"id": "old"})

	require.NoError(t, svc.Complete(context.Background(), inst, []string{"c", "a", "missing"}))
	require.Equal(t, []string{"b"}, ids(t, svc, Open))
	require.Equal(t, []string{"old", "a", "c"}, ids(t, svc, Completed))
}

func TestCompleteThenReopenRestoresCollections(t *testing.T) {
	svc, s := newService(t)
	seed(t, s, store.KindOpen, models.Record{"id": "1", "x": "keep"}, models.Record{"id": "2"}, models.Record{"id": "3"})
	seed(t, s, store.KindCompleted, models.Record{"id": "9"})
	ctx := context.Background()

	require.NoError(t, svc.Complete(ctx, inst, []string{"1", "3"}))
	require.NoError(t, svc.Reopen(ctx, inst, []string{"1", "3"}))

	require.ElementsMatch(t, []string{"1", "2", "3"}, ids(t, svc, Open))
	require.Equal(t, []string{"9"}, ids(t, svc, Completed))

	open, err := svc.List(ctx, inst, Open)
	require.NoError(t, err)
	for _, it := range open {
		if it.ID() == "1" {
			require.Equal(t, "keep", it.String("x"))
		}
	}
}

func TestUpdateMergesPatchAndKeepsID(t *testing.T) {
	svc, s := newService(t)
	seed(t, s, store.KindOpen, models.Record{"id": "1", "description": "leak", "priority": "low", "location": "A2"})
	ctx := context.Background()

	require.NoError(t, svc.Update(ctx, inst, "1", models.Record{"priority": "high", "id": "hijack", "note": "urgent"}))

	items, err := svc.List(ctx, inst, Open)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, models.Record{"id": "1", "description": "leak", "priority": "high", "location": "A2", "note": "urgent"}, items[0])
}

func TestUpdateUnknownIDLeavesCollectionsUntouched(t *testing.T) {
	svc, s := newService(t)
	seed(t, s, store.KindOpen, models.Record{"id": "1"})
	seed(t, s, store.KindCompleted, models.Record{"id": "2"})
	ctx := context.Background()

	err := svc.Update(ctx, inst, "2", models.Record{"priority": "high"})
	require.ErrorIs(t, err, ErrNotFound)

	open, _ := svc.List(ctx, inst, Open)
	done, _ := svc.List(ctx, inst, Completed)
	require.Equal(t, []models.Record{{"id": "1"}}, open)
	require.Equal(t, []models.Record{{"id": "2"}}, done)
}

func TestReplaceForcesPathID(t *testing.T) {
	svc, s := newService(t)
	seed(t, s, store.KindCompleted, models.Record{"id": "5", "description": "old", "resolvedBy": "bob"})
	ctx := context.Background()

	require.NoError(t, svc.Replace(ctx, inst, Completed, "5", models.Record{"id": "77", "description": "new"}))
	done, err := svc.List(ctx, inst, Completed)
	require.NoError(t, err)
	require.Equal(t, []models.Record{{"id": "5", "description": "new"}}, done)

	require.ErrorIs(t, svc.Replace(ctx, inst, Open, "5", models.Record{}), ErrNotFound)
}

func TestDeleteIsIdempotent(t *testing.T) {
	svc, s := newService(t)
	seed(t, s, store.KindOpen, models.Record{"id": "1"}, models.Record{"id": "2"}, models.Record{"id": "3"})
	ctx := context.Background()

	require.NoError(t, svc.Delete(ctx, inst, Open, []string{"2", "nope"}))
	once := ids(t, svc, Open)
	require.NoError(t, svc.Delete(ctx, inst, Open, []string{"2", "nope"}))
	require.Equal(t, once, ids(t, svc, Open))
	require.Equal(t, []string{"1", "3"}, once)
}

func TestDeleteCompleted(t *testing.T) {
	svc, s := newService(t)
	seed(t, s, store.KindOpen, models.Record{"id": "1"})
	seed(t, s, store.KindCompleted, models.Record{"id": "1"}, models.Record{"id": "2"})

	require.NoError(t, svc.Delete(context.Background(), inst, Completed, []string{"1"}))
	require.Equal(t, []string{"2"}, ids(t, svc, Completed))
	require.Equal(t, []string{"1"}, ids(t, svc, Open))
}

func TestAssignUnionsAndIsIdempotent(t *testing.T) {
	svc, s := newService(t)
	seed(t, s, store.KindOpen,
		models.Record{"id": "1", "assignees": []any{"ann"}},
		models.Record{"id": "2"},
		models.Record{"id": "3", "assignees": []any{"zed"}},
	)
	ctx := context.Background()

	require.NoError(t, svc.Assign(ctx, inst, []string{"1", "2"}, []any{"bob", "ann", "bob"}))
	first, err := svc.List(ctx, inst, Open)
	require.NoError(t, err)
	require.Equal(t, []string{"ann", "bob"}, first[0].Strings("assignees"))
	require.Equal(t, []string{"bob", "ann"}, first[1].Strings("assignees"))
	require.Equal(t, []string{"zed"}, first[2].Strings("assignees"))

	require.NoError(t, svc.Assign(ctx, inst, []string{"1", "2"}, []any{"bob", "ann", "bob"}))
	second, err := svc.List(ctx, inst, Open)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestReplaceAll(t *testing.T) {
	svc, s := newService(t)
	seed(t, s, store.KindOpen, models.Record{"id": "1"})
	require.NoError(t, svc.ReplaceAll(context.Background(), inst, []models.Record{{"id": "x"}, {"id": "y"}}))
	require.Equal(t, []string{"x", "y"}, ids(t, svc, Open))
}

func TestAssignKeepsNonStringAssignees(t *testing.T) {
	svc, s := newService(t)
	seed(t, s, store.KindOpen, models.Record{"id": "1", "assignees": []any{7, "ann", map[string]any{"team": "night"}}})
	ctx := context.Background()

	require.NoError(t, svc.Assign(ctx, inst, []string{"1"}, []any{"bob"}))
	require.NoError(t, svc.Assign(ctx, inst, []string{"1"}, []any{float64(7), "7", map[string]any{"team": "night"}, 9}))

	items, err := svc.List(ctx, inst, Open)
	require.NoError(t, err)
	require.Equal(t, []any{float64(7), "ann", map[string]any{"team": "night"}, "bob", float64(9)}, items[0]["assignees"])
}

type failingBackend struct {
	*store.FileBackend
	failKind store.Kind
}

func (f *failingBackend) Write(ctx context.Context, institutionID string, kind store.Kind, data []byte) error {
	if kind == f.failKind {
		return errors.New("disk full")
	}
	return f.FileBackend.Write(ctx, institutionID, kind, data)
}

func TestCompleteFailedWriteKeepsItems(t *testing.T) {
	file := store.NewFileBackend(institution.NewResolver(t.TempDir()))
	seed(t, store.New(file, nil), store.KindOpen, models.Record{"id": "1"}, models.Record{"id": "2"})

	for _, failing := range []store.Kind{store.KindCompleted, store.KindOpen} {
		svc := NewService(store.New(&failingBackend{FileBackend: file, failKind: failing}, nil))
		require.Error(t, svc.Complete(context.Background(), inst, []string{"1"}))

		reader := NewService(store.New(file, nil))
		open := ids(t, reader, Open)
		done := ids(t, reader, Completed)
		require.Contains(t, append(open, done...), "1", "item lost when %s write failed", failing)
	}
}
