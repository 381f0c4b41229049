package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRecordAccessors(t *testing.T) {
	r := Record{"id": "7", "assignees": []any{"bob", 3, "ann"}, "priority": 2.0}
	require.Equal(t, "7", r.ID())
	require.Equal(t, "", r.String("priority"))
	require.Equal(t, []string{"bob", "ann"}, r.Strings("assignees"))
	require.Nil(t, r.Strings("missing"))

	c := r.Clone()
	c["id"] = "8"
	require.Equal(t, "7", r.ID())
}

func TestWorkerFromFallsBackToPosition(t *testing.T) {
	w := WorkerFrom(Record{"username": "alice", "password": "pw1", "name": "Alice", "position": "technician"})
	require.Equal(t, "technician", w.Role)

	w = WorkerFrom(Record{"username": "bob", "role": "admin", "position": "ignored"})
	require.Equal(t, "admin", w.Role)
}

func TestNumericIDs(t *testing.T) {
	require.Equal(t, "1700000000123", Record{"id": 1700000000123.0}.ID())
	require.Equal(t, "", Record{"id": true}.ID())
	require.Equal(t, []string{"1", "a", "2.5"}, IDStrings([]any{1.0, "a", nil, 2.5}))
}
