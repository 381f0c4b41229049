package store

import (
	"bytes"
	"context"
	"os"
	"testing"
	"time"

	"github.com/facilitydesk/facilitydesk/pkg/logger"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestMongoBackend(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	ns := func(mt *mtest.T) string { return mt.Coll.Database().Name() + "." + mt.Coll.Name() }

	mt.Run("missing document is ErrNotExist", func(mt *mtest.T) {
		b := &MongoBackend{col: mt.Coll}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch))
		_, err := b.Read(context.Background(), "hospitalA", KindOpen)
		require.ErrorIs(t, err, ErrNotExist)

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch))
		_, err = b.ModTime(context.Background(), "hospitalA", KindOpen)
		require.ErrorIs(t, err, ErrNotExist)
	})

	mt.Run("read returns stored text and time", func(mt *mtest.T) {
		b := &MongoBackend{col: mt.Coll}
		at := time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC)
		doc := bson.D{
			{Key: "_id", Value: docID("hospitalA", KindCompleted)},
			{Key: "institution", Value: "hospitalA"},
			{Key: "kind", Value: string(KindCompleted)},
			{Key: "data", Value: `[{"id":"1"}]`},
			{Key: "updatedAt", Value: at},
		}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch, doc))
		data, err := b.Read(context.Background(), "hospitalA", KindCompleted)
		require.NoError(t, err)
		require.Equal(t, `[{"id":"1"}]`, string(data))

		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch, doc))
		mod, err := b.ModTime(context.Background(), "hospitalA", KindCompleted)
		require.NoError(t, err)
		require.True(t, at.Equal(mod))
	})

	mt.Run("write upserts", func(mt *mtest.T) {
		b := &MongoBackend{col: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))
		require.NoError(t, b.Write(context.Background(), "hospitalA", KindOpen, []byte("[]")))

		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Message: "bad value"}))
		require.ErrorContains(t, b.Write(context.Background(), "hospitalA", KindOpen, []byte("[]")), "save collection")
	})

	mt.Run("institutions are sorted strings", func(mt *mtest.T) {
		b := &MongoBackend{col: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "values", Value: bson.A{"zeta", "alpha", 42}}))
		ids, err := b.Institutions(context.Background())
		require.NoError(t, err)
		require.Equal(t, []string{"alpha", "zeta"}, ids)
	})

	mt.Run("index failure is logged", func(mt *mtest.T) {
		var buf bytes.Buffer
		logger.SetOutput(&buf)
		defer logger.SetOutput(os.Stdout)

		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 13, Message: "unauthorized"}))
		b := NewMongoBackend(context.Background(), mt.Coll)
		require.NotNil(t, b)
		require.Contains(t, buf.String(), "create institution index")
	})
}

func TestDocID(t *testing.T) {
	require.Equal(t, "hospitalA/workers", docID("hospitalA", KindWorkers))
}
