package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/facilitydesk/facilitydesk/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// persistedCollection is one (institution, kind) document. The collection is
// kept as its serialized JSON text so the corruption policy in Store applies
// to both backends alike.
type persistedCollection struct {
	ID          string    `bson:"_id"`
	Institution string    `bson:"institution"`
	Kind        string    `bson:"kind"`
	Data        string    `bson:"data"`
	UpdatedAt   time.Time `bson:"updatedAt"`
}

// MongoBackend stores collections in a single MongoDB collection.
type MongoBackend struct {
	col *mongo.Collection
}

// NewMongoBackend ensures the institution index. A failed index build only
// slows Institutions, so it is logged rather than returned.
func NewMongoBackend(ctx context.Context, col *mongo.Collection) *MongoBackend {
	idx := mongo.IndexModel{Keys: bson.D{{Key: "institution", Value: 1}}}
	if _, err := col.Indexes().CreateOne(ctx, idx); err != nil {
		logger.Warnf("store: create institution index on %s: %v", col.Name(), err)
	}
	return &MongoBackend{col: col}
}

func docID(institutionID string, kind Kind) string {
	return institutionID + "/" + string(kind)
}

func (m *MongoBackend) find(ctx context.Context, institutionID string, kind Kind) (*persistedCollection, error) {
	var pc persistedCollection
	err := m.col.FindOne(ctx, bson.M{"_id": docID(institutionID, kind)}).Decode(&pc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotExist
		}
		return nil, err
	}
	return &pc, nil
}

func (m *MongoBackend) Read(ctx context.Context, institutionID string, kind Kind) ([]byte, error) {
	pc, err := m.find(ctx, institutionID, kind)
	if err != nil {
		return nil, err
	}
	return []byte(pc.Data), nil
}

func (m *MongoBackend) Write(ctx context.Context, institutionID string, kind Kind, data []byte) error {
	rec := bson.M{"$set": bson.M{
		"institution": institutionID,
		"kind":        string(kind),
		"data":        string(data),
		"updatedAt":   time.Now().UTC(),
	}}
	opts := options.Update().SetUpsert(true)
	if _, err := m.col.UpdateOne(ctx, bson.M{"_id": docID(institutionID, kind)}, rec, opts); err != nil {
		return fmt.Errorf("save collection: %w", err)
	}
	return nil
}

func (m *MongoBackend) ModTime(ctx context.Context, institutionID string, kind Kind) (time.Time, error) {
	pc, err := m.find(ctx, institutionID, kind)
	if err != nil {
		return time.Time{}, err
	}
	return pc.UpdatedAt, nil
}

func (m *MongoBackend) Institutions(ctx context.Context) ([]string, error) {
	vals, err := m.col.Distinct(ctx, "institution", bson.M{})
	if err != nil {
		return nil, fmt.Errorf("list institutions: %w", err)
	}
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out, nil
}
