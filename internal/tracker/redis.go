package tracker

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis shares last-update times between server processes. Values are stored
// as RFC 3339 strings under "<prefix><institution>" without expiry.
type Redis struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// NewRedis creates a Redis-backed Tracker. Prefix may be empty.
func NewRedis(client *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = "lastupdate:"
	}
	return &Redis{client: client, prefix: prefix, now: time.Now}
}

func (r *Redis) key(institutionID string) string {
	return r.prefix + institutionID
}

func (r *Redis) RecordUpdate(ctx context.Context, institutionID string) error {
	return r.client.Set(ctx, r.key(institutionID), r.now().UTC().Format(time.RFC3339Nano), 0).Err()
}

func (r *Redis) LastUpdate(ctx context.Context, institutionID string) (time.Time, bool, error) {
	s, err := r.client.Get(ctx, r.key(institutionID)).Result()
	if err != nil {
		if err == redis.Nil {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, err
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		// unreadable value: treat as never updated
		return time.Time{}, false, nil
	}
	return t, true, nil
}

// Observe is a get-compare-set; concurrent seeders may interleave, which at
// worst leaves an older seed value until the next real write.
func (r *Redis) Observe(ctx context.Context, institutionID string, t time.Time) error {
	cur, ok, err := r.LastUpdate(ctx, institutionID)
	if err != nil {
		return err
	}
	if ok && !t.After(cur) {
		return nil
	}
	return r.client.Set(ctx, r.key(institutionID), t.UTC().Format(time.RFC3339Nano), 0).Err()
}
