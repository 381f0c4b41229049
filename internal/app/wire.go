// Package app assembles the storage, tracker and media backends selected by
// configuration. Both the HTTP server and maintctl use it.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/facilitydesk/facilitydesk/internal/config"
	"github.com/facilitydesk/facilitydesk/internal/database"
	"github.com/facilitydesk/facilitydesk/internal/institution"
	"github.com/facilitydesk/facilitydesk/internal/media"
	"github.com/facilitydesk/facilitydesk/internal/store"
	"github.com/facilitydesk/facilitydesk/internal/tracker"
	"github.com/facilitydesk/facilitydesk/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// Deps holds the wired backends. Close releases connections.
type Deps struct {
	Paths   *institution.Resolver
	Redis   *redis.Client
	Mongo   *mongo.Client
	Tracker tracker.Tracker
	Store   *store.Store
	Media   *media.Manager
}

// Build connects optional services and wires the store, tracker and media
// manager. Redis is optional: a failed ping leaves Redis nil and the memory
// tracker in place.
func Build(ctx context.Context, cfg *config.Config) (*Deps, error) {
	d := &Deps{Paths: institution.NewResolver(cfg.Storage.DataDir)}

	if cfg.Redis.Host != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
			_ = client.Close()
		} else {
			logger.Infof("connected to Redis: %s:%s", cfg.Redis.Host, cfg.Redis.Port)
			d.Redis = client
		}
	}

	switch cfg.Tracker.Backend {
	case "redis":
		if d.Redis == nil {
			logger.Warn("TRACKER_BACKEND=redis but Redis is unavailable; using in-memory tracker")
			d.Tracker = tracker.NewMemory()
		} else {
			d.Tracker = tracker.NewRedis(d.Redis, "")
		}
	default:
		d.Tracker = tracker.NewMemory()
	}

	var backend store.Backend
	switch cfg.Storage.Backend {
	case "mongo":
		client, err := connectMongo(ctx, cfg.MongoDB)
		if err != nil {
			d.Close(ctx)
			return nil, err
		}
		d.Mongo = client
		backend = store.NewMongoBackend(ctx, client.Database(cfg.MongoDB.Database).Collection("collections"))
	case "file", "":
		backend = store.NewFileBackend(d.Paths)
	default:
		d.Close(ctx)
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.Storage.Backend)
	}
	d.Store = store.New(backend, d.Tracker)

	var ms media.Storage
	switch cfg.Media.Backend {
	case "minio":
		m, err := media.NewMinIOStorage(cfg.MinIO)
		if err != nil {
			d.Close(ctx)
			return nil, err
		}
		ms = m
	case "local", "":
		ms = media.NewLocalStorage(d.Paths)
	default:
		d.Close(ctx)
		return nil, fmt.Errorf("unknown MEDIA_BACKEND %q", cfg.Media.Backend)
	}
	d.Media = media.NewManager(ms, d.Store, cfg.Media.MaxBytes, cfg.Media.AllowedPrefixes)

	return d, nil
}

// connectMongo retries with backoff to tolerate startup races.
func connectMongo(ctx context.Context, cfg config.MongoDBConfig) (*mongo.Client, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("STORE_BACKEND=mongo requires MONGODB_URI")
	}
	const maxAttempts = 5
	backoff := time.Second
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		client, err := database.ConnectMongo(ctx, cfg.URI, cfg.Timeout)
		if err == nil {
			return client, nil
		}
		lastErr = err
		logger.Warnf("attempt %d/%d: failed to connect to MongoDB: %v", attempt, maxAttempts, err)
		if attempt < maxAttempts {
			time.Sleep(backoff)
			backoff *= 2
		}
	}
	return nil, fmt.Errorf("could not connect to MongoDB after %d attempts: %w", maxAttempts, lastErr)
}

func (d *Deps) Close(ctx context.Context) {
	if d.Mongo != nil {
		_ = d.Mongo.Disconnect(ctx)
	}
	if d.Redis != nil {
		_ = d.Redis.Close()
	}
}
