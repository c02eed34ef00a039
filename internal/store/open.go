package store

import (
	"context"
	"fmt"
	"log/slog"

	"notekeeper/internal/config"
	"notekeeper/internal/db"
)

// Open builds the backend selected by cfg.Storage.Backend.
func Open(ctx context.Context, cfg *config.Config, log *slog.Logger) (Store, error) {
	switch cfg.Storage.Backend {
	case config.BackendMemory:
		log.Warn("using in-memory storage, notes are lost on restart")
		return NewMemory(), nil

	case config.BackendFile:
		log.Info("opening notes file", "path", cfg.Storage.Path)
		return OpenFile(cfg.Storage.Path)

	case config.BackendSQLite:
		log.Info("opening sqlite database", "path", cfg.Storage.Path)
		conn, err := db.OpenSQLite(ctx, cfg.Storage.Path)
		if err != nil {
			return nil, err
		}
		return NewSQLite(conn), nil

	case config.BackendMongo:
		log.Info("connecting to MongoDB", "uri", cfg.Mongo.URI, "database", cfg.Mongo.Database)
		database, err := db.ConnectMongo(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return nil, err
		}
		repo := NewMongo(database)
		if err := repo.EnsureIndexes(ctx); err != nil {
			log.Warn("failed to ensure indexes", "error", err)
		}
		return repo, nil

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
