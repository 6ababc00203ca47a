package database

import (
	"context"
	"fmt"
	"time"

	"servicehub/config"
	snapshotRepo "servicehub/database/repository/snapshot"

	"go.uber.org/zap"
)

// OpenSnapshot connects the store selected by DATA_STORE and returns its
// reader with a function releasing the connection.
func OpenSnapshot(cfg config.Config, logger *zap.Logger) (snapshotRepo.Reader, func(), error) {
	switch cfg.DataStore {
	case config.StorePostgres:
		pg, err := NewPostgres(cfg)
		if err != nil {
			return nil, nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := pg.Ping(ctx); err != nil {
			_ = pg.Close()
			return nil, nil, fmt.Errorf("failed to ping postgres: %w", err)
		}
		logger.Info("Connected to PostgreSQL", zap.Int("max_connections", cfg.PostgresMaxConnections))
		return snapshotRepo.NewPostgresReader(pg.DB), func() { _ = pg.Close() }, nil
	case config.StoreMongo:
		if err := InitDB(logger); err != nil {
			return nil, nil, err
		}
		closeFn := func() { _ = MongoClient.Disconnect(context.Background()) }
		return snapshotRepo.NewMongoReader(MongoDatabase()), closeFn, nil
	default:
		return nil, nil, fmt.Errorf("unknown data store %q", cfg.DataStore)
	}
}
