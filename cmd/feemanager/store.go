package main

import (
	"context"

	"go.uber.org/zap"

	"feeManager/internal/config"
	"feeManager/internal/ingest"
	"feeManager/internal/storage"
)

func openStore(ctx context.Context, cfg config.StoreConfig, logger *zap.Logger) (*storage.Opened, error) {
	opened, err := storage.Open(ctx, storage.Options{
		Kind:       cfg.Kind,
		Path:       cfg.Path,
		ShieldPath: cfg.ShieldPath,
		PGDSN:      cfg.PGDSN,
	})
	if err != nil {
		return nil, err
	}

	logger.Debug("store open",
		zap.String("kind", opened.Kind),
		zap.String("path", cfg.Path),
		zap.String("shield_path", cfg.ShieldPath),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
	)
	if !opened.Durable() {
		logger.Warn("memory store selected; records are discarded on exit")
	}
	return opened, nil
}

// newStateStore prefers a local state file and falls back to the Postgres
// state table when that backend is open.
func newStateStore(stateFile string, opened *storage.Opened, name string) ingest.StateStore {
	if stateFile != "" {
		return &ingest.FileStateStore{Path: stateFile}
	}
	if opened.Postgres != nil {
		return &ingest.DBStateStore{Store: opened.Postgres, Name: name}
	}
	return nil
}
