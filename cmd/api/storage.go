package main

import (
	"path/filepath"

	"github.com/manoj99-eng/krisco-backend/internal/config"
	"github.com/manoj99-eng/krisco-backend/internal/storage"
	"github.com/manoj99-eng/krisco-backend/pkg/logger"
)

// newObjectStorage picks the S3-compatible backend when an endpoint is
// configured, and falls back to local disk under the app data dir.
func newObjectStorage(cfg *config.Config) (storage.ObjectStorage, error) {
	if cfg.Storage.Endpoint != "" {
		return storage.NewMinioClient(cfg.Storage)
	}

	root := filepath.Join(cfg.App.DataDir, "artifacts")
	logger.Log.Warn().Str("root", root).Msg("No storage endpoint configured, using local disk")
	return storage.NewLocalStorage(root)
}
