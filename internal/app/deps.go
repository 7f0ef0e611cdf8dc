package app

import (
	"context"
	"time"

	"github.com/videotube/backend/internal/auth"
	"github.com/videotube/backend/internal/config"
	"github.com/videotube/backend/internal/db"
	"github.com/videotube/backend/internal/handlers"
	"github.com/videotube/backend/internal/middleware"
	"github.com/videotube/backend/internal/repositories"
	"github.com/videotube/backend/internal/storage"
)

// buildDependencies wires together concrete implementations used by the
// HTTP handlers.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config) (handlers.Dependencies, error) {
	users := repositories.NewPostgresUserRepository(pool)

	sessions := auth.NewManager(
		[]byte(cfg.AccessTokenSecret),
		[]byte(cfg.RefreshTokenSecret),
		cfg.AccessTokenTTL,
		cfg.RefreshTokenTTL,
		users,
	)

	media, err := buildMediaStore(ctx, cfg)
	if err != nil {
		return handlers.Dependencies{}, err
	}

	return handlers.Dependencies{
		Users:         users,
		Sessions:      sessions,
		Access:        sessions,
		Videos:        repositories.NewPostgresVideoRepository(pool),
		Subscriptions: repositories.NewPostgresSubscriptionRepository(pool),
		Media:         media,
		Limiter:       middleware.NewKeyedRateLimiter(10, time.Minute, 5, 10*time.Minute),

		TempDir:        cfg.TempDir,
		MaxUploadBytes: cfg.MaxUploadBytes,
		PublicDir:      cfg.PublicDir,
	}, nil
}

// buildMediaStore selects the S3-backed media host when a bucket is
// configured and the static-dir store otherwise.
func buildMediaStore(ctx context.Context, cfg config.Config) (storage.MediaStore, error) {
	if cfg.ObjectStore.Bucket != "" {
		return storage.NewS3MediaStore(ctx, cfg.ObjectStore)
	}
	return storage.NewLocalMediaStore(cfg.PublicDir, "/public")
}
