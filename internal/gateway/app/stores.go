package app

import (
	"context"
	"log"
	"strings"

	"waypoint/internal/gateway/config"
	"waypoint/internal/logstore"
)

// initLogStore picks the durable store the same way the rest of the stack
// picks backends: postgres when a DSN is configured, in-memory otherwise.
func initLogStore(ctx context.Context, cfg *config.Config) (logstore.Store, error) {
	if dsn := strings.TrimSpace(cfg.Database.URL); dsn != "" {
		store, err := logstore.NewPostgresStore(ctx, dsn)
		if err != nil {
			return nil, err
		}
		log.Printf("interaction store: postgres")
		return store, nil
	}
	log.Printf("interaction store: in-memory")
	return logstore.NewMemoryStore(), nil
}

// initArchive builds the S3 transcript archive when configured; a nil archive
// simply disables transcript writes.
func initArchive(cfg *config.Config) *logstore.Archive {
	if !cfg.Archive.CanUseS3() {
		return nil
	}
	archive, err := logstore.NewArchive(logstore.S3Config{
		Endpoint:  cfg.Archive.Endpoint,
		Region:    cfg.Archive.Region,
		AccessKey: cfg.Archive.AccessKey,
		SecretKey: cfg.Archive.SecretKey,
		Bucket:    cfg.Archive.Bucket,
		UseSSL:    cfg.Archive.UseSSL,
	})
	if err != nil {
		log.Printf("transcript archive disabled: %v", err)
		return nil
	}
	log.Printf("transcript archive: s3 bucket=%s endpoint=%s", cfg.Archive.Bucket, cfg.Archive.Endpoint)
	return archive
}
