// Package server wires configuration, the replication record store, and the
// three object-storage backends into the running application.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/dpetrovs/trimirror/internal/common"
	"github.com/dpetrovs/trimirror/internal/cryptox"
	"github.com/dpetrovs/trimirror/internal/logging"
	"github.com/dpetrovs/trimirror/internal/server/config"
	"github.com/dpetrovs/trimirror/internal/server/migrations"
	"github.com/dpetrovs/trimirror/internal/server/models"
	"github.com/dpetrovs/trimirror/internal/server/replicator"
	"github.com/dpetrovs/trimirror/internal/server/repositories/records"
	"github.com/dpetrovs/trimirror/internal/server/storage"
	"github.com/dpetrovs/trimirror/internal/server/tracker"
)

// App owns the full replication pipeline: one record store, three backends,
// the tracker that reads consistency from them, and the orchestrator that
// writes through them.
type App struct {
	config       *config.Config
	logger       logging.Logger
	db           *sql.DB
	masterKey    []byte
	backends     []storage.Backend
	tracker      *tracker.Tracker
	orchestrator *replicator.Orchestrator
	gcs          *storage.GCSBackend
}

// NewApp builds the application from configuration and a decoded 32-byte
// master key. It opens the record store, runs pending migrations, and
// connects the s3, azure, and gcs backends in that fixed order.
func NewApp(ctx context.Context, cfg *config.Config, masterKey []byte) (*App, error) {

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	if err := runMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("db migration error: %w", err)
	}

	s3b, err := storage.NewS3Backend(ctx, storage.S3Config{
		Bucket:    cfg.S3Bucket,
		Region:    cfg.S3Region,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		Endpoint:  cfg.S3Endpoint,
	})
	if err != nil {
		return nil, fmt.Errorf("s3 backend init error: %w", err)
	}

	azb, err := storage.NewAzureBackend(storage.AzureConfig{
		AccountName: cfg.AzureAccountName,
		AccountKey:  cfg.AzureAccountKey,
		ServiceURL:  cfg.AzureServiceURL,
		Container:   cfg.AzureContainer,
	})
	if err != nil {
		return nil, fmt.Errorf("azure backend init error: %w", err)
	}

	gcsb, err := storage.NewGCSBackend(ctx, storage.GCSConfig{
		Bucket:    cfg.GCSBucket,
		ProjectID: cfg.GCSProjectID,
	})
	if err != nil {
		return nil, fmt.Errorf("gcs backend init error: %w", err)
	}

	backends := []storage.Backend{s3b, azb, gcsb}

	repo := records.NewPostgresRepository(db)
	tr := tracker.New(repo, backends, logger)
	orch := replicator.New(masterKey, backends, tr, cfg.BackendTimeout, logger)

	return &App{
		config:       cfg,
		logger:       logger,
		db:           db,
		masterKey:    masterKey,
		backends:     backends,
		tracker:      tr,
		orchestrator: orch,
		gcs:          gcsb,
	}, nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	return goose.UpContext(ctx, db, ".")
}

// Replicate encrypts payload and fans it out to every backend.
func (app *App) Replicate(ctx context.Context, objectKey string, payload []byte) (*models.ReplicationRecord, error) {
	return app.orchestrator.Replicate(ctx, objectKey, payload)
}

// Status reports consistency from the fingerprints recorded at write time.
func (app *App) Status(ctx context.Context, objectKey string) (*models.ConsistencyStatus, error) {
	return app.tracker.Status(ctx, objectKey)
}

// Verify re-reads every backend and recomputes fingerprints.
func (app *App) Verify(ctx context.Context, objectKey string) (*models.ConsistencyStatus, error) {
	return app.tracker.Verify(ctx, objectKey)
}

// History returns all replication records for the key, newest first.
func (app *App) History(ctx context.Context, objectKey string) ([]*models.ReplicationRecord, error) {
	return app.tracker.History(ctx, objectKey)
}

// Fetch retrieves the envelope from the first backend that still holds an
// intact copy and returns the decrypted payload. A backend whose copy is
// missing, unreachable, or undecryptable is skipped with a warning.
func (app *App) Fetch(ctx context.Context, objectKey string) ([]byte, error) {
	for _, b := range app.backends {
		data, err := b.Get(ctx, objectKey)
		if err != nil {
			app.logger.Warn(ctx, "fetch: backend read failed",
				"backend", b.Name(), "object_key", objectKey, "error", err.Error())
			continue
		}

		plaintext, err := cryptox.DecryptBytes(data, app.masterKey)
		if err != nil {
			app.logger.Warn(ctx, "fetch: stored envelope does not decrypt",
				"backend", b.Name(), "object_key", objectKey, "error", err.Error())
			continue
		}
		return plaintext, nil
	}
	return nil, fmt.Errorf("fetch %q: no backend holds a readable copy: %w", objectKey, common.ErrorNotFound)
}

// Stat describes the object on every backend, including the at-rest
// encryption each one applies on top of the envelope.
func (app *App) Stat(ctx context.Context, objectKey string) (map[string]models.ObjectInfo, error) {
	out := make(map[string]models.ObjectInfo, len(app.backends))
	for _, b := range app.backends {
		info, err := b.Stat(ctx, objectKey)
		if err != nil {
			return nil, fmt.Errorf("stat %q on %s: %w", objectKey, b.Name(), err)
		}
		out[b.Name()] = info
	}
	return out, nil
}

// EnsureBuckets creates missing buckets and containers. Failures are logged
// and skipped so one unreachable backend does not block the rest; writes to
// it will surface in replication records instead.
func (app *App) EnsureBuckets(ctx context.Context) {
	for _, b := range app.backends {
		if err := b.EnsureBucket(ctx); err != nil {
			app.logger.Warn(ctx, "bucket provisioning failed",
				"backend", b.Name(), "error", err.Error())
			continue
		}
		app.logger.Debug(ctx, "bucket ready", "backend", b.Name())
	}
}

// Seed replicates every *.txt file in dir, using the file name as the
// object key. It stops on the first replication error.
func (app *App) Seed(ctx context.Context, dir string) error {
	paths, err := filepath.Glob(filepath.Join(dir, "*.txt"))
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}

	for _, path := range paths {
		payload, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("seed %q: %w", path, err)
		}

		key := filepath.Base(path)
		rec, err := app.Replicate(ctx, key, payload)
		if err != nil {
			return err
		}
		app.logger.Info(ctx, "seeded object",
			"object_key", key, "record_id", rec.ID)
	}
	return nil
}

// Close releases the record store and backend clients.
func (app *App) Close() error {
	if err := app.gcs.Close(); err != nil {
		return err
	}
	return app.db.Close()
}
