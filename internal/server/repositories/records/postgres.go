package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dpetrovs/trimirror/internal/common"
	"github.com/dpetrovs/trimirror/internal/dbx"
	"github.com/dpetrovs/trimirror/internal/server/models"
)

// PostgresRepository implements Repository over PostgreSQL. A record and its
// per-backend results are written in one transaction so a partially stored
// record can never be observed.
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Append(ctx context.Context, rec *models.ReplicationRecord) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO replication_records (id, object_key, payload_fingerprint, source_fingerprint, created_at)
			VALUES ($1, $2, $3, $4, $5);
		`, rec.ID, rec.ObjectKey, rec.PayloadFingerprint, rec.SourceFingerprint, rec.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert record: %w", err)
		}

		for i, res := range rec.Results {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO backend_results (record_id, position, backend, ok, fingerprint, error, latency_us)
				VALUES ($1, $2, $3, $4, $5, $6, $7);
			`, rec.ID, i, res.Backend, res.OK, nullIfEmpty(res.Fingerprint), nullIfEmpty(res.Error), res.Latency.Microseconds())
			if err != nil {
				return fmt.Errorf("insert backend result: %w", err)
			}
		}

		return nil
	})
}

func (r *PostgresRepository) LatestByKey(ctx context.Context, objectKey string) (*models.ReplicationRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, object_key, payload_fingerprint, source_fingerprint, created_at
		FROM replication_records
		WHERE object_key = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1;
	`, objectKey)

	rec, err := scanRecord(row)
	if err != nil {
		return nil, err
	}

	if err := r.loadResults(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *PostgresRepository) ListByKey(ctx context.Context, objectKey string) ([]*models.ReplicationRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, object_key, payload_fingerprint, source_fingerprint, created_at
		FROM replication_records
		WHERE object_key = $1
		ORDER BY created_at DESC, id DESC;
	`, objectKey)
	if err != nil {
		return nil, fmt.Errorf("select records: %w", err)
	}
	defer rows.Close()

	var result []*models.ReplicationRecord
	for rows.Next() {
		var rec models.ReplicationRecord
		if err := rows.Scan(&rec.ID, &rec.ObjectKey, &rec.PayloadFingerprint, &rec.SourceFingerprint, &rec.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, rec := range result {
		if err := r.loadResults(ctx, rec); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (r *PostgresRepository) loadResults(ctx context.Context, rec *models.ReplicationRecord) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT backend, ok, fingerprint, error, latency_us
		FROM backend_results
		WHERE record_id = $1
		ORDER BY position;
	`, rec.ID)
	if err != nil {
		return fmt.Errorf("select backend results: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var res models.BackendResult
		var fp, reason sql.NullString
		var latencyUS int64
		if err := rows.Scan(&res.Backend, &res.OK, &fp, &reason, &latencyUS); err != nil {
			return err
		}
		res.Fingerprint = fp.String
		res.Error = reason.String
		res.Latency = time.Duration(latencyUS) * time.Microsecond
		rec.Results = append(rec.Results, res)
	}
	return rows.Err()
}

func scanRecord(row *sql.Row) (*models.ReplicationRecord, error) {
	var rec models.ReplicationRecord
	err := row.Scan(&rec.ID, &rec.ObjectKey, &rec.PayloadFingerprint, &rec.SourceFingerprint, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan record: %w", err)
	}
	return &rec, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
