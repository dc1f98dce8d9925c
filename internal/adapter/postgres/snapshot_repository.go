package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/moltbridge/moltwatch/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	id          BIGSERIAL PRIMARY KEY,
	window_name TEXT        NOT NULL,
	captured_at TIMESTAMPTZ NOT NULL,
	records     JSONB       NOT NULL,
	skipped     INT         NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS snapshots_captured_at_idx ON snapshots (captured_at DESC);
`

// recordRow is the storage shape of a domain.Record.
type recordRow struct {
	ID           string    `json:"id"`
	Body         string    `json:"body"`
	Author       string    `json:"author"`
	Submolt      string    `json:"submolt"`
	Upvotes      int       `json:"upvotes"`
	CommentCount int       `json:"comment_count"`
	CreatedAt    time.Time `json:"created_at"`
}

func encodeRecords(records []domain.Record) ([]byte, error) {
	rows := make([]recordRow, len(records))
	for i, rec := range records {
		rows[i] = recordRow{
			ID:           rec.ID,
			Body:         rec.Body,
			Author:       rec.Author,
			Submolt:      rec.Submolt,
			Upvotes:      rec.Upvotes,
			CommentCount: rec.CommentCount,
			CreatedAt:    rec.CreatedAt,
		}
	}
	payload, err := json.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot records: %w", err)
	}
	return payload, nil
}

func decodeRecords(payload []byte) ([]domain.Record, error) {
	var rows []recordRow
	if err := json.Unmarshal(payload, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot records: %w", err)
	}
	records := make([]domain.Record, len(rows))
	for i, row := range rows {
		records[i] = domain.Record{
			ID:           row.ID,
			Body:         row.Body,
			Author:       row.Author,
			Submolt:      row.Submolt,
			Upvotes:      row.Upvotes,
			CommentCount: row.CommentCount,
			CreatedAt:    row.CreatedAt,
		}
	}
	return records, nil
}

// SnapshotRepo persists snapshots via pgx.
type SnapshotRepo struct {
	pool *pgxpool.Pool
}

func NewSnapshotRepo(pool *pgxpool.Pool) *SnapshotRepo {
	return &SnapshotRepo{pool: pool}
}

// EnsureSchema creates the snapshots table when it does not exist yet.
func (r *SnapshotRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure snapshot schema: %w", err)
	}
	return nil
}

// SaveSnapshot archives one snapshot in a single insert.
func (r *SnapshotRepo) SaveSnapshot(ctx context.Context, snapshot domain.Snapshot) error {
	payload, err := encodeRecords(snapshot.Records)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO snapshots (window_name, captured_at, records, skipped) VALUES ($1, $2, $3, $4)`,
		string(snapshot.Window), snapshot.CapturedAt, payload, snapshot.Skipped,
	)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// LoadLatest returns the most recently captured snapshot.
func (r *SnapshotRepo) LoadLatest(ctx context.Context) (*domain.Snapshot, error) {
	var (
		windowName string
		capturedAt time.Time
		payload    []byte
		skipped    int
	)
	err := r.pool.QueryRow(ctx,
		`SELECT window_name, captured_at, records, skipped FROM snapshots ORDER BY captured_at DESC, id DESC LIMIT 1`,
	).Scan(&windowName, &capturedAt, &payload, &skipped)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load latest snapshot: %w", err)
	}

	records, err := decodeRecords(payload)
	if err != nil {
		return nil, err
	}

	snapshot := domain.Snapshot{
		Window:     domain.Window(windowName),
		CapturedAt: capturedAt,
		Records:    records,
		Skipped:    skipped,
	}
	return &snapshot, nil
}
