package logstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"

	"waypoint/internal/assistant"
)

const interactionsSchema = `
CREATE TABLE IF NOT EXISTS interactions (
	id          TEXT PRIMARY KEY,
	session_id  TEXT,
	client_key  TEXT,
	created_at  TIMESTAMPTZ NOT NULL,
	mode        TEXT,
	archetype   TEXT,
	status      TEXT NOT NULL,
	reason      TEXT,
	query       TEXT NOT NULL,
	answer      TEXT,
	similarity  DOUBLE PRECISION,
	margin      DOUBLE PRECISION,
	snapped     BOOLEAN,
	latency_ms  BIGINT,
	error       TEXT,
	detail      JSONB
)`

// PostgresStore appends interaction rows over the pgx stdlib driver. The
// variable-shape parts (chunks, breakdown, intents, usage) live in one JSONB
// detail column; the queryable facts get their own columns.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}
	if _, err := db.ExecContext(ctx, interactionsSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ensure interactions table: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

type recordDetail struct {
	Intents   []string                   `json:"intents,omitempty"`
	Chunks    []assistant.RetrievedChunk `json:"chunks,omitempty"`
	Breakdown map[string]float64         `json:"breakdown,omitempty"`
	Usage     *assistant.TokenUsage      `json:"usage,omitempty"`
	Prompt    string                     `json:"prompt,omitempty"`
}

func (s *PostgresStore) Insert(ctx context.Context, rec *assistant.Interaction) error {
	detail, err := json.Marshal(recordDetail{
		Intents:   rec.Intents,
		Chunks:    rec.Chunks,
		Breakdown: rec.Breakdown,
		Usage:     rec.Usage,
		Prompt:    rec.Prompt,
	})
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO interactions
			(id, session_id, client_key, created_at, mode, archetype, status,
			 reason, query, answer, similarity, margin, snapped, latency_ms, error, detail)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
		rec.ID, rec.SessionID, rec.ClientKey, rec.CreatedAt, rec.Mode, rec.Archetype,
		rec.Status, rec.Reason, rec.Query, rec.Answer, rec.Similarity, rec.Margin,
		rec.Snapped, rec.LatencyMs, rec.Error, detail)
	return err
}

func (s *PostgresStore) Recent(ctx context.Context, limit int) ([]*assistant.Interaction, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, client_key, created_at, mode, archetype, status,
		       reason, query, answer, similarity, margin, snapped, latency_ms, error, detail
		FROM interactions ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*assistant.Interaction
	for rows.Next() {
		rec := &assistant.Interaction{}
		var detail []byte
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.ClientKey, &rec.CreatedAt,
			&rec.Mode, &rec.Archetype, &rec.Status, &rec.Reason, &rec.Query, &rec.Answer,
			&rec.Similarity, &rec.Margin, &rec.Snapped, &rec.LatencyMs, &rec.Error, &detail); err != nil {
			return nil, err
		}
		var d recordDetail
		if len(detail) > 0 {
			if err := json.Unmarshal(detail, &d); err == nil {
				rec.Intents = d.Intents
				rec.Chunks = d.Chunks
				rec.Breakdown = d.Breakdown
				rec.Usage = d.Usage
				rec.Prompt = d.Prompt
			}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Close() error { return s.db.Close() }
