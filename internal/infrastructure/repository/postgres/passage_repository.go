package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kirillkom/expert-assistant/internal/core/domain"
)

const passageLockKey = int64(2026101901)

// PassageRepository keeps the passage store in two tables. A save replaces
// every row in one transaction; a load verifies the stored segment count.
type PassageRepository struct {
	db *sql.DB
}

func NewPassageRepository(db *sql.DB) *PassageRepository {
	return &PassageRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *PassageRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/indexer startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, passageLockKey); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS passage_index (
	id SMALLINT PRIMARY KEY CHECK (id = 1),
	model TEXT NOT NULL,
	dimension INTEGER NOT NULL,
	segment_count INTEGER NOT NULL,
	built_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS passages (
	ordinal INTEGER PRIMARY KEY,
	text TEXT NOT NULL,
	embedding JSONB NOT NULL
);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *PassageRepository) Save(ctx context.Context, store *domain.PassageStore) error {
	if err := store.Validate(); err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, passageLockKey); err != nil {
		return fmt.Errorf("acquire passage lock: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM passages`); err != nil {
		return fmt.Errorf("clear passages: %w", err)
	}

	for i, seg := range store.Segments {
		embedding, err := json.Marshal(store.Vectors[i])
		if err != nil {
			return fmt.Errorf("marshal embedding %d: %w", i, err)
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO passages (ordinal, text, embedding) VALUES ($1, $2, $3)
`, seg.Ordinal, seg.Text, embedding); err != nil {
			return fmt.Errorf("insert passage %d: %w", i, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
INSERT INTO passage_index (id, model, dimension, segment_count, built_at)
VALUES (1, $1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE
SET model = EXCLUDED.model,
	dimension = EXCLUDED.dimension,
	segment_count = EXCLUDED.segment_count,
	built_at = EXCLUDED.built_at
`, store.Model, store.Dimension, store.Len(), store.BuiltAt); err != nil {
		return fmt.Errorf("upsert passage index: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save tx: %w", err)
	}
	return nil
}

func (r *PassageRepository) Load(ctx context.Context) (*domain.PassageStore, error) {
	store := &domain.PassageStore{}
	var count int
	err := r.db.QueryRowContext(ctx, `
SELECT model, dimension, segment_count, built_at
FROM passage_index
WHERE id = 1
`).Scan(&store.Model, &store.Dimension, &count, &store.BuiltAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.WrapError(domain.ErrIndexNotFound, "load passage index", err)
	}
	if err != nil {
		return nil, fmt.Errorf("scan passage index: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT ordinal, text, embedding
FROM passages
ORDER BY ordinal ASC
`)
	if err != nil {
		return nil, fmt.Errorf("query passages: %w", err)
	}
	defer rows.Close()

	store.Segments = make([]domain.Segment, 0, count)
	store.Vectors = make([][]float32, 0, count)
	for rows.Next() {
		var seg domain.Segment
		var raw []byte
		if err := rows.Scan(&seg.Ordinal, &seg.Text, &raw); err != nil {
			return nil, fmt.Errorf("scan passage: %w", err)
		}
		var vec []float32
		if err := json.Unmarshal(raw, &vec); err != nil {
			return nil, fmt.Errorf("unmarshal embedding %d: %w", seg.Ordinal, err)
		}
		store.Segments = append(store.Segments, seg)
		store.Vectors = append(store.Vectors, vec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate passages: %w", err)
	}

	if len(store.Segments) != count {
		return nil, domain.WrapError(domain.ErrIndexMismatch, "load passages",
			fmt.Errorf("index records %d segments, table has %d", count, len(store.Segments)))
	}
	if err := store.Validate(); err != nil {
		return nil, err
	}
	return store, nil
}
