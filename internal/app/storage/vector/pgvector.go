package vector

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	apperrors "embedding-harmonizer/internal/app/errors"
	"embedding-harmonizer/internal/app/logging"
)

// DefaultTable is the pgvector table name when none is configured.
const DefaultTable = "harmonized_embeddings"

var tableNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// PgVectorSink stores every model's standardized vectors in one pgvector
// column of fixed dimension.
type PgVectorSink struct {
	db        *sql.DB
	table     string
	dimension int
	logger    logging.Logger
}

// OpenPgVectorSink connects to PostgreSQL and prepares the table
func OpenPgVectorSink(ctx context.Context, dsn, table string, dimension int, logger logging.Logger) (*PgVectorSink, error) {
	if dsn == "" {
		return nil, apperrors.RequiredField("sink.postgres_dsn")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to open pgvector database")
	}
	s, err := NewPgVectorSink(db, table, dimension, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewPgVectorSink wraps an open database
func NewPgVectorSink(db *sql.DB, table string, dimension int, logger logging.Logger) (*PgVectorSink, error) {
	if table == "" {
		table = DefaultTable
	}
	if !tableNamePattern.MatchString(table) {
		return nil, apperrors.InvalidField("sink.table", table)
	}
	if dimension <= 0 {
		return nil, apperrors.OutOfRange("sink dimension", 1, "any")
	}
	return &PgVectorSink{db: db, table: table, dimension: dimension, logger: logging.OrNop(logger)}, nil
}

// Migrate enables the extension and creates the table and index
func (s *PgVectorSink) Migrate(ctx context.Context) error {
	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id               UUID PRIMARY KEY,
			model_key        TEXT NOT NULL,
			native_dimension INTEGER NOT NULL,
			source_id        TEXT NOT NULL,
			chunk_index      INTEGER NOT NULL,
			chunk_text       TEXT,
			attributes       JSONB,
			embedding        vector(%d) NOT NULL,
			created_at       TIMESTAMPTZ NOT NULL
		)`, s.table, s.dimension),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_model_key_idx ON %s (model_key)`, s.table, s.table),
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return apperrors.Wrap(err, "failed to migrate pgvector table")
		}
	}
	return nil
}

// Dimension returns the column dimension
func (s *PgVectorSink) Dimension() int { return s.dimension }

// Store inserts rec, replacing any row with the same id
func (s *PgVectorSink) Store(ctx context.Context, rec Record) (string, error) {
	if err := validateRecord(rec, s.dimension); err != nil {
		return "", err
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	attrs, err := json.Marshal(rec.Chunk.Attributes)
	if err != nil {
		return "", apperrors.Wrap(err, "failed to encode chunk attributes")
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, model_key, native_dimension, source_id, chunk_index, chunk_text, attributes, embedding, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			model_key = EXCLUDED.model_key,
			native_dimension = EXCLUDED.native_dimension,
			embedding = EXCLUDED.embedding
	`, s.table)

	_, err = s.db.ExecContext(ctx, query,
		rec.ID, rec.ModelKey, rec.NativeDimension,
		rec.Chunk.SourceID, rec.Chunk.ChunkIndex, rec.Chunk.Text, string(attrs),
		pgvector.NewVector(rec.Vector), rec.CreatedAt)
	if err != nil {
		return "", apperrors.Wrapf(err, "failed to store %s embedding", rec.ModelKey)
	}
	return rec.ID, nil
}

// Nearest orders rows by cosine distance to query
func (s *PgVectorSink) Nearest(ctx context.Context, query []float32, limit int) ([]Match, error) {
	if err := validateQuery(query, s.dimension); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	q := fmt.Sprintf(`
		SELECT id, model_key, source_id, chunk_index, chunk_text, 1 - (embedding <=> $1) AS score
		FROM %s
		ORDER BY embedding <=> $1
		LIMIT $2
	`, s.table)

	rows, err := s.db.QueryContext(ctx, q, pgvector.NewVector(query), limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to search embeddings")
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var (
			m    Match
			text sql.NullString
		)
		if err := rows.Scan(&m.ID, &m.ModelKey, &m.Chunk.SourceID, &m.Chunk.ChunkIndex, &text, &m.Score); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan match")
		}
		m.Chunk.Text = text.String
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate matches")
	}
	return matches, nil
}

// Get loads a stored vector by id
func (s *PgVectorSink) Get(ctx context.Context, id string) ([]float32, error) {
	var v pgvector.Vector
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT embedding FROM %s WHERE id = $1`, s.table), id).Scan(&v)
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFound("record", id)
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to get embedding")
	}
	return v.Slice(), nil
}

// Close closes the database connection
func (s *PgVectorSink) Close() error {
	return s.db.Close()
}
