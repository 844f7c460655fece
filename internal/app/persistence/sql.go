package persistence

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	apperrors "embedding-harmonizer/internal/app/errors"
	"embedding-harmonizer/internal/app/logging"
	"embedding-harmonizer/internal/app/registry"
)

// Dialect selects the SQL driver and placeholder style.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite3"
	DialectPostgres Dialect = "postgres"
)

// activeSlot is the primary key of the single active-snapshot row.
const activeSlot = 1

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS registry_backups (
		backup_id    TEXT PRIMARY KEY,
		version      BIGINT NOT NULL,
		generated_at TIMESTAMP NOT NULL,
		model_count  INTEGER NOT NULL,
		document     TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS registry_active (
		slot         INTEGER PRIMARY KEY,
		version      BIGINT NOT NULL,
		generated_at TIMESTAMP NOT NULL,
		document     TEXT NOT NULL
	)`,
}

// SQLStore keeps snapshots in SQLite or PostgreSQL. The active snapshot is
// a single row swapped inside a transaction.
type SQLStore struct {
	db        *sql.DB
	dialect   Dialect
	retention int
	logger    logging.Logger
}

// OpenSQLStore opens the database and creates the tables.
func OpenSQLStore(ctx context.Context, dialect Dialect, dsn string, retention int, logger logging.Logger) (*SQLStore, error) {
	if dsn == "" {
		return nil, apperrors.RequiredField("persistence dsn")
	}
	if dialect != DialectSQLite && dialect != DialectPostgres {
		return nil, apperrors.Wrapf(apperrors.ErrUnsupported, "sql dialect %q", dialect)
	}
	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, persistenceFailure(err, "open database")
	}
	s := NewSQLStore(db, dialect, retention, logger)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLStore wraps an open database.
func NewSQLStore(db *sql.DB, dialect Dialect, retention int, logger logging.Logger) *SQLStore {
	return &SQLStore{db: db, dialect: dialect, retention: retention, logger: logging.OrNop(logger)}
}

// Migrate creates the tables if they do not exist.
func (s *SQLStore) Migrate(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return persistenceFailure(err, "create snapshot tables")
		}
	}
	return nil
}

// Name returns the backend name
func (s *SQLStore) Name() string {
	if s.dialect == DialectPostgres {
		return "postgres"
	}
	return "sqlite"
}

// Close closes the database
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// rebind rewrites ? placeholders as $n for PostgreSQL.
func (s *SQLStore) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Backup inserts snap unless its id is already stored, then prunes
func (s *SQLStore) Backup(ctx context.Context, snap *registry.Snapshot) (string, error) {
	doc, err := Encode(snap, FormatJSON)
	if err != nil {
		return "", persistenceFailure(err, "encode backup")
	}
	id := snap.BackupID()

	insert := s.rebind(`INSERT INTO registry_backups (backup_id, version, generated_at, model_count, document)
		VALUES (?, ?, ?, ?, ?) ON CONFLICT (backup_id) DO NOTHING`)
	if _, err := s.db.ExecContext(ctx, insert, id, int64(snap.Version()), snap.GeneratedAt(), snap.Len(), string(doc)); err != nil {
		return "", persistenceFailure(err, "insert backup "+id)
	}

	retention := s.retention
	if retention <= 0 {
		retention = DefaultRetention
	}
	prune := s.rebind(`DELETE FROM registry_backups WHERE backup_id NOT IN (
		SELECT backup_id FROM registry_backups ORDER BY backup_id DESC LIMIT ?)`)
	if res, err := s.db.ExecContext(ctx, prune, retention); err != nil {
		s.logger.Warnw("Failed to prune snapshot backups", "error", err)
	} else if n, _ := res.RowsAffected(); n > 0 {
		s.logger.Debugw("Pruned snapshot backups", "count", n)
	}
	return id, nil
}

// Publish swaps the active row in one transaction
func (s *SQLStore) Publish(ctx context.Context, snap *registry.Snapshot) (err error) {
	doc, err := Encode(snap, FormatJSON)
	if err != nil {
		return persistenceFailure(err, "encode snapshot")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return persistenceFailure(err, "begin publish")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, s.rebind(`DELETE FROM registry_active WHERE slot = ?`), activeSlot); err != nil {
		return persistenceFailure(err, "clear active snapshot")
	}
	insert := s.rebind(`INSERT INTO registry_active (slot, version, generated_at, document) VALUES (?, ?, ?, ?)`)
	if _, err = tx.ExecContext(ctx, insert, activeSlot, int64(snap.Version()), snap.GeneratedAt(), string(doc)); err != nil {
		return persistenceFailure(err, "insert active snapshot")
	}
	if err = tx.Commit(); err != nil {
		return persistenceFailure(err, "commit publish")
	}
	return nil
}

// Restore loads a backup or the defaults
func (s *SQLStore) Restore(ctx context.Context, backupID string) (*registry.Snapshot, error) {
	if backupID == DefaultsID {
		return registry.DefaultSnapshot(), nil
	}
	if err := ValidateBackupID(backupID); err != nil {
		return nil, err
	}

	var doc string
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT document FROM registry_backups WHERE backup_id = ?`), backupID).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.Wrap(apperrors.ErrBackupNotFound, backupID)
	}
	if err != nil {
		return nil, persistenceFailure(err, "load backup "+backupID)
	}
	return Decode([]byte(doc), FormatJSON)
}

// Active loads the active row
func (s *SQLStore) Active(ctx context.Context) (*registry.Snapshot, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT document FROM registry_active WHERE slot = ?`), activeSlot).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrNoActiveSnapshot
	}
	if err != nil {
		return nil, persistenceFailure(err, "load active snapshot")
	}
	return Decode([]byte(doc), FormatJSON)
}

// ListBackups lists backup metadata, newest first
func (s *SQLStore) ListBackups(ctx context.Context) ([]BackupInfo, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT backup_id, version, generated_at, model_count FROM registry_backups ORDER BY backup_id DESC`)
	if err != nil {
		return nil, persistenceFailure(err, "list backups")
	}
	defer rows.Close()

	var infos []BackupInfo
	for rows.Next() {
		var (
			info        BackupInfo
			version     int64
			generatedAt time.Time
		)
		if err := rows.Scan(&info.ID, &version, &generatedAt, &info.Models); err != nil {
			return nil, persistenceFailure(err, "scan backup row")
		}
		info.Version = uint64(version)
		info.GeneratedAt = generatedAt.UTC()
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, persistenceFailure(err, "iterate backups")
	}
	return infos, nil
}
