package store

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/muurk/mcparam/internal/logging"
	"github.com/muurk/mcparam/internal/param"
)

const schema = `
CREATE TABLE IF NOT EXISTS parameters (
	seq   INTEGER NOT NULL,
	name  TEXT    NOT NULL PRIMARY KEY,
	type  TEXT    NOT NULL,
	value TEXT    NOT NULL
);`

// SQLite stores parameters in a single table of a SQLite database.
type SQLite struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens or creates the database at path and ensures the schema.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parameter database %s: %w", path, err)
	}
	// One connection keeps writers serialized and in-memory databases intact.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create parameter table: %w", err)
	}
	return &SQLite{db: db, path: path}, nil
}

// Load returns all rows ordered as they were saved.
// Rows with an unknown type-tag or unparseable value are logged and skipped.
func (s *SQLite) Load(ctx context.Context) ([]param.Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, type, value FROM parameters ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to query parameters: %w", err)
	}
	defer rows.Close()

	var records []param.Record
	for rows.Next() {
		var e entry
		if err := rows.Scan(&e.Name, &e.Type, &e.Value); err != nil {
			return nil, fmt.Errorf("failed to scan parameter row: %w", err)
		}
		rec, err := e.record()
		if err != nil {
			logging.Warn("Skipping malformed parameter row",
				zap.String("path", s.path),
				zap.Error(err),
			)
			continue
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read parameters: %w", err)
	}
	return records, nil
}

// Save replaces the stored set in one transaction.
func (s *SQLite) Save(ctx context.Context, records []param.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM parameters`); err != nil {
		return fmt.Errorf("failed to clear parameters: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO parameters (seq, name, type, value) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, rec := range records {
		e := toEntry(rec)
		if _, err := stmt.ExecContext(ctx, i, e.Name, e.Type, e.Value); err != nil {
			return fmt.Errorf("failed to insert %s: %w", e.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit parameters: %w", err)
	}

	logging.Debug("Parameters saved", zap.String("path", s.path), zap.Int("count", len(records)))
	return nil
}

// Close closes the database
func (s *SQLite) Close() error {
	return s.db.Close()
}
