// Package sqlite is the default row store, a single SQLite file accessed
// through database/sql and the pure-Go modernc driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"labeltree/domain/core/entities"
)

// connPragmas run on every pooled connection
const connPragmas = "_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

// buildDSN appends the connection pragmas to path, which may be a plain file
// path or a file: URI that already carries query parameters.
func buildDSN(path string) string {
	if strings.Contains(path, "?") {
		return path + "&" + connPragmas
	}
	return path + "?" + connPragmas
}

// Store implements ports.NodeStore over the nodes table.
type Store struct {
	db     *sql.DB
	path   string
	logger *zap.Logger
}

// Open opens (or creates) the database at path, enables WAL and foreign
// keys on every pooled connection and creates the schema if missing.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if path == "" {
		return nil, errors.New("sqlite: database path must not be empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("sqlite", buildDSN(path))
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info("Persistence layer ready", zap.String("driver", "sqlite"), zap.String("path", path))

	return &Store{db: db, path: path, logger: logger}, nil
}

// ScanAll returns every node in insertion (rowid) order.
func (s *Store) ScanAll(ctx context.Context) ([]*entities.NodeRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, label, parent_id FROM nodes ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("scan nodes: %w", err)
	}
	defer rows.Close()

	records := make([]*entities.NodeRecord, 0)
	for rows.Next() {
		var (
			id, label string
			parentID  sql.NullString
		)
		if err := rows.Scan(&id, &label, &parentID); err != nil {
			return nil, fmt.Errorf("scan node row: %w", err)
		}
		records = append(records, entities.ReconstructNodeRecord(id, label, nullableString(parentID)))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate nodes: %w", err)
	}
	return records, nil
}

// GetByID returns (nil, nil) when no node has the id.
func (s *Store) GetByID(ctx context.Context, id string) (*entities.NodeRecord, error) {
	var (
		label    string
		parentID sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT label, parent_id FROM nodes WHERE id = ?`, id,
	).Scan(&label, &parentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get node %s: %w", id, err)
	}
	return entities.ReconstructNodeRecord(id, label, nullableString(parentID)), nil
}

// Insert writes one row. The primary key rejects duplicate ids and the
// foreign key rejects a parent that does not exist.
func (s *Store) Insert(ctx context.Context, record *entities.NodeRecord) error {
	var parentID sql.NullString
	if p := record.ParentIDString(); p != nil {
		parentID = sql.NullString{String: *p, Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO nodes (id, label, parent_id) VALUES (?, ?, ?)`,
		record.ID().String(), record.Label(), parentID,
	)
	if err != nil {
		return fmt.Errorf("insert node %s: %w", record.ID().String(), err)
	}
	return nil
}

// Count returns the number of stored nodes.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM nodes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count nodes: %w", err)
	}
	return n, nil
}

// Ping implements ports.HealthChecker.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *Store) Close() error {
	err := s.db.Close()
	s.logger.Info("Database connection closed", zap.String("path", s.path))
	return err
}

func nullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
