package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/selectdimensions/react-flow-testbed/pkg/api"
)

// SQLiteStore keeps snapshots in a single SQLite table
type SQLiteStore struct {
	db    *sql.DB
	clock clock
}

const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS flows (
		id         TEXT PRIMARY KEY,
		data       TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS flows_created_at ON flows (created_at)
`

const sqliteSelect = `SELECT id, data, created_at, updated_at FROM flows`

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens (creating if needed) the SQLite database at path.
// ":memory:" gives a private in-memory database
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpenStore, err)
	}
	s, err := NewSQLiteStore(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLiteStore wraps an open database handle and ensures the schema
// exists. The store takes ownership of db
func NewSQLiteStore(ctx context.Context, db *sql.DB) (*SQLiteStore, error) {
	// A single connection keeps ":memory:" databases coherent and
	// serializes writers
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpenStore, err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Create(ctx context.Context, data []byte) (*Record, error) {
	rec, err := newRecord(&s.clock, data)
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO flows (id, data, created_at, updated_at)
		 VALUES (?, ?, ?, ?)`,
		string(rec.ID), string(rec.Data),
		rec.CreatedAt.UnixMicro(), rec.UpdatedAt.UnixMicro(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to save flow: %w", err)
	}
	return rec, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id api.FlowID) (*Record, error) {
	row := s.db.QueryRowContext(ctx, sqliteSelect+` WHERE id = ?`, string(id))
	rec, err := scanSQLiteRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(id)
	}
	return rec, err
}

func (s *SQLiteStore) GetLatest(ctx context.Context) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		sqliteSelect+` ORDER BY created_at DESC, rowid DESC LIMIT 1`,
	)
	rec, err := scanSQLiteRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(api.LatestFlowID)
	}
	return rec, err
}

func (s *SQLiteStore) List(ctx context.Context) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx,
		sqliteSelect+` ORDER BY created_at DESC, rowid DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list flows: %w", err)
	}
	defer func() { _ = rows.Close() }()

	res := []*Record{}
	for rows.Next() {
		rec, err := scanSQLiteRecord(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list flows: %w", err)
	}
	return res, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id api.FlowID) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM flows WHERE id = ?`, string(id),
	)
	if err != nil {
		return fmt.Errorf("failed to delete flow: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete flow: %w", err)
	}
	if n == 0 {
		return notFound(id)
	}
	return nil
}

func (s *SQLiteStore) Backend() string {
	return BackendSQLite
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteRecord(row rowScanner) (*Record, error) {
	var id, data string
	var created, updated int64
	if err := row.Scan(&id, &data, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load flow: %w", err)
	}
	return &Record{
		ID:        api.FlowID(id),
		Data:      []byte(data),
		CreatedAt: time.UnixMicro(created).UTC(),
		UpdatedAt: time.UnixMicro(updated).UTC(),
	}, nil
}
