package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/selectdimensions/react-flow-testbed/pkg/api"
)

// PostgresStore keeps snapshots in a PostgreSQL table
type PostgresStore struct {
	pool  *pgxpool.Pool
	clock clock
}

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS flows (
		seq        BIGSERIAL,
		id         TEXT PRIMARY KEY,
		data       TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS flows_created_at ON flows (created_at)
`

const postgresSelect = `SELECT id, data, created_at, updated_at FROM flows`

var _ Store = (*PostgresStore)(nil)

// OpenPostgres connects a pool to the database at dbURL and ensures the
// schema exists
func OpenPostgres(ctx context.Context, dbURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpenStore, err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: %w", ErrOpenStore, err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Create(
	ctx context.Context, data []byte,
) (*Record, error) {
	rec, err := newRecord(&s.clock, data)
	if err != nil {
		return nil, err
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO flows (id, data, created_at, updated_at)
		 VALUES ($1, $2, $3, $4)`,
		string(rec.ID), string(rec.Data), rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to save flow: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) Get(
	ctx context.Context, id api.FlowID,
) (*Record, error) {
	row := s.pool.QueryRow(ctx, postgresSelect+` WHERE id = $1`, string(id))
	rec, err := scanPostgresRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound(id)
	}
	return rec, err
}

func (s *PostgresStore) GetLatest(ctx context.Context) (*Record, error) {
	row := s.pool.QueryRow(ctx,
		postgresSelect+` ORDER BY created_at DESC, seq DESC LIMIT 1`,
	)
	rec, err := scanPostgresRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound(api.LatestFlowID)
	}
	return rec, err
}

func (s *PostgresStore) List(ctx context.Context) ([]*Record, error) {
	rows, err := s.pool.Query(ctx,
		postgresSelect+` ORDER BY created_at DESC, seq DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list flows: %w", err)
	}
	defer rows.Close()

	res := []*Record{}
	for rows.Next() {
		rec, err := scanPostgresRecord(rows)
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

func (s *PostgresStore) Delete(ctx context.Context, id api.FlowID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM flows WHERE id = $1`, string(id))
	if err != nil {
		return fmt.Errorf("failed to delete flow: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound(id)
	}
	return nil
}

func (s *PostgresStore) Backend() string {
	return BackendPostgres
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func scanPostgresRecord(row pgx.Row) (*Record, error) {
	var id, data string
	rec := &Record{}
	err := row.Scan(&id, &data, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load flow: %w", err)
	}
	rec.ID = api.FlowID(id)
	rec.Data = []byte(data)
	rec.CreatedAt = rec.CreatedAt.UTC()
	rec.UpdatedAt = rec.UpdatedAt.UTC()
	return rec, nil
}
