package store

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/selectdimensions/react-flow-testbed/pkg/api"
)

type (
	// Store persists flow snapshots. Implementations must be safe for
	// concurrent use
	Store interface {
		// Create stores data under a newly generated ID
		Create(ctx context.Context, data []byte) (*Record, error)

		// Get returns the snapshot stored under id
		Get(ctx context.Context, id api.FlowID) (*Record, error)

		// GetLatest returns the most recently created snapshot
		GetLatest(ctx context.Context) (*Record, error)

		// List returns every snapshot, newest first
		List(ctx context.Context) ([]*Record, error)

		// Delete removes the snapshot stored under id
		Delete(ctx context.Context, id api.FlowID) error

		// Backend names the storage engine, for logs and health checks
		Backend() string

		Close() error
	}

	// Record is a stored flow snapshot. Data is the serialized document
	Record struct {
		ID        api.FlowID
		Data      []byte
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	// clock hands out strictly increasing UTC timestamps at microsecond
	// precision, so creation order is total within a process
	clock struct {
		last time.Time
		mu   sync.Mutex
	}
)

const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendBlob     = "blob"

	DefaultRedisPrefix = "flowapi:"
	DefaultBlobPrefix  = "flows/"
)

var (
	ErrFlowNotFound   = errors.New("flow not found")
	ErrUnsupportedURL = errors.New("unsupported database URL")
	ErrOpenStore      = errors.New("failed to open store")
	ErrEmptyDocument  = errors.New("flow document is empty")
	ErrCorruptRecord  = errors.New("corrupt flow record")
)

// Open connects to the backend named by the database URL scheme:
//
//	memory://                       in-process map
//	sqlite://<path>                 SQLite file (sqlite:///<path> also works)
//	postgres://, postgresql://      PostgreSQL
//	redis://, rediss://             Redis
//	mem://, file://, s3://, gs://,
//	azblob://                       blob bucket
func Open(ctx context.Context, dbURL string) (Store, error) {
	scheme, rest, ok := strings.Cut(dbURL, "://")
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedURL, dbURL)
	}

	switch scheme {
	case "memory":
		return NewMemoryStore(), nil
	case "sqlite", "sqlite3":
		return OpenSQLite(ctx, sqlitePath(rest))
	case "postgres", "postgresql":
		return OpenPostgres(ctx, dbURL)
	case "redis", "rediss":
		return OpenRedis(ctx, dbURL, DefaultRedisPrefix)
	case "mem", "file", "s3", "gs", "azblob":
		return OpenBlob(ctx, dbURL, DefaultBlobPrefix)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedURL, dbURL)
	}
}

// sqlitePath follows the SQLAlchemy convention: three slashes introduce a
// relative path and four an absolute one
func sqlitePath(rest string) string {
	if strings.HasPrefix(rest, "/") {
		return rest[1:]
	}
	return rest
}

func newID() api.FlowID {
	return api.FlowID(uuid.NewString())
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := time.Now().UTC().Truncate(time.Microsecond)
	if !t.After(c.last) {
		t = c.last.Add(time.Microsecond)
	}
	c.last = t
	return t
}

func newRecord(c *clock, data []byte) (*Record, error) {
	if len(data) == 0 {
		return nil, ErrEmptyDocument
	}
	now := c.now()
	return &Record{
		ID:        newID(),
		Data:      slices.Clone(data),
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// sortNewestFirst orders records by creation time, newest first
func sortNewestFirst(recs []*Record) {
	slices.SortStableFunc(recs, func(l, r *Record) int {
		return cmp.Compare(r.CreatedAt.UnixMicro(), l.CreatedAt.UnixMicro())
	})
}

func notFound(id api.FlowID) error {
	return fmt.Errorf("%w: %s", ErrFlowNotFound, id)
}
