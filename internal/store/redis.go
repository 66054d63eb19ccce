package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/selectdimensions/react-flow-testbed/pkg/api"
)

// RedisStore keeps each snapshot in a hash and indexes creation order in a
// sorted set scored by creation time
type RedisStore struct {
	client *redis.Client
	prefix string
	clock  clock
}

const (
	redisFieldData      = "data"
	redisFieldCreatedAt = "created_at"
	redisFieldUpdatedAt = "updated_at"
)

var _ Store = (*RedisStore)(nil)

// OpenRedis connects to the server at redisURL. Every key written is
// placed under prefix
func OpenRedis(
	ctx context.Context, redisURL, prefix string,
) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpenStore, err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: %w", ErrOpenStore, err)
	}
	return NewRedisStore(client, prefix), nil
}

// NewRedisStore wraps an existing client. The store takes ownership of it
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: prefix,
	}
}

func (s *RedisStore) Create(ctx context.Context, data []byte) (*Record, error) {
	rec, err := newRecord(&s.clock, data)
	if err != nil {
		return nil, err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.flowKey(rec.ID),
			redisFieldData, rec.Data,
			redisFieldCreatedAt, rec.CreatedAt.UnixMicro(),
			redisFieldUpdatedAt, rec.UpdatedAt.UnixMicro(),
		)
		pipe.ZAdd(ctx, s.indexKey(), redis.Z{
			Score:  float64(rec.CreatedAt.UnixMicro()),
			Member: string(rec.ID),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save flow: %w", err)
	}
	return rec, nil
}

func (s *RedisStore) Get(ctx context.Context, id api.FlowID) (*Record, error) {
	fields, err := s.client.HGetAll(ctx, s.flowKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load flow: %w", err)
	}
	if len(fields) == 0 {
		return nil, notFound(id)
	}
	return redisRecord(id, fields)
}

// GetLatest walks the index from the newest entry, skipping flows whose
// hash is already gone because a delete landed between the two reads
func (s *RedisStore) GetLatest(ctx context.Context) (*Record, error) {
	maxScore := "+inf"
	for {
		entries, err := s.client.ZRevRangeByScoreWithScores(
			ctx, s.indexKey(), &redis.ZRangeBy{
				Max:   maxScore,
				Min:   "-inf",
				Count: 1,
			},
		).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to load flow: %w", err)
		}
		if len(entries) == 0 {
			return nil, notFound(api.LatestFlowID)
		}

		id, _ := entries[0].Member.(string)
		rec, err := s.Get(ctx, api.FlowID(id))
		if errors.Is(err, ErrFlowNotFound) {
			maxScore = "(" + strconv.FormatInt(int64(entries[0].Score), 10)
			continue
		}
		return rec, err
	}
}

func (s *RedisStore) List(ctx context.Context) ([]*Record, error) {
	ids, err := s.client.ZRevRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list flows: %w", err)
	}

	cmds := make([]*redis.MapStringStringCmd, len(ids))
	_, err = s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.HGetAll(ctx, s.flowKey(api.FlowID(id)))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list flows: %w", err)
	}

	res := make([]*Record, 0, len(ids))
	for i, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			// removed between the index read and the fetch
			continue
		}
		rec, err := redisRecord(api.FlowID(ids[i]), fields)
		if err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	return res, nil
}

func (s *RedisStore) Delete(ctx context.Context, id api.FlowID) error {
	var del *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, s.flowKey(id))
		pipe.ZRem(ctx, s.indexKey(), string(id))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete flow: %w", err)
	}
	if del.Val() == 0 {
		return notFound(id)
	}
	return nil
}

func (s *RedisStore) Backend() string {
	return BackendRedis
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) flowKey(id api.FlowID) string {
	return s.prefix + "flow:" + string(id)
}

func (s *RedisStore) indexKey() string {
	return s.prefix + "flows"
}

func redisRecord(id api.FlowID, fields map[string]string) (*Record, error) {
	data, ok := fields[redisFieldData]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCorruptRecord, id)
	}
	created, err := redisTime(fields[redisFieldCreatedAt])
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorruptRecord, id, err)
	}
	updated, err := redisTime(fields[redisFieldUpdatedAt])
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorruptRecord, id, err)
	}
	return &Record{
		ID:        id,
		Data:      []byte(data),
		CreatedAt: created,
		UpdatedAt: updated,
	}, nil
}

func redisTime(s string) (time.Time, error) {
	micros, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMicro(micros).UTC(), nil
}
