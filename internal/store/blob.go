package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"

	_ "gocloud.dev/blob/azureblob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"

	"github.com/selectdimensions/react-flow-testbed/pkg/api"
)

// BlobStore keeps one JSON object per snapshot in a bucket, supporting S3,
// GCS, Azure Blob Storage, local directories and memory
type BlobStore struct {
	bucket *blob.Bucket
	prefix string
	clock  clock
}

type blobRecord struct {
	ID        api.FlowID      `json:"id"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

const blobSuffix = ".json"

var _ Store = (*BlobStore)(nil)

// OpenBlob opens the bucket at bucketURL. Objects are written under prefix
func OpenBlob(
	ctx context.Context, bucketURL, prefix string,
) (*BlobStore, error) {
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpenStore, err)
	}
	return &BlobStore{bucket: bucket, prefix: prefix}, nil
}

func (s *BlobStore) Create(ctx context.Context, data []byte) (*Record, error) {
	rec, err := newRecord(&s.clock, data)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(blobRecord{
		ID:        rec.ID,
		Data:      rec.Data,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save flow: %w", err)
	}

	err = s.bucket.WriteAll(ctx, s.keyFor(rec.ID), body, &blob.WriterOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save flow: %w", err)
	}
	return rec, nil
}

func (s *BlobStore) Get(ctx context.Context, id api.FlowID) (*Record, error) {
	return s.read(ctx, id, s.keyFor(id))
}

func (s *BlobStore) GetLatest(ctx context.Context) (*Record, error) {
	recs, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, notFound(api.LatestFlowID)
	}
	return recs[0], nil
}

func (s *BlobStore) List(ctx context.Context) ([]*Record, error) {
	res := []*Record{}
	iter := s.bucket.List(&blob.ListOptions{Prefix: s.prefix})
	for {
		obj, err := iter.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list flows: %w", err)
		}
		if obj.IsDir || !strings.HasSuffix(obj.Key, blobSuffix) {
			continue
		}

		id := s.idFor(obj.Key)
		rec, err := s.read(ctx, id, obj.Key)
		if errors.Is(err, ErrFlowNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	sortNewestFirst(res)
	return res, nil
}

func (s *BlobStore) Delete(ctx context.Context, id api.FlowID) error {
	err := s.bucket.Delete(ctx, s.keyFor(id))
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return notFound(id)
		}
		return fmt.Errorf("failed to delete flow: %w", err)
	}
	return nil
}

func (s *BlobStore) Backend() string {
	return BackendBlob
}

func (s *BlobStore) Close() error {
	return s.bucket.Close()
}

func (s *BlobStore) read(
	ctx context.Context, id api.FlowID, key string,
) (*Record, error) {
	body, err := s.bucket.ReadAll(ctx, key)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, notFound(id)
		}
		return nil, fmt.Errorf("failed to load flow: %w", err)
	}

	var br blobRecord
	if err := json.Unmarshal(body, &br); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorruptRecord, id, err)
	}
	return &Record{
		ID:        id,
		Data:      []byte(br.Data),
		CreatedAt: br.CreatedAt.UTC(),
		UpdatedAt: br.UpdatedAt.UTC(),
	}, nil
}

func (s *BlobStore) keyFor(id api.FlowID) string {
	return s.prefix + string(id) + blobSuffix
}

func (s *BlobStore) idFor(key string) api.FlowID {
	key = strings.TrimPrefix(key, s.prefix)
	return api.FlowID(strings.TrimSuffix(key, blobSuffix))
}
