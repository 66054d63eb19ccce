package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/selectdimensions/react-flow-testbed/internal/store"
)

func TestBlobStoreMemory(t *testing.T) {
	testStore(t, func(t *testing.T) store.Store {
		s, err := store.OpenBlob(context.Background(), "mem://", "flows/")
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestBlobStoreFile(t *testing.T) {
	testStore(t, func(t *testing.T) store.Store {
		url := "file://" + t.TempDir()
		s, err := store.OpenBlob(context.Background(), url, "flows/")
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestBlobStoreReopen(t *testing.T) {
	ctx := context.Background()
	url := "file://" + t.TempDir()

	s, err := store.OpenBlob(ctx, url, "flows/")
	require.NoError(t, err)
	first, err := s.Create(ctx, flowJSON("first"))
	require.NoError(t, err)
	second, err := s.Create(ctx, flowJSON("second"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = store.OpenBlob(ctx, url, "flows/")
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	latest, err := s.GetLatest(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)

	got, err := s.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.JSONEq(t, string(flowJSON("first")), string(got.Data))
}

func TestBlobStoreBadURL(t *testing.T) {
	_, err := store.OpenBlob(context.Background(), "nope://bucket", "")
	assert.ErrorIs(t, err, store.ErrOpenStore)
}
