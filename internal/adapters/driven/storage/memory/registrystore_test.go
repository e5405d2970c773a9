package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inquora/inquora-cli/internal/core/domain"
)

func TestRegistryStoreSaveAndGet(t *testing.T) {
	store := NewRegistryStore()
	doc := &domain.Document{ID: "d1", URI: "/tmp/a.txt", Status: domain.StatusUnindexed}

	require.NoError(t, store.Save(context.Background(), doc))

	got, err := store.Get(context.Background(), "d1")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/a.txt", got.URI)
}

func TestRegistryStoreGetNotFound(t *testing.T) {
	store := NewRegistryStore()
	_, err := store.Get(context.Background(), "missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestRegistryStoreListOrderedByID(t *testing.T) {
	store := NewRegistryStore()
	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, store.Save(context.Background(), &domain.Document{ID: id}))
	}

	docs, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "a", docs[0].ID)
	assert.Equal(t, "b", docs[1].ID)
	assert.Equal(t, "c", docs[2].ID)
}

func TestRegistryStoreDelete(t *testing.T) {
	store := NewRegistryStore()
	require.NoError(t, store.Save(context.Background(), &domain.Document{ID: "d1"}))
	require.NoError(t, store.Delete(context.Background(), "d1"))

	_, err := store.Get(context.Background(), "d1")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestRegistryStoreSaveIsolatesCaller(t *testing.T) {
	store := NewRegistryStore()
	doc := &domain.Document{ID: "d1", Status: domain.StatusUnindexed}
	require.NoError(t, store.Save(context.Background(), doc))

	// Mutating the caller's copy must not affect the stored record.
	doc.Status = domain.StatusFailed

	got, err := store.Get(context.Background(), "d1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusUnindexed, got.Status)
}
