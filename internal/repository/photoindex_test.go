package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"face-morph-bot/internal/models"
	"face-morph-bot/internal/store"
)

func newTestDocs(t *testing.T) *store.FileDocuments {
	t.Helper()
	docs, err := store.NewFileDocuments(t.TempDir())
	require.NoError(t, err)
	return docs
}

func TestResolveOrRegisterAssignsDenseIDs(t *testing.T) {
	ctx := context.Background()
	repo := NewPhotoIndexRepository(newTestDocs(t))

	idA, err := repo.ResolveOrRegister(ctx, "ext-a")
	require.NoError(t, err)
	idB, err := repo.ResolveOrRegister(ctx, "ext-b")
	require.NoError(t, err)
	idC, err := repo.ResolveOrRegister(ctx, "ext-c")
	require.NoError(t, err)

	assert.Equal(t, 1, idA)
	assert.Equal(t, 2, idB)
	assert.Equal(t, 3, idC)
}

func TestResolveOrRegisterIsStable(t *testing.T) {
	ctx := context.Background()
	repo := NewPhotoIndexRepository(newTestDocs(t))

	first, err := repo.ResolveOrRegister(ctx, "ext-a")
	require.NoError(t, err)
	_, err = repo.ResolveOrRegister(ctx, "ext-b")
	require.NoError(t, err)

	again, err := repo.ResolveOrRegister(ctx, "ext-a")
	require.NoError(t, err)
	assert.Equal(t, first, again)

	// A re-registration must not consume an id.
	next, err := repo.ResolveOrRegister(ctx, "ext-c")
	require.NoError(t, err)
	assert.Equal(t, 3, next)
}

func TestReverseLookup(t *testing.T) {
	ctx := context.Background()
	repo := NewPhotoIndexRepository(newTestDocs(t))

	id, err := repo.ResolveOrRegister(ctx, "ext-a")
	require.NoError(t, err)

	externalID, err := repo.ReverseLookup(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "ext-a", externalID)

	_, err = repo.ReverseLookup(ctx, 99)
	require.ErrorIs(t, err, models.ErrPhotoNotFound)
}
