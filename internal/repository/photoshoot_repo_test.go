package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/photoshoot_server/internal/model"
	"github.com/qs3c/photoshoot_server/internal/testutil"
)

func TestPhotoshootRepository_CreateAndGet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewPhotoshootRepository(db)
	ctx := context.Background()

	shoot := &model.Photoshoot{
		ID:              "job-1",
		OwnerID:         "uid-1",
		ArticleType:     "kurta",
		StyleNotes:      "studio light",
		ImageSize:       "large",
		UploadedImages:  model.StringArray{"https://cdn.example.com/a.jpg"},
		GeneratedImages: model.StringArray{"https://gen.example.com/1.png"},
		CreditsCost:     1,
		Status:          model.ShootStatusCompleted,
	}
	require.NoError(t, repo.Create(ctx, shoot))

	found, err := repo.GetByID(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, "kurta", found.ArticleType)
	assert.Equal(t, []string{"https://cdn.example.com/a.jpg"}, []string(found.UploadedImages))
	assert.Equal(t, []string{"https://gen.example.com/1.png"}, found.Images())
	assert.Equal(t, model.MirrorStatusPending, found.MirrorStatus)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrShootNotFound)
}

func TestPhotoshootRepository_ListByOwner(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewPhotoshootRepository(db)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		testutil.TestPhotoshoot(t, db, "uid-1")
	}
	testutil.TestPhotoshoot(t, db, "uid-2")

	shoots, total, err := repo.ListByOwner(ctx, "uid-1", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, shoots, 2)
	for _, s := range shoots {
		assert.Equal(t, "uid-1", s.OwnerID)
	}
}

func TestPhotoshootRepository_Mirror(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewPhotoshootRepository(db)
	ctx := context.Background()

	pending := testutil.TestPhotoshoot(t, db, "uid-1")
	failed := testutil.TestPhotoshoot(t, db, "uid-1", testutil.WithMirrorStatus(model.MirrorStatusFailed, 1))
	testutil.TestPhotoshoot(t, db, "uid-1", testutil.WithMirrorStatus(model.MirrorStatusFailed, 5))
	testutil.TestPhotoshoot(t, db, "uid-1", testutil.WithMirrorStatus(model.MirrorStatusMirrored, 1))

	t.Run("list pending and retryable", func(t *testing.T) {
		shoots, err := repo.ListPendingMirror(ctx, 5, 10)
		require.NoError(t, err)
		ids := make([]string, 0, len(shoots))
		for _, s := range shoots {
			ids = append(ids, s.ID)
		}
		assert.ElementsMatch(t, []string{pending.ID, failed.ID}, ids)
	})

	t.Run("mark mirrored", func(t *testing.T) {
		require.NoError(t, repo.MarkMirrored(ctx, pending.ID, []string{"https://store.example.com/1.png"}))

		found, err := repo.GetByID(ctx, pending.ID)
		require.NoError(t, err)
		assert.Equal(t, model.MirrorStatusMirrored, found.MirrorStatus)
		assert.Equal(t, 1, found.MirrorAttempts)
		assert.Equal(t, []string{"https://store.example.com/1.png"}, found.Images())
	})

	t.Run("mark failed", func(t *testing.T) {
		require.NoError(t, repo.MarkMirrorFailed(ctx, failed.ID, "fetch failed"))

		found, err := repo.GetByID(ctx, failed.ID)
		require.NoError(t, err)
		assert.Equal(t, model.MirrorStatusFailed, found.MirrorStatus)
		assert.Equal(t, 2, found.MirrorAttempts)
		assert.Equal(t, "fetch failed", found.MirrorError)
	})
}
