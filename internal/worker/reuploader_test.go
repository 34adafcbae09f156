package worker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/qs3c/photoshoot_server/internal/model"
	"github.com/qs3c/photoshoot_server/internal/testutil"
)

func TestReuploader_Sweep(t *testing.T) {
	env, cleanup := setupProcessor(t)
	defer cleanup()

	srv := newArtifactServer(t)
	ctx := context.Background()

	pending := testutil.TestPhotoshoot(t, env.db, "uid-ayesha", withImages(srv.URL+"/a.png"))
	retry := testutil.TestPhotoshoot(t, env.db, "uid-bilal", withImages(srv.URL+"/b.png"),
		testutil.WithMirrorStatus(model.MirrorStatusFailed, 1))
	exhausted := testutil.TestPhotoshoot(t, env.db, "uid-bilal", withImages(srv.URL+"/c.png"),
		testutil.WithMirrorStatus(model.MirrorStatusFailed, 3))
	disabled := testutil.TestPhotoshoot(t, env.db, "anon-xyz", withImages(srv.URL+"/d.png"),
		testutil.WithMirrorStatus(model.MirrorStatusDisabled, 0))

	r := NewReuploader(env.repo, env.processor, env.cfg, zap.NewNop())

	assert.Equal(t, 2, r.Sweep(ctx))

	for _, id := range []string{pending.ID, retry.ID} {
		stored, err := env.repo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, model.MirrorStatusMirrored, stored.MirrorStatus, id)
	}

	stored, _ := env.repo.GetByID(ctx, exhausted.ID)
	assert.Equal(t, model.MirrorStatusFailed, stored.MirrorStatus)

	stored, _ = env.repo.GetByID(ctx, disabled.ID)
	assert.Equal(t, model.MirrorStatusDisabled, stored.MirrorStatus)

	// 已全部处理，再次扫描无事可做
	assert.Equal(t, 0, r.Sweep(ctx))
}

func TestReuploader_GivesUpAfterMaxAttempts(t *testing.T) {
	env, cleanup := setupProcessor(t)
	defer cleanup()

	srv := newArtifactServer(t)
	ctx := context.Background()

	shoot := testutil.TestPhotoshoot(t, env.db, "uid-ayesha", withImages(srv.URL+"/missing.png"))
	r := NewReuploader(env.repo, env.processor, env.cfg, zap.NewNop())

	for i := 0; i < 5; i++ {
		r.Sweep(ctx)
	}

	stored, err := env.repo.GetByID(ctx, shoot.ID)
	require.NoError(t, err)
	assert.Equal(t, model.MirrorStatusFailed, stored.MirrorStatus)
	assert.Equal(t, env.cfg.Mirror.MaxAttempts, stored.MirrorAttempts)
}

func TestReuploader_StartStopsOnCancel(t *testing.T) {
	env, cleanup := setupProcessor(t)
	defer cleanup()

	r := NewReuploader(env.repo, env.processor, env.cfg, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		r.Start(ctx)
		close(done)
	}()
	cancel()

	<-done
}
