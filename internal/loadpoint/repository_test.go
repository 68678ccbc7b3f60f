package loadpoint

import (
	"context"
	"math"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/loadsynth/internal/contracts"
	"github.com/wonny/loadsynth/pkg/config"
	"github.com/wonny/loadsynth/pkg/database"
)

func TestRepository_Integration(t *testing.T) {
	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	cfg, err := config.Load()
	require.NoError(t, err)

	ctx := context.Background()
	db, err := database.New(ctx, cfg)
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Migrate(ctx))

	repo := NewRepository(db.Pool)
	id := "test_repo_lp"
	_ = repo.Delete(ctx, id)

	lp := &LoadPoint{
		ID:       id,
		ParentID: "1",
		StartDay: contracts.Wednesday,
		Series:   contracts.HourlySeries{1.5, math.NaN(), 7},
	}
	require.NoError(t, repo.Save(ctx, lp))

	got, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, contracts.Wednesday, got.StartDay)
	require.Len(t, got.Series, 3)
	assert.True(t, math.IsNaN(got.Series[1]))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	found := false
	for _, s := range list {
		if s.ID == id {
			found = true
			assert.Equal(t, 3, s.Hours)
			assert.Equal(t, 7.0, s.Peak)
		}
	}
	assert.True(t, found)

	require.NoError(t, repo.Delete(ctx, id))
	_, err = repo.Get(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
}
