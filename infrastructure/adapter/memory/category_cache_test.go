package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medrec/hpquestion/domain/entity"
)

func TestCategoryCache_GetSet(t *testing.T) {
	c := NewCategoryCache(0)
	ctx := context.Background()

	gen, err := c.Generation(ctx)
	require.NoError(t, err)

	_, ok, err := c.Get(ctx, gen, entity.CategorySurvey)
	require.NoError(t, err)
	assert.False(t, ok)

	q := entity.NewHPQuestion("q1")
	require.NoError(t, c.Set(ctx, gen, entity.CategorySurvey, []*entity.HPQuestion{q}))

	got, ok, err := c.Get(ctx, gen, entity.CategorySurvey)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, "q1", got[0].ID)

	got[0].Question = "mutated"
	again, _, _ := c.Get(ctx, gen, entity.CategorySurvey)
	assert.Equal(t, "", again[0].Question)
}

func TestCategoryCache_StaleGenerationIsDropped(t *testing.T) {
	c := NewCategoryCache(0)
	ctx := context.Background()

	stale, err := c.Generation(ctx)
	require.NoError(t, err)

	// An invalidation lands between the store read and the write back.
	require.NoError(t, c.Invalidate(ctx))
	require.NoError(t, c.Set(ctx, stale, entity.CategorySurvey, []*entity.HPQuestion{entity.NewHPQuestion("gone")}))

	current, err := c.Generation(ctx)
	require.NoError(t, err)
	assert.Equal(t, stale+1, current)

	_, ok, err := c.Get(ctx, current, entity.CategorySurvey)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = c.Get(ctx, stale, entity.CategorySurvey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCategoryCache_InvalidateClearsEntries(t *testing.T) {
	c := NewCategoryCache(0)
	ctx := context.Background()

	gen, _ := c.Generation(ctx)
	require.NoError(t, c.Set(ctx, gen, entity.CategoryInvestigation, []*entity.HPQuestion{entity.NewHPQuestion("q1")}))
	require.NoError(t, c.Invalidate(ctx))

	gen, _ = c.Generation(ctx)
	_, ok, err := c.Get(ctx, gen, entity.CategoryInvestigation)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCategoryCache_Expiry(t *testing.T) {
	c := NewCategoryCache(time.Minute)
	now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, 0, entity.CategorySurvey, []*entity.HPQuestion{entity.NewHPQuestion("q1")}))

	_, ok, _ := c.Get(ctx, 0, entity.CategorySurvey)
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok, _ = c.Get(ctx, 0, entity.CategorySurvey)
	assert.False(t, ok)
}
