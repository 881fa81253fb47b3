package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/lottopick/internal/domain"
)

func TestComputeImpact_UnpopularNumberRanksAboveAbsent(t *testing.T) {
	svc := NewAnalysisService(domain.Lotto, syntheticStore(), nil, nil, discardLogger())

	for _, normalize := range []bool{false, true} {
		impacts, err := svc.ComputeImpact(context.Background(), domain.ImpactNumbers, normalize)
		require.NoError(t, err)
		require.Len(t, impacts, 49)
		assert.Greater(t, impacts[7-1].Score, impacts[49-1].Score)
		assert.False(t, impacts[49-1].Observed)
	}
}

func TestComputeImpact_CachedPerNewestDraw(t *testing.T) {
	store := syntheticStore()
	cache := newMemoryCache()
	audit := &memoryAudit{}
	svc := NewAnalysisService(domain.Lotto, store, cache, audit, discardLogger())
	ctx := context.Background()

	first, err := svc.ComputeImpact(ctx, domain.ImpactNumbers, true)
	require.NoError(t, err)
	second, err := svc.ComputeImpact(ctx, domain.ImpactNumbers, true)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, store.listCalls)
	assert.Equal(t, []string{"impact.computed"}, audit.events)

	// A different normalize flag is a different entry.
	_, err = svc.ComputeImpact(ctx, domain.ImpactNumbers, false)
	require.NoError(t, err)
	assert.Equal(t, 2, store.listCalls)

	// A newer draw moves the key forward.
	last := store.draws[len(store.draws)-1]
	require.NoError(t, store.InsertDraw(ctx, lottoDraw(last.Date.AddDate(0, 0, 3), []int{3, 4, 5, 6, 41, 42}, 2, 60, 900)))
	_, err = svc.ComputeImpact(ctx, domain.ImpactNumbers, true)
	require.NoError(t, err)
	assert.Equal(t, 3, store.listCalls)
}

func TestComputeImpact_CacheFailureIsNotFatal(t *testing.T) {
	cache := newMemoryCache()
	cache.err = errors.New("connection refused")
	svc := NewAnalysisService(domain.Lotto, syntheticStore(), cache, nil, discardLogger())

	impacts, err := svc.ComputeImpact(context.Background(), domain.ImpactNumbers, false)
	require.NoError(t, err)
	assert.Len(t, impacts, 49)
}

func TestComputeImpact_EmptyStore(t *testing.T) {
	svc := NewAnalysisService(domain.Lotto, &memoryStore{}, nil, nil, discardLogger())
	_, err := svc.ComputeImpact(context.Background(), domain.ImpactNumbers, false)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestComputeImpact_BonusUnsupportedForEurojackpot(t *testing.T) {
	store := &memoryStore{}
	d := lottoDraw(day("2020-01-03"), []int{1, 2, 3, 4, 5}, 1, 10, 100)
	d.Variant = domain.VariantEurojackpot
	store.draws = append(store.draws, d)

	svc := NewAnalysisService(domain.Eurojackpot, store, nil, nil, discardLogger())
	_, err := svc.ComputeImpact(context.Background(), domain.ImpactBonus, false)
	require.ErrorIs(t, err, domain.ErrUnsupportedVariant)
}
