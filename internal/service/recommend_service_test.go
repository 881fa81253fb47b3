package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/lottopick/internal/domain"
	"github.com/alanyoungcy/lottopick/internal/forest"
)

func TestPick6_InvalidCandidatesFailBeforeAnyWork(t *testing.T) {
	tests := []struct {
		name       string
		candidates []int
		want       error
	}{
		{"fourteen", []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14}, domain.ErrCandidateCount},
		{"five", []int{1, 2, 3, 4, 5}, domain.ErrCandidateCount},
		{"duplicate", []int{1, 2, 3, 4, 5, 1}, domain.ErrDuplicateCandidate},
		{"outside domain", []int{1, 2, 3, 4, 5, 50}, domain.ErrCandidateDomain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := syntheticStore()
			trainer := &countingTrainer{}
			svc := NewRecommendService(domain.Lotto, store, nil, trainer.train, SearchConfig{Workers: 2}, discardLogger())

			_, err := svc.Pick6(context.Background(), tt.candidates)
			require.ErrorIs(t, err, tt.want)
			assert.Zero(t, store.listCalls)
			assert.Zero(t, trainer.fits.Load())
			assert.Zero(t, trainer.calls.Load())
		})
	}
}

func TestPick6_SixCandidatesReturnSortedSet(t *testing.T) {
	trainer := &countingTrainer{}
	audit := &memoryAudit{}
	svc := NewRecommendService(domain.Lotto, syntheticStore(), audit, trainer.train, SearchConfig{Workers: 4}, discardLogger())

	res, err := svc.Pick6(context.Background(), []int{33, 4, 17, 9, 1, 48})
	require.NoError(t, err)

	want := []int{1, 4, 9, 17, 33, 48}
	assert.Equal(t, want, res.Best3.Numbers)
	assert.Equal(t, want, res.Best4.Numbers)
	assert.Equal(t, want, res.Best5.Numbers)
	assert.Equal(t, "4 Richtige", res.Best4.Category)
	assert.Equal(t, int64(1), trainer.calls.Load())
	assert.Equal(t, []string{"pick.completed"}, audit.events)
}

func TestPick6_DeterministicForFixedSeed(t *testing.T) {
	cfg := forest.Config{Trees: 30, MaxDepth: 12, MinSamplesLeaf: 1, Seed: 2024, Workers: 4}
	candidates := []int{1, 2, 3, 4, 5, 6, 7}

	run := func(workers int) domain.PickResult {
		svc := NewRecommendService(domain.Lotto, syntheticStore(), nil, ForestTrainer(cfg),
			SearchConfig{Workers: workers}, discardLogger())
		res, err := svc.Pick6(context.Background(), candidates)
		require.NoError(t, err)
		return res
	}

	first := run(1)
	assert.Equal(t, first, run(1))
	assert.Equal(t, first, run(3))
	for _, rec := range []domain.Recommendation{first.Best3, first.Best4, first.Best5} {
		assert.Len(t, rec.Numbers, 6)
		assert.IsIncreasing(t, rec.Numbers)
		assert.Subset(t, candidates, rec.Numbers)
	}
}

func TestPick6_RequiresSixNumberGame(t *testing.T) {
	svc := NewRecommendService(domain.Eurojackpot, &memoryStore{}, nil, (&countingTrainer{}).train, SearchConfig{}, discardLogger())
	_, err := svc.Pick6(context.Background(), []int{1, 2, 3, 4, 5, 6})
	require.ErrorIs(t, err, domain.ErrUnsupportedVariant)
}

func TestPick_EurojackpotUsesFiveNumbers(t *testing.T) {
	store := &memoryStore{}
	for i := range 4 {
		d := lottoDraw(day("2020-01-03").AddDate(0, 0, 7*i), []int{1 + i, 11 + i, 21 + i, 31 + i, 41 + i}, 1, 20, 300)
		d.Variant = domain.VariantEurojackpot
		store.draws = append(store.draws, d)
	}
	trainer := &countingTrainer{}
	svc := NewRecommendService(domain.Eurojackpot, store, nil, trainer.train, SearchConfig{Workers: 2}, discardLogger())

	res, err := svc.Pick(context.Background(), []int{50, 10, 20, 30, 40, 5})
	require.NoError(t, err)
	assert.Equal(t, []int{10, 20, 30, 40, 50}, res.Best5.Numbers)
	assert.Equal(t, int64(6), trainer.calls.Load())
}
