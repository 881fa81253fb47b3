package recommend

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/lottopick/internal/analysis"
	"github.com/alanyoungcy/lottopick/internal/domain"
)

// Predictor scores one dummy-encoded combination. Output i belongs to the
// i-th main category: 5, 4 and 3 correct.
type Predictor interface {
	Predict(x []float64) []float64
}

// outputs of the main categories, in model column order.
const (
	out5 = iota
	out4
	out3
	numOutputs
)

// Searcher enumerates combinations and keeps the best one per category.
type Searcher struct {
	Variant domain.Variant
	// Categories labels the model outputs, in model column order.
	Categories []string
	Workers    int
}

type best struct {
	index int
	score float64
}

// Search scores every size-combination of candidates and returns the best
// one for each category. Each worker generates its own index range of
// combinations, so memory does not grow with C(n,size). A later combination
// replaces the current best only when it scores strictly higher, so ties
// keep the earliest in enumeration order regardless of how the work was
// split.
func (s Searcher) Search(ctx context.Context, p Predictor, candidates []int, size int) (domain.PickResult, error) {
	total := combinationCount(len(candidates), size)
	if total == 0 {
		return domain.PickResult{}, fmt.Errorf("recommend: search: %w: no %d-combination of %d candidates",
			domain.ErrCandidateCount, size, len(candidates))
	}

	workers := min(max(s.Workers, 1), total)
	chunk := (total + workers - 1) / workers
	partial := make([][numOutputs]best, workers)

	g, gctx := errgroup.WithContext(ctx)
	for w := range workers {
		lo := w * chunk
		hi := min(lo+chunk, total)
		g.Go(func() error {
			pos := make([]int, size)
			var local [numOutputs]best
			for o := range local {
				local[o].index = -1
			}
			for i := lo; i < hi; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				x := analysis.Dummy(combinationAt(candidates, pos, i), s.Variant.MainMin, s.Variant.MainMax)
				scores := p.Predict(x)
				if len(scores) < numOutputs {
					return fmt.Errorf("predictor returned %d outputs, want %d", len(scores), numOutputs)
				}
				for o := range local {
					if local[o].index < 0 || scores[o] > local[o].score {
						local[o] = best{index: i, score: scores[o]}
					}
				}
			}
			partial[w] = local
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.PickResult{}, fmt.Errorf("recommend: search: %w", err)
	}

	// Chunks cover increasing index ranges, so reducing them in order with a
	// strict comparison keeps the earliest of equal scores.
	var final [numOutputs]best
	for o := range final {
		final[o].index = -1
	}
	for _, local := range partial {
		for o, b := range local {
			if b.index < 0 {
				continue
			}
			if final[o].index < 0 || b.score > final[o].score {
				final[o] = b
			}
		}
	}

	rec := func(o int) domain.Recommendation {
		r := domain.Recommendation{
			Numbers: sorted(combinationAt(candidates, make([]int, size), final[o].index)),
			Score:   final[o].score,
		}
		if o < len(s.Categories) {
			r.Category = s.Categories[o]
		}
		return r
	}
	return domain.PickResult{
		Best5: rec(out5),
		Best4: rec(out4),
		Best3: rec(out3),
	}, nil
}
