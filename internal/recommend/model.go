package recommend

import (
	"context"
	"errors"
	"fmt"

	"github.com/alanyoungcy/lottopick/internal/analysis"
	"github.com/alanyoungcy/lottopick/internal/forest"
)

// Train fits the unpopularity model on a main-number dataset: features are
// the one-hot draws, targets the per-category unpopularity with missing
// cells masked out.
func Train(ctx context.Context, ds analysis.Dataset, cfg forest.Config) (*forest.Forest, error) {
	if ds.Features.Rows() == 0 {
		return nil, errors.New("recommend: train: no draws")
	}
	if n := len(ds.Unpopularity.Categories); n != numOutputs {
		return nil, fmt.Errorf("recommend: train: %d categories, want %d", n, numOutputs)
	}

	model, err := forest.Fit(ctx, ds.Features.Matrix(), ds.Unpopularity.Values, cfg)
	if err != nil {
		return nil, fmt.Errorf("recommend: train: %w", err)
	}
	return model, nil
}
