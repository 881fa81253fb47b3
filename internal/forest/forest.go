// Package forest fits bagged ensembles of multi-output regression trees.
//
// Targets may be missing per output. A missing cell is left out of the
// impurity and of the leaf mean of that output only, so one training row
// still informs the outputs it has values for.
package forest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand/v2"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Config controls the ensemble.
type Config struct {
	Trees          int
	MaxDepth       int
	MinSamplesLeaf int
	// Seed is the base seed; tree i draws its bootstrap sample and feature
	// order from a generator seeded with (Seed, i).
	Seed    uint64
	Workers int
}

// DefaultConfig returns 550 trees of depth at most 50.
func DefaultConfig() Config {
	return Config{
		Trees:          550,
		MaxDepth:       50,
		MinSamplesLeaf: 1,
		Seed:           42,
		Workers:        runtime.GOMAXPROCS(0),
	}
}

// Forest is a fitted ensemble. It is immutable and safe for concurrent
// prediction.
type Forest struct {
	features int
	outputs  int
	trees    []*tree
}

// Fit grows cfg.Trees trees on bootstrap samples of the rows of x. y holds
// one target row per row of x; every target row has the same length.
// The result depends only on the inputs and cfg.Seed, not on cfg.Workers.
func Fit(ctx context.Context, x mat.Matrix, y [][]sql.Null[float64], cfg Config) (*Forest, error) {
	rows, features := x.Dims()
	if err := validate(rows, features, y, cfg); err != nil {
		return nil, fmt.Errorf("forest: fit: %w", err)
	}
	outputs := len(y[0])

	samples := make([][]float64, rows)
	for i := range samples {
		samples[i] = mat.Row(nil, i, x)
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	f := &Forest{features: features, outputs: outputs, trees: make([]*tree, cfg.Trees)}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for t := range f.trees {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			b := &builder{
				x:        samples,
				y:        y,
				outputs:  outputs,
				maxDepth: cfg.MaxDepth,
				minLeaf:  cfg.MinSamplesLeaf,
				rng:      rand.New(rand.NewPCG(cfg.Seed, uint64(t))),
				scratch:  newMoments(outputs),
			}
			idx := make([]int, rows)
			for i := range idx {
				idx[i] = b.rng.IntN(rows)
			}
			b.grow(idx, 0, nil)
			f.trees[t] = &tree{nodes: b.nodes}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("forest: fit: %w", err)
	}
	return f, nil
}

func validate(rows, features int, y [][]sql.Null[float64], cfg Config) error {
	var errs []error
	if rows == 0 || features == 0 {
		errs = append(errs, errors.New("empty feature matrix"))
	}
	if len(y) != rows {
		errs = append(errs, fmt.Errorf("%d target rows for %d feature rows", len(y), rows))
	}
	if len(y) > 0 {
		if len(y[0]) == 0 {
			errs = append(errs, errors.New("no target outputs"))
		}
		for i, row := range y {
			if len(row) != len(y[0]) {
				errs = append(errs, fmt.Errorf("target row %d has %d outputs, want %d", i, len(row), len(y[0])))
				break
			}
		}
	}
	if cfg.Trees <= 0 {
		errs = append(errs, fmt.Errorf("trees must be positive, got %d", cfg.Trees))
	}
	if cfg.MaxDepth <= 0 {
		errs = append(errs, fmt.Errorf("max depth must be positive, got %d", cfg.MaxDepth))
	}
	if cfg.MinSamplesLeaf <= 0 {
		errs = append(errs, fmt.Errorf("min samples per leaf must be positive, got %d", cfg.MinSamplesLeaf))
	}
	return errors.Join(errs...)
}

// Predict averages the leaf values of every tree for one feature row.
func (f *Forest) Predict(x []float64) []float64 {
	out := make([]float64, f.outputs)
	for _, t := range f.trees {
		floats.Add(out, t.predict(x))
	}
	floats.Scale(1/float64(len(f.trees)), out)
	return out
}

// Features returns the expected length of a feature row.
func (f *Forest) Features() int { return f.features }

// Outputs returns the number of predicted targets.
func (f *Forest) Outputs() int { return f.outputs }

// Len returns the number of trees.
func (f *Forest) Len() int { return len(f.trees) }
