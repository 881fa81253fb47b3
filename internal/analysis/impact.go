package analysis

import (
	"cmp"
	"fmt"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/alanyoungcy/lottopick/internal/domain"
)

// neutralUnpopularity is the unpopularity of a draw whose winners match the
// expected count exactly.
const neutralUnpopularity = 1.0

// UnobservedScore is the normalized score of a value without a defined
// impact. It lies outside [0,1].
const UnobservedScore = -1.0

// Aggregate reduces a feature matrix and its aligned unpopularity matrix to
// one score per column:
//
//	impact[k] = mean(u | number k drawn) / mean(u | number k not drawn) - 1
//
// Each mean pools every valid cell of the selected rows across all
// categories. Invalid cells are skipped. A value drawn in every row has no
// "not drawn" side and is measured against neutralUnpopularity instead. A
// value never drawn has score 0 and Observed false.
func Aggregate(f *FeatureMatrix, u *UnpopularityMatrix) ([]domain.Impact, error) {
	if f.Rows() != u.Rows() {
		return nil, fmt.Errorf("analysis: aggregate: feature rows %d != unpopularity rows %d", f.Rows(), u.Rows())
	}

	labels := f.Labels()
	impacts := make([]domain.Impact, len(labels))
	for k, value := range labels {
		var with, without []float64
		for i, row := range u.Values {
			drawn := f.Has(i, value)
			for _, cell := range row {
				if !cell.Valid {
					continue
				}
				if drawn {
					with = append(with, cell.V)
				} else {
					without = append(without, cell.V)
				}
			}
		}

		impacts[k] = domain.Impact{Value: value}
		if len(with) == 0 {
			continue
		}
		base := neutralUnpopularity
		if len(without) > 0 {
			base = stat.Mean(without, nil)
		}
		if base == 0 {
			continue
		}
		impacts[k].Score = stat.Mean(with, nil)/base - 1
		impacts[k].Observed = true
	}
	return impacts, nil
}

// Normalize rescales observed scores to [0,1] with (v - min) / (max - min),
// where min and max range over observed scores only. Unobserved values get
// UnobservedScore. Fewer than two distinct observed scores cannot be
// rescaled and yield domain.ErrDegenerateImpact.
func Normalize(impacts []domain.Impact) ([]domain.Impact, error) {
	scores := make([]float64, 0, len(impacts))
	for _, imp := range impacts {
		if imp.Observed {
			scores = append(scores, imp.Score)
		}
	}
	if len(scores) == 0 {
		return nil, fmt.Errorf("analysis: normalize: %w: no observed scores among %d values",
			domain.ErrDegenerateImpact, len(impacts))
	}
	lo, hi := floats.Min(scores), floats.Max(scores)
	if hi == lo {
		return nil, fmt.Errorf("analysis: normalize: %w: all %d observed scores equal %g",
			domain.ErrDegenerateImpact, len(scores), lo)
	}

	out := make([]domain.Impact, len(impacts))
	for i, imp := range impacts {
		if imp.Observed {
			imp.Score = (imp.Score - lo) / (hi - lo)
		} else {
			imp.Score = UnobservedScore
		}
		out[i] = imp
	}
	return out, nil
}

// Rank orders impacts from most to least unpopular. Observed values come
// first; ties keep ascending value order.
func Rank(impacts []domain.Impact) []domain.Impact {
	out := slices.Clone(impacts)
	slices.SortStableFunc(out, func(a, b domain.Impact) int {
		if a.Observed != b.Observed {
			if a.Observed {
				return -1
			}
			return 1
		}
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Value, b.Value)
	})
	return out
}
