package analysis

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/alanyoungcy/lottopick/internal/domain"
)

// FeatureMatrix is a one-hot encoding of draws: one row per draw, one column
// per possible number value in [Min, Max].
type FeatureMatrix struct {
	Min   int
	Max   int
	Dates []string
	m     *mat.Dense
}

// Rows returns the number of encoded draws.
func (f *FeatureMatrix) Rows() int {
	if f.m == nil {
		return 0
	}
	r, _ := f.m.Dims()
	return r
}

// Cols returns the size of the number domain.
func (f *FeatureMatrix) Cols() int {
	return f.Max - f.Min + 1
}

// Has reports whether draw i contains the number value.
func (f *FeatureMatrix) Has(i, value int) bool {
	return f.m.At(i, value-f.Min) == 1
}

// Row returns a copy of row i as a dense vector.
func (f *FeatureMatrix) Row(i int) []float64 {
	return mat.Row(nil, i, f.m)
}

// RowSum returns how many distinct numbers draw i contains.
func (f *FeatureMatrix) RowSum(i int) float64 {
	return mat.Sum(f.m.RowView(i))
}

// Column returns a copy of column k (value Min+k).
func (f *FeatureMatrix) Column(k int) []float64 {
	return mat.Col(nil, k, f.m)
}

// Matrix exposes the encoding as a read-only gonum matrix.
func (f *FeatureMatrix) Matrix() mat.Matrix {
	return f.m
}

// Labels returns the number value of every column.
func (f *FeatureMatrix) Labels() []int {
	labels := make([]int, f.Cols())
	for k := range labels {
		labels[k] = f.Min + k
	}
	return labels
}

// BuildNumberFeatures encodes the main numbers of every draw. A number that
// appears in several slots across draws lands in a single column, and a
// cell is set, never accumulated, so no cell exceeds 1.
func BuildNumberFeatures(draws []domain.Draw, v domain.Variant) (*FeatureMatrix, error) {
	return build(draws, v.MainMin, v.MainMax, func(d domain.Draw) ([]int, error) {
		if len(d.Numbers) != v.MainCount {
			return nil, fmt.Errorf("%w: draw %s has %d main numbers, want %d",
				domain.ErrInvalidDraw, d.Date.Format(dateLayout), len(d.Numbers), v.MainCount)
		}
		return d.Numbers, nil
	})
}

// BuildBonusFeatures encodes the bonus numbers of every draw. Callers filter
// out draws without a bonus number first; such a draw is an error here.
func BuildBonusFeatures(draws []domain.Draw, v domain.Variant) (*FeatureMatrix, error) {
	return build(draws, v.BonusMin, v.BonusMax, func(d domain.Draw) ([]int, error) {
		if len(d.Bonus) == 0 {
			return nil, fmt.Errorf("%w: draw %s has no bonus number",
				domain.ErrInvalidDraw, d.Date.Format(dateLayout))
		}
		return d.Bonus, nil
	})
}

func build(draws []domain.Draw, lo, hi int, slots func(domain.Draw) ([]int, error)) (*FeatureMatrix, error) {
	fm := &FeatureMatrix{Min: lo, Max: hi, Dates: make([]string, len(draws))}
	if len(draws) == 0 {
		return fm, nil
	}

	fm.m = mat.NewDense(len(draws), hi-lo+1, nil)
	for i, d := range draws {
		values, err := slots(d)
		if err != nil {
			return nil, fmt.Errorf("analysis: build features: %w", err)
		}
		fm.Dates[i] = d.Date.Format(dateLayout)
		for _, n := range values {
			if n < lo || n > hi {
				return nil, fmt.Errorf("analysis: build features: %w: draw %s number %d outside [%d,%d]",
					domain.ErrInvalidDraw, fm.Dates[i], n, lo, hi)
			}
			if fm.m.At(i, n-lo) == 1 {
				return nil, fmt.Errorf("analysis: build features: %w: draw %s repeats number %d",
					domain.ErrInvalidDraw, fm.Dates[i], n)
			}
			fm.m.Set(i, n-lo, 1)
		}
	}
	return fm, nil
}

// Dummy encodes a set of numbers over [lo, hi] the way draw rows are encoded.
func Dummy(numbers []int, lo, hi int) []float64 {
	x := make([]float64, hi-lo+1)
	for _, n := range numbers {
		if n >= lo && n <= hi {
			x[n-lo] = 1
		}
	}
	return x
}

const dateLayout = "2006-01-02"
