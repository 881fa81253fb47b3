// Package recommend searches a bounded candidate set for the combinations a
// fitted unpopularity model scores highest.
package recommend

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/stat/combin"

	"github.com/alanyoungcy/lottopick/internal/domain"
)

// DefaultMaxCandidates keeps a 6-of-n enumeration at C(13,6) = 1716 scored
// combinations.
const DefaultMaxCandidates = 13

// ValidateCandidates checks a candidate set before any store access or
// model work: size in [size, maxCandidates], distinct values, all inside the
// variant's main domain.
func ValidateCandidates(candidates []int, v domain.Variant, size, maxCandidates int) error {
	if maxCandidates <= 0 {
		maxCandidates = DefaultMaxCandidates
	}
	if len(candidates) < size || len(candidates) > maxCandidates {
		return fmt.Errorf("recommend: %w: got %d, want %d..%d",
			domain.ErrCandidateCount, len(candidates), size, maxCandidates)
	}

	seen := make(map[int]struct{}, len(candidates))
	for _, c := range candidates {
		if c < v.MainMin || c > v.MainMax {
			return fmt.Errorf("recommend: %w: %d not in [%d,%d]",
				domain.ErrCandidateDomain, c, v.MainMin, v.MainMax)
		}
		if _, dup := seen[c]; dup {
			return fmt.Errorf("recommend: %w: %d", domain.ErrDuplicateCandidate, c)
		}
		seen[c] = struct{}{}
	}
	return nil
}

// combinationCount is the number of k-subsets of n items, or 0 when there
// is none.
func combinationCount(n, k int) int {
	if k <= 0 || k > n {
		return 0
	}
	return combin.Binomial(n, k)
}

// combinationAt returns the idx-th k-subset of items, k = len(pos), in
// lexicographic order of input positions: for [a b c] and k=2 the order is
// [a b], [a c], [b c]. pos is scratch space for the positions, so a worker
// can walk its index range without materializing every subset.
func combinationAt(items, pos []int, idx int) []int {
	combin.IndexToCombination(pos, idx, len(items), len(pos))
	combo := make([]int, len(pos))
	for i, p := range pos {
		combo[i] = items[p]
	}
	return combo
}

func sorted(numbers []int) []int {
	out := slices.Clone(numbers)
	slices.Sort(out)
	return out
}
