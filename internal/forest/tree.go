package forest

import (
	"database/sql"
	"math/rand/v2"
)

// splitAt separates the two sides of a binary feature.
const splitAt = 0.5

// minGain is the smallest impurity decrease accepted as a split.
const minGain = 1e-12

type node struct {
	feature     int // -1 marks a leaf
	left, right int
	value       []float64
}

type tree struct {
	nodes []node
}

func (t *tree) predict(x []float64) []float64 {
	n := &t.nodes[0]
	for n.feature >= 0 {
		if x[n.feature] > splitAt {
			n = &t.nodes[n.right]
		} else {
			n = &t.nodes[n.left]
		}
	}
	return n.value
}

// moments accumulates per-output count, sum and sum of squares over the
// valid target cells of a sample set.
type moments struct {
	n, sum, sq []float64
}

func newMoments(outputs int) moments {
	return moments{
		n:   make([]float64, outputs),
		sum: make([]float64, outputs),
		sq:  make([]float64, outputs),
	}
}

func (m *moments) reset() {
	clear(m.n)
	clear(m.sum)
	clear(m.sq)
}

func (m *moments) add(target []sql.Null[float64]) {
	for o, c := range target {
		if !c.Valid {
			continue
		}
		m.n[o]++
		m.sum[o] += c.V
		m.sq[o] += c.V * c.V
	}
}

// sse is the summed squared error around the per-output means, skipping
// outputs without a valid cell.
func (m *moments) sse() float64 {
	var total float64
	for o := range m.n {
		if m.n[o] == 0 {
			continue
		}
		if v := m.sq[o] - m.sum[o]*m.sum[o]/m.n[o]; v > 0 {
			total += v
		}
	}
	return total
}

// sseOfRest is the sse of total minus m without materialising the difference.
func (m *moments) sseOfRest(total *moments) float64 {
	var sum float64
	for o := range m.n {
		n := total.n[o] - m.n[o]
		if n == 0 {
			continue
		}
		s := total.sum[o] - m.sum[o]
		if v := (total.sq[o] - m.sq[o]) - s*s/n; v > 0 {
			sum += v
		}
	}
	return sum
}

// means returns per-output means, taking the fallback where an output has
// no valid cell.
func (m *moments) means(fallback []float64) []float64 {
	out := make([]float64, len(m.n))
	for o := range m.n {
		switch {
		case m.n[o] > 0:
			out[o] = m.sum[o] / m.n[o]
		case fallback != nil:
			out[o] = fallback[o]
		}
	}
	return out
}

type builder struct {
	x        [][]float64
	y        [][]sql.Null[float64]
	outputs  int
	maxDepth int
	minLeaf  int
	rng      *rand.Rand
	nodes    []node
	scratch  moments
}

func (b *builder) grow(idx []int, depth int, parent []float64) int {
	total := newMoments(b.outputs)
	for _, i := range idx {
		total.add(b.y[i])
	}

	id := len(b.nodes)
	b.nodes = append(b.nodes, node{feature: -1, value: total.means(parent)})

	impurity := total.sse()
	if depth >= b.maxDepth || len(idx) < 2*b.minLeaf || impurity <= minGain {
		return id
	}

	feature, ok := b.bestSplit(idx, &total, impurity)
	if !ok {
		return id
	}

	left := make([]int, 0, len(idx))
	right := make([]int, 0, len(idx))
	for _, i := range idx {
		if b.x[i][feature] > splitAt {
			right = append(right, i)
		} else {
			left = append(left, i)
		}
	}

	value := b.nodes[id].value
	l := b.grow(left, depth+1, value)
	r := b.grow(right, depth+1, value)
	b.nodes[id].feature = feature
	b.nodes[id].left = l
	b.nodes[id].right = r
	return id
}

// bestSplit scans every feature in a random order and returns the one with
// the largest decrease of the masked impurity. Ties keep the first feature
// visited.
func (b *builder) bestSplit(idx []int, total *moments, impurity float64) (int, bool) {
	features := len(b.x[idx[0]])
	best, bestGain := -1, minGain

	for _, f := range b.rng.Perm(features) {
		b.scratch.reset()
		var nRight int
		for _, i := range idx {
			if b.x[i][f] > splitAt {
				b.scratch.add(b.y[i])
				nRight++
			}
		}
		if nRight < b.minLeaf || len(idx)-nRight < b.minLeaf {
			continue
		}

		gain := impurity - b.scratch.sse() - b.scratch.sseOfRest(total)
		if gain > bestGain {
			best, bestGain = f, gain
		}
	}
	return best, best >= 0
}
