package boost

import (
	"math"
	"sort"
)

// treeNode holds one node of a regression tree. Rows with a missing
// feature value are always routed to the left child.
type treeNode struct {
	isLeaf    bool
	feature   int
	threshold float64 // x <= threshold goes left
	left      *treeNode
	right     *treeNode

	value float64 // leaf prediction (mean target of the leaf)
	n     int
}

// predict walks a single row down the tree.
func (t *treeNode) predict(features [][]float64, row int) float64 {
	node := t
	for !node.isLeaf {
		v := features[node.feature][row]
		if math.IsNaN(v) || v <= node.threshold {
			node = node.left
		} else {
			node = node.right
		}
	}
	return node.value
}

// targetStats aggregates the sufficient statistics for squared-error splits.
type targetStats struct {
	n     int
	sum   float64
	sumSq float64
}

func (s *targetStats) add(v float64) {
	s.n++
	s.sum += v
	s.sumSq += v * v
}

func (s targetStats) plus(o targetStats) targetStats {
	return targetStats{n: s.n + o.n, sum: s.sum + o.sum, sumSq: s.sumSq + o.sumSq}
}

// sse returns the sum of squared errors around the mean.
func (s targetStats) sse() float64 {
	if s.n == 0 {
		return 0
	}
	return s.sumSq - s.sum*s.sum/float64(s.n)
}

func (s targetStats) mean() float64 {
	if s.n == 0 {
		return 0
	}
	return s.sum / float64(s.n)
}

// splitCandidate is the outcome of a best-split search over one feature.
type splitCandidate struct {
	ok        bool
	feature   int
	threshold float64
	gain      float64
}

// featureScanner runs the per-feature split search; the sequential and
// parallel device backends plug in here.
type featureScanner func(numFeatures int, eval func(feature int) splitCandidate) []splitCandidate

// treeBuilder grows one regression tree over the given target values.
type treeBuilder struct {
	features [][]float64 // feature-major: features[f][row]
	target   []float64
	method   TreeMethod
	bins     int
	maxDepth int
	minLeaf  int
	scan     featureScanner
}

const minSplitGain = 1e-12

// build grows a node over the rows in idx at the given depth.
func (b *treeBuilder) build(idx []int, depth int) *treeNode {
	var stats targetStats
	for _, i := range idx {
		stats.add(b.target[i])
	}

	node := &treeNode{n: stats.n, value: stats.mean()}
	if depth >= b.maxDepth || stats.n < 2*b.minLeaf {
		node.isLeaf = true
		return node
	}

	candidates := b.scan(len(b.features), func(f int) splitCandidate {
		if b.method == MethodHist {
			return b.bestSplitHist(f, idx, stats)
		}
		return b.bestSplitExact(f, idx, stats)
	})

	// Deterministic reduction: strict improvement in feature order, so the
	// sequential and parallel backends agree on ties.
	best := splitCandidate{}
	for _, c := range candidates {
		if c.ok && (!best.ok || c.gain > best.gain) {
			best = c
		}
	}

	if !best.ok || best.gain <= minSplitGain {
		node.isLeaf = true
		return node
	}

	leftIdx := make([]int, 0, len(idx))
	rightIdx := make([]int, 0, len(idx))
	for _, i := range idx {
		v := b.features[best.feature][i]
		if math.IsNaN(v) || v <= best.threshold {
			leftIdx = append(leftIdx, i)
		} else {
			rightIdx = append(rightIdx, i)
		}
	}
	if len(leftIdx) < b.minLeaf || len(rightIdx) < b.minLeaf {
		node.isLeaf = true
		return node
	}

	node.feature = best.feature
	node.threshold = best.threshold
	node.left = b.build(leftIdx, depth+1)
	node.right = b.build(rightIdx, depth+1)
	return node
}

// bestSplitExact scans every boundary between distinct sorted values.
type valueRow struct {
	v float64
	i int
}

func (b *treeBuilder) bestSplitExact(feature int, idx []int, parent targetStats) splitCandidate {
	result := splitCandidate{feature: feature}
	column := b.features[feature]

	valid := make([]valueRow, 0, len(idx))
	var missing targetStats
	for _, i := range idx {
		v := column[i]
		if math.IsNaN(v) {
			missing.add(b.target[i])
		} else {
			valid = append(valid, valueRow{v: v, i: i})
		}
	}
	if len(valid) < 2 {
		return result
	}

	sort.Slice(valid, func(a, c int) bool { return valid[a].v < valid[c].v })

	parentSSE := parent.sse()
	var left targetStats
	for s := 0; s < len(valid)-1; s++ {
		left.add(b.target[valid[s].i])
		if valid[s].v == valid[s+1].v {
			continue
		}

		// missing values follow the left branch
		leftAll := left.plus(missing)
		right := targetStats{
			n:     parent.n - leftAll.n,
			sum:   parent.sum - leftAll.sum,
			sumSq: parent.sumSq - leftAll.sumSq,
		}
		if leftAll.n < b.minLeaf || right.n < b.minLeaf {
			continue
		}

		gain := parentSSE - leftAll.sse() - right.sse()
		if gain > result.gain {
			result.ok = true
			result.gain = gain
			result.threshold = (valid[s].v + valid[s+1].v) / 2
		}
	}
	return result
}

// bestSplitHist buckets values into fixed-width bins and only evaluates
// bin edges, trading split resolution for a single accumulation pass.
func (b *treeBuilder) bestSplitHist(feature int, idx []int, parent targetStats) splitCandidate {
	result := splitCandidate{feature: feature}
	column := b.features[feature]

	minV, maxV := math.Inf(1), math.Inf(-1)
	var missing targetStats
	present := 0
	for _, i := range idx {
		v := column[i]
		if math.IsNaN(v) {
			missing.add(b.target[i])
			continue
		}
		present++
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}
	if present < 2 || minV == maxV {
		return result
	}

	width := (maxV - minV) / float64(b.bins)
	binStats := make([]targetStats, b.bins)
	for _, i := range idx {
		v := column[i]
		if math.IsNaN(v) {
			continue
		}
		bin := int((v - minV) / width)
		if bin >= b.bins {
			bin = b.bins - 1
		}
		binStats[bin].add(b.target[i])
	}

	parentSSE := parent.sse()
	left := missing
	for bin := 0; bin < b.bins-1; bin++ {
		left = left.plus(binStats[bin])
		right := targetStats{
			n:     parent.n - left.n,
			sum:   parent.sum - left.sum,
			sumSq: parent.sumSq - left.sumSq,
		}
		if left.n < b.minLeaf || right.n < b.minLeaf {
			continue
		}

		gain := parentSSE - left.sse() - right.sse()
		if gain > result.gain {
			result.ok = true
			result.gain = gain
			result.threshold = minV + width*float64(bin+1)
		}
	}
	return result
}
