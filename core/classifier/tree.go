package classifier

import (
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Tree is a CART decision tree using Gini impurity. Commitment decisions are
// threshold functions of net load, which axis-aligned splits on demand and
// renewable approximate well.
type Tree struct {
	MaxDepth int
	MinLeaf  int
	root     *treeNode
}

type treeNode struct {
	leaf      bool
	label     int
	feature   int
	threshold float64
	left      *treeNode // feature <= threshold
	right     *treeNode
}

// NewTree returns an unfitted tree. Non-positive limits fall back to depth 8
// and one sample per leaf.
func NewTree(maxDepth, minLeaf int) *Tree {
	if maxDepth <= 0 {
		maxDepth = 8
	}
	if minLeaf <= 0 {
		minLeaf = 1
	}
	return &Tree{MaxDepth: maxDepth, MinLeaf: minLeaf}
}

// Fit grows the tree.
func (t *Tree) Fit(X mat.Matrix, y []int) error {
	if err := checkFit(X, y); err != nil {
		return err
	}
	rows := toRows(X)
	idx := make([]int, len(y))
	for i := range idx {
		idx[i] = i
	}
	t.root = t.grow(rows, y, idx, 0)
	return nil
}

// Predict walks the tree for every row.
func (t *Tree) Predict(X mat.Matrix) ([]int, error) {
	if t.root == nil {
		return nil, ErrNotFitted
	}
	r, _ := X.Dims()
	out := make([]int, r)
	for i := 0; i < r; i++ {
		n := t.root
		for !n.leaf {
			if X.At(i, n.feature) <= n.threshold {
				n = n.left
			} else {
				n = n.right
			}
		}
		out[i] = n.label
	}
	return out, nil
}

// Depth returns the depth of the fitted tree; a single leaf has depth 0.
func (t *Tree) Depth() int { return depth(t.root) }

func depth(n *treeNode) int {
	if n == nil || n.leaf {
		return 0
	}
	return 1 + max(depth(n.left), depth(n.right))
}

func (t *Tree) grow(rows [][]float64, y []int, idx []int, d int) *treeNode {
	ones := 0
	for _, i := range idx {
		ones += y[i]
	}
	sub := make([]int, len(idx))
	for k, i := range idx {
		sub[k] = y[i]
	}
	leaf := &treeNode{leaf: true, label: majority(sub)}
	if ones == 0 || ones == len(idx) || d >= t.MaxDepth || len(idx) < 2*t.MinLeaf {
		return leaf
	}

	parent := gini(ones, len(idx))
	bestScore := parent - 1e-12
	bestFeature, bestPos := -1, 0
	var bestThreshold float64
	var bestOrder []int
	for f := range rows[0] {
		order := append([]int(nil), idx...)
		sort.SliceStable(order, func(a, b int) bool { return rows[order[a]][f] < rows[order[b]][f] })
		leftOnes := 0
		for k := 1; k < len(order); k++ {
			leftOnes += y[order[k-1]]
			lo, hi := rows[order[k-1]][f], rows[order[k]][f]
			if lo == hi || k < t.MinLeaf || len(order)-k < t.MinLeaf {
				continue
			}
			n := float64(len(order))
			score := float64(k)/n*gini(leftOnes, k) + float64(len(order)-k)/n*gini(ones-leftOnes, len(order)-k)
			if score < bestScore {
				bestScore, bestFeature, bestPos = score, f, k
				bestThreshold = lo + (hi-lo)/2
				bestOrder = order
			}
		}
	}
	if bestFeature < 0 {
		return leaf
	}
	return &treeNode{
		feature:   bestFeature,
		threshold: bestThreshold,
		left:      t.grow(rows, y, bestOrder[:bestPos], d+1),
		right:     t.grow(rows, y, bestOrder[bestPos:], d+1),
	}
}

func gini(ones, n int) float64 {
	if n == 0 {
		return 0
	}
	p := float64(ones) / float64(n)
	return 2 * p * (1 - p)
}

func toRows(X mat.Matrix) [][]float64 {
	r, c := X.Dims()
	rows := make([][]float64, r)
	for i := range rows {
		rows[i] = make([]float64, c)
		for j := range rows[i] {
			rows[i][j] = X.At(i, j)
		}
	}
	return rows
}
