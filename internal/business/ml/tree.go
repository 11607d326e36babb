package ml

import (
	"math"
	"sort"
)

// Node 回归树节点
type Node struct {
	Feature int     `json:"feature,omitempty"`
	Thresh  float64 `json:"thresh,omitempty"`
	Left    *Node   `json:"left,omitempty"`
	Right   *Node   `json:"right,omitempty"`
	Leaf    bool    `json:"leaf"`
	Value   float64 `json:"value"`
}

// Tree 回归树（提升树的基学习器，方差最小化分裂）
type Tree struct {
	MaxDepth       int   `json:"max_depth"`
	MinSamplesLeaf int   `json:"min_samples_leaf"`
	Root           *Node `json:"root"`
}

// leafValueFunc 叶子值计算函数（提升算法按损失注入，如牛顿步）
type leafValueFunc func(rows []int) float64

// fitTree 在指定样本/特征子集上拟合回归树
func fitTree(X [][]float64, target []float64, rows, features []int, maxDepth, minLeaf int, leafValue leafValueFunc) *Tree {
	t := &Tree{MaxDepth: maxDepth, MinSamplesLeaf: minLeaf}
	t.Root = t.build(X, target, rows, features, 0, leafValue)
	return t
}

// build 递归构建节点
func (t *Tree) build(X [][]float64, target []float64, rows, features []int, depth int, leafValue leafValueFunc) *Node {
	if depth >= t.MaxDepth || len(rows) < 2*t.MinSamplesLeaf {
		return &Node{Leaf: true, Value: leafValue(rows)}
	}

	feature, thresh, ok := t.bestSplit(X, target, rows, features)
	if !ok {
		return &Node{Leaf: true, Value: leafValue(rows)}
	}

	left := make([]int, 0, len(rows))
	right := make([]int, 0, len(rows))
	for _, r := range rows {
		if X[r][feature] <= thresh {
			left = append(left, r)
		} else {
			right = append(right, r)
		}
	}

	return &Node{
		Feature: feature,
		Thresh:  thresh,
		Left:    t.build(X, target, left, features, depth+1, leafValue),
		Right:   t.build(X, target, right, features, depth+1, leafValue),
	}
}

// bestSplit 在候选特征中寻找 SSE 降低最大的分裂点
// 排序后用前缀和扫描，阈值取相邻不同取值的中点
func (t *Tree) bestSplit(X [][]float64, target []float64, rows, features []int) (int, float64, bool) {
	bestGain := 0.0
	bestFeature, bestThresh := -1, 0.0

	var total, totalSq float64
	for _, r := range rows {
		total += target[r]
		totalSq += target[r] * target[r]
	}
	n := float64(len(rows))
	parentSSE := totalSq - total*total/n

	order := make([]int, len(rows))
	for _, f := range features {
		copy(order, rows)
		sort.Slice(order, func(a, b int) bool { return X[order[a]][f] < X[order[b]][f] })

		var leftSum, leftSq float64
		for i := 0; i < len(order)-1; i++ {
			r := order[i]
			leftSum += target[r]
			leftSq += target[r] * target[r]

			// 相同取值之间不能切
			if X[order[i]][f] == X[order[i+1]][f] {
				continue
			}
			nLeft := float64(i + 1)
			nRight := n - nLeft
			if int(nLeft) < t.MinSamplesLeaf || int(nRight) < t.MinSamplesLeaf {
				continue
			}

			rightSum := total - leftSum
			rightSq := totalSq - leftSq
			sse := (leftSq - leftSum*leftSum/nLeft) + (rightSq - rightSum*rightSum/nRight)
			if gain := parentSSE - sse; gain > bestGain+1e-12 {
				bestGain = gain
				bestFeature = f
				bestThresh = (X[order[i]][f] + X[order[i+1]][f]) / 2
			}
		}
	}

	if bestFeature < 0 || math.IsNaN(bestThresh) {
		return 0, 0, false
	}
	return bestFeature, bestThresh, true
}

// Predict 单样本预测
func (t *Tree) Predict(x []float64) float64 {
	node := t.Root
	for !node.Leaf {
		if x[node.Feature] <= node.Thresh {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.Value
}
