package ml

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// KMeans 分区聚类（k-means++ 初始化 + Lloyd 迭代）
// NInit 次随机初始化取惯量最小者；种子固定则结果可复现
type KMeans struct {
	K       int `json:"k"`
	MaxIter int `json:"max_iter"`
	NInit   int `json:"n_init"`

	Centers [][]float64 `json:"centers"`
	Inertia float64     `json:"inertia"`
}

// NewKMeans 创建聚类器（MaxIter=300、NInit=10，与 sklearn 默认一致）
func NewKMeans(k int) *KMeans {
	return &KMeans{K: k, MaxIter: 300, NInit: 10}
}

// sqDist 欧氏距离平方
func sqDist(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// Fit 拟合聚类中心
func (m *KMeans) Fit(X [][]float64, rng *rand.Rand) error {
	if len(X) < m.K {
		return fmt.Errorf("kmeans: %d samples for k=%d", len(X), m.K)
	}

	bestInertia := math.Inf(1)
	var bestCenters [][]float64

	for run := 0; run < m.NInit; run++ {
		centers := m.initCenters(X, rng)
		inertia := m.lloyd(X, centers)
		if inertia < bestInertia {
			bestInertia = inertia
			bestCenters = centers
		}
	}

	m.Centers = bestCenters
	m.Inertia = bestInertia
	return nil
}

// initCenters k-means++ 初始化
func (m *KMeans) initCenters(X [][]float64, rng *rand.Rand) [][]float64 {
	centers := make([][]float64, 0, m.K)

	// 第一个中心均匀随机
	first := X[rng.Intn(len(X))]
	centers = append(centers, append([]float64(nil), first...))

	// 其余中心按与最近中心的距离平方加权采样
	minDist := make([]float64, len(X))
	for i := range X {
		minDist[i] = sqDist(X[i], centers[0])
	}

	for len(centers) < m.K {
		total := floats.Sum(minDist)
		if total == 0 {
			// 所有点都与已有中心重合，退化为随机选取
			pick := X[rng.Intn(len(X))]
			centers = append(centers, append([]float64(nil), pick...))
			continue
		}
		target := rng.Float64() * total
		var cum float64
		picked := len(X) - 1
		for i, d := range minDist {
			cum += d
			if cum >= target {
				picked = i
				break
			}
		}
		centers = append(centers, append([]float64(nil), X[picked]...))

		for i := range X {
			if d := sqDist(X[i], centers[len(centers)-1]); d < minDist[i] {
				minDist[i] = d
			}
		}
	}

	return centers
}

// lloyd Lloyd 迭代，返回最终惯量，centers 原地更新
func (m *KMeans) lloyd(X [][]float64, centers [][]float64) float64 {
	nFeatures := len(X[0])
	assign := make([]int, len(X))

	for iter := 0; iter < m.MaxIter; iter++ {
		// 1. 分配最近中心
		changed := false
		for i, x := range X {
			best, bestD := 0, math.Inf(1)
			for c, center := range centers {
				if d := sqDist(x, center); d < bestD {
					best, bestD = c, d
				}
			}
			if assign[i] != best {
				assign[i] = best
				changed = true
			}
		}

		// 2. 重算中心
		counts := make([]int, m.K)
		sums := make([][]float64, m.K)
		for c := range sums {
			sums[c] = make([]float64, nFeatures)
		}
		for i, x := range X {
			counts[assign[i]]++
			floats.Add(sums[assign[i]], x)
		}
		for c := range centers {
			if counts[c] == 0 {
				// 空簇保持原中心
				continue
			}
			for j := range centers[c] {
				centers[c][j] = sums[c][j] / float64(counts[c])
			}
		}

		if iter > 0 && !changed {
			break
		}
	}

	var inertia float64
	for i, x := range X {
		inertia += sqDist(x, centers[assign[i]])
	}
	return inertia
}

// Predict 返回每个样本的簇编号
func (m *KMeans) Predict(X [][]float64) []int {
	labels := make([]int, len(X))
	for i, x := range X {
		best, bestD := 0, math.Inf(1)
		for c, center := range m.Centers {
			if d := sqDist(x, center); d < bestD {
				best, bestD = c, d
			}
		}
		labels[i] = best
	}
	return labels
}

// FitPredict 拟合并返回簇编号
func (m *KMeans) FitPredict(X [][]float64, rng *rand.Rand) ([]int, error) {
	if err := m.Fit(X, rng); err != nil {
		return nil, err
	}
	return m.Predict(X), nil
}
