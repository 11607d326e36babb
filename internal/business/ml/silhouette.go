package ml

import (
	"fmt"
	"math"
)

// SilhouetteScore 轮廓系数（簇内/簇间距离比的逐点均值，取值 [-1,1]，越大越好）
// 单点簇的轮廓值按 0 计（与 sklearn 一致）
func SilhouetteScore(X [][]float64, labels []int) (float64, error) {
	if len(X) != len(labels) {
		return 0, fmt.Errorf("silhouette: %d samples but %d labels", len(X), len(labels))
	}

	// 簇成员索引
	clusters := make(map[int][]int)
	for i, l := range labels {
		clusters[l] = append(clusters[l], i)
	}
	if len(clusters) < 2 {
		return 0, fmt.Errorf("silhouette: need at least 2 clusters, got %d", len(clusters))
	}
	if len(clusters) >= len(X) {
		return 0, fmt.Errorf("silhouette: need fewer clusters than samples (%d clusters, %d samples)", len(clusters), len(X))
	}

	var total float64
	for i, x := range X {
		own := labels[i]
		if len(clusters[own]) == 1 {
			continue // s=0
		}

		// a: 与同簇其他点的平均距离
		var aSum float64
		for _, j := range clusters[own] {
			if j == i {
				continue
			}
			aSum += math.Sqrt(sqDist(x, X[j]))
		}
		a := aSum / float64(len(clusters[own])-1)

		// b: 最近异簇的平均距离
		b := math.Inf(1)
		for l, members := range clusters {
			if l == own {
				continue
			}
			var dSum float64
			for _, j := range members {
				dSum += math.Sqrt(sqDist(x, X[j]))
			}
			if d := dSum / float64(len(members)); d < b {
				b = d
			}
		}

		if denom := math.Max(a, b); denom > 0 {
			total += (b - a) / denom
		}
	}

	return total / float64(len(X)), nil
}
