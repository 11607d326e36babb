package ml

import (
	"fmt"
	"math"
	"sort"
)

// Accuracy 准确率
func Accuracy(yTrue, yPred []int) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	var correct int
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(yTrue))
}

// F1Score 二分类 F1（正类为 1；无正类预测且无正类标签时返回 0，与 sklearn 一致）
func F1Score(yTrue, yPred []int) float64 {
	var tp, fp, fn int
	for i := range yTrue {
		switch {
		case yPred[i] == 1 && yTrue[i] == 1:
			tp++
		case yPred[i] == 1 && yTrue[i] == 0:
			fp++
		case yPred[i] == 0 && yTrue[i] == 1:
			fn++
		}
	}
	denom := 2*tp + fp + fn
	if denom == 0 {
		return 0
	}
	return 2 * float64(tp) / float64(denom)
}

// RocAUC ROC 曲线下面积（秩统计法，重复分数取平均秩）
func RocAUC(yTrue []int, score []float64) (float64, error) {
	var nPos, nNeg int
	for _, y := range yTrue {
		if y == 1 {
			nPos++
		} else {
			nNeg++
		}
	}
	if nPos == 0 || nNeg == 0 {
		return 0, fmt.Errorf("roc auc: need both classes present (pos=%d, neg=%d)", nPos, nNeg)
	}

	// 按分数排序求秩
	order := make([]int, len(score))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return score[order[a]] < score[order[b]] })

	ranks := make([]float64, len(score))
	for i := 0; i < len(order); {
		j := i
		for j < len(order) && score[order[j]] == score[order[i]] {
			j++
		}
		// 平均秩（1-based）
		avg := float64(i+j+1) / 2
		for k := i; k < j; k++ {
			ranks[order[k]] = avg
		}
		i = j
	}

	var rankSum float64
	for i, y := range yTrue {
		if y == 1 {
			rankSum += ranks[i]
		}
	}
	u := rankSum - float64(nPos)*float64(nPos+1)/2
	return u / (float64(nPos) * float64(nNeg)), nil
}

// MAE 平均绝对误差
func MAE(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	var sum float64
	for i := range yTrue {
		sum += math.Abs(yPred[i] - yTrue[i])
	}
	return sum / float64(len(yTrue))
}

// RMSE 均方根误差
func RMSE(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	var sum float64
	for i := range yTrue {
		d := yPred[i] - yTrue[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(yTrue)))
}

// Threshold 按阈值将概率转为 0/1 预测（prob >= thresh → 1）
func Threshold(prob []float64, thresh float64) []int {
	out := make([]int, len(prob))
	for i, p := range prob {
		if p >= thresh {
			out[i] = 1
		}
	}
	return out
}
