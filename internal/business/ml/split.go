package ml

import (
	"fmt"
	"math/rand"
)

// TrainTestSplit 随机切分下标（打乱后按比例切，testSize 为测试集占比）
func TrainTestSplit(n int, testSize float64, rng *rand.Rand) (trainIdx, testIdx []int) {
	indices := rng.Perm(n)
	nTest := int(float64(n)*testSize + 0.5)
	if nTest < 1 {
		nTest = 1
	}
	if nTest >= n {
		nTest = n - 1
	}
	return indices[nTest:], indices[:nTest]
}

// StratifiedSplit 按标签分层切分下标（各类别内部独立打乱并按比例切分，
// 每类至少保留一个训练样本与一个测试样本）
func StratifiedSplit(y []int, testSize float64, rng *rand.Rand) (trainIdx, testIdx []int, err error) {
	byClass := make(map[int][]int)
	for i, label := range y {
		byClass[label] = append(byClass[label], i)
	}
	for label, members := range byClass {
		if len(members) < 2 {
			return nil, nil, fmt.Errorf("stratified split: class %d has %d sample(s), need >= 2", label, len(members))
		}
	}

	// 固定类别遍历顺序（map 遍历顺序不可复现）
	classes := make([]int, 0, len(byClass))
	for label := range byClass {
		classes = append(classes, label)
	}
	for i := 1; i < len(classes); i++ {
		for j := i; j > 0 && classes[j] < classes[j-1]; j-- {
			classes[j], classes[j-1] = classes[j-1], classes[j]
		}
	}

	for _, label := range classes {
		members := byClass[label]
		rng.Shuffle(len(members), func(i, j int) {
			members[i], members[j] = members[j], members[i]
		})

		nTest := int(float64(len(members))*testSize + 0.5)
		if nTest < 1 {
			nTest = 1
		}
		if nTest >= len(members) {
			nTest = len(members) - 1
		}

		testIdx = append(testIdx, members[:nTest]...)
		trainIdx = append(trainIdx, members[nTest:]...)
	}

	rng.Shuffle(len(trainIdx), func(i, j int) { trainIdx[i], trainIdx[j] = trainIdx[j], trainIdx[i] })
	rng.Shuffle(len(testIdx), func(i, j int) { testIdx[i], testIdx[j] = testIdx[j], testIdx[i] })
	return trainIdx, testIdx, nil
}

// SelectRows 按下标选取样本
func SelectRows(X [][]float64, indices []int) [][]float64 {
	out := make([][]float64, len(indices))
	for i, idx := range indices {
		out[i] = X[idx]
	}
	return out
}

// SelectLabels 按下标选取整型标签
func SelectLabels(y []int, indices []int) []int {
	out := make([]int, len(indices))
	for i, idx := range indices {
		out[i] = y[idx]
	}
	return out
}

// SelectTargets 按下标选取连续目标值
func SelectTargets(y []float64, indices []int) []float64 {
	out := make([]float64, len(indices))
	for i, idx := range indices {
		out[i] = y[idx]
	}
	return out
}
