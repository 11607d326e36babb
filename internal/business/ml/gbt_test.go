package ml

import (
	"math"
	"testing"
)

func gbtTestParams() GBTParams {
	return GBTParams{
		NEstimators:     50,
		MaxDepth:        3,
		LearningRate:    0.1,
		Subsample:       0.8,
		ColsampleByTree: 1,
	}
}

func TestGBTClassifierSeparable(t *testing.T) {
	var X [][]float64
	var y []int
	for i := 0; i < 40; i++ {
		X = append(X, []float64{float64(i), float64(i % 3)})
		if i >= 20 {
			y = append(y, 1)
		} else {
			y = append(y, 0)
		}
	}

	m := NewGBTClassifier(gbtTestParams(), 42)
	if err := m.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	prob, err := m.PredictProba(X)
	if err != nil {
		t.Fatalf("PredictProba failed: %v", err)
	}
	pred := Threshold(prob, 0.5)
	if acc := Accuracy(y, pred); acc < 0.95 {
		t.Fatalf("accuracy on separable data = %v, want >= 0.95", acc)
	}
}

func TestGBTClassifierDeterministic(t *testing.T) {
	X := [][]float64{{1}, {2}, {3}, {4}, {5}, {6}, {7}, {8}}
	y := []int{0, 0, 0, 0, 1, 1, 1, 1}

	a := NewGBTClassifier(gbtTestParams(), 7)
	if err := a.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	b := NewGBTClassifier(gbtTestParams(), 7)
	if err := b.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	probA, _ := a.PredictProba(X)
	probB, _ := b.PredictProba(X)
	for i := range probA {
		if probA[i] != probB[i] {
			t.Fatalf("same seed produced different probabilities at %d", i)
		}
	}
}

func TestGBTClassifierSingleClass(t *testing.T) {
	X := [][]float64{{1}, {2}, {3}}
	y := []int{1, 1, 1}

	m := NewGBTClassifier(gbtTestParams(), 1)
	if err := m.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	prob, err := m.PredictProba(X)
	if err != nil {
		t.Fatalf("PredictProba failed: %v", err)
	}
	for i, p := range prob {
		if p != 1 {
			t.Fatalf("single-class probability[%d] = %v, want 1", i, p)
		}
	}
}

func TestGBTRegressorReducesError(t *testing.T) {
	// y = 3x + 噪声结构（piecewise 可被树拟合）
	var X [][]float64
	var y []float64
	for i := 0; i < 50; i++ {
		X = append(X, []float64{float64(i)})
		y = append(y, 3*float64(i))
	}

	m := NewGBTRegressor(GBTParams{
		NEstimators:     100,
		MaxDepth:        3,
		LearningRate:    0.1,
		Subsample:       1,
		ColsampleByTree: 1,
	}, 42)
	if err := m.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	pred, err := m.Predict(X)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}

	// 常数基线的 MAE
	var mean float64
	for _, v := range y {
		mean += v
	}
	mean /= float64(len(y))
	var baselineMAE float64
	for _, v := range y {
		baselineMAE += math.Abs(v - mean)
	}
	baselineMAE /= float64(len(y))

	if got := MAE(y, pred); got > baselineMAE/4 {
		t.Fatalf("MAE = %v, want far below baseline %v", got, baselineMAE)
	}
}

func TestGBTRegressorNotFitted(t *testing.T) {
	m := NewGBTRegressor(gbtTestParams(), 1)
	if _, err := m.Predict([][]float64{{1}}); err == nil {
		t.Fatal("expected error for unfitted model")
	}
}
