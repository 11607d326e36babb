package ml

import (
	"math"
	"testing"
)

func TestStandardScalerFitTransform(t *testing.T) {
	X := [][]float64{
		{1, 10},
		{2, 20},
		{3, 30},
	}

	s := NewStandardScaler()
	Xs, err := s.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}

	if math.Abs(s.Mean[0]-2) > 1e-9 || math.Abs(s.Mean[1]-20) > 1e-9 {
		t.Fatalf("unexpected means: %v", s.Mean)
	}

	// 每列均值 0、总体方差 1
	for j := 0; j < 2; j++ {
		var sum, sq float64
		for i := range Xs {
			sum += Xs[i][j]
			sq += Xs[i][j] * Xs[i][j]
		}
		mean := sum / float64(len(Xs))
		variance := sq/float64(len(Xs)) - mean*mean
		if math.Abs(mean) > 1e-9 {
			t.Fatalf("column %d mean = %v, want 0", j, mean)
		}
		if math.Abs(variance-1) > 1e-9 {
			t.Fatalf("column %d variance = %v, want 1", j, variance)
		}
	}
}

func TestStandardScalerConstantColumn(t *testing.T) {
	X := [][]float64{{5, 1}, {5, 2}, {5, 3}}

	s := NewStandardScaler()
	Xs, err := s.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}

	// 零方差列除数按 1 处理，只减均值
	for i := range Xs {
		if Xs[i][0] != 0 {
			t.Fatalf("constant column row %d = %v, want 0", i, Xs[i][0])
		}
	}
}

func TestStandardScalerNotFitted(t *testing.T) {
	s := NewStandardScaler()
	if _, err := s.Transform([][]float64{{1}}); err == nil {
		t.Fatal("expected error for unfitted scaler")
	}
}
