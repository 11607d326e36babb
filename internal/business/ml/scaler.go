package ml

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// StandardScaler 标准化器（零均值/单位方差）
// 与 sklearn 一致使用总体标准差；零方差列保持原值不变
type StandardScaler struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

// NewStandardScaler 创建标准化器
func NewStandardScaler() *StandardScaler {
	return &StandardScaler{}
}

// Fit 计算各列均值与标准差
func (s *StandardScaler) Fit(X [][]float64) error {
	if len(X) == 0 || len(X[0]) == 0 {
		return fmt.Errorf("scaler: empty input")
	}
	nFeatures := len(X[0])
	s.Mean = make([]float64, nFeatures)
	s.Std = make([]float64, nFeatures)

	col := make([]float64, len(X))
	for j := 0; j < nFeatures; j++ {
		for i := range X {
			col[i] = X[i][j]
		}
		mean := stat.Mean(col, nil)

		// 总体方差（ddof=0）
		var ss float64
		for _, v := range col {
			d := v - mean
			ss += d * d
		}
		std := math.Sqrt(ss / float64(len(col)))
		if std == 0 {
			std = 1
		}

		s.Mean[j] = mean
		s.Std[j] = std
	}
	return nil
}

// Transform 标准化
func (s *StandardScaler) Transform(X [][]float64) ([][]float64, error) {
	if len(s.Mean) == 0 {
		return nil, fmt.Errorf("scaler: not fitted")
	}
	out := make([][]float64, len(X))
	for i, row := range X {
		if len(row) != len(s.Mean) {
			return nil, fmt.Errorf("scaler: expected %d features, got %d", len(s.Mean), len(row))
		}
		scaled := make([]float64, len(row))
		for j, v := range row {
			scaled[j] = (v - s.Mean[j]) / s.Std[j]
		}
		out[i] = scaled
	}
	return out, nil
}

// FitTransform 先拟合再标准化
func (s *StandardScaler) FitTransform(X [][]float64) ([][]float64, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}
