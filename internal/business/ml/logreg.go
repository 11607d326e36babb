package ml

import (
	"fmt"
	"math"
)

// LogisticRegression 线性概率分类器
// 内部先标准化特征再做带 L2 正则的批量梯度下降，确定性拟合（零初始化，无随机）
type LogisticRegression struct {
	MaxIter      int     `json:"max_iter"`
	LearningRate float64 `json:"learning_rate"`
	L2           float64 `json:"l2"`
	Tol          float64 `json:"tol"`

	Weights   []float64       `json:"weights"`
	Intercept float64         `json:"intercept"`
	Scaler    *StandardScaler `json:"scaler"`
}

// NewLogisticRegression 创建分类器（MaxIter=1000）
func NewLogisticRegression() *LogisticRegression {
	return &LogisticRegression{
		MaxIter:      1000,
		LearningRate: 0.1,
		L2:           1e-4,
		Tol:          1e-6,
	}
}

// sigmoid 逻辑函数
func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

// Fit 拟合
func (m *LogisticRegression) Fit(X [][]float64, y []int) error {
	if len(X) == 0 {
		return fmt.Errorf("logreg: empty training data")
	}
	if len(X) != len(y) {
		return fmt.Errorf("logreg: %d samples but %d labels", len(X), len(y))
	}

	m.Scaler = NewStandardScaler()
	Xs, err := m.Scaler.FitTransform(X)
	if err != nil {
		return err
	}

	n := len(Xs)
	nFeatures := len(Xs[0])
	m.Weights = make([]float64, nFeatures)
	m.Intercept = 0

	grad := make([]float64, nFeatures)
	for iter := 0; iter < m.MaxIter; iter++ {
		for j := range grad {
			grad[j] = 0
		}
		var gradB float64

		for i, row := range Xs {
			z := m.Intercept
			for j, v := range row {
				z += m.Weights[j] * v
			}
			diff := sigmoid(z) - float64(y[i])
			for j, v := range row {
				grad[j] += diff * v
			}
			gradB += diff
		}

		var maxStep float64
		for j := range m.Weights {
			step := m.LearningRate * (grad[j]/float64(n) + m.L2*m.Weights[j])
			m.Weights[j] -= step
			if s := math.Abs(step); s > maxStep {
				maxStep = s
			}
		}
		stepB := m.LearningRate * gradB / float64(n)
		m.Intercept -= stepB
		if s := math.Abs(stepB); s > maxStep {
			maxStep = s
		}

		if maxStep < m.Tol {
			break
		}
	}

	return nil
}

// PredictProba 返回正类概率
func (m *LogisticRegression) PredictProba(X [][]float64) ([]float64, error) {
	if m.Scaler == nil {
		return nil, fmt.Errorf("logreg: not fitted")
	}
	Xs, err := m.Scaler.Transform(X)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(Xs))
	for i, row := range Xs {
		z := m.Intercept
		for j, v := range row {
			z += m.Weights[j] * v
		}
		out[i] = sigmoid(z)
	}
	return out, nil
}
