package ml

import (
	"fmt"
	"math"
	"math/rand"
)

// GBTParams 梯度提升树超参数
type GBTParams struct {
	NEstimators     int     `json:"n_estimators"`
	MaxDepth        int     `json:"max_depth"`
	LearningRate    float64 `json:"learning_rate"`
	Subsample       float64 `json:"subsample"`
	ColsampleByTree float64 `json:"colsample_bytree"`
}

// GBTClassifier 二分类梯度提升树（对数损失，叶子取牛顿步）
type GBTClassifier struct {
	Params GBTParams `json:"params"`
	Seed   int64     `json:"seed"`

	InitScore float64 `json:"init_score"`
	Trees     []*Tree `json:"trees"`
}

// GBTRegressor 回归梯度提升树（平方损失，叶子取残差均值）
type GBTRegressor struct {
	Params GBTParams `json:"params"`
	Seed   int64     `json:"seed"`

	InitScore float64 `json:"init_score"`
	Trees     []*Tree `json:"trees"`
}

// NewGBTClassifier 创建分类器
func NewGBTClassifier(params GBTParams, seed int64) *GBTClassifier {
	return &GBTClassifier{Params: params, Seed: seed}
}

// NewGBTRegressor 创建回归器
func NewGBTRegressor(params GBTParams, seed int64) *GBTRegressor {
	return &GBTRegressor{Params: params, Seed: seed}
}

// sampleRows 按 Subsample 比例无放回抽样训练行
func sampleRows(n int, frac float64, rng *rand.Rand) []int {
	if frac >= 1 {
		rows := make([]int, n)
		for i := range rows {
			rows[i] = i
		}
		return rows
	}
	k := int(float64(n)*frac + 0.5)
	if k < 1 {
		k = 1
	}
	perm := rng.Perm(n)
	return perm[:k]
}

// sampleFeatures 按 ColsampleByTree 比例抽样候选特征列
func sampleFeatures(p int, frac float64, rng *rand.Rand) []int {
	if frac >= 1 {
		features := make([]int, p)
		for i := range features {
			features[i] = i
		}
		return features
	}
	k := int(float64(p)*frac + 0.5)
	if k < 1 {
		k = 1
	}
	perm := rng.Perm(p)
	return perm[:k]
}

// Fit 拟合分类器
// 初始分数取先验对数几率，每轮对概率残差拟合一棵树，叶子值用牛顿步修正
func (m *GBTClassifier) Fit(X [][]float64, y []int) error {
	if len(X) == 0 {
		return fmt.Errorf("gbt classifier: empty training data")
	}
	if len(X) != len(y) {
		return fmt.Errorf("gbt classifier: %d samples but %d labels", len(X), len(y))
	}

	n := len(X)
	p := len(X[0])
	rng := rand.New(rand.NewSource(m.Seed))

	var nPos int
	for _, label := range y {
		if label == 1 {
			nPos++
		}
	}
	if nPos == 0 || nPos == n {
		// 单类别退化为常数模型
		if nPos == n {
			m.InitScore = math.Inf(1)
		} else {
			m.InitScore = math.Inf(-1)
		}
		m.Trees = nil
		return nil
	}
	prior := float64(nPos) / float64(n)
	m.InitScore = math.Log(prior / (1 - prior))

	score := make([]float64, n)
	for i := range score {
		score[i] = m.InitScore
	}

	residual := make([]float64, n)
	prob := make([]float64, n)
	m.Trees = make([]*Tree, 0, m.Params.NEstimators)

	for t := 0; t < m.Params.NEstimators; t++ {
		for i := range score {
			prob[i] = sigmoid(score[i])
			residual[i] = float64(y[i]) - prob[i]
		}

		rows := sampleRows(n, m.Params.Subsample, rng)
		features := sampleFeatures(p, m.Params.ColsampleByTree, rng)

		// 叶子牛顿步：sum(r) / sum(p*(1-p))
		leaf := func(idx []int) float64 {
			var num, den float64
			for _, i := range idx {
				num += residual[i]
				den += prob[i] * (1 - prob[i])
			}
			if den < 1e-12 {
				return 0
			}
			return num / den
		}

		tree := fitTree(X, residual, rows, features, m.Params.MaxDepth, 1, leaf)
		m.Trees = append(m.Trees, tree)
		for i, x := range X {
			score[i] += m.Params.LearningRate * tree.Predict(x)
		}
	}

	return nil
}

// PredictProba 返回正类概率
func (m *GBTClassifier) PredictProba(X [][]float64) ([]float64, error) {
	if m.Trees == nil && m.InitScore == 0 {
		return nil, fmt.Errorf("gbt classifier: not fitted")
	}
	out := make([]float64, len(X))
	for i, x := range X {
		score := m.InitScore
		for _, tree := range m.Trees {
			score += m.Params.LearningRate * tree.Predict(x)
		}
		out[i] = sigmoid(score)
	}
	return out, nil
}

// Fit 拟合回归器
// 初始分数取目标均值，每轮对残差拟合一棵树
func (m *GBTRegressor) Fit(X [][]float64, y []float64) error {
	if len(X) == 0 {
		return fmt.Errorf("gbt regressor: empty training data")
	}
	if len(X) != len(y) {
		return fmt.Errorf("gbt regressor: %d samples but %d targets", len(X), len(y))
	}

	n := len(X)
	p := len(X[0])
	rng := rand.New(rand.NewSource(m.Seed))

	var sum float64
	for _, v := range y {
		sum += v
	}
	m.InitScore = sum / float64(n)

	score := make([]float64, n)
	for i := range score {
		score[i] = m.InitScore
	}

	residual := make([]float64, n)
	m.Trees = make([]*Tree, 0, m.Params.NEstimators)

	for t := 0; t < m.Params.NEstimators; t++ {
		for i := range score {
			residual[i] = y[i] - score[i]
		}

		rows := sampleRows(n, m.Params.Subsample, rng)
		features := sampleFeatures(p, m.Params.ColsampleByTree, rng)

		leaf := func(idx []int) float64 {
			if len(idx) == 0 {
				return 0
			}
			var s float64
			for _, i := range idx {
				s += residual[i]
			}
			return s / float64(len(idx))
		}

		tree := fitTree(X, residual, rows, features, m.Params.MaxDepth, 1, leaf)
		m.Trees = append(m.Trees, tree)
		for i, x := range X {
			score[i] += m.Params.LearningRate * tree.Predict(x)
		}
	}

	return nil
}

// Predict 回归预测
func (m *GBTRegressor) Predict(X [][]float64) ([]float64, error) {
	if m.Trees == nil {
		return nil, fmt.Errorf("gbt regressor: not fitted")
	}
	out := make([]float64, len(X))
	for i, x := range X {
		score := m.InitScore
		for _, tree := range m.Trees {
			score += m.Params.LearningRate * tree.Predict(x)
		}
		out[i] = score
	}
	return out, nil
}
