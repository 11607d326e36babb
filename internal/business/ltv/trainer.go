package ltv

import (
	"math/rand"

	"crp/dptrain/internal/business/ml"
	"crp/dptrain/pkg/errorutil"
)

// Regressor 连续值回归器
type Regressor interface {
	Fit(X [][]float64, y []float64) error
	Predict(X [][]float64) ([]float64, error)
}

// RegressorFactory 提升树回归器工厂（缺失时训练降级为依赖错误）
type RegressorFactory func(params ml.GBTParams, seed int64) Regressor

// regressorParams 留存价值回归的固定超参
var regressorParams = ml.GBTParams{
	NEstimators:     400,
	MaxDepth:        5,
	LearningRate:    0.05,
	Subsample:       0.8,
	ColsampleByTree: 0.8,
}

// Result 留存价值模型训练产出
type Result struct {
	Model   Regressor          `json:"model"`
	Params  ml.GBTParams       `json:"params"`
	Metrics map[string]float64 `json:"metrics"`
}

// Trainer 未来消费额回归训练器
type Trainer struct {
	Seed         int64
	NewRegressor RegressorFactory
}

// NewTrainer 创建训练器（默认使用内置提升树实现）
func NewTrainer(seed int64) *Trainer {
	return &Trainer{
		Seed: seed,
		NewRegressor: func(params ml.GBTParams, seed int64) Regressor {
			return ml.NewGBTRegressor(params, seed)
		},
	}
}

// Train 训练回归模型
// 随机 80/20 切分（未来消费额连续，不做分层），测试集上报告 MAE 与 RMSE
func (t *Trainer) Train(X [][]float64, y []float64) (*Result, error) {
	if t.NewRegressor == nil {
		return nil, errorutil.Dependency("boosted tree regressor backend unavailable")
	}
	if len(X) < 2 {
		return nil, errorutil.DataQuality("ltv training needs at least 2 customers, got %d", len(X))
	}

	trainIdx, testIdx := ml.TrainTestSplit(len(X), 0.2, rand.New(rand.NewSource(t.Seed)))
	XTrain, yTrain := ml.SelectRows(X, trainIdx), ml.SelectTargets(y, trainIdx)
	XTest, yTest := ml.SelectRows(X, testIdx), ml.SelectTargets(y, testIdx)

	model := t.NewRegressor(regressorParams, t.Seed)
	if err := model.Fit(XTrain, yTrain); err != nil {
		return nil, errorutil.DataQuality("ltv regressor fit failed: %v", err)
	}

	pred, err := model.Predict(XTest)
	if err != nil {
		return nil, errorutil.DataQuality("ltv regressor predict failed: %v", err)
	}

	return &Result{
		Model:  model,
		Params: regressorParams,
		Metrics: map[string]float64{
			"ltv_mae":  ml.MAE(yTest, pred),
			"ltv_rmse": ml.RMSE(yTest, pred),
		},
	}, nil
}
