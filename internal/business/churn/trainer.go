package churn

import (
	"math/rand"
	"sync"

	"crp/dptrain/internal/business/ml"
	"crp/dptrain/pkg/errorutil"
)

// Classifier 概率二分类器
type Classifier interface {
	Fit(X [][]float64, y []int) error
	PredictProba(X [][]float64) ([]float64, error)
}

// ClassifierFactory 提升树分类器工厂（缺失时训练降级为依赖错误）
type ClassifierFactory func(params ml.GBTParams, seed int64) Classifier

// gridCandidates 提升树候选超参（固定行/列采样 0.8）
var gridCandidates = []ml.GBTParams{
	{NEstimators: 300, MaxDepth: 4, LearningRate: 0.05, Subsample: 0.8, ColsampleByTree: 0.8},
	{NEstimators: 500, MaxDepth: 4, LearningRate: 0.03, Subsample: 0.8, ColsampleByTree: 0.8},
	{NEstimators: 400, MaxDepth: 5, LearningRate: 0.05, Subsample: 0.8, ColsampleByTree: 0.8},
	{NEstimators: 600, MaxDepth: 6, LearningRate: 0.03, Subsample: 0.8, ColsampleByTree: 0.8},
}

// thresholdGrid 判决阈值扫描范围 [0.05, 0.95]，步长 0.01
func thresholdGrid() []float64 {
	out := make([]float64, 0, 91)
	for i := 0; i <= 90; i++ {
		out = append(out, 0.05+0.01*float64(i))
	}
	return out
}

// Result 流失模型训练产出
type Result struct {
	Logreg        *ml.LogisticRegression `json:"logreg"`
	Boosted       Classifier             `json:"boosted"`
	BoostedParams ml.GBTParams           `json:"boosted_params"`
	BestFamily    string                 `json:"best_family"`
	Metrics       map[string]float64     `json:"metrics"`
}

// Trainer 流失分类训练器：逻辑回归与提升树并行训练后对比择优
type Trainer struct {
	Seed          int64
	NewClassifier ClassifierFactory
}

// NewTrainer 创建训练器（默认使用内置提升树实现）
func NewTrainer(seed int64) *Trainer {
	return &Trainer{
		Seed: seed,
		NewClassifier: func(params ml.GBTParams, seed int64) Classifier {
			return ml.NewGBTClassifier(params, seed)
		},
	}
}

// tuneThreshold 在验证集上扫描判决阈值，返回准确率最高的阈值（并列取最小）
func tuneThreshold(prob []float64, yVal []int) (best float64, bestAcc float64) {
	best = 0.5
	bestAcc = -1
	for _, th := range thresholdGrid() {
		acc := ml.Accuracy(yVal, ml.Threshold(prob, th))
		if acc > bestAcc {
			bestAcc = acc
			best = th
		}
	}
	return best, bestAcc
}

// candidateFit 单个提升树候选的拟合与验证集调参结果
type candidateFit struct {
	model     Classifier
	threshold float64
	valAcc    float64
	err       error
}

// Train 训练流失模型
// 1. 分层切出测试集（20%），再从剩余部分分层切出验证集（25%，整体为 60/20/20）
// 2. 训练逻辑回归并在验证集上调阈值
// 3. 并行训练提升树候选网格，各自调阈值后按验证准确率择优（并列取靠前候选）
// 4. 两族模型在测试集上评估，测试准确率高者为对外主模型（并列取逻辑回归）
func (t *Trainer) Train(X [][]float64, y []int) (*Result, error) {
	if t.NewClassifier == nil {
		return nil, errorutil.Dependency("boosted tree classifier backend unavailable")
	}

	trainvalIdx, testIdx, err := ml.StratifiedSplit(y, 0.2, rand.New(rand.NewSource(t.Seed)))
	if err != nil {
		return nil, errorutil.DataQuality("churn split failed: %v", err)
	}
	yTrainval := ml.SelectLabels(y, trainvalIdx)
	trainSub, valSub, err := ml.StratifiedSplit(yTrainval, 0.25, rand.New(rand.NewSource(t.Seed)))
	if err != nil {
		return nil, errorutil.DataQuality("churn split failed: %v", err)
	}

	trainIdx := make([]int, len(trainSub))
	for i, s := range trainSub {
		trainIdx[i] = trainvalIdx[s]
	}
	valIdx := make([]int, len(valSub))
	for i, s := range valSub {
		valIdx[i] = trainvalIdx[s]
	}

	XTrain, yTrain := ml.SelectRows(X, trainIdx), ml.SelectLabels(y, trainIdx)
	XVal, yVal := ml.SelectRows(X, valIdx), ml.SelectLabels(y, valIdx)
	XTest, yTest := ml.SelectRows(X, testIdx), ml.SelectLabels(y, testIdx)

	// 逻辑回归
	logreg := ml.NewLogisticRegression()
	if err := logreg.Fit(XTrain, yTrain); err != nil {
		return nil, errorutil.DataQuality("logreg fit failed: %v", err)
	}
	logregValProb, err := logreg.PredictProba(XVal)
	if err != nil {
		return nil, errorutil.DataQuality("logreg predict failed: %v", err)
	}
	logregThreshold, logregValAcc := tuneThreshold(logregValProb, yVal)

	// 提升树网格并行拟合
	fits := make([]candidateFit, len(gridCandidates))
	var wg sync.WaitGroup
	for c, params := range gridCandidates {
		wg.Add(1)
		go func(c int, params ml.GBTParams) {
			defer wg.Done()
			model := t.NewClassifier(params, t.Seed)
			if err := model.Fit(XTrain, yTrain); err != nil {
				fits[c] = candidateFit{err: err}
				return
			}
			prob, err := model.PredictProba(XVal)
			if err != nil {
				fits[c] = candidateFit{err: err}
				return
			}
			th, acc := tuneThreshold(prob, yVal)
			fits[c] = candidateFit{model: model, threshold: th, valAcc: acc}
		}(c, params)
	}
	wg.Wait()

	bestCand := -1
	for c := range fits {
		if fits[c].err != nil {
			return nil, errorutil.DataQuality("boosted candidate %d failed: %v", c, fits[c].err)
		}
		if bestCand < 0 || fits[c].valAcc > fits[bestCand].valAcc {
			bestCand = c
		}
	}
	boosted := fits[bestCand]

	// 测试集评估
	metrics := map[string]float64{
		"logreg_best_threshold": logregThreshold,
		"logreg_val_acc":        logregValAcc,
		"xgb_best_threshold":    boosted.threshold,
		"xgb_val_acc":           boosted.valAcc,
	}

	logregTestProb, err := logreg.PredictProba(XTest)
	if err != nil {
		return nil, errorutil.DataQuality("logreg predict failed: %v", err)
	}
	boostedTestProb, err := boosted.model.PredictProba(XTest)
	if err != nil {
		return nil, errorutil.DataQuality("boosted predict failed: %v", err)
	}

	logregPred := ml.Threshold(logregTestProb, logregThreshold)
	boostedPred := ml.Threshold(boostedTestProb, boosted.threshold)
	metrics["logreg_acc"] = ml.Accuracy(yTest, logregPred)
	metrics["logreg_f1"] = ml.F1Score(yTest, logregPred)
	metrics["xgb_acc"] = ml.Accuracy(yTest, boostedPred)
	metrics["xgb_f1"] = ml.F1Score(yTest, boostedPred)
	if auc, err := ml.RocAUC(yTest, logregTestProb); err == nil {
		metrics["logreg_auc"] = auc
	}
	if auc, err := ml.RocAUC(yTest, boostedTestProb); err == nil {
		metrics["xgb_auc"] = auc
	}

	// 基线：全预测未流失
	baselinePred := make([]int, len(yTest))
	metrics["baseline_acc"] = ml.Accuracy(yTest, baselinePred)
	metrics["baseline_f1"] = ml.F1Score(yTest, baselinePred)

	bestFamily := "logreg"
	if metrics["xgb_acc"] > metrics["logreg_acc"] {
		bestFamily = "xgb"
	}

	return &Result{
		Logreg:        logreg,
		Boosted:       boosted.model,
		BoostedParams: gridCandidates[bestCand],
		BestFamily:    bestFamily,
		Metrics:       metrics,
	}, nil
}
