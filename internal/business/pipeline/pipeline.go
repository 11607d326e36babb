package pipeline

import (
	"context"

	"crp/dptrain/internal/business/churn"
	"crp/dptrain/internal/business/cost"
	"crp/dptrain/internal/business/dataset"
	"crp/dptrain/internal/business/feature"
	"crp/dptrain/internal/business/ltv"
	"crp/dptrain/internal/business/report"
	"crp/dptrain/internal/business/segment"
	"crp/dptrain/pkg/config"
	"crp/dptrain/pkg/errorutil"
	"crp/dptrain/pkg/logger"
)

// RunInput 一次训练运行的输入
type RunInput struct {
	RunID   string
	OrgID   string
	Raw     *dataset.RawTable
	Mapping dataset.Mapping
	Params  config.TrainingConfig
}

// Pipeline 训练管道编排器
// 单线程顺序执行，任一阶段出错立即终止，不重试
type Pipeline struct {
	store   ArtifactStore
	tracker MetricsTracker
	log     logger.Logger

	// 可替换的提升树后端（nil 使用内置实现；显式置空用于依赖缺失路径）
	ChurnFactory churn.ClassifierFactory
	LTVFactory   ltv.RegressorFactory
}

// New 创建管道（tracker 可为 nil）
func New(store ArtifactStore, tracker MetricsTracker, log logger.Logger) *Pipeline {
	return &Pipeline{store: store, tracker: tracker, log: log}
}

// Run 执行完整训练流程
// 1. 列标准化与清洗
// 2. 全历史特征（快照 = 最大时间戳 + 1 天）与时间切分特征（截止 = 最大时间戳 - 留出窗口）
// 3. 分群 → 流失模型 → LTV 模型 → 业务成本
// 4. 分群画像与运营建议报告
// 5. 产物整体落盘
func (p *Pipeline) Run(ctx context.Context, input *RunInput) (*RunResult, error) {
	std, err := dataset.Standardize(input.Raw, input.Mapping)
	if err != nil {
		return nil, err
	}
	txs, err := dataset.Clean(std)
	if err != nil {
		return nil, err
	}
	if len(txs) == 0 {
		return nil, errorutil.DataQuality("no transactions survived cleaning")
	}
	p.log.Infof(ctx, "cleaned transactions: %d rows", len(txs))

	maxTS := feature.MaxTimestamp(txs)
	snapshot := maxTS.AddDate(0, 0, 1)
	cutoff := maxTS.AddDate(0, 0, -input.Params.HoldoutDays)

	rfm := feature.Build(txs, snapshot)

	modeling := feature.BuildTimeSplit(txs, cutoff, input.Params.ChurnWindowDays, input.Params.LTVHorizonDays)
	filtered := modeling[:0]
	for _, f := range modeling {
		if f.Frequency >= input.Params.MinTransactions {
			filtered = append(filtered, f)
		}
	}
	modeling = filtered
	p.log.Infof(ctx, "feature rows: %d segmentation, %d modeling", len(rfm), len(modeling))

	if p.tracker != nil {
		params := map[string]interface{}{
			"churn_window_days": input.Params.ChurnWindowDays,
			"ltv_horizon_days":  input.Params.LTVHorizonDays,
			"holdout_days":      input.Params.HoldoutDays,
			"min_transactions":  input.Params.MinTransactions,
		}
		if err := p.tracker.LogParams(ctx, input.RunID, params); err != nil {
			return nil, errorutil.Retriable("log params failed: " + err.Error())
		}
	}

	// 分群
	segModel, err := segment.NewTrainer(input.Params.KMin, input.Params.KMax, input.Params.RandomState).Train(rfm)
	if err != nil {
		return nil, err
	}
	p.log.Infof(ctx, "segmentation done: k=%d silhouette=%.4f", segModel.K, segModel.Silhouette)

	// 流失模型
	X := make([][]float64, len(modeling))
	yChurn := make([]int, len(modeling))
	ySpend := make([]float64, len(modeling))
	for i := range modeling {
		X[i] = modeling[i].CoreVector()
		yChurn[i] = modeling[i].ChurnLabel
		ySpend[i] = modeling[i].FutureSpend
	}

	churnTrainer := churn.NewTrainer(input.Params.RandomState)
	if p.ChurnFactory != nil {
		churnTrainer.NewClassifier = p.ChurnFactory
	}
	churnRes, err := churnTrainer.Train(X, yChurn)
	if err != nil {
		return nil, err
	}
	p.log.Infof(ctx, "churn training done: best=%s logreg_acc=%.4f xgb_acc=%.4f",
		churnRes.BestFamily, churnRes.Metrics["logreg_acc"], churnRes.Metrics["xgb_acc"])

	// LTV 模型
	ltvTrainer := ltv.NewTrainer(input.Params.RandomState)
	if p.LTVFactory != nil {
		ltvTrainer.NewRegressor = p.LTVFactory
	}
	ltvRes, err := ltvTrainer.Train(X, ySpend)
	if err != nil {
		return nil, err
	}

	// 业务成本：提升树在全量建模集上的概率，固定 0.5 判决
	churnProbs, err := churnRes.Boosted.PredictProba(X)
	if err != nil {
		return nil, errorutil.DataQuality("business cost scoring failed: %v", err)
	}
	costSummary, err := cost.Evaluate(yChurn, churnProbs, input.Params.CostFP, input.Params.CostFN)
	if err != nil {
		return nil, err
	}

	metrics := make(map[string]float64, len(churnRes.Metrics)+len(ltvRes.Metrics)+1)
	for k, v := range churnRes.Metrics {
		metrics[k] = v
	}
	for k, v := range ltvRes.Metrics {
		metrics[k] = v
	}
	metrics["business_cost"] = costSummary.TotalCost

	if p.tracker != nil {
		if err := p.tracker.LogMetrics(ctx, input.RunID, metrics); err != nil {
			return nil, errorutil.Retriable("log metrics failed: " + err.Error())
		}
	}

	// 分群画像：左连接建模标签，缺失按未流失/零消费处理
	labels := make(map[int64]*feature.CustomerFeatures, len(modeling))
	for i := range modeling {
		labels[modeling[i].CustomerID] = &modeling[i]
	}
	for i := range rfm {
		if m, ok := labels[rfm[i].CustomerID]; ok {
			rfm[i].ChurnLabel = m.ChurnLabel
			rfm[i].FutureSpend = m.FutureSpend
		} else {
			rfm[i].ChurnLabel = 0
			rfm[i].FutureSpend = 0
		}
	}
	summary := report.RecommendActions(report.BuildSegmentSummary(rfm))

	// 主模型：测试准确率高者（并列取逻辑回归）
	var bestModel interface{} = churnRes.Logreg
	if churnRes.BestFamily == "xgb" {
		bestModel = churnRes.Boosted
	}

	result := &RunResult{
		RunID:        input.RunID,
		OrgID:        input.OrgID,
		SnapshotDate: snapshot,
		CutoffDate:   cutoff,
		Artifacts: map[string]interface{}{
			ArtifactScaler:      segModel.Scaler,
			ArtifactKMeans:      segModel.KMeans,
			ArtifactChurnLogreg: churnRes.Logreg,
			ArtifactChurnXGB:    churnRes.Boosted,
			ArtifactChurnBest:   bestModel,
			ArtifactLTVXGB:      ltvRes.Model,
		},
		SegmentedCustomers: rfm,
		FeatureStore:       modeling,
		Summary:            summary,
		Metrics:            metrics,
		KMeansScores:       segModel.Scores,
		Report:             report.RenderStrategicReport(summary),
	}

	if err := p.store.SaveRun(ctx, result); err != nil {
		return nil, errorutil.Retriable("save run failed: " + err.Error())
	}
	p.log.Infof(ctx, "run persisted: best churn model %s, business cost %.2f",
		churnRes.BestFamily, costSummary.TotalCost)

	return result, nil
}
