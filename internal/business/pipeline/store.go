package pipeline

import (
	"context"
	"time"

	"crp/dptrain/internal/business/feature"
	"crp/dptrain/internal/business/report"
)

// 模型产物名称（下游加载方按名取用）
const (
	ArtifactScaler      = "scaler"
	ArtifactKMeans      = "kmeans"
	ArtifactChurnLogreg = "churn_logreg"
	ArtifactChurnXGB    = "churn_xgb"
	ArtifactChurnBest   = "churn_best"
	ArtifactLTVXGB      = "ltv_xgb"
)

// RunResult 单次训练运行的完整产出
type RunResult struct {
	RunID        string    `json:"run_id"`
	OrgID        string    `json:"org_id"`
	SnapshotDate time.Time `json:"snapshot_date"`
	CutoffDate   time.Time `json:"cutoff_date"`

	// Artifacts 模型产物，按固定名称索引（值可 JSON 序列化）
	Artifacts map[string]interface{} `json:"artifacts"`

	// SegmentedCustomers 全历史分群特征；FeatureStore 建模特征（含标签）
	SegmentedCustomers []feature.CustomerFeatures `json:"segmented_customers"`
	FeatureStore       []feature.CustomerFeatures `json:"feature_store"`

	Summary      []report.SegmentSummary `json:"segment_summary"`
	Metrics      map[string]float64      `json:"metrics"`
	KMeansScores map[int]float64         `json:"kmeans_scores"`
	Report       string                  `json:"report"`
}

// ArtifactStore 运行产物持久化
// SaveRun 要么全部落盘要么不落盘，调用方不做部分重试
type ArtifactStore interface {
	SaveRun(ctx context.Context, result *RunResult) error
}

// MetricsTracker 训练指标记录（对应实验追踪系统）
type MetricsTracker interface {
	LogParams(ctx context.Context, runID string, params map[string]interface{}) error
	LogMetrics(ctx context.Context, runID string, metrics map[string]float64) error
}
