package mysql

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	"crp/dptrain/internal/business/pipeline"
)

// TrainingRun 训练运行记录（一行对应一次完整运行）
type TrainingRun struct {
	ID           uint      `gorm:"primaryKey"`
	RunID        string    `gorm:"column:run_id;uniqueIndex;size:64"`
	OrgID        string    `gorm:"column:org_id;size:64;index"`
	SnapshotDate time.Time `gorm:"column:snapshot_date"`
	CutoffDate   time.Time `gorm:"column:cutoff_date"`
	Artifacts    []byte    `gorm:"column:artifacts;type:json"`
	FeatureStore []byte    `gorm:"column:feature_store;type:json"`
	Segments     []byte    `gorm:"column:segments;type:json"`
	Summary      []byte    `gorm:"column:summary;type:json"`
	Metrics      []byte    `gorm:"column:metrics;type:json"`
	KScores      []byte    `gorm:"column:kmeans_scores;type:json"`
	Report       string    `gorm:"column:report;type:mediumtext"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

// TableName 指定表名
func (TrainingRun) TableName() string {
	return "training_runs"
}

// TrainingMetric 指标/参数记录（实验追踪明细）
type TrainingMetric struct {
	ID        uint      `gorm:"primaryKey"`
	RunID     string    `gorm:"column:run_id;size:64;index"`
	Name      string    `gorm:"column:name;size:128"`
	Value     string    `gorm:"column:value;size:255"`
	Kind      string    `gorm:"column:kind;size:16"` // param/metric
	CreatedAt time.Time `gorm:"column:created_at"`
}

// TableName 指定表名
func (TrainingMetric) TableName() string {
	return "training_metrics"
}

// ArtifactDAO 训练产物数据访问对象（实现 ArtifactStore 与 MetricsTracker）
type ArtifactDAO struct {
	db *gorm.DB
}

// NewArtifactDAO 基于已有连接创建 ArtifactDAO 实例
func NewArtifactDAO(db *gorm.DB) *ArtifactDAO {
	return &ArtifactDAO{db: db}
}

// SaveRun 持久化一次完整运行
// 所有产物在单个事务中写入同一行，失败整体回滚
func (dao *ArtifactDAO) SaveRun(ctx context.Context, result *pipeline.RunResult) error {
	artifacts, err := json.Marshal(result.Artifacts)
	if err != nil {
		return fmt.Errorf("failed to marshal artifacts: %w", err)
	}
	featureStore, err := json.Marshal(result.FeatureStore)
	if err != nil {
		return fmt.Errorf("failed to marshal feature store: %w", err)
	}
	segments, err := json.Marshal(result.SegmentedCustomers)
	if err != nil {
		return fmt.Errorf("failed to marshal segments: %w", err)
	}
	summary, err := json.Marshal(result.Summary)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	metrics, err := json.Marshal(result.Metrics)
	if err != nil {
		return fmt.Errorf("failed to marshal metrics: %w", err)
	}
	kScores, err := json.Marshal(result.KMeansScores)
	if err != nil {
		return fmt.Errorf("failed to marshal kmeans scores: %w", err)
	}

	run := &TrainingRun{
		RunID:        result.RunID,
		OrgID:        result.OrgID,
		SnapshotDate: result.SnapshotDate,
		CutoffDate:   result.CutoffDate,
		Artifacts:    artifacts,
		FeatureStore: featureStore,
		Segments:     segments,
		Summary:      summary,
		Metrics:      metrics,
		KScores:      kScores,
		Report:       result.Report,
	}

	if err := dao.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("failed to insert training run: %w", err)
	}
	return nil
}

// LogParams 记录运行参数
func (dao *ArtifactDAO) LogParams(ctx context.Context, runID string, params map[string]interface{}) error {
	rows := make([]TrainingMetric, 0, len(params))
	for name, value := range params {
		rows = append(rows, TrainingMetric{
			RunID: runID,
			Name:  name,
			Value: fmt.Sprintf("%v", value),
			Kind:  "param",
		})
	}
	if len(rows) == 0 {
		return nil
	}
	if err := dao.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to insert params: %w", err)
	}
	return nil
}

// LogMetrics 记录训练指标
func (dao *ArtifactDAO) LogMetrics(ctx context.Context, runID string, metrics map[string]float64) error {
	rows := make([]TrainingMetric, 0, len(metrics))
	for name, value := range metrics {
		rows = append(rows, TrainingMetric{
			RunID: runID,
			Name:  name,
			Value: fmt.Sprintf("%g", value),
			Kind:  "metric",
		})
	}
	if len(rows) == 0 {
		return nil
	}
	if err := dao.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to insert metrics: %w", err)
	}
	return nil
}

// GetRun 按运行 ID 查询
func (dao *ArtifactDAO) GetRun(ctx context.Context, runID string) (*TrainingRun, error) {
	var run TrainingRun
	result := dao.db.WithContext(ctx).Where("run_id = ?", runID).First(&run)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get training run: %w", result.Error)
	}
	return &run, nil
}

// AutoMigrate 建表（部署工具使用）
func (dao *ArtifactDAO) AutoMigrate() error {
	return dao.db.AutoMigrate(&TrainingRun{}, &TrainingMetric{})
}
