package fsstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"crp/dptrain/internal/business/pipeline"
)

// Store 文件系统产物存储（fasttest 与本地运行使用）
// 每次运行写入独立目录，先写临时目录再整体改名，避免半成品目录
type Store struct {
	artifactsDir string
	reportsDir   string
}

// NewStore 创建存储实例
func NewStore(artifactsDir, reportsDir string) (*Store, error) {
	if err := os.MkdirAll(artifactsDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create artifacts dir: %w", err)
	}
	if err := os.MkdirAll(reportsDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create reports dir: %w", err)
	}
	return &Store{artifactsDir: artifactsDir, reportsDir: reportsDir}, nil
}

// RunDir 返回某次运行的产物目录
func (s *Store) RunDir(runID string) string {
	return filepath.Join(s.artifactsDir, runID)
}

// ReportPath 返回某次运行的报告路径
func (s *Store) ReportPath(runID string) string {
	return filepath.Join(s.reportsDir, runID+"_strategic_report.md")
}

// SaveRun 持久化一次完整运行（实现 ArtifactStore 接口）
func (s *Store) SaveRun(ctx context.Context, result *pipeline.RunResult) error {
	tmpDir, err := os.MkdirTemp(s.artifactsDir, ".run-")
	if err != nil {
		return fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	for name, artifact := range result.Artifacts {
		if err := writeJSON(filepath.Join(tmpDir, name+".json"), artifact); err != nil {
			return err
		}
	}

	files := map[string]interface{}{
		"segmented_customers.json": result.SegmentedCustomers,
		"feature_store.json":       result.FeatureStore,
		"segment_summary.json":     result.Summary,
		"metrics.json":             result.Metrics,
		"kmeans_scores.json":       result.KMeansScores,
		"run.json": map[string]interface{}{
			"run_id":        result.RunID,
			"org_id":        result.OrgID,
			"snapshot_date": result.SnapshotDate,
			"cutoff_date":   result.CutoffDate,
		},
	}
	for name, payload := range files {
		if err := writeJSON(filepath.Join(tmpDir, name), payload); err != nil {
			return err
		}
	}

	reportPath := filepath.Join(tmpDir, "strategic_report.md")
	if err := os.WriteFile(reportPath, []byte(result.Report), 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	finalDir := s.RunDir(result.RunID)
	if err := os.RemoveAll(finalDir); err != nil {
		return fmt.Errorf("failed to clear run dir: %w", err)
	}
	if err := os.Rename(tmpDir, finalDir); err != nil {
		return fmt.Errorf("failed to finalize run dir: %w", err)
	}

	// 报告目录额外保存一份，便于直接查阅
	if err := os.WriteFile(s.ReportPath(result.RunID), []byte(result.Report), 0o644); err != nil {
		return fmt.Errorf("failed to write report copy: %w", err)
	}

	return nil
}

// LoadMetrics 读取某次运行的指标（测试与 fasttest 使用）
func (s *Store) LoadMetrics(runID string) (map[string]float64, error) {
	data, err := os.ReadFile(filepath.Join(s.RunDir(runID), "metrics.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to read metrics: %w", err)
	}
	var metrics map[string]float64
	if err := json.Unmarshal(data, &metrics); err != nil {
		return nil, fmt.Errorf("failed to decode metrics: %w", err)
	}
	return metrics, nil
}

// writeJSON 序列化并写入单个文件
func writeJSON(path string, payload interface{}) error {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}
