package fsstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"crp/dptrain/internal/business/feature"
	"crp/dptrain/internal/business/pipeline"
	"crp/dptrain/internal/business/report"
)

func sampleResult() *pipeline.RunResult {
	return &pipeline.RunResult{
		RunID:        "run-1",
		OrgID:        "org-1",
		SnapshotDate: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		CutoffDate:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Artifacts: map[string]interface{}{
			pipeline.ArtifactScaler: map[string]float64{"mean": 1.5},
		},
		SegmentedCustomers: []feature.CustomerFeatures{{CustomerID: 1, Segment: 0}},
		FeatureStore:       []feature.CustomerFeatures{{CustomerID: 1, ChurnLabel: 1}},
		Summary:            []report.SegmentSummary{{Segment: 0, Customers: 1}},
		Metrics:            map[string]float64{"logreg_acc": 0.91, "business_cost": 35},
		KMeansScores:       map[int]float64{3: 0.42},
		Report:             "# Strategic Recommendation Report\n",
	}
}

func TestSaveRunRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(filepath.Join(dir, "artifacts"), filepath.Join(dir, "reports"))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	result := sampleResult()
	if err := store.SaveRun(context.Background(), result); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	runDir := store.RunDir("run-1")
	for _, name := range []string{
		"scaler.json", "segmented_customers.json", "feature_store.json",
		"segment_summary.json", "metrics.json", "kmeans_scores.json",
		"run.json", "strategic_report.md",
	} {
		if _, err := os.Stat(filepath.Join(runDir, name)); err != nil {
			t.Fatalf("%s not written: %v", name, err)
		}
	}

	metrics, err := store.LoadMetrics("run-1")
	if err != nil {
		t.Fatalf("LoadMetrics failed: %v", err)
	}
	if metrics["logreg_acc"] != 0.91 || metrics["business_cost"] != 35 {
		t.Fatalf("metrics round trip = %v", metrics)
	}

	reportData, err := os.ReadFile(store.ReportPath("run-1"))
	if err != nil {
		t.Fatalf("report copy missing: %v", err)
	}
	if string(reportData) != result.Report {
		t.Fatalf("report copy differs")
	}
}

func TestSaveRunOverwrite(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(filepath.Join(dir, "artifacts"), filepath.Join(dir, "reports"))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	result := sampleResult()
	if err := store.SaveRun(context.Background(), result); err != nil {
		t.Fatalf("first SaveRun failed: %v", err)
	}

	result.Metrics["logreg_acc"] = 0.5
	if err := store.SaveRun(context.Background(), result); err != nil {
		t.Fatalf("second SaveRun failed: %v", err)
	}

	metrics, err := store.LoadMetrics("run-1")
	if err != nil {
		t.Fatalf("LoadMetrics failed: %v", err)
	}
	if metrics["logreg_acc"] != 0.5 {
		t.Fatalf("run dir not replaced: %v", metrics)
	}

	// 临时目录不得残留
	entries, err := os.ReadDir(filepath.Join(dir, "artifacts"))
	if err != nil {
		t.Fatalf("read artifacts dir: %v", err)
	}
	for _, e := range entries {
		if e.Name() != "run-1" {
			t.Fatalf("unexpected leftover entry %q", e.Name())
		}
	}
}

func TestLoadMetricsMissingRun(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(filepath.Join(dir, "artifacts"), filepath.Join(dir, "reports"))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	if _, err := store.LoadMetrics("nope"); err == nil {
		t.Fatal("expected error for missing run")
	}
}
