package churn

import (
	"testing"

	"crp/dptrain/internal/business/ml"
	"crp/dptrain/pkg/errorutil"
)

// separableData 80 个样本，recency 高的一半为流失
func separableData() ([][]float64, []int) {
	var X [][]float64
	var y []int
	for i := 0; i < 80; i++ {
		recency := float64(i * 4)
		frequency := float64(80 - i)
		X = append(X, []float64{recency, frequency})
		if i >= 40 {
			y = append(y, 1)
		} else {
			y = append(y, 0)
		}
	}
	return X, y
}

func TestTrainMetricsComplete(t *testing.T) {
	X, y := separableData()
	result, err := NewTrainer(42).Train(X, y)
	if err != nil {
		t.Fatalf("Train failed: %v", err)
	}

	wantKeys := []string{
		"logreg_best_threshold", "logreg_val_acc", "logreg_acc", "logreg_f1", "logreg_auc",
		"xgb_best_threshold", "xgb_val_acc", "xgb_acc", "xgb_f1", "xgb_auc",
		"baseline_acc", "baseline_f1",
	}
	for _, key := range wantKeys {
		if _, ok := result.Metrics[key]; !ok {
			t.Fatalf("metric %q missing: %v", key, result.Metrics)
		}
	}

	for _, key := range []string{"logreg_best_threshold", "xgb_best_threshold"} {
		th := result.Metrics[key]
		if th < 0.05 || th > 0.95 {
			t.Fatalf("%s = %v, outside scan range", key, th)
		}
	}

	// 可分数据上两族模型都应明显优于基线
	if result.Metrics["logreg_acc"] < 0.9 || result.Metrics["xgb_acc"] < 0.9 {
		t.Fatalf("accuracy too low on separable data: %v", result.Metrics)
	}
	// 全预测未流失的基线
	if result.Metrics["baseline_f1"] != 0 {
		t.Fatalf("baseline_f1 = %v, want 0 for all-negative baseline", result.Metrics["baseline_f1"])
	}

	if result.Logreg == nil || result.Boosted == nil {
		t.Fatal("trained models missing from result")
	}
	if result.BestFamily != "logreg" && result.BestFamily != "xgb" {
		t.Fatalf("best_family = %q", result.BestFamily)
	}
}

func TestTrainTieGoesToLogreg(t *testing.T) {
	X, y := separableData()
	result, err := NewTrainer(42).Train(X, y)
	if err != nil {
		t.Fatalf("Train failed: %v", err)
	}
	if result.Metrics["xgb_acc"] <= result.Metrics["logreg_acc"] && result.BestFamily != "logreg" {
		t.Fatalf("best_family = %q with logreg_acc=%v xgb_acc=%v, want logreg on tie",
			result.BestFamily, result.Metrics["logreg_acc"], result.Metrics["xgb_acc"])
	}
}

func TestTrainDeterministic(t *testing.T) {
	X, y := separableData()

	a, err := NewTrainer(7).Train(X, y)
	if err != nil {
		t.Fatalf("Train failed: %v", err)
	}
	b, err := NewTrainer(7).Train(X, y)
	if err != nil {
		t.Fatalf("Train failed: %v", err)
	}

	for key, v := range a.Metrics {
		if b.Metrics[key] != v {
			t.Fatalf("metric %q differs across runs: %v vs %v", key, v, b.Metrics[key])
		}
	}
	if a.BestFamily != b.BestFamily {
		t.Fatalf("best_family differs: %q vs %q", a.BestFamily, b.BestFamily)
	}
}

func TestTrainMissingBackend(t *testing.T) {
	X, y := separableData()
	trainer := &Trainer{Seed: 42, NewClassifier: nil}

	_, err := trainer.Train(X, y)
	if err == nil {
		t.Fatal("expected dependency error")
	}
	if errorutil.KindOf(err) != errorutil.KindDependency {
		t.Fatalf("kind = %v, want dependency", errorutil.KindOf(err))
	}
}

func TestTrainTinyClass(t *testing.T) {
	// 流失类只有一个样本，分层切分无法保证训练/测试都覆盖
	X := [][]float64{{1}, {2}, {3}, {4}, {5}}
	y := []int{0, 0, 0, 0, 1}
	_, err := NewTrainer(1).Train(X, y)
	if err == nil {
		t.Fatal("expected error for class with a single sample")
	}
	if errorutil.KindOf(err) != errorutil.KindDataQuality {
		t.Fatalf("kind = %v, want data_quality", errorutil.KindOf(err))
	}
}

func TestThresholdGridRange(t *testing.T) {
	grid := thresholdGrid()
	if len(grid) != 91 {
		t.Fatalf("grid size = %d, want 91", len(grid))
	}
	if grid[0] != 0.05 {
		t.Fatalf("grid start = %v, want 0.05", grid[0])
	}
	if got := grid[len(grid)-1]; got < 0.949999 || got > 0.950001 {
		t.Fatalf("grid end = %v, want 0.95", got)
	}
}

func TestGridCandidatesSampling(t *testing.T) {
	for i, params := range gridCandidates {
		if params.Subsample != 0.8 || params.ColsampleByTree != 0.8 {
			t.Fatalf("candidate %d sampling = %v/%v, want 0.8/0.8", i, params.Subsample, params.ColsampleByTree)
		}
	}
}

// stubClassifier 验证工厂注入路径
type stubClassifier struct {
	prob float64
}

func (s *stubClassifier) Fit(X [][]float64, y []int) error { return nil }
func (s *stubClassifier) PredictProba(X [][]float64) ([]float64, error) {
	out := make([]float64, len(X))
	for i := range out {
		out[i] = s.prob
	}
	return out, nil
}

func TestTrainInjectedFactory(t *testing.T) {
	X, y := separableData()
	trainer := &Trainer{
		Seed: 42,
		NewClassifier: func(params ml.GBTParams, seed int64) Classifier {
			return &stubClassifier{prob: 0.1}
		},
	}

	result, err := trainer.Train(X, y)
	if err != nil {
		t.Fatalf("Train failed: %v", err)
	}
	// 常数概率分类器必然不如逻辑回归
	if result.BestFamily != "logreg" {
		t.Fatalf("best_family = %q, want logreg against constant stub", result.BestFamily)
	}
}
