package ltv

import (
	"testing"

	"crp/dptrain/pkg/errorutil"
)

func regressionData() ([][]float64, []float64) {
	var X [][]float64
	var y []float64
	for i := 0; i < 60; i++ {
		monetary := float64(i * 50)
		frequency := float64(i%10 + 1)
		X = append(X, []float64{monetary, frequency})
		y = append(y, monetary*0.3+frequency*10)
	}
	return X, y
}

func TestTrainReportsErrors(t *testing.T) {
	X, y := regressionData()
	result, err := NewTrainer(42).Train(X, y)
	if err != nil {
		t.Fatalf("Train failed: %v", err)
	}

	mae, ok := result.Metrics["ltv_mae"]
	if !ok {
		t.Fatalf("ltv_mae missing: %v", result.Metrics)
	}
	rmse, ok := result.Metrics["ltv_rmse"]
	if !ok {
		t.Fatalf("ltv_rmse missing: %v", result.Metrics)
	}
	if mae < 0 || rmse < 0 {
		t.Fatalf("negative errors: mae=%v rmse=%v", mae, rmse)
	}
	if rmse < mae {
		t.Fatalf("rmse %v < mae %v", rmse, mae)
	}
	if result.Model == nil {
		t.Fatal("trained model missing from result")
	}
	if result.Params.NEstimators != 400 || result.Params.MaxDepth != 5 {
		t.Fatalf("unexpected params: %+v", result.Params)
	}
}

func TestTrainDeterministic(t *testing.T) {
	X, y := regressionData()

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
}

func TestTrainMissingBackend(t *testing.T) {
	X, y := regressionData()
	trainer := &Trainer{Seed: 42, NewRegressor: nil}

	_, err := trainer.Train(X, y)
	if err == nil {
		t.Fatal("expected dependency error")
	}
	if errorutil.KindOf(err) != errorutil.KindDependency {
		t.Fatalf("kind = %v, want dependency", errorutil.KindOf(err))
	}
}

func TestTrainTooFewSamples(t *testing.T) {
	_, err := NewTrainer(1).Train([][]float64{{1}}, []float64{10})
	if err == nil {
		t.Fatal("expected error for a single sample")
	}
	if errorutil.KindOf(err) != errorutil.KindDataQuality {
		t.Fatalf("kind = %v, want data_quality", errorutil.KindOf(err))
	}
}
