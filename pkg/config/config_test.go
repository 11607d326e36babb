package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "worker.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesTrainingDefaults(t *testing.T) {
	path := writeConfig(t, `
app:
  name: dptrain
  env: test
lmstfy:
  host: 127.0.0.1
  port: 7777
  namespace: dptrain
workers:
  - name: train_worker
    queue_name: train_pipeline
    callback_queue: train_pipeline_callback
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	tr := cfg.Training
	if tr.ChurnWindowDays != 90 || tr.LTVHorizonDays != 180 || tr.HoldoutDays != 90 {
		t.Fatalf("window defaults = %d/%d/%d", tr.ChurnWindowDays, tr.LTVHorizonDays, tr.HoldoutDays)
	}
	if tr.RandomState != 42 || tr.MinTransactions != 2 {
		t.Fatalf("seed/min_transactions defaults = %d/%d", tr.RandomState, tr.MinTransactions)
	}
	if tr.KMin != 3 || tr.KMax != 8 {
		t.Fatalf("k range defaults = [%d, %d]", tr.KMin, tr.KMax)
	}
	if tr.CostFP != 5.0 || tr.CostFN != 20.0 {
		t.Fatalf("cost defaults = %v/%v", tr.CostFP, tr.CostFN)
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
app:
  name: dptrain
training:
  churn_window_days: 30
  k_min: 2
  k_max: 4
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Training.ChurnWindowDays != 30 {
		t.Fatalf("churn_window_days = %d, want 30", cfg.Training.ChurnWindowDays)
	}
	if cfg.Training.KMin != 2 || cfg.Training.KMax != 4 {
		t.Fatalf("k range = [%d, %d], want [2, 4]", cfg.Training.KMin, cfg.Training.KMax)
	}
	// 未覆盖的项保持默认
	if cfg.Training.LTVHorizonDays != 180 {
		t.Fatalf("ltv_horizon_days = %d, want default 180", cfg.Training.LTVHorizonDays)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			App:      AppConfig{Name: "dptrain"},
			Lmstfy:   LmstfyConfig{Host: "127.0.0.1"},
			Workers:  []WorkerConfig{{Name: "w", QueueName: "q"}},
			Training: DefaultTraining(),
		}
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cfg := valid()
	cfg.App.Name = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing app name")
	}

	cfg = valid()
	cfg.Lmstfy.Host = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing lmstfy host")
	}

	cfg = valid()
	cfg.Workers = nil
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for empty workers")
	}

	cfg = valid()
	cfg.Training.KMin = 1
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for k_min < 2")
	}

	cfg = valid()
	cfg.Training.HoldoutDays = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-positive holdout")
	}
}
