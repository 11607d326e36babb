package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"

	"crp/dptrain/internal/business/dataset"
	"crp/dptrain/internal/business/pipeline"
	"crp/dptrain/pkg/config"
	"crp/dptrain/pkg/infra/fsstore"
	"crp/dptrain/pkg/logger"
)

var (
	csvPath      = flag.String("csv", "", "单个交易 CSV 路径（与 -testcase 二选一）")
	testcasePath = flag.String("testcase", "", "测试用例 JSON 路径")
	artifactsDir = flag.String("artifacts", "./artifacts", "产物输出目录")
	reportsDir   = flag.String("reports", "./reports", "报告输出目录")
)

// TestCase 测试用例结构
type TestCase struct {
	Name    string            `json:"name"`
	CSV     string            `json:"csv"`
	Mapping map[string]string `json:"mapping,omitempty"`
}

func main() {
	flag.Parse()

	fmt.Println("========================================")
	fmt.Println("  FastTest - DPTRAIN 训练管道快速测试工具")
	fmt.Println("========================================")

	testCases, err := loadTestCases()
	if err != nil {
		fmt.Printf("❌ Failed to load test cases: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✅ Loaded %d test case(s)\n", len(testCases))

	store, err := fsstore.NewStore(*artifactsDir, *reportsDir)
	if err != nil {
		fmt.Printf("❌ Failed to create fs store: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewZapLogger("warn")
	if err != nil {
		fmt.Printf("❌ Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	pipe := pipeline.New(store, nil, log)
	params := config.DefaultTraining()

	bar := progressbar.NewOptions(len(testCases),
		progressbar.OptionSetDescription("training"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
	)

	successCount := 0
	failureCount := 0

	for i, tc := range testCases {
		fmt.Printf("\n\n[Test %d/%d] %s (%s)\n", i+1, len(testCases), tc.Name, tc.CSV)
		fmt.Println("----------------------------------------")

		startTime := time.Now()
		runID := uuid.New().String()
		err := runTestCase(pipe, params, tc, runID)
		duration := time.Since(startTime)

		if err != nil {
			fmt.Printf("❌ FAILED: %v\n", err)
			failureCount++
		} else {
			fmt.Printf("✅ PASSED, artifacts: %s\n", store.RunDir(runID))
			successCount++
		}
		fmt.Printf("⏱️  Duration: %v\n", duration)
		bar.Add(1)
	}

	fmt.Println("\n\n========================================")
	fmt.Println("  Test Summary")
	fmt.Println("========================================")
	fmt.Printf("Total: %d\n", len(testCases))
	fmt.Printf("Passed: %d ✅\n", successCount)
	fmt.Printf("Failed: %d ❌\n", failureCount)

	if failureCount > 0 {
		os.Exit(1)
	}
}

// loadTestCases 从参数构造测试用例
func loadTestCases() ([]TestCase, error) {
	if *csvPath != "" {
		return []TestCase{{Name: "default", CSV: *csvPath}}, nil
	}
	if *testcasePath == "" {
		return nil, fmt.Errorf("either -csv or -testcase is required")
	}

	data, err := os.ReadFile(*testcasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read testcase file: %w", err)
	}

	var testCases []TestCase
	if err := json.Unmarshal(data, &testCases); err != nil {
		return nil, fmt.Errorf("failed to unmarshal testcase: %w", err)
	}

	return testCases, nil
}

// runTestCase 运行单个测试用例并打印指标摘要
func runTestCase(pipe *pipeline.Pipeline, params config.TrainingConfig, tc TestCase, runID string) error {
	ctx := context.Background()

	raw, err := dataset.ReadCSV(tc.CSV)
	if err != nil {
		return fmt.Errorf("read csv failed: %w", err)
	}

	result, err := pipe.Run(ctx, &pipeline.RunInput{
		RunID:   runID,
		OrgID:   "fasttest",
		Raw:     raw,
		Mapping: dataset.Mapping(tc.Mapping),
		Params:  params,
	})
	if err != nil {
		return err
	}

	// 按指标名排序输出
	names := make([]string, 0, len(result.Metrics))
	for name := range result.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Printf("  Customers: %d segmented, %d modeled, %d segments\n",
		len(result.SegmentedCustomers), len(result.FeatureStore), len(result.Summary))
	for _, name := range names {
		fmt.Printf("    %-22s %.4f\n", name, result.Metrics[name])
	}

	return nil
}
