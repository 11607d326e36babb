package train

// 运行状态
const (
	StatusCompleted = "COMPLETED"
	StatusFailed    = "FAILED"
)

// TrainPayload Job 消息中的业务数据
// DatasetCSV 与 DatasetTable 二选一：本地 CSV 路径或 MySQL 表名
type TrainPayload struct {
	DatasetCSV   string            `json:"dataset_csv"`
	DatasetTable string            `json:"dataset_table"`
	Mapping      map[string]string `json:"mapping,omitempty"`
	Overrides    *ParamOverrides   `json:"overrides,omitempty"`
}

// ParamOverrides 单次运行可覆盖的训练参数（nil 字段用配置默认值）
// 成本参数不可覆盖，只在配置中设置
type ParamOverrides struct {
	ChurnWindowDays *int   `json:"churn_window_days,omitempty"`
	LTVHorizonDays  *int   `json:"ltv_horizon_days,omitempty"`
	HoldoutDays     *int   `json:"holdout_days,omitempty"`
	RandomState     *int64 `json:"random_state,omitempty"`
	MinTransactions *int   `json:"min_transactions,omitempty"`
	KMin            *int   `json:"k_min,omitempty"`
	KMax            *int   `json:"k_max,omitempty"`
}

// TrainInput 训练服务输入
type TrainInput struct {
	RequestID string
	RunID     string
	OrgID     string
	Payload   *TrainPayload
}

// TrainResultData 业务处理结果
type TrainResultData struct {
	RunID       string
	Status      string
	Metrics     map[string]float64
	ProcessedAt int64
}

// TrainOutput 最终输出结构
type TrainOutput struct {
	RunID       string             `json:"run_id"`
	Status      string             `json:"status"`
	Metrics     map[string]float64 `json:"metrics"`
	ProcessedAt int64              `json:"processed_at"`
}

// TrainCallback 回调队列消息
type TrainCallback struct {
	RequestID   string             `json:"request_id"`
	RunID       string             `json:"run_id"`
	OrgID       string             `json:"org_id"`
	Status      string             `json:"status"` // COMPLETED/FAILED
	Metrics     map[string]float64 `json:"metrics,omitempty"`
	Error       string             `json:"error,omitempty"`
	ProcessedAt int64              `json:"processed_at"`
}
