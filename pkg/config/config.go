package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config 全局配置
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	MySQL    MySQLConfig    `mapstructure:"mysql"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Lmstfy   LmstfyConfig   `mapstructure:"lmstfy"`
	Training TrainingConfig `mapstructure:"training"`
	Workers  []WorkerConfig `mapstructure:"workers"`
}

// AppConfig 应用配置
type AppConfig struct {
	Name     string `mapstructure:"name"`
	Env      string `mapstructure:"env"`
	LogLevel string `mapstructure:"log_level"`
}

// MySQLConfig MySQL 配置
type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LmstfyConfig Lmstfy 配置
type LmstfyConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Namespace string `mapstructure:"namespace"`
	Token     string `mapstructure:"token"`
}

// TrainingConfig 训练管道默认参数
// Job payload 可覆盖窗口/种子参数，成本参数仅在配置中设置
type TrainingConfig struct {
	ChurnWindowDays int     `mapstructure:"churn_window_days"` // 流失窗口（天）
	LTVHorizonDays  int     `mapstructure:"ltv_horizon_days"`  // LTV 预测窗口（天）
	HoldoutDays     int     `mapstructure:"holdout_days"`      // 时间留出窗口（天）
	RandomState     int64   `mapstructure:"random_state"`      // 随机种子
	MinTransactions int     `mapstructure:"min_transactions"`  // 建模客户最小订单数
	KMin            int     `mapstructure:"k_min"`             // 聚类数下界
	KMax            int     `mapstructure:"k_max"`             // 聚类数上界
	CostFP          float64 `mapstructure:"cost_fp"`           // 误报成本
	CostFN          float64 `mapstructure:"cost_fn"`           // 漏报成本
	ArtifactsDir    string  `mapstructure:"artifacts_dir"`     // 本地产物目录（fsstore）
	ReportsDir      string  `mapstructure:"reports_dir"`       // 报告输出目录
}

// WorkerConfig Worker 配置
type WorkerConfig struct {
	Name          string           `mapstructure:"name"`
	QueueName     string           `mapstructure:"queue_name"`
	CallbackQueue string           `mapstructure:"callback_queue"` // 回调队列名称
	Subscriber    SubscriberConfig `mapstructure:"subscriber"`
	Processor     ProcessorConfig  `mapstructure:"processor"`
}

// SubscriberConfig Subscriber 配置
type SubscriberConfig struct {
	Threads      int           `mapstructure:"threads"`       // 并发拉取数
	Rate         time.Duration `mapstructure:"rate"`          // 拉取速率
	Timeout      time.Duration `mapstructure:"timeout"`       // 拉取超时
	TTR          time.Duration `mapstructure:"ttr"`           // Time-To-Run
	ErrorBackoff time.Duration `mapstructure:"error_backoff"` // 错误退避时间
}

// ProcessorConfig Processor 配置
type ProcessorConfig struct {
	Threads    int           `mapstructure:"threads"`     // 并发处理数
	BufferSize int           `mapstructure:"buffer_size"` // Channel 缓冲大小
	Timeout    time.Duration `mapstructure:"timeout"`     // 单个任务超时
}

// Load 加载配置文件
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	setTrainingDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config failed: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config failed: %w", err)
	}

	return &cfg, nil
}

// setTrainingDefaults 训练参数默认值
func setTrainingDefaults() {
	viper.SetDefault("training.churn_window_days", 90)
	viper.SetDefault("training.ltv_horizon_days", 180)
	viper.SetDefault("training.holdout_days", 90)
	viper.SetDefault("training.random_state", 42)
	viper.SetDefault("training.min_transactions", 2)
	viper.SetDefault("training.k_min", 3)
	viper.SetDefault("training.k_max", 8)
	viper.SetDefault("training.cost_fp", 5.0)
	viper.SetDefault("training.cost_fn", 20.0)
	viper.SetDefault("training.artifacts_dir", "./artifacts")
	viper.SetDefault("training.reports_dir", "./reports")
}

// DefaultTraining 返回默认训练参数（fasttest 与测试使用，不读配置文件）
func DefaultTraining() TrainingConfig {
	return TrainingConfig{
		ChurnWindowDays: 90,
		LTVHorizonDays:  180,
		HoldoutDays:     90,
		RandomState:     42,
		MinTransactions: 2,
		KMin:            3,
		KMax:            8,
		CostFP:          5.0,
		CostFN:          20.0,
		ArtifactsDir:    "./artifacts",
		ReportsDir:      "./reports",
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app.name is required")
	}
	if c.Lmstfy.Host == "" {
		return fmt.Errorf("lmstfy.host is required")
	}
	if len(c.Workers) == 0 {
		return fmt.Errorf("at least one worker is required")
	}
	return c.Training.Validate()
}

// Validate 验证训练参数
func (t *TrainingConfig) Validate() error {
	if t.ChurnWindowDays <= 0 || t.LTVHorizonDays <= 0 || t.HoldoutDays <= 0 {
		return fmt.Errorf("training windows must be positive")
	}
	if t.KMin < 2 || t.KMax < t.KMin {
		return fmt.Errorf("invalid k range: [%d, %d]", t.KMin, t.KMax)
	}
	if t.MinTransactions < 1 {
		return fmt.Errorf("training.min_transactions must be >= 1")
	}
	return nil
}
