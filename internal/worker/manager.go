package worker

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/atomic"

	"crp/dptrain/internal/business/pipeline"
	"crp/dptrain/internal/business/train"
	"crp/dptrain/internal/domains"
	"crp/dptrain/internal/framework"
	"crp/dptrain/pkg/config"
	"crp/dptrain/pkg/infra/fsstore"
	"crp/dptrain/pkg/infra/mysql"
	"crp/dptrain/pkg/infra/redis"
	"crp/dptrain/pkg/lmstfy"
	"crp/dptrain/pkg/logger"
)

// 训练完成通知频道
const notifyChannel = "training_run_complete"

// Manager 接口
type Manager interface {
	Start() error
	Shutdown()
}

// ManagerInstance Manager 实例
type ManagerInstance struct {
	ctx           context.Context
	cfg           *config.Config
	lmstfyClient  *lmstfy.Client
	trainService  *train.TrainService
	callbackQueue string
	workers       []Worker
	closing       *atomic.Bool
	shutdownCh    chan struct{}
	wg            sync.WaitGroup
	logger        logger.Logger
}

// NewManagerInstance 创建 Manager
func NewManagerInstance(cfg *config.Config, log logger.Logger) (Manager, error) {
	ctx := context.Background()

	// 初始化 lmstfy 客户端
	lmstfyClient, err := lmstfy.NewClient(cfg.Lmstfy.Host, cfg.Lmstfy.Port, cfg.Lmstfy.Namespace, cfg.Lmstfy.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create lmstfy client: %w", err)
	}

	var callbackQueue string
	if len(cfg.Workers) > 0 {
		callbackQueue = cfg.Workers[0].CallbackQueue
	}
	if callbackQueue == "" {
		return nil, fmt.Errorf("callback_queue is required in worker config")
	}

	// 存储层：配置了 MySQL 用数据库，否则落盘到本地目录
	var (
		store        pipeline.ArtifactStore
		tracker      pipeline.MetricsTracker
		transactions *mysql.TransactionDAO
	)
	if cfg.MySQL.DSN != "" {
		transactions, err = mysql.NewTransactionDAO(cfg.MySQL.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to create transaction dao: %w", err)
		}
		artifactDAO := mysql.NewArtifactDAO(transactions.DB())
		store = artifactDAO
		tracker = artifactDAO
		log.Infof(ctx, "[Manager] Using mysql artifact store")
	} else {
		fsStore, err := fsstore.NewStore(cfg.Training.ArtifactsDir, cfg.Training.ReportsDir)
		if err != nil {
			return nil, fmt.Errorf("failed to create fs store: %w", err)
		}
		store = fsStore
		log.Infof(ctx, "[Manager] Using filesystem artifact store: %s", cfg.Training.ArtifactsDir)
	}

	// Redis 通知可选
	var pubsub *redis.PubSub
	if cfg.Redis.Addr != "" {
		pubsub, err = redis.NewPubSub(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, fmt.Errorf("failed to create redis pubsub: %w", err)
		}
	}

	pipe := pipeline.New(store, tracker, log)
	trainService := train.NewTrainService(
		pipe,
		transactions,
		lmstfyClient,
		callbackQueue,
		pubsub,
		notifyChannel,
		cfg.Training,
		log,
	)

	log.Infof(ctx, "[Manager] Initialized with callback_queue: %s", callbackQueue)

	return &ManagerInstance{
		ctx:           ctx,
		cfg:           cfg,
		lmstfyClient:  lmstfyClient,
		trainService:  trainService,
		callbackQueue: callbackQueue,
		closing:       atomic.NewBool(false),
		shutdownCh:    make(chan struct{}),
		workers:       make([]Worker, 0),
		logger:        log,
	}, nil
}

// Start 启动 Manager
func (m *ManagerInstance) Start() error {
	m.logger.Infof(m.ctx, "[Manager] Starting...")

	// 1. 加载所有 Worker
	if err := m.loadWorkers(); err != nil {
		return fmt.Errorf("failed to load workers: %w", err)
	}

	m.logger.Infof(m.ctx, "[Manager] All workers loaded, count: %d", len(m.workers))

	// 2. 启动所有 Worker（每个 Worker 在独立 goroutine）
	for _, worker := range m.workers {
		w := worker
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			w.Start()
		}()
		m.logger.Infof(m.ctx, "[Manager] Worker started: %s", w.GetName())
	}

	m.logger.Infof(m.ctx, "[Manager] Start success")

	// 3. 阻塞等待退出信号
	<-m.shutdownCh

	return nil
}

// Shutdown 优雅退出
func (m *ManagerInstance) Shutdown() {
	m.logger.Infof(m.ctx, "[Manager] Began to close")

	// 原子操作，保证并发安全
	if m.closing.CAS(false, true) {
		// 1. 所有 Worker 安全退出
		for _, worker := range m.workers {
			m.logger.Infof(m.ctx, "[Manager] Shutting down worker: %s", worker.GetName())
			worker.Shutdown()
		}

		// 2. 等待所有 Worker 退出
		m.wg.Wait()

		// 3. 关闭信号通道
		close(m.shutdownCh)

		m.logger.Infof(m.ctx, "[Manager] Shutdown complete")
	}
}

// loadWorkers 加载所有 Worker
func (m *ManagerInstance) loadWorkers() error {
	for _, workerCfg := range m.cfg.Workers {
		subCfg := &framework.SubscriberConfig{
			QueueName:    workerCfg.QueueName,
			Concurrency:  workerCfg.Subscriber.Threads,
			Rate:         workerCfg.Subscriber.Rate,
			Timeout:      workerCfg.Subscriber.Timeout,
			TTR:          workerCfg.Subscriber.TTR,
			ErrorBackoff: workerCfg.Subscriber.ErrorBackoff,
		}

		procCfg := &framework.ProcessorConfig{
			Concurrency: workerCfg.Processor.Threads,
			BufferSize:  workerCfg.Processor.BufferSize,
			Timeout:     workerCfg.Processor.Timeout,
		}

		getProcess := domains.GetProcess(m.logger, m.trainService)

		worker, err := NewWorkerInstance(
			m.ctx,
			workerCfg.Name,
			subCfg,
			procCfg,
			m.lmstfyClient, // MessageSource
			getProcess,     // framework.Proc
			m.logger,
		)
		if err != nil {
			return fmt.Errorf("failed to create worker %s: %w", workerCfg.Name, err)
		}

		m.workers = append(m.workers, worker)
	}

	return nil
}
