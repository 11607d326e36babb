package train

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"crp/dptrain/internal/business/dataset"
	"crp/dptrain/internal/business/pipeline"
	"crp/dptrain/pkg/config"
	"crp/dptrain/pkg/errorutil"
	"crp/dptrain/pkg/infra/mysql"
	"crp/dptrain/pkg/infra/redis"
	"crp/dptrain/pkg/lmstfy"
	"crp/dptrain/pkg/logger"
)

// TrainService 训练服务
// 职责：加载数据集 → 执行训练管道 → 发送回调与完成通知
// transactions/queue/pubsub 均可为 nil（fasttest 与纯 CSV 模式）
type TrainService struct {
	pipe          *pipeline.Pipeline
	transactions  *mysql.TransactionDAO
	queue         *lmstfy.Client
	callbackQueue string
	pubsub        *redis.PubSub
	notifyChannel string
	defaults      config.TrainingConfig
	log           logger.Logger
}

// NewTrainService 创建训练服务实例
func NewTrainService(
	pipe *pipeline.Pipeline,
	transactions *mysql.TransactionDAO,
	queue *lmstfy.Client,
	callbackQueue string,
	pubsub *redis.PubSub,
	notifyChannel string,
	defaults config.TrainingConfig,
	log logger.Logger,
) *TrainService {
	return &TrainService{
		pipe:          pipe,
		transactions:  transactions,
		queue:         queue,
		callbackQueue: callbackQueue,
		pubsub:        pubsub,
		notifyChannel: notifyChannel,
		defaults:      defaults,
		log:           log,
	}
}

// ExecuteTraining 执行训练并发送回调
// 训练失败也会发送 FAILED 回调与通知，error 一并返回给调用方定性（重试/终止）
func (s *TrainService) ExecuteTraining(ctx context.Context, input *TrainInput) (*pipeline.RunResult, error) {
	params := s.resolveParams(input.Payload.Overrides)

	raw, err := s.loadDataset(ctx, input)
	if err != nil {
		s.finish(ctx, input, nil, err)
		return nil, err
	}

	result, err := s.pipe.Run(ctx, &pipeline.RunInput{
		RunID:   input.RunID,
		OrgID:   input.OrgID,
		Raw:     raw,
		Mapping: dataset.Mapping(input.Payload.Mapping),
		Params:  params,
	})
	if err != nil {
		s.finish(ctx, input, nil, err)
		return nil, err
	}

	if err := s.finish(ctx, input, result, nil); err != nil {
		return nil, err
	}
	return result, nil
}

// resolveParams 合并配置默认值与单次运行覆盖
func (s *TrainService) resolveParams(overrides *ParamOverrides) config.TrainingConfig {
	params := s.defaults
	if overrides == nil {
		return params
	}
	if overrides.ChurnWindowDays != nil {
		params.ChurnWindowDays = *overrides.ChurnWindowDays
	}
	if overrides.LTVHorizonDays != nil {
		params.LTVHorizonDays = *overrides.LTVHorizonDays
	}
	if overrides.HoldoutDays != nil {
		params.HoldoutDays = *overrides.HoldoutDays
	}
	if overrides.RandomState != nil {
		params.RandomState = *overrides.RandomState
	}
	if overrides.MinTransactions != nil {
		params.MinTransactions = *overrides.MinTransactions
	}
	if overrides.KMin != nil {
		params.KMin = *overrides.KMin
	}
	if overrides.KMax != nil {
		params.KMax = *overrides.KMax
	}
	return params
}

// loadDataset 按数据集引用加载原始交易表
func (s *TrainService) loadDataset(ctx context.Context, input *TrainInput) (*dataset.RawTable, error) {
	payload := input.Payload
	switch {
	case payload.DatasetCSV != "":
		raw, err := dataset.ReadCSV(payload.DatasetCSV)
		if err != nil {
			return nil, errorutil.NonRetriableWithDetails("read dataset csv failed", err.Error())
		}
		return raw, nil

	case payload.DatasetTable != "":
		if s.transactions == nil {
			return nil, errorutil.NonRetriable("mysql dataset requested but no database configured")
		}
		raw, err := s.transactions.LoadRawTable(ctx, payload.DatasetTable, input.OrgID)
		if err != nil {
			return nil, errorutil.RetriableWithDetails("load dataset table failed", err.Error())
		}
		return raw, nil

	default:
		return nil, errorutil.NonRetriable("dataset_csv or dataset_table is required")
	}
}

// finish 发送回调与完成通知
func (s *TrainService) finish(ctx context.Context, input *TrainInput, result *pipeline.RunResult, runErr error) error {
	status := StatusCompleted
	callback := &TrainCallback{
		RequestID:   input.RequestID,
		RunID:       input.RunID,
		OrgID:       input.OrgID,
		ProcessedAt: time.Now().Unix(),
	}
	if runErr != nil {
		status = StatusFailed
		callback.Error = runErr.Error()
	} else {
		callback.Metrics = result.Metrics
	}
	callback.Status = status

	if s.queue != nil && s.callbackQueue != "" {
		callbackJSON, err := json.Marshal(callback)
		if err != nil {
			return fmt.Errorf("failed to marshal callback: %w", err)
		}
		// ttl=0 永不过期, delay=0 立即可用
		if err := s.queue.Publish(s.callbackQueue, callbackJSON, 0, 0); err != nil {
			return errorutil.RetriableWithDetails("failed to publish callback", err.Error())
		}
	}

	if s.pubsub != nil && s.notifyChannel != "" {
		notification := &redis.TrainingNotification{
			RunID:     input.RunID,
			OrgID:     input.OrgID,
			Status:    status,
			Timestamp: time.Now().Unix(),
		}
		if err := s.pubsub.PublishTrainingComplete(ctx, s.notifyChannel, notification); err != nil {
			// 通知尽力而为，不影响运行结果
			s.log.Warnf(ctx, "[TrainService] publish notification failed: %v", err)
		}
	}

	return nil
}
