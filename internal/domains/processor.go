package domains

import (
	"context"
	"time"

	"github.com/google/uuid"

	"crp/dptrain/internal/business/train"
	"crp/dptrain/internal/framework"
	"crp/dptrain/pkg/errorutil"
	"crp/dptrain/pkg/lmstfyx"
	"crp/dptrain/pkg/logger"
)

// GetProcess 返回核心处理函数（注入到 Processor）
// service 为训练服务实例，由 Manager 初始化并注入
func GetProcess(log logger.Logger, service *train.TrainService) framework.Proc {
	return func(ctx context.Context, msg *framework.Message) *lmstfyx.JobResp {
		startTime := time.Now()

		// 1. 解析 Job 标准结构
		baseHandler := &framework.BaseHandler{}
		if err := baseHandler.ParseJob(ctx, msg.Data); err != nil {
			log.Errorf(ctx, "[GetProcess] parse job failed: %v", err)
			return &lmstfyx.JobResp{Action: lmstfyx.JobRespStatusBury}
		}

		meta := baseHandler.GetMeta()

		// 2. 注入 TraceID 到 Context
		traceID := meta.RequestID
		if traceID == "" {
			traceID = uuid.New().String()
		}
		ctx = context.WithValue(ctx, "trace_id", traceID)
		ctx = context.WithValue(ctx, "action_type", meta.ActionType)
		ctx = context.WithValue(ctx, "run_id", meta.ID)

		log.Infof(ctx, "[GetProcess] Processing job: action_type=%s, request_id=%s, id=%s",
			meta.ActionType, meta.RequestID, meta.ID)

		// 3. 从 HandlerMap 获取 Handler
		factory, ok := HandlerMap[meta.ActionType]
		if !ok {
			log.Errorf(ctx, "[GetProcess] handler not found for action_type: %s", meta.ActionType)
			return &lmstfyx.JobResp{Action: lmstfyx.JobRespStatusBury}
		}

		// 4. 调用 Handler（捕获 panic）
		var resp *lmstfyx.JobResp
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Errorf(ctx, "[GetProcess] handler panic: %v", r)
					resp = &lmstfyx.JobResp{Action: lmstfyx.JobRespStatusBury}
				}
			}()

			handler, err := factory(ctx, baseHandler, service)
			if err != nil {
				log.Errorf(ctx, "[GetProcess] handler creation failed: %v", err)
				resp = &lmstfyx.JobResp{Action: lmstfyx.JobRespStatusBury}
				return
			}

			data, err := handler.Handle(ctx)
			resp = settleJob(ctx, data, err, log)
		}()

		// 5. 记录处理时长
		duration := time.Since(startTime)
		log.Infof(ctx, "[GetProcess] Processing complete: action=%d, duration=%v", resp.Action, duration)

		return resp
	}
}

// settleJob 按错误可重试性生成 JobResp
// 成功 → ACK；可重试错误（队列/DB/网络）→ Release；其余（含数据/依赖错误）→ Bury
func settleJob(ctx context.Context, data []byte, err error, log logger.Logger) *lmstfyx.JobResp {
	if err == nil {
		return &lmstfyx.JobResp{
			Action: lmstfyx.JobRespStatusSuccess,
			Data:   data,
		}
	}

	wrapped := errorutil.Wrap(err)
	if wrapped.Retryable {
		log.Warnf(ctx, "[settleJob] retryable failure: %v", err)
		return &lmstfyx.JobResp{
			Action: lmstfyx.JobRespStatusRelease,
			Data:   data,
		}
	}

	log.Errorf(ctx, "[settleJob] non-retryable failure (kind=%s): %v", errorutil.KindOf(err), err)
	return &lmstfyx.JobResp{
		Action: lmstfyx.JobRespStatusBury,
		Data:   data,
	}
}
