package framework

import (
	"context"
	"sync"
	"time"

	"crp/dptrain/pkg/lmstfyx"
)

// Processor 处理器：接收消息，调用业务处理函数，按结果回执消息
type Processor struct {
	cfg        *ProcessorConfig
	proc       Proc          // 业务处理函数（注入的 GetProcess）
	source     MessageSource // 消息回执用（Ack）
	logger     Logger
	shutdownCh chan struct{} // 专门的退出信号通道
	wg         sync.WaitGroup
}

// NewProcessor 创建处理器
func NewProcessor(cfg *ProcessorConfig, proc Proc, source MessageSource, logger Logger) *Processor {
	return &Processor{
		cfg:        cfg,
		proc:       proc,
		source:     source,
		logger:     logger,
		shutdownCh: make(chan struct{}),
	}
}

// Start 启动处理协程
func (p *Processor) Start(ctx context.Context, inputChan <-chan *Message) error {
	p.logger.Infof(ctx, "[Processor] Starting with %d workers", p.cfg.Concurrency)

	for i := 0; i < p.cfg.Concurrency; i++ {
		workerID := i
		p.wg.Add(1)
		go p.loop(ctx, workerID, inputChan)
	}

	return nil
}

// SignalShutdown 通知 Processor 准备退出（进入 Drain 模式）
func (p *Processor) SignalShutdown() {
	p.logger.Infof(context.Background(), "[Processor] Shutdown signal received")
	close(p.shutdownCh)
}

// Wait 等待所有处理协程退出
func (p *Processor) Wait() {
	p.wg.Wait()
	p.logger.Infof(context.Background(), "[Processor] All workers exited")
}

// loop 处理循环（单个 Worker）
func (p *Processor) loop(ctx context.Context, workerID int, inputChan <-chan *Message) {
	defer p.wg.Done()
	p.logger.Infof(ctx, "[Processor-%d] Started", workerID)

	for {
		select {
		// A. 正常业务处理
		case msg := <-inputChan:
			p.process(ctx, msg, workerID)

		// B. Drain 模式：处理完剩余消息再退出
		case <-p.shutdownCh:
			p.logger.Infof(ctx, "[Processor-%d] Entering DRAIN mode", workerID)
			count := 0
			for {
				select {
				case msg := <-inputChan:
					p.process(ctx, msg, workerID)
					count++
				default:
					// Channel 空了，安全退出
					p.logger.Infof(ctx, "[Processor-%d] Drained %d messages, exiting", workerID, count)
					return
				}
			}
		}
	}
}

// process 处理单个消息
func (p *Processor) process(ctx context.Context, msg *Message, workerID int) {
	if msg == nil {
		return
	}

	startTime := time.Now()

	// 1. 创建超时控制的 Context 并注入元信息
	procCtx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	procCtx = context.WithValue(procCtx, "worker_id", workerID)
	procCtx = context.WithValue(procCtx, "message_id", msg.ID)
	procCtx = context.WithValue(procCtx, "start_time", startTime)

	p.logger.Infof(procCtx, "[Processor-%d] Processing message: %s", workerID, msg.ID)

	// 2. 调用业务处理函数（注入的 GetProcess）
	resp := p.proc(procCtx, msg)

	duration := time.Since(startTime)
	p.logger.Infof(procCtx, "[Processor-%d] Message processed: %s, action: %d, duration: %v",
		workerID, msg.ID, resp.Action, duration)

	// 3. 按处理结果回执消息
	p.settle(procCtx, msg, resp, workerID)
}

// settle 回执消息
// Release 不显式调用队列接口，由 TTR 到期自动重投；
// Bury 当前队列不支持死信，确认删除并保留错误日志
func (p *Processor) settle(ctx context.Context, msg *Message, resp *lmstfyx.JobResp, workerID int) {
	switch resp.Action {
	case lmstfyx.JobRespStatusSuccess:
		if err := p.source.Ack(msg.Queue, msg.ID); err != nil {
			p.logger.Errorf(ctx, "[Processor-%d] Ack failed: %s, err: %v", workerID, msg.ID, err)
		}

	case lmstfyx.JobRespStatusRelease:
		p.logger.Warnf(ctx, "[Processor-%d] Message will be redelivered after TTR: %s", workerID, msg.ID)

	case lmstfyx.JobRespStatusBury:
		p.logger.Errorf(ctx, "[Processor-%d] Message terminated (non-retryable): %s, resp: %s",
			workerID, msg.ID, string(resp.Data))
		if err := p.source.Ack(msg.Queue, msg.ID); err != nil {
			p.logger.Errorf(ctx, "[Processor-%d] Ack failed: %s, err: %v", workerID, msg.ID, err)
		}
	}
}
