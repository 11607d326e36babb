package train

import (
	"context"

	"crp/dptrain/internal/framework"
)

// TrainHandler 训练任务处理器
type TrainHandler struct {
	framework.BaseHandler

	payload *TrainPayload
	service *TrainService
	result  *TrainResultData
}

// NewTrainHandler 创建训练任务处理器
func NewTrainHandler(
	ctx context.Context,
	baseHandler *framework.BaseHandler,
	service *TrainService,
) (framework.BusinessHandler, error) {
	var payload TrainPayload
	if err := baseHandler.DecodePayload(&payload); err != nil {
		return nil, err
	}

	handler := &TrainHandler{
		BaseHandler: *baseHandler,
		payload:     &payload,
		service:     service,
	}

	handler.SetResulter(NewTrainResulter())

	return handler, nil
}

// Handle 处理入口
// 业务失败时同时返回错误响应 bytes 与原始 error，调用方按可重试性定性
func (h *TrainHandler) Handle(ctx context.Context) ([]byte, error) {
	processFuncs := []framework.ProcessorFunc{
		h.PreProcess,
		h.Process,
		h.PostProcess,
	}

	preProcessor := framework.NewPreProcessor(processFuncs)
	if err := preProcessor.Run(ctx); err != nil {
		data, _ := h.WrapErrorResponse(ctx, err)
		return data, err
	}

	output := h.GetOutput()
	return h.WrapResponse(ctx, output)
}
