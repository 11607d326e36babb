package train

import "context"

// TrainResulter 训练结果处理器
type TrainResulter struct {
	srcData interface{}
	dstData interface{}
}

// NewTrainResulter 创建训练结果处理器
func NewTrainResulter() *TrainResulter {
	return &TrainResulter{}
}

// Set 设置业务结果数据
func (r *TrainResulter) Set(ctx context.Context, data interface{}) error {
	r.srcData = data

	resultData := data.(*TrainResultData)

	r.dstData = &TrainOutput{
		RunID:       resultData.RunID,
		Status:      resultData.Status,
		Metrics:     resultData.Metrics,
		ProcessedAt: resultData.ProcessedAt,
	}

	return nil
}

// Get 获取格式化后的输出
func (r *TrainResulter) Get(ctx context.Context) interface{} {
	return r.dstData
}
