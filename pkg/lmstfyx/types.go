package lmstfyx

// JobRespStatus 消息处理结果状态
type JobRespStatus int

const (
	// JobRespStatusSuccess 处理成功，ACK 消息
	JobRespStatusSuccess JobRespStatus = iota
	// JobRespStatusRelease 需要重试，放回队列（依赖 TTR 到期重投）
	JobRespStatusRelease
	// JobRespStatusBury 处理失败且不可重试，终止投递
	JobRespStatusBury
)

// JobResp 消息处理结果
type JobResp struct {
	Action JobRespStatus // 处理动作
	Data   []byte        // 响应数据（可选，用于回调或日志）
}
