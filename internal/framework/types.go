package framework

import (
	"context"

	"crp/dptrain/pkg/lmstfyx"
)

// Message 消息结构（框架内部流转）
type Message struct {
	ID       string                 // 消息 ID
	Queue    string                 // 队列名称
	Data     []byte                 // 原始 Job 数据
	Attempts int                    // 重试次数
	Extra    map[string]interface{} // 扩展字段
}

// Proc 业务处理函数类型（GetProcess 的函数签名）
// 参数：ctx 上下文，msg 框架消息
// 返回：JobResp 处理结果
type Proc func(ctx context.Context, msg *Message) *lmstfyx.JobResp
