package errorutil

import (
	"errors"
	"fmt"
)

// Kind 错误类别（训练管道错误分类）
type Kind string

const (
	// KindSchema 列映射缺失必需键，或数量/单价与订单总额均未提供
	KindSchema Kind = "schema"
	// KindDataQuality 清洗后数据为空、客户数少于聚类下界等数据质量问题
	KindDataQuality Kind = "data_quality"
	// KindDependency 训练步骤缺少必需的模型后端
	KindDependency Kind = "dependency"
	// KindNone 普通错误
	KindNone Kind = ""
)

// Error 错误结构（包含类别与可重试标记）
type Error struct {
	Code       int    `json:"code"`
	Kind       Kind   `json:"kind,omitempty"`
	Message    string `json:"message"`
	Retryable  bool   `json:"retryable"`
	DevDetails string `json:"dev_details,omitempty"`
}

// Error 实现 error 接口
func (e *Error) Error() string {
	return e.Message
}

// Retriable 创建可重试错误（网络错误、临时故障等）
func Retriable(message string) *Error {
	return &Error{
		Code:      500,
		Message:   message,
		Retryable: true,
	}
}

// RetriableWithDetails 创建可重试错误（带详细信息）
func RetriableWithDetails(message string, details string) *Error {
	return &Error{
		Code:       500,
		Message:    message,
		Retryable:  true,
		DevDetails: details,
	}
}

// NonRetriable 创建不可重试错误（参数错误、业务规则错误等）
func NonRetriable(message string) *Error {
	return &Error{
		Code:      400,
		Message:   message,
		Retryable: false,
	}
}

// NonRetriableWithDetails 创建不可重试错误（带详细信息）
func NonRetriableWithDetails(message string, details string) *Error {
	return &Error{
		Code:       400,
		Message:    message,
		Retryable:  false,
		DevDetails: details,
	}
}

// Schema 创建 Schema 错误（清洗前终止）
func Schema(format string, args ...interface{}) *Error {
	return &Error{
		Code:      400,
		Kind:      KindSchema,
		Message:   fmt.Sprintf(format, args...),
		Retryable: false,
	}
}

// DataQuality 创建数据质量错误（携带问题计数）
func DataQuality(format string, args ...interface{}) *Error {
	return &Error{
		Code:      422,
		Kind:      KindDataQuality,
		Message:   fmt.Sprintf(format, args...),
		Retryable: false,
	}
}

// Dependency 创建依赖缺失错误（训练步骤硬性要求）
func Dependency(format string, args ...interface{}) *Error {
	return &Error{
		Code:      500,
		Kind:      KindDependency,
		Message:   fmt.Sprintf(format, args...),
		Retryable: false,
	}
}

// KindOf 获取错误类别（支持 %w 包装链）
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindNone
}

// Wrap 包装错误（自动判断是否可重试）
func Wrap(err error) *Error {
	if err == nil {
		return nil
	}

	// 如果错误链中已有 Error 类型，直接返回
	var e *Error
	if errors.As(err, &e) {
		return e
	}

	// 默认为不可重试错误
	return &Error{
		Code:       500,
		Message:    err.Error(),
		Retryable:  false,
		DevDetails: fmt.Sprintf("%+v", err),
	}
}

// UnWrapResponse 解包错误（用于 Response）
func UnWrapResponse(err error) *Error {
	if err == nil {
		return nil
	}
	return Wrap(err)
}
