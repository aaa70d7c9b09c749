// Package disco 实现服务发现核心
package disco

import "errors"

// ============================================================================
//                              错误定义
// ============================================================================

var (
	// ErrInvalidArgument 存储变更参数无效（必填字段为空）
	ErrInvalidArgument = errors.New("disco: invalid argument")

	// ErrUnsupportedOperation 未知的发现操作名
	ErrUnsupportedOperation = errors.New("disco: unsupported operation")

	// ErrNotStarted 服务未启动
	ErrNotStarted = errors.New("disco: service not started")

	// ErrAlreadyStarted 服务已启动
	ErrAlreadyStarted = errors.New("disco: service already started")

	// ErrServiceClosed 服务已关闭
	ErrServiceClosed = errors.New("disco: service closed")

	// ErrNoEndpoint 远端查询需要端点协作者
	ErrNoEndpoint = errors.New("disco: no endpoint configured")

	// ErrTimeout 出站查询等待超时
	ErrTimeout = errors.New("disco: query timeout")

	// ErrCanceled 待定查询被取消
	ErrCanceled = errors.New("disco: query canceled")

	// ErrRemoteFailure 远端返回传输层失败
	ErrRemoteFailure = errors.New("disco: remote failure")
)
