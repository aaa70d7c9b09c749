package interfaces

import (
	"context"

	"github.com/dep2p/go-disco/pkg/types"
)

// ============================================================================
//                              端点协作者
// ============================================================================

// Endpoint 传输协作者
//
// 端点负责线上编解码、地址相等性语义与请求/响应关联：
// 发出的 QueryEnvelope.ID 必须在对应的 ResultEnvelope 中原样回传。
// 入站流量由端点调用 Service.HandleQuery / Service.HandleResult 投递。
//
// 传输层失败（含超时）通过 ResultEnvelope.Err 或 SendQuery /
// SendReply 的返回值不透明上抛，go-disco 不做重试。
type Endpoint interface {
	// Self 返回本进程自身的规范地址
	Self() types.Address

	// Normalize 按模式把地址规范化为目标作用域键
	// （组件模式 = 完整地址，客户端模式 = 裸地址）
	Normalize(addr types.Address, mode types.Mode) types.Address

	// SendQuery 发送出站查询；结果经 HandleResult 异步回送
	SendQuery(ctx context.Context, env *types.QueryEnvelope) error

	// SendReply 将应答成帧并发送
	SendReply(ctx context.Context, env *types.ReplyEnvelope) error
}

// ============================================================================
//                              分页协作者（可选）
// ============================================================================

// Pager 结果集分页协作者
//
// 可选能力：给定一个基础出站查询，返回逐页获取条目批次的迭代器。
// 未配置时，按页迭代退化为单批结果。
type Pager interface {
	// Pages 基于基础查询构造惰性分页迭代器
	Pages(ctx context.Context, base *types.QueryEnvelope) PageIterator
}

// PageIterator 惰性的、可重启的条目分页序列
type PageIterator interface {
	// Next 获取下一批条目；序列耗尽时返回 (nil, nil)
	Next(ctx context.Context) (*types.ItemsResult, error)

	// Restart 重置迭代器回到第一页
	Restart()
}
