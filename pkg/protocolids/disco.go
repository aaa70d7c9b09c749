// Package protocolids 定义 go-disco 协议 ID 的唯一注册表。
//
// 所有模块、测试与示例在需要协议 ID 时必须引用本包常量，
// 禁止在其他位置定义字面量。
package protocolids

import "github.com/dep2p/go-disco/pkg/types"

// ============================================================================
// 发现协议 ID（/dep2p/disco/...）
// ============================================================================

// DiscoInfo 信息查询协议
//
// 该协议 ID 同时作为众所周知的特性命名空间：当根作用域的信息
// 应答不含任何特性时，默认注入此命名空间。
const DiscoInfo types.ProtocolID = "/dep2p/disco/info/1.0.0"

// DiscoItems 条目查询协议
const DiscoItems types.ProtocolID = "/dep2p/disco/items/1.0.0"
