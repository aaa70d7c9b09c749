// Package interfaces 定义 go-disco 公共接口
package interfaces

import (
	"context"
	"time"

	"github.com/dep2p/go-disco/pkg/types"
)

// ============================================================================
//                              节点处理器
// ============================================================================

// NodeHandler 处理某个作用域上的单个发现操作
//
// 处理器在投递入站事件的 goroutine 上执行，应当是快速的内存
// 操作；需要阻塞 I/O 的处理器由注册方自行移出投递路径。
//
// 返回 (nil, nil) 表示空结果；读操作通过 DiscoResult 返回数据，
// 写操作返回 (nil, nil) 即可。
type NodeHandler func(ctx context.Context, req *types.DiscoRequest) (*types.DiscoResult, error)

// ============================================================================
//                              查询选项
// ============================================================================

// QueryOptions 出站查询选项
//
// 完成模式三选一：默认阻塞等待；Callback 非 nil 时立即返回并在
// 结果到达后回调；Event 为 true 时结果通过事件总线投递。
type QueryOptions struct {
	// Local 强制本地解析（不经过端点）
	Local bool

	// From 发送方地址覆盖（空 = 端点自身地址）
	From types.Address

	// Timeout 等待超时；0 使用配置默认值（配置默认 0 = 无限等待）
	Timeout time.Duration

	// Callback 结果回调（非 nil 时查询调用立即返回）
	Callback func(*types.DiscoResult, error)

	// Event 通过事件总线投递结果（EvtDiscoInfo / EvtDiscoItems）
	Event bool

	// NoCache 绕过远端信息结果缓存
	NoCache bool
}

// Pending 出站查询的待定句柄
//
// 由 QueryInfoAsync / QueryItemsAsync 返回；Done 关闭后可通过
// Result 读取结果。Cancel 使等待方收到取消错误，不影响远端。
type Pending interface {
	// ID 关联标识
	ID() string

	// Done 结果就绪（或失败/取消）后关闭
	Done() <-chan struct{}

	// Result 返回查询结果；在 Done 关闭前调用会阻塞
	Result() (*types.DiscoResult, error)

	// Cancel 取消等待
	Cancel()
}

// ============================================================================
//                              变更选项结构
// ============================================================================

// AddIdentityOptions add_identity 的参数
type AddIdentityOptions struct {
	// Addr 目标地址（空 = 自身）
	Addr types.Address

	// Node 目标节点
	Node string

	// Category 身份类别（必填）
	Category string

	// Type 身份类型（必填）
	Type string

	// Name 人类可读名称（可选）
	Name string

	// Lang 语言标签（可选）
	Lang string
}

// AddItemOptions add_item 的参数
type AddItemOptions struct {
	// Addr 所属作用域地址（空 = 自身）
	Addr types.Address

	// Node 所属作用域节点
	Node string

	// ItemAddr 条目地址（必填）
	ItemAddr types.Address

	// ItemNode 条目节点（可选）
	ItemNode string

	// Name 条目名称（可选）
	Name string
}

// ============================================================================
//                              Service 接口
// ============================================================================

// Service 服务发现调度器
//
// 协议面向的编排组件：把入站查询翻译为注册表解析与处理器调用，
// 把出站调用翻译为端点请求并管理请求/响应关联。
type Service interface {
	// ==================== 生命周期 ====================

	// Start 启动服务
	Start(ctx context.Context) error

	// Stop 停止服务并取消全部待定查询
	Stop(ctx context.Context) error

	// ==================== 处理器注册 ====================

	// SetGlobalHandler 设置操作的全局处理器（h == nil 清除）
	SetGlobalHandler(op types.Operation, h NodeHandler) error

	// SetAddressHandler 设置地址级处理器，覆盖该地址下全部节点
	SetAddressHandler(op types.Operation, addr types.Address, h NodeHandler) error

	// SetNodeHandler 设置单个 (地址, 节点) 作用域的处理器；
	// addr 为空时默认为自身地址（按模式规范化）
	SetNodeHandler(op types.Operation, addr types.Address, node string, h NodeHandler) error

	// RestoreDefaults 将作用域的处理器恢复为构造期默认值；
	// ops 为空时恢复全部已知操作
	RestoreDefaults(ops []types.Operation, addr types.Address, node string) error

	// ==================== 入站（由端点调用） ====================

	// HandleQuery 处理入站发现查询；无论处理器结果如何，
	// 都保证发出一个（可能为空的）应答
	HandleQuery(ctx context.Context, env *types.QueryEnvelope) error

	// HandleResult 处理出站查询的异步结果
	HandleResult(ctx context.Context, env *types.ResultEnvelope)

	// ==================== 出站查询 ====================

	// QueryInfo 查询信息；addr 为空或 opts.Local 时本地解析
	QueryInfo(ctx context.Context, addr types.Address, node string, opts *QueryOptions) (*types.InfoResult, error)

	// QueryItems 查询条目
	QueryItems(ctx context.Context, addr types.Address, node string, opts *QueryOptions) (*types.ItemsResult, error)

	// QueryInfoAsync 发起信息查询并返回待定句柄
	QueryInfoAsync(ctx context.Context, addr types.Address, node string, opts *QueryOptions) (Pending, error)

	// QueryItemsAsync 发起条目查询并返回待定句柄
	QueryItemsAsync(ctx context.Context, addr types.Address, node string, opts *QueryOptions) (Pending, error)

	// QueryItemsPages 按页迭代远端条目；未配置分页协作者时
	// 退化为单批结果
	QueryItemsPages(ctx context.Context, addr types.Address, node string, opts *QueryOptions) (PageIterator, error)

	// ==================== 默认存储变更 ====================
	//
	// 以下操作经由注册表解析执行，自定义后端可按作用域接管。

	// AddIdentity 插入或替换身份
	AddIdentity(ctx context.Context, opts AddIdentityOptions) error

	// AddFeature 幂等插入特性
	AddFeature(ctx context.Context, addr types.Address, node, feature string) error

	// AddItem 插入或替换条目
	AddItem(ctx context.Context, opts AddItemOptions) error

	// SetIdentities 替换身份集合；lang 非空时仅替换该语言的身份
	SetIdentities(ctx context.Context, addr types.Address, node string, identities []types.Identity, lang string) error

	// SetFeatures 整体替换特性集合
	SetFeatures(ctx context.Context, addr types.Address, node string, features []string) error

	// SetItems 整体替换条目列表
	SetItems(ctx context.Context, addr types.Address, node string, items []types.Item) error

	// DelIdentity 删除单个匹配身份
	DelIdentity(ctx context.Context, addr types.Address, node string, identity types.Identity) error

	// DelIdentities 删除全部身份；lang 非空时仅删除该语言
	DelIdentities(ctx context.Context, addr types.Address, node, lang string) error

	// DelFeature 删除单个特性
	DelFeature(ctx context.Context, addr types.Address, node, feature string) error

	// DelFeatures 清空特性集合
	DelFeatures(ctx context.Context, addr types.Address, node string) error

	// DelItem 删除单个条目（按条目地址+节点匹配）
	DelItem(ctx context.Context, addr types.Address, node string, itemAddr types.Address, itemNode string) error

	// DelItems 清空条目列表
	DelItems(ctx context.Context, addr types.Address, node string) error
}
