package types

// ============================================================================
//                              运行模式
// ============================================================================

// Mode 地址规范化模式
//
// 组件模式使用完整地址作为目标作用域，客户端模式使用裸地址。
// 具体的裸/完整转换由端点协作者实现。
type Mode int

const (
	// ModeClient 客户端模式（裸地址）
	ModeClient Mode = iota

	// ModeComponent 组件模式（完整地址）
	ModeComponent
)

// String 返回模式名
func (m Mode) String() string {
	if m == ModeComponent {
		return "component"
	}
	return "client"
}

// ============================================================================
//                              传输信封
// ============================================================================

// QueryEnvelope 出站/入站发现查询
//
// 线上编解码由端点协作者负责；go-disco 只处理结构化字段。
// ID 由发起方生成，端点在应答中原样回传以完成关联。
type QueryEnvelope struct {
	// ID 关联标识
	ID string

	// From 发起方地址（可被调用方覆盖）
	From Address

	// To 目标地址
	To Address

	// Op 查询操作（OpGetInfo 或 OpGetItems）
	Op Operation

	// Node 查询的子节点（空 = 实体根）
	Node string
}

// ReplyEnvelope 对入站查询的应答
//
// Info 与 Items 至多其一非 nil；二者皆为 nil 表示空应答
// （协议层面仍是成功响应）。
type ReplyEnvelope struct {
	// ID 原查询的关联标识
	ID string

	// To 应答接收方
	To Address

	// Info 信息查询结果
	Info *InfoResult

	// Items 条目查询结果
	Items *ItemsResult
}

// ResultEnvelope 出站查询的异步结果
//
// 由端点在收到远端应答后回送；Err 非空表示传输层失败
// （超时为其中的特例，由端点自行区分）。
type ResultEnvelope struct {
	// ID 原查询的关联标识
	ID string

	// From 结果来源地址
	From Address

	// Info 信息查询结果
	Info *InfoResult

	// Items 条目查询结果
	Items *ItemsResult

	// Err 传输层错误描述（空 = 成功）
	Err string
}

// ============================================================================
//                              协议 ID
// ============================================================================

// ProtocolID 协议标识符
type ProtocolID string
