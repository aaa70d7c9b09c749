package types

// ============================================================================
//                              事件类型
// ============================================================================
//
// 通过事件总线投递给应用代码的入站结果事件。
// 订阅方式见 internal/core/eventbus。

// EvtDiscoInfo 收到远端信息查询结果
//
// 在结果以事件模式投递、或结果无法与任何待处理查询关联时发射。
type EvtDiscoInfo struct {
	// From 结果来源地址
	From Address

	// Info 查询结果
	Info *InfoResult
}

// EvtDiscoItems 收到远端条目查询结果
type EvtDiscoItems struct {
	// From 结果来源地址
	From Address

	// Items 查询结果
	Items *ItemsResult
}

// EvtHandlerError 入站查询的处理器执行失败
//
// 失败的入站查询仍会收到空应答；本事件用于可观测性。
type EvtHandlerError struct {
	// Op 失败的操作
	Op Operation

	// Scope 目标作用域
	Scope Scope

	// Err 处理器返回的错误
	Err error
}
