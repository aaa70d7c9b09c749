// Package types 提供 go-disco 公共值类型
package types

// ============================================================================
//                              地址与作用域
// ============================================================================

// Address 实体地址
//
// 地址是不透明字符串，其解析与相等性语义由端点协作者定义。
// go-disco 内部只做字符串比较，裸地址/完整地址的规范化由端点完成。
type Address string

// Empty 检查地址是否为空
func (a Address) Empty() bool {
	return a == ""
}

// Scope 发现作用域：（地址，节点）二元组
//
// Scope 是 Store 与 HandlerRegistry 的统一键。
// Node 为空字符串表示实体根（无子节点）。
type Scope struct {
	// Addr 实体地址
	Addr Address

	// Node 子节点名（空 = 实体根）
	Node string
}

// NewScope 创建作用域
func NewScope(addr Address, node string) Scope {
	return Scope{Addr: addr, Node: node}
}

// IsRoot 检查是否为实体根作用域
func (s Scope) IsRoot() bool {
	return s.Node == ""
}

// ============================================================================
//                              身份、特性与条目
// ============================================================================

// Identity 身份声明（category, type, lang, name）
//
// Category 与 Type 为必填分类字符串；Lang 为可选语言标签；
// Name 为可选人类可读名称。
type Identity struct {
	// Category 身份类别
	Category string

	// Type 身份类型
	Type string

	// Lang 语言标签（可选）
	Lang string

	// Name 人类可读名称（可选）
	Name string
}

// IdentityKey 身份唯一键
//
// 同一作用域内 (Category, Type, Lang) 三元组唯一；
// 三元组相同的重复添加按幂等替换处理（更新 Name）。
type IdentityKey struct {
	Category string
	Type     string
	Lang     string
}

// Key 返回身份的唯一键
func (i Identity) Key() IdentityKey {
	return IdentityKey{Category: i.Category, Type: i.Type, Lang: i.Lang}
}

// Item 子条目：指向相关可发现实体的引用
//
// 在所属作用域的条目列表内以 (Addr, Node) 为隐式键，
// 重复添加相同键的条目会更新 Name 而非产生重复项。
type Item struct {
	// Addr 条目地址
	Addr Address

	// Node 条目节点（可选）
	Node string

	// Name 条目名称（可选）
	Name string
}

// Key 返回条目的唯一键
func (it Item) Key() ItemKey {
	return ItemKey{Addr: it.Addr, Node: it.Node}
}

// ItemKey 条目唯一键
type ItemKey struct {
	Addr Address
	Node string
}

// ============================================================================
//                              查询结果
// ============================================================================

// InfoResult 信息查询结果（身份集合 + 特性集合）
type InfoResult struct {
	// Node 结果对应的节点
	Node string

	// Identities 身份列表（保持插入顺序）
	Identities []Identity

	// Features 特性命名空间列表（保持插入顺序）
	Features []string
}

// ItemsResult 条目查询结果
type ItemsResult struct {
	// Node 结果对应的节点
	Node string

	// Items 条目列表（保持插入顺序）
	Items []Item
}

// DiscoResult 处理器统一返回值
//
// 按操作类别填充 Info 或 Items，二者至多其一非 nil。
type DiscoResult struct {
	Info  *InfoResult
	Items *ItemsResult
}
