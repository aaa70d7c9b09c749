package types

// ============================================================================
//                              发现操作
// ============================================================================

// Operation 发现操作名
//
// 每个操作都可以按作用域注册处理器；未注册时由静态存储的默认
// 处理器兜底。未知操作名一律返回 ErrUnsupportedOperation。
type Operation string

const (
	// OpGetInfo 获取身份与特性
	OpGetInfo Operation = "get_info"

	// OpGetItems 获取条目列表
	OpGetItems Operation = "get_items"

	// OpSetIdentities 整体替换身份集合（可按语言局部替换）
	OpSetIdentities Operation = "set_identities"

	// OpSetFeatures 整体替换特性集合
	OpSetFeatures Operation = "set_features"

	// OpSetItems 整体替换条目列表
	OpSetItems Operation = "set_items"

	// OpAddIdentity 插入或替换单个身份
	OpAddIdentity Operation = "add_identity"

	// OpAddFeature 幂等插入单个特性
	OpAddFeature Operation = "add_feature"

	// OpAddItem 插入或替换单个条目
	OpAddItem Operation = "add_item"

	// OpDelIdentity 删除单个匹配身份
	OpDelIdentity Operation = "del_identity"

	// OpDelIdentities 删除全部身份（可按语言过滤）
	OpDelIdentities Operation = "del_identities"

	// OpDelFeature 删除单个特性
	OpDelFeature Operation = "del_feature"

	// OpDelFeatures 清空特性集合
	OpDelFeatures Operation = "del_features"

	// OpDelItem 删除单个条目
	OpDelItem Operation = "del_item"

	// OpDelItems 清空条目列表
	OpDelItems Operation = "del_items"
)

// operations 全部操作（注册表初始化与 RestoreDefaults 的全集）
var operations = []Operation{
	OpGetInfo, OpGetItems,
	OpSetIdentities, OpSetFeatures, OpSetItems,
	OpAddIdentity, OpAddFeature, OpAddItem,
	OpDelIdentity, OpDelIdentities,
	OpDelFeature, OpDelFeatures,
	OpDelItem, OpDelItems,
}

// Operations 返回全部已知操作的副本
func Operations() []Operation {
	ops := make([]Operation, len(operations))
	copy(ops, operations)
	return ops
}

// Valid 检查操作名是否在支持集内
func (op Operation) Valid() bool {
	for _, known := range operations {
		if op == known {
			return true
		}
	}
	return false
}

// ============================================================================
//                              处理器请求
// ============================================================================

// DiscoRequest 交给节点处理器的操作请求
//
// 按 Op 填充对应字段（枚举式参数，不使用泛型 map）：
//
//	get_info / get_items   -- 无附加参数
//	set_identities         -- Identities（Lang 非空时仅替换该语言）
//	set_features           -- Features
//	set_items              -- Items
//	add_identity           -- Identity
//	add_feature            -- Feature
//	add_item               -- Item
//	del_identity           -- Identity
//	del_identities         -- Lang（可选过滤）
//	del_feature            -- Feature
//	del_item               -- Item（按 Addr+Node 匹配）
//	del_features/del_items -- 无附加参数
type DiscoRequest struct {
	// Op 操作名
	Op Operation

	// Scope 目标作用域
	Scope Scope

	// Identities set_identities 的新身份集合
	Identities []Identity

	// Identity add_identity / del_identity 的单个身份
	Identity *Identity

	// Lang set_identities / del_identities 的语言过滤
	Lang string

	// Features set_features 的新特性集合
	Features []string

	// Feature add_feature / del_feature 的单个特性
	Feature string

	// Items set_items 的新条目列表
	Items []Item

	// Item add_item / del_item 的单个条目
	Item *Item
}
