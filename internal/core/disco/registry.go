// Package disco 实现服务发现核心
package disco

import (
	"fmt"
	"sync"

	pkgif "github.com/dep2p/go-disco/pkg/interfaces"
	"github.com/dep2p/go-disco/pkg/types"
)

// ============================================================================
//                              处理器层级
// ============================================================================

// handlerEntry 单个操作的三级处理器层级
//
//	地址   | 节点  | 级别
//	-----------------------
//	未指定 | 未指定 | 全局
//	指定   | 未指定 | 该地址下全部节点
//	指定   | 指定   | 单个作用域
//
// 某一级未注册（或被清除）时解析直接跳过该级；
// 只有全局级也为空时才得到"无处理器"。
type handlerEntry struct {
	global pkgif.NodeHandler
	addr   map[types.Address]pkgif.NodeHandler
	node   map[types.Scope]pkgif.NodeHandler
}

// ============================================================================
//                              Registry 实现
// ============================================================================

// Registry 多级处理器注册表
//
// 把 (操作, 作用域) 映射到最具体的适用处理器。
// 注册与解析在同一把读写锁下串行化，解析结果永远是完整的
// 处理器引用，不会出现撕裂读。
type Registry struct {
	mu       sync.RWMutex
	ops      map[types.Operation]*handlerEntry
	defaults map[types.Operation]pkgif.NodeHandler
}

// NewRegistry 创建注册表
//
// defaults 为构造期提供的进程级默认处理器（通常绑定 StaticStore），
// 同时作为每个操作的初始全局处理器。
func NewRegistry(defaults map[types.Operation]pkgif.NodeHandler) *Registry {
	r := &Registry{
		ops:      make(map[types.Operation]*handlerEntry),
		defaults: make(map[types.Operation]pkgif.NodeHandler),
	}
	for _, op := range types.Operations() {
		def := defaults[op]
		r.defaults[op] = def
		r.ops[op] = &handlerEntry{
			global: def,
			addr:   make(map[types.Address]pkgif.NodeHandler),
			node:   make(map[types.Scope]pkgif.NodeHandler),
		}
	}
	return r
}

// entry 获取操作的层级表项
func (r *Registry) entry(op types.Operation) (*handlerEntry, error) {
	e, ok := r.ops[op]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedOperation, op)
	}
	return e, nil
}

// ==================== 注册 ====================

// SetGlobal 设置操作的全局处理器（h == nil 清除该级）
func (r *Registry) SetGlobal(op types.Operation, h pkgif.NodeHandler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, err := r.entry(op)
	if err != nil {
		return err
	}
	e.global = h
	return nil
}

// SetAddress 设置地址级处理器（h == nil 清除）
func (r *Registry) SetAddress(op types.Operation, addr types.Address, h pkgif.NodeHandler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, err := r.entry(op)
	if err != nil {
		return err
	}
	if h == nil {
		delete(e.addr, addr)
		return nil
	}
	e.addr[addr] = h
	return nil
}

// SetNode 设置单个作用域的处理器（h == nil 清除）
func (r *Registry) SetNode(op types.Operation, scope types.Scope, h pkgif.NodeHandler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, err := r.entry(op)
	if err != nil {
		return err
	}
	if h == nil {
		delete(e.node, scope)
		return nil
	}
	e.node[scope] = h
	return nil
}

// ==================== 解析 ====================

// Resolve 解析 (操作, 作用域) 对应的最具体处理器
//
// 优先级：作用域级 > 地址级 > 全局级；全部未注册时返回
// (nil, nil)，调用方按"空响应"处理。未知操作报错。
func (r *Registry) Resolve(op types.Operation, scope types.Scope) (pkgif.NodeHandler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, err := r.entry(op)
	if err != nil {
		return nil, err
	}

	if h, ok := e.node[scope]; ok && h != nil {
		return h, nil
	}
	if h, ok := e.addr[scope.Addr]; ok && h != nil {
		return h, nil
	}
	return e.global, nil
}

// ==================== 恢复默认 ====================

// RestoreDefaults 把作用域的处理器恢复为构造期默认值
//
// 对 ops 中的每个操作（ops 为空时为全部已知操作）：清除该作用域
// 的节点级覆盖，再把默认处理器安装到节点级。节点级按优先级压过
// 任何粗粒度的地址级覆盖，从而显式强制该作用域回到默认行为。
func (r *Registry) RestoreDefaults(ops []types.Operation, scope types.Scope) error {
	if len(ops) == 0 {
		ops = types.Operations()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, op := range ops {
		e, err := r.entry(op)
		if err != nil {
			return err
		}
		delete(e.node, scope)
		if def := r.defaults[op]; def != nil {
			e.node[scope] = def
		}
	}
	return nil
}

// Default 返回操作的构造期默认处理器
func (r *Registry) Default(op types.Operation) pkgif.NodeHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaults[op]
}
