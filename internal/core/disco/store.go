// Package disco 实现服务发现核心
package disco

import (
	"context"
	"fmt"
	"sync"

	pkgif "github.com/dep2p/go-disco/pkg/interfaces"
	"github.com/dep2p/go-disco/pkg/types"
)

// ============================================================================
//                              作用域记录
// ============================================================================

// nodeRecord 单个作用域的后备数据
//
// 三个集合都保持插入顺序，保证输出的确定性。
type nodeRecord struct {
	identities []types.Identity
	features   []string
	items      []types.Item
}

// ============================================================================
//                              StaticStore 实现
// ============================================================================

// StaticStore 零配置发现行为的内存后备存储
//
// 每个作用域一条记录，首次写入时创建，进程生命周期内存活。
// 所有读写在同一把读写锁下串行化。
type StaticStore struct {
	mu    sync.RWMutex
	nodes map[types.Scope]*nodeRecord
}

// NewStaticStore 创建静态存储
func NewStaticStore() *StaticStore {
	return &StaticStore{
		nodes: make(map[types.Scope]*nodeRecord),
	}
}

// record 获取作用域记录，不存在时按需创建（须持有写锁）
func (s *StaticStore) record(scope types.Scope) *nodeRecord {
	rec, ok := s.nodes[scope]
	if !ok {
		rec = &nodeRecord{}
		s.nodes[scope] = rec
	}
	return rec
}

// ==================== 读操作 ====================

// GetInfo 返回作用域当前的身份与特性集合
//
// 作用域未知时返回空集合，从不报错。
func (s *StaticStore) GetInfo(scope types.Scope) ([]types.Identity, []string) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.nodes[scope]
	if !ok {
		return nil, nil
	}

	identities := make([]types.Identity, len(rec.identities))
	copy(identities, rec.identities)
	features := make([]string, len(rec.features))
	copy(features, rec.features)
	return identities, features
}

// GetItems 返回作用域当前的条目列表（插入顺序）
func (s *StaticStore) GetItems(scope types.Scope) []types.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.nodes[scope]
	if !ok {
		return nil
	}

	items := make([]types.Item, len(rec.items))
	copy(items, rec.items)
	return items
}

// ==================== 替换操作 ====================

// SetIdentities 替换身份集合
//
// lang 非空时只替换携带该语言的身份，其余保留。
func (s *StaticStore) SetIdentities(scope types.Scope, identities []types.Identity, lang string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.record(scope)
	if lang == "" {
		rec.identities = append(rec.identities[:0:0], identities...)
		return
	}

	kept := make([]types.Identity, 0, len(rec.identities))
	for _, id := range rec.identities {
		if id.Lang != lang {
			kept = append(kept, id)
		}
	}
	for _, id := range identities {
		if id.Lang == lang {
			kept = append(kept, id)
		}
	}
	rec.identities = kept
}

// SetFeatures 整体替换特性集合
func (s *StaticStore) SetFeatures(scope types.Scope, features []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.record(scope).features = append(features[:0:0], features...)
}

// SetItems 整体替换条目列表
func (s *StaticStore) SetItems(scope types.Scope, items []types.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.record(scope).items = append(items[:0:0], items...)
}

// ==================== 插入操作 ====================

// AddIdentity 插入或替换单个身份
//
// 唯一性键为 (Category, Type, Lang)；键相同的重复添加按
// 幂等替换处理（更新 Name）。Category 或 Type 为空时报错。
func (s *StaticStore) AddIdentity(scope types.Scope, identity types.Identity) error {
	if identity.Category == "" || identity.Type == "" {
		return fmt.Errorf("%w: identity category and type are required", ErrInvalidArgument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.record(scope)
	key := identity.Key()
	for i, existing := range rec.identities {
		if existing.Key() == key {
			rec.identities[i] = identity
			return nil
		}
	}
	rec.identities = append(rec.identities, identity)
	return nil
}

// AddFeature 幂等插入单个特性
func (s *StaticStore) AddFeature(scope types.Scope, feature string) error {
	if feature == "" {
		return fmt.Errorf("%w: feature is required", ErrInvalidArgument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.record(scope)
	for _, existing := range rec.features {
		if existing == feature {
			return nil
		}
	}
	rec.features = append(rec.features, feature)
	return nil
}

// AddItem 插入或替换单个条目
//
// 以 (条目地址, 条目节点) 为键，键相同时更新 Name。
// 条目地址为空时报错。
func (s *StaticStore) AddItem(scope types.Scope, item types.Item) error {
	if item.Addr.Empty() {
		return fmt.Errorf("%w: item address is required", ErrInvalidArgument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.record(scope)
	key := item.Key()
	for i, existing := range rec.items {
		if existing.Key() == key {
			rec.items[i] = item
			return nil
		}
	}
	rec.items = append(rec.items, item)
	return nil
}

// ==================== 删除操作 ====================
//
// 对不存在的记录或条目删除一律按无操作处理。

// DelIdentity 删除单个完全匹配的身份
func (s *StaticStore) DelIdentity(scope types.Scope, identity types.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.nodes[scope]
	if !ok {
		return
	}

	for i, existing := range rec.identities {
		if existing == identity {
			rec.identities = append(rec.identities[:i], rec.identities[i+1:]...)
			return
		}
	}
}

// DelIdentities 删除全部身份；lang 非空时仅删除该语言的身份
func (s *StaticStore) DelIdentities(scope types.Scope, lang string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.nodes[scope]
	if !ok {
		return
	}

	if lang == "" {
		rec.identities = nil
		return
	}

	kept := rec.identities[:0]
	for _, id := range rec.identities {
		if id.Lang != lang {
			kept = append(kept, id)
		}
	}
	rec.identities = kept
}

// DelFeature 删除单个特性
func (s *StaticStore) DelFeature(scope types.Scope, feature string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.nodes[scope]
	if !ok {
		return
	}

	for i, existing := range rec.features {
		if existing == feature {
			rec.features = append(rec.features[:i], rec.features[i+1:]...)
			return
		}
	}
}

// DelFeatures 清空特性集合
func (s *StaticStore) DelFeatures(scope types.Scope) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.nodes[scope]; ok {
		rec.features = nil
	}
}

// DelItem 删除单个条目（按条目地址+节点匹配）
func (s *StaticStore) DelItem(scope types.Scope, key types.ItemKey) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.nodes[scope]
	if !ok {
		return
	}

	for i, existing := range rec.items {
		if existing.Key() == key {
			rec.items = append(rec.items[:i], rec.items[i+1:]...)
			return
		}
	}
}

// DelItems 清空条目列表
func (s *StaticStore) DelItems(scope types.Scope) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.nodes[scope]; ok {
		rec.items = nil
	}
}

// ============================================================================
//                              默认处理器适配
// ============================================================================

// Handler 返回把全部发现操作分发到本存储的节点处理器
//
// 注册表在构造期为每个操作安装该处理器作为进程级默认值。
func (s *StaticStore) Handler() pkgif.NodeHandler {
	return func(_ context.Context, req *types.DiscoRequest) (*types.DiscoResult, error) {
		switch req.Op {
		case types.OpGetInfo:
			identities, features := s.GetInfo(req.Scope)
			return &types.DiscoResult{Info: &types.InfoResult{
				Node:       req.Scope.Node,
				Identities: identities,
				Features:   features,
			}}, nil

		case types.OpGetItems:
			return &types.DiscoResult{Items: &types.ItemsResult{
				Node:  req.Scope.Node,
				Items: s.GetItems(req.Scope),
			}}, nil

		case types.OpSetIdentities:
			s.SetIdentities(req.Scope, req.Identities, req.Lang)
			return nil, nil

		case types.OpSetFeatures:
			s.SetFeatures(req.Scope, req.Features)
			return nil, nil

		case types.OpSetItems:
			s.SetItems(req.Scope, req.Items)
			return nil, nil

		case types.OpAddIdentity:
			if req.Identity == nil {
				return nil, fmt.Errorf("%w: identity is required", ErrInvalidArgument)
			}
			return nil, s.AddIdentity(req.Scope, *req.Identity)

		case types.OpAddFeature:
			return nil, s.AddFeature(req.Scope, req.Feature)

		case types.OpAddItem:
			if req.Item == nil {
				return nil, fmt.Errorf("%w: item is required", ErrInvalidArgument)
			}
			return nil, s.AddItem(req.Scope, *req.Item)

		case types.OpDelIdentity:
			if req.Identity != nil {
				s.DelIdentity(req.Scope, *req.Identity)
			}
			return nil, nil

		case types.OpDelIdentities:
			s.DelIdentities(req.Scope, req.Lang)
			return nil, nil

		case types.OpDelFeature:
			s.DelFeature(req.Scope, req.Feature)
			return nil, nil

		case types.OpDelFeatures:
			s.DelFeatures(req.Scope)
			return nil, nil

		case types.OpDelItem:
			if req.Item != nil {
				s.DelItem(req.Scope, req.Item.Key())
			}
			return nil, nil

		case types.OpDelItems:
			s.DelItems(req.Scope)
			return nil, nil

		default:
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedOperation, req.Op)
		}
	}
}
