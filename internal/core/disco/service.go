// Package disco 实现服务发现核心
package disco

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/benbjohnson/clock"

	pkgif "github.com/dep2p/go-disco/pkg/interfaces"
	"github.com/dep2p/go-disco/pkg/lib/log"
	"github.com/dep2p/go-disco/pkg/protocolids"
	"github.com/dep2p/go-disco/pkg/types"
)

var logger = log.Logger("disco/core")

// ============================================================================
//                              Service 实现
// ============================================================================

// Service 服务发现调度器
//
// 面向协议的编排组件：入站查询经注册表解析后在投递 goroutine 上
// 执行处理器并回发应答；出站查询经端点异步发送，结果按调用方选择
// 的完成模式（阻塞/回调/待定句柄/事件）投递。
type Service struct {
	config   *pkgif.Config
	store    *StaticStore
	registry *Registry
	endpoint pkgif.Endpoint
	pager    pkgif.Pager
	clock    clock.Clock

	// 事件发射器（总线未配置时为 nil，事件被静默丢弃）
	infoEmitter  pkgif.Emitter
	itemsEmitter pkgif.Emitter
	errEmitter   pkgif.Emitter

	// 待处理的出站查询
	pending   map[string]*pendingQuery
	pendingMu sync.Mutex

	// 远端信息结果缓存（可选）
	cache *infoCache

	// 状态
	started int32
	closed  int32
}

// 确保实现接口
var _ pkgif.Service = (*Service)(nil)

// Deps 服务构造依赖
//
// Endpoint、EventBus、Pager 均为可选协作者：缺少端点时仅支持
// 本地查询；缺少总线时事件被丢弃；缺少分页器时按页迭代退化为
// 单批结果。Clock 为 nil 时使用真实时钟。
type Deps struct {
	Config   *pkgif.Config
	Store    *StaticStore
	Registry *Registry
	Endpoint pkgif.Endpoint
	EventBus pkgif.EventBus
	Pager    pkgif.Pager
	Clock    clock.Clock
}

// NewService 创建发现服务
func NewService(deps Deps) (*Service, error) {
	cfg := deps.Config
	if cfg == nil {
		cfg = pkgif.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	store := deps.Store
	if store == nil {
		store = NewStaticStore()
	}

	registry := deps.Registry
	if registry == nil {
		registry = NewRegistry(DefaultHandlers(store))
	}

	clk := deps.Clock
	if clk == nil {
		clk = clock.New()
	}

	s := &Service{
		config:   cfg,
		store:    store,
		registry: registry,
		endpoint: deps.Endpoint,
		pager:    deps.Pager,
		clock:    clk,
		pending:  make(map[string]*pendingQuery),
	}

	if cfg.CacheSize > 0 {
		s.cache = newInfoCache(cfg.CacheSize, cfg.CacheTTL)
	}

	if deps.EventBus != nil {
		var err error
		if s.infoEmitter, err = deps.EventBus.Emitter(new(types.EvtDiscoInfo)); err != nil {
			return nil, err
		}
		if s.itemsEmitter, err = deps.EventBus.Emitter(new(types.EvtDiscoItems)); err != nil {
			return nil, err
		}
		if s.errEmitter, err = deps.EventBus.Emitter(new(types.EvtHandlerError)); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// DefaultHandlers 返回绑定到静态存储的全套默认处理器
func DefaultHandlers(store *StaticStore) map[types.Operation]pkgif.NodeHandler {
	h := store.Handler()
	defaults := make(map[types.Operation]pkgif.NodeHandler, len(types.Operations()))
	for _, op := range types.Operations() {
		defaults[op] = h
	}
	return defaults
}

// Store 返回后备静态存储
func (s *Service) Store() *StaticStore {
	return s.store
}

// Registry 返回处理器注册表
func (s *Service) Registry() *Registry {
	return s.registry
}

// ============================================================================
//                              生命周期
// ============================================================================

// Start 启动服务
func (s *Service) Start(_ context.Context) error {
	if !atomic.CompareAndSwapInt32(&s.started, 0, 1) {
		return ErrAlreadyStarted
	}

	logger.Info("发现服务已启动", "mode", s.config.Mode.String())
	return nil
}

// Stop 停止服务并取消全部待定查询
func (s *Service) Stop(_ context.Context) error {
	if !atomic.CompareAndSwapInt32(&s.closed, 0, 1) {
		return nil // 已经关闭
	}

	s.pendingMu.Lock()
	pendings := make([]*pendingQuery, 0, len(s.pending))
	for _, p := range s.pending {
		pendings = append(pendings, p)
	}
	s.pending = make(map[string]*pendingQuery)
	s.pendingMu.Unlock()

	for _, p := range pendings {
		p.settle(nil, ErrServiceClosed)
	}

	atomic.StoreInt32(&s.started, 0)
	logger.Info("发现服务已停止", "canceled", len(pendings))
	return nil
}

// isClosed 检查服务是否已关闭
func (s *Service) isClosed() bool {
	return atomic.LoadInt32(&s.closed) == 1
}

// ============================================================================
//                              地址解析
// ============================================================================

// selfAddr 返回自身的规范地址（按模式）
func (s *Service) selfAddr() types.Address {
	if s.endpoint == nil {
		return ""
	}
	return s.endpoint.Normalize(s.endpoint.Self(), s.config.Mode)
}

// resolveAddr 把空地址解析为自身地址；显式地址原样使用
func (s *Service) resolveAddr(addr types.Address) types.Address {
	if addr.Empty() {
		return s.selfAddr()
	}
	return addr
}

// normalizeTarget 把入站查询的目标地址规范化为作用域键
func (s *Service) normalizeTarget(addr types.Address) types.Address {
	if s.endpoint == nil {
		return addr
	}
	return s.endpoint.Normalize(addr, s.config.Mode)
}

// ============================================================================
//                              处理器注册
// ============================================================================

// SetGlobalHandler 设置操作的全局处理器（h == nil 清除）
func (s *Service) SetGlobalHandler(op types.Operation, h pkgif.NodeHandler) error {
	return s.registry.SetGlobal(op, h)
}

// SetAddressHandler 设置地址级处理器
func (s *Service) SetAddressHandler(op types.Operation, addr types.Address, h pkgif.NodeHandler) error {
	return s.registry.SetAddress(op, addr, h)
}

// SetNodeHandler 设置单个 (地址, 节点) 作用域的处理器
//
// addr 为空时默认为自身地址（按模式规范化）。
func (s *Service) SetNodeHandler(op types.Operation, addr types.Address, node string, h pkgif.NodeHandler) error {
	scope := types.NewScope(s.resolveAddr(addr), node)
	return s.registry.SetNode(op, scope, h)
}

// RestoreDefaults 将作用域的处理器恢复为构造期默认值
func (s *Service) RestoreDefaults(ops []types.Operation, addr types.Address, node string) error {
	scope := types.NewScope(s.resolveAddr(addr), node)
	return s.registry.RestoreDefaults(ops, scope)
}

// ============================================================================
//                              处理器执行
// ============================================================================

// runHandler 解析并执行最具体的处理器
//
// 无处理器时返回 (nil, nil) —— 这不是错误，调用方按空结果处理。
func (s *Service) runHandler(ctx context.Context, req *types.DiscoRequest) (*types.DiscoResult, error) {
	h, err := s.registry.Resolve(req.Op, req.Scope)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, nil
	}
	return h(ctx, req)
}

// fixDefaultInfo 对根作用域的信息结果做默认注入
//
// 协议要求每个非节点作用域的信息应答至少包含一个身份与一个
// 特性：身份集合为空时注入通用身份（组件/客户端模式各一种），
// 特性集合为空时（独立检查）注入发现协议自身的命名空间。
func (s *Service) fixDefaultInfo(info *types.InfoResult) {
	if info.Node != "" {
		return
	}

	if len(info.Identities) == 0 {
		if s.config.Mode == types.ModeComponent {
			logger.Debug("实体无身份，注入默认组件身份")
			info.Identities = append(info.Identities, types.Identity{
				Category: "component",
				Type:     "generic",
			})
		} else {
			logger.Debug("实体无身份，注入默认客户端身份")
			info.Identities = append(info.Identities, types.Identity{
				Category: "client",
				Type:     "bot",
			})
		}
	}

	if len(info.Features) == 0 {
		logger.Debug("实体无特性，注入默认发现命名空间")
		info.Features = append(info.Features, string(protocolids.DiscoInfo))
	}
}

// ============================================================================
//                              入站处理
// ============================================================================

// HandleQuery 处理入站发现查询
//
// 无论处理器结果如何都保证发出一个（可能为空的）应答；
// 处理器失败被转换为空应答并通过日志与 EvtHandlerError 上抛。
func (s *Service) HandleQuery(ctx context.Context, env *types.QueryEnvelope) error {
	reply := &types.ReplyEnvelope{ID: env.ID, To: env.From}

	if env.Op != types.OpGetInfo && env.Op != types.OpGetItems {
		s.sendReply(ctx, reply)
		return fmt.Errorf("%w: %s", ErrUnsupportedOperation, env.Op)
	}

	scope := types.NewScope(s.normalizeTarget(env.To), env.Node)
	logger.Debug("收到发现查询",
		"op", string(env.Op),
		"from", string(env.From),
		"addr", string(scope.Addr),
		"node", scope.Node)

	res, err := s.runHandler(ctx, &types.DiscoRequest{Op: env.Op, Scope: scope})
	if err != nil {
		// 入站查询绝不能无应答：失败降级为空应答
		logger.Error("入站查询处理器失败",
			"op", string(env.Op),
			"addr", string(scope.Addr),
			"node", scope.Node,
			"err", err)
		s.emitHandlerError(env.Op, scope, err)
		res = nil
	}

	if res != nil {
		if env.Op == types.OpGetInfo && res.Info != nil {
			s.fixDefaultInfo(res.Info)
			reply.Info = res.Info
		}
		if env.Op == types.OpGetItems && res.Items != nil {
			reply.Items = res.Items
		}
	}

	return s.sendReply(ctx, reply)
}

// sendReply 经端点发送应答；传输失败不重试，原样上抛
func (s *Service) sendReply(ctx context.Context, reply *types.ReplyEnvelope) error {
	if s.endpoint == nil {
		return ErrNoEndpoint
	}
	return s.endpoint.SendReply(ctx, reply)
}

// HandleResult 处理出站查询的异步结果
//
// 按信封 ID 关联待定查询并投递；无法关联的结果（以及事件模式
// 的结果）通过事件总线发射 EvtDiscoInfo / EvtDiscoItems。
func (s *Service) HandleResult(_ context.Context, env *types.ResultEnvelope) {
	p := s.takePending(env.ID)
	if p == nil {
		// 未关联的结果：直接走事件总线
		logger.Debug("收到未关联的发现结果", "id", env.ID, "from", string(env.From))
		s.emitResult(env)
		return
	}

	if env.Err != "" {
		p.settle(nil, fmt.Errorf("%w: %s", ErrRemoteFailure, env.Err))
		return
	}

	// 成功的信息结果写入缓存
	if p.cacheKey != "" && env.Info != nil && s.cache != nil {
		s.cache.add(p.cacheKey, env.Info)
	}

	p.settle(&types.DiscoResult{Info: env.Info, Items: env.Items}, nil)

	if p.event {
		s.emitResult(env)
	}
}

// emitResult 把结果信封转换为总线事件
func (s *Service) emitResult(env *types.ResultEnvelope) {
	if env.Info != nil && s.infoEmitter != nil {
		_ = s.infoEmitter.Emit(&types.EvtDiscoInfo{From: env.From, Info: env.Info})
	}
	if env.Items != nil && s.itemsEmitter != nil {
		_ = s.itemsEmitter.Emit(&types.EvtDiscoItems{From: env.From, Items: env.Items})
	}
}

// emitHandlerError 发射处理器失败事件
func (s *Service) emitHandlerError(op types.Operation, scope types.Scope, err error) {
	if s.errEmitter == nil {
		return
	}
	_ = s.errEmitter.Emit(&types.EvtHandlerError{Op: op, Scope: scope, Err: err})
}

// ============================================================================
//                              默认存储变更
// ============================================================================
//
// 以下操作经注册表解析执行：默认落在静态存储上，按作用域被
// 自定义后端接管时落在自定义后端上。

// AddIdentity 插入或替换身份
func (s *Service) AddIdentity(ctx context.Context, opts pkgif.AddIdentityOptions) error {
	_, err := s.runHandler(ctx, &types.DiscoRequest{
		Op:    types.OpAddIdentity,
		Scope: types.NewScope(s.resolveAddr(opts.Addr), opts.Node),
		Identity: &types.Identity{
			Category: opts.Category,
			Type:     opts.Type,
			Name:     opts.Name,
			Lang:     opts.Lang,
		},
	})
	return err
}

// AddFeature 幂等插入特性
func (s *Service) AddFeature(ctx context.Context, addr types.Address, node, feature string) error {
	_, err := s.runHandler(ctx, &types.DiscoRequest{
		Op:      types.OpAddFeature,
		Scope:   types.NewScope(s.resolveAddr(addr), node),
		Feature: feature,
	})
	return err
}

// AddItem 插入或替换条目
func (s *Service) AddItem(ctx context.Context, opts pkgif.AddItemOptions) error {
	_, err := s.runHandler(ctx, &types.DiscoRequest{
		Op:    types.OpAddItem,
		Scope: types.NewScope(s.resolveAddr(opts.Addr), opts.Node),
		Item: &types.Item{
			Addr: opts.ItemAddr,
			Node: opts.ItemNode,
			Name: opts.Name,
		},
	})
	return err
}

// SetIdentities 替换身份集合；lang 非空时仅替换该语言的身份
func (s *Service) SetIdentities(ctx context.Context, addr types.Address, node string, identities []types.Identity, lang string) error {
	_, err := s.runHandler(ctx, &types.DiscoRequest{
		Op:         types.OpSetIdentities,
		Scope:      types.NewScope(s.resolveAddr(addr), node),
		Identities: identities,
		Lang:       lang,
	})
	return err
}

// SetFeatures 整体替换特性集合
func (s *Service) SetFeatures(ctx context.Context, addr types.Address, node string, features []string) error {
	_, err := s.runHandler(ctx, &types.DiscoRequest{
		Op:       types.OpSetFeatures,
		Scope:    types.NewScope(s.resolveAddr(addr), node),
		Features: features,
	})
	return err
}

// SetItems 整体替换条目列表
func (s *Service) SetItems(ctx context.Context, addr types.Address, node string, items []types.Item) error {
	_, err := s.runHandler(ctx, &types.DiscoRequest{
		Op:    types.OpSetItems,
		Scope: types.NewScope(s.resolveAddr(addr), node),
		Items: items,
	})
	return err
}

// DelIdentity 删除单个匹配身份
func (s *Service) DelIdentity(ctx context.Context, addr types.Address, node string, identity types.Identity) error {
	_, err := s.runHandler(ctx, &types.DiscoRequest{
		Op:       types.OpDelIdentity,
		Scope:    types.NewScope(s.resolveAddr(addr), node),
		Identity: &identity,
	})
	return err
}

// DelIdentities 删除全部身份；lang 非空时仅删除该语言
func (s *Service) DelIdentities(ctx context.Context, addr types.Address, node, lang string) error {
	_, err := s.runHandler(ctx, &types.DiscoRequest{
		Op:    types.OpDelIdentities,
		Scope: types.NewScope(s.resolveAddr(addr), node),
		Lang:  lang,
	})
	return err
}

// DelFeature 删除单个特性
func (s *Service) DelFeature(ctx context.Context, addr types.Address, node, feature string) error {
	_, err := s.runHandler(ctx, &types.DiscoRequest{
		Op:      types.OpDelFeature,
		Scope:   types.NewScope(s.resolveAddr(addr), node),
		Feature: feature,
	})
	return err
}

// DelFeatures 清空特性集合
func (s *Service) DelFeatures(ctx context.Context, addr types.Address, node string) error {
	_, err := s.runHandler(ctx, &types.DiscoRequest{
		Op:    types.OpDelFeatures,
		Scope: types.NewScope(s.resolveAddr(addr), node),
	})
	return err
}

// DelItem 删除单个条目（按条目地址+节点匹配）
func (s *Service) DelItem(ctx context.Context, addr types.Address, node string, itemAddr types.Address, itemNode string) error {
	_, err := s.runHandler(ctx, &types.DiscoRequest{
		Op:    types.OpDelItem,
		Scope: types.NewScope(s.resolveAddr(addr), node),
		Item:  &types.Item{Addr: itemAddr, Node: itemNode},
	})
	return err
}

// DelItems 清空条目列表
func (s *Service) DelItems(ctx context.Context, addr types.Address, node string) error {
	_, err := s.runHandler(ctx, &types.DiscoRequest{
		Op:    types.OpDelItems,
		Scope: types.NewScope(s.resolveAddr(addr), node),
	})
	return err
}
