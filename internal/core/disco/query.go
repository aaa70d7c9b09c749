// Package disco 实现服务发现核心
package disco

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	pkgif "github.com/dep2p/go-disco/pkg/interfaces"
	"github.com/dep2p/go-disco/pkg/types"
)

// ============================================================================
//                              待定查询
// ============================================================================

// pendingQuery 一次出站查询的待定状态
//
// settle 只生效一次：结果、超时、取消与服务关闭互相竞争，
// 先到者胜出，其余调用为无操作。
type pendingQuery struct {
	id       string
	op       types.Operation
	event    bool
	callback func(*types.DiscoResult, error)
	cacheKey string

	svc   *Service
	timer *clock.Timer

	once   sync.Once
	done   chan struct{}
	result *types.DiscoResult
	err    error
}

// 确保实现接口
var _ pkgif.Pending = (*pendingQuery)(nil)

// settle 写入最终结果并通知所有等待方
func (p *pendingQuery) settle(res *types.DiscoResult, err error) {
	p.once.Do(func() {
		p.result = res
		p.err = err
		if p.timer != nil {
			p.timer.Stop()
		}
		close(p.done)
		if p.callback != nil {
			p.callback(res, err)
		}
	})
}

// ID 关联标识
func (p *pendingQuery) ID() string {
	return p.id
}

// Done 结果就绪后关闭
func (p *pendingQuery) Done() <-chan struct{} {
	return p.done
}

// Result 阻塞直到结果就绪
func (p *pendingQuery) Result() (*types.DiscoResult, error) {
	<-p.done
	return p.result, p.err
}

// Cancel 取消等待（不影响远端）
func (p *pendingQuery) Cancel() {
	p.svc.takePending(p.id)
	p.settle(nil, ErrCanceled)
}

// ============================================================================
//                              待定查询管理
// ============================================================================

// addPending 登记待定查询
func (s *Service) addPending(p *pendingQuery) {
	s.pendingMu.Lock()
	s.pending[p.id] = p
	s.pendingMu.Unlock()
}

// takePending 按 ID 取出并移除待定查询；不存在时返回 nil
func (s *Service) takePending(id string) *pendingQuery {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()

	p, ok := s.pending[id]
	if !ok {
		return nil
	}
	delete(s.pending, id)
	return p
}

// effectiveTimeout 计算有效等待超时；0 表示无限等待
func (s *Service) effectiveTimeout(opts *pkgif.QueryOptions) time.Duration {
	if opts.Timeout > 0 {
		return opts.Timeout
	}
	return s.config.QueryTimeout
}

// sendQuery 构造信封、登记待定状态并经端点发出
func (s *Service) sendQuery(ctx context.Context, op types.Operation, addr types.Address, node string, opts *pkgif.QueryOptions, cacheKey string) (*pendingQuery, error) {
	if s.isClosed() {
		return nil, ErrServiceClosed
	}
	if atomic.LoadInt32(&s.started) == 0 {
		return nil, ErrNotStarted
	}
	if s.endpoint == nil {
		return nil, ErrNoEndpoint
	}

	from := opts.From
	if from.Empty() {
		from = s.endpoint.Self()
	}

	p := &pendingQuery{
		id:       uuid.New().String(),
		op:       op,
		event:    opts.Event,
		callback: opts.Callback,
		cacheKey: cacheKey,
		svc:      s,
		done:     make(chan struct{}),
	}
	s.addPending(p)

	if timeout := s.effectiveTimeout(opts); timeout > 0 {
		p.timer = s.clock.AfterFunc(timeout, func() {
			s.takePending(p.id)
			p.settle(nil, ErrTimeout)
		})
	}

	env := &types.QueryEnvelope{
		ID:   p.id,
		From: from,
		To:   addr,
		Op:   op,
		Node: node,
	}

	logger.Debug("发送发现查询",
		"op", string(op),
		"to", string(addr),
		"node", node,
		"id", p.id)

	if err := s.endpoint.SendQuery(ctx, env); err != nil {
		s.takePending(p.id)
		p.settle(nil, err)
		return nil, err
	}

	return p, nil
}

// await 阻塞等待待定查询完成或上下文取消
func (s *Service) await(ctx context.Context, p *pendingQuery) (*types.DiscoResult, error) {
	select {
	case <-p.done:
		return p.result, p.err
	case <-ctx.Done():
		s.takePending(p.id)
		p.settle(nil, ctx.Err())
		return nil, ctx.Err()
	}
}

// ============================================================================
//                              本地查询
// ============================================================================

// localInfo 本地解析信息查询
//
// 无处理器（且无默认）时返回空结果而非错误——此时不做默认
// 注入；处理器产出的根作用域结果照常注入。
func (s *Service) localInfo(ctx context.Context, addr types.Address, node string) (*types.InfoResult, error) {
	scope := types.NewScope(s.resolveAddr(addr), node)
	logger.Debug("本地解析信息查询", "addr", string(scope.Addr), "node", scope.Node)

	res, err := s.runHandler(ctx, &types.DiscoRequest{Op: types.OpGetInfo, Scope: scope})
	if err != nil {
		return nil, err
	}

	if res == nil || res.Info == nil {
		return &types.InfoResult{Node: node}, nil
	}
	s.fixDefaultInfo(res.Info)
	return res.Info, nil
}

// localItems 本地解析条目查询
//
// 只有信息应答承担"至少一个身份/特性"的协议要求，
// 条目路径不做默认注入。
func (s *Service) localItems(ctx context.Context, addr types.Address, node string) (*types.ItemsResult, error) {
	scope := types.NewScope(s.resolveAddr(addr), node)
	logger.Debug("本地解析条目查询", "addr", string(scope.Addr), "node", scope.Node)

	res, err := s.runHandler(ctx, &types.DiscoRequest{Op: types.OpGetItems, Scope: scope})
	if err != nil {
		return nil, err
	}

	if res != nil && res.Items != nil {
		return res.Items, nil
	}
	return &types.ItemsResult{Node: node}, nil
}

// ============================================================================
//                              出站信息查询
// ============================================================================

// QueryInfo 查询信息
//
// addr 为空或 opts.Local 时本地解析；否则经端点发出。
// 完成模式：默认阻塞等待（超时 0 = 无限），Callback 非 nil 时
// 立即返回 (nil, nil) 并在结果到达后回调，Event 为 true 时结果
// 通过事件总线投递。
func (s *Service) QueryInfo(ctx context.Context, addr types.Address, node string, opts *pkgif.QueryOptions) (*types.InfoResult, error) {
	if opts == nil {
		opts = &pkgif.QueryOptions{}
	}

	if opts.Local || addr.Empty() {
		return s.localInfo(ctx, addr, node)
	}

	key := cacheKey(addr, node)

	// 缓存命中：同步投递，不触达网络
	if s.cache != nil && !opts.NoCache {
		if info, ok := s.cache.get(key); ok {
			logger.Debug("信息查询缓存命中", "addr", string(addr), "node", node)
			if opts.Callback != nil {
				opts.Callback(&types.DiscoResult{Info: info}, nil)
				return nil, nil
			}
			if opts.Event {
				s.emitResult(&types.ResultEnvelope{From: addr, Info: info})
				return nil, nil
			}
			return info, nil
		}
	}

	// 非阻塞完成模式：发出后立即返回
	if opts.Callback != nil || opts.Event {
		_, err := s.sendQuery(ctx, types.OpGetInfo, addr, node, opts, s.cacheableKey(opts, key))
		return nil, err
	}

	// 阻塞模式：启用缓存时用 singleflight 合并相同作用域的并发查询
	if s.cache != nil && !opts.NoCache {
		v, err, _ := s.cache.group.Do(key, func() (interface{}, error) {
			return s.blockingInfo(ctx, addr, node, opts, key)
		})
		if err != nil {
			return nil, err
		}
		return v.(*types.InfoResult), nil
	}

	return s.blockingInfo(ctx, addr, node, opts, "")
}

// cacheableKey 结果可以写缓存时返回键，否则返回空
func (s *Service) cacheableKey(opts *pkgif.QueryOptions, key string) string {
	if s.cache == nil || opts.NoCache {
		return ""
	}
	return key
}

// blockingInfo 发出信息查询并阻塞等待
func (s *Service) blockingInfo(ctx context.Context, addr types.Address, node string, opts *pkgif.QueryOptions, cacheKey string) (*types.InfoResult, error) {
	p, err := s.sendQuery(ctx, types.OpGetInfo, addr, node, opts, cacheKey)
	if err != nil {
		return nil, err
	}

	res, err := s.await(ctx, p)
	if err != nil {
		return nil, err
	}
	if res == nil || res.Info == nil {
		return &types.InfoResult{Node: node}, nil
	}
	return res.Info, nil
}

// QueryInfoAsync 发起信息查询并返回待定句柄
//
// 本地目标同步解析，返回已就绪的句柄。
func (s *Service) QueryInfoAsync(ctx context.Context, addr types.Address, node string, opts *pkgif.QueryOptions) (pkgif.Pending, error) {
	if opts == nil {
		opts = &pkgif.QueryOptions{}
	}

	if opts.Local || addr.Empty() {
		p := s.settledPending()
		info, err := s.localInfo(ctx, addr, node)
		if err != nil {
			p.settle(nil, err)
		} else {
			p.settle(&types.DiscoResult{Info: info}, nil)
		}
		return p, nil
	}

	key := cacheKey(addr, node)
	if s.cache != nil && !opts.NoCache {
		if info, ok := s.cache.get(key); ok {
			p := s.settledPending()
			p.settle(&types.DiscoResult{Info: info}, nil)
			return p, nil
		}
	}

	return s.sendQuery(ctx, types.OpGetInfo, addr, node, opts, s.cacheableKey(opts, key))
}

// settledPending 构造不经过待定表的本地句柄
func (s *Service) settledPending() *pendingQuery {
	return &pendingQuery{
		id:   uuid.New().String(),
		svc:  s,
		done: make(chan struct{}),
	}
}

// ============================================================================
//                              出站条目查询
// ============================================================================

// QueryItems 查询条目
func (s *Service) QueryItems(ctx context.Context, addr types.Address, node string, opts *pkgif.QueryOptions) (*types.ItemsResult, error) {
	if opts == nil {
		opts = &pkgif.QueryOptions{}
	}

	if opts.Local || addr.Empty() {
		return s.localItems(ctx, addr, node)
	}

	if opts.Callback != nil || opts.Event {
		_, err := s.sendQuery(ctx, types.OpGetItems, addr, node, opts, "")
		return nil, err
	}

	p, err := s.sendQuery(ctx, types.OpGetItems, addr, node, opts, "")
	if err != nil {
		return nil, err
	}

	res, err := s.await(ctx, p)
	if err != nil {
		return nil, err
	}
	if res == nil || res.Items == nil {
		return &types.ItemsResult{Node: node}, nil
	}
	return res.Items, nil
}

// QueryItemsAsync 发起条目查询并返回待定句柄
func (s *Service) QueryItemsAsync(ctx context.Context, addr types.Address, node string, opts *pkgif.QueryOptions) (pkgif.Pending, error) {
	if opts == nil {
		opts = &pkgif.QueryOptions{}
	}

	if opts.Local || addr.Empty() {
		p := s.settledPending()
		items, err := s.localItems(ctx, addr, node)
		if err != nil {
			p.settle(nil, err)
		} else {
			p.settle(&types.DiscoResult{Items: items}, nil)
		}
		return p, nil
	}

	return s.sendQuery(ctx, types.OpGetItems, addr, node, opts, "")
}

// ============================================================================
//                              分页迭代
// ============================================================================

// QueryItemsPages 按页迭代远端条目
//
// 配置了分页协作者时返回其惰性迭代器（对基础查询的薄组合）；
// 否则退化为单批结果的迭代器。
func (s *Service) QueryItemsPages(ctx context.Context, addr types.Address, node string, opts *pkgif.QueryOptions) (pkgif.PageIterator, error) {
	if opts == nil {
		opts = &pkgif.QueryOptions{}
	}

	if s.pager != nil && !opts.Local && !addr.Empty() {
		from := opts.From
		if from.Empty() && s.endpoint != nil {
			from = s.endpoint.Self()
		}
		base := &types.QueryEnvelope{
			ID:   uuid.New().String(),
			From: from,
			To:   addr,
			Op:   types.OpGetItems,
			Node: node,
		}
		return s.pager.Pages(ctx, base), nil
	}

	return &singleBatch{svc: s, addr: addr, node: node, opts: opts}, nil
}

// singleBatch 无分页协作者时的单批迭代器
type singleBatch struct {
	svc  *Service
	addr types.Address
	node string
	opts *pkgif.QueryOptions

	mu       sync.Mutex
	consumed bool
}

// Next 第一次调用返回完整条目批次，之后返回 (nil, nil)
func (b *singleBatch) Next(ctx context.Context) (*types.ItemsResult, error) {
	b.mu.Lock()
	if b.consumed {
		b.mu.Unlock()
		return nil, nil
	}
	b.consumed = true
	b.mu.Unlock()

	return b.svc.QueryItems(ctx, b.addr, b.node, b.opts)
}

// Restart 重置迭代器回到第一页
func (b *singleBatch) Restart() {
	b.mu.Lock()
	b.consumed = false
	b.mu.Unlock()
}
