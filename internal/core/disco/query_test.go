package disco

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgif "github.com/dep2p/go-disco/pkg/interfaces"
	"github.com/dep2p/go-disco/pkg/types"
)

// infoResponder 构造回送固定信息结果的应答函数
func infoResponder(features ...string) func(*types.QueryEnvelope) *types.ResultEnvelope {
	return func(env *types.QueryEnvelope) *types.ResultEnvelope {
		return &types.ResultEnvelope{
			ID:   env.ID,
			From: env.To,
			Info: &types.InfoResult{
				Node:       env.Node,
				Identities: []types.Identity{{Category: "server", Type: "im"}},
				Features:   features,
			},
		}
	}
}

// ============================================================================
// 阻塞完成模式
// ============================================================================

// TestQueryInfo_Blocking 测试阻塞式远端信息查询
func TestQueryInfo_Blocking(t *testing.T) {
	env := newTestEnv(t, nil)
	env.ep.respond = infoResponder("urn:example:remote")

	info, err := env.svc.QueryInfo(context.Background(), "bob@example", "", nil)
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, []string{"urn:example:remote"}, info.Features)

	require.Equal(t, 1, env.ep.queryCount())
	env.ep.mu.Lock()
	sent := env.ep.queries[0]
	env.ep.mu.Unlock()
	assert.Equal(t, types.OpGetInfo, sent.Op)
	assert.Equal(t, types.Address("bob@example"), sent.To)
	assert.Equal(t, types.Address("alice@example/home"), sent.From)
	assert.NotEmpty(t, sent.ID)
}

// TestQueryInfo_FromOverride 测试发送方地址覆盖
func TestQueryInfo_FromOverride(t *testing.T) {
	env := newTestEnv(t, nil)
	env.ep.respond = infoResponder()

	_, err := env.svc.QueryInfo(context.Background(), "bob@example", "", &pkgif.QueryOptions{
		From: "relay@example",
	})
	require.NoError(t, err)

	env.ep.mu.Lock()
	defer env.ep.mu.Unlock()
	assert.Equal(t, types.Address("relay@example"), env.ep.queries[0].From)
}

// TestQueryItems_Blocking 测试阻塞式远端条目查询
func TestQueryItems_Blocking(t *testing.T) {
	env := newTestEnv(t, nil)
	env.ep.respond = func(env *types.QueryEnvelope) *types.ResultEnvelope {
		return &types.ResultEnvelope{
			ID:   env.ID,
			From: env.To,
			Items: &types.ItemsResult{
				Node:  env.Node,
				Items: []types.Item{{Addr: "room@conference.example", Name: "Room"}},
			},
		}
	}

	items, err := env.svc.QueryItems(context.Background(), "bob@example", "rooms", nil)
	require.NoError(t, err)
	require.Len(t, items.Items, 1)
	assert.Equal(t, "Room", items.Items[0].Name)
}

// TestQueryInfo_RemoteFailure 测试远端错误上抛
func TestQueryInfo_RemoteFailure(t *testing.T) {
	env := newTestEnv(t, nil)
	env.ep.respond = func(env *types.QueryEnvelope) *types.ResultEnvelope {
		return &types.ResultEnvelope{ID: env.ID, From: env.To, Err: "item-not-found"}
	}

	_, err := env.svc.QueryInfo(context.Background(), "bob@example", "", nil)
	assert.ErrorIs(t, err, ErrRemoteFailure)
	assert.Contains(t, err.Error(), "item-not-found")
}

// TestQueryInfo_SendFailure 测试端点发送失败即时上抛
func TestQueryInfo_SendFailure(t *testing.T) {
	env := newTestEnv(t, nil)
	boom := errors.New("transport down")
	env.ep.queryErr = boom

	_, err := env.svc.QueryInfo(context.Background(), "bob@example", "", nil)
	assert.ErrorIs(t, err, boom)
}

// TestQueryInfo_NoEndpoint 测试无端点时远端查询被拒绝
func TestQueryInfo_NoEndpoint(t *testing.T) {
	svc, err := NewService(Deps{})
	require.NoError(t, err)
	require.NoError(t, svc.Start(context.Background()))
	defer svc.Stop(context.Background())

	_, err = svc.QueryInfo(context.Background(), "bob@example", "", nil)
	assert.ErrorIs(t, err, ErrNoEndpoint)
}

// TestQueryInfo_ContextCanceled 测试上下文取消中断等待
func TestQueryInfo_ContextCanceled(t *testing.T) {
	env := newTestEnv(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := env.svc.QueryInfo(ctx, "bob@example", "", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

// ============================================================================
// 超时
// ============================================================================

// TestQueryInfo_Timeout 测试配置默认超时
func TestQueryInfo_Timeout(t *testing.T) {
	cfg := pkgif.DefaultConfig()
	cfg.QueryTimeout = 5 * time.Second
	env := newTestEnv(t, cfg)

	p, err := env.svc.QueryInfoAsync(context.Background(), "bob@example", "", nil)
	require.NoError(t, err)

	env.clk.Add(5 * time.Second)

	_, err = p.Result()
	assert.ErrorIs(t, err, ErrTimeout)
}

// TestQueryInfo_PerCallTimeout 测试单次调用超时覆盖配置
func TestQueryInfo_PerCallTimeout(t *testing.T) {
	env := newTestEnv(t, nil) // 配置默认无限等待

	p, err := env.svc.QueryInfoAsync(context.Background(), "bob@example", "", &pkgif.QueryOptions{
		Timeout: time.Second,
	})
	require.NoError(t, err)

	env.clk.Add(time.Second)

	_, err = p.Result()
	assert.ErrorIs(t, err, ErrTimeout)
}

// TestQueryInfo_TimeoutBeatenByResult 测试结果先到时超时不生效
func TestQueryInfo_TimeoutBeatenByResult(t *testing.T) {
	cfg := pkgif.DefaultConfig()
	cfg.QueryTimeout = 5 * time.Second
	env := newTestEnv(t, cfg)
	env.ep.respond = infoResponder("urn:example:fast")

	info, err := env.svc.QueryInfo(context.Background(), "bob@example", "", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"urn:example:fast"}, info.Features)

	// 超时触发后不得改写已完成的查询
	env.clk.Add(5 * time.Second)
}

// ============================================================================
// 回调与事件完成模式
// ============================================================================

// TestQueryInfo_Callback 测试回调完成模式
func TestQueryInfo_Callback(t *testing.T) {
	env := newTestEnv(t, nil)
	env.ep.respond = infoResponder("urn:example:cb")

	var got *types.DiscoResult
	var gotErr error
	info, err := env.svc.QueryInfo(context.Background(), "bob@example", "", &pkgif.QueryOptions{
		Callback: func(res *types.DiscoResult, err error) {
			got = res
			gotErr = err
		},
	})
	require.NoError(t, err)
	assert.Nil(t, info, "回调模式下调用立即返回空结果")

	require.NoError(t, gotErr)
	require.NotNil(t, got)
	require.NotNil(t, got.Info)
	assert.Equal(t, []string{"urn:example:cb"}, got.Info.Features)
}

// TestQueryInfo_EventMode 测试事件总线完成模式
func TestQueryInfo_EventMode(t *testing.T) {
	env := newTestEnv(t, nil)
	env.ep.respond = infoResponder("urn:example:evt")

	sub, err := env.bus.Subscribe(new(types.EvtDiscoInfo))
	require.NoError(t, err)
	defer sub.Close()

	info, err := env.svc.QueryInfo(context.Background(), "bob@example", "", &pkgif.QueryOptions{
		Event: true,
	})
	require.NoError(t, err)
	assert.Nil(t, info)

	evt := <-sub.Out()
	de, ok := evt.(*types.EvtDiscoInfo)
	require.True(t, ok)
	assert.Equal(t, types.Address("bob@example"), de.From)
	assert.Equal(t, []string{"urn:example:evt"}, de.Info.Features)
}

// TestHandleResult_Unsolicited 测试未关联结果走事件总线
func TestHandleResult_Unsolicited(t *testing.T) {
	env := newTestEnv(t, nil)

	sub, err := env.bus.Subscribe(new(types.EvtDiscoItems))
	require.NoError(t, err)
	defer sub.Close()

	env.svc.HandleResult(context.Background(), &types.ResultEnvelope{
		ID:   "never-sent",
		From: "bob@example",
		Items: &types.ItemsResult{
			Items: []types.Item{{Addr: "x.example"}},
		},
	})

	evt := <-sub.Out()
	de, ok := evt.(*types.EvtDiscoItems)
	require.True(t, ok)
	assert.Len(t, de.Items.Items, 1)
}

// ============================================================================
// 待定句柄
// ============================================================================

// TestQueryInfoAsync_Remote 测试远端查询的待定句柄
func TestQueryInfoAsync_Remote(t *testing.T) {
	env := newTestEnv(t, nil)

	p, err := env.svc.QueryInfoAsync(context.Background(), "bob@example", "", nil)
	require.NoError(t, err)
	require.NotEmpty(t, p.ID())

	select {
	case <-p.Done():
		t.Fatal("结果未到达前 Done 不应关闭")
	default:
	}

	env.svc.HandleResult(context.Background(), &types.ResultEnvelope{
		ID:   p.ID(),
		From: "bob@example",
		Info: &types.InfoResult{Features: []string{"urn:example:async"}},
	})

	<-p.Done()
	res, err := p.Result()
	require.NoError(t, err)
	assert.Equal(t, []string{"urn:example:async"}, res.Info.Features)
}

// TestQueryInfoAsync_Local 测试本地查询返回已就绪句柄
func TestQueryInfoAsync_Local(t *testing.T) {
	env := newTestEnv(t, nil)

	require.NoError(t, env.svc.AddFeature(context.Background(), "", "", "urn:example:local"))

	p, err := env.svc.QueryInfoAsync(context.Background(), "", "", nil)
	require.NoError(t, err)

	<-p.Done()
	res, err := p.Result()
	require.NoError(t, err)
	assert.Contains(t, res.Info.Features, "urn:example:local")
}

// TestQueryItemsAsync_Local 测试本地条目查询句柄
func TestQueryItemsAsync_Local(t *testing.T) {
	env := newTestEnv(t, nil)

	require.NoError(t, env.svc.AddItem(context.Background(), pkgif.AddItemOptions{
		ItemAddr: "x.example",
	}))

	p, err := env.svc.QueryItemsAsync(context.Background(), "", "", nil)
	require.NoError(t, err)

	res, err := p.Result()
	require.NoError(t, err)
	require.NotNil(t, res.Items)
	assert.Len(t, res.Items.Items, 1)
}

// TestPending_Cancel 测试取消等待
func TestPending_Cancel(t *testing.T) {
	env := newTestEnv(t, nil)

	p, err := env.svc.QueryInfoAsync(context.Background(), "bob@example", "", nil)
	require.NoError(t, err)

	p.Cancel()

	_, err = p.Result()
	assert.ErrorIs(t, err, ErrCanceled)

	// 取消后迟到的结果按未关联处理，不会恐慌
	env.svc.HandleResult(context.Background(), &types.ResultEnvelope{
		ID:   p.ID(),
		From: "bob@example",
		Info: &types.InfoResult{},
	})
}

// TestStop_CancelsPending 测试停止服务取消全部待定查询
func TestStop_CancelsPending(t *testing.T) {
	env := newTestEnv(t, nil)

	p1, err := env.svc.QueryInfoAsync(context.Background(), "bob@example", "", nil)
	require.NoError(t, err)
	p2, err := env.svc.QueryItemsAsync(context.Background(), "bob@example", "", nil)
	require.NoError(t, err)

	require.NoError(t, env.svc.Stop(context.Background()))

	_, err = p1.Result()
	assert.ErrorIs(t, err, ErrServiceClosed)
	_, err = p2.Result()
	assert.ErrorIs(t, err, ErrServiceClosed)
}

// TestQuery_BeforeStart 测试未启动时的远端查询被拒绝
func TestQuery_BeforeStart(t *testing.T) {
	ep := &fakeEndpoint{self: "alice@example/home"}
	svc, err := NewService(Deps{Endpoint: ep})
	require.NoError(t, err)
	ep.svc = svc

	_, err = svc.QueryInfo(context.Background(), "bob@example", "", nil)
	assert.ErrorIs(t, err, ErrNotStarted)

	// 本地查询不依赖生命周期
	_, err = svc.QueryInfo(context.Background(), "", "", nil)
	assert.NoError(t, err)
}

// TestQuery_AfterStop 测试停止后的远端查询被拒绝
func TestQuery_AfterStop(t *testing.T) {
	env := newTestEnv(t, nil)
	require.NoError(t, env.svc.Stop(context.Background()))

	_, err := env.svc.QueryInfo(context.Background(), "bob@example", "", nil)
	assert.ErrorIs(t, err, ErrServiceClosed)

	_, err = env.svc.QueryItemsAsync(context.Background(), "bob@example", "", nil)
	assert.ErrorIs(t, err, ErrServiceClosed)
}

// ============================================================================
// 缓存
// ============================================================================

// TestQueryInfo_Cache 测试远端信息结果缓存
func TestQueryInfo_Cache(t *testing.T) {
	cfg := pkgif.DefaultConfig()
	cfg.CacheSize = 8
	cfg.CacheTTL = time.Minute
	env := newTestEnv(t, cfg)

	var hits atomic.Int32
	env.ep.respond = func(qe *types.QueryEnvelope) *types.ResultEnvelope {
		hits.Add(1)
		return infoResponder("urn:example:cached")(qe)
	}

	ctx := context.Background()

	info, err := env.svc.QueryInfo(ctx, "bob@example", "", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"urn:example:cached"}, info.Features)
	assert.Equal(t, int32(1), hits.Load())

	// 第二次命中缓存，不触达端点
	info, err = env.svc.QueryInfo(ctx, "bob@example", "", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"urn:example:cached"}, info.Features)
	assert.Equal(t, int32(1), hits.Load())

	// 不同节点是不同的缓存键
	_, err = env.svc.QueryInfo(ctx, "bob@example", "music", nil)
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())

	// NoCache 绕过缓存
	_, err = env.svc.QueryInfo(ctx, "bob@example", "", &pkgif.QueryOptions{NoCache: true})
	require.NoError(t, err)
	assert.Equal(t, int32(3), hits.Load())
}

// TestQueryInfoAsync_CacheHit 测试缓存命中返回已就绪句柄
func TestQueryInfoAsync_CacheHit(t *testing.T) {
	cfg := pkgif.DefaultConfig()
	cfg.CacheSize = 8
	cfg.CacheTTL = time.Minute
	env := newTestEnv(t, cfg)
	env.ep.respond = infoResponder("urn:example:cached")

	ctx := context.Background()
	_, err := env.svc.QueryInfo(ctx, "bob@example", "", nil)
	require.NoError(t, err)
	require.Equal(t, 1, env.ep.queryCount())

	p, err := env.svc.QueryInfoAsync(ctx, "bob@example", "", nil)
	require.NoError(t, err)

	res, err := p.Result()
	require.NoError(t, err)
	assert.Equal(t, []string{"urn:example:cached"}, res.Info.Features)
	assert.Equal(t, 1, env.ep.queryCount(), "缓存命中不应触达端点")
}

// ============================================================================
// 分页迭代
// ============================================================================

// fakePager 固定页序列的分页协作者替身
type fakePager struct {
	base  *types.QueryEnvelope
	pages [][]types.Item
}

func (p *fakePager) Pages(_ context.Context, base *types.QueryEnvelope) pkgif.PageIterator {
	p.base = base
	return &fakePageIter{pages: p.pages}
}

type fakePageIter struct {
	pages [][]types.Item
	idx   int
}

func (it *fakePageIter) Next(context.Context) (*types.ItemsResult, error) {
	if it.idx >= len(it.pages) {
		return nil, nil
	}
	items := it.pages[it.idx]
	it.idx++
	return &types.ItemsResult{Items: items}, nil
}

func (it *fakePageIter) Restart() {
	it.idx = 0
}

// TestQueryItemsPages_SingleBatch 测试无分页协作者时退化为单批
func TestQueryItemsPages_SingleBatch(t *testing.T) {
	env := newTestEnv(t, nil)
	env.ep.respond = func(qe *types.QueryEnvelope) *types.ResultEnvelope {
		return &types.ResultEnvelope{
			ID:    qe.ID,
			From:  qe.To,
			Items: &types.ItemsResult{Items: []types.Item{{Addr: "x.example"}}},
		}
	}

	ctx := context.Background()
	it, err := env.svc.QueryItemsPages(ctx, "bob@example", "", nil)
	require.NoError(t, err)

	page, err := it.Next(ctx)
	require.NoError(t, err)
	require.NotNil(t, page)
	assert.Len(t, page.Items, 1)

	// 单批耗尽
	page, err = it.Next(ctx)
	require.NoError(t, err)
	assert.Nil(t, page)

	// 重启后重新获取
	it.Restart()
	page, err = it.Next(ctx)
	require.NoError(t, err)
	require.NotNil(t, page)
	assert.Equal(t, 2, env.ep.queryCount())
}

// TestQueryItemsPages_Pager 测试分页协作者接管迭代
func TestQueryItemsPages_Pager(t *testing.T) {
	pager := &fakePager{pages: [][]types.Item{
		{{Addr: "a.example"}, {Addr: "b.example"}},
		{{Addr: "c.example"}},
	}}

	ep := &fakeEndpoint{self: "alice@example/home"}
	svc, err := NewService(Deps{Endpoint: ep, Pager: pager})
	require.NoError(t, err)
	ep.svc = svc
	require.NoError(t, svc.Start(context.Background()))
	defer svc.Stop(context.Background())

	ctx := context.Background()
	it, err := svc.QueryItemsPages(ctx, "bob@example", "rooms", nil)
	require.NoError(t, err)

	// 基础查询字段传递给协作者
	require.NotNil(t, pager.base)
	assert.Equal(t, types.OpGetItems, pager.base.Op)
	assert.Equal(t, types.Address("bob@example"), pager.base.To)
	assert.Equal(t, "rooms", pager.base.Node)

	var total int
	for {
		page, err := it.Next(ctx)
		require.NoError(t, err)
		if page == nil {
			break
		}
		total += len(page.Items)
	}
	assert.Equal(t, 3, total)
}
