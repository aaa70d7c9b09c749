// Package godisco 提供服务发现模块的顶层装配
package godisco

import (
	"context"

	"go.uber.org/multierr"

	"github.com/dep2p/go-disco/internal/core/disco"
	"github.com/dep2p/go-disco/internal/core/eventbus"
	pkgif "github.com/dep2p/go-disco/pkg/interfaces"
)

// ============================================================================
//                              Disco 门面
// ============================================================================

// Disco 服务发现实例
//
// 把静态存储、处理器注册表、调度器与事件总线装配为一个独立
// 实例。同一进程可以并存多个互不相干的实例（例如测试场景），
// 不依赖任何进程级单例。
type Disco struct {
	config  *pkgif.Config
	service *disco.Service
	bus     pkgif.EventBus
}

// New 创建服务发现实例
func New(opts ...Option) (*Disco, error) {
	cfg := &instanceConfig{
		config: pkgif.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	bus := cfg.bus
	if bus == nil {
		bus = eventbus.NewBus()
	}

	svc, err := disco.NewService(disco.Deps{
		Config:   cfg.config,
		Endpoint: cfg.endpoint,
		EventBus: bus,
		Pager:    cfg.pager,
		Clock:    cfg.clock,
	})
	if err != nil {
		return nil, err
	}

	return &Disco{
		config:  cfg.config,
		service: svc,
		bus:     bus,
	}, nil
}

// Start 启动实例
func (d *Disco) Start(ctx context.Context) error {
	return d.service.Start(ctx)
}

// Close 停止实例并释放资源
func (d *Disco) Close() error {
	var errs error
	errs = multierr.Append(errs, d.service.Stop(context.Background()))
	return errs
}

// Service 返回发现服务
func (d *Disco) Service() pkgif.Service {
	return d.service
}

// EventBus 返回事件总线
//
// 订阅 types.EvtDiscoInfo / types.EvtDiscoItems 以接收入站结果，
// 订阅 types.EvtHandlerError 以观测入站处理器失败。
func (d *Disco) EventBus() pkgif.EventBus {
	return d.bus
}

// Store 返回后备静态存储（零配置行为的数据面）
func (d *Disco) Store() *disco.StaticStore {
	return d.service.Store()
}
