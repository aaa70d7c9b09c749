// Package disco 实现服务发现核心
package disco

import (
	"context"

	"go.uber.org/fx"

	pkgif "github.com/dep2p/go-disco/pkg/interfaces"
)

// ============================================================================
//                              模块输入依赖
// ============================================================================

// ModuleInput 定义模块输入依赖
type ModuleInput struct {
	fx.In

	// Config 配置（可选）
	Config *pkgif.Config `optional:"true"`

	// Endpoint 端点（可选，用于远端查询）
	Endpoint pkgif.Endpoint `optional:"true"`

	// EventBus 事件总线（可选，用于结果事件投递）
	EventBus pkgif.EventBus `optional:"true"`

	// Pager 分页协作者（可选）
	Pager pkgif.Pager `optional:"true"`
}

// ============================================================================
//                              模块输出服务
// ============================================================================

// ModuleOutput 定义模块输出服务
type ModuleOutput struct {
	fx.Out

	// Service 发现服务
	Service pkgif.Service
}

// ============================================================================
//                              服务提供
// ============================================================================

// ProvideService 提供发现服务
func ProvideService(input ModuleInput) (ModuleOutput, error) {
	svc, err := NewService(Deps{
		Config:   input.Config,
		Endpoint: input.Endpoint,
		EventBus: input.EventBus,
		Pager:    input.Pager,
	})
	if err != nil {
		return ModuleOutput{}, err
	}
	return ModuleOutput{Service: svc}, nil
}

// Module 返回 Fx 模块
func Module() fx.Option {
	return fx.Module("disco",
		fx.Provide(ProvideService),
		fx.Invoke(registerLifecycle),
	)
}

// lifecycleInput 生命周期输入参数
type lifecycleInput struct {
	fx.In

	LC      fx.Lifecycle
	Service pkgif.Service
}

// registerLifecycle 注册生命周期
func registerLifecycle(input lifecycleInput) {
	input.LC.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return input.Service.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			return input.Service.Stop(ctx)
		},
	})
}

// ============================================================================
//                              模块元信息
// ============================================================================

const (
	// Name 模块名称
	Name = "disco"
	// Description 模块描述
	Description = "服务发现模块，提供多级处理器解析与请求/响应编排"
)
