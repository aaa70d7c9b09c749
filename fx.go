// Package godisco 提供服务发现模块的顶层装配
package godisco

import (
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/dep2p/go-disco/internal/core/disco"
	"github.com/dep2p/go-disco/internal/core/eventbus"
)

// ============================================================================
//                              Fx 装配
// ============================================================================

// Module 返回完整的 Fx 模块（事件总线 + 发现服务）
//
// 宿主应用通过容器提供可选依赖（*interfaces.Config、
// interfaces.Endpoint、interfaces.Pager），并从容器获取
// interfaces.Service 与 interfaces.EventBus。
func Module() fx.Option {
	return fx.Options(
		eventbus.Module(),
		disco.Module(),
	)
}

// WithFxLogger 返回基于 zap 的 Fx 事件日志选项
//
// 传入 nil 时使用 zap.NewNop()，静默容器装配日志。
func WithFxLogger(l *zap.Logger) fx.Option {
	if l == nil {
		l = zap.NewNop()
	}
	return fx.WithLogger(func() fxevent.Logger {
		return &fxevent.ZapLogger{Logger: l}
	})
}
