// Package godisco 提供服务发现模块的顶层装配
package godisco

import (
	"time"

	"github.com/benbjohnson/clock"

	pkgif "github.com/dep2p/go-disco/pkg/interfaces"
	"github.com/dep2p/go-disco/pkg/types"
)

// instanceConfig 实例装配配置
type instanceConfig struct {
	config   *pkgif.Config
	endpoint pkgif.Endpoint
	bus      pkgif.EventBus
	pager    pkgif.Pager
	clock    clock.Clock
}

// Option 配置选项函数
type Option func(*instanceConfig)

// WithConfig 使用完整配置
func WithConfig(cfg *pkgif.Config) Option {
	return func(c *instanceConfig) {
		if cfg != nil {
			c.config = cfg
		}
	}
}

// WithMode 设置地址规范化模式
func WithMode(mode types.Mode) Option {
	return func(c *instanceConfig) {
		c.config.Mode = mode
	}
}

// WithQueryTimeout 设置出站查询默认超时（0 = 无限等待）
func WithQueryTimeout(timeout time.Duration) Option {
	return func(c *instanceConfig) {
		c.config.QueryTimeout = timeout
	}
}

// WithCache 启用远端信息结果缓存
func WithCache(size int, ttl time.Duration) Option {
	return func(c *instanceConfig) {
		c.config.CacheSize = size
		c.config.CacheTTL = ttl
	}
}

// WithEndpoint 设置端点协作者（远端查询所必需）
func WithEndpoint(ep pkgif.Endpoint) Option {
	return func(c *instanceConfig) {
		c.endpoint = ep
	}
}

// WithEventBus 使用外部事件总线（默认创建内置总线）
func WithEventBus(bus pkgif.EventBus) Option {
	return func(c *instanceConfig) {
		c.bus = bus
	}
}

// WithPager 设置分页协作者
func WithPager(pager pkgif.Pager) Option {
	return func(c *instanceConfig) {
		c.pager = pager
	}
}

// WithClock 注入时钟（测试用）
func WithClock(clk clock.Clock) Option {
	return func(c *instanceConfig) {
		c.clock = clk
	}
}
