package interfaces

import (
	"errors"
	"time"

	"github.com/dep2p/go-disco/pkg/types"
)

// ============================================================================
//                              配置
// ============================================================================

// Config 发现服务配置
type Config struct {
	// Mode 地址规范化模式（组件 = 完整地址，客户端 = 裸地址）
	Mode types.Mode

	// QueryTimeout 出站查询默认超时；0 表示无限等待
	QueryTimeout time.Duration

	// CacheSize 远端信息结果缓存容量；0 禁用缓存
	CacheSize int

	// CacheTTL 缓存条目存活时间（仅在启用缓存时生效）
	CacheTTL time.Duration

	// EventBuffer 事件订阅的默认缓冲区大小
	EventBuffer int
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Mode:         types.ModeClient,
		QueryTimeout: 0,
		CacheSize:    0,
		CacheTTL:     2 * time.Minute,
		EventBuffer:  16,
	}
}

// Validate 校验配置
func (c *Config) Validate() error {
	if c.QueryTimeout < 0 {
		return errors.New("config: query timeout must not be negative")
	}
	if c.CacheSize < 0 {
		return errors.New("config: cache size must not be negative")
	}
	if c.CacheSize > 0 && c.CacheTTL <= 0 {
		return errors.New("config: cache ttl required when cache enabled")
	}
	if c.EventBuffer < 0 {
		return errors.New("config: event buffer must not be negative")
	}
	return nil
}
