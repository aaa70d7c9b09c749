// Package disco 实现服务发现核心
package disco

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/dep2p/go-disco/pkg/types"
)

// ============================================================================
//                              远端信息缓存
// ============================================================================

// infoCache 远端信息结果的过期 LRU 缓存
//
// 实体的身份与特性集合变化很少，阻塞路径上相同作用域的并发
// 查询用 singleflight 合并为一次网络往返。调用方可按次通过
// QueryOptions.NoCache 绕过。
type infoCache struct {
	lru   *expirable.LRU[string, *types.InfoResult]
	group singleflight.Group
}

// newInfoCache 创建缓存
func newInfoCache(size int, ttl time.Duration) *infoCache {
	return &infoCache{
		lru: expirable.NewLRU[string, *types.InfoResult](size, nil, ttl),
	}
}

// get 读取缓存条目
func (c *infoCache) get(key string) (*types.InfoResult, bool) {
	return c.lru.Get(key)
}

// add 写入缓存条目
func (c *infoCache) add(key string, info *types.InfoResult) {
	c.lru.Add(key, info)
}

// cacheKey 作用域的缓存键
func cacheKey(addr types.Address, node string) string {
	return string(addr) + "#" + node
}
