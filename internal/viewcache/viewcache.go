// Package viewcache はダッシュボードの表示結果をユーザーとパスの組で短時間キャッシュする。
package viewcache

import (
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// keySep はユーザーIDとパスの区切り。どちらにも現れないNUL文字を使う。
const keySep = "\x00"

// Cache はレンダリング済みページ本文のTTLキャッシュ。
// ttlが0以下の場合は何もキャッシュしない。
//
// 世代番号はInvalidateのたびに進む。読み込み開始時の世代をSetIfCurrentに渡すと、
// 読み込み中に無効化が走った場合は古い本文を保存しない。
type Cache struct {
	store *gocache.Cache
	ttl   time.Duration

	mu  sync.Mutex
	gen uint64
}

// New はCacheを生成する。期限切れエントリはttlごとに掃除される。
func New(ttl time.Duration) *Cache {
	cleanup := ttl
	if cleanup <= 0 {
		cleanup = time.Minute
	}
	return &Cache{
		store: gocache.New(ttl, cleanup),
		ttl:   ttl,
	}
}

func key(userID, path string) string {
	return userID + keySep + path
}

// Get はキャッシュされたページ本文を返す。
func (c *Cache) Get(userID, path string) ([]byte, bool) {
	if c.ttl <= 0 {
		return nil, false
	}
	v, ok := c.store.Get(key(userID, path))
	if !ok {
		return nil, false
	}
	return v.([]byte), true
}

// Set はページ本文を保存する。
func (c *Cache) Set(userID, path string, body []byte) {
	if c.ttl <= 0 {
		return
	}
	c.store.Set(key(userID, path), body, c.ttl)
}

// Generation は現在の世代番号を返す。
func (c *Cache) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// SetIfCurrent は世代がgenのままの場合に限りページ本文を保存する。保存したかを返す。
func (c *Cache) SetIfCurrent(userID, path string, body []byte, gen uint64) bool {
	if c.ttl <= 0 {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return false
	}
	c.store.Set(key(userID, path), body, c.ttl)
	return true
}

// Invalidate はいずれかのパスプレフィックスに一致するページを全ユーザー分削除する。
// プレフィックスはパス区切り単位で比較する（/dashboard/admin は /dashboard/administrator に一致しない）。
func (c *Cache) Invalidate(prefixes ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	for k := range c.store.Items() {
		_, path, found := strings.Cut(k, keySep)
		if !found {
			continue
		}
		for _, p := range prefixes {
			if path == p || strings.HasPrefix(path, strings.TrimSuffix(p, "/")+"/") {
				c.store.Delete(k)
				break
			}
		}
	}
}

// Len は保持しているエントリ数を返す（期限切れで未掃除のものを除く）。
func (c *Cache) Len() int {
	return len(c.store.Items())
}
