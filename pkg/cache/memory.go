package cache

import (
	"time"

	lru "github.com/hashicorp/golang-lru"
)

// DefaultSize はメモリキャッシュの既定エントリ数です。
const DefaultSize = 256

// Memory は有効期限付きの LRU キャッシュです。generator.ImageCacher を満たします。
type Memory struct {
	cache *lru.Cache
	now   func() time.Time
}

type entry struct {
	value     any
	expiresAt time.Time // ゼロ値は無期限
}

// NewMemory は最大 size 件を保持するキャッシュを作成します。size が 0 以下なら DefaultSize です。
func NewMemory(size int) (*Memory, error) {
	if size <= 0 {
		size = DefaultSize
	}
	c, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &Memory{cache: c, now: time.Now}, nil
}

// Get はキーに対応する値を返します。期限切れのエントリは削除して false を返します。
func (m *Memory) Get(key string) (any, bool) {
	val, ok := m.cache.Get(key)
	if !ok {
		return nil, false
	}
	e := val.(entry)
	if !e.expiresAt.IsZero() && m.now().After(e.expiresAt) {
		m.cache.Remove(key)
		return nil, false
	}
	return e.value, true
}

// Set は値を保存します。d が 0 以下なら期限なしです。
func (m *Memory) Set(key string, value any, d time.Duration) {
	e := entry{value: value}
	if d > 0 {
		e.expiresAt = m.now().Add(d)
	}
	m.cache.Add(key, e)
}

// Len は保持しているエントリ数です（期限切れを含む）。
func (m *Memory) Len() int {
	return m.cache.Len()
}
