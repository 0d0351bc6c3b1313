package storage

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedStore 在任意 Store 外面加一层读缓存（LRU）
// 只缓存已提交的数据：事务内的写入在提交成功后才进入缓存
// 未命中时的“读底层 + 回填”持有读锁，写入持有写锁，
// 回填不会用旧值覆盖并发提交的新值
type CachedStore struct {
	mu    sync.RWMutex
	inner Store
	cache *lru.Cache[string, []byte]
}

// NewCachedStore 创建带 LRU 读缓存的存储，size 为缓存条目数
func NewCachedStore(inner Store, size int) (*CachedStore, error) {
	cache, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, err
	}
	return &CachedStore{inner: inner, cache: cache}, nil
}

func (s *CachedStore) Get(key []byte) ([]byte, error) {
	if v, ok := s.cache.Get(string(key)); ok {
		return copyBytes(v), nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	v, err := s.inner.Get(key)
	if err != nil {
		return nil, err
	}
	s.cache.Add(string(key), copyBytes(v))
	return v, nil
}

func (s *CachedStore) Put(key, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.inner.Put(key, value); err != nil {
		s.cache.Remove(string(key))
		return err
	}
	s.cache.Add(string(key), copyBytes(value))
	return nil
}

func (s *CachedStore) Delete(key []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Remove(string(key))
	return s.inner.Delete(key)
}

// Update 记录事务内的写入，提交成功后同步到缓存
func (s *CachedStore) Update(fn func(tx Txn) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var writes []cachedWrite
	err := s.inner.Update(func(tx Txn) error {
		writes = writes[:0]
		return fn(&cachedTxn{inner: tx, writes: &writes})
	})
	if err != nil {
		// 提交结果不确定时丢弃相关缓存项
		for _, w := range writes {
			s.cache.Remove(w.key)
		}
		return err
	}
	for _, w := range writes {
		if w.deleted {
			s.cache.Remove(w.key)
			continue
		}
		s.cache.Add(w.key, w.value)
	}
	return nil
}

// Purge 清空缓存
func (s *CachedStore) Purge() {
	s.cache.Purge()
}

// Len 返回缓存条目数
func (s *CachedStore) Len() int {
	return s.cache.Len()
}

func (s *CachedStore) Close() error {
	s.cache.Purge()
	return s.inner.Close()
}

type cachedWrite struct {
	key     string
	value   []byte
	deleted bool
}

type cachedTxn struct {
	inner  Txn
	writes *[]cachedWrite
}

func (t *cachedTxn) Get(key []byte) ([]byte, error) {
	return t.inner.Get(key)
}

func (t *cachedTxn) Put(key, value []byte) error {
	if err := t.inner.Put(key, value); err != nil {
		return err
	}
	*t.writes = append(*t.writes, cachedWrite{key: string(key), value: copyBytes(value)})
	return nil
}

func (t *cachedTxn) Delete(key []byte) error {
	if err := t.inner.Delete(key); err != nil {
		return err
	}
	*t.writes = append(*t.writes, cachedWrite{key: string(key), deleted: true})
	return nil
}
