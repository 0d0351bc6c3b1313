package storage

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sbmt/config"
)

// 每个后端都跑同一组用例
func backends(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()

	bs, err := OpenBadgerStore(filepath.Join(dir, "badger"), BadgerOptions{})
	require.NoError(t, err)
	ps, err := OpenPebbleStore(filepath.Join(dir, "pebble"), PebbleOptions{})
	require.NoError(t, err)
	cs, err := NewCachedStore(NewMemoryStore(), 16)
	require.NoError(t, err)

	stores := map[string]Store{
		"memory": NewMemoryStore(),
		"badger": bs,
		"pebble": ps,
		"cached": cs,
	}
	t.Cleanup(func() {
		for _, s := range stores {
			s.Close()
		}
	})
	return stores
}

func TestStore_GetPutDelete(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Get([]byte("a"))
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Put([]byte("a"), []byte("1")))
			v, err := s.Get([]byte("a"))
			require.NoError(t, err)
			assert.Equal(t, []byte("1"), v)

			require.NoError(t, s.Put([]byte("a"), []byte("2")))
			v, err = s.Get([]byte("a"))
			require.NoError(t, err)
			assert.Equal(t, []byte("2"), v)

			require.NoError(t, s.Delete([]byte("a")))
			_, err = s.Get([]byte("a"))
			assert.True(t, IsNotFound(err))
		})
	}
}

func TestStore_UpdateCommit(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Put([]byte("gone"), []byte("x")))

			err := s.Update(func(tx Txn) error {
				if err := tx.Put([]byte("k1"), []byte("v1")); err != nil {
					return err
				}
				// 事务内可见自己的写入
				v, err := tx.Get([]byte("k1"))
				if err != nil {
					return err
				}
				assert.Equal(t, []byte("v1"), v)

				if err := tx.Delete([]byte("gone")); err != nil {
					return err
				}
				_, err = tx.Get([]byte("gone"))
				assert.ErrorIs(t, err, ErrNotFound)
				return tx.Put([]byte("k2"), []byte("v2"))
			})
			require.NoError(t, err)

			v, err := s.Get([]byte("k2"))
			require.NoError(t, err)
			assert.Equal(t, []byte("v2"), v)
			_, err = s.Get([]byte("gone"))
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStore_UpdateAbort(t *testing.T) {
	boom := errors.New("boom")
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Put([]byte("keep"), []byte("old")))

			err := s.Update(func(tx Txn) error {
				if err := tx.Put([]byte("keep"), []byte("new")); err != nil {
					return err
				}
				if err := tx.Put([]byte("fresh"), []byte("v")); err != nil {
					return err
				}
				return boom
			})
			assert.ErrorIs(t, err, boom)

			v, err := s.Get([]byte("keep"))
			require.NoError(t, err)
			assert.Equal(t, []byte("old"), v)
			_, err = s.Get([]byte("fresh"))
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestCachedStore_Coherence(t *testing.T) {
	inner := NewMemoryStore()
	s, err := NewCachedStore(inner, 8)
	require.NoError(t, err)

	require.NoError(t, s.Put([]byte("k"), []byte("1")))
	_, err = s.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len())

	// 失败的事务不能污染缓存
	_ = s.Update(func(tx Txn) error {
		_ = tx.Put([]byte("k"), []byte("2"))
		return errors.New("abort")
	})
	v, err := s.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), v)

	require.NoError(t, s.Update(func(tx Txn) error {
		return tx.Put([]byte("k"), []byte("3"))
	}))
	v, err = s.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("3"), v)

	require.NoError(t, s.Update(func(tx Txn) error {
		return tx.Delete([]byte("k"))
	}))
	_, err = s.Get([]byte("k"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBadgerStore_Reopen(t *testing.T) {
	dir := t.TempDir()
	s, err := OpenBadgerStore(dir, BadgerOptions{SyncWrites: true})
	require.NoError(t, err)
	require.NoError(t, s.Put([]byte("persist"), []byte("yes")))
	require.NoError(t, s.Close())

	s, err = OpenBadgerStore(dir, BadgerOptions{})
	require.NoError(t, err)
	defer s.Close()
	v, err := s.Get([]byte("persist"))
	require.NoError(t, err)
	assert.Equal(t, []byte("yes"), v)
}

func TestOpen(t *testing.T) {
	cfg := config.DefaultConfig().Storage
	s, err := Open(cfg)
	require.NoError(t, err)
	_, ok := s.(*CachedStore)
	assert.True(t, ok)
	require.NoError(t, s.Close())

	cfg.CacheSize = 0
	cfg.Backend = config.BackendPebble
	cfg.DataDir = filepath.Join(t.TempDir(), "nested", "pebble")
	s, err = Open(cfg)
	require.NoError(t, err)
	_, ok = s.(*PebbleStore)
	assert.True(t, ok)
	require.NoError(t, s.Close())

	cfg.Backend = "leveldb"
	_, err = Open(cfg)
	assert.Error(t, err)
}

// slowReadStore 读到值之后停在 gate 上，模拟底层读与并发提交交错
type slowReadStore struct {
	*MemoryStore
	read chan struct{}
	gate chan struct{}
}

func (s *slowReadStore) Get(key []byte) ([]byte, error) {
	v, err := s.MemoryStore.Get(key)
	if s.read != nil {
		close(s.read)
		s.read = nil
		<-s.gate
	}
	return v, err
}

func TestCachedStore_MissRacingUpdate(t *testing.T) {
	inner := &slowReadStore{MemoryStore: NewMemoryStore()}
	require.NoError(t, inner.Put([]byte("k"), []byte("old")))
	s, err := NewCachedStore(inner, 8)
	require.NoError(t, err)

	inner.read = make(chan struct{})
	inner.gate = make(chan struct{})
	read := inner.read

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		v, err := s.Get([]byte("k"))
		assert.NoError(t, err)
		assert.Equal(t, []byte("old"), v)
	}()
	<-read

	// 未命中回填尚未完成时发起提交
	go func() {
		defer wg.Done()
		assert.NoError(t, s.Update(func(tx Txn) error {
			return tx.Put([]byte("k"), []byte("new"))
		}))
	}()
	time.Sleep(20 * time.Millisecond)
	close(inner.gate)
	wg.Wait()

	v, err := s.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), v)
	v, err = inner.MemoryStore.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), v)
}
