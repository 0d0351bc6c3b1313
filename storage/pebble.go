package storage

import (
	"errors"
	"io"

	"github.com/cockroachdb/pebble"
)

// ============================================
// Pebble 存储适配器
// ============================================

type pebbleReadable interface {
	Get(key []byte) ([]byte, io.Closer, error)
}

// PebbleStore 使用 Pebble 作为后端，事务基于 IndexedBatch
type PebbleStore struct {
	db        *pebble.DB
	writeOpts *pebble.WriteOptions
}

// PebbleOptions 打开 Pebble 的参数
type PebbleOptions struct {
	SyncWrites   bool
	MaxOpenFiles int
}

// OpenPebbleStore 在 dir 下打开（或创建）Pebble
func OpenPebbleStore(dir string, o PebbleOptions) (*PebbleStore, error) {
	maxOpen := o.MaxOpenFiles
	if maxOpen <= 0 {
		maxOpen = 500
	}
	db, err := pebble.Open(dir, &pebble.Options{
		MaxOpenFiles: maxOpen,
	})
	if err != nil {
		return nil, err
	}
	wo := pebble.NoSync
	if o.SyncWrites {
		wo = pebble.Sync
	}
	return &PebbleStore{db: db, writeOpts: wo}, nil
}

func pebbleGet(src pebbleReadable, key []byte) ([]byte, error) {
	v, closer, err := src.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	defer closer.Close()
	return append([]byte(nil), v...), nil
}

func (s *PebbleStore) Get(key []byte) ([]byte, error) {
	return pebbleGet(s.db, key)
}

func (s *PebbleStore) Put(key, value []byte) error {
	return s.db.Set(key, value, s.writeOpts)
}

func (s *PebbleStore) Delete(key []byte) error {
	return s.db.Delete(key, s.writeOpts)
}

// Update 在 IndexedBatch 中执行 fn，成功后提交
// IndexedBatch 支持读到本批次内的写入
func (s *PebbleStore) Update(fn func(tx Txn) error) error {
	batch := s.db.NewIndexedBatch()
	defer batch.Close()

	if err := fn(&pebbleTxn{batch: batch}); err != nil {
		return err
	}
	return batch.Commit(s.writeOpts)
}

func (s *PebbleStore) Close() error {
	return s.db.Close()
}

type pebbleTxn struct {
	batch *pebble.Batch
}

func (t *pebbleTxn) Get(key []byte) ([]byte, error) {
	return pebbleGet(t.batch, key)
}

func (t *pebbleTxn) Put(key, value []byte) error {
	return t.batch.Set(key, value, nil)
}

func (t *pebbleTxn) Delete(key []byte) error {
	return t.batch.Delete(key, nil)
}
