package storage

import (
	"errors"

	"github.com/dgraph-io/badger/v4"
)

// ============================================
// BadgerDB 存储适配器
// ============================================

// BadgerStore 使用 BadgerDB 作为后端
type BadgerStore struct {
	db     *badger.DB
	ownsDB bool
}

// BadgerOptions 打开 BadgerDB 的参数
type BadgerOptions struct {
	SyncWrites       bool
	ValueLogFileSize int64
}

// OpenBadgerStore 在 dir 下打开（或创建）BadgerDB
func OpenBadgerStore(dir string, o BadgerOptions) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // 关闭 badger 自带日志
	opts.SyncWrites = o.SyncWrites
	if o.ValueLogFileSize > 0 {
		opts.ValueLogFileSize = o.ValueLogFileSize
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &BadgerStore{db: db, ownsDB: true}, nil
}

// NewBadgerStore 包装已打开的 DB；Close 不会关闭该 DB
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

func (s *BadgerStore) Get(key []byte) ([]byte, error) {
	var result []byte
	err := s.db.View(func(txn *badger.Txn) error {
		v, err := badgerGet(txn, key)
		result = v
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *BadgerStore) Put(key, value []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(copyBytes(key), copyBytes(value))
	})
}

func (s *BadgerStore) Delete(key []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(copyBytes(key))
	})
}

// Update 在一个 badger 读写事务中执行 fn
func (s *BadgerStore) Update(fn func(tx Txn) error) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return fn(&badgerTxn{txn: txn})
	})
}

func (s *BadgerStore) Close() error {
	if !s.ownsDB {
		return nil
	}
	return s.db.Close()
}

func badgerGet(txn *badger.Txn, key []byte) ([]byte, error) {
	item, err := txn.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return item.ValueCopy(nil)
}

type badgerTxn struct {
	txn *badger.Txn
}

func (t *badgerTxn) Get(key []byte) ([]byte, error) {
	return badgerGet(t.txn, key)
}

// badger 在提交前持有传入的切片，这里必须复制
func (t *badgerTxn) Put(key, value []byte) error {
	return t.txn.Set(copyBytes(key), copyBytes(value))
}

func (t *badgerTxn) Delete(key []byte) error {
	return t.txn.Delete(copyBytes(key))
}
