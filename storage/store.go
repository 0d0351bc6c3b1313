package storage

import "errors"

// ErrNotFound 当 Key 不存在时返回
var ErrNotFound = errors.New("key not found")

// ErrClosed 存储已关闭
var ErrClosed = errors.New("store closed")

// ============================================
// KV 存储接口
// ============================================

// Reader 只读访问
type Reader interface {
	// Get 返回 key 对应的值；不存在时返回 ErrNotFound
	// 返回的切片归调用方所有
	Get(key []byte) ([]byte, error)
}

// Txn 是一次原子事务内的读写视图
// 事务内的 Get 能看到本事务之前的 Put/Delete
type Txn interface {
	Reader
	Put(key, value []byte) error
	Delete(key []byte) error
}

// Store 是树引擎使用的 KV 存储
type Store interface {
	Reader

	// Put / Delete 单键写入，各自原子
	Put(key, value []byte) error
	Delete(key []byte) error

	// Update 在单个事务中执行 fn
	// fn 返回 nil 时全部写入原子提交；返回错误时全部丢弃并把错误原样返回
	Update(fn func(tx Txn) error) error

	Close() error
}

// IsNotFound 判断错误是否表示 key 不存在
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func copyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
