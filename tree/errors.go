package tree

import (
	"errors"
	"fmt"

	"sbmt/config"
	"sbmt/hasher"
)

var (
	// ErrInvalidIndex 叶子下标不在 [0, 2^depth) 内
	ErrInvalidIndex = errors.New("invalid index")
	// ErrStorage 存储后端读写失败，引擎不做重试
	ErrStorage = errors.New("storage error")
	// ErrInsufficientHistory 回滚步数超过已生效的日志条数
	ErrInsufficientHistory = errors.New("insufficient history")
	// ErrRootNotFound 历史中找不到目标根
	ErrRootNotFound = errors.New("root not found")
	// ErrInvalidCount 回滚步数小于 1
	ErrInvalidCount = errors.New("invalid rollback count")
	// ErrCorruptLog 日志指针或日志条目无法解码
	ErrCorruptLog = errors.New("corrupt update log")

	ErrInvalidElement = hasher.ErrInvalidElement
	ErrInvalidConfig  = config.ErrInvalidConfig
)

func storageErr(op, key string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", ErrStorage, op, key, err)
}
