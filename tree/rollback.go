package tree

import (
	"context"
	"fmt"
	"time"

	"sbmt/logs"
	"sbmt/storage"
)

// ============================================
// 回滚
// ============================================

// undoLast 撤销指针处的日志条目：把叶子恢复为 OldElement，重写路径
// 返回新根与新指针；指针本身由调用方写回
func (t *MerkleTree) undoLast(tx storage.Txn, p int64) (string, int64, error) {
	e, err := t.readEntry(tx, p)
	if err != nil {
		return "", p, err
	}
	root, err := t.writePath(tx, uint64(e.Index), e.OldElement)
	if err != nil {
		return "", p, err
	}
	logs.Debug("[tree] prefix=%s undo seq=%d index=%d %s -> %s", t.prefix, p, e.Index, e.NewElement, e.OldElement)
	return root, p - 1, nil
}

// Rollback 撤销最近 count 次更新，返回新根
// count 超过已生效条数时返回 ErrInsufficientHistory，不做任何修改
func (t *MerkleTree) Rollback(ctx context.Context, count int) (root string, err error) {
	defer t.observe("rollback", time.Now(), &err)
	if count < 1 {
		return "", fmt.Errorf("%w: %d", ErrInvalidCount, count)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	err = t.commit(ctx, "rollback", func(tx storage.Txn) error {
		p, err := t.readPointer(tx)
		if err != nil {
			return err
		}
		if int64(count) > p+1 {
			return fmt.Errorf("%w: want %d, have %d", ErrInsufficientHistory, count, p+1)
		}
		for i := 0; i < count; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			root, p, err = t.undoLast(tx, p)
			if err != nil {
				return err
			}
		}
		return t.writePointer(tx, p)
	})
	if err != nil {
		return "", err
	}
	return root, nil
}

// RollbackToRoot 逐条回退直到当前根等于 target，返回回退的条数
// 先检查当前状态，最后检查创世状态；第一个匹配即停止
// 找不到时返回 ErrRootNotFound，整个扫描不提交
func (t *MerkleTree) RollbackToRoot(ctx context.Context, target string) (steps int, err error) {
	defer t.observe("rollback_to_root", time.Now(), &err)

	t.mu.Lock()
	defer t.mu.Unlock()

	err = t.commit(ctx, "rollback_to_root", func(tx storage.Txn) error {
		root, err := t.getNode(tx, t.depth, 0)
		if err != nil {
			return err
		}
		p, err := t.readPointer(tx)
		if err != nil {
			return err
		}
		start := p
		for root != target {
			if p < 0 {
				return fmt.Errorf("%w: %s (scanned %d entries)", ErrRootNotFound, target, start+1)
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			root, p, err = t.undoLast(tx, p)
			if err != nil {
				return err
			}
			steps++
		}
		if steps == 0 {
			return nil
		}
		return t.writePointer(tx, p)
	})
	if err != nil {
		return 0, err
	}
	logs.Info("[tree] prefix=%s rolled back %d entries to root %s", t.prefix, steps, target)
	return steps, nil
}
