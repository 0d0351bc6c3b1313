package tree

import (
	"context"
	"time"

	"sbmt/logs"
	"sbmt/storage"
)

// Update 把叶子 index 设为 value，返回新根
// 叶子、depth 个祖先、日志条目与指针在同一个事务中提交
func (t *MerkleTree) Update(ctx context.Context, index int64, value string) (root string, err error) {
	defer t.observe("update", time.Now(), &err)
	if err := t.checkIndex(index); err != nil {
		return "", err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	idx := uint64(index)
	var seq int64
	skipped := false
	err = t.commit(ctx, "update", func(tx storage.Txn) error {
		old, err := t.getNode(tx, 0, idx)
		if err != nil {
			return err
		}
		if t.skipNoop && old == value {
			skipped = true
			root, err = t.getNode(tx, t.depth, 0)
			return err
		}

		p, err := t.readPointer(tx)
		if err != nil {
			return err
		}
		root, err = t.writePath(tx, idx, value)
		if err != nil {
			return err
		}
		seq = p + 1
		if err := t.writeEntry(tx, seq, Entry{Index: index, OldElement: old, NewElement: value}); err != nil {
			return err
		}
		return t.writePointer(tx, seq)
	})
	if err != nil {
		return "", err
	}
	if skipped {
		logs.Trace("[tree] prefix=%s update index=%d unchanged, skipped", t.prefix, index)
		return root, nil
	}
	logs.Debug("[tree] prefix=%s update index=%d seq=%d root=%s", t.prefix, index, seq, root)
	return root, nil
}
