package tree

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"sbmt/keys"
	"sbmt/storage"
)

// ============================================
// 更新日志
// ============================================
//
// 日志条目按序号 0,1,2... 追加，指针记录最近一次生效的条目序号。
// 回滚只移动指针，不删除条目；之后的 Update 会覆盖指针之后的旧条目。
// 指针 Key 不存在表示 -1（创世状态）。

// errEntryMissing 日志条目 Key 不存在；在指针范围内出现即为日志损坏
var errEntryMissing = fmt.Errorf("%w: entry missing", ErrCorruptLog)

// readPointer 读取日志指针，不存在返回 -1
func (t *MerkleTree) readPointer(r storage.Reader) (int64, error) {
	key := keys.KeyUpdateLog(t.prefix)
	v, err := r.Get([]byte(key))
	if err != nil {
		if storage.IsNotFound(err) {
			return -1, nil
		}
		return 0, storageErr("get", key, err)
	}
	// 兼容 JSON 形式写入的 "\"4\""
	s := strings.Trim(strings.TrimSpace(string(v)), `"`)
	p, err := strconv.ParseInt(s, 10, 64)
	if err != nil || p < -1 {
		return 0, fmt.Errorf("%w: bad pointer %q", ErrCorruptLog, v)
	}
	return p, nil
}

// writePointer 写日志指针；-1 时删除指针 Key
func (t *MerkleTree) writePointer(tx storage.Txn, p int64) error {
	key := keys.KeyUpdateLog(t.prefix)
	if p < 0 {
		if err := tx.Delete([]byte(key)); err != nil {
			return storageErr("delete", key, err)
		}
		return nil
	}
	if err := tx.Put([]byte(key), []byte(strconv.FormatInt(p, 10))); err != nil {
		return storageErr("put", key, err)
	}
	return nil
}

func (t *MerkleTree) readEntry(r storage.Reader, seq int64) (Entry, error) {
	key := keys.KeyUpdateLogElement(t.prefix, seq)
	v, err := r.Get([]byte(key))
	if err != nil {
		if storage.IsNotFound(err) {
			return Entry{}, fmt.Errorf("%w %d", errEntryMissing, seq)
		}
		return Entry{}, storageErr("get", key, err)
	}
	e, err := t.codec.Decode(v)
	if err != nil {
		return Entry{}, fmt.Errorf("entry %d: %w", seq, err)
	}
	if t.checkIndex(e.Index) != nil {
		return Entry{}, fmt.Errorf("%w: entry %d has index %d outside tree", ErrCorruptLog, seq, e.Index)
	}
	return e, nil
}

func (t *MerkleTree) writeEntry(tx storage.Txn, seq int64, e Entry) error {
	data, err := t.codec.Encode(e)
	if err != nil {
		return err
	}
	key := keys.KeyUpdateLogElement(t.prefix, seq)
	if err := tx.Put([]byte(key), data); err != nil {
		return storageErr("put", key, err)
	}
	return nil
}

// LogPointer 返回当前日志指针，-1 表示没有生效的更新
func (t *MerkleTree) LogPointer(ctx context.Context) (p int64, err error) {
	defer t.observe("log_pointer", time.Now(), &err)
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return t.readPointer(t.store)
}

// LogEntry 读取序号为 seq 的日志条目（包括指针之后已被回滚的条目）
func (t *MerkleTree) LogEntry(ctx context.Context, seq int64) (e Entry, err error) {
	defer t.observe("log_entry", time.Now(), &err)
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}
	if seq < 0 {
		return Entry{}, fmt.Errorf("%w: no entry %d", ErrInsufficientHistory, seq)
	}
	e, err = t.readEntry(t.store, seq)
	if errors.Is(err, errEntryMissing) {
		return Entry{}, fmt.Errorf("%w: no entry %d", ErrInsufficientHistory, seq)
	}
	return e, err
}

// History 返回当前生效的全部日志条目 [0..pointer]，按序号升序
func (t *MerkleTree) History(ctx context.Context) (entries []Entry, err error) {
	defer t.observe("history", time.Now(), &err)
	p, err := t.readPointer(t.store)
	if err != nil {
		return nil, err
	}
	entries = make([]Entry, 0, p+1)
	for seq := int64(0); seq <= p; seq++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		e, err := t.readEntry(t.store, seq)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}
