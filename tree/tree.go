package tree

import (
	"context"
	"fmt"
	"sync"
	"time"

	"sbmt/config"
	"sbmt/hasher"
	"sbmt/keys"
	"sbmt/logs"
	"sbmt/stats"
	"sbmt/storage"
)

// ============================================
// 定深存储型 Merkle 树
// ============================================

// MerkleTree 固定深度的 Merkle 树，所有节点都落在 KV 存储中
// 缺失的节点视为该层的默认子树哈希
type MerkleTree struct {
	prefix string
	depth  int
	store  storage.Store
	hasher hasher.Hasher
	codec  Codec

	// defaults[L] 为高度 L 的空子树哈希，defaults[0] 为叶子默认值
	defaults []string

	skipNoop bool
	stats    *stats.Stats

	// 同一棵树的写操作串行执行；读操作不加锁
	mu sync.Mutex
}

// Option 构造参数
type Option func(*MerkleTree)

// WithCodec 设置更新日志编码，默认 JSONCodec
func WithCodec(c Codec) Option {
	return func(t *MerkleTree) {
		if c != nil {
			t.codec = c
		}
	}
}

// WithSkipNoopUpdates 新值与旧值相同时不写节点也不记日志
func WithSkipNoopUpdates(skip bool) Option {
	return func(t *MerkleTree) { t.skipNoop = skip }
}

// WithStats 记录每个操作的调用次数与延迟
func WithStats(st *stats.Stats) Option {
	return func(t *MerkleTree) { t.stats = st }
}

// New 创建树；depth 取值 [1, config.MaxDepth]
func New(prefix string, store storage.Store, h hasher.Hasher, depth int, defaultValue string, opts ...Option) (*MerkleTree, error) {
	if prefix == "" {
		return nil, fmt.Errorf("%w: empty prefix", ErrInvalidConfig)
	}
	if depth < 1 || depth > config.MaxDepth {
		return nil, fmt.Errorf("%w: depth %d out of range [1, %d]", ErrInvalidConfig, depth, config.MaxDepth)
	}
	if store == nil || h == nil {
		return nil, fmt.Errorf("%w: store and hasher are required", ErrInvalidConfig)
	}

	t := &MerkleTree{
		prefix: prefix,
		depth:  depth,
		store:  store,
		hasher: h,
		codec:  JSONCodec{},
	}
	for _, opt := range opts {
		opt(t)
	}

	t.defaults = make([]string, depth+1)
	t.defaults[0] = defaultValue
	for level := 1; level <= depth; level++ {
		d := t.defaults[level-1]
		v, err := h.Hash(level-1, d, d)
		if err != nil {
			return nil, fmt.Errorf("default subtree at level %d: %w", level, err)
		}
		t.defaults[level] = v
	}
	return t, nil
}

// NewFromConfig 按配置创建树
func NewFromConfig(cfg config.TreeConfig, store storage.Store, opts ...Option) (*MerkleTree, error) {
	h, err := hasher.New(cfg.Hasher)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	codec, err := CodecByName(cfg.LogCodec)
	if err != nil {
		return nil, err
	}
	base := []Option{WithCodec(codec), WithSkipNoopUpdates(cfg.SkipNoopUpdates)}
	return New(cfg.Prefix, store, h, cfg.Depth, cfg.DefaultValue, append(base, opts...)...)
}

// ============================================
// 基本访问器
// ============================================

func (t *MerkleTree) Prefix() string        { return t.prefix }
func (t *MerkleTree) Depth() int            { return t.depth }
func (t *MerkleTree) Hasher() hasher.Hasher { return t.hasher }
func (t *MerkleTree) Codec() Codec          { return t.codec }

// Capacity 叶子数量 2^depth
func (t *MerkleTree) Capacity() int64 {
	return int64(1) << t.depth
}

// DefaultAt 返回高度 level 的空子树哈希
func (t *MerkleTree) DefaultAt(level int) string {
	return t.defaults[level]
}

// Root 返回当前根
func (t *MerkleTree) Root(ctx context.Context) (root string, err error) {
	defer t.observe("root", time.Now(), &err)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return t.getNode(t.store, t.depth, 0)
}

// Leaf 返回叶子当前值（未写入时为默认值）
func (t *MerkleTree) Leaf(ctx context.Context, index int64) (value string, err error) {
	defer t.observe("leaf", time.Now(), &err)
	if err := t.checkIndex(index); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return t.getNode(t.store, 0, uint64(index))
}

// ============================================
// 内部工具
// ============================================

func (t *MerkleTree) checkIndex(index int64) error {
	if index < 0 || index >= t.Capacity() {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrInvalidIndex, index, t.Capacity())
	}
	return nil
}

// getNode 读节点；缺失时返回该层默认值
func (t *MerkleTree) getNode(r storage.Reader, level int, index uint64) (string, error) {
	key := keys.KeyTreeNode(t.prefix, level, index)
	v, err := r.Get([]byte(key))
	if err != nil {
		if storage.IsNotFound(err) {
			return t.defaults[level], nil
		}
		return "", storageErr("get", key, err)
	}
	return string(v), nil
}

func (t *MerkleTree) putNode(tx storage.Txn, level int, index uint64, value string) error {
	key := keys.KeyTreeNode(t.prefix, level, index)
	if err := tx.Put([]byte(key), []byte(value)); err != nil {
		return storageErr("put", key, err)
	}
	return nil
}

// writePath 把叶子设为 value 并沿路径重算、写回 depth 个祖先，返回新根
// 兄弟节点只读不写
func (t *MerkleTree) writePath(tx storage.Txn, index uint64, value string) (string, error) {
	if err := t.putNode(tx, 0, index, value); err != nil {
		return "", err
	}
	cur := value
	for level := 0; level < t.depth; level++ {
		idx := index >> level
		sibling, err := t.getNode(tx, level, idx^1)
		if err != nil {
			return "", err
		}
		left, right := cur, sibling
		if idx&1 == 1 {
			left, right = sibling, cur
		}
		cur, err = t.hasher.Hash(level, left, right)
		if err != nil {
			return "", fmt.Errorf("hash level %d: %w", level, err)
		}
		if err := t.putNode(tx, level+1, idx>>1, cur); err != nil {
			return "", err
		}
	}
	return cur, nil
}

// commit 在一个存储事务里执行 fn；fn 出错或 ctx 已取消时什么都不提交
func (t *MerkleTree) commit(ctx context.Context, op string, fn func(tx storage.Txn) error) error {
	var fnErr error
	err := t.store.Update(func(tx storage.Txn) error {
		fnErr = fn(tx)
		if fnErr == nil {
			fnErr = ctx.Err()
		}
		return fnErr
	})
	if fnErr != nil {
		logs.Warn("[tree] prefix=%s %s aborted: %v", t.prefix, op, fnErr)
		return fnErr
	}
	if err != nil {
		logs.Warn("[tree] prefix=%s %s commit failed: %v", t.prefix, op, err)
		return storageErr("commit", op, err)
	}
	return nil
}

func (t *MerkleTree) observe(op string, start time.Time, errp *error) {
	if t.stats == nil {
		return
	}
	var err error
	if errp != nil {
		err = *errp
	}
	t.stats.Observe(op, start, err)
}

