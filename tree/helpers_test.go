package tree

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"sbmt/hasher"
	"sbmt/storage"
)

// stringHasher 把哈希展开成可读字符串，便于断言树的结构
type stringHasher struct{}

func (stringHasher) Name() string { return "string" }

func (stringHasher) Hash(level int, left, right string) (string, error) {
	return fmt.Sprintf("H%d(%s,%s)", level, left, right), nil
}

func newStringTree(t *testing.T, depth int, opts ...Option) (*MerkleTree, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore()
	tr, err := New("test", store, stringHasher{}, depth, "4", opts...)
	require.NoError(t, err)
	return tr, store
}

// referenceRoot 按定义从全部叶子逐层计算根
func referenceRoot(t *testing.T, h hasher.Hasher, depth int, def string, leaves map[int64]string) string {
	t.Helper()
	level := make([]string, 1<<depth)
	for i := range level {
		if v, ok := leaves[int64(i)]; ok {
			level[i] = v
		} else {
			level[i] = def
		}
	}
	for l := 0; l < depth; l++ {
		next := make([]string, len(level)/2)
		for i := range next {
			v, err := h.Hash(l, level[2*i], level[2*i+1])
			require.NoError(t, err)
			next[i] = v
		}
		level = next
	}
	return level[0]
}

var errDisk = errors.New("disk on fire")

// faultyStore 在事务中第 putsBeforeFail 次 Put 之后开始报错；getFail 时所有读失败
type faultyStore struct {
	*storage.MemoryStore
	putsBeforeFail int
	getFail        bool
}

func (s *faultyStore) Get(key []byte) ([]byte, error) {
	if s.getFail {
		return nil, errDisk
	}
	return s.MemoryStore.Get(key)
}

func (s *faultyStore) Update(fn func(tx storage.Txn) error) error {
	return s.MemoryStore.Update(func(tx storage.Txn) error {
		return fn(&faultyTxn{Txn: tx, left: s.putsBeforeFail})
	})
}

type faultyTxn struct {
	storage.Txn
	left int
}

func (t *faultyTxn) Put(key, value []byte) error {
	if t.left <= 0 {
		return errDisk
	}
	t.left--
	return t.Txn.Put(key, value)
}
