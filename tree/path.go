package tree

import (
	"context"
	"fmt"
	"time"
)

// PathResult 某个叶子到根的路径
// PathElements[L] 为第 L 层的兄弟节点，PathIndex[L] 为下标第 L 位（0 表示当前节点在左）
type PathResult struct {
	Root         string   `json:"root"`
	PathElements []string `json:"path_elements"`
	PathIndex    []int    `json:"path_index"`
	Element      string   `json:"element"`
}

// Path 读取叶子及其各层兄弟，并重算根；只读
func (t *MerkleTree) Path(ctx context.Context, index int64) (res *PathResult, err error) {
	defer t.observe("path", time.Now(), &err)
	if err := t.checkIndex(index); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	idx := uint64(index)
	leaf, err := t.getNode(t.store, 0, idx)
	if err != nil {
		return nil, err
	}

	res = &PathResult{
		PathElements: make([]string, t.depth),
		PathIndex:    make([]int, t.depth),
		Element:      leaf,
	}
	cur := leaf
	for level := 0; level < t.depth; level++ {
		i := idx >> level
		sibling, err := t.getNode(t.store, level, i^1)
		if err != nil {
			return nil, err
		}
		bit := int(i & 1)
		res.PathElements[level] = sibling
		res.PathIndex[level] = bit

		left, right := cur, sibling
		if bit == 1 {
			left, right = sibling, cur
		}
		cur, err = t.hasher.Hash(level, left, right)
		if err != nil {
			return nil, fmt.Errorf("hash level %d: %w", level, err)
		}
	}
	res.Root = cur
	return res, nil
}
