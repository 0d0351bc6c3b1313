package tree

import (
	"fmt"

	"sbmt/hasher"
)

// ============================================
// 路径验证（纯函数，不访问存储）
// ============================================

// ComputeRoot 从叶子值和路径重算根
func ComputeRoot(h hasher.Hasher, leaf string, pathElements []string, pathIndex []int) (string, error) {
	if len(pathElements) != len(pathIndex) {
		return "", fmt.Errorf("path length mismatch: %d elements, %d indices", len(pathElements), len(pathIndex))
	}
	cur := leaf
	for level, sibling := range pathElements {
		left, right := cur, sibling
		switch pathIndex[level] {
		case 0:
		case 1:
			left, right = sibling, cur
		default:
			return "", fmt.Errorf("path index at level %d must be 0 or 1, got %d", level, pathIndex[level])
		}
		var err error
		cur, err = h.Hash(level, left, right)
		if err != nil {
			return "", fmt.Errorf("hash level %d: %w", level, err)
		}
	}
	return cur, nil
}

// VerifyPath 检查 leaf 位于 index 且路径能推出 p.Root
func VerifyPath(h hasher.Hasher, leaf string, index int64, p *PathResult) (bool, error) {
	if p == nil {
		return false, fmt.Errorf("nil path")
	}
	depth := len(p.PathIndex)
	if index < 0 || (depth < 63 && index >= int64(1)<<depth) {
		return false, fmt.Errorf("%w: %d", ErrInvalidIndex, index)
	}
	for level, bit := range p.PathIndex {
		if int((index>>level)&1) != bit {
			return false, nil
		}
	}
	root, err := ComputeRoot(h, leaf, p.PathElements, p.PathIndex)
	if err != nil {
		return false, err
	}
	return root == p.Root, nil
}
