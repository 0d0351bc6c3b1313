package hasher

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"hash"
	"sync"

	"golang.org/x/crypto/sha3"
)

// ============================================
// 基于摘要算法的哈希器 (SHA-256 / Keccak-256)
// ============================================

// DigestHasher 把 level 与左右元素按固定格式编码后求摘要
// 编码: [level 8 bytes BE][len(left) 8 bytes BE][left][len(right) 8 bytes BE][right]
// 长度前缀保证 ("ab","c") 与 ("a","bc") 不会得到同一输入
type DigestHasher struct {
	name       string
	hasherPool *sync.Pool
}

func newDigestHasher(name string, newHash func() hash.Hash) *DigestHasher {
	return &DigestHasher{
		name: name,
		hasherPool: &sync.Pool{
			New: func() interface{} { return newHash() },
		},
	}
}

// NewSHA256 创建 SHA-256 哈希器，输出小写 hex
func NewSHA256() *DigestHasher {
	return newDigestHasher(NameSHA256, sha256.New)
}

// NewKeccak256 创建 Keccak-256（以太坊版本）哈希器，输出小写 hex
func NewKeccak256() *DigestHasher {
	return newDigestHasher(NameKeccak256, sha3.NewLegacyKeccak256)
}

// Name 返回哈希器名称
func (d *DigestHasher) Name() string {
	return d.name
}

// Hash 计算 digest(level || left || right)
func (d *DigestHasher) Hash(level int, left, right string) (string, error) {
	if level < 0 {
		return "", fmt.Errorf("%w: negative level %d", ErrInvalidElement, level)
	}
	h := d.hasherPool.Get().(hash.Hash)
	defer d.hasherPool.Put(h)
	h.Reset()

	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(level))
	h.Write(buf[:])
	binary.BigEndian.PutUint64(buf[:], uint64(len(left)))
	h.Write(buf[:])
	h.Write([]byte(left))
	binary.BigEndian.PutUint64(buf[:], uint64(len(right)))
	h.Write(buf[:])
	h.Write([]byte(right))

	return hex.EncodeToString(h.Sum(nil)), nil
}
