package hasher

import (
	"errors"
	"fmt"
	"sort"
)

// ============================================
// 哈希端口
// ============================================

// ErrInvalidElement 元素无法被当前哈希器接受（格式错误或超出域）
var ErrInvalidElement = errors.New("invalid element")

// 已支持的哈希器名称
const (
	NameSHA256    = "sha256"
	NameKeccak256 = "keccak256"
	NameMiMC7     = "mimc7"
)

// Hasher 是树引擎使用的二输入压缩函数
// level 作为域分隔参数参与运算，相同输入在不同层得到不同输出
// 实现必须是纯函数：跨进程重启结果不变
type Hasher interface {
	// Name 返回哈希器名称（用于配置和日志）
	Name() string
	// Hash 计算 hash(level, left, right)
	Hash(level int, left, right string) (string, error)
}

var constructors = map[string]func() Hasher{
	NameSHA256:    func() Hasher { return NewSHA256() },
	NameKeccak256: func() Hasher { return NewKeccak256() },
	NameMiMC7:     func() Hasher { return NewMiMC7() },
}

// New 按名称创建哈希器
func New(name string) (Hasher, error) {
	ctor, ok := constructors[name]
	if !ok {
		return nil, fmt.Errorf("unknown hasher %q", name)
	}
	return ctor(), nil
}

// Supported 判断名称是否可用
func Supported(name string) bool {
	_, ok := constructors[name]
	return ok
}

// Names 返回全部可用名称（已排序）
func Names() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
