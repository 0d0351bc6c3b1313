// config/config.go
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"sbmt/hasher"
)

// 存储后端名称
const (
	BackendMemory = "memory"
	BackendBadger = "badger"
	BackendPebble = "pebble"
)

// 更新日志编码名称
const (
	CodecJSON  = "json"
	CodecProto = "proto"
)

// MaxDepth 树深度上限；叶子下标用 uint64 表示，并需要为位运算保留余量
const MaxDepth = 62

// ErrInvalidConfig 配置不合法
var ErrInvalidConfig = errors.New("invalid config")

// Config 主配置结构
type Config struct {
	Tree    TreeConfig    `json:"tree"`
	Storage StorageConfig `json:"storage"`
	Log     LogConfig     `json:"log"`
}

// TreeConfig 树引擎配置
type TreeConfig struct {
	Prefix       string `json:"prefix"`       // "tree"
	Depth        int    `json:"depth"`        // 20
	DefaultValue string `json:"defaultValue"` // "0"
	Hasher       string `json:"hasher"`       // "mimc7"
	LogCodec     string `json:"logCodec"`     // "json"

	// 新值与旧值相同时是否跳过写入和记日志（默认 false，与旧数据行为一致）
	SkipNoopUpdates bool `json:"skipNoopUpdates"`
}

// StorageConfig 存储后端配置
type StorageConfig struct {
	Backend string `json:"backend"` // memory|badger|pebble
	DataDir string `json:"dataDir"` // badger/pebble 数据目录

	// 读缓存（LRU 条目数），0 表示关闭
	CacheSize int `json:"cacheSize"` // 10000

	SyncWrites bool `json:"syncWrites"` // false

	// BadgerDB配置
	ValueLogFileSize int64 `json:"valueLogFileSize"` // 64 << 20 (64MB)

	// Pebble配置
	MaxOpenFiles int `json:"maxOpenFiles"` // 500
}

// LogConfig 日志配置
type LogConfig struct {
	Level string `json:"level"` // "info"
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Tree: TreeConfig{
			Prefix:          "tree",
			Depth:           20,
			DefaultValue:    "0",
			Hasher:          hasher.NameMiMC7,
			LogCodec:        CodecJSON,
			SkipNoopUpdates: false,
		},
		Storage: StorageConfig{
			Backend:          BackendMemory,
			DataDir:          "./data",
			CacheSize:        10000,
			SyncWrites:       false,
			ValueLogFileSize: 64 << 20,
			MaxOpenFiles:     500,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadFromFile 从 JSON 文件加载配置
// 文件中未出现的字段保持默认值；path 为空或文件不存在时返回默认配置
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// Validate 验证配置合法性
func (c *Config) Validate() error {
	if c.Tree.Prefix == "" {
		return fmt.Errorf("%w: tree prefix must not be empty", ErrInvalidConfig)
	}
	if c.Tree.Depth < 1 || c.Tree.Depth > MaxDepth {
		return fmt.Errorf("%w: tree depth %d out of range [1, %d]", ErrInvalidConfig, c.Tree.Depth, MaxDepth)
	}
	if !hasher.Supported(c.Tree.Hasher) {
		return fmt.Errorf("%w: unknown hasher %q (have %v)", ErrInvalidConfig, c.Tree.Hasher, hasher.Names())
	}
	switch c.Tree.LogCodec {
	case CodecJSON, CodecProto:
	default:
		return fmt.Errorf("%w: unknown log codec %q", ErrInvalidConfig, c.Tree.LogCodec)
	}
	switch c.Storage.Backend {
	case BackendMemory:
	case BackendBadger, BackendPebble:
		if c.Storage.DataDir == "" {
			return fmt.Errorf("%w: %s backend requires dataDir", ErrInvalidConfig, c.Storage.Backend)
		}
	default:
		return fmt.Errorf("%w: unknown storage backend %q", ErrInvalidConfig, c.Storage.Backend)
	}
	if c.Storage.CacheSize < 0 {
		return fmt.Errorf("%w: cacheSize must not be negative", ErrInvalidConfig)
	}
	return nil
}
