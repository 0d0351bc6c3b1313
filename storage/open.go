package storage

import (
	"fmt"
	"os"

	"sbmt/config"
	"sbmt/logs"
)

// Open 按配置打开存储后端；CacheSize > 0 时外面包一层 LRU 读缓存
func Open(cfg config.StorageConfig) (Store, error) {
	var (
		store Store
		err   error
	)
	switch cfg.Backend {
	case config.BackendMemory, "":
		store = NewMemoryStore()
	case config.BackendBadger:
		if err = os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		store, err = OpenBadgerStore(cfg.DataDir, BadgerOptions{
			SyncWrites:       cfg.SyncWrites,
			ValueLogFileSize: cfg.ValueLogFileSize,
		})
	case config.BackendPebble:
		if err = os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		store, err = OpenPebbleStore(cfg.DataDir, PebbleOptions{
			SyncWrites:   cfg.SyncWrites,
			MaxOpenFiles: cfg.MaxOpenFiles,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Backend, err)
	}
	logs.Debug("[storage] opened backend=%s dir=%s cache=%d", cfg.Backend, cfg.DataDir, cfg.CacheSize)

	if cfg.CacheSize > 0 {
		cached, err := NewCachedStore(store, cfg.CacheSize)
		if err != nil {
			store.Close()
			return nil, err
		}
		return cached, nil
	}
	return store, nil
}
