package stats

import (
	"sync"
	"time"
)

// Stats 树操作的调用计数、失败计数与延迟
type Stats struct {
	mu     sync.RWMutex
	calls  map[string]uint64
	errors map[string]uint64

	latency *LatencyRecorder
}

func NewStats() *Stats {
	return &Stats{
		calls:   make(map[string]uint64),
		errors:  make(map[string]uint64),
		latency: NewLatencyRecorder(0),
	}
}

// Observe 记录一次操作：耗时从 start 算起，err 非 nil 时计为失败
// 用法：defer func() { st.Observe("update", start, err) }()
func (s *Stats) Observe(op string, start time.Time, err error) {
	if s == nil {
		return
	}
	s.latency.Record(op, time.Since(start))

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[op]++
	if err != nil {
		s.errors[op]++
	}
}

// Calls 返回调用计数副本；nil 接收者返回 nil
func (s *Stats) Calls() map[string]uint64 {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyCounts(s.calls)
}

// Errors 返回失败计数副本
func (s *Stats) Errors() map[string]uint64 {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyCounts(s.errors)
}

// Latency 返回延迟分位统计
func (s *Stats) Latency(reset bool) map[string]LatencySummary {
	if s == nil {
		return nil
	}
	return s.latency.Snapshot(reset)
}

func copyCounts(m map[string]uint64) map[string]uint64 {
	out := make(map[string]uint64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
