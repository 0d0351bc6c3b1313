package stats

import (
	"sort"
	"sync"
	"time"
)

// LatencySummary 单个操作的延迟分位统计
type LatencySummary struct {
	Count uint64        `json:"count"`
	P50   time.Duration `json:"p50"`
	P95   time.Duration `json:"p95"`
	P99   time.Duration `json:"p99"`
	Max   time.Duration `json:"max"`
}

// ring 固定容量的纳秒样本环形缓冲区
type ring struct {
	samples []int64
	next    int
	full    bool
	count   uint64
	maxNs   int64
}

func (r *ring) add(ns int64) {
	r.samples[r.next] = ns
	r.next++
	if r.next == len(r.samples) {
		r.next = 0
		r.full = true
	}
	r.count++
	if ns > r.maxNs {
		r.maxNs = ns
	}
}

func (r *ring) sorted() []int64 {
	n := r.next
	if r.full {
		n = len(r.samples)
	}
	out := make([]int64, n)
	copy(out, r.samples[:n])
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (r *ring) reset() {
	r.next = 0
	r.full = false
	r.count = 0
	r.maxNs = 0
}

// LatencyRecorder 按操作名记录延迟，每个操作保留最近 capacity 个样本
type LatencyRecorder struct {
	mu       sync.Mutex
	capacity int
	rings    map[string]*ring
}

func NewLatencyRecorder(capacity int) *LatencyRecorder {
	if capacity <= 0 {
		capacity = 2048
	}
	return &LatencyRecorder{
		capacity: capacity,
		rings:    make(map[string]*ring),
	}
}

// Record 记录一次耗时；nil 接收者安全
func (r *LatencyRecorder) Record(op string, d time.Duration) {
	if r == nil || op == "" {
		return
	}
	ns := d.Nanoseconds()
	if ns < 0 {
		ns = 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rg, ok := r.rings[op]
	if !ok {
		rg = &ring{samples: make([]int64, r.capacity)}
		r.rings[op] = rg
	}
	rg.add(ns)
}

// Snapshot 返回各操作的分位统计；reset=true 时清空样本（用于区间监控）
func (r *LatencyRecorder) Snapshot(reset bool) map[string]LatencySummary {
	if r == nil {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	result := make(map[string]LatencySummary, len(r.rings))
	for op, rg := range r.rings {
		values := rg.sorted()
		if len(values) > 0 {
			result[op] = LatencySummary{
				Count: rg.count,
				P50:   time.Duration(percentile(values, 0.50)),
				P95:   time.Duration(percentile(values, 0.95)),
				P99:   time.Duration(percentile(values, 0.99)),
				Max:   time.Duration(rg.maxNs),
			}
		}
		if reset {
			rg.reset()
		}
	}
	return result
}

func percentile(sorted []int64, p float64) int64 {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[len(sorted)-1]
	}
	return sorted[int(float64(len(sorted)-1)*p)]
}
