package metrics

import (
	"slices"
	"sync"
	"time"
)

// defaultSampleSize is the number of recent samples kept for percentiles
const defaultSampleSize = 1000

// Latency summarises the samples recorded by a Histogram. Count, Total, Min
// and Max cover every sample; percentiles cover the most recent window.
type Latency struct {
	Count       int64         `json:"count"`
	Total       time.Duration `json:"total"`
	Average     time.Duration `json:"average"`
	Min         time.Duration `json:"min"`
	Max         time.Duration `json:"max"`
	P50         time.Duration `json:"p50"`
	P90         time.Duration `json:"p90"`
	P99         time.Duration `json:"p99"`
	LastUpdated time.Time     `json:"last_updated,omitempty"`
}

// Histogram is a circular buffer of duration samples
type Histogram struct {
	mu          sync.RWMutex
	samples     []time.Duration
	next        int
	count       int64
	total       time.Duration
	min         time.Duration
	max         time.Duration
	lastUpdated time.Time
}

// NewHistogram creates a histogram keeping the last sampleSize samples
func NewHistogram(sampleSize int) *Histogram {
	if sampleSize <= 0 {
		sampleSize = defaultSampleSize
	}
	return &Histogram{samples: make([]time.Duration, sampleSize)}
}

// Add records one sample
func (h *Histogram) Add(d time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.samples[h.next] = d
	h.next = (h.next + 1) % len(h.samples)
	h.count++
	h.total += d

	if h.count == 1 || d < h.min {
		h.min = d
	}
	if d > h.max {
		h.max = d
	}
	h.lastUpdated = time.Now()
}

// Summary returns the aggregate and percentile view of the recorded samples
func (h *Histogram) Summary() Latency {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.count == 0 {
		return Latency{}
	}

	window := int(min(h.count, int64(len(h.samples))))
	sorted := slices.Clone(h.samples[:window])
	slices.Sort(sorted)

	return Latency{
		Count:       h.count,
		Total:       h.total,
		Average:     h.total / time.Duration(h.count),
		Min:         h.min,
		Max:         h.max,
		P50:         percentile(sorted, 50),
		P90:         percentile(sorted, 90),
		P99:         percentile(sorted, 99),
		LastUpdated: h.lastUpdated,
	}
}

// percentile interpolates linearly between the closest ranks of sorted
func percentile(sorted []time.Duration, p int) time.Duration {
	switch {
	case len(sorted) == 0:
		return 0
	case p <= 0:
		return sorted[0]
	case p >= 100:
		return sorted[len(sorted)-1]
	}

	rank := float64(p) / 100 * float64(len(sorted)-1)
	lower := int(rank)
	if lower+1 >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	fraction := rank - float64(lower)
	return sorted[lower] + time.Duration(fraction*float64(sorted[lower+1]-sorted[lower]))
}
