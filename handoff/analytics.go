package handoff

import (
	"sync"
	"time"
)

// maxProcessingSamples bounds the processing-time sample list.
const maxProcessingSamples = 1000

// blockKind distinguishes the three policy guards for the blocked counters.
type blockKind int

const (
	blockedByRateLimit blockKind = iota
	blockedByCircular
	blockedByLock
)

// Analytics is the process-wide aggregation sink for handoff attempts. All
// operations append or increment; derived values are computed at read time
// by Summary.
type Analytics struct {
	mu sync.Mutex

	total      int64
	successful int64
	failed     int64

	routes map[Route]int64
	hourly [24]int64

	blockedRateLimit int64
	blockedCircular  int64
	blockedLock      int64

	processing []time.Duration
}

// NewAnalytics creates an empty ledger. Tests get clean state by
// constructing a fresh instance rather than resetting a shared one.
func NewAnalytics() *Analytics {
	return &Analytics{
		routes: make(map[Route]int64),
	}
}

// RecordSuccess counts one completed handoff: totals, the route counter,
// the hour-of-day bucket, and a bounded processing-time sample.
func (a *Analytics) RecordSuccess(route Route, hour int, d time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.total++
	a.successful++
	a.routes[route]++
	if hour >= 0 && hour < 24 {
		a.hourly[hour]++
	}
	if len(a.processing) < maxProcessingSamples {
		a.processing = append(a.processing, d)
	} else {
		copy(a.processing, a.processing[1:])
		a.processing[len(a.processing)-1] = d
	}
}

// RecordFailure counts one hard execution failure, reported through
// Service.RecordExecutionFailure by the caller that applies the action list.
// Policy rejections do not land here; they only touch the blocked counters.
func (a *Analytics) RecordFailure(route Route) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.total++
	a.failed++
}

// RecordBlocked counts one policy rejection by guard kind.
func (a *Analytics) RecordBlocked(kind blockKind) {
	a.mu.Lock()
	defer a.mu.Unlock()
	switch kind {
	case blockedByRateLimit:
		a.blockedRateLimit++
	case blockedByCircular:
		a.blockedCircular++
	case blockedByLock:
		a.blockedLock++
	}
}

// Summary is a point-in-time view of the ledger with derived values.
type Summary struct {
	TotalHandoffs      int64            `json:"total_handoffs"`
	Successful         int64            `json:"successful"`
	Failed             int64            `json:"failed"`
	SuccessRate        float64          `json:"success_rate"`
	AvgProcessingMs    float64          `json:"avg_processing_ms"`
	PeakHour           int              `json:"peak_hour"`
	RouteCounts        map[string]int64 `json:"route_counts"`
	HourlyCounts       [24]int64        `json:"hourly_counts"`
	BlockedByRateLimit int64            `json:"blocked_by_rate_limit"`
	BlockedByCircular  int64            `json:"blocked_by_circular"`
	BlockedByLock      int64            `json:"blocked_by_lock"`
}

// Summary computes success rate, average processing time, and peak hour at
// read time. PeakHour is -1 when no handoff has completed.
func (a *Analytics) Summary() Summary {
	a.mu.Lock()
	defer a.mu.Unlock()

	s := Summary{
		TotalHandoffs:      a.total,
		Successful:         a.successful,
		Failed:             a.failed,
		PeakHour:           -1,
		RouteCounts:        make(map[string]int64, len(a.routes)),
		HourlyCounts:       a.hourly,
		BlockedByRateLimit: a.blockedRateLimit,
		BlockedByCircular:  a.blockedCircular,
		BlockedByLock:      a.blockedLock,
	}

	if a.total > 0 {
		s.SuccessRate = float64(a.successful) / float64(a.total)
	}

	if len(a.processing) > 0 {
		var sum time.Duration
		for _, d := range a.processing {
			sum += d
		}
		s.AvgProcessingMs = float64(sum.Microseconds()) / float64(len(a.processing)) / 1000
	}

	var peak int64
	for hour, count := range a.hourly {
		if count > peak {
			peak = count
			s.PeakHour = hour
		}
	}

	for route, count := range a.routes {
		s.RouteCounts[route.String()] = count
	}
	return s
}
