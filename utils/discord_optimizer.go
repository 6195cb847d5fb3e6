package utils

import (
	"sync"
	"time"
)

// PerformanceMetrics tracks Discord API response performance
type PerformanceMetrics struct {
	TotalCalls      int64         `json:"total_calls"`
	SuccessfulCalls int64         `json:"successful_calls"`
	FailedCalls     int64         `json:"failed_calls"`
	TimeoutCalls    int64         `json:"timeout_calls"`
	TotalDuration   time.Duration `json:"total_duration"`
	MaxDuration     time.Duration `json:"max_duration"`
	MinDuration     time.Duration `json:"min_duration"`
}

var (
	metricsMu         sync.Mutex
	discordAPIMetrics = PerformanceMetrics{}
)

// TrackPerformance records performance metrics for Discord API calls
func TrackPerformance(operation string, duration time.Duration, success bool, timedOut bool) {
	metricsMu.Lock()
	m := &discordAPIMetrics
	m.TotalCalls++
	m.TotalDuration += duration
	if success {
		m.SuccessfulCalls++
	} else {
		m.FailedCalls++
	}
	if timedOut {
		m.TimeoutCalls++
	}
	if duration > m.MaxDuration {
		m.MaxDuration = duration
	}
	if m.MinDuration == 0 || (duration > 0 && duration < m.MinDuration) {
		m.MinDuration = duration
	}
	metricsMu.Unlock()

	if duration > 500*time.Millisecond {
		BotLogf("DISCORD_PERF", "SLOW %s: %dms", operation, duration.Milliseconds())
	}
}

// GetPerformanceMetrics returns current Discord API performance metrics
func GetPerformanceMetrics() PerformanceMetrics {
	metricsMu.Lock()
	defer metricsMu.Unlock()
	return discordAPIMetrics
}

// ResetPerformanceMetrics resets the performance tracking metrics
func ResetPerformanceMetrics() {
	metricsMu.Lock()
	discordAPIMetrics = PerformanceMetrics{}
	metricsMu.Unlock()
}

// EditThrottle spaces out message edits: at most one per interval unless forced.
type EditThrottle struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
	now      func() time.Time
}

func NewEditThrottle(interval time.Duration) *EditThrottle {
	return &EditThrottle{interval: interval, now: time.Now}
}

// Allow reports whether an edit may go out now, and records it if so.
func (t *EditThrottle) Allow() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	if !t.last.IsZero() && now.Sub(t.last) < t.interval {
		return false
	}
	t.last = now
	return true
}

// Force records an edit that bypassed the throttle.
func (t *EditThrottle) Force() {
	t.mu.Lock()
	t.last = t.now()
	t.mu.Unlock()
}
