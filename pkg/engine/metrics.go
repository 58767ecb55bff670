package engine

import (
	"sync"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/aurisvision/monad-trading-bot-sub003/pkg/policy"
)

// ModeStats is a snapshot of aggregate counters for one mode.
type ModeStats struct {
	Total        int64
	Successes    int64
	Failures     int64
	AvgLatencyMs float64
}

// StatsSink is the default MetricsSink: per-mode counters with a rolling
// average latency, owned by the instance rather than a package global.
type StatsSink struct {
	mu    sync.Mutex
	modes map[policy.Mode]*ModeStats
}

// NewStatsSink constructs an empty sink.
func NewStatsSink() *StatsSink {
	return &StatsSink{modes: make(map[policy.Mode]*ModeStats)}
}

// RecordTrade implements MetricsSink.
func (s *StatsSink) RecordTrade(mode policy.Mode, action Action, success bool, duration time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats, ok := s.modes[mode]
	if !ok {
		stats = &ModeStats{}
		s.modes[mode] = stats
	}
	stats.Total++
	if success {
		stats.Successes++
	} else {
		stats.Failures++
	}
	ms := float64(duration.Milliseconds())
	// Incremental mean keeps the update O(1) per trade.
	stats.AvgLatencyMs += (ms - stats.AvgLatencyMs) / float64(stats.Total)

	logx.Infof("trade recorded mode=%s action=%s success=%t duration_ms=%.0f", mode, action, success, ms)
}

// Snapshot returns a copy of the counters for a mode.
func (s *StatsSink) Snapshot(mode policy.Mode) ModeStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	if stats, ok := s.modes[mode]; ok {
		return *stats
	}
	return ModeStats{}
}
