package xlxdma

import (
	"fmt"
	"sync/atomic"
	"time"
)

// stats holds the rolling per-interval counters described in the
// interrupt/completion design: transfer count, bytes and descriptors
// transferred, plus software- and hardware-observed elapsed time,
// reset every StatisticInterval. Lifetime counters accumulate across
// resets.
type stats struct {
	intervalStart time.Time

	rollingTransfers   uint64
	rollingBytes       uint64
	rollingDescriptors uint64
	rollingSoftNs      uint64
	rollingDmaNs       uint64

	lifetimeTransfers atomic.Uint64
	lifetimeBytes     atomic.Uint64
	lifetimeErrors    atomic.Uint64
}

func (s *stats) reset(now time.Time) {
	s.intervalStart = now
	s.rollingTransfers = 0
	s.rollingBytes = 0
	s.rollingDescriptors = 0
	s.rollingSoftNs = 0
	s.rollingDmaNs = 0
}

// record folds one completed transfer's measurements into the rolling
// counters and the lifetime totals.
func (s *stats) record(byteCount uint32, descCount int, softElapsed, dmaElapsed time.Duration) {
	s.rollingTransfers++
	s.rollingBytes += uint64(byteCount)
	s.rollingDescriptors += uint64(descCount)
	s.rollingSoftNs += uint64(softElapsed.Nanoseconds())
	s.rollingDmaNs += uint64(dmaElapsed.Nanoseconds())

	s.lifetimeTransfers.Add(1)
	s.lifetimeBytes.Add(uint64(byteCount))
}

func (s *stats) recordError() {
	s.lifetimeErrors.Add(1)
}

// dueForEmit reports whether StatisticInterval has elapsed since the
// last reset.
func (s *stats) dueForEmit(now time.Time) bool {
	return now.Sub(s.intervalStart) >= StatisticInterval
}

// line formats one interval's summary: average transfer size,
// average descriptor count, average soft/hardware transfer time, and
// throughput in MB/s, each averaged (or computed) over the interval's
// transfer count. A quiet interval clamps the transfer count and the
// hardware-time denominator to 1 before dividing, rather than skipping
// the line or dividing by zero.
func (s *stats) line(name string) string {
	count := s.rollingTransfers
	if count == 0 {
		count = 1
	}
	timeUs := float64(s.rollingDmaNs) / 1000
	if timeUs == 0 {
		timeUs = 1
	}

	avgSizeKB := float64(s.rollingBytes) / 1000 / float64(count)
	avgDescriptors := float64(s.rollingDescriptors) / float64(count)
	avgSoftUs := float64(s.rollingSoftNs) / 1000 / float64(count)
	avgDmaUs := timeUs / float64(count)
	throughputMBps := float64(s.rollingBytes) / timeUs

	return fmt.Sprintf(
		"%s: count=%d avg_size_kb=%.1f avg_descriptors=%.1f avg_soft_us=%.1f avg_dma_us=%.1f throughput_mbps=%.1f lifetime_transfers=%d lifetime_bytes=%d lifetime_errors=%d",
		name, s.rollingTransfers, avgSizeKB, avgDescriptors, avgSoftUs, avgDmaUs, throughputMBps,
		s.lifetimeTransfers.Load(), s.lifetimeBytes.Load(), s.lifetimeErrors.Load(),
	)
}

// Snapshot is a point-in-time view of an engine's statistics, safe to
// read without holding the engine lock.
type Snapshot struct {
	Name              string
	RollingBytes      uint64
	RollingDescriptors uint64
	LifetimeTransfers uint64
	LifetimeBytes     uint64
	LifetimeErrors    uint64
}

// Stats returns a snapshot of the engine's current statistics.
func (e *Engine) Stats() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	return Snapshot{
		Name:               e.name,
		RollingBytes:       e.stats.rollingBytes,
		RollingDescriptors: e.stats.rollingDescriptors,
		LifetimeTransfers:  e.stats.lifetimeTransfers.Load(),
		LifetimeBytes:      e.stats.lifetimeBytes.Load(),
		LifetimeErrors:     e.stats.lifetimeErrors.Load(),
	}
}

// maybeEmitStats emits and resets the rolling counters if
// StatisticInterval has elapsed. Caller must hold e.mu.
func (e *Engine) maybeEmitStats() {
	now := time.Now()
	if !e.stats.dueForEmit(now) {
		return
	}
	if e.logger != nil {
		e.logger.Printf("%s", e.stats.line(e.name))
	}
	e.stats.reset(now)
}
