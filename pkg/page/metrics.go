package page

import "time"

// Metrics receives optional instrumentation events from a Store. A nil
// Metrics is valid everywhere a Store accepts one: WithMetrics ignores nil
// and the Store keeps its no-op default, so passing nil is zero overhead. Concrete implementations
// live in pkg/metrics/prometheus; tests may supply their own.
type Metrics interface {
	// ObserveInsert records a successful Insert: the encoded entry size and
	// how long the call took.
	ObserveInsert(entrySize uint64, d time.Duration)

	// ObserveGet records a Get, hit or miss.
	ObserveGet(hit bool, d time.Duration)

	// ObserveDelete records a successful Delete.
	ObserveDelete(d time.Duration)

	// ObserveDefrag records one defrag step that reclaimed a gap: bytes
	// reclaimed and entries re-indexed (0 for a trailing gap). A no-op
	// Defrag call is not reported.
	ObserveDefrag(bytesReclaimed uint64, entriesReindexed int, d time.Duration)

	// SetGauges reports the current cursor offset, live entry count, and
	// queued gap count, called after every mutating operation.
	SetGauges(offset uint64, liveEntries int, queuedGaps int)
}

// noopMetrics is used internally when a Store is constructed without
// instrumentation, so operation code never needs a nil check.
type noopMetrics struct{}

func (noopMetrics) ObserveInsert(uint64, time.Duration)      {}
func (noopMetrics) ObserveGet(bool, time.Duration)           {}
func (noopMetrics) ObserveDelete(time.Duration)              {}
func (noopMetrics) ObserveDefrag(uint64, int, time.Duration) {}
func (noopMetrics) SetGauges(uint64, int, int)               {}
