package stream

import "sync/atomic"

// Metrics receives diagnostic counts from an Assembler. Implementations must
// be cheap and must not block; counts never influence stream handling.
type Metrics interface {
	FrameDecoded()
	FragmentEmitted()
	MalformedPayload()
	IncompleteFrame()
}

// NopMetrics discards all counts.
type NopMetrics struct{}

func (NopMetrics) FrameDecoded()     {}
func (NopMetrics) FragmentEmitted()  {}
func (NopMetrics) MalformedPayload() {}
func (NopMetrics) IncompleteFrame()  {}

// Counters is a Metrics implementation backed by atomic counters. A single
// Counters may be shared by concurrent streams.
type Counters struct {
	frames     atomic.Int64
	fragments  atomic.Int64
	malformed  atomic.Int64
	incomplete atomic.Int64
}

// CounterSnapshot is a point-in-time copy of Counters.
type CounterSnapshot struct {
	Frames     int64 `json:"frames"`
	Fragments  int64 `json:"fragments"`
	Malformed  int64 `json:"malformed"`
	Incomplete int64 `json:"incomplete"`
}

func (c *Counters) FrameDecoded()     { c.frames.Add(1) }
func (c *Counters) FragmentEmitted()  { c.fragments.Add(1) }
func (c *Counters) MalformedPayload() { c.malformed.Add(1) }
func (c *Counters) IncompleteFrame()  { c.incomplete.Add(1) }

// Snapshot returns the current counts.
func (c *Counters) Snapshot() CounterSnapshot {
	return CounterSnapshot{
		Frames:     c.frames.Load(),
		Fragments:  c.fragments.Load(),
		Malformed:  c.malformed.Load(),
		Incomplete: c.incomplete.Load(),
	}
}
