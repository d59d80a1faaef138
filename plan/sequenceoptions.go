package plan

// SequenceOptions is parameterized sequence metadata for identity
// columns (spec.md §2): start, bounds, increment, cycling and cache size,
// plus Next to advance a value. The planner and executor in this module
// do not consult it; identity columns get no special handling there.
type SequenceOptions struct {
	Start     int64
	Min       int64
	Max       int64
	Increment int64
	Cycle     bool
	// Cache is the number of values the sequence pre-allocates per call
	// into the storage layer, amortizing the cost of advancing it.
	Cache int64
}

// DefaultSequenceOptions mirrors the conventional BIGINT identity
// defaults (1..max int64, increment 1, no cycling, cache of 1).
func DefaultSequenceOptions() SequenceOptions {
	return SequenceOptions{
		Start:     1,
		Min:       1,
		Max:       9223372036854775807,
		Increment: 1,
		Cycle:     false,
		Cache:     1,
	}
}

// Next advances current by one increment, wrapping to Min when Cycle is
// set and the sequence would otherwise exceed Max.
func (s SequenceOptions) Next(current int64) int64 {
	n := current + s.Increment
	if n > s.Max {
		if s.Cycle {
			return s.Min
		}
		return s.Max
	}
	return n
}
