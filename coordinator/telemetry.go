package coordinator

import "time"

// IntervalReport is the interval telemetry summary described in spec.md
// §4.4, emitted at most once per intervalPeriod and only when an inbound
// message arrives. AvgSamplesBehind and RawBytesMB cover the chunks seen
// since the previous report; CacheLen is the cache occupancy at report
// time; Missed and Replaced are the cache's cumulative session counters,
// and ResponseOutcomes is likewise cumulative. UniqueReads is cumulative
// for the whole session (distinct read ids seen so far, never reset) to
// match the reference client's "unique reads (ever)" accounting.
type IntervalReport struct {
	UniqueReads      int
	AvgSamplesBehind float64
	RawBytesMB       float64
	CacheLen         int
	Missed           uint64
	Replaced         uint64
	ResponseOutcomes map[int32]uint64
}

const intervalPeriod = time.Second
