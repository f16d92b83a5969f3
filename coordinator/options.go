package coordinator

import "readuntil-client/logger"

// Option configures a StreamCoordinator at construction.
type Option func(*StreamCoordinator)

// WithLogger overrides the default logger.
func WithLogger(l logger.Logger) Option {
	return func(sc *StreamCoordinator) { sc.log = l }
}

// WithOnIntervalReport registers a callback invoked with each interval's
// telemetry snapshot (spec.md §4.4's once-per-second summary), outside
// any internal lock. Intended for a host program's own metrics sink; the
// default is to just log the summary line.
func WithOnIntervalReport(fn func(IntervalReport)) Option {
	return func(sc *StreamCoordinator) { sc.onReport = fn }
}
