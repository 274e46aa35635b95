package metrics

import "sync/atomic"

// SyncMetrics counts the work of a single read or sync run.
type SyncMetrics struct {
	RecordsRead      atomic.Int64
	RecordsWritten   atomic.Int64
	RecordsSkipped   atomic.Int64
	StreamsSucceeded atomic.Int32
	StreamsFailed    atomic.Int32
}
