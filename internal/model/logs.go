// internal/model/logs.go
package model

import "time"

// LogRecord represents a single output line of the container, stamped at
// the time it was read.
type LogRecord struct {
	Timestamp time.Time
	Message   string
}

// Millis returns the record timestamp in milliseconds since the epoch.
func (r LogRecord) Millis() int64 {
	return r.Timestamp.UnixMilli()
}

// SinkTarget addresses a log stream inside a log group.
type SinkTarget struct {
	Group  string
	Stream string
}

func (t SinkTarget) String() string {
	return t.Group + "/" + t.Stream
}

// DeliveryResult summarizes one submission of records to the sink.
type DeliveryResult struct {
	Accepted int
	Rejected int

	// Breakdown of Rejected as reported by the sink
	TooNew  int
	TooOld  int
	Expired int
}

// Add merges the counts of another result into r.
func (r *DeliveryResult) Add(o DeliveryResult) {
	r.Accepted += o.Accepted
	r.Rejected += o.Rejected
	r.TooNew += o.TooNew
	r.TooOld += o.TooOld
	r.Expired += o.Expired
}
