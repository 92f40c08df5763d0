package worker

import (
	"time"

	"github.com/ashavijit/swiftbench/internal/histogram"
)

// Command is a message from the orchestrator to a worker. The set is closed:
// Start and Stop are the only variants, and the marker method keeps handler
// dispatch exhaustive.
type Command interface{ isCommand() }

// Start carries the worker's derived configuration and begins the loop.
type Start struct {
	Config Config
}

// Stop asks the loop to exit at its next quiescence point. In-flight
// requests are not aborted.
type Stop struct{}

func (Start) isCommand() {}
func (Stop) isCommand()  {}

// Event is a message from a worker to the orchestrator.
type Event interface{ isEvent() }

// Ready is emitted once on boot, before the worker waits for Start.
type Ready struct {
	ID int
}

// Metrics carries a periodic snapshot delta.
type Metrics struct {
	ID       int
	Snapshot Snapshot
}

// Done carries the final snapshot delta; the worker exits after sending it.
type Done struct {
	ID       int
	Snapshot Snapshot
}

// Error reports an unrecoverable worker fault. It terminates the run.
type Error struct {
	ID      int
	Message string
}

func (Ready) isEvent()   {}
func (Metrics) isEvent() {}
func (Done) isEvent()    {}
func (Error) isEvent()   {}

// Config is the per-worker slice of the benchmark configuration, derived by
// the orchestrator via ceiling division of the aggregate values.
type Config struct {
	ID          int
	URL         string
	Method      string
	Headers     map[string]string
	Body        []byte
	Conns       int           // this worker's share of connections
	Rate        int           // this worker's share of req/s, 0 = unlimited
	Timeout     time.Duration // per-request deadline
	RampUp      time.Duration // linear rate ramp window
	StartOffset time.Duration // staggered start when ramping without a rate
	Deadline    time.Time     // end of the running phase
	HTTP2       bool
	Insecure    bool
}

// Snapshot is an atomic copy of a worker's metrics since the previous
// snapshot. All fields are deltas; the aggregator folds them in any order.
type Snapshot struct {
	Worker     int
	Requests   uint64
	Successes  uint64
	Failures   uint64
	Bytes      int64
	Timeouts   uint64
	ConnErrors uint64
	// ByStatus counts failed responses per HTTP status code.
	ByStatus map[int]uint64
	// Hist is a histogram delta covering every response in this interval.
	Hist *histogram.Histogram
}
