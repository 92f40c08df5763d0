// Package aggregate folds per-worker snapshot deltas into the run's master
// histogram and counter totals. Every fold operation is commutative and
// associative, so snapshots may arrive in any interleaving across workers
// and the final result is the same.
package aggregate

import (
	"math"
	"strconv"
	"time"

	"github.com/ashavijit/swiftbench/internal/histogram"
	"github.com/ashavijit/swiftbench/internal/result"
	"github.com/ashavijit/swiftbench/internal/worker"
)

// Aggregator accumulates snapshots. Owned exclusively by the orchestrator;
// not safe for concurrent use.
type Aggregator struct {
	hist       *histogram.Histogram
	requests   uint64
	successes  uint64
	failures   uint64
	bytes      int64
	timeouts   uint64
	connErrors uint64
	byStatus   map[int]uint64
}

// New returns an empty aggregator with the default histogram geometry.
func New() *Aggregator {
	return &Aggregator{
		hist:     histogram.New(),
		byStatus: map[int]uint64{},
	}
}

// Add folds one snapshot delta into the totals.
func (a *Aggregator) Add(s worker.Snapshot) error {
	if err := a.hist.Merge(s.Hist); err != nil {
		return err
	}
	a.requests += s.Requests
	a.successes += s.Successes
	a.failures += s.Failures
	a.bytes += s.Bytes
	a.timeouts += s.Timeouts
	a.connErrors += s.ConnErrors
	for code, n := range s.ByStatus {
		a.byStatus[code] += n
	}
	return nil
}

// Requests returns the totals block for the result record.
func (a *Aggregator) Requests() result.Requests {
	return result.Requests{
		Total:      a.requests,
		Successful: a.successes,
		Failed:     a.failures,
	}
}

// Throughput computes rates over the run's wall-clock duration.
func (a *Aggregator) Throughput(elapsed time.Duration) result.Throughput {
	secs := elapsed.Seconds()
	if secs <= 0 {
		return result.Throughput{TotalBytes: a.bytes}
	}
	return result.Throughput{
		RPS:            round2(float64(a.requests) / secs),
		BytesPerSecond: round2(float64(a.bytes) / secs),
		TotalBytes:     a.bytes,
	}
}

// Latency computes the distribution summary from the master histogram, in
// milliseconds rounded to two decimals.
func (a *Aggregator) Latency() result.Latency {
	return result.Latency{
		Min:    usToMs(float64(a.hist.Min())),
		Max:    usToMs(float64(a.hist.Max())),
		Mean:   usToMs(a.hist.Mean()),
		Stddev: usToMs(a.hist.Stddev()),
		P50:    usToMs(a.hist.Percentile(50)),
		P75:    usToMs(a.hist.Percentile(75)),
		P90:    usToMs(a.hist.Percentile(90)),
		P95:    usToMs(a.hist.Percentile(95)),
		P99:    usToMs(a.hist.Percentile(99)),
		P999:   usToMs(a.hist.Percentile(99.9)),
	}
}

// Errors returns the failure tally keyed the way the result contract wants:
// status codes as decimal strings.
func (a *Aggregator) Errors() result.Errors {
	by := make(map[string]uint64, len(a.byStatus))
	for code, n := range a.byStatus {
		by[strconv.Itoa(code)] = n
	}
	return result.Errors{
		Timeouts:         a.timeouts,
		ConnectionErrors: a.connErrors,
		ByStatusCode:     by,
	}
}

// Total returns the number of requests folded so far.
func (a *Aggregator) Total() uint64 { return a.requests }

// Failed returns the number of failures folded so far.
func (a *Aggregator) Failed() uint64 { return a.failures }

func usToMs(us float64) float64 { return round2(us / 1000) }

func round2(v float64) float64 { return math.Round(v*100) / 100 }
