// Package engine orchestrates a benchmark run: it normalizes configuration,
// splits connections and rate across workers, drives the lifecycle clock,
// folds worker snapshots, and assembles the final result record.
package engine

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ashavijit/swiftbench/internal/aggregate"
	"github.com/ashavijit/swiftbench/internal/config"
	"github.com/ashavijit/swiftbench/internal/lifecycle"
	"github.com/ashavijit/swiftbench/internal/result"
	"github.com/ashavijit/swiftbench/internal/worker"
)

// MaxWorkers caps the worker fan-out regardless of CPU count.
const MaxWorkers = 8

// WorkerCount returns min(MaxWorkers, CPU count, connections), at least 1.
func WorkerCount(conns int) int {
	n := MaxWorkers
	if c := runtime.NumCPU(); c < n {
		n = c
	}
	if conns < n {
		n = conns
	}
	if n < 1 {
		n = 1
	}
	return n
}

// ceilDiv splits an aggregate value so the per-worker sum is always >= the
// requested total; the overshoot is bounded by n-1.
func ceilDiv(total, n int) int {
	return (total + n - 1) / n
}

// Run executes one benchmark and returns its result record. Request-level
// failures are counted, never fatal; only a worker-runtime fault aborts the
// run. Every spawned worker is joined or abandoned-after-cancel before Run
// returns.
func Run(ctx context.Context, cfg config.Benchmark) (*result.Result, error) {
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	n := WorkerCount(cfg.Connections)
	events := make(chan worker.Event, n*4)
	workers := make([]*worker.Worker, n)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	for i := 0; i < n; i++ {
		workers[i] = worker.New(i, events)
		go workers[i].Run(runCtx)
	}
	if err := awaitReady(runCtx, events, n); err != nil {
		return nil, err
	}

	clock := lifecycle.New(cfg.Warmup, cfg.Duration)
	clock.Start()
	deadline := clock.Deadline()

	connShare := ceilDiv(cfg.Connections, n)
	rateShare := 0
	if cfg.Rate > 0 {
		rateShare = ceilDiv(cfg.Rate, n)
	}
	logrus.Infof("starting %d workers: %d conns and %d req/s each against %s for %s",
		n, connShare, rateShare, cfg.URL, cfg.Duration)

	for i, w := range workers {
		wc := worker.Config{
			ID:       i,
			URL:      cfg.URL,
			Method:   cfg.Method,
			Headers:  cfg.Headers,
			Body:     cfg.Body,
			Conns:    connShare,
			Rate:     rateShare,
			Timeout:  cfg.Timeout,
			RampUp:   cfg.RampUp,
			Deadline: deadline,
			HTTP2:    cfg.HTTP2,
			Insecure: cfg.Insecure,
		}
		if cfg.RampUp > 0 && cfg.Rate == 0 {
			// Without a rate there is nothing to ramp; stagger worker start
			// times evenly across the window instead.
			wc.StartOffset = cfg.RampUp * time.Duration(i) / time.Duration(n)
		}
		w.Send(worker.Start{Config: wc})
	}

	agg := aggregate.New()
	// Cooperative stop has 2T past the end of the run window (W + D + 2T
	// from Start) before workers are told to stop; stragglers get one more
	// T before the run is aborted.
	hard := time.NewTimer(time.Until(deadline) + 2*cfg.Timeout)
	defer hard.Stop()
	progress := time.NewTicker(time.Second)
	defer progress.Stop()

	done := 0
	forced := false
	for done < n {
		select {
		case ev := <-events:
			switch e := ev.(type) {
			case worker.Metrics:
				if err := agg.Add(e.Snapshot); err != nil {
					return nil, fmt.Errorf("aggregate snapshot: %w", err)
				}
			case worker.Done:
				if err := agg.Add(e.Snapshot); err != nil {
					return nil, fmt.Errorf("aggregate snapshot: %w", err)
				}
				done++
			case worker.Error:
				broadcast(workers, worker.Stop{})
				cancel()
				return nil, fmt.Errorf("worker %d failed: %s", e.ID, e.Message)
			case worker.Ready:
				// Late Ready after a restart race; harmless.
			}
		case <-progress.C:
			logrus.Debugf("phase=%s progress=%.0f%% requests=%d failed=%d",
				clock.Phase(), clock.Progress()*100, agg.Total(), agg.Failed())
		case <-hard.C:
			if forced {
				return nil, fmt.Errorf("run aborted: %d of %d workers failed to stop within the hard deadline", n-done, n)
			}
			// The drain window is exhausted; abandon cooperative shutdown.
			forced = true
			broadcast(workers, worker.Stop{})
			cancel()
			hard.Reset(cfg.Timeout)
		case <-ctx.Done():
			broadcast(workers, worker.Stop{})
			return nil, ctx.Err()
		}
		if forced && done < n {
			select {
			case <-hard.C:
				return nil, fmt.Errorf("run aborted: %d of %d workers failed to stop within the hard deadline", n-done, n)
			default:
			}
		}
	}

	elapsed := clock.Elapsed()
	clock.Complete()

	var rate *int
	if cfg.Rate > 0 {
		r := cfg.Rate
		rate = &r
	}
	res := &result.Result{
		URL:         cfg.URL,
		Method:      cfg.Method,
		Duration:    cfg.Duration.Seconds(),
		Connections: cfg.Connections,
		Rate:        rate,
		Requests:    agg.Requests(),
		Throughput:  agg.Throughput(elapsed),
		Latency:     agg.Latency(),
		Errors:      agg.Errors(),
		Timestamp:   result.Stamp(time.Now()),
		Meta:        result.NewMeta(),
	}
	logrus.Infof("run complete: %d requests in %s (%.2f req/s, %d failed)",
		res.Requests.Total, elapsed.Round(time.Millisecond), res.Throughput.RPS, res.Requests.Failed)
	return res, nil
}

// awaitReady blocks until all n workers have booted.
func awaitReady(ctx context.Context, events <-chan worker.Event, n int) error {
	ready := 0
	for ready < n {
		select {
		case ev := <-events:
			switch e := ev.(type) {
			case worker.Ready:
				ready++
			case worker.Error:
				return fmt.Errorf("worker %d failed before start: %s", e.ID, e.Message)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func broadcast(workers []*worker.Worker, cmd worker.Command) {
	for _, w := range workers {
		w.Send(cmd)
	}
}
