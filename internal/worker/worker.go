// Package worker hosts the closed-loop request drivers. Each worker is an
// isolated execution domain owning its histogram, rate limiter, and
// connection pool; it talks to the orchestrator only through typed messages,
// so no mutable state ever crosses a worker boundary.
//
// Inside a worker, its share of the aggregate concurrency is provided by
// spawning one request loop per connection against the shared pool. All
// loops record into the worker's snapshot behind a mutex that is never held
// across a suspension point.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ashavijit/swiftbench/internal/histogram"
	"github.com/ashavijit/swiftbench/internal/httpclient"
	"github.com/ashavijit/swiftbench/internal/metrics"
	"github.com/ashavijit/swiftbench/internal/ratelimit"
)

// snapshotInterval is how often a running worker emits a Metrics delta.
const snapshotInterval = time.Second

// successStatus is the fixed set of status codes counted as successful.
var successStatus = map[int]bool{
	200: true, 201: true, 202: true, 204: true,
	301: true, 302: true, 304: true,
}

// IsSuccessStatus reports whether a status code belongs to the success set.
func IsSuccessStatus(code int) bool { return successStatus[code] }

// Worker runs one set of request loops. Commands arrive on an inbox owned
// by the worker; events leave on the orchestrator's shared channel.
type Worker struct {
	id    int
	inbox chan Command
	out   chan<- Event
	log   *logrus.Entry
}

// New creates a worker that reports events on out.
func New(id int, out chan<- Event) *Worker {
	return &Worker{
		id:    id,
		inbox: make(chan Command, 2),
		out:   out,
		log:   logrus.WithField("worker", id),
	}
}

// Send delivers a command to the worker's inbox.
func (w *Worker) Send(cmd Command) {
	select {
	case w.inbox <- cmd:
	default:
		// Inbox full means a Stop is already pending; dropping is safe
		// because Start is sent exactly once.
	}
}

// Run boots the worker: emit Ready, wait for Start, drive the loops, emit
// Done. A panic anywhere inside is converted into an Error event so the
// orchestrator can fail the run instead of deadlocking.
func (w *Worker) Run(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Errorf("worker panic: %v", r)
			w.emit(ctx, Error{ID: w.id, Message: fmt.Sprintf("panic: %v", r)})
		}
	}()

	w.emit(ctx, Ready{ID: w.id})

	select {
	case <-ctx.Done():
		return
	case cmd := <-w.inbox:
		switch c := cmd.(type) {
		case Start:
			w.run(ctx, c.Config)
		case Stop:
			return
		}
	}
}

// run drives cfg.Conns closed loops until the deadline or a Stop, emitting
// a snapshot delta every second and a final one on exit.
func (w *Worker) run(ctx context.Context, cfg Config) {
	client := httpclient.New(httpclient.Config{
		Conns:    cfg.Conns,
		Timeout:  cfg.Timeout,
		HTTP2:    cfg.HTTP2,
		Insecure: cfg.Insecure,
	})
	defer client.Close()

	var lim *ratelimit.Limiter
	if cfg.Rate > 0 {
		lim = ratelimit.New(cfg.Rate)
		if cfg.RampUp > 0 {
			lim.SetRate(1)
		}
	} else if cfg.StartOffset > 0 {
		select {
		case <-time.After(cfg.StartOffset):
		case <-ctx.Done():
		}
	}

	runCtx, cancel := context.WithDeadline(ctx, cfg.Deadline)
	defer cancel()

	var mu sync.Mutex
	snap := newSnapshot(w.id)

	started := time.Now()
	w.log.Debugf("starting %d loops: rate=%d deadline=%s",
		cfg.Conns, cfg.Rate, cfg.Deadline.Format(time.RFC3339))

	var wg sync.WaitGroup
	for i := 0; i < cfg.Conns; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.drive(runCtx, client, lim, cfg, &mu, &snap)
		}()
	}

	ticker := time.NewTicker(snapshotInterval)
	defer ticker.Stop()

	for running := true; running; {
		select {
		case <-runCtx.Done():
			running = false
		case cmd := <-w.inbox:
			if _, ok := cmd.(Stop); ok {
				cancel()
				running = false
			}
		case <-ticker.C:
			if lim != nil && cfg.RampUp > 0 {
				if el := time.Since(started); el < cfg.RampUp {
					lim.SetRate(float64(cfg.Rate) * float64(el) / float64(cfg.RampUp))
				} else {
					lim.SetRate(float64(cfg.Rate))
					cfg.RampUp = 0
				}
			}
			mu.Lock()
			delta := snap
			snap = newSnapshot(w.id)
			mu.Unlock()
			w.emit(ctx, Metrics{ID: w.id, Snapshot: delta})
		}
	}

	// Loops exit at their next quiescence point; in-flight requests are
	// never aborted, so this wait is bounded by the per-request timeout.
	wg.Wait()

	mu.Lock()
	final := snap
	mu.Unlock()
	w.emit(ctx, Done{ID: w.id, Snapshot: final})
	w.log.Debug("worker finished")
}

// drive is one closed loop: acquire token, issue request, record, repeat.
// The stop check happens between requests only.
func (w *Worker) drive(ctx context.Context, client *httpclient.Client, lim *ratelimit.Limiter,
	cfg Config, mu *sync.Mutex, snap *Snapshot) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if lim != nil {
			if err := lim.Acquire(ctx); err != nil {
				return
			}
		}
		w.attempt(client, cfg, mu, snap)
	}
}

// attempt issues one request and records its outcome into the current
// snapshot delta. Request contexts derive from the background context, not
// the run context, so cancellation never aborts a request mid-flight; the
// per-request timeout bounds how long quiescence takes.
func (w *Worker) attempt(client *httpclient.Client, cfg Config, mu *sync.Mutex, snap *Snapshot) {
	metrics.RequestStarted()
	resp, err := client.Do(context.Background(), cfg.Method, cfg.URL, cfg.Headers, cfg.Body)

	mu.Lock()
	snap.Requests++
	if err != nil {
		snap.Failures++
		rerr, ok := err.(*httpclient.RequestError)
		if ok && rerr.Kind == httpclient.KindTimeout {
			snap.Timeouts++
		} else {
			snap.ConnErrors++
		}
		mu.Unlock()
		if ok && rerr.Kind == httpclient.KindTimeout {
			metrics.ObserveError("timeout", resp.Latency)
		} else {
			metrics.ObserveError("connection", resp.Latency)
		}
		w.log.Debugf("request error: %v", err)
		return
	}
	snap.Hist.Record(resp.Latency)
	snap.Bytes += resp.Bytes
	ok := IsSuccessStatus(resp.Status)
	if ok {
		snap.Successes++
	} else {
		snap.Failures++
		snap.ByStatus[resp.Status]++
	}
	mu.Unlock()
	metrics.ObserveResponse(ok, resp.Status, resp.Latency)
}

// emit delivers an event unless the orchestrator is already gone.
func (w *Worker) emit(ctx context.Context, ev Event) {
	select {
	case w.out <- ev:
	case <-ctx.Done():
	}
}

func newSnapshot(id int) Snapshot {
	return Snapshot{
		Worker:   id,
		ByStatus: map[int]uint64{},
		Hist:     histogram.New(),
	}
}
