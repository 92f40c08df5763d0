// Package metrics exposes live Prometheus instrumentation for a run in
// progress, plus pprof handlers, on an optional HTTP listener.
package metrics

import (
	"net/http"
	"net/http/pprof"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

var (
	attempted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "swiftbench_requests_attempted_total",
		Help: "Total requests attempted (sent to the network layer)",
	})
	successful = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "swiftbench_responses_successful_total",
		Help: "Total responses with a status in the success set",
	})
	failed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "swiftbench_responses_failed_total",
		Help: "Total failed requests by reason",
	}, []string{"reason"})
	latency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "swiftbench_request_duration_seconds",
		Help:    "Latency distribution",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
	})
	inFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "swiftbench_in_flight_requests",
		Help: "Requests currently in-flight",
	})
)

func init() {
	prometheus.MustRegister(attempted, successful, failed, latency, inFlight)
}

// RequestStarted marks a request entering the network layer.
func RequestStarted() {
	attempted.Inc()
	inFlight.Inc()
}

// ObserveResponse records a completed response.
func ObserveResponse(ok bool, status int, d time.Duration) {
	inFlight.Dec()
	latency.Observe(d.Seconds())
	if ok {
		successful.Inc()
	} else {
		failed.WithLabelValues("status_" + strconv.Itoa(status)).Inc()
	}
}

// ObserveError records a request that never produced a response.
func ObserveError(reason string, d time.Duration) {
	inFlight.Dec()
	latency.Observe(d.Seconds())
	failed.WithLabelValues(reason).Inc()
}

// Serve exposes /metrics and /debug/pprof/ on addr. The returned server can
// be Closed during finalization.
func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	mux.Handle("/debug/pprof/heap", pprof.Handler("heap"))
	mux.Handle("/debug/pprof/goroutine", pprof.Handler("goroutine"))
	mux.Handle("/debug/pprof/block", pprof.Handler("block"))
	mux.Handle("/debug/pprof/mutex", pprof.Handler("mutex"))

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logrus.Infof("metrics at %s/metrics, pprof at %s/debug/pprof/", addr, addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Errorf("metrics server error: %v", err)
		}
	}()
	return srv
}
