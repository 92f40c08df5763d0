// Package cli wires the command-line surface onto the engine: flag parsing,
// logging setup, the pre-flight probe, reporters, CI threshold gates, and
// process exit codes.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ashavijit/swiftbench/internal/compare"
	"github.com/ashavijit/swiftbench/internal/config"
	"github.com/ashavijit/swiftbench/internal/engine"
	"github.com/ashavijit/swiftbench/internal/history"
	"github.com/ashavijit/swiftbench/internal/metrics"
	"github.com/ashavijit/swiftbench/internal/probe"
	"github.com/ashavijit/swiftbench/internal/report"
	"github.com/ashavijit/swiftbench/internal/result"
	"github.com/ashavijit/swiftbench/internal/version"
)

// Exit codes are part of the CI contract.
const (
	ExitOK        = 0
	ExitThreshold = 1
	ExitError     = 2
)

// exitError carries a process exit code through cobra's error path.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func fail(code int, format string, args ...any) error {
	return &exitError{code: code, err: fmt.Errorf(format, args...)}
}

type options struct {
	connections int
	duration    int
	rate        int
	timeout     int
	rampUp      int
	warmup      int
	method      string
	headers     []string
	body        string
	jsonBody    string
	http2       bool
	insecure    bool

	output      string
	outFile     string
	p99         float64
	errorRate   float64
	compareMode bool

	configFile  string
	historyDB   string
	metricsAddr string

	logLevel  string
	logFormat string
	logFile   string
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	root, _ := newRootCmd()
	if err := root.Execute(); err != nil {
		var xe *exitError
		if errors.As(err, &xe) {
			fmt.Fprintf(os.Stderr, "swiftbench: %v\n", xe.err)
			return xe.code
		}
		// Flag parse and usage errors are configuration errors.
		return ExitError
	}
	return ExitOK
}

func newRootCmd() (*cobra.Command, *options) {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "swiftbench [flags] URL [URL...]",
		Short:         "Closed-loop HTTP load generator",
		Long:          "swiftbench drives a target endpoint at a configured concurrency and/or rate\nfor a fixed duration and reports throughput, latency distribution, and errors.",
		Version:       version.Version,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, args)
		},
	}

	f := cmd.Flags()
	f.IntVarP(&opts.connections, "connections", "c", config.DefaultConnections, "aggregate concurrency")
	f.IntVarP(&opts.duration, "duration", "d", 10, "duration in seconds")
	f.IntVar(&opts.rate, "rate", 0, "aggregate request rate cap (req/s, 0 = unlimited)")
	f.IntVar(&opts.timeout, "timeout", 5000, "per-request timeout in milliseconds")
	f.IntVar(&opts.rampUp, "ramp-up", 0, "ramp-up window in seconds")
	f.IntVar(&opts.warmup, "warmup", 0, "warmup in seconds (samples are included in metrics)")
	f.StringVarP(&opts.method, "method", "m", config.DefaultMethod, "HTTP method")
	f.StringArrayVarP(&opts.headers, "header", "H", nil, "request header, \"Name: Value\" (repeatable)")
	f.StringVar(&opts.body, "body", "", "raw request body")
	f.StringVar(&opts.jsonBody, "json", "", "request body, sets Content-Type: application/json")
	f.BoolVar(&opts.http2, "http2", false, "prefer HTTP/2")
	f.BoolVar(&opts.insecure, "insecure", false, "skip TLS certificate verification")

	f.StringVar(&opts.output, "output", "console", "report format: console, json, html, or csv")
	f.StringVarP(&opts.outFile, "out", "o", "", "write the rendered report to a file")
	f.Float64Var(&opts.p99, "p99", 0, "fail (exit 1) when p99 latency in ms exceeds this")
	f.Float64Var(&opts.errorRate, "error-rate", 0, "fail (exit 1) when failed/total exceeds this fraction")
	f.BoolVar(&opts.compareMode, "compare", false, "benchmark each URL sequentially and compare")

	f.StringVar(&opts.configFile, "config", "", "YAML benchmark file (flags override)")
	f.StringVar(&opts.historyDB, "history", "", "SQLite database to append this run to")
	f.StringVar(&opts.metricsAddr, "metrics-addr", "", "expose live Prometheus metrics and pprof on this address")

	f.StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	f.StringVar(&opts.logFormat, "log-format", "text", "log format: text or json")
	f.StringVar(&opts.logFile, "log-file", "", "append logs to a file instead of stderr")

	f.BoolP("version", "v", false, "print the version and exit")

	cmd.AddCommand(newHistoryCmd())
	return cmd, opts
}

func run(cmd *cobra.Command, opts *options, args []string) error {
	if err := setupLogging(opts); err != nil {
		return fail(ExitError, "%v", err)
	}

	cfg, err := buildConfig(cmd, opts, args)
	if err != nil {
		return fail(ExitError, "%v", err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return fail(ExitError, "%v", err)
	}
	if opts.compareMode && len(args) < 2 {
		return fail(ExitError, "--compare needs at least two URLs")
	}
	if !opts.compareMode && len(args) > 1 {
		return fail(ExitError, "multiple URLs given without --compare")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.metricsAddr != "" {
		srv := metrics.Serve(opts.metricsAddr)
		defer srv.Close()
	}

	for _, url := range args {
		if err := probe.Check(ctx, url, cfg.Insecure); err != nil {
			return fail(ExitError, "%v", err)
		}
	}

	if opts.compareMode {
		return runCompare(ctx, cfg, args, opts)
	}

	res, err := engine.Run(ctx, cfg)
	if err != nil {
		return fail(ExitError, "run failed: %v", err)
	}

	if err := render(res, opts); err != nil {
		return fail(ExitError, "%v", err)
	}
	if opts.historyDB != "" {
		if err := saveHistory(opts.historyDB, res); err != nil {
			// History is best-effort; a full disk must not flip a passing run.
			logrus.Warnf("history not saved: %v", err)
		}
	}
	return checkThresholds(cmd, opts, res)
}

func runCompare(ctx context.Context, cfg config.Benchmark, urls []string, opts *options) error {
	results, err := compare.Run(ctx, cfg, urls)
	if err != nil {
		return fail(ExitError, "compare failed: %v", err)
	}
	if err := compare.RenderTable(os.Stdout, results); err != nil {
		return fail(ExitError, "%v", err)
	}
	if opts.outFile != "" {
		rep, err := report.New(opts.output)
		if err != nil {
			return fail(ExitError, "%v", err)
		}
		f, err := os.Create(opts.outFile)
		if err != nil {
			return fail(ExitError, "create report file: %v", err)
		}
		defer f.Close()
		for _, res := range results {
			if err := rep.Render(f, res); err != nil {
				return fail(ExitError, "%v", err)
			}
		}
	}
	if opts.historyDB != "" {
		for _, res := range results {
			if err := saveHistory(opts.historyDB, res); err != nil {
				logrus.Warnf("history not saved: %v", err)
				break
			}
		}
	}
	return nil
}

// buildConfig merges the optional --config file with flags; explicitly set
// flags win.
func buildConfig(cmd *cobra.Command, opts *options, args []string) (config.Benchmark, error) {
	var cfg config.Benchmark
	if opts.configFile != "" {
		var err error
		cfg, err = config.LoadFile(opts.configFile)
		if err != nil {
			return cfg, err
		}
	}
	if len(args) > 0 {
		cfg.URL = args[0]
	}
	if cfg.URL == "" {
		return cfg, fmt.Errorf("target URL is required")
	}

	f := cmd.Flags()
	if f.Changed("connections") || cfg.Connections == 0 {
		cfg.Connections = opts.connections
	}
	if f.Changed("duration") || cfg.Duration == 0 {
		cfg.Duration = time.Duration(opts.duration) * time.Second
	}
	if f.Changed("rate") {
		cfg.Rate = opts.rate
	}
	if f.Changed("timeout") || cfg.Timeout == 0 {
		cfg.Timeout = time.Duration(opts.timeout) * time.Millisecond
	}
	if f.Changed("ramp-up") {
		cfg.RampUp = time.Duration(opts.rampUp) * time.Second
	}
	if f.Changed("warmup") {
		cfg.Warmup = time.Duration(opts.warmup) * time.Second
	}
	if f.Changed("method") || cfg.Method == "" {
		cfg.Method = opts.method
	}
	if f.Changed("http2") {
		cfg.HTTP2 = opts.http2
	}
	if f.Changed("insecure") {
		cfg.Insecure = opts.insecure
	}

	if cfg.Headers == nil {
		cfg.Headers = map[string]string{}
	}
	for _, h := range opts.headers {
		name, value, err := config.ParseHeader(h)
		if err != nil {
			return cfg, err
		}
		cfg.Headers[name] = value
	}

	if opts.body != "" && opts.jsonBody != "" {
		return cfg, fmt.Errorf("--body and --json are mutually exclusive")
	}
	if opts.body != "" {
		cfg.Body = []byte(opts.body)
	}
	if opts.jsonBody != "" {
		cfg.Body = []byte(opts.jsonBody)
		cfg.Headers["Content-Type"] = "application/json"
	}
	return cfg, nil
}

func render(res *result.Result, opts *options) error {
	rep, err := report.New(opts.output)
	if err != nil {
		return err
	}
	if opts.outFile != "" {
		return report.WriteFile(rep, opts.outFile, res)
	}
	return rep.Render(os.Stdout, res)
}

func saveHistory(path string, res *result.Result) error {
	store, err := history.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.SaveRun(res)
}

// checkThresholds gates CI runs: p99 first, then error rate. Either failure
// yields exit code 1 after the report has been emitted.
func checkThresholds(cmd *cobra.Command, opts *options, res *result.Result) error {
	f := cmd.Flags()
	if f.Changed("p99") && res.Latency.P99 > opts.p99 {
		return fail(ExitThreshold, "p99 %.2fms exceeds threshold %.2fms", res.Latency.P99, opts.p99)
	}
	if f.Changed("error-rate") && res.ErrorRate() > opts.errorRate {
		return fail(ExitThreshold, "error rate %.4f exceeds threshold %.4f", res.ErrorRate(), opts.errorRate)
	}
	return nil
}

// setupLogging configures logrus from the --log-* flags: format, level, and
// an optional log file that replaces stderr as the log destination.
func setupLogging(opts *options) error {
	if opts.logFormat == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(opts.logLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q", opts.logLevel)
	}
	logrus.SetLevel(level)
	if opts.logFile != "" {
		f, err := os.OpenFile(opts.logFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		logrus.SetOutput(f)
	} else {
		logrus.SetOutput(os.Stderr)
	}
	return nil
}
