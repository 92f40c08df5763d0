package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ashavijit/swiftbench/internal/result"
)

func TestBuildConfigFromFlags(t *testing.T) {
	cmd, opts := newRootCmd()
	if err := cmd.ParseFlags([]string{
		"-c", "20", "-d", "5", "--rate", "300", "--timeout", "2000",
		"-m", "post", "-H", "X-A: 1", "-H", "X-B: 2", "--json", `{"k":1}`,
		"--http2",
	}); err != nil {
		t.Fatal(err)
	}
	cfg, err := buildConfig(cmd, opts, []string{"http://localhost:9999/"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Connections != 20 || cfg.Duration != 5*time.Second || cfg.Rate != 300 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Timeout != 2*time.Second {
		t.Errorf("Timeout = %v", cfg.Timeout)
	}
	if cfg.Headers["X-A"] != "1" || cfg.Headers["X-B"] != "2" {
		t.Errorf("Headers = %v", cfg.Headers)
	}
	if cfg.Headers["Content-Type"] != "application/json" {
		t.Error("--json should set Content-Type")
	}
	if string(cfg.Body) != `{"k":1}` {
		t.Errorf("Body = %q", cfg.Body)
	}
	if !cfg.HTTP2 {
		t.Error("HTTP2 flag not applied")
	}
}

func TestBuildConfigFlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bench.yaml")
	os.WriteFile(path, []byte("url: http://from-file/\nconnections: 99\nduration: 60\n"), 0644)

	cmd, opts := newRootCmd()
	opts.configFile = path
	if err := cmd.ParseFlags([]string{"-c", "10"}); err != nil {
		t.Fatal(err)
	}
	cfg, err := buildConfig(cmd, opts, nil)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.URL != "http://from-file/" {
		t.Errorf("URL = %q, want file value", cfg.URL)
	}
	if cfg.Connections != 10 {
		t.Errorf("Connections = %d, want flag override 10", cfg.Connections)
	}
	if cfg.Duration != 60*time.Second {
		t.Errorf("Duration = %v, want file value 60s", cfg.Duration)
	}
}

func TestBuildConfigRejectsBodyAndJSON(t *testing.T) {
	cmd, opts := newRootCmd()
	if err := cmd.ParseFlags([]string{"--body", "x", "--json", "y"}); err != nil {
		t.Fatal(err)
	}
	if _, err := buildConfig(cmd, opts, []string{"http://x/"}); err == nil {
		t.Error("expected mutual-exclusion error")
	}
}

func TestBuildConfigRequiresURL(t *testing.T) {
	cmd, opts := newRootCmd()
	if err := cmd.ParseFlags(nil); err != nil {
		t.Fatal(err)
	}
	if _, err := buildConfig(cmd, opts, nil); err == nil {
		t.Error("expected missing-URL error")
	}
}

func thresholdResult(p99 float64, failed, total uint64) *result.Result {
	return &result.Result{
		Requests: result.Requests{Total: total, Failed: failed, Successful: total - failed},
		Latency:  result.Latency{P99: p99},
	}
}

func TestCheckThresholds(t *testing.T) {
	// p99 over the limit fails with exit code 1.
	cmd, opts := newRootCmd()
	if err := cmd.ParseFlags([]string{"--p99", "1"}); err != nil {
		t.Fatal(err)
	}
	err := checkThresholds(cmd, opts, thresholdResult(5.0, 0, 100))
	var xe *exitError
	if !errors.As(err, &xe) || xe.code != ExitThreshold {
		t.Errorf("p99 breach: err = %v", err)
	}

	// p99 exactly at the limit passes (strict comparison).
	cmd, opts = newRootCmd()
	if err := cmd.ParseFlags([]string{"--p99", "5"}); err != nil {
		t.Fatal(err)
	}
	if err := checkThresholds(cmd, opts, thresholdResult(5.0, 0, 100)); err != nil {
		t.Errorf("p99 at threshold should pass: %v", err)
	}

	// Error-rate breach, including the zero threshold.
	cmd, opts = newRootCmd()
	if err := cmd.ParseFlags([]string{"--error-rate", "0.0"}); err != nil {
		t.Fatal(err)
	}
	err = checkThresholds(cmd, opts, thresholdResult(1.0, 1, 100))
	if !errors.As(err, &xe) || xe.code != ExitThreshold {
		t.Errorf("error-rate breach: err = %v", err)
	}

	// No thresholds configured: always passes.
	cmd, opts = newRootCmd()
	if err := cmd.ParseFlags(nil); err != nil {
		t.Fatal(err)
	}
	if err := checkThresholds(cmd, opts, thresholdResult(100, 50, 100)); err != nil {
		t.Errorf("unset thresholds should pass: %v", err)
	}
}
