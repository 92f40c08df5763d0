// Package config holds the immutable per-benchmark configuration, its
// defaults, and its validation rules.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Defaults applied by Normalize.
const (
	DefaultConnections = 50
	DefaultDuration    = 10 * time.Second
	DefaultTimeout     = 5000 * time.Millisecond
	DefaultMethod      = "GET"
)

var allowedMethods = map[string]bool{
	"GET": true, "POST": true, "PUT": true, "PATCH": true,
	"DELETE": true, "HEAD": true, "OPTIONS": true,
}

// Benchmark is the full configuration for one run. Created once per run and
// never mutated after Normalize.
type Benchmark struct {
	URL         string
	Method      string
	Headers     map[string]string
	Body        []byte
	Connections int           // aggregate concurrency C
	Duration    time.Duration // run window D
	Rate        int           // aggregate req/s, 0 = unlimited
	Timeout     time.Duration // per-request deadline T
	Warmup      time.Duration // W, samples included in metrics
	RampUp      time.Duration // linear rate ramp, 0 = off
	HTTP2       bool
	Insecure    bool
}

// Normalize fills unset fields with their defaults.
func (b *Benchmark) Normalize() {
	if b.Connections <= 0 {
		b.Connections = DefaultConnections
	}
	if b.Duration <= 0 {
		b.Duration = DefaultDuration
	}
	if b.Timeout <= 0 {
		b.Timeout = DefaultTimeout
	}
	if b.Method == "" {
		b.Method = DefaultMethod
	}
	b.Method = strings.ToUpper(b.Method)
	if b.Headers == nil {
		b.Headers = map[string]string{}
	}
}

// Validate reports the first configuration error. Called after Normalize and
// before any worker is spawned.
func (b *Benchmark) Validate() error {
	if b.URL == "" {
		return fmt.Errorf("target URL is required")
	}
	u, err := url.Parse(b.URL)
	if err != nil {
		return fmt.Errorf("invalid URL %q: %w", b.URL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported URL scheme %q (want http or https)", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL %q has no host", b.URL)
	}
	if !allowedMethods[b.Method] {
		return fmt.Errorf("unsupported method %q", b.Method)
	}
	if b.Connections < 1 {
		return fmt.Errorf("connections must be >= 1")
	}
	if b.Duration < time.Second {
		return fmt.Errorf("duration must be >= 1s")
	}
	if b.Rate < 0 {
		return fmt.Errorf("rate must be > 0 when set")
	}
	if b.Timeout <= 0 {
		return fmt.Errorf("timeout must be > 0")
	}
	if b.Warmup < 0 {
		return fmt.Errorf("warmup cannot be negative")
	}
	if b.RampUp < 0 {
		return fmt.Errorf("ramp-up cannot be negative")
	}
	return nil
}

// ParseHeader splits a "Name: Value" flag argument.
func ParseHeader(s string) (string, string, error) {
	name, value, ok := strings.Cut(s, ":")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return "", "", fmt.Errorf("malformed header %q (want \"Name: Value\")", s)
	}
	return name, strings.TrimSpace(value), nil
}
