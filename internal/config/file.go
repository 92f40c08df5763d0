package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// File is the YAML benchmark file accepted by --config. Units match the CLI
// flags: timeout is plain milliseconds, the other durations plain seconds.
// Explicit flags override file values.
type File struct {
	URL         string            `yaml:"url"`
	Method      string            `yaml:"method"`
	Headers     map[string]string `yaml:"headers"`
	Body        string            `yaml:"body"`
	Connections int               `yaml:"connections"`
	Duration    int               `yaml:"duration"`
	Rate        int               `yaml:"rate"`
	Timeout     int               `yaml:"timeout"`
	Warmup      int               `yaml:"warmup"`
	RampUp      int               `yaml:"ramp_up"`
	HTTP2       bool              `yaml:"http2"`
	Insecure    bool              `yaml:"insecure"`
}

// LoadFile reads a benchmark file and maps it onto a Benchmark. Zero values
// stay zero so Normalize can apply defaults afterwards.
func LoadFile(path string) (Benchmark, error) {
	var b Benchmark
	raw, err := os.ReadFile(path)
	if err != nil {
		return b, fmt.Errorf("read config file: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return b, fmt.Errorf("parse config file %s: %w", path, err)
	}
	b = Benchmark{
		URL:         f.URL,
		Method:      f.Method,
		Headers:     f.Headers,
		Connections: f.Connections,
		Duration:    time.Duration(f.Duration) * time.Second,
		Rate:        f.Rate,
		Timeout:     time.Duration(f.Timeout) * time.Millisecond,
		Warmup:      time.Duration(f.Warmup) * time.Second,
		RampUp:      time.Duration(f.RampUp) * time.Second,
		HTTP2:       f.HTTP2,
		Insecure:    f.Insecure,
	}
	if f.Body != "" {
		b.Body = []byte(f.Body)
	}
	return b, nil
}
