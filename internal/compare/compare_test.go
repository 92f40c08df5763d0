package compare

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ashavijit/swiftbench/internal/config"
	"github.com/ashavijit/swiftbench/internal/result"
)

func TestRunBenchmarksEachURL(t *testing.T) {
	a := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("a"))
	}))
	defer a.Close()
	b := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("b"))
	}))
	defer b.Close()

	base := config.Benchmark{
		Method:      "GET",
		Connections: 2,
		Duration:    time.Second,
		Timeout:     time.Second,
	}
	results, err := Run(context.Background(), base, []string{a.URL, b.URL})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	if results[0].URL != a.URL || results[1].URL != b.URL {
		t.Error("results out of order")
	}
	for _, res := range results {
		if res.Requests.Total == 0 {
			t.Errorf("%s: no requests", res.URL)
		}
	}
}

func TestRenderTable(t *testing.T) {
	rate := 100
	results := []*result.Result{
		{
			URL:        "http://a/",
			Rate:       &rate,
			Requests:   result.Requests{Total: 100, Failed: 5, Successful: 95},
			Throughput: result.Throughput{RPS: 50},
			Latency:    result.Latency{P50: 1.5, P99: 9.5},
		},
		{
			URL:        "http://b/",
			Requests:   result.Requests{Total: 200, Successful: 200},
			Throughput: result.Throughput{RPS: 99},
			Latency:    result.Latency{P50: 0.5, P99: 2.5},
		},
	}
	var buf bytes.Buffer
	if err := RenderTable(&buf, results); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"http://a/", "http://b/", "p99", "5.00"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}
