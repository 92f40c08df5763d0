// Package compare runs the same benchmark sequentially against several URLs
// and renders a side-by-side table. Its only dependency on the core is the
// result record shape.
package compare

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/sirupsen/logrus"

	"github.com/ashavijit/swiftbench/internal/config"
	"github.com/ashavijit/swiftbench/internal/engine"
	"github.com/ashavijit/swiftbench/internal/result"
)

// Run benchmarks each URL in order with an otherwise identical
// configuration.
func Run(ctx context.Context, base config.Benchmark, urls []string) ([]*result.Result, error) {
	results := make([]*result.Result, 0, len(urls))
	for _, url := range urls {
		cfg := base
		cfg.URL = url
		logrus.Infof("comparing %s", url)
		res, err := engine.Run(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("benchmark %s: %w", url, err)
		}
		results = append(results, res)
	}
	return results, nil
}

// RenderTable writes the comparison summary.
func RenderTable(out io.Writer, results []*result.Result) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "URL\tReq/s\tRequests\tFailed\tp50 (ms)\tp99 (ms)\tError %")
	for _, res := range results {
		fmt.Fprintf(w, "%s\t%.2f\t%d\t%d\t%.2f\t%.2f\t%.2f\n",
			res.URL, res.Throughput.RPS, res.Requests.Total, res.Requests.Failed,
			res.Latency.P50, res.Latency.P99, res.ErrorRate()*100)
	}
	return w.Flush()
}
