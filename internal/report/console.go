package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/ashavijit/swiftbench/internal/result"
)

// Console renders an aligned terminal summary.
type Console struct{}

// Render writes the human-readable report.
func (Console) Render(out io.Writer, res *result.Result) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	fmt.Fprintf(w, "Benchmark\t%s %s\n", res.Method, res.URL)
	fmt.Fprintf(w, "Duration\t%s\tConnections\t%d\n",
		time.Duration(res.Duration*float64(time.Second)), res.Connections)
	if res.Rate != nil {
		fmt.Fprintf(w, "Rate limit\t%d req/s\n", *res.Rate)
	}
	fmt.Fprintln(w, "--------------------")

	fmt.Fprintf(w, "Requests\t%d\tSuccessful\t%d\tFailed\t%d\n",
		res.Requests.Total, res.Requests.Successful, res.Requests.Failed)
	fmt.Fprintf(w, "Throughput\t%.2f req/s\t%.2f B/s\t%d bytes\n",
		res.Throughput.RPS, res.Throughput.BytesPerSecond, res.Throughput.TotalBytes)
	fmt.Fprintln(w, "--------------------")

	fmt.Fprintln(w, "Latency (ms)\tmin\tmean\tp50\tp75\tp90\tp95\tp99\tp99.9\tmax\tstddev")
	fmt.Fprintf(w, "\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\n",
		res.Latency.Min, res.Latency.Mean, res.Latency.P50, res.Latency.P75,
		res.Latency.P90, res.Latency.P95, res.Latency.P99, res.Latency.P999,
		res.Latency.Max, res.Latency.Stddev)

	if res.Requests.Failed > 0 {
		fmt.Fprintln(w, "--------------------")
		fmt.Fprintf(w, "Errors\ttimeouts=%d\tconnection=%d\n",
			res.Errors.Timeouts, res.Errors.ConnectionErrors)
		codes := make([]string, 0, len(res.Errors.ByStatusCode))
		for code := range res.Errors.ByStatusCode {
			codes = append(codes, code)
		}
		sort.Slice(codes, func(i, j int) bool {
			a, _ := strconv.Atoi(codes[i])
			b, _ := strconv.Atoi(codes[j])
			return a < b
		})
		for _, code := range codes {
			fmt.Fprintf(w, "\tHTTP %s\t%d\n", code, res.Errors.ByStatusCode[code])
		}
	}

	return w.Flush()
}
