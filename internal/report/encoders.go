package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/ashavijit/swiftbench/internal/result"
)

// JSON renders the result record with its contract key names, indented.
type JSON struct{}

func (JSON) Render(w io.Writer, res *result.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// CSV renders a header row and a single record row, flat enough for
// spreadsheet import.
type CSV struct{}

func (CSV) Render(w io.Writer, res *result.Result) error {
	cw := csv.NewWriter(w)
	header := []string{
		"url", "method", "duration", "connections", "rate",
		"requests_total", "requests_successful", "requests_failed",
		"rps", "bytes_per_second", "total_bytes",
		"latency_min_ms", "latency_max_ms", "latency_mean_ms", "latency_stddev_ms",
		"latency_p50_ms", "latency_p75_ms", "latency_p90_ms", "latency_p95_ms",
		"latency_p99_ms", "latency_p999_ms",
		"timeouts", "connection_errors", "timestamp",
	}
	rate := ""
	if res.Rate != nil {
		rate = strconv.Itoa(*res.Rate)
	}
	row := []string{
		res.URL, res.Method,
		strconv.FormatFloat(res.Duration, 'f', -1, 64),
		strconv.Itoa(res.Connections), rate,
		strconv.FormatUint(res.Requests.Total, 10),
		strconv.FormatUint(res.Requests.Successful, 10),
		strconv.FormatUint(res.Requests.Failed, 10),
		fmt.Sprintf("%.2f", res.Throughput.RPS),
		fmt.Sprintf("%.2f", res.Throughput.BytesPerSecond),
		strconv.FormatInt(res.Throughput.TotalBytes, 10),
		fmt.Sprintf("%.2f", res.Latency.Min),
		fmt.Sprintf("%.2f", res.Latency.Max),
		fmt.Sprintf("%.2f", res.Latency.Mean),
		fmt.Sprintf("%.2f", res.Latency.Stddev),
		fmt.Sprintf("%.2f", res.Latency.P50),
		fmt.Sprintf("%.2f", res.Latency.P75),
		fmt.Sprintf("%.2f", res.Latency.P90),
		fmt.Sprintf("%.2f", res.Latency.P95),
		fmt.Sprintf("%.2f", res.Latency.P99),
		fmt.Sprintf("%.2f", res.Latency.P999),
		strconv.FormatUint(res.Errors.Timeouts, 10),
		strconv.FormatUint(res.Errors.ConnectionErrors, 10),
		res.Timestamp,
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.Write(row); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}
