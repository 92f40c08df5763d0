package report

import (
	"html/template"
	"io"
	"strconv"

	"github.com/ashavijit/swiftbench/internal/result"
)

// HTML renders a single self-contained report page.
type HTML struct{}

var htmlTmpl = template.Must(template.New("report").Parse(`<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>swiftbench — {{.URL}}</title>
<style>
body { font-family: -apple-system, Segoe UI, sans-serif; margin: 2rem; color: #222; }
h1 { font-size: 1.3rem; }
table { border-collapse: collapse; margin: 1rem 0; }
th, td { border: 1px solid #ccc; padding: 0.35rem 0.8rem; text-align: right; }
th { background: #f4f4f4; }
td.k, th.k { text-align: left; }
.muted { color: #888; font-size: 0.85rem; }
</style>
</head>
<body>
<h1>swiftbench report</h1>
<p>{{.Method}} {{.URL}} &mdash; {{.Connections}} connections, {{.Duration}}s{{if .RateStr}}, {{.RateStr}} req/s cap{{end}}</p>

<table>
<tr><th class="k">Requests</th><th>Total</th><th>Successful</th><th>Failed</th></tr>
<tr><td class="k"></td><td>{{.Requests.Total}}</td><td>{{.Requests.Successful}}</td><td>{{.Requests.Failed}}</td></tr>
</table>

<table>
<tr><th class="k">Throughput</th><th>req/s</th><th>bytes/s</th><th>total bytes</th></tr>
<tr><td class="k"></td><td>{{printf "%.2f" .Throughput.RPS}}</td><td>{{printf "%.2f" .Throughput.BytesPerSecond}}</td><td>{{.Throughput.TotalBytes}}</td></tr>
</table>

<table>
<tr><th class="k">Latency (ms)</th><th>min</th><th>mean</th><th>p50</th><th>p75</th><th>p90</th><th>p95</th><th>p99</th><th>p99.9</th><th>max</th><th>stddev</th></tr>
<tr><td class="k"></td>
<td>{{printf "%.2f" .Latency.Min}}</td><td>{{printf "%.2f" .Latency.Mean}}</td>
<td>{{printf "%.2f" .Latency.P50}}</td><td>{{printf "%.2f" .Latency.P75}}</td>
<td>{{printf "%.2f" .Latency.P90}}</td><td>{{printf "%.2f" .Latency.P95}}</td>
<td>{{printf "%.2f" .Latency.P99}}</td><td>{{printf "%.2f" .Latency.P999}}</td>
<td>{{printf "%.2f" .Latency.Max}}</td><td>{{printf "%.2f" .Latency.Stddev}}</td>
</tr>
</table>

{{if .Requests.Failed}}
<table>
<tr><th class="k">Errors</th><th>count</th></tr>
<tr><td class="k">timeouts</td><td>{{.Errors.Timeouts}}</td></tr>
<tr><td class="k">connection errors</td><td>{{.Errors.ConnectionErrors}}</td></tr>
{{range $code, $n := .Errors.ByStatusCode}}
<tr><td class="k">HTTP {{$code}}</td><td>{{$n}}</td></tr>
{{end}}
</table>
{{end}}

<p class="muted">{{.Timestamp}} &middot; swiftbench {{.Meta.Version}} ({{.Meta.NodeVersion}}, {{.Meta.Platform}})</p>
</body>
</html>
`))

type htmlView struct {
	*result.Result
	RateStr string
}

func (HTML) Render(w io.Writer, res *result.Result) error {
	v := htmlView{Result: res}
	if res.Rate != nil {
		v.RateStr = strconv.Itoa(*res.Rate)
	}
	return htmlTmpl.Execute(w, v)
}
