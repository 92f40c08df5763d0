// Package report renders a result record for humans or pipelines. The
// record itself is the stable contract; reporters are free-form consumers.
package report

import (
	"fmt"
	"io"
	"os"

	"github.com/ashavijit/swiftbench/internal/result"
)

// Reporter renders one result record onto a writer.
type Reporter interface {
	Render(w io.Writer, res *result.Result) error
}

// New returns the reporter for a --output format token.
func New(format string) (Reporter, error) {
	switch format {
	case "", "console":
		return Console{}, nil
	case "json":
		return JSON{}, nil
	case "html":
		return HTML{}, nil
	case "csv":
		return CSV{}, nil
	}
	return nil, fmt.Errorf("unknown output format %q (want console, json, html, or csv)", format)
}

// WriteFile renders into path, creating or truncating it.
func WriteFile(r Reporter, path string, res *result.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	if err := r.Render(f, res); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
