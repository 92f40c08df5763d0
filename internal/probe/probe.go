// Package probe implements the pre-flight reachability check. It runs before
// any worker is spawned; a failure here aborts the run with no result.
package probe

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultTimeout bounds the probe independently of the benchmark's
// per-request timeout.
const DefaultTimeout = 3 * time.Second

// Check issues a single HEAD request against the target. Any HTTP response,
// whatever its status, proves the target reachable; transport errors do not.
func Check(ctx context.Context, url string, insecure bool) error {
	client := &http.Client{
		Timeout: DefaultTimeout,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				MinVersion:         tls.VersionTLS12,
				InsecureSkipVerify: insecure,
			},
		},
	}
	defer client.CloseIdleConnections()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return fmt.Errorf("probe %s: %w", url, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("target unreachable: %w", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return nil
}
