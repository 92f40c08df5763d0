// Package httpclient wraps a per-worker keep-alive connection pool and
// measures end-to-end request latency: wall clock from immediately before
// dispatch to immediately after the response body is fully consumed.
package httpclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/http2"
)

const (
	tcpDialTimeout       = 5 * time.Second
	tcpKeepAliveInterval = 30 * time.Second
	tlsHandshakeTimeout  = 5 * time.Second
	idleConnTimeout      = 90 * time.Second
)

// Config describes one worker's connection pool.
type Config struct {
	Conns    int           // pool size against the target origin
	Timeout  time.Duration // per-request deadline, headers and body combined
	HTTP2    bool          // prefer HTTP/2 over TLS
	Insecure bool          // skip TLS certificate verification
}

// Response is the outcome of a completed request. Non-success HTTP status
// codes are not errors at this layer; they come back here with their code.
type Response struct {
	Status  int
	Bytes   int64
	Latency time.Duration
}

// Client issues requests over a fixed pool of persistent connections.
type Client struct {
	hc      *http.Client
	tr      *http.Transport
	timeout time.Duration
}

// New builds a client whose transport holds cfg.Conns keep-alive connections
// against the target host.
func New(cfg Config) *Client {
	tr := &http.Transport{
		TLSClientConfig: &tls.Config{
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: cfg.Insecure,
		},
		MaxIdleConns:        cfg.Conns,
		MaxIdleConnsPerHost: cfg.Conns,
		MaxConnsPerHost:     cfg.Conns,
		IdleConnTimeout:     idleConnTimeout,
		ForceAttemptHTTP2:   cfg.HTTP2,
		DialContext: (&net.Dialer{
			Timeout:   tcpDialTimeout,
			KeepAlive: tcpKeepAliveInterval,
		}).DialContext,
		TLSHandshakeTimeout: tlsHandshakeTimeout,
	}
	if cfg.HTTP2 {
		// Lets the pool multiplex streams instead of queueing on connections.
		_ = http2.ConfigureTransport(tr)
	}
	return &Client{
		hc: &http.Client{
			Transport: tr,
			// Redirect statuses are part of the success set and must be
			// observed as-is, never chased.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		tr:      tr,
		timeout: cfg.Timeout,
	}
}

// Do issues one request and fully consumes the response body. The returned
// latency covers dispatch through body drain. Errors are always of type
// *RequestError.
func (c *Client) Do(ctx context.Context, method, url string, headers map[string]string, body []byte) (Response, error) {
	rctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var rd io.Reader
	if len(body) > 0 {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(rctx, method, url, rd)
	if err != nil {
		return Response{}, &RequestError{Kind: KindProtocol, Err: err}
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		return Response{Latency: time.Since(start)}, classify(err)
	}
	n, err := io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	latency := time.Since(start)
	if err != nil {
		return Response{Status: resp.StatusCode, Bytes: n, Latency: latency}, classify(err)
	}
	return Response{Status: resp.StatusCode, Bytes: n, Latency: latency}, nil
}

// Close releases the pool's idle connections.
func (c *Client) Close() {
	c.tr.CloseIdleConnections()
}

// classify maps a transport error onto the request-layer taxonomy: the
// configured deadline tripping is a timeout, anything at the socket or TLS
// level is a connection error, and whatever remains is a protocol error.
func classify(err error) *RequestError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &RequestError{Kind: KindTimeout, Err: err}
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return &RequestError{Kind: KindTimeout, Err: err}
	}
	var operr *net.OpError
	if errors.As(err, &operr) {
		return &RequestError{Kind: KindConnection, Err: err}
	}
	var dnserr *net.DNSError
	if errors.As(err, &dnserr) {
		return &RequestError{Kind: KindConnection, Err: err}
	}
	var certerr *tls.CertificateVerificationError
	if errors.As(err, &certerr) {
		return &RequestError{Kind: KindConnection, Err: err}
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return &RequestError{Kind: KindConnection, Err: err}
	}
	return &RequestError{Kind: KindProtocol, Err: err}
}
