package client

import (
	"bufio"
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/usestring/reqmin/pkg/rawhttp"
)

// Defaults applied by New.
const (
	DefaultTimeout          = 10 * time.Second
	DefaultMaxResponseBytes = 10 << 20
)

// Client sends raw HTTP/1.x requests over plain TCP or TLS. The request
// bytes are written exactly as given; nothing is normalized or added.
type Client struct {
	dialer           *net.Dialer
	tlsConfig        *tls.Config
	timeout          time.Duration
	maxResponseBytes int64
}

// Option is a functional option for configuring the Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout covering dial, write, and read.
// Zero disables it; the caller's context still applies.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithTLSConfig sets the TLS configuration used for TLS targets. The
// config is cloned; nil restores the default.
func WithTLSConfig(cfg *tls.Config) Option {
	return func(c *Client) {
		if cfg == nil {
			c.tlsConfig = defaultTLSConfig()
			return
		}
		c.tlsConfig = cfg.Clone()
	}
}

// WithInsecureSkipVerify disables certificate verification for TLS targets.
func WithInsecureSkipVerify(skip bool) Option {
	return func(c *Client) {
		cfg := c.tlsConfig.Clone()
		if cfg == nil {
			cfg = defaultTLSConfig()
		}
		cfg.InsecureSkipVerify = skip
		c.tlsConfig = cfg
	}
}

func defaultTLSConfig() *tls.Config {
	return &tls.Config{MinVersion: tls.VersionTLS12}
}

// WithMaxResponseBytes caps the response body. Longer bodies are truncated.
func WithMaxResponseBytes(n int64) Option {
	return func(c *Client) {
		c.maxResponseBytes = n
	}
}

// WithDialer sets a custom dialer.
func WithDialer(d *net.Dialer) Option {
	return func(c *Client) {
		c.dialer = d
	}
}

// New creates a raw HTTP client.
func New(opts ...Option) *Client {
	c := &Client{
		dialer:           &net.Dialer{},
		tlsConfig:        defaultTLSConfig(),
		timeout:          DefaultTimeout,
		maxResponseBytes: DefaultMaxResponseBytes,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send writes raw to target and reads one response. Every failure is
// returned as a *TransportError.
func (c *Client) Send(ctx context.Context, target rawhttp.Target, raw []byte) (*rawhttp.Response, error) {
	start := time.Now()
	method := requestMethod(raw)

	resp, err := c.roundTrip(ctx, target, method, raw)
	if err != nil {
		slog.Debug("raw request failed",
			slog.String("target", target.String()),
			slog.String("method", method),
			slog.String("error", err.Error()),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return nil, err
	}

	slog.Debug("raw request completed",
		slog.String("target", target.String()),
		slog.String("method", method),
		slog.Int("status", resp.StatusCode),
		slog.Int("body_bytes", len(resp.Body)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return resp, nil
}

func (c *Client) roundTrip(ctx context.Context, target rawhttp.Target, method string, raw []byte) (*rawhttp.Response, error) {
	if err := target.Validate(); err != nil {
		return nil, &TransportError{Target: target, Op: "dial", Err: err}
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	conn, err := c.dialer.DialContext(ctx, "tcp", target.Addr())
	if err != nil {
		return nil, &TransportError{Target: target, Op: "dial", Err: err}
	}
	defer conn.Close()

	if target.TLS {
		cfg := c.tlsConfig.Clone()
		if cfg == nil {
			cfg = defaultTLSConfig()
		}
		if cfg.ServerName == "" {
			cfg.ServerName = target.Host
		}
		tlsConn := tls.Client(conn, cfg)
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			return nil, &TransportError{Target: target, Op: "tls", Err: err}
		}
		conn = tlsConn
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Unix(1, 0)) })
	defer stop()

	if _, err := conn.Write(raw); err != nil {
		return nil, &TransportError{Target: target, Op: "write", Err: ctxErr(ctx, err)}
	}

	resp, err := c.readResponse(bufio.NewReader(conn), method)
	if err != nil {
		return nil, &TransportError{Target: target, Op: "read", Err: ctxErr(ctx, err)}
	}
	return resp, nil
}

// readResponse reads the header block verbatim to keep header order and
// case, then lets net/http frame the body (Content-Length, chunked, or
// read-until-close). Interim 1xx responses other than 101 are skipped, so
// "Expect: 100-continue" requests yield the final response.
func (c *Client) readResponse(br *bufio.Reader, method string) (*rawhttp.Response, error) {
	var (
		head []byte
		out  *rawhttp.Response
	)
	for {
		var err error
		head, err = readHead(br)
		if err != nil {
			return nil, err
		}
		out, err = rawhttp.ParseResponseHead(head)
		if err != nil {
			return nil, err
		}
		if !isInterim(out.StatusCode) {
			break
		}
		slog.Debug("skipping interim response", slog.Int("status", out.StatusCode))
	}

	framed, err := http.ReadResponse(bufio.NewReader(io.MultiReader(bytes.NewReader(head), br)), &http.Request{Method: method})
	if err != nil {
		return nil, fmt.Errorf("framing response: %w", err)
	}
	defer framed.Body.Close()

	body, err := io.ReadAll(io.LimitReader(framed.Body, c.maxResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if int64(len(body)) > c.maxResponseBytes {
		slog.Warn("response body truncated", slog.Int64("max_bytes", c.maxResponseBytes))
		body = body[:c.maxResponseBytes]
	}
	out.Body = body
	return out, nil
}

func readHead(br *bufio.Reader) ([]byte, error) {
	var head bytes.Buffer
	for {
		line, err := br.ReadString('\n')
		head.WriteString(line)
		if err != nil {
			return nil, fmt.Errorf("reading response head: %w", err)
		}
		if line == "\r\n" || line == "\n" {
			return head.Bytes(), nil
		}
	}
}

// isInterim reports a 1xx status that is followed by another response.
// 101 Switching Protocols is final for the HTTP exchange.
func isInterim(status int) bool {
	return status >= 100 && status < 200 && status != http.StatusSwitchingProtocols
}

// ctxErr prefers the context's error over the i/o error it caused.
func ctxErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("%w: %w", ctx.Err(), err)
	}
	return err
}

func requestMethod(raw []byte) string {
	line, _, _ := bytes.Cut(raw, []byte("\n"))
	if f := bytes.Fields(line); len(f) > 0 {
		return string(f[0])
	}
	return http.MethodGet
}
