package rawhttp

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// Target identifies the service a raw request is sent to.
type Target struct {
	Host string `json:"host"`
	Port int    `json:"port"`
	TLS  bool   `json:"tls"`
}

// Addr returns host:port for dialing.
func (t Target) Addr() string {
	return net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
}

// String renders the target as a scheme://host:port URL.
func (t Target) String() string {
	scheme := "http"
	if t.TLS {
		scheme = "https"
	}
	return scheme + "://" + t.Addr()
}

// Validate reports whether the target can be dialed.
func (t Target) Validate() error {
	if t.Host == "" {
		return fmt.Errorf("rawhttp: target host is required")
	}
	if t.Port <= 0 || t.Port > 65535 {
		return fmt.Errorf("rawhttp: target port %d out of range", t.Port)
	}
	return nil
}

// ParseTarget parses "http://host[:port]" or "https://host[:port]". Paths
// and queries are ignored.
func ParseTarget(raw string) (Target, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Target{}, fmt.Errorf("rawhttp: parsing target URL: %w", err)
	}

	t := Target{Host: u.Hostname()}
	switch strings.ToLower(u.Scheme) {
	case "https":
		t.TLS = true
		t.Port = 443
	case "http":
		t.Port = 80
	default:
		return Target{}, fmt.Errorf("rawhttp: unsupported scheme %q", u.Scheme)
	}

	if p := u.Port(); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return Target{}, fmt.Errorf("rawhttp: invalid port %q", p)
		}
		t.Port = port
	}
	return t, t.Validate()
}

// TargetFromHost derives a target from the request's Host header.
func TargetFromHost(r *Request, useTLS bool) (Target, error) {
	host, ok := r.Header("Host")
	if !ok || host == "" {
		return Target{}, fmt.Errorf("rawhttp: request has no Host header")
	}
	scheme := "http://"
	if useTLS {
		scheme = "https://"
	}
	return ParseTarget(scheme + host)
}
