package client

import (
	"bufio"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/reqmin/pkg/rawhttp"
)

func rawGet(host, path string, extra ...string) []byte {
	lines := []string{"GET " + path + " HTTP/1.1", "Host: " + host}
	lines = append(lines, extra...)
	lines = append(lines, "Connection: close")
	return rawhttp.Build(lines, nil)
}

func newTarget(t *testing.T, srvURL string) rawhttp.Target {
	t.Helper()
	target, err := rawhttp.ParseTarget(srvURL)
	require.NoError(t, err)
	return target
}

func TestSend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Seen", r.Header.Get("X-Foo"))
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprint(w, "hello")
	}))
	defer srv.Close()

	target := newTarget(t, srv.URL)
	resp, err := New().Send(context.Background(), target, rawGet(target.Addr(), "/", "X-Foo: bar"))
	require.NoError(t, err)

	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "OK", resp.Reason)
	assert.Equal(t, "bar", resp.Headers.Get("X-Seen"))
	assert.Equal(t, "hello", string(resp.Body))
}

func TestSend_Chunked(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "part1")
		w.(http.Flusher).Flush()
		fmt.Fprint(w, "part2")
	}))
	defer srv.Close()

	target := newTarget(t, srv.URL)
	resp, err := New().Send(context.Background(), target, rawGet(target.Addr(), "/"))
	require.NoError(t, err)
	assert.Equal(t, "part1part2", string(resp.Body))
}

func TestSend_HeadHasNoBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Length", "42")
	}))
	defer srv.Close()

	target := newTarget(t, srv.URL)
	raw := rawhttp.Build([]string{"HEAD / HTTP/1.1", "Host: " + target.Addr(), "Connection: close"}, nil)
	resp, err := New().Send(context.Background(), target, raw)
	require.NoError(t, err)
	assert.Empty(t, resp.Body)
	assert.Equal(t, "42", resp.Headers.Get("Content-Length"))
}

func TestSend_TLS(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "secure")
	}))
	defer srv.Close()

	target := newTarget(t, srv.URL)
	require.True(t, target.TLS)

	_, err := New().Send(context.Background(), target, rawGet(target.Addr(), "/"))
	var te *TransportError
	require.ErrorAs(t, err, &te, "self-signed certificate must fail verification by default")
	assert.Equal(t, "tls", te.Op)

	resp, err := New(WithInsecureSkipVerify(true)).Send(context.Background(), target, rawGet(target.Addr(), "/"))
	require.NoError(t, err)
	assert.Equal(t, "secure", string(resp.Body))
}

func TestSend_MaxResponseBytes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, strings.Repeat("x", 100))
	}))
	defer srv.Close()

	target := newTarget(t, srv.URL)
	resp, err := New(WithMaxResponseBytes(10)).Send(context.Background(), target, rawGet(target.Addr(), "/"))
	require.NoError(t, err)
	assert.Len(t, resp.Body, 10)
}

func TestSend_Timeout(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			defer conn.Close()
		}
	}()

	target := newTarget(t, "http://"+ln.Addr().String())
	start := time.Now()
	_, err = New(WithTimeout(100*time.Millisecond)).Send(context.Background(), target, rawGet(target.Addr(), "/"))

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.True(t, te.Timeout())
	assert.Equal(t, "read", te.Op)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestSend_Cancelled(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			defer conn.Close()
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	target := newTarget(t, "http://"+ln.Addr().String())
	_, err = New(WithTimeout(0)).Send(ctx, target, rawGet(target.Addr(), "/"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestSend_DialError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	target := newTarget(t, "http://"+addr)
	_, err = New().Send(context.Background(), target, rawGet(addr, "/"))

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "dial", te.Op)
	assert.False(t, te.Timeout())
}

func TestSend_ExpectContinue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.PostForm.Get("b") == "" {
			http.Error(w, "missing b", http.StatusForbidden)
			return
		}
		fmt.Fprint(w, "ok")
	}))
	defer srv.Close()

	target := newTarget(t, srv.URL)
	post := func(body string) []byte {
		return rawhttp.Build([]string{
			"POST /submit HTTP/1.1",
			"Host: " + target.Addr(),
			"Content-Type: application/x-www-form-urlencoded",
			fmt.Sprintf("Content-Length: %d", len(body)),
			"Expect: 100-continue",
			"Connection: close",
		}, []byte(body))
	}

	tests := []struct {
		name     string
		body     string
		wantCode int
		wantBody string
	}{
		{name: "accepted", body: "a=1&b=2", wantCode: 200, wantBody: "ok"},
		{name: "rejected", body: "a=1", wantCode: 403, wantBody: "missing b\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := New().Send(context.Background(), target, post(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, resp.StatusCode)
			assert.Equal(t, tt.wantBody, string(resp.Body))
		})
	}
}

func TestReadResponse_Interim(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "final only",
			raw:        "HTTP/1.1 200 OK\r\nContent-Length: 2\r\n\r\nok",
			wantStatus: 200,
			wantBody:   "ok",
		},
		{
			name: "continue then final",
			raw: "HTTP/1.1 100 Continue\r\n\r\n" +
				"HTTP/1.1 403 Forbidden\r\nContent-Length: 4\r\n\r\nnope",
			wantStatus: 403,
			wantBody:   "nope",
		},
		{
			name: "several interim responses",
			raw: "HTTP/1.1 100 Continue\r\n\r\n" +
				"HTTP/1.1 103 Early Hints\r\nLink: </a.css>; rel=preload\r\n\r\n" +
				"HTTP/1.1 201 Created\r\nContent-Length: 0\r\n\r\n",
			wantStatus: 201,
		},
		{
			name:       "switching protocols is final",
			raw:        "HTTP/1.1 101 Switching Protocols\r\nUpgrade: websocket\r\nConnection: Upgrade\r\n\r\n",
			wantStatus: 101,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := New().readResponse(bufio.NewReader(strings.NewReader(tt.raw)), http.MethodPost)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantBody, string(resp.Body))
		})
	}
}

func TestReadResponse_OnlyInterim(t *testing.T) {
	_, err := New().readResponse(bufio.NewReader(strings.NewReader("HTTP/1.1 100 Continue\r\n\r\n")), http.MethodPost)
	assert.Error(t, err)
}

func TestTLSOptions(t *testing.T) {
	t.Run("nil config", func(t *testing.T) {
		c := New(WithTLSConfig(nil), WithInsecureSkipVerify(true))
		require.NotNil(t, c.tlsConfig)
		assert.True(t, c.tlsConfig.InsecureSkipVerify)
	})

	t.Run("caller config untouched", func(t *testing.T) {
		own := &tls.Config{ServerName: "api.test"}
		c := New(WithTLSConfig(own), WithInsecureSkipVerify(true))

		assert.False(t, own.InsecureSkipVerify)
		assert.True(t, c.tlsConfig.InsecureSkipVerify)
		assert.Equal(t, "api.test", c.tlsConfig.ServerName)
	})
}

func TestRequestMethod(t *testing.T) {
	assert.Equal(t, "POST", requestMethod([]byte("POST / HTTP/1.1\r\n")))
	assert.Equal(t, "GET", requestMethod(nil))
}
