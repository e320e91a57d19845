// Package client sends raw HTTP/1.x requests to a target and parses the
// responses.
//
// Unlike net/http, the client does not build requests: the bytes passed to
// Send are written to the connection verbatim, so header order, duplicate
// headers, and unusual request lines reach the server untouched. This is
// what a request minimizer needs when it deletes one header line at a time.
//
// # Quick Start
//
//	c := client.New()
//	target, _ := rawhttp.ParseTarget("https://example.com")
//	resp, err := c.Send(ctx, target, []byte("GET / HTTP/1.1\r\nHost: example.com\r\nConnection: close\r\n\r\n"))
//
// Use custom configuration:
//
//	c := client.New(
//	    client.WithTimeout(5*time.Second),
//	    client.WithInsecureSkipVerify(true),
//	    client.WithMaxResponseBytes(1<<20),
//	)
//
// # Errors
//
// Every failure (dial, TLS handshake, write, read, timeout) is returned as a
// *TransportError. Callers deciding whether a trial passed should treat any
// error as "not equivalent":
//
//	var te *client.TransportError
//	if errors.As(err, &te) && te.Timeout() {
//	    // target did not answer in time
//	}
//
// # Response framing
//
// The response head is kept verbatim (header order and case preserved in
// rawhttp.Headers). The body is framed by Content-Length, chunked encoding,
// or connection close, and is returned de-chunked.
package client
