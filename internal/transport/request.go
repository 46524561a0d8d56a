// Package transport executes storage API requests over HTTP. It applies the
// fixed client timeout and user agent, builds Range headers, computes the
// MD5 integrity digest for uploads, streams bodies in fixed-size chunks with
// progress reporting, and maps HTTP failures into structured errors.
package transport

import (
	"fmt"
	"io"
)

// ProxyCredentials routes requests through an outbound HTTP proxy. An empty
// Username means no explicit credential: the proxy connection relies on
// ambient authentication.
type ProxyCredentials struct {
	Address  string
	Username string
	Password string
	Domain   string
}

// Request describes one storage API call.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string

	// Body is the upload payload. It must support seeking: the integrity
	// digest is computed over the full body before any bytes are sent, then
	// the stream is rewound for transmission.
	Body          io.ReadSeeker
	ContentLength int64
	ContentType   string

	// RangeFrom/RangeTo select a byte range for downloads; 0 means unset.
	// From only: open-ended range starting at From. To only: range ending at
	// To. Both: closed range.
	RangeFrom int64
	RangeTo   int64

	// Proxy is a shared reference to the connection's proxy credentials,
	// nil for direct connections.
	Proxy *ProxyCredentials
}

// SetHeader records a request header, allocating the map on first use.
func (r *Request) SetHeader(key, value string) {
	if r.Headers == nil {
		r.Headers = make(map[string]string)
	}
	r.Headers[key] = value
}

// RangeHeader renders the Range header value, or "" when no range is set.
func (r *Request) RangeHeader() string {
	switch {
	case r.RangeFrom != 0 && r.RangeTo != 0:
		return fmt.Sprintf("bytes=%d-%d", r.RangeFrom, r.RangeTo)
	case r.RangeFrom != 0:
		return fmt.Sprintf("bytes=%d-", r.RangeFrom)
	case r.RangeTo != 0:
		return fmt.Sprintf("bytes=-%d", r.RangeTo)
	default:
		return ""
	}
}

// HasBody reports whether the request carries an upload payload.
func (r *Request) HasBody() bool {
	return r.Body != nil && r.ContentLength > 0
}
