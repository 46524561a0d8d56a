package transport

import (
	"io"
	"net/http"
	"strconv"
	"time"
)

// Response wraps a completed API call. The body is consumed lazily and is
// never closed by the wrapper: callers streaming a download own its
// lifecycle and must drain and close it to release the underlying
// connection.
type Response struct {
	StatusCode    int
	Headers       http.Header
	ContentType   string
	ContentLength int64
	LastModified  time.Time

	// Body is the response payload; at most one reader.
	Body io.ReadCloser
}

func newResponse(resp *http.Response) *Response {
	r := &Response{
		StatusCode:    resp.StatusCode,
		Headers:       resp.Header,
		ContentType:   resp.Header.Get("Content-Type"),
		ContentLength: resp.ContentLength,
		Body:          resp.Body,
	}
	if r.ContentLength < 0 {
		if cl, err := strconv.ParseInt(resp.Header.Get("Content-Length"), 10, 64); err == nil {
			r.ContentLength = cl
		}
	}
	if lm := resp.Header.Get("Last-Modified"); lm != "" {
		if ts, err := http.ParseTime(lm); err == nil {
			r.LastModified = ts
		}
	}
	return r
}

// Header returns the first value of a response header.
func (r *Response) Header(key string) string {
	return r.Headers.Get(key)
}

// Discard drains and closes the body. Used by operations that only care
// about status and headers.
func (r *Response) Discard() {
	if r.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(r.Body, 1<<20))
	_ = r.Body.Close()
}
