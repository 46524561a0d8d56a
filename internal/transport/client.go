package transport

import (
	"context"
	"crypto/md5" // #nosec G401 -- integrity header mandated by the service API
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cloudstow/cloudstow/pkg/errors"
	"github.com/cloudstow/cloudstow/pkg/progress"
)

const headerETag = "ETag"

// Options tune the client. Zero values fall back to defaults.
type Options struct {
	Timeout   time.Duration
	ChunkSize int
	UserAgent string
}

// Client executes Requests. The timeout and user agent are fixed at
// construction and applied to every request; they are not configurable per
// call.
type Client struct {
	timeout   time.Duration
	chunkSize int
	userAgent string
	listeners *progress.Listeners
	log       logrus.FieldLogger

	direct *http.Client

	mu      sync.Mutex
	proxied map[string]*http.Client
}

// NewClient creates a transport client. The listener list is shared with the
// owning connection; every upload notifies it per streamed chunk.
func NewClient(opts Options, listeners *progress.Listeners, log logrus.FieldLogger) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 90 * time.Second
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = 64 * 1024
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "cloudstow-go/1.0"
	}
	if listeners == nil {
		listeners = progress.NewListeners()
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Client{
		timeout:   opts.Timeout,
		chunkSize: opts.ChunkSize,
		userAgent: opts.UserAgent,
		listeners: listeners,
		log:       log,
		direct:    &http.Client{Timeout: opts.Timeout},
		proxied:   make(map[string]*http.Client),
	}
}

// Do executes the request and returns the wrapped response. Statuses of 400
// and above are returned as transport errors with the response body already
// discarded; for all other statuses the caller owns the body.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	httpReq, err := c.build(ctx, req)
	if err != nil {
		return nil, err
	}

	httpClient, err := c.clientFor(req.Proxy)
	if err != nil {
		return nil, err
	}

	c.log.WithFields(logrus.Fields{
		"method": req.Method,
		"url":    req.URL,
	}).Debug("executing request")

	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return nil, classifyNetworkError(err)
	}

	wrapped := newResponse(resp)
	if wrapped.StatusCode >= http.StatusBadRequest {
		wrapped.Discard()
		return nil, errors.Newf(errors.ErrCodeTransportFailure,
			"%s %s failed", req.Method, req.URL).WithStatus(wrapped.StatusCode)
	}
	return wrapped, nil
}

func (c *Client) build(ctx context.Context, req *Request) (*http.Request, error) {
	var body io.Reader
	if req.HasBody() {
		digest, err := c.digestBody(req.Body)
		if err != nil {
			return nil, err
		}
		req.SetHeader(headerETag, digest)
		body = &chunkReader{
			r:     progress.NewReader(req.Body, c.listeners),
			chunk: c.chunkSize,
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, errors.New(errors.ErrCodeInvalidArgument, "malformed request").WithCause(err)
	}
	if req.HasBody() {
		httpReq.ContentLength = req.ContentLength
	}

	httpReq.Header.Set("User-Agent", c.userAgent)
	if req.ContentType != "" {
		httpReq.Header.Set("Content-Type", req.ContentType)
	}
	if rangeHdr := req.RangeHeader(); rangeHdr != "" {
		httpReq.Header.Set("Range", rangeHdr)
	}
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}
	return httpReq, nil
}

// digestBody computes the MD5 hex digest of the full body and rewinds the
// stream for transmission.
func (c *Client) digestBody(body io.ReadSeeker) (string, error) {
	if _, err := body.Seek(0, io.SeekStart); err != nil {
		return "", errors.New(errors.ErrCodeFileAccess, "upload body does not support rewind").WithCause(err)
	}
	hasher := md5.New() // #nosec G401
	if _, err := io.Copy(hasher, body); err != nil {
		return "", errors.New(errors.ErrCodeFileAccess, "failed to read upload body").WithCause(err)
	}
	if _, err := body.Seek(0, io.SeekStart); err != nil {
		return "", errors.New(errors.ErrCodeFileAccess, "upload body does not support rewind").WithCause(err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// clientFor returns the HTTP client for the given proxy credentials, building
// and caching proxied clients per proxy address.
func (c *Client) clientFor(proxy *ProxyCredentials) (*http.Client, error) {
	if proxy == nil || proxy.Address == "" {
		return c.direct, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if client, ok := c.proxied[proxy.Address]; ok {
		return client, nil
	}

	proxyURL, err := url.Parse(proxy.Address)
	if err != nil {
		return nil, errors.Newf(errors.ErrCodeInvalidArgument,
			"invalid proxy address %q", proxy.Address).WithCause(err)
	}
	if proxy.Username != "" {
		user := proxy.Username
		if proxy.Domain != "" {
			user = proxy.Domain + "\\" + user
		}
		proxyURL.User = url.UserPassword(user, proxy.Password)
	}

	client := &http.Client{
		Timeout:   c.timeout,
		Transport: &http.Transport{Proxy: http.ProxyURL(proxyURL)},
	}
	c.proxied[proxy.Address] = client
	return client, nil
}

func classifyNetworkError(err error) error {
	if urlErr, ok := err.(*url.Error); ok && urlErr.Timeout() {
		return errors.New(errors.ErrCodeConnectionTimeout, "request timed out").WithCause(err)
	}
	return errors.New(errors.ErrCodeConnectionFailed, "request failed").WithCause(err)
}

// chunkReader caps each read at the configured chunk size so the wrapped
// progress reader observes uploads one chunk at a time.
type chunkReader struct {
	r     io.Reader
	chunk int
}

func (cr *chunkReader) Read(p []byte) (int, error) {
	if len(p) > cr.chunk {
		p = p[:cr.chunk]
	}
	return cr.r.Read(p)
}

// String implements fmt.Stringer for debug logging.
func (c *Client) String() string {
	return fmt.Sprintf("transport.Client{timeout=%s chunk=%d}", c.timeout, c.chunkSize)
}
