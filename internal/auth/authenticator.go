package auth

import (
	"context"
	"net/http"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/cloudstow/cloudstow/internal/metrics"
	"github.com/cloudstow/cloudstow/internal/transport"
	"github.com/cloudstow/cloudstow/pkg/errors"
)

// Authentication protocol headers.
const (
	HeaderAuthUser   = "X-Auth-User"
	HeaderAuthKey    = "X-Auth-Key"
	HeaderAuthToken  = "X-Auth-Token"
	HeaderStorageURL = "X-Storage-Url"
	HeaderCDNURL     = "X-CDN-Management-Url"
)

// Authenticator obtains and refreshes the session state. Authentication is
// serialized: concurrent operations that find the session empty block on the
// same mutex instead of racing duplicate auth requests.
type Authenticator struct {
	creds      Credentials
	authURL    string
	serviceNet bool
	session    *Session
	client     *transport.Client
	collector  *metrics.Collector
	log        logrus.FieldLogger

	mu sync.Mutex
}

// New creates an Authenticator bound to a session.
func New(creds Credentials, authURL string, serviceNet bool, session *Session,
	client *transport.Client, collector *metrics.Collector, log logrus.FieldLogger) *Authenticator {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Authenticator{
		creds:      creds,
		authURL:    authURL,
		serviceNet: serviceNet,
		session:    session,
		client:     client,
		collector:  collector,
		log:        log,
	}
}

// EnsureAuthenticated is a no-op when the session is populated; otherwise it
// authenticates.
func (a *Authenticator) EnsureAuthenticated(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.session.Ready() {
		return nil
	}
	return a.authenticate(ctx, true)
}

// Authenticate forces a fresh authentication regardless of session state.
func (a *Authenticator) Authenticate(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.authenticate(ctx, true)
}

// authenticate performs one credential exchange. An authorization failure is
// retried exactly once; retryAllowed is the one-shot flag that stops the
// loop.
func (a *Authenticator) authenticate(ctx context.Context, retryAllowed bool) error {
	a.log.WithField("auth_url", a.authURL).Debug("authenticating")

	req := &transport.Request{
		Method: http.MethodGet,
		URL:    a.authURL,
		Proxy:  a.creds.Proxy,
	}
	req.SetHeader(HeaderAuthUser, a.creds.Username)
	req.SetHeader(HeaderAuthKey, a.creds.APIKey)

	resp, err := a.client.Do(ctx, req)
	if err != nil {
		if errors.StatusOf(err) == http.StatusUnauthorized {
			if retryAllowed {
				return a.authenticate(ctx, false)
			}
			a.collector.RecordAuthentication(false)
			return errors.New(errors.ErrCodeAuthenticationFailed,
				"credentials rejected after retry").WithStatus(http.StatusUnauthorized).WithCause(err)
		}
		a.collector.RecordAuthentication(false)
		return errors.New(errors.ErrCodeAuthenticationFailed,
			"authentication request failed").WithCause(err)
	}
	defer resp.Discard()

	if resp.StatusCode != http.StatusNoContent {
		// Only the no-content status is a recognized success; anything else
		// is a hard failure rather than a silent fall-through.
		a.collector.RecordAuthentication(false)
		return errors.Newf(errors.ErrCodeAuthenticationFailed,
			"unexpected authentication status %d", resp.StatusCode).WithStatus(resp.StatusCode)
	}

	storageURL := resp.Header(HeaderStorageURL)
	token := resp.Header(HeaderAuthToken)
	if storageURL == "" || token == "" {
		a.collector.RecordAuthentication(false)
		return errors.New(errors.ErrCodeAuthenticationFailed,
			"authentication response missing storage URL or token")
	}
	if a.serviceNet {
		storageURL = rewriteServiceNet(storageURL)
	}

	a.session.populate(token, storageURL, resp.Header(HeaderCDNURL))
	a.collector.RecordAuthentication(true)
	a.log.Debug("authentication succeeded")
	return nil
}
