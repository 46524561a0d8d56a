// Package storage is the public client for the object storage service. A
// Connection owns the credentials, the authenticated session, the transport
// client and the shared progress listener list, and exposes the
// container/object/CDN/account operations.
package storage

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/cloudstow/cloudstow/internal/auth"
	"github.com/cloudstow/cloudstow/internal/config"
	"github.com/cloudstow/cloudstow/internal/executor"
	"github.com/cloudstow/cloudstow/internal/metrics"
	"github.com/cloudstow/cloudstow/internal/transport"
	"github.com/cloudstow/cloudstow/pkg/errors"
	"github.com/cloudstow/cloudstow/pkg/progress"
	"github.com/cloudstow/cloudstow/pkg/retry"
)

// authTokenHeader carries the session token on every authenticated request.
const authTokenHeader = auth.HeaderAuthToken

// Configuration aliases re-export the internal config types so callers can
// build them without reaching into internal packages.
type (
	Config          = config.Configuration
	AuthConfig      = config.AuthConfig
	ProxyConfig     = config.ProxyConfig
	TransportConfig = config.TransportConfig
	RetryConfig     = config.RetryConfig
	MetricsConfig   = config.MetricsConfig
	LoggingConfig   = config.LoggingConfig
)

// NewConfig returns the default configuration; credentials and the auth URL
// must be filled in before use.
func NewConfig() *Config {
	return config.NewDefault()
}

// Connection is a client session against the storage service. It is safe for
// concurrent use; authentication is serialized and the session state is
// mutex-guarded.
type Connection struct {
	cfg           *Config
	session       *auth.Session
	authenticator *auth.Authenticator
	client        *transport.Client
	exec          *executor.Executor
	listeners     *progress.Listeners
	collector     *metrics.Collector
	files         FileStore
	log           logrus.FieldLogger
}

// NewConnection creates a Connection from the configuration. No network call
// is made; authentication happens lazily on the first operation (or
// explicitly via Authenticate).
func NewConnection(cfg *Config, log logrus.FieldLogger) (*Connection, error) {
	if cfg == nil {
		return nil, errors.New(errors.ErrCodeInvalidArgument, "configuration is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.New(errors.ErrCodeInvalidArgument, "invalid configuration").WithCause(err)
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	listeners := progress.NewListeners()
	collector := metrics.NewCollector(&metrics.Config{
		Enabled:   cfg.Metrics.Enabled,
		Namespace: cfg.Metrics.Namespace,
		Labels:    cfg.Metrics.Labels,
	})
	client := transport.NewClient(transport.Options{
		Timeout:   cfg.Transport.Timeout,
		ChunkSize: cfg.Transport.ChunkSize,
		UserAgent: cfg.Transport.UserAgent,
	}, listeners, log)

	var proxy *transport.ProxyCredentials
	if cfg.Transport.Proxy.Address != "" {
		proxy = &transport.ProxyCredentials{
			Address:  cfg.Transport.Proxy.Address,
			Username: cfg.Transport.Proxy.Username,
			Password: cfg.Transport.Proxy.Password,
			Domain:   cfg.Transport.Proxy.Domain,
		}
	}

	session := &auth.Session{}
	authenticator := auth.New(auth.Credentials{
		Username: cfg.Auth.Username,
		APIKey:   cfg.Auth.APIKey,
		Proxy:    proxy,
	}, cfg.Auth.AuthURL, cfg.Auth.ServiceNet, session, client, collector, log)

	retryer := retry.New(retry.Config{
		MaxAttempts:  cfg.Retry.MaxAttempts,
		InitialDelay: cfg.Retry.InitialDelay,
		MaxDelay:     cfg.Retry.MaxDelay,
		Jitter:       true,
	})

	return &Connection{
		cfg:           cfg,
		session:       session,
		authenticator: authenticator,
		client:        client,
		exec:          executor.New(authenticator, collector, retryer, log),
		listeners:     listeners,
		collector:     collector,
		files:         OSFileStore{},
		log:           log,
	}, nil
}

// Authenticate eagerly establishes the session.
func (c *Connection) Authenticate(ctx context.Context) error {
	return c.authenticator.Authenticate(ctx)
}

// HasCDN reports whether the account has a CDN management endpoint. Always
// false before the first authentication.
func (c *Connection) HasCDN() bool {
	return c.session.HasCDN()
}

// StorageURL returns the storage endpoint, "" before authentication.
func (c *Connection) StorageURL() string {
	return c.session.StorageURL()
}

// AddProgressListener subscribes a callback invoked synchronously with the
// byte count of every streamed chunk, across all transfers on this
// connection. Listeners cannot be removed.
func (c *Connection) AddProgressListener(callback progress.Listener) {
	c.listeners.Add(callback)
}

// SetFileStore replaces the local file abstraction used by PutFile/GetFile.
func (c *Connection) SetFileStore(files FileStore) {
	if files != nil {
		c.files = files
	}
}

// MetricsHandler exposes the connection's Prometheus registry, nil when
// metrics are disabled.
func (c *Connection) MetricsHandler() http.Handler {
	return c.collector.Handler()
}

// storageURL joins escaped path segments onto the storage endpoint. Object
// names may contain slashes; each slash-separated segment is escaped
// individually so the separators survive.
func (c *Connection) storageURL(container, object string) string {
	return joinURL(c.session.StorageURL(), container, object)
}

func (c *Connection) cdnURL(container string) string {
	return joinURL(c.session.CDNManagementURL(), container, "")
}

func joinURL(base, container, object string) string {
	u := base
	if container != "" {
		u += "/" + url.PathEscape(container)
	}
	if object != "" {
		segments := strings.Split(object, "/")
		for i, segment := range segments {
			segments[i] = url.PathEscape(segment)
		}
		u += "/" + strings.Join(segments, "/")
	}
	return u
}

// validateName raises the argument error for blank required names before any
// network call.
func validateName(kind, name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.Newf(errors.ErrCodeInvalidArgument, "%s name is required", kind)
	}
	return nil
}

func (c *Connection) String() string {
	return fmt.Sprintf("storage.Connection{user=%s}", c.cfg.Auth.Username)
}
