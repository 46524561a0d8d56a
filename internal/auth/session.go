// Package auth manages credentials and the authenticated session: obtaining
// the auth token and endpoint URLs, refreshing them with an exactly-once
// retry on authorization failure, and the service-net storage URL rewrite.
package auth

import (
	"net/url"
	"strings"
	"sync"

	"github.com/cloudstow/cloudstow/internal/transport"
)

// Credentials identify the account. Immutable after construction; the proxy
// credentials pointer is shared with every request the connection issues.
type Credentials struct {
	Username string
	APIKey   string
	Proxy    *transport.ProxyCredentials
}

// Session is the authenticated context shared by all operations on a
// connection. It starts empty and is populated by the first successful
// authentication; all access goes through the mutex because operations on
// different goroutines read it while the authenticator may be refreshing it.
type Session struct {
	mu         sync.RWMutex
	token      string
	storageURL string
	cdnURL     string
}

// Ready reports whether the session carries everything a storage operation
// needs.
func (s *Session) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != "" && s.storageURL != ""
}

// Token returns the current auth token.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// StorageURL returns the storage endpoint URL.
func (s *Session) StorageURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.storageURL
}

// CDNManagementURL returns the CDN management endpoint URL, "" when the
// account has no CDN entitlement.
func (s *Session) CDNManagementURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cdnURL
}

// HasCDN reports whether CDN operations are available. False exactly when
// the CDN management URL was absent from the authentication response.
func (s *Session) HasCDN() bool {
	return s.CDNManagementURL() != ""
}

func (s *Session) populate(token, storageURL, cdnURL string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.storageURL = storageURL
	s.cdnURL = cdnURL
}

// Clear drops the session state, forcing re-authentication on the next
// operation.
func (s *Session) Clear() {
	s.populate("", "", "")
}

// rewriteServiceNet selects the internal-network variant of the storage URL
// by prefixing the host with "snet-".
func rewriteServiceNet(storageURL string) string {
	parsed, err := url.Parse(storageURL)
	if err != nil || parsed.Host == "" {
		return storageURL
	}
	if strings.HasPrefix(parsed.Host, "snet-") {
		return storageURL
	}
	parsed.Host = "snet-" + parsed.Host
	return parsed.String()
}
