// Package types defines the shared value types returned by storage
// operations: container, object and account descriptors plus the metadata
// header conventions of the service.
package types

import (
	"net/http"
	"strings"
	"time"
)

// Header names and metadata prefixes defined by the storage service.
const (
	ObjectMetaPrefix    = "X-Object-Meta-"
	ContainerMetaPrefix = "X-Container-Meta-"

	HeaderAccountContainerCount = "X-Account-Container-Count"
	HeaderAccountBytesUsed      = "X-Account-Bytes-Used"
	HeaderContainerObjectCount  = "X-Container-Object-Count"
	HeaderContainerBytesUsed    = "X-Container-Bytes-Used"
	HeaderCDNURI                = "X-CDN-URI"
	HeaderCDNEnabled            = "X-CDN-Enabled"
	HeaderCDNTTL                = "X-TTL"
)

// Metadata is the user-supplied key/value metadata attached to an object or
// container. Keys are stored without the service's reserved header prefix.
type Metadata map[string]string

// ContainerInfo describes a container and its usage counters.
type ContainerInfo struct {
	Name        string   `json:"name"`
	ObjectCount int64    `json:"object_count"`
	BytesUsed   int64    `json:"bytes_used"`
	Metadata    Metadata `json:"metadata,omitempty"`
}

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Name         string    `json:"name"`
	Container    string    `json:"container"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"content_type"`
	ETag         string    `json:"etag"`
	LastModified time.Time `json:"last_modified"`
	Metadata     Metadata  `json:"metadata,omitempty"`
}

// AccountInfo describes aggregate account usage.
type AccountInfo struct {
	ContainerCount int64 `json:"container_count"`
	BytesUsed      int64 `json:"bytes_used"`
}

// CDNContainerInfo describes the CDN publication state of a container.
type CDNContainerInfo struct {
	Name    string `json:"name"`
	URI     string `json:"uri"`
	Enabled bool   `json:"enabled"`
	TTL     int64  `json:"ttl"`
}

// MetadataFromHeaders extracts the metadata entries carrying the given prefix
// from a response header map. Keys are returned with the prefix stripped and
// in canonical form.
func MetadataFromHeaders(headers http.Header, prefix string) Metadata {
	md := Metadata{}
	for key, values := range headers {
		if len(values) == 0 {
			continue
		}
		canonical := http.CanonicalHeaderKey(key)
		if strings.HasPrefix(canonical, prefix) {
			md[strings.TrimPrefix(canonical, prefix)] = values[0]
		}
	}
	return md
}

// HeadersFromMetadata renders metadata entries as request headers with the
// given prefix.
func HeadersFromMetadata(md Metadata, prefix string) map[string]string {
	headers := make(map[string]string, len(md))
	for key, value := range md {
		headers[prefix+key] = value
	}
	return headers
}
