package storage

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/cloudstow/cloudstow/internal/transport"
	"github.com/cloudstow/cloudstow/pkg/errors"
	"github.com/cloudstow/cloudstow/pkg/types"
)

// CDN operations degrade gracefully on accounts without CDN entitlement:
// when HasCDN is false they return an empty result without attempting a
// network call.

// MakeContainerPublic publishes a container on the CDN and returns its
// public URI. ttlSeconds of 0 keeps the service default.
func (c *Connection) MakeContainerPublic(ctx context.Context, container string, ttlSeconds int64) (string, error) {
	if err := validateName("container", container); err != nil {
		return "", err
	}
	if err := c.authenticator.EnsureAuthenticated(ctx); err != nil {
		return "", err
	}
	if !c.HasCDN() {
		return "", nil
	}

	var uri string
	err := c.exec.Run(ctx, "make_container_public", "publishing container "+container,
		func(ctx context.Context) error {
			resp, err := c.do(ctx, http.MethodPut, c.cdnURL(container),
				func(req *transport.Request) {
					if ttlSeconds > 0 {
						req.SetHeader(types.HeaderCDNTTL, strconv.FormatInt(ttlSeconds, 10))
					}
				})
			if err != nil {
				return err
			}
			defer resp.Discard()
			uri = resp.Header(types.HeaderCDNURI)
			return nil
		}, errors.ForResource(errors.ResourceContainer))
	if err != nil {
		return "", err
	}
	return uri, nil
}

// MakeContainerPrivate withdraws a container from the CDN. Content already
// cached at edge nodes remains until its TTL expires.
func (c *Connection) MakeContainerPrivate(ctx context.Context, container string) error {
	if err := validateName("container", container); err != nil {
		return err
	}
	if err := c.authenticator.EnsureAuthenticated(ctx); err != nil {
		return err
	}
	if !c.HasCDN() {
		return nil
	}

	return c.exec.Run(ctx, "make_container_private", "withdrawing container "+container,
		func(ctx context.Context) error {
			resp, err := c.do(ctx, http.MethodPost, c.cdnURL(container),
				func(req *transport.Request) {
					req.SetHeader(types.HeaderCDNEnabled, "False")
				})
			if err != nil {
				return err
			}
			resp.Discard()
			return nil
		}, errors.ForResource(errors.ResourceContainer))
}

// ListPublicContainers returns the names of CDN-published containers, or nil
// without a network call when the account has no CDN.
func (c *Connection) ListPublicContainers(ctx context.Context) ([]string, error) {
	if err := c.authenticator.EnsureAuthenticated(ctx); err != nil {
		return nil, err
	}
	if !c.HasCDN() {
		return nil, nil
	}

	var names []string
	err := c.exec.Run(ctx, "list_public_containers", "listing public containers",
		func(ctx context.Context) error {
			resp, err := c.do(ctx, http.MethodGet, c.session.CDNManagementURL(), nil)
			if err != nil {
				return err
			}
			defer resp.Discard()
			names, err = readLines(resp)
			return err
		}, errors.ForResource(errors.ResourceContainer))
	if err != nil {
		return nil, err
	}
	return names, nil
}

// PublicContainerInfo returns the CDN publication state of a container, or
// the zero value without a network call when the account has no CDN.
func (c *Connection) PublicContainerInfo(ctx context.Context, container string) (types.CDNContainerInfo, error) {
	info := types.CDNContainerInfo{Name: container}
	if err := validateName("container", container); err != nil {
		return info, err
	}
	if err := c.authenticator.EnsureAuthenticated(ctx); err != nil {
		return info, err
	}
	if !c.HasCDN() {
		return types.CDNContainerInfo{Name: container}, nil
	}

	err := c.exec.Run(ctx, "public_container_info", "fetching CDN info for "+container,
		func(ctx context.Context) error {
			resp, err := c.do(ctx, http.MethodHead, c.cdnURL(container), nil)
			if err != nil {
				return err
			}
			defer resp.Discard()
			info.URI = resp.Header(types.HeaderCDNURI)
			info.Enabled = strings.EqualFold(resp.Header(types.HeaderCDNEnabled), "true")
			info.TTL = headerInt64(resp, types.HeaderCDNTTL)
			return nil
		}, errors.ForResource(errors.ResourceContainer))
	return info, err
}
