package storage

import (
	"bufio"
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/cloudstow/cloudstow/internal/transport"
	"github.com/cloudstow/cloudstow/pkg/errors"
	"github.com/cloudstow/cloudstow/pkg/types"
)

// CreateContainer creates a container. Creating a container that already
// exists fails with ContainerAlreadyExists.
func (c *Connection) CreateContainer(ctx context.Context, container string) error {
	if err := validateName("container", container); err != nil {
		return err
	}
	return c.exec.Run(ctx, "create_container", "creating container "+container,
		func(ctx context.Context) error {
			resp, err := c.do(ctx, http.MethodPut, c.storageURL(container, ""), nil)
			if err != nil {
				return err
			}
			defer resp.Discard()
			if resp.StatusCode == http.StatusAccepted {
				return errors.New(errors.ErrCodeContainerAlreadyExists,
					"container already exists").WithContainer(container)
			}
			return nil
		}, errors.ForResource(errors.ResourceContainer))
}

// DeleteContainer deletes an empty container.
func (c *Connection) DeleteContainer(ctx context.Context, container string) error {
	if err := validateName("container", container); err != nil {
		return err
	}
	return c.exec.Run(ctx, "delete_container", "deleting container "+container,
		func(ctx context.Context) error {
			resp, err := c.do(ctx, http.MethodDelete, c.storageURL(container, ""), nil)
			if err != nil {
				return err
			}
			resp.Discard()
			return nil
		}, errors.ForResource(errors.ResourceContainer))
}

// ListContainers returns the names of all containers on the account.
func (c *Connection) ListContainers(ctx context.Context) ([]string, error) {
	var names []string
	err := c.exec.Run(ctx, "list_containers", "listing containers",
		func(ctx context.Context) error {
			resp, err := c.do(ctx, http.MethodGet, c.storageURL("", ""), nil)
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

// ContainerInfo returns a container's usage counters and metadata.
func (c *Connection) ContainerInfo(ctx context.Context, container string) (types.ContainerInfo, error) {
	info := types.ContainerInfo{Name: container}
	if err := validateName("container", container); err != nil {
		return info, err
	}
	err := c.exec.Run(ctx, "container_info", "fetching container info for "+container,
		func(ctx context.Context) error {
			resp, err := c.do(ctx, http.MethodHead, c.storageURL(container, ""), nil)
			if err != nil {
				return err
			}
			defer resp.Discard()
			info.ObjectCount = headerInt64(resp, types.HeaderContainerObjectCount)
			info.BytesUsed = headerInt64(resp, types.HeaderContainerBytesUsed)
			info.Metadata = types.MetadataFromHeaders(resp.Headers, types.ContainerMetaPrefix)
			return nil
		}, errors.ForResource(errors.ResourceContainer))
	return info, err
}

// ListObjectsOptions narrow an object listing. Zero values are omitted from
// the query.
type ListObjectsOptions struct {
	Limit  int
	Marker string
	Prefix string
	Path   string
}

// ListObjects returns the object names in a container, optionally narrowed.
func (c *Connection) ListObjects(ctx context.Context, container string, opts ListObjectsOptions) ([]string, error) {
	if err := validateName("container", container); err != nil {
		return nil, err
	}

	query := url.Values{}
	if opts.Limit > 0 {
		query.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Marker != "" {
		query.Set("marker", opts.Marker)
	}
	if opts.Prefix != "" {
		query.Set("prefix", opts.Prefix)
	}
	if opts.Path != "" {
		query.Set("path", opts.Path)
	}

	var names []string
	err := c.exec.Run(ctx, "list_objects", "listing objects in "+container,
		func(ctx context.Context) error {
			// The storage URL is only known once the session exists, so the
			// target is built here, after authentication.
			target := c.storageURL(container, "")
			if encoded := query.Encode(); encoded != "" {
				target += "?" + encoded
			}
			resp, err := c.do(ctx, http.MethodGet, target, nil)
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

// AccountInfo returns aggregate account usage. This is an informational read:
// any failure is absorbed after logging and the zero value is returned.
func (c *Connection) AccountInfo(ctx context.Context) types.AccountInfo {
	var info types.AccountInfo
	err := c.exec.Run(ctx, "account_info", "fetching account info",
		func(ctx context.Context) error {
			resp, err := c.do(ctx, http.MethodHead, c.storageURL("", ""), nil)
			if err != nil {
				return err
			}
			defer resp.Discard()
			info.ContainerCount = headerInt64(resp, types.HeaderAccountContainerCount)
			info.BytesUsed = headerInt64(resp, types.HeaderAccountBytesUsed)
			return nil
		}, nil)
	if err != nil {
		return types.AccountInfo{}
	}
	return info
}

// do issues one authenticated request with the session token attached.
func (c *Connection) do(ctx context.Context, method, target string, build func(*transport.Request)) (*transport.Response, error) {
	req := &transport.Request{Method: method, URL: target, Proxy: c.proxy()}
	req.SetHeader(authTokenHeader, c.session.Token())
	if build != nil {
		build(req)
	}
	return c.client.Do(ctx, req)
}

func (c *Connection) proxy() *transport.ProxyCredentials {
	if c.cfg.Transport.Proxy.Address == "" {
		return nil
	}
	return &transport.ProxyCredentials{
		Address:  c.cfg.Transport.Proxy.Address,
		Username: c.cfg.Transport.Proxy.Username,
		Password: c.cfg.Transport.Proxy.Password,
		Domain:   c.cfg.Transport.Proxy.Domain,
	}
}

func readLines(resp *transport.Response) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.New(errors.ErrCodeTransportFailure,
			"failed to read listing body").WithCause(err)
	}
	return lines, nil
}

func headerInt64(resp *transport.Response, key string) int64 {
	value, err := strconv.ParseInt(resp.Header(key), 10, 64)
	if err != nil {
		return 0
	}
	return value
}
