package storage

import (
	"context"
	"io"
	"net/http"

	"github.com/cloudstow/cloudstow/internal/metrics"
	"github.com/cloudstow/cloudstow/internal/transport"
	"github.com/cloudstow/cloudstow/pkg/errors"
	"github.com/cloudstow/cloudstow/pkg/progress"
	"github.com/cloudstow/cloudstow/pkg/types"
)

// Object is a streaming download: descriptive headers plus the open body.
// The body is not consumed or closed by the client; callers must drain and
// close it to release the underlying connection.
type Object struct {
	Info types.ObjectInfo
	Body io.ReadCloser
}

// Close closes the body.
func (o *Object) Close() error {
	if o.Body == nil {
		return nil
	}
	return o.Body.Close()
}

// PutObject uploads an object from a seekable stream. The MD5 integrity
// digest is computed over the full stream before any bytes are sent, and
// every progress listener is notified per streamed chunk.
func (c *Connection) PutObject(ctx context.Context, container, object string,
	body io.ReadSeeker, size int64, contentType string, metadata types.Metadata) error {

	if err := validateName("container", container); err != nil {
		return err
	}
	if err := validateName("object", object); err != nil {
		return err
	}
	err := c.exec.Run(ctx, "put_object", "uploading object "+container+"/"+object,
		func(ctx context.Context) error {
			resp, err := c.do(ctx, http.MethodPut, c.storageURL(container, object),
				func(req *transport.Request) {
					req.Body = body
					req.ContentLength = size
					req.ContentType = contentType
					for key, value := range types.HeadersFromMetadata(metadata, types.ObjectMetaPrefix) {
						req.SetHeader(key, value)
					}
				})
			if err != nil {
				return err
			}
			resp.Discard()
			return nil
			// A 404 on upload means the target container is missing.
		}, errors.ForResource(errors.ResourceContainer))
	if err == nil {
		c.collector.RecordTransfer(metrics.DirectionUpload, size)
	}
	return err
}

// PutFile uploads a local file through the FileStore.
func (c *Connection) PutFile(ctx context.Context, container, object, path, contentType string,
	metadata types.Metadata) error {

	if err := validateName("container", container); err != nil {
		return err
	}
	if err := validateName("object", object); err != nil {
		return err
	}
	f, err := c.files.Open(path)
	if err != nil {
		return errors.New(errors.ErrCodeFileAccess, "cannot open upload file").WithCause(err)
	}
	defer func() { _ = f.Close() }()

	size, err := fileSize(f)
	if err != nil {
		return errors.New(errors.ErrCodeFileAccess, "cannot size upload file").WithCause(err)
	}
	return c.PutObject(ctx, container, object, f, size, contentType, metadata)
}

// GetObject opens a streaming download of an object.
func (c *Connection) GetObject(ctx context.Context, container, object string) (*Object, error) {
	return c.getObject(ctx, container, object, 0, 0)
}

// GetObjectRange opens a download of a byte range. From only: open-ended
// range starting there. To only: range ending there. Both: closed range.
func (c *Connection) GetObjectRange(ctx context.Context, container, object string, from, to int64) (*Object, error) {
	return c.getObject(ctx, container, object, from, to)
}

func (c *Connection) getObject(ctx context.Context, container, object string, from, to int64) (*Object, error) {
	if err := validateName("container", container); err != nil {
		return nil, err
	}
	if err := validateName("object", object); err != nil {
		return nil, err
	}
	var result *Object
	err := c.exec.Run(ctx, "get_object", "fetching object "+container+"/"+object,
		func(ctx context.Context) error {
			resp, err := c.do(ctx, http.MethodGet, c.storageURL(container, object),
				func(req *transport.Request) {
					req.RangeFrom = from
					req.RangeTo = to
				})
			if err != nil {
				return err
			}
			result = &Object{
				Info: objectInfoFromResponse(container, object, resp),
				Body: resp.Body,
			}
			return nil
		}, errors.ForResource(errors.ResourceItem))
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetFile downloads an object into a local file through the FileStore,
// notifying progress listeners per written chunk.
func (c *Connection) GetFile(ctx context.Context, container, object, path string) error {
	obj, err := c.GetObject(ctx, container, object)
	if err != nil {
		return err
	}
	defer func() { _ = obj.Close() }()

	out, err := c.files.Create(path)
	if err != nil {
		return errors.New(errors.ErrCodeFileAccess, "cannot create download file").WithCause(err)
	}

	written, copyErr := io.Copy(progress.NewWriter(out, c.listeners), obj.Body)
	closeErr := out.Close()
	if copyErr != nil {
		return errors.New(errors.ErrCodeFileAccess, "download copy failed").WithCause(copyErr)
	}
	if closeErr != nil {
		return errors.New(errors.ErrCodeFileAccess, "download close failed").WithCause(closeErr)
	}
	c.collector.RecordTransfer(metrics.DirectionDownload, written)
	return nil
}

// ObjectInfo fetches an object's descriptive headers and metadata without
// its body.
func (c *Connection) ObjectInfo(ctx context.Context, container, object string) (types.ObjectInfo, error) {
	info := types.ObjectInfo{Name: object, Container: container}
	if err := validateName("container", container); err != nil {
		return info, err
	}
	if err := validateName("object", object); err != nil {
		return info, err
	}
	err := c.exec.Run(ctx, "object_info", "fetching object info for "+container+"/"+object,
		func(ctx context.Context) error {
			resp, err := c.do(ctx, http.MethodHead, c.storageURL(container, object), nil)
			if err != nil {
				return err
			}
			defer resp.Discard()
			info = objectInfoFromResponse(container, object, resp)
			return nil
		}, errors.ForResource(errors.ResourceItem))
	return info, err
}

// SetObjectMetadata replaces an object's user metadata.
func (c *Connection) SetObjectMetadata(ctx context.Context, container, object string, metadata types.Metadata) error {
	if err := validateName("container", container); err != nil {
		return err
	}
	if err := validateName("object", object); err != nil {
		return err
	}
	return c.exec.Run(ctx, "set_object_metadata", "setting metadata on "+container+"/"+object,
		func(ctx context.Context) error {
			resp, err := c.do(ctx, http.MethodPost, c.storageURL(container, object),
				func(req *transport.Request) {
					for key, value := range types.HeadersFromMetadata(metadata, types.ObjectMetaPrefix) {
						req.SetHeader(key, value)
					}
				})
			if err != nil {
				return err
			}
			resp.Discard()
			return nil
		}, errors.ForResource(errors.ResourceItem))
}

// DeleteObject deletes an object.
func (c *Connection) DeleteObject(ctx context.Context, container, object string) error {
	if err := validateName("container", container); err != nil {
		return err
	}
	if err := validateName("object", object); err != nil {
		return err
	}
	return c.exec.Run(ctx, "delete_object", "deleting object "+container+"/"+object,
		func(ctx context.Context) error {
			resp, err := c.do(ctx, http.MethodDelete, c.storageURL(container, object), nil)
			if err != nil {
				return err
			}
			resp.Discard()
			return nil
		}, errors.ForResource(errors.ResourceItem))
}

func objectInfoFromResponse(container, object string, resp *transport.Response) types.ObjectInfo {
	return types.ObjectInfo{
		Name:         object,
		Container:    container,
		Size:         resp.ContentLength,
		ContentType:  resp.ContentType,
		ETag:         resp.Header("ETag"),
		LastModified: resp.LastModified,
		Metadata:     types.MetadataFromHeaders(resp.Headers, types.ObjectMetaPrefix),
	}
}
