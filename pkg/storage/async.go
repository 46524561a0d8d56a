package storage

import (
	"context"

	"github.com/cloudstow/cloudstow/pkg/async"
	"github.com/cloudstow/cloudstow/pkg/types"
)

// Async variants run the transfer on its own goroutine behind a Task handle.
// The task's completion callback fires exactly once after the transfer
// finishes, on both the success and the failure path, and the transfer's
// error is available from the handle. Progress listeners registered on the
// connection observe the transfer as usual.

// PutFileAsync starts a background upload of a local file.
func (c *Connection) PutFileAsync(ctx context.Context, container, object, path, contentType string,
	metadata types.Metadata) *async.Task {

	return async.Go(func() error {
		return c.PutFile(ctx, container, object, path, contentType, metadata)
	})
}

// GetFileAsync starts a background download into a local file.
func (c *Connection) GetFileAsync(ctx context.Context, container, object, path string) *async.Task {
	return async.Go(func() error {
		return c.GetFile(ctx, container, object, path)
	})
}
