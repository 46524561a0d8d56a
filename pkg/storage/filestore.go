package storage

import (
	"io"
	"os"

	pkgerrors "github.com/pkg/errors"
)

// File is the read side of a local file: the transport needs seeking to
// compute the integrity digest before streaming.
type File interface {
	io.Reader
	io.Seeker
	io.Closer
}

// FileStore abstracts the local filesystem for uploads and downloads. The
// client only reads, writes and seeks; everything else about file management
// belongs to the caller.
type FileStore interface {
	Open(name string) (File, error)
	Create(name string) (io.WriteCloser, error)
}

// OSFileStore is the operating-system backed FileStore.
type OSFileStore struct{}

// Open opens a local file for upload.
func (OSFileStore) Open(name string) (File, error) {
	f, err := os.Open(name) // #nosec G304 -- caller-supplied upload path
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to open local file")
	}
	return f, nil
}

// Create creates or truncates a local file for download.
func (OSFileStore) Create(name string) (io.WriteCloser, error) {
	f, err := os.Create(name) // #nosec G304 -- caller-supplied download path
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to create local file")
	}
	return f, nil
}

// fileSize determines a file's length using only seek calls, leaving the
// position at the start.
func fileSize(f File) (int64, error) {
	size, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, pkgerrors.Wrap(err, "failed to seek local file")
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return 0, pkgerrors.Wrap(err, "failed to rewind local file")
	}
	return size, nil
}
