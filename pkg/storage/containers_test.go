package storage

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudstow/cloudstow/pkg/errors"
)

func TestCreateContainer_AlreadyExists(t *testing.T) {
	fs := newFakeService(t, false)
	fs.storage = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}
	conn := fs.connection()

	err := conn.CreateContainer(context.Background(), "photos")
	assert.Equal(t, errors.ErrCodeContainerAlreadyExists, errors.CodeOf(err))
}

func TestDeleteContainer(t *testing.T) {
	fs := newFakeService(t, false)
	conn := fs.connection()

	require.NoError(t, conn.DeleteContainer(context.Background(), "photos"))

	req := fs.lastStorageRequest()
	require.NotNil(t, req)
	assert.Equal(t, http.MethodDelete, req.Method)
	assert.Equal(t, "/v1/acct/photos", req.Path)
}

func TestDeleteContainer_Faults(t *testing.T) {
	tests := []struct {
		name   string
		status int
		code   errors.ErrorCode
	}{
		{"missing", http.StatusNotFound, errors.ErrCodeContainerNotFound},
		{"not empty", http.StatusConflict, errors.ErrCodeContainerNotEmpty},
		{"unauthorized", http.StatusUnauthorized, errors.ErrCodeAuthenticationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := newFakeService(t, false)
			fs.storage = func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}
			conn := fs.connection()

			err := conn.DeleteContainer(context.Background(), "photos")
			assert.Equal(t, tt.code, errors.CodeOf(err))
			assert.Equal(t, tt.status, errors.StatusOf(err))
		})
	}
}

func TestListContainers(t *testing.T) {
	fs := newFakeService(t, false)
	fs.storage = func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("photos\nmusic\nbackups\n"))
	}
	conn := fs.connection()

	names, err := conn.ListContainers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"photos", "music", "backups"}, names)
}

func TestListContainers_EmptyAccount(t *testing.T) {
	fs := newFakeService(t, false)
	fs.storage = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}
	conn := fs.connection()

	names, err := conn.ListContainers(context.Background())
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestContainerInfo(t *testing.T) {
	fs := newFakeService(t, false)
	fs.storage = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Container-Object-Count", "42")
		w.Header().Set("X-Container-Bytes-Used", "2048")
		w.Header().Set("X-Container-Meta-Team", "infra")
		w.WriteHeader(http.StatusNoContent)
	}
	conn := fs.connection()

	info, err := conn.ContainerInfo(context.Background(), "photos")
	require.NoError(t, err)
	assert.Equal(t, "photos", info.Name)
	assert.Equal(t, int64(42), info.ObjectCount)
	assert.Equal(t, int64(2048), info.BytesUsed)
	assert.Equal(t, "infra", info.Metadata["Team"])
}

func TestListObjects_QueryParameters(t *testing.T) {
	fs := newFakeService(t, false)
	fs.storage = func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("albums/cat.jpg\nalbums/dog.jpg\n"))
	}
	conn := fs.connection()

	names, err := conn.ListObjects(context.Background(), "photos", ListObjectsOptions{
		Limit:  100,
		Marker: "albums/aardvark.jpg",
		Prefix: "albums/",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"albums/cat.jpg", "albums/dog.jpg"}, names)

	req := fs.lastStorageRequest()
	require.NotNil(t, req)
	assert.Equal(t, "/v1/acct/photos", req.Path)
	assert.Contains(t, req.Query, "limit=100")
	assert.Contains(t, req.Query, "marker=albums%2Faardvark.jpg")
	assert.Contains(t, req.Query, "prefix=albums%2F")
}

// ListObjects as the very first call on a fresh connection must resolve the
// storage URL after the lazy authentication, not before it.
func TestListObjects_FirstOperationOnFreshConnection(t *testing.T) {
	fs := newFakeService(t, false)
	fs.storage = func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("cat.jpg\n"))
	}
	conn := fs.connection()

	names, err := conn.ListObjects(context.Background(), "photos", ListObjectsOptions{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"cat.jpg"}, names)
	assert.Equal(t, 1, fs.authAttempts())

	req := fs.lastStorageRequest()
	require.NotNil(t, req)
	assert.Equal(t, "/v1/acct/photos", req.Path)
	assert.Equal(t, "limit=10", req.Query)
}

func TestListObjects_NoOptionsOmitsQuery(t *testing.T) {
	fs := newFakeService(t, false)
	conn := fs.connection()

	_, err := conn.ListObjects(context.Background(), "photos", ListObjectsOptions{})
	require.NoError(t, err)

	req := fs.lastStorageRequest()
	require.NotNil(t, req)
	assert.Empty(t, req.Query)
}
