package storage

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeContainerPublic(t *testing.T) {
	fs := newFakeService(t, true)
	fs.cdn = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-CDN-URI", "http://cdn.example.com/c123")
		w.WriteHeader(http.StatusCreated)
	}
	conn := fs.connection()

	uri, err := conn.MakeContainerPublic(context.Background(), "photos", 3600)
	require.NoError(t, err)
	assert.Equal(t, "http://cdn.example.com/c123", uri)

	reqs := fs.recorded()
	last := reqs[len(reqs)-1]
	assert.Equal(t, http.MethodPut, last.Method)
	assert.Equal(t, "/cdn/acct/photos", last.Path)
	assert.Equal(t, "3600", last.Header.Get("X-TTL"))
	assert.Equal(t, "tok-test", last.Header.Get("X-Auth-Token"))
}

func TestMakeContainerPublic_DefaultTTLOmitsHeader(t *testing.T) {
	fs := newFakeService(t, true)
	conn := fs.connection()

	_, err := conn.MakeContainerPublic(context.Background(), "photos", 0)
	require.NoError(t, err)

	reqs := fs.recorded()
	last := reqs[len(reqs)-1]
	assert.Empty(t, last.Header.Get("X-TTL"))
}

func TestMakeContainerPrivate(t *testing.T) {
	fs := newFakeService(t, true)
	conn := fs.connection()

	require.NoError(t, conn.MakeContainerPrivate(context.Background(), "photos"))

	reqs := fs.recorded()
	last := reqs[len(reqs)-1]
	assert.Equal(t, http.MethodPost, last.Method)
	assert.Equal(t, "/cdn/acct/photos", last.Path)
	assert.Equal(t, "False", last.Header.Get("X-CDN-Enabled"))
}

func TestListPublicContainers(t *testing.T) {
	fs := newFakeService(t, true)
	fs.cdn = func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("photos\nvideos\n"))
	}
	conn := fs.connection()

	names, err := conn.ListPublicContainers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"photos", "videos"}, names)
}

func TestPublicContainerInfo(t *testing.T) {
	fs := newFakeService(t, true)
	fs.cdn = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-CDN-URI", "http://cdn.example.com/c123")
		w.Header().Set("X-CDN-Enabled", "True")
		w.Header().Set("X-TTL", "86400")
		w.WriteHeader(http.StatusNoContent)
	}
	conn := fs.connection()

	info, err := conn.PublicContainerInfo(context.Background(), "photos")
	require.NoError(t, err)
	assert.Equal(t, "photos", info.Name)
	assert.Equal(t, "http://cdn.example.com/c123", info.URI)
	assert.True(t, info.Enabled)
	assert.Equal(t, int64(86400), info.TTL)
}

// Accounts without CDN entitlement get empty results and no CDN traffic.
func TestCDNOperations_DegradeWithoutEntitlement(t *testing.T) {
	fs := newFakeService(t, false)
	conn := fs.connection()
	ctx := context.Background()

	uri, err := conn.MakeContainerPublic(ctx, "photos", 3600)
	require.NoError(t, err)
	assert.Empty(t, uri)

	require.NoError(t, conn.MakeContainerPrivate(ctx, "photos"))

	names, err := conn.ListPublicContainers(ctx)
	require.NoError(t, err)
	assert.Nil(t, names)

	info, err := conn.PublicContainerInfo(ctx, "photos")
	require.NoError(t, err)
	assert.Equal(t, "photos", info.Name)
	assert.Zero(t, info.TTL)

	assert.Zero(t, fs.cdnRequestCount())
	// The degrade decision still required an authenticated session.
	assert.Equal(t, 1, fs.authAttempts())
}
