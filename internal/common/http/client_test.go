// internal/common/http/client_test.go
package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Get(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			w.Header().Set("X-Agent", r.Header.Get("User-Agent"))
			_, _ = w.Write([]byte("0123456789"))
		case "/referer":
			_, _ = w.Write([]byte(r.Header.Get("Referer")))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewClient(time.Second, WithHTTPClient(srv.Client()), WithHeader("User-Agent", "scripts-test"))
	ctx := context.Background()

	t.Run("body", func(t *testing.T) {
		body, err := c.Get(ctx, srv.URL+"/ok", 0)
		require.NoError(t, err)
		assert.Equal(t, "0123456789", string(body))
	})

	t.Run("limit", func(t *testing.T) {
		body, err := c.Get(ctx, srv.URL+"/ok", 4)
		require.NoError(t, err)
		assert.Equal(t, "0123", string(body))
	})

	t.Run("status error", func(t *testing.T) {
		_, err := c.Get(ctx, srv.URL+"/missing", 0)
		var statusErr *StatusError
		require.True(t, errors.As(err, &statusErr))
		assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	})

	t.Run("extra headers", func(t *testing.T) {
		body, err := c.GetWith(ctx, srv.URL+"/referer", 0, http.Header{"Referer": {"https://example.org/"}})
		require.NoError(t, err)
		assert.Equal(t, "https://example.org/", string(body))
	})
}

func TestClient_DefaultHeadersDoNotOverride(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(r.Header.Get("Accept")))
	}))
	defer srv.Close()

	c := NewClient(time.Second, WithHeader("Accept", "text/html"))
	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	req.Header.Set("Accept", "application/json")

	resp, err := c.DoWithContext(context.Background(), req)
	require.NoError(t, err)
	defer resp.Body.Close()

	buf := make([]byte, 64)
	n, _ := resp.Body.Read(buf)
	assert.Equal(t, "application/json", string(buf[:n]))
}
