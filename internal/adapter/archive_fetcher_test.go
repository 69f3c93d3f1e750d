package adapter

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MKhiriev/go-session-keeper/internal/config"
	"github.com/MKhiriev/go-session-keeper/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPArchiveFetcher_Fetch(t *testing.T) {
	payload := []byte("PK\x03\x04rest-of-archive")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/redirect":
			http.Redirect(w, r, "/session.zip", http.StatusFound)
		case "/session.zip":
			_, _ = w.Write(payload)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := NewHTTPArchiveFetcher(config.Adapter{DownloadTimeout: time.Second}, logger.Nop())

	t.Run("direct", func(t *testing.T) {
		var buf bytes.Buffer
		n, err := f.Fetch(context.Background(), srv.URL+"/session.zip", &buf)
		require.NoError(t, err)
		assert.Equal(t, int64(len(payload)), n)
		assert.Equal(t, payload, buf.Bytes())
	})

	t.Run("follows redirects", func(t *testing.T) {
		var buf bytes.Buffer
		_, err := f.Fetch(context.Background(), srv.URL+"/redirect", &buf)
		require.NoError(t, err)
		assert.Equal(t, payload, buf.Bytes())
	})

	t.Run("not found", func(t *testing.T) {
		var buf bytes.Buffer
		_, err := f.Fetch(context.Background(), srv.URL+"/missing.zip", &buf)
		assert.ErrorIs(t, err, ErrArchiveFetch)
		assert.Zero(t, buf.Len())
	})

	t.Run("unreachable", func(t *testing.T) {
		var buf bytes.Buffer
		_, err := f.Fetch(context.Background(), "http://127.0.0.1:1/session.zip", &buf)
		assert.ErrorIs(t, err, ErrArchiveFetch)
	})
}
