package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getter(url string) func(ctx context.Context) (*http.Request, error) {
	return func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	}
}

func TestClient_Do(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		maxRetries uint64
		wantHits   int32
		wantErr    bool
	}{
		{name: "success", status: http.StatusOK, maxRetries: 2, wantHits: 1},
		{name: "4xx is not retried", status: http.StatusBadRequest, maxRetries: 2, wantHits: 1},
		{name: "5xx is retried", status: http.StatusServiceUnavailable, maxRetries: 2, wantHits: 3, wantErr: true},
		{name: "single attempt by default", status: http.StatusBadGateway, maxRetries: 0, wantHits: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&hits, 1)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"ok":true}`))
			}))
			defer srv.Close()

			c := New("test", Options{MaxRetries: tt.maxRetries, InitialBackoff: time.Millisecond, BreakerFailures: 100})
			resp, err := c.Do(context.Background(), getter(srv.URL))

			assert.Equal(t, tt.wantHits, atomic.LoadInt32(&hits))
			if tt.wantErr {
				var se *StatusError
				require.True(t, errors.As(err, &se))
				assert.Equal(t, tt.status, se.StatusCode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.status == http.StatusOK, resp.OK())
			assert.JSONEq(t, `{"ok":true}`, string(resp.Body))
		})
	}
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := New("test", Options{BreakerFailures: 100})
	_, err := c.Do(context.Background(), getter(url))
	assert.Error(t, err)
}

func TestClient_TransportErrorHidesQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close()

	c := New("test", Options{BreakerFailures: 100})
	_, err := c.Do(context.Background(), getter(base+"/api?module=account&apikey=SECRET"))
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "SECRET")
	assert.NotContains(t, err.Error(), "apikey")
	assert.Contains(t, err.Error(), base+"/api")
}

func TestClient_BreakerOpens(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New("test", Options{BreakerFailures: 2})
	for i := 0; i < 2; i++ {
		_, err := c.Do(context.Background(), getter(srv.URL))
		require.Error(t, err)
	}

	_, err := c.Do(context.Background(), getter(srv.URL))
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestClient_BuildRequestError(t *testing.T) {
	c := New("test", Options{MaxRetries: 3, InitialBackoff: time.Millisecond})
	_, err := c.Do(context.Background(), func(ctx context.Context) (*http.Request, error) {
		return nil, errors.New("bad url")
	})
	assert.ErrorContains(t, err, "bad url")
}
