package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairway-media/golftracker/internal/resilience"
)

func fastOptions() HTTPOptions {
	return HTTPOptions{
		MinDelay: time.Millisecond,
		Timeout:  5 * time.Second,
		Retry: resilience.RetryConfig{
			MaxAttempts:    3,
			InitialBackoff: time.Millisecond,
			MaxBackoff:     5 * time.Millisecond,
			Multiplier:     2.0,
		},
	}
}

func TestGetSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(fastOptions())
	data, err := f.Get(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, string(data))
}

func TestGetSetsUserAgentAndHeaders(t *testing.T) {
	var gotUA, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotKey = r.Header.Get("X-Api-Key")
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	opts := fastOptions()
	opts.UserAgent = "golftracker-test/1.0"
	f := NewHTTPFetcher(opts)

	hdr := http.Header{}
	hdr.Set("X-Api-Key", "da2-testkey")
	_, err := f.Get(context.Background(), srv.URL, hdr)
	require.NoError(t, err)
	assert.Equal(t, "golftracker-test/1.0", gotUA)
	assert.Equal(t, "da2-testkey", gotKey)
}

func TestGetRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("recovered"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(fastOptions())
	data, err := f.Get(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, "recovered", string(data))
	assert.Equal(t, int32(3), calls.Load())
}

func TestGetRetries429(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(fastOptions())
	_, err := f.Get(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGetDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(fastOptions())
	_, err := f.Get(context.Background(), srv.URL, nil)
	require.Error(t, err)
	assert.True(t, resilience.IsPermanent(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestGetExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(fastOptions())
	_, err := f.Get(context.Background(), srv.URL, nil)
	require.Error(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestMinDelayBetweenRequests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	opts := fastOptions()
	opts.MinDelay = 50 * time.Millisecond
	f := NewHTTPFetcher(opts)

	start := time.Now()
	for range 3 {
		_, err := f.Get(context.Background(), srv.URL, nil)
		require.NoError(t, err)
	}
	// First request is free, the next two each wait the floor.
	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
}

func TestGetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name":"Scottie Scheffler","id":"34046"}`))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(fastOptions())
	var out struct {
		Name string `json:"name"`
		ID   string `json:"id"`
	}
	require.NoError(t, f.GetJSON(context.Background(), srv.URL, nil, &out))
	assert.Equal(t, "Scottie Scheffler", out.Name)
	assert.Equal(t, "34046", out.ID)
}

func TestGetJSONMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(fastOptions())
	var out map[string]any
	err := f.GetJSON(context.Background(), srv.URL, nil, &out)
	assert.Error(t, err)
}

func TestPostJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Write([]byte(`{"data":{"count":2}}`))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(fastOptions())
	var out struct {
		Data struct {
			Count int `json:"count"`
		} `json:"data"`
	}
	err := f.PostJSON(context.Background(), srv.URL, nil, map[string]string{"query": "{}"}, &out)
	require.NoError(t, err)
	assert.Equal(t, 2, out.Data.Count)
}

func TestContextCancellationStopsRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := NewHTTPFetcher(fastOptions())
	_, err := f.Get(ctx, srv.URL, nil)
	assert.Error(t, err)
}
