// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fastPolicy keeps backoff waits negligible.
var fastPolicy = RetryPolicy{Attempts: 3, Backoff: time.Millisecond}

func getRequest(url string, builds *int32) RequestFunc {
	return func(ctx context.Context) (*http.Request, error) {
		atomic.AddInt32(builds, 1)
		return http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	}
}

func TestDoWithRetry_ImmediateSuccess(t *testing.T) {
	var calls, builds int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	resp, err := DoWithRetry(context.Background(), ts.Client(), getRequest(ts.URL, &builds), fastPolicy, nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&builds))
}

func TestDoWithRetry_RetriesServerErrorThen200(t *testing.T) {
	var calls, builds int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	resp, err := DoWithRetry(context.Background(), ts.Client(), getRequest(ts.URL, &builds), fastPolicy, nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	// A fresh request is built for every attempt.
	assert.Equal(t, int32(3), atomic.LoadInt32(&builds))
}

func TestDoWithRetry_ExhaustsErrorStatus(t *testing.T) {
	var calls, builds int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	resp, err := DoWithRetry(context.Background(), ts.Client(), getRequest(ts.URL, &builds), fastPolicy, nil)
	require.Error(t, err)
	assert.Nil(t, resp)

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusTooManyRequests, se.StatusCode)
	assert.Equal(t, 3, se.Attempts)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestDoWithRetry_NetworkFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	url := ts.URL
	ts.Close()

	var builds int32
	_, err := DoWithRetry(context.Background(), &http.Client{Timeout: time.Second}, getRequest(url, &builds), fastPolicy, nil)
	require.Error(t, err)

	var se *StatusError
	assert.False(t, errors.As(err, &se), "network failures are not status errors")
	assert.Equal(t, int32(3), atomic.LoadInt32(&builds))
}

func TestDoWithRetry_RetriesClientErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"bad request", http.StatusBadRequest},
		{"not found", http.StatusNotFound},
		{"unsupported media type", http.StatusUnsupportedMediaType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls, builds int32
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				atomic.AddInt32(&calls, 1)
				w.WriteHeader(tt.status)
			}))
			defer ts.Close()

			resp, err := DoWithRetry(context.Background(), ts.Client(), getRequest(ts.URL, &builds), fastPolicy, nil)
			require.Error(t, err)
			assert.Nil(t, resp)

			var se *StatusError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.status, se.StatusCode)
			assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
		})
	}
}

func TestDoWithRetry_NoContentIsSuccess(t *testing.T) {
	var calls, builds int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	resp, err := DoWithRetry(context.Background(), ts.Client(), getRequest(ts.URL, &builds), fastPolicy, nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestDoWithRetry_LinearBackoff(t *testing.T) {
	const unit = 40 * time.Millisecond

	tests := []struct {
		name     string
		attempts int
	}{
		{"two attempts", 2},
		{"three attempts", 3},
		{"four attempts", 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var mu sync.Mutex
			var stamps []time.Time
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				mu.Lock()
				stamps = append(stamps, time.Now())
				mu.Unlock()
				w.WriteHeader(http.StatusServiceUnavailable)
			}))
			defer ts.Close()

			var builds int32
			_, err := DoWithRetry(context.Background(), ts.Client(), getRequest(ts.URL, &builds),
				RetryPolicy{Attempts: tt.attempts, Backoff: unit}, nil)
			returned := time.Now()
			require.Error(t, err)

			mu.Lock()
			defer mu.Unlock()
			require.Len(t, stamps, tt.attempts)

			// The wait after failed attempt n is n units.
			for n := 1; n < len(stamps); n++ {
				gap := stamps[n].Sub(stamps[n-1])
				want := unit * time.Duration(n)
				assert.GreaterOrEqual(t, gap, want, "gap after attempt %d", n)
				assert.Less(t, gap, want+unit, "gap after attempt %d", n)
			}

			// No wait follows the last attempt.
			tail := returned.Sub(stamps[len(stamps)-1])
			assert.Less(t, tail, unit, "returned %s after the last attempt", tail)
		})
	}
}

func TestDoWithRetry_DefaultAttempts(t *testing.T) {
	var calls, builds int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	_, err := DoWithRetry(context.Background(), ts.Client(), getRequest(ts.URL, &builds),
		RetryPolicy{Backoff: time.Millisecond}, nil)
	require.Error(t, err)
	assert.Equal(t, int32(defaultAttempts), atomic.LoadInt32(&calls))
}

func TestDoWithRetry_ContextCancelledDuringBackoff(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	var builds int32
	_, err := DoWithRetry(ctx, ts.Client(), getRequest(ts.URL, &builds),
		RetryPolicy{Attempts: 3, Backoff: 5 * time.Second}, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, int32(1), atomic.LoadInt32(&builds))
}

func TestDoWithRetry_RequestBuildErrorNotRetried(t *testing.T) {
	var builds int32
	newReq := func(context.Context) (*http.Request, error) {
		atomic.AddInt32(&builds, 1)
		return nil, errors.New("cannot open file")
	}

	_, err := DoWithRetry(context.Background(), http.DefaultClient, newReq, fastPolicy, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot open file")
	assert.Equal(t, int32(1), atomic.LoadInt32(&builds))
}

func TestSleep(t *testing.T) {
	require.NoError(t, Sleep(context.Background(), 0))
	require.NoError(t, Sleep(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Sleep(ctx, time.Hour), context.Canceled)
}
