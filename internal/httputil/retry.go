// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared across components.
package httputil

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const defaultAttempts = 3

// RetryPolicy bounds the number of attempts and sets the linear backoff
// unit. After failed attempt n the caller waits Backoff*n before the next
// attempt: with the defaults (3 attempts, 5 s) that is 5 s, then 10 s.
type RetryPolicy struct {
	Attempts int
	Backoff  time.Duration
}

// StatusError reports an HTTP error status that persisted through every
// attempt.
type StatusError struct {
	StatusCode int
	Attempts   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d after %d attempt(s)", e.StatusCode, e.Attempts)
}

// RequestFunc builds a fresh request for one attempt. Request bodies such as
// multipart uploads are consumed by a send, so each attempt needs its own.
type RequestFunc func(ctx context.Context) (*http.Request, error)

// DoWithRetry sends the request built by newReq and retries on network
// failures and on every error status (4xx and 5xx) with linear backoff.
//
// Errors building the request are not retried. When the attempts are
// exhausted the last transport error, or a *StatusError for the last error
// status, is returned. If the context is cancelled during a backoff wait the
// function returns ctx.Err().
func DoWithRetry(ctx context.Context, client *http.Client, newReq RequestFunc, policy RetryPolicy, log *slog.Logger) (*http.Response, error) {
	attempts := policy.Attempts
	if attempts <= 0 {
		attempts = defaultAttempts
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		req, err := newReq(ctx)
		if err != nil {
			return nil, fmt.Errorf("building request: %w", err)
		}

		resp, err := client.Do(req)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
		case isErrorStatus(resp.StatusCode):
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			lastErr = &StatusError{StatusCode: resp.StatusCode, Attempts: attempt}
		default:
			return resp, nil
		}

		if attempt == attempts {
			break
		}

		backoff := policy.Backoff * time.Duration(attempt)
		log.WarnContext(ctx, "request failed, retrying",
			slog.String("url", req.URL.String()),
			slog.Int("attempt", attempt),
			slog.Int("attempts", attempts),
			slog.Duration("backoff", backoff),
			slog.String("err", lastErr.Error()),
		)

		if err := Sleep(ctx, backoff); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

// Sleep waits for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func isErrorStatus(code int) bool {
	return code >= http.StatusBadRequest
}
