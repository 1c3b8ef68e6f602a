// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package grobid is a client for the GROBID document parsing service.
// Only the endpoints the parse pipeline needs are covered: full-text
// processing into TEI XML and the liveness/version probes.
package grobid

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/paperparse/internal/httputil"
	"github.com/pdiddy/paperparse/pkg/types"
)

const (
	pathFulltext = "/api/processFulltextDocument"
	pathIsAlive  = "/api/isalive"
	pathVersion  = "/api/version"
)

// ErrNotTEI is returned when GROBID answers successfully but the body is
// empty or is not a TEI document. It is not retried.
var ErrNotTEI = errors.New("grobid returned empty or non-TEI response")

// Client talks to a single GROBID server.
type Client struct {
	http *http.Client
	cfg  types.GrobidConfig
	log  *slog.Logger
}

// NewClient creates a client for cfg.URL. The HTTP client timeout is taken
// from cfg.Timeout when hc is nil.
func NewClient(cfg types.GrobidConfig, hc *http.Client, log *slog.Logger) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.URL == "" {
		cfg.URL = types.DefaultGrobidURL
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{http: hc, cfg: cfg, log: log}
}

// URL returns the base URL the client sends requests to.
func (c *Client) URL() string {
	return strings.TrimRight(c.cfg.URL, "/")
}

// ProcessFulltext uploads the PDF at pdfPath to processFulltextDocument and
// returns the trimmed TEI XML. Network failures and HTTP error statuses are
// retried per the configured policy. The file is reopened for each attempt.
func (c *Client) ProcessFulltext(ctx context.Context, pdfPath string) (string, error) {
	endpoint := c.URL() + pathFulltext

	newReq := func(ctx context.Context) (*http.Request, error) {
		body, contentType, err := c.multipartBody(pdfPath)
		if err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Accept", "application/xml")
		c.setHeaders(req)
		return req, nil
	}

	policy := httputil.RetryPolicy{Attempts: c.cfg.Retries, Backoff: c.cfg.Backoff}
	resp, err := httputil.DoWithRetry(ctx, c.http, newReq, policy, c.log)
	if err != nil {
		return "", fmt.Errorf("processFulltextDocument: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("processFulltextDocument returned HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading GROBID response: %w", err)
	}

	text := strings.TrimSpace(string(data))
	if text == "" || !strings.Contains(text, "<TEI") {
		return "", ErrNotTEI
	}
	return text, nil
}

// multipartBody encodes the PDF and the processing options as a
// multipart/form-data body.
func (c *Client) multipartBody(pdfPath string) (io.Reader, string, error) {
	f, err := os.Open(pdfPath)
	if err != nil {
		return nil, "", fmt.Errorf("opening PDF %s: %w", pdfPath, err)
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="input"; filename=%q`, filepath.Base(pdfPath)))
	h.Set("Content-Type", "application/pdf")
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("creating multipart part: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("reading PDF %s: %w", pdfPath, err)
	}

	fields := [][2]string{
		{"consolidateHeader", strconv.Itoa(c.cfg.ConsolidateHeader)},
		{"consolidateCitations", strconv.Itoa(c.cfg.ConsolidateCitations)},
	}
	if c.cfg.IncludeRawCitations {
		fields = append(fields, [2]string{"includeRawCitations", "1"})
	}
	if c.cfg.SegmentSentences {
		fields = append(fields, [2]string{"segmentSentences", "1"})
	}
	for _, kv := range fields {
		if err := mw.WriteField(kv[0], kv[1]); err != nil {
			return nil, "", fmt.Errorf("writing field %s: %w", kv[0], err)
		}
	}

	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("closing multipart body: %w", err)
	}
	return &buf, mw.FormDataContentType(), nil
}

// IsAlive reports whether the server answers its liveness probe with "true".
func (c *Client) IsAlive(ctx context.Context) (bool, error) {
	body, err := c.get(ctx, pathIsAlive)
	if err != nil {
		return false, err
	}
	return strings.EqualFold(body, "true"), nil
}

// WaitAlive polls the liveness probe every interval until the server is up
// or ctx is done. A freshly started container takes a while to load its
// models and refuses connections until then.
func (c *Client) WaitAlive(ctx context.Context, interval time.Duration) error {
	for {
		alive, err := c.IsAlive(ctx)
		if alive {
			return nil
		}
		c.log.DebugContext(ctx, "waiting for GROBID", slog.String("url", c.URL()), slog.Any("err", err))
		if err := httputil.Sleep(ctx, interval); err != nil {
			return fmt.Errorf("GROBID at %s not ready: %w", c.URL(), err)
		}
	}
}

// Version returns the GROBID server version string.
func (c *Client) Version(ctx context.Context) (string, error) {
	return c.get(ctx, pathVersion)
}

func (c *Client) get(ctx context.Context, path string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL()+path, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("GROBID request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("GROBID %s returned HTTP %d", path, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading GROBID response: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func (c *Client) setHeaders(req *http.Request) {
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}
}
