// Package docextract fetches reference documents and extracts bounded plain
// text from them. Failures never propagate: they come back as Unavailable.
package docextract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultMaxBytes = 25 << 20
	DefaultMaxPages = 40
	DefaultMaxChars = 12000
)

// ObjectOpener reads objects from a bucket store (gs:// sources).
type ObjectOpener interface {
	Open(ctx context.Context, bucket, object string) (io.ReadCloser, error)
}

type Options struct {
	HTTPClient   *http.Client
	Objects      ObjectOpener
	FetchTimeout time.Duration
	MaxBytes     int64
	MaxPages     int
	MaxChars     int
}

type Extractor struct {
	httpClient   *http.Client
	objects      ObjectOpener
	fetchTimeout time.Duration
	maxBytes     int64
	maxPages     int
	maxChars     int
}

func New(opts Options) *Extractor {
	e := &Extractor{
		httpClient:   opts.HTTPClient,
		objects:      opts.Objects,
		fetchTimeout: opts.FetchTimeout,
		maxBytes:     opts.MaxBytes,
		maxPages:     opts.MaxPages,
		maxChars:     opts.MaxChars,
	}
	if e.httpClient == nil {
		e.httpClient = &http.Client{}
	}
	if e.maxBytes <= 0 {
		e.maxBytes = DefaultMaxBytes
	}
	if e.maxPages <= 0 {
		e.maxPages = DefaultMaxPages
	}
	if e.maxChars <= 0 {
		e.maxChars = DefaultMaxChars
	}
	return e
}

// Extract fetches rawURL and returns its normalised, truncated text.
func (e *Extractor) Extract(ctx context.Context, rawURL string) Result {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return Unavailable("no source url")
	}

	if e.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.fetchTimeout)
		defer cancel()
	}

	data, err := e.fetch(ctx, rawURL)
	if err != nil {
		return Unavailable(err.Error())
	}

	text, _, err := extractPDFText(data, e.maxPages)
	if err != nil {
		return Unavailable(err.Error())
	}
	text = Truncate(NormalizeWhitespace(text), e.maxChars)
	if text == "" {
		return Unavailable(errNoText.Error())
	}
	return Extracted(text)
}

func (e *Extractor) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return e.fetchHTTP(ctx, rawURL)
	case "gs":
		return e.fetchObject(ctx, u)
	default:
		return nil, fmt.Errorf("unsupported url scheme %q", u.Scheme)
	}
}

func (e *Extractor) fetchHTTP(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/pdf, application/octet-stream;q=0.9, */*;q=0.5")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("fetch: status %d", resp.StatusCode)
	}
	return e.readBounded(resp.Body)
}

func (e *Extractor) fetchObject(ctx context.Context, u *url.URL) ([]byte, error) {
	if e.objects == nil {
		return nil, errors.New("gs:// sources are not enabled")
	}
	bucket := u.Host
	object := strings.TrimPrefix(u.Path, "/")
	if bucket == "" || object == "" {
		return nil, fmt.Errorf("invalid object url %q", u.String())
	}
	rc, err := e.objects.Open(ctx, bucket, object)
	if err != nil {
		return nil, fmt.Errorf("open object: %w", err)
	}
	defer rc.Close()
	return e.readBounded(rc)
}

func (e *Extractor) readBounded(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, e.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(data)) > e.maxBytes {
		return nil, fmt.Errorf("document exceeds %d bytes", e.maxBytes)
	}
	return data, nil
}
