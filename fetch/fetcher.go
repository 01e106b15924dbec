// Package fetch retrieves the candidate dataset from the remote endpoint.
//
// The content-type check is lenient: a response that is not labelled as
// JSON is logged and then parsed anyway, because the upstream script
// deployment does not always label its output correctly.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/kouki023/situation-in-the-electoral-district/snapshot"
)

// Config configures the fetcher.
type Config struct {
	URL          string        // endpoint, GET only
	Timeout      time.Duration // whole-request timeout. Default: 30s.
	MaxRedirects int           // Default: 10.
	MaxBytes     int64         // Max response body size. Default: 32MB.
	UserAgent    string
	PreviewChars int // body characters echoed for non-JSON responses. Default: 500.
}

func (c *Config) defaults() {
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxRedirects <= 0 {
		c.MaxRedirects = 10
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = 32 * 1024 * 1024
	}
	if c.UserAgent == "" {
		c.UserAgent = "candidates-sync/1.0"
	}
	if c.PreviewChars <= 0 {
		c.PreviewChars = 500
	}
}

// Result is a successfully parsed response.
type Result struct {
	Snapshot    *snapshot.Snapshot
	StatusCode  int
	ContentType string
	JSONContent bool   // declared content type was JSON
	FinalURL    string // URL after redirects
}

// Fetcher performs the GET against the configured endpoint.
type Fetcher struct {
	client *http.Client
	config Config
	logger *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithLogger sets the logger used for progress and diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(f *Fetcher) { f.logger = l }
}

// WithTransport replaces the HTTP transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(f *Fetcher) { f.client.Transport = rt }
}

// New creates a Fetcher that follows redirects up to cfg.MaxRedirects.
func New(cfg Config, opts ...Option) *Fetcher {
	cfg.defaults()
	limit := cfg.MaxRedirects
	f := &Fetcher{
		client: &http.Client{
			Timeout: cfg.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= limit {
					return fmt.Errorf("too many redirects (%d)", len(via))
				}
				return nil
			},
		},
		config: cfg,
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// URL returns the configured endpoint.
func (f *Fetcher) URL() string { return f.config.URL }

// Fetch downloads and parses the dataset. The returned error is always an *Error.
func (f *Fetcher) Fetch(ctx context.Context) (*Result, error) {
	f.logger.Info("fetching data from API", "url", f.config.URL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.config.URL, nil)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Err: fmt.Errorf("new request: %w", err)}
	}
	req.Header.Set("User-Agent", f.config.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Err: fmt.Errorf("http get: %w", err)}
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Error{
			Kind:        KindTransport,
			ContentType: contentType,
			Err:         fmt.Errorf("http %d %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.config.MaxBytes+1))
	if err != nil {
		return nil, &Error{Kind: KindTransport, ContentType: contentType, Err: fmt.Errorf("read body: %w", err)}
	}
	if int64(len(body)) > f.config.MaxBytes {
		return nil, &Error{Kind: KindTransport, ContentType: contentType, Err: fmt.Errorf("response body exceeds %d bytes", f.config.MaxBytes)}
	}

	f.logger.Info("response received", "status", resp.StatusCode, "content_type", contentType)

	res := &Result{
		StatusCode:  resp.StatusCode,
		ContentType: contentType,
		JSONContent: IsJSONContentType(contentType),
		FinalURL:    resp.Request.URL.String(),
	}

	if res.JSONContent {
		s, err := snapshot.Parse(body)
		if err != nil {
			return nil, &Error{Kind: parseKind(err), ContentType: contentType, Err: fmt.Errorf("json decode: %w", err)}
		}
		res.Snapshot = s
	} else {
		f.logger.Warn("response is not labelled as JSON", "content_type", contentType)
		f.logger.Warn("response body preview", "chars", f.config.PreviewChars, "body", Preview(body, f.config.PreviewChars))

		s, err := snapshot.Parse(body)
		if err != nil {
			return nil, &Error{
				Kind:        KindFormat,
				ContentType: contentType,
				Err:         fmt.Errorf("response is not JSON, check the endpoint deployment settings: %w", err),
			}
		}
		res.Snapshot = s
	}

	f.logger.Info("data fetched", "regions", res.Snapshot.Len())
	return res, nil
}

// parseKind reports valid JSON of the wrong shape as a format problem and
// everything else as a parse failure.
func parseKind(err error) Kind {
	if errors.Is(err, snapshot.ErrNotObject) {
		return KindFormat
	}
	return KindParse
}

// IsJSONContentType reports whether a Content-Type header declares JSON.
func IsJSONContentType(ct string) bool {
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		ct = strings.ToLower(ct)
		return strings.Contains(ct, "application/json") || strings.Contains(ct, "text/json")
	}
	return mt == "application/json" || mt == "text/json" || strings.HasSuffix(mt, "+json")
}

// Preview returns at most n characters of body, decoded as UTF-8.
func Preview(body []byte, n int) string {
	s := strings.ToValidUTF8(string(body), "�")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
