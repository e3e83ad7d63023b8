package rtmpstat

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// DefaultTimeout bounds a single status page request.
const DefaultTimeout = 5 * time.Second

// UserAgent is sent with every status page request.
var UserAgent = "nginx-rtmp-exporter"

// StatusError is returned when the status page answers with a non-200 code.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("'%s' returned HTTP status code: %d", e.URL, e.StatusCode)
}

// Fetcher retrieves and decodes the nginx-rtmp status page.
type Fetcher struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewFetcher creates a fetcher for the given status URL. A non-positive
// timeout falls back to DefaultTimeout.
func NewFetcher(url string, timeout time.Duration, logger *slog.Logger) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Fetcher{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// URL returns the status page URL.
func (f *Fetcher) URL() string {
	return f.url
}

// Fetch performs one GET of the status page. There are no retries; the
// caller's next poll is the retry.
func (f *Fetcher) Fetch(ctx context.Context) (*Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for '%s': %w", f.url, err)
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/xml, text/xml")

	start := time.Now()
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error on HTTP request '%s': %w", f.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: f.url, StatusCode: resp.StatusCode}
	}

	snap, err := Decode(resp.Body)
	if err != nil {
		return nil, err
	}

	f.logger.Debug("rtmp_stat_fetched",
		"url", f.url,
		"applications", len(snap.Applications),
		"duration", time.Since(start),
	)

	return snap, nil
}
