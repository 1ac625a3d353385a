package clock

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// HTTPSource obtains an authoritative timestamp from the Date header of a
// HEAD request to a server-controlled endpoint. The client cannot forge the
// value without also controlling the server.
type HTTPSource struct {
	url    string
	client *http.Client
}

var _ Source = (*HTTPSource)(nil)

// NewHTTPSource creates an HTTP time source with a bounded request timeout.
func NewHTTPSource(url string, timeout time.Duration) *HTTPSource {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPSource{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// Fetch implements Source.
func (s *HTTPSource) Fetch(ctx context.Context) (time.Time, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, s.url, nil)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to build clock request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return time.Time{}, fmt.Errorf("clock request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	header := resp.Header.Get("Date")
	if header == "" {
		return time.Time{}, fmt.Errorf("clock response from %s carries no Date header", s.url)
	}

	server, err := http.ParseTime(header)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse clock response: %w", err)
	}
	return server.UTC(), nil
}
