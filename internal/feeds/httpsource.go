package feeds

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const httpSourceLimit = 4 << 20 // feed payloads are token lists, cap at 4 MiB

// HTTPSource fetches one raw feed payload over HTTP. Schema validation and
// parsing stay in the owning feed; the source only moves bytes.
type HTTPSource struct {
	url    string
	client *http.Client
}

func NewHTTPSource(url string, timeout time.Duration) (*HTTPSource, error) {
	trimmed := strings.TrimSpace(url)
	if trimmed == "" {
		return nil, fmt.Errorf("feed source url cannot be empty")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPSource{url: trimmed, client: &http.Client{Timeout: timeout}}, nil
}

func (s *HTTPSource) Fetch(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return "", fmt.Errorf("building feed request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching feed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("feed returned %s", resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, httpSourceLimit))
	if err != nil {
		return "", fmt.Errorf("reading feed payload: %w", err)
	}
	return string(data), nil
}
