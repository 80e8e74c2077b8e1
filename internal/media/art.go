package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"
)

// maxArtBytes bounds downloaded cover art.
const maxArtBytes = 8 << 20

// artFetcher loads cover art by URL and remembers the last success, so a
// poll every second does not re-download an unchanged cover.
type artFetcher struct {
	client *http.Client

	mu      sync.Mutex
	lastURL string
	last    []byte
}

func newArtFetcher() *artFetcher {
	return &artFetcher{client: &http.Client{Timeout: 5 * time.Second}}
}

func (f *artFetcher) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if rawURL == "" {
		return nil, nil
	}

	f.mu.Lock()
	if rawURL == f.lastURL {
		data := f.last
		f.mu.Unlock()
		return data, nil
	}
	f.mu.Unlock()

	data, err := f.load(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.lastURL = rawURL
	f.last = data
	f.mu.Unlock()
	return data, nil
}

func (f *artFetcher) load(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing artwork url: %w", err)
	}

	switch u.Scheme {
	case "file":
		data, err := os.ReadFile(u.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to read artwork file: %w", err)
		}
		return data, nil
	case "http", "https":
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		resp, err := f.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to download artwork: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("artwork download failed with status: %d", resp.StatusCode)
		}
		data, err := io.ReadAll(io.LimitReader(resp.Body, maxArtBytes+1))
		if err != nil {
			return nil, fmt.Errorf("failed to read artwork data: %w", err)
		}
		if len(data) > maxArtBytes {
			return nil, errors.New("artwork too large")
		}
		return data, nil
	}
	return nil, fmt.Errorf("unsupported artwork URL scheme: %s", rawURL)
}
