package dataset

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"hai-map-go/internal/logger"
)

// Source reads a data file from disk or over http(s). Remote reads are
// attempted once unless MaxRetries is set.
type Source struct {
	MaxRetries uint64
	Timeout    time.Duration
	Client     *http.Client
}

func isRemote(path string) bool {
	l := strings.ToLower(path)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}

func (s Source) Read(ctx context.Context, path string) ([]byte, error) {
	if !isRemote(path) {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		return b, nil
	}
	return s.fetch(ctx, path)
}

func (s Source) client() *http.Client {
	if s.Client != nil {
		return s.Client
	}
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

func (s Source) fetch(ctx context.Context, url string) ([]byte, error) {
	log := logger.New().WithField("component", "dataset.source").WithField("url", url)
	client := s.client()

	var body []byte
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := client.Do(req)
		if err != nil {
			log.WithError(err).Warn("fetch failed")
			return err
		}
		defer resp.Body.Close()
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return backoff.Permanent(fmt.Errorf("fetch %s: status %d", url, resp.StatusCode))
		}
		if resp.StatusCode >= 300 {
			return fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
		}
		body = b
		return nil
	}

	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), s.MaxRetries), ctx)
	if err := backoff.Retry(op, b); err != nil {
		return nil, err
	}
	log.WithField("bytes", len(body)).Debug("fetched")
	return body, nil
}
