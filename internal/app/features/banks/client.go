// internal/app/features/banks/client.go
package banks

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultAPIURL is the BrasilAPI banks directory.
const DefaultAPIURL = "https://brasilapi.com.br/api/banks/v1"

// DefaultCacheTTL is how long a fetched directory stays fresh. The list
// changes a few times a year at most.
const DefaultCacheTTL = 24 * time.Hour

// Bank is one entry of the banks directory.
type Bank struct {
	ISPB     string `json:"ispb"`
	Name     string `json:"name"`
	Code     *int   `json:"code"`
	FullName string `json:"fullName"`
}

// Client fetches the national banks directory with an in-process cache.
// Concurrent cache misses collapse into one upstream request.
type Client struct {
	url  string
	ttl  time.Duration
	http *retryablehttp.Client
	log  *zap.Logger

	group singleflight.Group

	mu        sync.RWMutex
	cached    []Bank
	fetchedAt time.Time
}

// NewClient constructs a banks Client. Empty url or non-positive ttl fall
// back to the defaults.
func NewClient(url string, ttl time.Duration, logger *zap.Logger) *Client {
	if url == "" {
		url = DefaultAPIURL
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	rc.RetryWaitMin = 500 * time.Millisecond
	rc.RetryWaitMax = 5 * time.Second
	rc.HTTPClient.Timeout = 15 * time.Second
	rc.Logger = nil

	return &Client{url: url, ttl: ttl, http: rc, log: logger}
}

// List returns the directory, served from cache while fresh. A stale cache
// is still returned when the upstream is down.
func (c *Client) List(ctx context.Context) ([]Bank, error) {
	c.mu.RLock()
	banks, age := c.cached, time.Since(c.fetchedAt)
	c.mu.RUnlock()
	if banks != nil && age < c.ttl {
		return banks, nil
	}

	got, err, _ := c.group.Do("banks", func() (any, error) {
		fetched, err := c.fetch(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.cached = fetched
		c.fetchedAt = time.Now()
		c.mu.Unlock()
		return fetched, nil
	})
	if err != nil {
		if banks != nil {
			c.log.Warn("banks refresh failed, serving stale cache", zap.Error(err))
			return banks, nil
		}
		return nil, err
	}
	return got.([]Bank), nil
}

func (c *Client) fetch(ctx context.Context) ([]Bank, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch banks directory: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("banks directory: unexpected status %d", resp.StatusCode)
	}

	var banks []Bank
	if err := json.NewDecoder(resp.Body).Decode(&banks); err != nil {
		return nil, fmt.Errorf("decode banks directory: %w", err)
	}

	// Entries without a COMPE code cannot be referenced by accounts.
	out := banks[:0]
	for _, b := range banks {
		if b.Code != nil && b.Name != "" {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return *out[i].Code < *out[j].Code })

	c.log.Info("banks directory refreshed", zap.Int("count", len(out)))
	return out, nil
}

// Option is a display entry for a bank picker: "001 - BCO DO BRASIL S.A.".
type Option struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

// Options formats the directory as zero-padded picker options.
func Options(banks []Bank) []Option {
	opts := make([]Option, 0, len(banks))
	for _, b := range banks {
		code := fmt.Sprintf("%03d", *b.Code)
		opts = append(opts, Option{Code: code, Label: code + " - " + b.Name})
	}
	return opts
}
