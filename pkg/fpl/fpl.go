// Package fpl proxies the public Fantasy Premier League API. Responses are
// passed through as raw JSON; this service adds auth and caching, not shape.
package fpl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ErrNotFound means the upstream did not recognize the manager id.
var ErrNotFound = errors.New("fpl: manager not found")

type Client struct {
	httpClient *http.Client
	baseURL    string
	cache      *redis.Client // nil disables caching
	cacheTTL   time.Duration
	log        *logrus.Logger
}

func New(baseURL string, cache *redis.Client, cacheTTL time.Duration, log *logrus.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    baseURL,
		cache:      cache,
		cacheTTL:   cacheTTL,
		log:        log,
	}
}

// ManagerHistory fetches a manager's season-by-season history. Cache errors
// are logged and swallowed; the upstream is always the fallback.
func (c *Client) ManagerHistory(ctx context.Context, managerID string) ([]byte, error) {
	key := "fpl:manager:" + managerID + ":history"

	if c.cache != nil {
		cached, err := c.cache.Get(ctx, key).Bytes()
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, redis.Nil) {
			c.log.WithError(err).Warn("fpl cache read failed")
		}
	}

	url := fmt.Sprintf("%s/entry/%s/history/", c.baseURL, managerID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fpl: fetch manager history: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ErrNotFound
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fpl: read manager history: %w", err)
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, body, c.cacheTTL).Err(); err != nil {
			c.log.WithError(err).Warn("fpl cache write failed")
		}
	}
	return body, nil
}
