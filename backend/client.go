// Package backend relays watchlist operations to the persistence service over HTTP.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"movietracker/watchlist"

	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "http://localhost:8000"

	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 4 << 20
)

type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client implements watchlist.Backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.SugaredLogger
}

var _ watchlist.Backend = (*Client)(nil)

func NewClient(opts Options, logger *zap.SugaredLogger) *Client {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: opts.HTTPClient,
		logger:     logger,
	}
}

func (c *Client) AddToWatchlist(ctx context.Context, token string, m watchlist.NewMovie) (watchlist.Reply, error) {
	return c.do(ctx, http.MethodPost, "/api/movies/add-watchlist", token, m)
}

func (c *Client) MarkWatched(ctx context.Context, token string, req watchlist.MarkWatched) (watchlist.Reply, error) {
	return c.do(ctx, http.MethodPost, "/api/movies/mark-watched", token, req)
}

func (c *Client) Remove(ctx context.Context, token string, movieID int) (watchlist.Reply, error) {
	return c.do(ctx, http.MethodDelete, "/api/movies/watchlist/"+strconv.Itoa(movieID), token, nil)
}

func (c *Client) Watchlist(ctx context.Context, token string) (watchlist.Reply, error) {
	return c.do(ctx, http.MethodGet, "/api/movies/watchlist", token, nil)
}

func (c *Client) Watched(ctx context.Context, token string) (watchlist.Reply, error) {
	return c.do(ctx, http.MethodGet, "/api/movies/watched", token, nil)
}

func (c *Client) TotalPoints(ctx context.Context, token string) (watchlist.Reply, error) {
	return c.do(ctx, http.MethodGet, "/api/stats/total-points", token, nil)
}

func (c *Client) Summary(ctx context.Context, token string) (watchlist.Reply, error) {
	return c.do(ctx, http.MethodGet, "/api/stats/summary", token, nil)
}

func (c *Client) Streak(ctx context.Context, token string) (watchlist.Reply, error) {
	return c.do(ctx, http.MethodGet, "/api/stats/streak", token, nil)
}

func (c *Client) Daily(ctx context.Context, token string) (watchlist.Reply, error) {
	return c.do(ctx, http.MethodGet, "/api/stats/daily", token, nil)
}

func (c *Client) Leaderboard(ctx context.Context, token string, period watchlist.Period) (watchlist.Reply, error) {
	path := "/api/leaderboard?" + url.Values{"period": {string(period)}}.Encode()
	return c.do(ctx, http.MethodGet, path, token, nil)
}

func (c *Client) Login(ctx context.Context, creds watchlist.Credentials) (watchlist.Reply, error) {
	return c.do(ctx, http.MethodPost, "/api/auth/login", "", creds)
}

func (c *Client) Register(ctx context.Context, creds watchlist.Credentials) (watchlist.Reply, error) {
	return c.do(ctx, http.MethodPost, "/api/auth/register", "", creds)
}

// do sends one request and returns the status and body untouched. Only
// transport failures are errors.
func (c *Client) do(ctx context.Context, method, path, token string, payload interface{}) (watchlist.Reply, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return watchlist.Reply{}, fmt.Errorf("backend encode %s: %w", path, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return watchlist.Reply{}, fmt.Errorf("backend request build: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return watchlist.Reply{}, fmt.Errorf("%w: %s %s: %v", watchlist.ErrBackendUnreachable, method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return watchlist.Reply{}, fmt.Errorf("backend read %s: %w", path, err)
	}

	c.logger.Debugw("backend request", "method", method, "path", path, "status", resp.StatusCode, "elapsed", time.Since(start))
	return watchlist.Reply{Status: resp.StatusCode, Body: raw}, nil
}
