// Package apiclient talks to the movietracker HTTP surface on behalf of the
// command line client.
package apiclient

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

	"movietracker/movie"
	"movietracker/watchlist"
)

const defaultTimeout = 15 * time.Second

// Error is a non-2xx answer from the service.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.Status)
}

// TokenSource returns the current bearer credential, empty when signed out.
type TokenSource func() string

type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Token      TokenSource
}

type Client struct {
	baseURL string
	http    *http.Client
	token   TokenSource
}

func New(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	token := opts.Token
	if token == nil {
		token = func() string { return "" }
	}
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http:    httpClient,
		token:   token,
	}
}

// Session is the answer to login and register.
type Session struct {
	AccessToken string         `json:"access_token"`
	TokenType   string         `json:"token_type"`
	User        watchlist.User `json:"user"`
}

// Entry is a watchlist or watched row. Dates stay as sent by the backend.
type Entry struct {
	ID           int     `json:"id"`
	Title        string  `json:"title"`
	Year         int     `json:"year"`
	Rating       float64 `json:"rating"`
	Poster       string  `json:"poster"`
	AddedDate    string  `json:"added_date,omitempty"`
	DateWatched  string  `json:"date_watched,omitempty"`
	PointsEarned int     `json:"points_earned,omitempty"`
}

type WatchResult struct {
	PointsEarned int      `json:"points_earned"`
	BonusPoints  int      `json:"bonus_points"`
	TotalPoints  int      `json:"total_points"`
	BonusReasons []string `json:"bonus_reasons"`
}

type Summary struct {
	TotalPoints     int `json:"total_points"`
	TotalMovies     int `json:"total_movies"`
	WatchedMovies   int `json:"watched_movies"`
	UnwatchedMovies int `json:"unwatched_movies"`
}

type Streak struct {
	Streak      int    `json:"streak"`
	LastWatched string `json:"last_watched,omitempty"`
}

type Daily struct {
	MoviesToday int `json:"movies_today"`
	PointsToday int `json:"points_today"`
}

type Leaderboard struct {
	Period  string                       `json:"period"`
	Entries []watchlist.LeaderboardEntry `json:"leaderboard"`
}

func (c *Client) Search(ctx context.Context, query string) ([]movie.Movie, error) {
	var out struct {
		Results []movie.Movie `json:"results"`
	}
	q := url.Values{"q": {query}}
	if err := c.do(ctx, http.MethodGet, "/api/movies/search", q, nil, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// Recommended returns a curated list and the category the service resolved.
func (c *Client) Recommended(ctx context.Context, category string) ([]movie.Movie, movie.Category, error) {
	var out struct {
		Results []movie.Movie  `json:"results"`
		Type    movie.Category `json:"type"`
	}
	var q url.Values
	if category != "" {
		q = url.Values{"type": {category}}
	}
	if err := c.do(ctx, http.MethodGet, "/api/movies/recommended", q, nil, &out); err != nil {
		return nil, "", err
	}
	return out.Results, out.Type, nil
}

func (c *Client) Login(ctx context.Context, creds watchlist.Credentials) (Session, error) {
	var out Session
	err := c.do(ctx, http.MethodPost, "/api/auth/login", nil, creds, &out)
	return out, err
}

func (c *Client) Register(ctx context.Context, creds watchlist.Credentials) (Session, error) {
	var out Session
	err := c.do(ctx, http.MethodPost, "/api/auth/register", nil, creds, &out)
	return out, err
}

func (c *Client) Add(ctx context.Context, m watchlist.NewMovie) error {
	return c.do(ctx, http.MethodPost, "/api/movies/add", nil, m, nil)
}

func (c *Client) MarkWatched(ctx context.Context, req watchlist.MarkWatched) (WatchResult, error) {
	var out WatchResult
	err := c.do(ctx, http.MethodPost, "/api/movies/mark-watched", nil, req, &out)
	return out, err
}

func (c *Client) Remove(ctx context.Context, movieID int) error {
	return c.do(ctx, http.MethodDelete, "/api/movies/watchlist/"+strconv.Itoa(movieID), nil, nil, nil)
}

func (c *Client) Watchlist(ctx context.Context) ([]Entry, error) {
	return c.entries(ctx, "/api/movies/watchlist")
}

func (c *Client) Watched(ctx context.Context) ([]Entry, error) {
	return c.entries(ctx, "/api/movies/watched")
}

func (c *Client) TotalPoints(ctx context.Context) (int, error) {
	var out struct {
		TotalPoints int `json:"total_points"`
	}
	err := c.do(ctx, http.MethodGet, "/api/stats/total-points", nil, nil, &out)
	return out.TotalPoints, err
}

func (c *Client) Summary(ctx context.Context) (Summary, error) {
	var out Summary
	err := c.do(ctx, http.MethodGet, "/api/stats/summary", nil, nil, &out)
	return out, err
}

func (c *Client) Streak(ctx context.Context) (Streak, error) {
	var out Streak
	err := c.do(ctx, http.MethodGet, "/api/stats/streak", nil, nil, &out)
	return out, err
}

func (c *Client) Daily(ctx context.Context) (Daily, error) {
	var out Daily
	err := c.do(ctx, http.MethodGet, "/api/stats/daily", nil, nil, &out)
	return out, err
}

func (c *Client) Leaderboard(ctx context.Context, period string) (Leaderboard, error) {
	var out Leaderboard
	var q url.Values
	if period != "" {
		q = url.Values{"period": {period}}
	}
	err := c.do(ctx, http.MethodGet, "/api/leaderboard", q, nil, &out)
	return out, err
}

func (c *Client) entries(ctx context.Context, path string) ([]Entry, error) {
	var out struct {
		Movies []Entry `json:"movies"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Movies, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Error{
			Status:  resp.StatusCode,
			Message: watchlist.ErrorDetail(raw, http.StatusText(resp.StatusCode)),
		}
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
