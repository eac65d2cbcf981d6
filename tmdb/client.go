// Package tmdb implements movie.Catalog against The Movie Database v3 API.
package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"movietracker/movie"

	"go.uber.org/zap"
)

const (
	DefaultBaseURL      = "https://api.themoviedb.org/3"
	DefaultImageBaseURL = "https://image.tmdb.org/t/p/w500"
	DefaultLanguage     = "es-ES"

	defaultTimeout = 10 * time.Second
)

type Options struct {
	APIKey       string
	BaseURL      string
	ImageBaseURL string
	Language     string
	Timeout      time.Duration
	HTTPClient   *http.Client
}

// Client implements movie.Catalog.
type Client struct {
	apiKey     string
	baseURL    string
	imageBase  string
	language   string
	httpClient *http.Client
	logger     *zap.SugaredLogger
}

var _ movie.Catalog = (*Client)(nil)

func NewClient(opts Options, logger *zap.SugaredLogger) *Client {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.ImageBaseURL == "" {
		opts.ImageBaseURL = DefaultImageBaseURL
	}
	if opts.Language == "" {
		opts.Language = DefaultLanguage
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}

	return &Client{
		apiKey:     opts.APIKey,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		imageBase:  opts.ImageBaseURL,
		language:   opts.Language,
		httpClient: opts.HTTPClient,
		logger:     logger,
	}
}

func (c *Client) Configured() bool {
	return c.apiKey != ""
}

func (c *Client) SearchMovies(ctx context.Context, query string) ([]movie.Movie, error) {
	var resp movieSearchResponse
	if err := c.get(ctx, "/search/movie", url.Values{"query": {query}}, &resp); err != nil {
		return nil, err
	}

	movies := make([]movie.Movie, 0, len(resp.Results))
	for _, r := range resp.Results {
		movies = append(movies, r.toMovie(c.imageBase, r.searchTitle()))
	}
	return movies, nil
}

func (c *Client) SearchPeople(ctx context.Context, query string) ([]movie.Person, error) {
	var resp personSearchResponse
	if err := c.get(ctx, "/search/person", url.Values{"query": {query}}, &resp); err != nil {
		return nil, err
	}

	people := make([]movie.Person, 0, len(resp.Results))
	for _, r := range resp.Results {
		people = append(people, movie.Person{
			ID:                 r.ID,
			Name:               r.Name,
			KnownForDepartment: r.KnownForDepartment,
		})
	}
	return people, nil
}

// PersonCredits returns the crew side of a person's filmography.
func (c *Client) PersonCredits(ctx context.Context, personID int) ([]movie.Credit, error) {
	var resp credits
	path := "/person/" + strconv.Itoa(personID) + "/movie_credits"
	if err := c.get(ctx, path, nil, &resp); err != nil {
		return nil, err
	}

	out := make([]movie.Credit, 0, len(resp.Crew))
	for _, m := range resp.Crew {
		out = append(out, movie.Credit{MovieID: m.ID, Name: m.Name, Job: m.Job})
	}
	return out, nil
}

func (c *Client) MovieDetails(ctx context.Context, movieID int) (movie.Details, error) {
	var resp movieResult
	path := "/movie/" + strconv.Itoa(movieID)
	if err := c.get(ctx, path, url.Values{"append_to_response": {"credits"}}, &resp); err != nil {
		return movie.Details{}, err
	}

	d := movie.Details{Movie: resp.toMovie(c.imageBase, resp.searchTitle())}
	if resp.Credits != nil {
		for _, m := range resp.Credits.Crew {
			d.Crew = append(d.Crew, movie.Credit{Name: m.Name, Job: m.Job})
		}
	}
	return d, nil
}

// List fetches one page of a curated list. The random category reads the popular list.
func (c *Client) List(ctx context.Context, category movie.Category, page int) ([]movie.Movie, error) {
	list := category
	if list == movie.CategoryRandom {
		list = movie.CategoryPopular
	}
	if page < 1 {
		page = 1
	}

	// Curated lists are not localized.
	var resp movieSearchResponse
	path := "/movie/" + string(list)
	if err := c.fetch(ctx, path, url.Values{"page": {strconv.Itoa(page)}}, "", &resp); err != nil {
		return nil, err
	}

	movies := make([]movie.Movie, 0, len(resp.Results))
	for _, r := range resp.Results {
		m := r.toMovie(c.imageBase, r.listTitle())
		if m.Overview == nil {
			empty := ""
			m.Overview = &empty
		}
		movies = append(movies, m)
	}
	return movies, nil
}

// get issues a localized GET against the catalog and decodes the JSON body into dest.
func (c *Client) get(ctx context.Context, path string, params url.Values, dest interface{}) error {
	return c.fetch(ctx, path, params, c.language, dest)
}

// fetch is get with an explicit language. An empty language omits the parameter.
func (c *Client) fetch(ctx context.Context, path string, params url.Values, language string, dest interface{}) error {
	if !c.Configured() {
		return movie.ErrCatalogNotConfigured
	}

	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	q.Set("api_key", c.apiKey)
	if language != "" {
		q.Set("language", language)
	}

	reqURL := c.baseURL + path + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("tmdb request build: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("tmdb request %s: %w", path, err)
	}
	defer resp.Body.Close()

	c.logger.Debugw("tmdb request", "path", path, "status", resp.StatusCode, "elapsed", time.Since(start))

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("tmdb: invalid API key")
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("tmdb: not found: %s", path)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("tmdb: HTTP %d for %s", resp.StatusCode, path)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("tmdb decode %s: %w", path, err)
	}
	return nil
}
