package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"moviemark/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	rapidAPIURL        = "https://movie-database-alternative.p.rapidapi.com/"
	defaultTimeout     = 30 * time.Second
	userAgent          = "moviemark/1.0"
	searchCachePrefix  = "movie:search:"
	detailsCachePrefix = "movie:details:"
	maxResponseSize    = 5 * 1024 * 1024 // 5MB
)

var (
	ErrNotFound     = errors.New("movie not found")
	ErrInvalidQuery = errors.New("search query cannot be empty")
	ErrInvalidID    = errors.New("movie id cannot be empty")
)

// StatusError is returned when the provider answers with a non-2xx status.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned status code %d", e.StatusCode)
}

// IsNotFound reports whether err means the provider has no such movie,
// either through its payload flag or an HTTP 404.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound
}

type Client struct {
	baseURL    string
	host       string
	key        string
	httpClient *http.Client
	logger     *logrus.Logger
	redis      *redis.Client
	cacheTTL   time.Duration
}

type ClientConfig struct {
	BaseURL    string
	Host       string
	Key        string
	Timeout    time.Duration
	Logger     *logrus.Logger
	Redis      *redis.Client
	CacheTTL   time.Duration
	HTTPClient *http.Client
}

func NewClientWithConfig(config *ClientConfig) *Client {
	if config.Logger == nil {
		config.Logger = logrus.New()
	}
	if config.BaseURL == "" {
		config.BaseURL = rapidAPIURL
	}
	if config.Timeout <= 0 {
		config.Timeout = defaultTimeout
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: config.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:          100,
				MaxIdleConnsPerHost:   10,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
			},
		}
	}

	return &Client{
		baseURL:    config.BaseURL,
		host:       config.Host,
		key:        config.Key,
		httpClient: httpClient,
		logger:     config.Logger,
		redis:      config.Redis,
		cacheTTL:   config.CacheTTL,
	}
}

// SearchMovies runs a first-page title search. A negative provider answer
// is returned as ErrNotFound.
func (c *Client) SearchMovies(ctx context.Context, query string) (*models.UpstreamSearchResponse, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrInvalidQuery
	}

	c.logger.WithField("query", query).Info("Searching movies...")

	var searchResult models.UpstreamSearchResponse
	cacheKey := searchCachePrefix + query
	if c.fromCache(ctx, cacheKey, &searchResult) {
		c.logger.WithField("query", query).Info("Retrieved search results from cache")
		return &searchResult, nil
	}

	params := url.Values{}
	params.Set("s", query)
	params.Set("r", "json")
	params.Set("page", "1")

	body, err := c.makeRequest(ctx, params)
	if err != nil {
		return nil, err
	}

	searchResult = models.UpstreamSearchResponse{}
	if err := json.Unmarshal(body, &searchResult); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}
	if !searchResult.Found() {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, searchResult.Error)
	}

	c.toCache(ctx, cacheKey, searchResult)
	return &searchResult, nil
}

// GetMovie looks a movie up by IMDb identifier with the full plot.
func (c *Client) GetMovie(ctx context.Context, id string) (*models.UpstreamMovie, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidID
	}

	c.logger.WithField("imdb_id", id).Info("Fetching movie details...")

	var movie models.UpstreamMovie
	cacheKey := detailsCachePrefix + id
	if c.fromCache(ctx, cacheKey, &movie) {
		c.logger.WithField("imdb_id", id).Info("Retrieved movie details from cache")
		return &movie, nil
	}

	params := url.Values{}
	params.Set("i", id)
	params.Set("r", "json")
	params.Set("plot", "full")

	body, err := c.makeRequest(ctx, params)
	if err != nil {
		return nil, err
	}

	movie = models.UpstreamMovie{}
	if err := json.Unmarshal(body, &movie); err != nil {
		return nil, fmt.Errorf("failed to decode movie response: %w", err)
	}
	if !movie.Found() {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, movie.Error)
	}

	c.toCache(ctx, cacheKey, movie)
	return &movie, nil
}

// makeRequest issues exactly one GET against the provider. There is no
// retry; a slow provider is bounded only by the http.Client timeout.
func (c *Client) makeRequest(ctx context.Context, params url.Values) ([]byte, error) {
	endpoint, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid upstream url: %w", err)
	}
	endpoint.RawQuery = params.Encode()
	target := endpoint.String()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("X-RapidAPI-Host", c.host)
	req.Header.Set("X-RapidAPI-Key", c.key)
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.WithFields(logrus.Fields{
			"status": resp.StatusCode,
			"query":  endpoint.RawQuery,
		}).Warn("Upstream request failed")
		return nil, &StatusError{URL: target, StatusCode: resp.StatusCode}
	}

	body, err := c.readRespBody(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"query":         endpoint.RawQuery,
		"status":        resp.StatusCode,
		"response_size": len(body),
	}).Debug("API request successful")

	return body, nil
}

func (c *Client) readRespBody(resp *http.Response) ([]byte, error) {
	if resp.ContentLength > maxResponseSize {
		return nil, fmt.Errorf("response too large: %d bytes", resp.ContentLength)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize+1))
	if err != nil {
		return nil, err
	}
	if len(body) > maxResponseSize {
		return nil, fmt.Errorf("response too large: exceeded %d bytes", maxResponseSize)
	}
	return body, nil
}

func (c *Client) fromCache(ctx context.Context, key string, dest any) bool {
	if c.redis == nil || c.cacheTTL <= 0 {
		return false
	}

	cached, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.WithError(err).Warn("Failed to read from Redis")
		}
		return false
	}

	if err := json.Unmarshal([]byte(cached), dest); err != nil {
		c.logger.WithError(err).Warn("Failed to unmarshal cached response")
		return false
	}
	return true
}

// toCache stores successful payloads only; negative answers always go
// back to the provider.
func (c *Client) toCache(ctx context.Context, key string, value any) {
	if c.redis == nil || c.cacheTTL <= 0 {
		return
	}

	payload, err := json.Marshal(value)
	if err != nil {
		c.logger.WithError(err).Warn("Failed to marshal response for caching")
		return
	}
	if err := c.redis.Set(ctx, key, payload, c.cacheTTL).Err(); err != nil {
		c.logger.WithError(err).Warn("Failed to write response to cache")
		return
	}
	c.logger.WithField("key", key).Debug("Response cached successfully")
}
