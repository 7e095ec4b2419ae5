// Package hevy is a small client for the read-only exercise template
// endpoints of the Hevy public API.
package hevy

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/gymkit/hevymcp/errors"
	"github.com/gymkit/hevymcp/internal/httpclient"
	"github.com/gymkit/hevymcp/logger"
	"github.com/gymkit/hevymcp/version"
)

const (
	// DefaultBaseURL is the Hevy public API host
	DefaultBaseURL = "https://api.hevyapp.com"
	// MaxPageSize is the largest pageSize Hevy accepts for exercise templates
	MaxPageSize = 100

	apiKeyHeader = "api-key"
	maxBodyBytes = 8 << 20
)

// Config holds client configuration
type Config struct {
	APIKey            string
	BaseURL           string        // "" = DefaultBaseURL
	Timeout           time.Duration // 0 = 30s
	RequestsPerSecond float64       // 0 = unlimited
	MaxRetries        int           // retries after the first attempt, network and 5xx errors only
	RetryDelay        time.Duration // linear backoff step, 0 = 1s
	Logger            *zap.SugaredLogger
}

// Client talks to the Hevy API
type Client struct {
	config     Config
	baseURL    string
	httpClient *httpclient.Client
	logger     *zap.SugaredLogger
}

// NewClient creates a new Hevy client. The API key is required.
func NewClient(config Config) (*Client, error) {
	if strings.TrimSpace(config.APIKey) == "" {
		return nil, errors.WithHint(
			errors.Wrap(errors.ErrUnauthorized, "hevy api key not configured"),
			"set HEVY_API_KEY or hevy.api_key in hevymcp.toml",
		)
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = time.Second
	}

	base, err := url.Parse(strings.TrimRight(config.BaseURL, "/"))
	if err != nil || base.Host == "" {
		return nil, errors.Wrapf(errors.ErrInvalidRequest, "invalid hevy base url %q", config.BaseURL)
	}

	log := config.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	c := &Client{
		config:  config,
		baseURL: base.String(),
		logger:  log,
	}

	// A base URL that already points at a private host was chosen explicitly
	// (local proxy, mock server); otherwise refuse to wander into private ranges.
	c.httpClient = httpclient.New(c.httpOptions(!httpclient.IsPrivateHost(base.Hostname())))
	return c, nil
}

func (c *Client) httpOptions(blockPrivate bool) httpclient.Options {
	return httpclient.Options{
		Timeout:           c.config.Timeout,
		RequestsPerSecond: c.config.RequestsPerSecond,
		BlockPrivateIP:    blockPrivate,
		Headers: map[string]string{
			apiKeyHeader: c.config.APIKey,
			"Accept":     "application/json",
			"User-Agent": version.UserAgent(),
		},
	}
}

// SetHTTPClient replaces the underlying transport, keeping rate limit and headers (for tests)
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = httpclient.WrapClient(client, c.httpOptions(false))
}

// BaseURL returns the API root in use
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListExerciseTemplates fetches one page of exercise templates
func (c *Client) ListExerciseTemplates(ctx context.Context, page, pageSize int) (*ExerciseTemplatePage, error) {
	if page < 1 {
		return nil, errors.NewInvalidRequestError("page must be >= 1, got %d", page)
	}
	if pageSize < 1 || pageSize > MaxPageSize {
		return nil, errors.NewInvalidRequestError("pageSize must be between 1 and %d, got %d", MaxPageSize, pageSize)
	}

	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("pageSize", strconv.Itoa(pageSize))

	var out ExerciseTemplatePage
	if err := c.get(ctx, "/v1/exercise_templates", query, &out); err != nil {
		return nil, errors.Wrapf(err, "list exercise templates page %d", page)
	}
	return &out, nil
}

// GetExerciseTemplate fetches a single exercise template by id
func (c *Client) GetExerciseTemplate(ctx context.Context, id string) (*ExerciseTemplate, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.NewInvalidRequestError("exercise template id must not be empty")
	}

	var out ExerciseTemplate
	if err := c.get(ctx, "/v1/exercise_templates/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, errors.Wrapf(err, "get exercise template %s", id)
	}
	return &out, nil
}

// get performs a GET with retries and decodes a JSON body into out
func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	attempts := c.config.MaxRetries + 1
	var err error

	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			delay := time.Duration(attempt) * c.config.RetryDelay
			c.logger.Debugw("Retrying Hevy request",
				"attempt", attempt, "max_retries", c.config.MaxRetries, "delay", delay)

			select {
			case <-ctx.Done():
				return errors.Wrap(ctx.Err(), "waiting to retry")
			case <-time.After(delay):
			}
		}

		start := time.Now()
		err = c.do(ctx, endpoint, out)
		if err == nil {
			c.logger.Debugw("Hevy request",
				logger.FieldPath, path,
				logger.FieldDurationMS, time.Since(start).Milliseconds())
			if attempt > 0 {
				c.logger.Infow("Hevy request succeeded after retries", "attempts", attempt+1, logger.FieldPath, path)
			}
			return nil
		}

		c.logger.Warnw("Hevy API error",
			"attempt", attempt+1, "max_attempts", attempts,
			logger.FieldError, err, logger.FieldPath, path)

		if ctx.Err() != nil || !isRetryableError(err) {
			return err
		}
	}

	return errors.Wrapf(err, "giving up after %d attempts", attempts)
}

func (c *Client) do(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return errors.Wrap(err, "failed to read response")
	}

	if resp.StatusCode != http.StatusOK {
		return statusError(resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrap(err, "failed to decode response")
	}
	return nil
}

// statusError maps a non-200 response onto the package sentinels
func statusError(status int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	var apiErr apiError
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
		msg = apiErr.Error
	}
	if len(msg) > 200 {
		msg = msg[:200] + "…"
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return errors.WithHint(
			errors.Wrapf(errors.ErrUnauthorized, "hevy api status %d: %s", status, msg),
			"check HEVY_API_KEY (a Hevy Pro subscription is required for API access)",
		)
	case status == http.StatusNotFound:
		return errors.Wrapf(errors.ErrNotFound, "hevy api status %d: %s", status, msg)
	case status == http.StatusTooManyRequests:
		return errors.Wrapf(errors.ErrRateLimited, "hevy api status %d: %s", status, msg)
	case status >= 500:
		return errors.Wrapf(errors.ErrServiceUnavailable, "hevy api status %d: %s", status, msg)
	default:
		return errors.Newf("hevy api request failed with status %d: %s", status, msg)
	}
}

// isRetryableError checks if an error is worth retrying (network-related or 5xx)
func isRetryableError(err error) bool {
	if errors.Is(err, errors.ErrServiceUnavailable) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ETIMEDOUT) {
		return true
	}

	// Transport errors that arrive without a typed cause
	errStr := strings.ToLower(err.Error())
	for _, s := range []string{
		"connection reset by peer",
		"connection refused",
		"temporary failure",
		"network is unreachable",
		"i/o timeout",
		"unexpected eof",
	} {
		if strings.Contains(errStr, s) {
			return true
		}
	}
	return false
}
