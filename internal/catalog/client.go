package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"vehiclemodels/internal/core"
	"vehiclemodels/internal/util"
)

// StatusError is returned when the inventory service answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("inventory service returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("inventory service returned status %d: %s", e.StatusCode, e.Body)
}

// ClientConfig configuration for Client
type ClientConfig struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     core.Logger
	Metrics    core.MetricsCollector
}

// Client reads the vehicle model list from the inventory service.
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     core.Logger
	metrics    core.MetricsCollector
}

// NewClient creates a Client for the inventory service at cfg.BaseURL.
func NewClient(cfg ClientConfig) (*Client, error) {
	endpoint, err := util.JoinURL(cfg.BaseURL, core.ModelsEndpointPath)
	if err != nil {
		return nil, err
	}

	c := &Client{
		endpoint:   endpoint,
		httpClient: cfg.HTTPClient,
		logger:     cfg.Logger,
		metrics:    cfg.Metrics,
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: core.HTTPRequestTimeout}
	}
	if c.logger == nil {
		c.logger = &core.NopLogger{}
	}
	if c.metrics == nil {
		c.metrics = &core.NopMetrics{}
	}
	return c, nil
}

// Endpoint returns the full models URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// FetchModels issues a single GET to the models endpoint. It never retries;
// every failure is reported through the returned Result.
func (c *Client) FetchModels(ctx context.Context) core.Result {
	start := time.Now()

	models, err := c.fetch(ctx)
	elapsed := time.Since(start)
	c.metrics.RecordHTTPRequest(elapsed)

	if err != nil {
		c.metrics.RecordFetch(false, elapsed, 0, c.endpoint)
		if errors.Is(err, context.Canceled) {
			c.logger.Debug("Fetch of %s cancelled", c.endpoint)
		} else {
			c.logger.Warn("Fetch of %s failed after %v: %v", c.endpoint, elapsed, err)
		}
		return core.Failure(err)
	}

	c.metrics.RecordFetch(true, elapsed, len(models), c.endpoint)
	c.logger.Debug("Fetched %d models from %s in %v", len(models), c.endpoint, elapsed)
	return core.Success(models)
}

func (c *Client) fetch(ctx context.Context) ([]core.VehicleModel, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set(core.HeaderAccept, core.ContentTypeJSON)
	req.Header.Set(core.HeaderUserAgent, core.UserAgent)

	resp, err := c.httpClient.Do(req) //nolint:gosec // endpoint comes from configuration
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, core.MaxResponseBodySize))
	if err != nil {
		return nil, fmt.Errorf("read models response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			Body:       util.TruncateString(string(body), 100, 20, "..."),
		}
	}

	return DecodeModelsResponse(body)
}
