// Package impact is the client for the external impact-estimation service.
// The service owns all impact factors; this client only shapes requests and
// maps responses.
package impact

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// QueryClient is the surface the metrics pipeline consumes.
type QueryClient interface {
	// ServerImpactFromConfiguration queries the configuration-based
	// endpoint. This is the primary pipeline path.
	ServerImpactFromConfiguration(ctx context.Context, cfg Configuration, usage Usage) (*Report, error)

	// ServerImpactFromModel queries the model-based endpoint variant.
	// Kept as an alternate entry point; unused by the primary pipeline.
	ServerImpactFromModel(ctx context.Context, model Model, usage Usage) (*Report, error)
}

// ForecastClient fetches the grid carbon-intensity forecast backing /update.
type ForecastClient interface {
	CarbonIntensityForecast(ctx context.Context) (ForecastPoint, error)
}

// Client talks to the impact-estimation service over HTTP.
type Client struct {
	endpoint           string
	carbonAwareAPIURL  string
	carbonAwareToken   string
	httpClient         *http.Client
	logger             zerolog.Logger
	now                func() time.Time
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithClock overrides the clock used for forecast windows. Tests only.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// NewClient creates a Client for the service at endpoint. carbonAwareURL and
// carbonAwareToken configure the forecast source relayed through the
// service's usage router; both may be empty when /update is unused.
func NewClient(endpoint, carbonAwareURL, carbonAwareToken string, timeout time.Duration, logger zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		endpoint:          endpoint,
		carbonAwareAPIURL: carbonAwareURL,
		carbonAwareToken:  carbonAwareToken,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// serverRequest is the body of POST /v1/server. Exactly one of Model and
// Configuration is set.
type serverRequest struct {
	Model         *Model         `json:"model,omitempty"`
	Configuration *Configuration `json:"configuration,omitempty"`
	Usage         Usage          `json:"usage"`
}

// ServerImpactFromConfiguration implements QueryClient.
func (c *Client) ServerImpactFromConfiguration(ctx context.Context, cfg Configuration, usage Usage) (*Report, error) {
	return c.serverImpact(ctx, serverRequest{Configuration: &cfg, Usage: usage})
}

// ServerImpactFromModel implements QueryClient.
func (c *Client) ServerImpactFromModel(ctx context.Context, model Model, usage Usage) (*Report, error) {
	return c.serverImpact(ctx, serverRequest{Model: &model, Usage: usage})
}

func (c *Client) serverImpact(ctx context.Context, reqBody serverRequest) (*Report, error) {
	start := time.Now()

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("encoding server impact request: %w", err)
	}

	url := c.endpoint + "/v1/server?verbose=true"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("querying impact service: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Error().Err(err).Msg("failed to close impact service response body")
		}
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading impact service response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("impact service returned %s: %s", resp.Status, raw)
	}

	var report Report
	if err := json.Unmarshal(raw, &report); err != nil {
		return nil, fmt.Errorf("decoding impact service response: %w", err)
	}
	report.Raw = raw

	c.logger.Debug().
		Dur("elapsed", time.Since(start)).
		Float64("gwp_manufacture", report.Impacts.GWP.Manufacture).
		Float64("gwp_use", report.Impacts.GWP.Use).
		Msg("impact service query complete")

	return &report, nil
}

// forecastRequest is the body relayed to the usage router's forecast route.
type forecastRequest struct {
	Source    string `json:"source"`
	URL       string `json:"url"`
	Token     string `json:"token"`
	StartDate string `json:"start_date"`
	StopDate  string `json:"stop_date"`
}

type forecastResponse struct {
	ForecastData []ForecastPoint `json:"forecastData"`
}

// CarbonIntensityForecast asks the service's usage router for the grid
// carbon-intensity forecast over the next ten minutes and returns the first
// forecast point, its value rounded to three decimals.
func (c *Client) CarbonIntensityForecast(ctx context.Context) (ForecastPoint, error) {
	start := c.now().Add(10 * time.Minute)
	stop := start.Add(10 * time.Minute)

	body, err := json.Marshal(forecastRequest{
		Source:    "carbon_aware_api",
		URL:       c.carbonAwareAPIURL,
		Token:     c.carbonAwareToken,
		StartDate: start.Format("2006-01-02T15:04:05Z"),
		StopDate:  stop.Format("2006-01-02T15:04:05Z"),
	})
	if err != nil {
		return ForecastPoint{}, fmt.Errorf("encoding forecast request: %w", err)
	}

	url := c.endpoint + "/v1/usage_router/gwp/forcast_intensity?location=westus"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return ForecastPoint{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ForecastPoint{}, fmt.Errorf("querying carbon-intensity forecast: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Error().Err(err).Msg("failed to close forecast response body")
		}
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return ForecastPoint{}, fmt.Errorf("reading forecast response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return ForecastPoint{}, fmt.Errorf("forecast source returned %s: %s", resp.Status, raw)
	}

	var results []forecastResponse
	if err := json.Unmarshal(raw, &results); err != nil {
		return ForecastPoint{}, fmt.Errorf("decoding forecast response: %w", err)
	}
	if len(results) == 0 || len(results[0].ForecastData) == 0 {
		return ForecastPoint{}, fmt.Errorf("forecast response contains no data")
	}

	point := results[0].ForecastData[0]
	point.Value = math.Round(point.Value*1000) / 1000
	return point, nil
}
