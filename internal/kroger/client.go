// Package kroger is a minimal client for the Kroger product search API.
package kroger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"

	"github.com/grubyapp/gruby/internal/config"
)

const productScope = "product.compact"

type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

func New(cfg config.KrogerConfig) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("kroger client_id and client_secret are required")
	}
	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		Scopes:       []string{productScope},
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	base := &http.Client{Timeout: time.Duration(cfg.Timeout) * time.Second}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
	httpClient := cc.Client(ctx)
	httpClient.Timeout = base.Timeout
	return NewWithHTTPClient(cfg.BaseURL, httpClient, cfg.RequestsPerSecond, cfg.Burst), nil
}

// NewWithHTTPClient uses an already authenticated client.
func NewWithHTTPClient(baseURL string, httpClient *http.Client, rps float64, burst int) *Client {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	if burst <= 0 {
		burst = 1
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		limiter: rate.NewLimiter(limit, burst),
	}
}

func (c *Client) SearchProducts(ctx context.Context, term, locationID string, limit int) ([]Product, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("filter.term", term)
	if locationID != "" {
		q.Set("filter.locationId", locationID)
	}
	if limit > 0 {
		q.Set("filter.limit", strconv.Itoa(limit))
	}
	endpoint := c.baseURL + "/v1/products?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("kroger search: %w", err)
	}
	defer resp.Body.Close()
	logutil.GetLogger(ctx).Debug("kroger product search",
		zap.String("term", term),
		zap.String("location_id", locationID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("cost", time.Since(start)),
	)
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("kroger search failed: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	var out searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode kroger search: %w", err)
	}
	return out.Data, nil
}
