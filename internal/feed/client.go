// Package feed pulls NFL reference data and weekly stat lines from the
// upstream data provider.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"fantasy-tracker/internal/config"
	"fantasy-tracker/internal/constants"

	"github.com/valyala/fasthttp"
	"golang.org/x/time/rate"
)

type Client struct {
	baseURL string
	apiKey  string
	client  *fasthttp.Client
	limiter *rate.Limiter

	rateLimitMu sync.RWMutex
	rateLimit   RateLimitInfo
}

// RateLimitInfo mirrors the provider's rate-limit response headers.
type RateLimitInfo struct {
	Limit     int `json:"limit"`
	Remaining int `json:"remaining"`

	// seconds until reset
	Reset int `json:"reset"`

	UpdatedAt time.Time `json:"updated_at"`
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		baseURL: cfg.FeedBaseURL,
		apiKey:  cfg.FeedAPIKey,
		client: &fasthttp.Client{
			MaxConnsPerHost:     100,
			ReadTimeout:         10 * time.Second,
			WriteTimeout:        10 * time.Second,
			MaxIdleConnDuration: 1 * time.Minute,
		},
		limiter: rate.NewLimiter(rate.Limit(constants.FeedRequestsPerSecond), constants.FeedBurst),
	}
}

func (c *Client) GetRateLimitInfo() RateLimitInfo {
	c.rateLimitMu.RLock()
	defer c.rateLimitMu.RUnlock()
	return c.rateLimit
}

func (c *Client) updateRateLimit(resp *fasthttp.Response) {
	c.rateLimitMu.Lock()
	defer c.rateLimitMu.Unlock()

	if limit := string(resp.Header.Peek("X-Ratelimit-Limit")); limit != "" {
		if val, err := strconv.Atoi(limit); err == nil {
			c.rateLimit.Limit = val
		}
	}
	if remaining := string(resp.Header.Peek("X-Ratelimit-Remaining")); remaining != "" {
		if val, err := strconv.Atoi(remaining); err == nil {
			c.rateLimit.Remaining = val
		}
	}
	if reset := string(resp.Header.Peek("X-Ratelimit-Reset")); reset != "" {
		if val, err := strconv.Atoi(reset); err == nil {
			c.rateLimit.Reset = val
		}
	}
	c.rateLimit.UpdatedAt = time.Now()
}

// GetPlayers fetches the full NFL player reference list.
func (c *Client) GetPlayers(ctx context.Context) (*PlayersResponse, error) {
	url := fmt.Sprintf("%s/v1/players", c.baseURL)
	return doRequest[PlayersResponse](ctx, c, url)
}

// GetWeekStats fetches every player's raw stat line for one week.
func (c *Client) GetWeekStats(ctx context.Context, season, week int) (*WeekStatsResponse, error) {
	url := fmt.Sprintf("%s/v1/stats/%d/%d", c.baseURL, season, week)
	return doRequest[WeekStatsResponse](ctx, c, url)
}

func doRequest[T any](ctx context.Context, client *Client, url string) (*T, error) {
	if err := client.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("feed rate limit wait: %w", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	if client.apiKey != "" {
		req.Header.Set("Authorization", client.apiKey)
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(constants.ExternalAPITimeout)
	}

	if err := client.client.DoDeadline(req, resp, deadline); err != nil {
		return nil, fmt.Errorf("feed request to %s failed: %w", url, err)
	}

	client.updateRateLimit(resp)

	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("feed request to %s returned status %d", url, resp.StatusCode())
	}

	var result T
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("failed to decode feed response from %s: %w", url, err)
	}
	return &result, nil
}
