// Package signals provides a client for the external signal monitoring API.
package signals

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/athena-os-2026/sanctions-radar/internal/models"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultBaseURL is the signal API base URL.
	DefaultBaseURL = "https://api.sanctionsignals.io"

	// SearchPath is the per-query search endpoint.
	SearchPath = "/v1/signals/search"
)

// Policy controls timeout and retry behaviour of outbound calls.
// The zero value means no timeout and no retries.
type Policy struct {
	Timeout   time.Duration
	Retries   int
	RetryWait time.Duration
}

// Client queries the signal API.
type Client struct {
	client  *resty.Client
	baseURL string
	apiKey  string
	policy  Policy
}

// Option configures the Client.
type Option func(*Client)

// WithBaseURL sets a custom base URL.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.client = resty.NewWithClient(hc)
	}
}

// WithPolicy sets the timeout and retry policy.
func WithPolicy(p Policy) Option {
	return func(c *Client) {
		c.policy = p
	}
}

// NewClient creates a new signal API client.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		client:  resty.New(),
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
	}

	for _, opt := range opts {
		opt(c)
	}

	c.client.
		SetBaseURL(c.baseURL).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "sanctions-radar/1.0").
		SetAuthToken(c.apiKey)

	if c.policy.Timeout > 0 {
		c.client.SetTimeout(c.policy.Timeout)
	}
	if c.policy.Retries > 0 {
		c.client.SetRetryCount(c.policy.Retries)
		if c.policy.RetryWait > 0 {
			c.client.SetRetryWaitTime(c.policy.RetryWait)
		}
		c.client.AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= http.StatusInternalServerError || r.StatusCode() == http.StatusTooManyRequests
		})
	}

	return c
}

// SearchRequest is the body sent for one query.
type SearchRequest struct {
	Entity string `json:"entity"`
	Topic  string `json:"topic"`
	Start  string `json:"start"`
	End    string `json:"end"`
}

// NewSearchRequest builds the request body for a query and window.
func NewSearchRequest(q models.QuerySpec, w models.Window) SearchRequest {
	return SearchRequest{
		Entity: q.Entity,
		Topic:  q.Topic,
		Start:  w.Start.UTC().Format(time.RFC3339),
		End:    w.End.UTC().Format(time.RFC3339),
	}
}

// Search issues one search for the query over the window.
// A non-success status or transport failure is returned as an error; a
// successful response that is not a JSON array yields zero signals.
func (c *Client) Search(ctx context.Context, q models.QuerySpec, w models.Window) ([]models.RawSignal, error) {
	body := NewSearchRequest(q, w)

	log.Debug().
		Str("entity", body.Entity).
		Str("topic", body.Topic).
		Str("start", body.Start).
		Str("end", body.End).
		Msg("Signal API search")

	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(SearchPath)

	if err != nil {
		return nil, fmt.Errorf("signal search failed: %w", err)
	}

	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		return nil, fmt.Errorf("signal API returned %d: %s", resp.StatusCode(), truncate(resp.String(), 200))
	}

	signals := DecodeSignals(resp.Body())

	log.Debug().
		Str("query", q.Label()).
		Int("signals", len(signals)).
		Msg("Signal API search complete")

	return signals, nil
}

// DecodeSignals decodes a response body into signals. Anything other than a
// JSON array yields an empty slice; array elements that are not objects are
// skipped.
func DecodeSignals(body []byte) []models.RawSignal {
	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		log.Debug().Err(err).Msg("Signal response is not an array, treating as empty")
		return []models.RawSignal{}
	}

	signals := make([]models.RawSignal, 0, len(items))
	for i, item := range items {
		var sig models.RawSignal
		if err := json.Unmarshal(item, &sig); err != nil {
			log.Debug().Int("index", i).Msg("Skipping non-object signal record")
			continue
		}
		signals = append(signals, sig)
	}
	return signals
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
