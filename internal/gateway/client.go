package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	domainErrors "github.com/kasoamart/boostpay/internal/domain/errors"
	"github.com/kasoamart/boostpay/pkg/retry"
)

// Client talks to the mobile money gateway over HTTP. Every call is
// bounded by the configured timeout; transport errors are retried with
// backoff before being surfaced to the caller.
type Client struct {
	name       string
	baseURL    string
	apiKey     string
	httpClient *http.Client
	retryCfg   retry.Config
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithRetryConfig overrides the retry policy.
func WithRetryConfig(cfg retry.Config) ClientOption {
	return func(c *Client) { c.retryCfg = cfg }
}

// NewClient creates a gateway client.
func NewClient(name, baseURL, apiKey string, requestTimeout time.Duration, opts ...ClientOption) *Client {
	if requestTimeout <= 0 {
		requestTimeout = 5 * time.Second
	}
	c := &Client{
		name:    name,
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		retryCfg: retry.Config{
			MaxAttempts:  3,
			InitialDelay: 200 * time.Millisecond,
			MaxDelay:     2 * time.Second,
			Multiplier:   2.0,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) Name() string { return c.name }

type collectPayload struct {
	Reference   string `json:"reference"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	PhoneNumber string `json:"phone_number"`
	Network     string `json:"network"`
	CallbackURL string `json:"callback_url"`
}

type collectResponse struct {
	GatewayRef string `json:"gateway_ref"`
	Status     string `json:"status"`
	Message    string `json:"message"`
}

// Collect initiates a collection. A non-2xx answer from the gateway is
// a rejection, not a transport error, and is not retried.
func (c *Client) Collect(ctx context.Context, req CollectRequest) (*CollectResult, error) {
	body, err := json.Marshal(collectPayload{
		Reference:   req.Reference,
		Amount:      req.AmountCents,
		Currency:    req.Currency,
		PhoneNumber: req.PhoneNumber,
		Network:     req.Network,
		CallbackURL: req.CallbackURL,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal collect request: %w", err)
	}

	resp, err := retry.DoWithResult(ctx, c.retryCfg, func() (*collectResponse, error) {
		return c.post(ctx, "/v1/collections", body)
	})
	if err != nil {
		return nil, err
	}
	return &CollectResult{GatewayRef: resp.GatewayRef}, nil
}

type statusResponse struct {
	Reference  string `json:"reference"`
	GatewayRef string `json:"gateway_ref"`
	Status     string `json:"status"`
	Message    string `json:"message"`
}

// QueryStatus queries a collection's outcome by reference.
func (c *Client) QueryStatus(ctx context.Context, reference string) (*StatusResult, error) {
	resp, err := retry.DoWithResult(ctx, c.retryCfg, func() (*statusResponse, error) {
		return c.get(ctx, "/v1/collections/"+reference)
	})
	if err != nil {
		return nil, err
	}
	return &StatusResult{
		Code:       resp.Status,
		GatewayRef: resp.GatewayRef,
		Message:    resp.Message,
	}, nil
}

func (c *Client) post(ctx context.Context, path string, body []byte) (*collectResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build collect request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domainErrors.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read gateway response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Rejections are terminal for this attempt, do not retry them.
		return nil, retry.Unrecoverable(fmt.Errorf("%w: status %d: %s",
			domainErrors.ErrGatewayRejected, resp.StatusCode, string(raw)))
	}

	var out collectResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode gateway response: %w", err)
	}
	return &out, nil
}

func (c *Client) get(ctx context.Context, path string) (*statusResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build status request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domainErrors.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read gateway response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d: %s",
			domainErrors.ErrGatewayUnavailable, resp.StatusCode, string(raw))
	}

	var out statusResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode gateway response: %w", err)
	}
	return &out, nil
}
