// Package push delivers device push notifications through the provider's
// multicast HTTP API.
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// MaxTokensPerMulticast is the provider limit on tokens per multicast call.
const MaxTokensPerMulticast = 500

// MinTokenLength mirrors the shortest token the provider accepts; shorter
// tokens are filtered out before any send attempt.
const MinTokenLength = 20

// Result reports per-token outcomes of a multicast send.
type Result struct {
	SuccessCount int
	FailureCount int
}

// Sender delivers data-only push messages to device tokens.
type Sender interface {
	SendMulticast(ctx context.Context, tokens []string, data map[string]string) (Result, error)
}

// Config holds the provider endpoint settings.
type Config struct {
	Endpoint  string
	ServerKey string
}

// Client is an HTTP push Sender.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *zap.Logger
}

// NewClient creates a push client.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}
}

type multicastRequest struct {
	Tokens []string          `json:"tokens"`
	Data   map[string]string `json:"data"`
}

type multicastResponse struct {
	SuccessCount int `json:"success_count"`
	FailureCount int `json:"failure_count"`
}

// FilterTokens drops empty or malformed tokens (trimmed length below
// MinTokenLength). Order is preserved.
func FilterTokens(tokens []string) []string {
	valid := tokens[:0:0]
	for _, t := range tokens {
		if len(strings.TrimSpace(t)) >= MinTokenLength {
			valid = append(valid, t)
		}
	}
	return valid
}

// SendMulticast posts one multicast message for up to MaxTokensPerMulticast
// tokens per request and sums per-token outcomes. Zero valid tokens is a
// no-op, not an error.
func (c *Client) SendMulticast(ctx context.Context, tokens []string, data map[string]string) (Result, error) {
	valid := FilterTokens(tokens)
	if len(valid) == 0 {
		c.logger.Info("no valid device tokens to notify")
		return Result{}, nil
	}
	if c.cfg.Endpoint == "" {
		return Result{}, fmt.Errorf("push endpoint not configured")
	}

	payload := map[string]string{"timestamp": time.Now().UTC().Format(time.RFC3339)}
	for k, v := range data {
		payload[k] = v
	}

	var total Result
	for start := 0; start < len(valid); start += MaxTokensPerMulticast {
		end := start + MaxTokensPerMulticast
		if end > len(valid) {
			end = len(valid)
		}
		res, err := c.post(ctx, valid[start:end], payload)
		if err != nil {
			return total, err
		}
		total.SuccessCount += res.SuccessCount
		total.FailureCount += res.FailureCount
	}

	c.logger.Info("multicast notification result",
		zap.Int("success_count", total.SuccessCount),
		zap.Int("failure_count", total.FailureCount),
	)
	return total, nil
}

func (c *Client) post(ctx context.Context, tokens []string, data map[string]string) (Result, error) {
	body, err := json.Marshal(multicastRequest{Tokens: tokens, Data: data})
	if err != nil {
		return Result{}, fmt.Errorf("marshal multicast: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.ServerKey != "" {
		req.Header.Set("Authorization", "key="+c.cfg.ServerKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("send multicast: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("multicast status: %d", resp.StatusCode)
	}

	var out multicastResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Result{}, fmt.Errorf("decode multicast response: %w", err)
	}
	return Result{SuccessCount: out.SuccessCount, FailureCount: out.FailureCount}, nil
}
