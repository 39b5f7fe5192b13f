package reasoning

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"ticket-resolver/internal/common/config"
	"ticket-resolver/internal/common/logger"
)

var (
	ErrServiceTimeout = errors.New("REASONING_TIMEOUT")
	ErrServiceFailed  = errors.New("REASONING_SERVICE_FAILED")
)

// Client calls the reasoning service's chat-completions endpoint. One call
// produces exactly one assistant turn.
type Client struct {
	config config.ReasoningConfig
	client *http.Client
	logger logger.Logger
}

func NewClient(cfg config.ReasoningConfig, log logger.Logger) *Client {
	return &Client{
		config: cfg,
		// No client-level timeout; the per-call context bounds the request.
		client: &http.Client{},
		logger: log.WithFields(map[string]interface{}{"component": "reasoning"}),
	}
}

// Complete sends the transcript and tool schema and returns the assistant's
// turn. Transport-level failures are retried with exponential backoff up to
// MaxRetries; the context deadline always wins.
func (c *Client) Complete(ctx context.Context, messages []Message, tools []Tool) (*Message, error) {
	body, err := json.Marshal(request{
		Model:       c.config.Model,
		Messages:    messages,
		Tools:       tools,
		ToolChoice:  "auto",
		MaxTokens:   c.config.MaxTokens,
		Temperature: c.config.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", ErrServiceFailed, err)
	}

	var resp *http.Response
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ErrServiceTimeout
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			c.config.BaseURL+"/chat/completions", bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrServiceFailed, err)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.config.APIKey != "" {
			req.Header.Set("api-key", c.config.APIKey)
		}

		resp, lastErr = c.client.Do(req)
		if lastErr == nil {
			if resp.StatusCode == http.StatusOK {
				break
			}
			resp.Body.Close()
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			resp = nil
		}

		if ctx.Err() != nil {
			return nil, ErrServiceTimeout
		}
	}

	if lastErr != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, ErrServiceTimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrServiceFailed, lastErr)
	}
	if resp == nil {
		return nil, fmt.Errorf("%w: no successful response after retries", ErrServiceFailed)
	}
	defer resp.Body.Close()

	var parsed response
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decode error: %v", ErrServiceFailed, err)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty choices", ErrServiceFailed)
	}

	msg := parsed.Choices[0].Message
	c.logger.Debug("assistant turn received", map[string]interface{}{
		"toolCalls":  len(msg.ToolCalls),
		"hasContent": msg.Content != "",
	})
	return &msg, nil
}
