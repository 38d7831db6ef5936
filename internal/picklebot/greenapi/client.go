// Package greenapi sends WhatsApp messages through the GREEN-API gateway.
package greenapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/genechuang/picklebot/internal/picklebot/observability"
)

const (
	defaultBaseURL = "https://api.green-api.com"
	defaultTimeout = 30 * time.Second
)

// ErrUnconfigured is returned by Send when the client has no credentials.
var ErrUnconfigured = errors.New("greenapi: instance credentials not configured")

// Config holds the GREEN-API instance credentials.
type Config struct {
	InstanceID string
	APIToken   string
	BaseURL    string
	Timeout    time.Duration
}

// Client is an outbound-only GREEN-API client. Safe for concurrent use.
type Client struct {
	cfg    Config
	client *http.Client
}

// New creates a Client. Missing credentials are allowed; Send then fails
// with ErrUnconfigured.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Configured reports whether instance credentials are present.
func (c *Client) Configured() bool {
	return c.cfg.InstanceID != "" && c.cfg.APIToken != ""
}

type sendMessageRequest struct {
	ChatID  string `json:"chatId"`
	Message string `json:"message"`
}

type sendMessageResponse struct {
	IDMessage string `json:"idMessage"`
}

// Send delivers a text message to a chat.
func (c *Client) Send(ctx context.Context, chatID, message string) error {
	if !c.Configured() {
		return ErrUnconfigured
	}

	data, err := json.Marshal(sendMessageRequest{ChatID: chatID, Message: message})
	if err != nil {
		return fmt.Errorf("greenapi: marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/waInstance%s/sendMessage/%s",
		c.cfg.BaseURL, c.cfg.InstanceID, c.cfg.APIToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("greenapi: create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("greenapi: http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("greenapi: read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("greenapi: sendMessage returned HTTP %d: %.200s", resp.StatusCode, body)
	}

	var sent sendMessageResponse
	if err := json.Unmarshal(body, &sent); err != nil {
		return fmt.Errorf("greenapi: decode response: %w", err)
	}

	observability.WithTrace(ctx).Info("message sent",
		"chat_id", chatID,
		"message_id", sent.IDMessage,
	)
	return nil
}
