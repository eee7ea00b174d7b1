package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/workshop-backend/pkg/errors"
)

const (
	defaultBaseURL              = "https://api.telegram.org"
	defaultTimeout              = 5 * time.Second
	responseBodyReadLimit int64 = 1024
)

var (
	errBotTokenRequired = errors.New("telegram bot token is required")
	errChatIDRequired   = errors.New("telegram chat id is required")
)

// Client posts plain-text messages to a single Telegram chat.
type Client struct {
	httpClient *http.Client
	baseURL    string
	botToken   string
	chatID     string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the Bot API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(baseURL); trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// NewClient builds a Telegram client bound to one bot and chat.
func NewClient(botToken, chatID string, opts ...Option) (*Client, error) {
	token := strings.TrimSpace(botToken)
	if token == "" {
		return nil, errBotTokenRequired
	}
	chat := strings.TrimSpace(chatID)
	if chat == "" {
		return nil, errChatIDRequired
	}

	client := &Client{
		botToken:   token,
		chatID:     chat,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

type sendMessageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Send delivers text to the configured chat.
func (c *Client) Send(ctx context.Context, text string) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "telegram client not configured")
	}
	if strings.TrimSpace(text) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "message text is required")
	}

	payload, err := json.Marshal(sendMessageRequest{ChatID: c.chatID, Text: text})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal telegram message")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.sendMessageURL(), bytes.NewReader(payload))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build telegram request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute telegram request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "telegram send failed")
	}

	var body apiResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, responseBodyReadLimit)).Decode(&body); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode telegram response")
	}
	if !body.OK {
		return pkgerrors.New(pkgerrors.CodeDependency, "telegram rejected message: "+body.Description)
	}
	return nil
}

func (c *Client) sendMessageURL() string {
	return fmt.Sprintf("%s/bot%s/sendMessage", strings.TrimRight(c.baseURL, "/"), c.botToken)
}
