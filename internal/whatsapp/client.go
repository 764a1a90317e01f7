package whatsapp

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

	"github.com/tabibah/clinic-platform/pkg/logging"
)

// Sender pushes a message through the WhatsApp gateway.
type Sender interface {
	SendMessage(ctx context.Context, msg Message) error
}

// Message is the gateway send payload. PhoneNumber2 carries an optional
// secondary recipient the gateway copies the message to.
type Message struct {
	PhoneNumber  string `json:"phone_number"`
	PhoneNumber2 string `json:"phone_number2"`
	Message      string `json:"message"`
}

// Config controls how the gateway client behaves.
type Config struct {
	Endpoint   string
	APIToken   string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *logging.Logger
}

// Client talks to the external WhatsApp gateway. Retries live with the
// delivery worker, not here; a single failed send is surfaced to the caller.
type Client struct {
	endpoint   string
	apiToken   string
	httpClient *http.Client
	logger     *logging.Logger
}

// New creates a configured gateway client.
func New(cfg Config) (*Client, error) {
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	if endpoint == "" {
		return nil, errors.New("whatsapp: gateway endpoint is required")
	}
	if strings.TrimSpace(cfg.APIToken) == "" {
		return nil, errors.New("whatsapp: API token is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &Client{
		endpoint:   endpoint,
		apiToken:   cfg.APIToken,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// SendMessage posts the message to the gateway's send-message endpoint.
func (c *Client) SendMessage(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.PhoneNumber) == "" {
		return errors.New("whatsapp: phone number required")
	}
	if strings.TrimSpace(msg.Message) == "" {
		return errors.New("whatsapp: message body required")
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("whatsapp: marshal send body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/send-message", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("whatsapp: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("whatsapp: http error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		c.logger.Debug("whatsapp message sent", "phone", msg.PhoneNumber)
		return nil
	}

	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return fmt.Errorf("whatsapp: gateway returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
}

// StubSender records messages instead of sending them. Used in tests and
// when no gateway is configured.
type StubSender struct {
	Sent []Message
	Err  error
}

func (s *StubSender) SendMessage(_ context.Context, msg Message) error {
	if s.Err != nil {
		return s.Err
	}
	s.Sent = append(s.Sent, msg)
	return nil
}
