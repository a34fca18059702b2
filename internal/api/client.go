package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/bz888/arena/internal/logger"
	"github.com/google/uuid"
)

const (
	sessionPath  = "/"
	messagePath  = "/send_message"
	evaluatePath = "/evaluate"
	resetPath    = "/reset"
)

// Client talks to the comparison backend. The backend keys the conversation
// on a session cookie, so every call shares one cookie jar.
type Client struct {
	base        *url.URL
	http        *http.Client
	localLogger *logger.Logger
}

// ClientConfig holds the configuration for the client
type ClientConfig struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

func NewClient(config ClientConfig) (*Client, error) {
	base, err := url.Parse(config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server url %q: %w", config.BaseURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid server url %q: scheme and host are required", config.BaseURL)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		httpClient = &http.Client{Jar: jar, Timeout: config.Timeout}
	}

	return &Client{
		base:        base,
		http:        httpClient,
		localLogger: logger.NewLogger("api client"),
	}, nil
}

// OpenSession loads the index page so the backend creates the conversation
// and hands out the session cookie.
func (c *Client) OpenSession(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, sessionPath, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		c.localLogger.Error("Failed to open session:", err)
		return err
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) SendMessage(ctx context.Context, message string) (*Replies, error) {
	var replies Replies
	if err := c.post(ctx, messagePath, MessageRequest{Message: message}, &replies); err != nil {
		c.localLogger.Error("Failed to send message:", err)
		return nil, err
	}
	return &replies, nil
}

func (c *Client) Evaluate(ctx context.Context, vote Vote) (*EvaluateResponse, error) {
	var evaluation EvaluateResponse
	if err := c.post(ctx, evaluatePath, vote, &evaluation); err != nil {
		c.localLogger.Error("Failed to register vote:", err)
		return nil, err
	}
	c.localLogger.Info("Vote registered:", evaluation.Status, evaluation.Winner)
	return &evaluation, nil
}

func (c *Client) Reset(ctx context.Context) (*ResetResponse, error) {
	var reset ResetResponse
	if err := c.post(ctx, resetPath, nil, &reset); err != nil {
		c.localLogger.Warn("Failed to reset conversation:", err)
		return nil, err
	}
	return &reset, nil
}

func (c *Client) post(ctx context.Context, path string, data any, out any) error {
	var body io.Reader
	if data != nil {
		bts, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("failed to serialize request: %w", err)
		}
		body = bytes.NewReader(bts)
	}

	resp, err := c.do(ctx, http.MethodPost, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	requestURL := c.base.ResolveReference(&url.URL{Path: path})
	req, err := http.NewRequestWithContext(ctx, method, requestURL.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	c.localLogger.Info(method, requestURL.Path, "request id", requestID)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	statusErr := &StatusError{StatusCode: resp.StatusCode}
	var errResp ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil {
		statusErr.Message = errResp.Error
	}
	return statusErr
}

// IsStatus reports whether err carries the given HTTP status code.
func IsStatus(err error, code int) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == code
}
