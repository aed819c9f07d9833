// Package client is the typed HTTP client used by the CLI, the TUI and the
// poller to talk to a running daemon.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"chatd/internal/api"
)

// APIError is a non-2xx response from the daemon.
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("daemon returned %d: %s", e.Code, e.Message)
}

// Client talks to one daemon with one actor's token.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New creates a client for the daemon at baseURL authenticating as token.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var buf io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		buf = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, buf)
	if err != nil {
		return err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		var eb struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&eb)
		return &APIError{Code: resp.StatusCode, Message: eb.Error}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

// Send posts a new message.
func (c *Client) Send(ctx context.Context, req api.SendRequest) (*api.Message, error) {
	var m api.Message
	if err := c.do(ctx, http.MethodPost, "/v1/messages", req, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Snapshot fetches the most recent messages plus the live typing set.
func (c *Client) Snapshot(ctx context.Context, limit int) (*api.SnapshotResponse, error) {
	path := "/v1/messages"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var resp api.SnapshotResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Search runs a full-text query over message content.
func (c *Client) Search(ctx context.Context, query string, limit int) (*api.SearchResponse, error) {
	v := url.Values{"q": {query}}
	if limit > 0 {
		v.Set("limit", strconv.Itoa(limit))
	}
	var resp api.SearchResponse
	if err := c.do(ctx, http.MethodGet, "/v1/messages/search?"+v.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateStatus acknowledges a delivery status for a message.
func (c *Client) UpdateStatus(ctx context.Context, id, status string) error {
	return c.do(ctx, http.MethodPatch, "/v1/messages/"+id+"/status", api.StatusRequest{Status: status}, nil)
}

// React sets this actor's reaction on a message.
func (c *Client) React(ctx context.Context, id, reaction string) error {
	return c.do(ctx, http.MethodPut, "/v1/messages/"+id+"/reactions", api.ReactRequest{Reaction: reaction}, nil)
}

// Edit replaces a message's content.
func (c *Client) Edit(ctx context.Context, id, content string) error {
	return c.do(ctx, http.MethodPatch, "/v1/messages/"+id, api.EditRequest{Content: content}, nil)
}

// Delete tombstones a message.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/v1/messages/"+id, nil, nil)
}

// Forward copies a message into a new one authored by this actor.
func (c *Client) Forward(ctx context.Context, id, label string) (*api.Message, error) {
	var m api.Message
	if err := c.do(ctx, http.MethodPost, "/v1/messages/"+id+"/forward", api.ForwardRequest{Label: label}, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// SetTyping publishes or clears this actor's typing signal.
func (c *Client) SetTyping(ctx context.Context, typing bool) error {
	return c.do(ctx, http.MethodPost, "/v1/typing", api.TypingRequest{Typing: typing}, nil)
}

// Conversation fetches the room digest.
func (c *Client) Conversation(ctx context.Context) (*api.ConversationResponse, error) {
	var resp api.ConversationResponse
	if err := c.do(ctx, http.MethodGet, "/v1/conversation", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status fetches the daemon's runtime state. Works without a token.
func (c *Client) Status(ctx context.Context) (*api.StatusResponse, error) {
	var resp api.StatusResponse
	if err := c.do(ctx, http.MethodGet, "/v1/status", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
