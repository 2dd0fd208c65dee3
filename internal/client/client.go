// Package client is the typed HTTP client the back-office uses to talk to the
// catalog API. Responses are normalized here so callers only ever see one
// canonical shape per record type.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const apiPrefix = "/api/v1"

type Client struct {
	baseURL string
	http    *http.Client
	token   string
	now     func() time.Time
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithClock overrides the time source used for placeholder keys.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) SetToken(token string) {
	c.token = token
}

func (c *Client) Token() string {
	return c.token
}

type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Errors  json.RawMessage `json:"errors"`
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiPrefix+path, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

// do sends req and returns the raw response body of a 2xx answer.
func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &ConnectionError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ConnectionError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, decodeAPIError(resp.StatusCode, body)
	}

	var env envelope
	if json.Unmarshal(body, &env) == nil && env.Success != nil && !*env.Success {
		return nil, decodeAPIError(resp.StatusCode, body)
	}
	return body, nil
}

func decodeAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		apiErr.Message = fmt.Sprintf("Erreur HTTP: %d", status)
		return apiErr
	}
	apiErr.Message = env.Message
	if apiErr.Message == "" {
		apiErr.Message = env.Error
	}
	fields, summary := fieldErrors(env.Errors)
	if len(fields) > 0 {
		apiErr.Fields = fields
	}
	if apiErr.Message == "" {
		apiErr.Message = summary
	}
	if apiErr.Message == "" && len(apiErr.Fields) == 0 {
		apiErr.Message = fmt.Sprintf("Erreur HTTP: %d", status)
	}
	return apiErr
}

// fieldErrors reads an errors member that is either an object of messages
// or a list of messages. Object values may themselves be lists, in which
// case the first message is kept.
func fieldErrors(raw json.RawMessage) (map[string]string, string) {
	if len(raw) == 0 {
		return nil, ""
	}
	var byField map[string]json.RawMessage
	if json.Unmarshal(raw, &byField) == nil {
		fields := make(map[string]string, len(byField))
		for k, v := range byField {
			if msg := firstMessage(v); msg != "" {
				fields[k] = msg
			}
		}
		return fields, ""
	}
	return nil, firstMessage(raw)
}

func firstMessage(raw json.RawMessage) string {
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var list []string
	if json.Unmarshal(raw, &list) == nil && len(list) > 0 {
		return list[0]
	}
	return ""
}

func (c *Client) getJSON(ctx context.Context, path string) ([]byte, error) {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

func (c *Client) sendJSON(ctx context.Context, method, path string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := c.newRequest(ctx, method, path, bytes.NewReader(data), "application/json")
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

func (c *Client) delete(ctx context.Context, path string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, path, nil, "")
	if err != nil {
		return err
	}
	_, err = c.do(req)
	return err
}

// decodeData unmarshals the envelope's data into v. Bodies without an
// envelope are decoded as-is.
func decodeData(body []byte, v interface{}) error {
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && len(env.Data) > 0 {
		return json.Unmarshal(env.Data, v)
	}
	return json.Unmarshal(body, v)
}
