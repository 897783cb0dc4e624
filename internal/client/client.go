// Package client talks to the rwid API on behalf of the app: it signs in,
// keeps the bearer token in the session store, and loads screen data.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"rwid/internal/config"
	"rwid/internal/models"
	"rwid/internal/observability"
	"rwid/internal/session"
)

// APIError mirrors the server's error envelope.
type APIError struct {
	Message string
	Status  int
	Code    string
	Data    json.RawMessage
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (%d %s)", e.Message, e.Status, e.Code)
	}
	return fmt.Sprintf("%s (%d)", e.Message, e.Status)
}

// PublicMessage is the user-facing text from the envelope.
func (e *APIError) PublicMessage() string {
	return e.Message
}

// LoginFailure returns the sign-in failure kind carried by the error code.
func (e *APIError) LoginFailure() (models.LoginFailure, bool) {
	return models.ParseLoginFailure(e.Code)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// Client is a typed REST client for the rwid API.
type Client struct {
	baseURL  string
	http     *http.Client
	sessions session.Store
}

// New builds a client from the client configuration.
func New(cfg *config.ClientConfig, store session.Store) *Client {
	return NewWithHTTPClient(cfg.APIURL, &http.Client{Timeout: cfg.RequestTimeout}, store)
}

// NewWithHTTPClient builds a client using hc for transport.
func NewWithHTTPClient(baseURL string, hc *http.Client, store session.Store) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	if store == nil {
		store = session.NewMemoryStore()
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     hc,
		sessions: store,
	}
}

// Sessions returns the session store the client reads its bearer token from.
func (c *Client) Sessions() session.Store {
	return c.sessions
}

// bearer returns the stored token, or "" when signed out.
func (c *Client) bearer(ctx context.Context) string {
	rec, err := c.sessions.Read(ctx)
	if err != nil {
		observability.GlobalLogger.WarnContext(ctx, "session read failed", slog.String("error", err.Error()))
		return ""
	}
	if rec == nil {
		return ""
	}
	return rec.Token
}

// do sends a JSON request and decodes a 2xx body into out. Non-2xx answers
// are returned as *APIError.
func (c *Client) do(ctx context.Context, method, path, token string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp.StatusCode, data)
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeAPIError(status int, data []byte) *APIError {
	apiErr := &APIError{Status: status, Data: data}
	var envelope models.ErrorResponse
	if err := json.Unmarshal(data, &envelope); err == nil && envelope.Error != "" {
		apiErr.Message = envelope.Error
		apiErr.Code = envelope.Code
	} else {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}
