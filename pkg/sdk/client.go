package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrAPIError wraps every non-2xx response from the server.
var ErrAPIError = errors.New("raglited api error")

// APIError carries the decoded error body of a failed request.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("raglited api error: %d %s: %s", e.StatusCode, e.Code, e.Message)
}

func (e *APIError) Unwrap() error { return ErrAPIError }

// Client is the raglited API client.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithAPIKey sets the Bearer token sent with every request.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithHTTPClient substitutes the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New creates a client for the server at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 120 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// IndexResult reports how a document was stored.
type IndexResult struct {
	ID     string `json:"id"`
	Chunks int    `json:"chunks"`
}

// Span is one retrieved chunk span.
type Span struct {
	DocumentID string  `json:"document_id"`
	From       int     `json:"from"`
	To         int     `json:"to"`
	Text       string  `json:"text"`
	Score      float64 `json:"score"`
}

// AnswerResult carries a grounded answer and its supporting spans.
type AnswerResult struct {
	Answer string `json:"answer"`
	Spans  []Span `json:"spans"`
}

// IndexDocument splits, embeds, and stores a document.
func (c *Client) IndexDocument(ctx context.Context, id, content string) (IndexResult, error) {
	var out IndexResult
	err := c.post(ctx, "/api/v1/documents", map[string]string{"id": id, "content": content}, &out)
	return out, err
}

// Search retrieves the spans most relevant to the query.
func (c *Client) Search(ctx context.Context, query string) ([]Span, error) {
	var out struct {
		Spans []Span `json:"spans"`
	}
	if err := c.post(ctx, "/api/v1/search", map[string]string{"query": query}, &out); err != nil {
		return nil, err
	}
	return out.Spans, nil
}

// Answer retrieves relevant spans and generates a grounded answer.
func (c *Client) Answer(ctx context.Context, query string) (AnswerResult, error) {
	var out AnswerResult
	err := c.post(ctx, "/api/v1/answer", map[string]string{"query": query}, &out)
	return out, err
}

// Ping checks server and chunk store health.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", http.NoBody)
	if err != nil {
		return err
	}
	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return decodeAPIError(resp)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	return c.http.Do(req)
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err == nil {
		var payload struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if json.Unmarshal(body, &payload) == nil {
			apiErr.Code = payload.Code
			apiErr.Message = payload.Message
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
