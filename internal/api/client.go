package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"whichmodel/internal/models"
)

const maxErrorBody = 64 << 10

// Client talks to the prompt/response backend.
type Client struct {
	baseURL string
	http    *http.Client
	token   func() string
	log     *zap.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithTokenSource sets a function consulted on every request. A non-empty
// result is sent as a bearer token.
func WithTokenSource(f func() string) Option {
	return func(c *Client) { c.token = f }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.log = l }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 120 * time.Second},
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) GetConfig(ctx context.Context) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.do(ctx, OpGetConfig, http.MethodGet, "/config", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListPrompts(ctx context.Context) ([]models.Prompt, error) {
	var out []models.Prompt
	if err := c.do(ctx, OpListPrompts, http.MethodGet, "/prompts", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListResponses(ctx context.Context) ([]models.GeneratedResponse, error) {
	var out []models.GeneratedResponse
	if err := c.do(ctx, OpListResponses, http.MethodGet, "/responses", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type generateBatchRequest struct {
	PromptID int      `json:"prompt_id"`
	Models   []string `json:"models"`
}

// GenerateBatch asks the backend for one prompt's responses across models.
// Already stored pairs come back with Cached set.
func (c *Client) GenerateBatch(ctx context.Context, promptID int, modelIDs []string) ([]models.GenerationResult, error) {
	var out []models.GenerationResult
	body := generateBatchRequest{PromptID: promptID, Models: nonNil(modelIDs)}
	if err := c.do(ctx, OpGenerateBatch, http.MethodPost, "/generate-batch", nil, body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type generateBatchMultipleRequest struct {
	PromptIDs []int    `json:"prompt_ids"`
	Models    []string `json:"models"`
}

// GenerateBatchMultiple is the multi-prompt form used by the batch runner.
// The call is all-or-nothing; the body is returned undecoded.
func (c *Client) GenerateBatchMultiple(ctx context.Context, promptIDs []int, modelIDs []string) (json.RawMessage, error) {
	var out json.RawMessage
	body := generateBatchMultipleRequest{PromptIDs: nonNil(promptIDs), Models: nonNil(modelIDs)}
	if err := c.do(ctx, OpGenerateBatchMultiple, http.MethodPost, "/generate-batch-multiple", nil, body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type deleteResponseReply struct {
	Deleted bool `json:"deleted"`
}

func (c *Client) DeleteResponse(ctx context.Context, promptID int, modelID string) error {
	q := url.Values{}
	q.Set("model", modelID)
	var out deleteResponseReply
	path := "/responses/" + strconv.Itoa(promptID)
	return c.do(ctx, OpDeleteResponse, http.MethodDelete, path, q, nil, &out)
}

func (c *Client) EmbeddingMetadata(ctx context.Context) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.do(ctx, OpEmbeddingMetadata, http.MethodGet, "/embeddings/metadata", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) VisualizeEmbeddings(ctx context.Context, query models.EmbeddingQuery) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.do(ctx, OpVisualizeEmbeddings, http.MethodPost, "/embeddings/visualize", nil, query, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != nil {
		if tok := strings.TrimSpace(c.token()); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		apiErr := &Error{Op: op, Message: fallbackMessages[op], Err: err}
		c.log.Warn("backend request failed", zap.String("op", op), zap.String("url", endpoint), zap.Error(err))
		return apiErr
	}
	defer resp.Body.Close()

	c.log.Debug("backend request",
		zap.String("op", op),
		zap.String("method", method),
		zap.String("url", endpoint),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &Error{Op: op, StatusCode: resp.StatusCode, Message: errorMessage(op, raw)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return &Error{Op: op, StatusCode: resp.StatusCode, Message: fallbackMessages[op], Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// errorMessage prefers the backend's "detail" string over the fixed message.
func errorMessage(op string, raw []byte) string {
	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && len(body.Detail) > 0 {
		var detail string
		if err := json.Unmarshal(body.Detail, &detail); err == nil && strings.TrimSpace(detail) != "" {
			return detail
		}
	}
	return fallbackMessages[op]
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
