package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/sitekit/internal/domain/completion"
	"github.com/kailas-cloud/sitekit/internal/metrics"
)

// DefaultBaseURL is the public OpenAI API root.
const DefaultBaseURL = "https://api.openai.com/v1"

// Config holds the chat completion provider settings.
type Config struct {
	BaseURL string
	Model   string
	// HTTPClient overrides the default client (timeouts, test servers).
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Chat sends single-message chat completion requests to an OpenAI-compatible API.
// The API key is supplied per call because it is resolved from the secret store each time.
type Chat struct {
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewChat creates an OpenAI-compatible chat provider.
func NewChat(cfg *Config) *Chat {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Chat{
		baseURL:    baseURL,
		model:      cfg.Model,
		httpClient: cfg.HTTPClient,
		logger:     logger,
	}
}

// Model returns the configured model name.
func (c *Chat) Model() string { return c.model }

// Complete posts the prompt as a single user message and returns the reply of every choice.
// Errors are *completion.Error classified as transport, decode or upstream.
func (c *Chat) Complete(ctx context.Context, apiKey, prompt string) ([]string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}

	start := time.Now()
	resp, err := c.client(apiKey).CreateChatCompletion(ctx, req)
	metrics.CompletionRequestDuration.WithLabelValues(c.model).Observe(time.Since(start).Seconds())

	if err != nil {
		classified := classify(err)
		c.logger.Debug("chat completion request failed",
			zap.String("kind", string(classified.Kind)),
			zap.Error(err),
		)
		return nil, classified
	}

	replies := make([]string, 0, len(resp.Choices))
	for _, ch := range resp.Choices {
		replies = append(replies, ch.Message.Content)
	}
	return replies, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (c *Chat) HealthCheck(ctx context.Context, apiKey string) error {
	if _, err := c.client(apiKey).ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

func (c *Chat) client(apiKey string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = c.baseURL

	hc := &http.Client{}
	if c.httpClient != nil {
		copied := *c.httpClient
		hc = &copied
	}
	next := hc.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	hc.Transport = &keepEmptyContent{next: next}
	cfg.HTTPClient = hc

	return openai.NewClientWithConfig(cfg)
}

// keepEmptyContent restores "content":"" on chat messages that go-openai
// serialized without it (Content is omitempty), so empty prompts reach the API as sent.
type keepEmptyContent struct {
	next http.RoundTripper
}

func (t *keepEmptyContent) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodPost || req.Body == nil ||
		!strings.HasSuffix(req.URL.Path, "/chat/completions") {
		return t.next.RoundTrip(req)
	}

	body, err := io.ReadAll(req.Body)
	_ = req.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("read chat request body: %w", err)
	}
	if patched, ok := withEmptyContent(body); ok {
		body = patched
	}

	out := req.Clone(req.Context())
	out.Body = io.NopCloser(bytes.NewReader(body))
	out.ContentLength = int64(len(body))
	out.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(body)), nil
	}
	return t.next.RoundTrip(out)
}

// withEmptyContent adds an empty content key to messages without one.
// Reports false when nothing changed.
func withEmptyContent(body []byte) ([]byte, bool) {
	var req map[string]json.RawMessage
	if json.Unmarshal(body, &req) != nil {
		return nil, false
	}
	var msgs []map[string]json.RawMessage
	if json.Unmarshal(req["messages"], &msgs) != nil {
		return nil, false
	}

	changed := false
	for _, m := range msgs {
		if _, ok := m["content"]; ok {
			continue
		}
		m["content"] = json.RawMessage(`""`)
		changed = true
	}
	if !changed {
		return nil, false
	}

	raw, err := json.Marshal(msgs)
	if err != nil {
		return nil, false
	}
	req["messages"] = raw
	patched, err := json.Marshal(req)
	if err != nil {
		return nil, false
	}
	return patched, true
}

// classify maps a client error onto a completion failure kind.
// Messages of transport and decode failures are passed through unchanged.
func classify(err error) *completion.Error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		msg := apiErr.Message
		if msg == "" {
			msg = err.Error()
		}
		return &completion.Error{Kind: completion.KindUpstream, Err: errors.New(msg)}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		msg := extractMessage(reqErr.Body)
		if msg == "" {
			msg = fmt.Sprintf("status %d", reqErr.HTTPStatusCode)
		}
		return &completion.Error{Kind: completion.KindUpstream, Err: errors.New(msg)}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &completion.Error{Kind: completion.KindTransport, Err: err}
	}
	if isDecodeError(err) {
		return &completion.Error{Kind: completion.KindDecode, Err: err}
	}
	return &completion.Error{Kind: completion.KindTransport, Err: err}
}

func isDecodeError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) ||
		errors.As(err, &typeErr) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF)
}

// extractMessage pulls a human-readable message out of a non-standard error body.
// Handles {"error":"..."}, {"error":{"message":"..."}} and {"detail":"..."}.
func extractMessage(body []byte) string {
	var parsed struct {
		Error  json.RawMessage `json:"error"`
		Detail string          `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) != nil {
		return ""
	}
	if parsed.Detail != "" {
		return parsed.Detail
	}
	var s string
	if json.Unmarshal(parsed.Error, &s) == nil && s != "" {
		return s
	}
	var obj struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(parsed.Error, &obj) == nil {
		return obj.Message
	}
	return ""
}
