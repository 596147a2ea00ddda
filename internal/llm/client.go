// Package llm calls an OpenAI-compatible chat completions endpoint for JSON output.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/yungbote/traitdial/internal/config"
	"github.com/yungbote/traitdial/internal/platform/logger"
)

// Temperature is fixed low so trait scoring stays close to deterministic.
const Temperature = 0.2

const (
	chatCompletionsPath = "/v1/chat/completions"
	maxResponseBytes    = 8 << 20
	maxSnippet          = 200
)

type Client struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	model      string
	timeout    time.Duration
	httpClient *http.Client
}

func New(cfg config.OpenAIConfig, log *logger.Logger) *Client {
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return NewWithHTTPClient(cfg, log, &http.Client{Transport: tr})
}

// NewWithHTTPClient is intended for tests; it avoids network access by using a custom RoundTripper.
func NewWithHTTPClient(cfg config.OpenAIConfig, log *logger.Logger, httpClient *http.Client) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = config.DefaultBaseURL
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = config.DefaultModel
	}
	if log == nil {
		log = logger.NewNop()
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		log:        log.With("component", "llm"),
		baseURL:    baseURL,
		apiKey:     strings.TrimSpace(cfg.APIKey),
		model:      model,
		timeout:    cfg.Timeout.Duration,
		httpClient: httpClient,
	}
}

func (c *Client) Model() string { return c.model }

// Configured reports whether a credential is present.
func (c *Client) Configured() bool { return c != nil && c.apiKey != "" }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model          string            `json:"model"`
	Temperature    float64           `json:"temperature"`
	Messages       []chatMessage     `json:"messages"`
	ResponseFormat map[string]string `json:"response_format"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content json.RawMessage `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type errorEnvelope struct {
	Error json.RawMessage `json:"error"`
}

// Generate sends the prompt pair and returns the message content: a string
// when the upstream sent text, json.RawMessage when it sent structured JSON,
// and "" when there was none.
func (c *Client) Generate(ctx context.Context, system, user string) (any, error) {
	if !c.Configured() {
		return "", &Error{Kind: KindConfiguration, Message: "missing OPENAI_API_KEY"}
	}

	reqBody := chatCompletionRequest{
		Model:       c.model,
		Temperature: Temperature,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		ResponseFormat: map[string]string{"type": "json_object"},
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(reqBody); err != nil {
		return "", err
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+chatCompletionsPath, &buf)
	if err != nil {
		return "", &Error{Kind: KindUnavailable, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &Error{Kind: KindUnavailable, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", &Error{Kind: KindUnavailable, StatusCode: resp.StatusCode, Err: err}
	}

	c.log.Debug("chat completion",
		"model", c.model,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if !json.Valid(raw) {
		return "", &Error{
			Kind:       KindMalformed,
			StatusCode: resp.StatusCode,
			Message:    "upstream returned a non-JSON body",
			Snippet:    snippet(string(raw)),
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := upstreamErrorMessage(raw)
		if msg == "" {
			msg = "upstream request failed"
		}
		return "", &Error{Kind: KindRejected, StatusCode: resp.StatusCode, Message: msg}
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		// Valid JSON of an unexpected shape carries no content.
		c.log.Warn("chat completion has unexpected shape", "error", err, "snippet", snippet(string(raw)))
		return "", nil
	}
	if len(parsed.Choices) == 0 {
		return "", nil
	}
	return messageContent(parsed.Choices[0].Message.Content)
}

// upstreamErrorMessage reads error.message, or error when it is a plain string.
func upstreamErrorMessage(raw []byte) string {
	var env errorEnvelope
	if err := json.Unmarshal(raw, &env); err != nil || len(env.Error) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(env.Error, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var obj map[string]any
	if err := json.Unmarshal(env.Error, &obj); err != nil {
		return ""
	}
	msg, _ := obj["message"].(string)
	return strings.TrimSpace(msg)
}

func messageContent(rc json.RawMessage) (any, error) {
	trimmed := bytes.TrimSpace(rc)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "", nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	return json.RawMessage(trimmed), nil
}

func snippet(s string) string {
	r := []rune(s)
	if len(r) <= maxSnippet {
		return s
	}
	return string(r[:maxSnippet])
}
