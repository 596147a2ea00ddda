package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yungbote/traitdial/internal/config"
)

type roundTripperFunc func(req *http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

func respond(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(bytes.NewReader([]byte(body))),
	}
}

func testConfig() config.OpenAIConfig {
	return config.OpenAIConfig{
		APIKey:  "sk-test",
		BaseURL: "http://upstream",
		Model:   "test-model",
		Timeout: config.Duration{Duration: 2 * time.Second},
	}
}

func TestGenerateSuccess(t *testing.T) {
	client := &http.Client{
		Transport: roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			if req.URL.Path != "/v1/chat/completions" {
				t.Fatalf("unexpected path: %s", req.URL.Path)
			}
			if got := req.Header.Get("Authorization"); got != "Bearer sk-test" {
				t.Fatalf("authorization=%q", got)
			}

			var payload map[string]any
			if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
				t.Fatalf("decode req: %v", err)
			}
			if payload["model"] != "test-model" {
				t.Fatalf("model=%v", payload["model"])
			}
			if payload["temperature"] != Temperature {
				t.Fatalf("temperature=%v", payload["temperature"])
			}
			rf, _ := payload["response_format"].(map[string]any)
			if rf["type"] != "json_object" {
				t.Fatalf("response_format=%v", payload["response_format"])
			}
			msgs, _ := payload["messages"].([]any)
			if len(msgs) != 2 {
				t.Fatalf("messages=%d", len(msgs))
			}
			first, _ := msgs[0].(map[string]any)
			if first["role"] != "system" || first["content"] != "SYS" {
				t.Fatalf("first message=%v", first)
			}

			return respond(http.StatusOK, `{"choices":[{"message":{"content":"{\"levels\":{}}"}}]}`), nil
		}),
	}

	c := NewWithHTTPClient(testConfig(), nil, client)
	out, err := c.Generate(context.Background(), "SYS", "USER")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if out != `{"levels":{}}` {
		t.Fatalf("content=%q", out)
	}
}

func TestGenerateMissingCredentialNoCall(t *testing.T) {
	var calls int32
	client := &http.Client{
		Transport: roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			atomic.AddInt32(&calls, 1)
			return respond(http.StatusOK, `{}`), nil
		}),
	}
	cfg := testConfig()
	cfg.APIKey = "  "

	c := NewWithHTTPClient(cfg, nil, client)
	_, err := c.Generate(context.Background(), "s", "u")
	var ge *Error
	if !errors.As(err, &ge) || ge.Kind != KindConfiguration {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if calls != 0 {
		t.Fatalf("calls=%d", calls)
	}
}

func TestGenerateTransportFailure(t *testing.T) {
	client := &http.Client{
		Transport: roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			return nil, errors.New("connection refused")
		}),
	}
	_, err := NewWithHTTPClient(testConfig(), nil, client).Generate(context.Background(), "s", "u")
	var ge *Error
	if !errors.As(err, &ge) || ge.Kind != KindUnavailable {
		t.Fatalf("expected unavailable error, got %v", err)
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Fatalf("err=%v", err)
	}
}

func TestGenerateMalformedBody(t *testing.T) {
	body := "<html>" + strings.Repeat("gateway ", 100) + "</html>"
	client := &http.Client{
		Transport: roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			return respond(http.StatusBadGateway, body), nil
		}),
	}
	_, err := NewWithHTTPClient(testConfig(), nil, client).Generate(context.Background(), "s", "u")
	var ge *Error
	if !errors.As(err, &ge) || ge.Kind != KindMalformed {
		t.Fatalf("expected malformed error, got %v", err)
	}
	if len([]rune(ge.Snippet)) != 200 || !strings.HasPrefix(ge.Snippet, "<html>") {
		t.Fatalf("snippet=%q", ge.Snippet)
	}
}

func TestGenerateRejected(t *testing.T) {
	client := &http.Client{
		Transport: roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			return respond(http.StatusTooManyRequests, `{"error":{"message":"Rate limit reached"}}`), nil
		}),
	}
	_, err := NewWithHTTPClient(testConfig(), nil, client).Generate(context.Background(), "s", "u")
	var ge *Error
	if !errors.As(err, &ge) || ge.Kind != KindRejected {
		t.Fatalf("expected rejected error, got %v", err)
	}
	if ge.StatusCode != http.StatusTooManyRequests || ge.Message != "Rate limit reached" {
		t.Fatalf("status=%d message=%q", ge.StatusCode, ge.Message)
	}
}

func TestGenerateRejectedWithoutMessage(t *testing.T) {
	client := &http.Client{
		Transport: roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			return respond(http.StatusUnauthorized, `{}`), nil
		}),
	}
	_, err := NewWithHTTPClient(testConfig(), nil, client).Generate(context.Background(), "s", "u")
	var ge *Error
	if !errors.As(err, &ge) || ge.Kind != KindRejected || ge.Message != "upstream request failed" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestGenerateNoChoices(t *testing.T) {
	client := &http.Client{
		Transport: roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			return respond(http.StatusOK, `{"choices":[]}`), nil
		}),
	}
	out, err := NewWithHTTPClient(testConfig(), nil, client).Generate(context.Background(), "s", "u")
	if err != nil || out != "" {
		t.Fatalf("out=%v err=%v", out, err)
	}
}

func TestDefaultModel(t *testing.T) {
	cfg := testConfig()
	cfg.Model = ""
	c := NewWithHTTPClient(cfg, nil, nil)
	if c.Model() != config.DefaultModel {
		t.Fatalf("model=%q", c.Model())
	}
}

func generateWith(t *testing.T, status int, body string) (any, error) {
	t.Helper()
	client := &http.Client{
		Transport: roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			return respond(status, body), nil
		}),
	}
	return NewWithHTTPClient(testConfig(), nil, client).Generate(context.Background(), "s", "u")
}

func TestGenerateRejectedLooseErrorShapes(t *testing.T) {
	cases := []struct {
		status int
		body   string
		want   string
	}{
		{http.StatusTooManyRequests, `{"error":"rate limited"}`, "rate limited"},
		{http.StatusBadRequest, `{"error":{"message":123}}`, "upstream request failed"},
		{http.StatusServiceUnavailable, `{"error":null}`, "upstream request failed"},
		{http.StatusForbidden, `["denied"]`, "upstream request failed"},
	}
	for _, tc := range cases {
		_, err := generateWith(t, tc.status, tc.body)
		var ge *Error
		if !errors.As(err, &ge) || ge.Kind != KindRejected {
			t.Fatalf("%s: expected rejected error, got %v", tc.body, err)
		}
		if ge.StatusCode != tc.status || ge.Message != tc.want {
			t.Fatalf("%s: status=%d message=%q", tc.body, ge.StatusCode, ge.Message)
		}
	}
}

func TestGenerateStructuredContent(t *testing.T) {
	out, err := generateWith(t, http.StatusOK, `{"choices":[{"message":{"content":{"levels":{"focus":3}}}}]}`)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	rm, ok := out.(json.RawMessage)
	if !ok {
		t.Fatalf("expected json.RawMessage, got %T", out)
	}
	if string(rm) != `{"levels":{"focus":3}}` {
		t.Fatalf("content=%s", rm)
	}
}

func TestGenerateNullContent(t *testing.T) {
	out, err := generateWith(t, http.StatusOK, `{"choices":[{"message":{"content":null}}]}`)
	if err != nil || out != "" {
		t.Fatalf("out=%v err=%v", out, err)
	}
}

func TestGenerateUnexpectedShapeIsNotMalformed(t *testing.T) {
	out, err := generateWith(t, http.StatusOK, `{"choices":"nope"}`)
	if err != nil || out != "" {
		t.Fatalf("out=%v err=%v", out, err)
	}
}
