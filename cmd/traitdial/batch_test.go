package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yungbote/traitdial/internal/platform/apierr"
	"github.com/yungbote/traitdial/internal/recommend"
	"github.com/yungbote/traitdial/internal/traits"
)

type fakeRunner struct {
	mu       sync.Mutex
	inflight int32
	peak     int32
}

func (f *fakeRunner) Recommend(_ context.Context, req recommend.ScenarioRequest) (recommend.Response, error) {
	n := atomic.AddInt32(&f.inflight, 1)
	defer atomic.AddInt32(&f.inflight, -1)
	f.mu.Lock()
	if n > f.peak {
		f.peak = n
	}
	f.mu.Unlock()
	time.Sleep(5 * time.Millisecond)

	if strings.HasPrefix(req.Scenario, "fail") {
		return recommend.Response{}, apierr.New(http.StatusBadGateway, apierr.CodeUpstreamMalformed, errors.New("upstream returned non-JSON response")).WithSnippet("<html>")
	}
	return recommend.Response{Result: traits.Result{Levels: traits.NeutralLevels(), Summary: req.Scenario}}, nil
}

func TestParseBatchForms(t *testing.T) {
	wrapped := []byte("scenarios:\n  - id: a\n    scenario: first one\n  - scenario: second one\n    pdfUrl: https://x.example/a.pdf\n")
	items, err := parseBatch(wrapped)
	if err != nil || len(items) != 2 {
		t.Fatalf("wrapped: items=%v err=%v", items, err)
	}
	if items[0].ID != "a" || items[1].PDFURL != "https://x.example/a.pdf" {
		t.Fatalf("items=%+v", items)
	}

	bare := []byte("- scenario: only one\n  debug: true\n")
	items, err = parseBatch(bare)
	if err != nil || len(items) != 1 || !items[0].Debug {
		t.Fatalf("bare: items=%v err=%v", items, err)
	}

	if _, err := parseBatch([]byte("scenarios: []\n")); err == nil {
		t.Fatalf("expected error for empty batch")
	}
}

func TestRunBatchKeepsOrderAndLimit(t *testing.T) {
	items := []batchItem{
		{ID: "1", Scenario: "alpha"},
		{ID: "2", Scenario: "fail here"},
		{ID: "3", Scenario: "gamma"},
		{ID: "4", Scenario: "delta"},
		{ID: "5", Scenario: "epsilon"},
	}
	runner := &fakeRunner{}
	lines, err := runBatch(context.Background(), runner, items, 2)
	if err != nil {
		t.Fatalf("runBatch: %v", err)
	}
	if runner.peak > 2 {
		t.Fatalf("concurrency limit exceeded: peak=%d", runner.peak)
	}
	for i, line := range lines {
		if line.Index != i || line.ID != items[i].ID {
			t.Fatalf("line %d out of order: %+v", i, line)
		}
	}
	if lines[1].Error == nil || lines[1].Error.Status != http.StatusBadGateway || lines[1].Error.Snippet != "<html>" {
		t.Fatalf("failed item: %+v", lines[1])
	}
	if lines[0].Result == nil || lines[0].Result.Summary != "alpha" {
		t.Fatalf("first item: %+v", lines[0])
	}

	var buf bytes.Buffer
	if err := writeLines(&buf, lines); err != nil {
		t.Fatalf("writeLines: %v", err)
	}
	out := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(out) != len(items) {
		t.Fatalf("lines=%d", len(out))
	}
	var first map[string]any
	if err := json.Unmarshal([]byte(out[0]), &first); err != nil {
		t.Fatalf("line not JSON: %v", err)
	}
}

func TestRunBatchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := runBatch(ctx, &fakeRunner{}, []batchItem{{Scenario: "abc"}}, 1); err == nil {
		t.Fatalf("expected cancellation error")
	}
}
