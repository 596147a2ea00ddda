package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/traitdial/internal/platform/apierr"
)

func newContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	return c, rec
}

func TestRespondErrorWithSnippet(t *testing.T) {
	c, rec := newContext()
	RespondError(c, apierr.New(http.StatusBadGateway, apierr.CodeUpstreamMalformed, errors.New("upstream returned non-JSON response")).WithSnippet("<html>"))

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status=%d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("body not JSON: %v", err)
	}
	if body["error"] != "upstream returned non-JSON response" || body["snippet"] != "<html>" {
		t.Fatalf("body=%v", body)
	}
}

func TestRespondErrorUnknown(t *testing.T) {
	c, rec := newContext()
	RespondError(c, errors.New("kaboom"))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", rec.Code)
	}
	if got := rec.Body.String(); got != `{"error":"kaboom"}` {
		t.Fatalf("body=%s", got)
	}
}

func TestWriteJSONFallback(t *testing.T) {
	c, rec := newContext()
	WriteJSON(c, http.StatusOK, map[string]any{"bad": make(chan int)})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", rec.Code)
	}
	if got := rec.Body.String(); got != `{"error":"Internal server error"}` {
		t.Fatalf("body=%s", got)
	}
}
