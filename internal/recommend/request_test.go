package recommend

import (
	"errors"
	"net/http"
	"testing"

	"github.com/yungbote/traitdial/internal/platform/apierr"
)

func TestParseRequestScenarioLength(t *testing.T) {
	if _, err := ParseRequest([]byte(`{"scenario":"ok"}`)); err == nil {
		t.Fatalf("two characters must be rejected")
	}
	req, err := ParseRequest([]byte(`{"scenario":"ok!"}`))
	if err != nil {
		t.Fatalf("three characters must pass: %v", err)
	}
	if req.Scenario != "ok!" {
		t.Fatalf("scenario=%q", req.Scenario)
	}
	if _, err := ParseRequest([]byte(`{"scenario":"   ab   "}`)); err == nil {
		t.Fatalf("length is measured after trimming")
	}
	if _, err := ParseRequest([]byte(`{"scenario":"日本語"}`)); err != nil {
		t.Fatalf("length is counted in characters, not bytes: %v", err)
	}
}

func TestParseRequestInvalidBodies(t *testing.T) {
	for _, body := range []string{``, `not json`, `[1,2,3]`, `"scenario"`, `null`, `{}`, `{"scenario":null}`, `{"scenario":{"a":1}}`} {
		_, err := ParseRequest([]byte(body))
		var ae *apierr.Error
		if !errors.As(err, &ae) {
			t.Fatalf("body %q: expected apierr, got %v", body, err)
		}
		if ae.Status != http.StatusBadRequest || ae.Code != apierr.CodeInvalidScenario {
			t.Fatalf("body %q: status=%d code=%q", body, ae.Status, ae.Code)
		}
	}
}

func TestParseRequestCoercion(t *testing.T) {
	req, err := ParseRequest([]byte(`{"scenario":12345,"pdfUrl":" https://x.example/a.pdf ","debug":1}`))
	if err != nil {
		t.Fatalf("ParseRequest: %v", err)
	}
	if req.Scenario != "12345" {
		t.Fatalf("scenario=%q", req.Scenario)
	}
	if req.PDFURL != "https://x.example/a.pdf" {
		t.Fatalf("pdfUrl=%q", req.PDFURL)
	}
	if !req.Debug {
		t.Fatalf("debug=1 is truthy")
	}

	req, err = ParseRequest([]byte(`{"scenario":"a long scenario","pdfUrl":null,"debug":""}`))
	if err != nil {
		t.Fatalf("ParseRequest: %v", err)
	}
	if req.PDFURL != "" || req.Debug {
		t.Fatalf("got %+v", req)
	}
}

func TestTruthy(t *testing.T) {
	cases := []struct {
		body string
		want bool
	}{
		{`{"scenario":"abc","debug":true}`, true},
		{`{"scenario":"abc","debug":false}`, false},
		{`{"scenario":"abc","debug":0}`, false},
		{`{"scenario":"abc","debug":"false"}`, true},
		{`{"scenario":"abc","debug":{}}`, true},
		{`{"scenario":"abc"}`, false},
	}
	for _, tc := range cases {
		req, err := ParseRequest([]byte(tc.body))
		if err != nil {
			t.Fatalf("%s: %v", tc.body, err)
		}
		if req.Debug != tc.want {
			t.Fatalf("%s: debug=%v want %v", tc.body, req.Debug, tc.want)
		}
	}
}
