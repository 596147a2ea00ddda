package traits

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
)

func TestKeysOrderAndCopy(t *testing.T) {
	ks := Keys()
	if len(ks) != 11 {
		t.Fatalf("len=%d", len(ks))
	}
	if ks[0] != Ruthlessness || ks[10] != LackConscience {
		t.Fatalf("unexpected order: %v", ks)
	}
	ks[0] = "mutated"
	if Keys()[0] != Ruthlessness {
		t.Fatalf("Keys must return a copy")
	}
	if !IsKey("selfConfidence") || IsKey("unknownKey") {
		t.Fatalf("IsKey mismatch")
	}
}

func TestClampLevel(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want int
	}{
		{"in range", 7.0, 7},
		{"round up", 6.5, 7},
		{"round down", 6.49, 6},
		{"above max", 11.7, 10},
		{"negative", -3.0, 0},
		{"negative half", -0.5, 0},
		{"numeric string", "3", 3},
		{"padded numeric string", " 8.6 ", 9},
		{"word string", "high", 5},
		{"empty string", "", 5},
		{"nil", nil, 5},
		{"bool", true, 5},
		{"object", map[string]any{"v": 1}, 5},
		{"array", []any{1.0}, 5},
		{"nan", math.NaN(), 5},
		{"inf", math.Inf(1), 5},
		{"inf string", "Infinity", 5},
		{"overflow string", "1e400", 5},
		{"json number", json.Number("4.4"), 4},
		{"int", 12, 10},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClampLevel(tc.in); got != tc.want {
				t.Fatalf("ClampLevel(%v)=%d want %d", tc.in, got, tc.want)
			}
		})
	}
}

func TestFinalizeRoundTripOracle(t *testing.T) {
	content := `{"levels":{"ruthlessness":11.7,"focus":"3","unknownKey":9},"rationales":{"focus":"steady"},"summary":"ok"}`

	res, err := Finalize(content)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if res.Levels[Ruthlessness] != 10 {
		t.Fatalf("ruthlessness=%d", res.Levels[Ruthlessness])
	}
	if res.Levels[Focus] != 3 {
		t.Fatalf("focus=%d", res.Levels[Focus])
	}
	if _, ok := res.Levels["unknownKey"]; ok {
		t.Fatalf("unknownKey must be dropped")
	}
	if len(res.DroppedKeys) != 1 || res.DroppedKeys[0] != "unknownKey" {
		t.Fatalf("dropped=%v", res.DroppedKeys)
	}
	if len(res.Levels) != len(Keys()) {
		t.Fatalf("levels not total: %v", res.Levels)
	}
	for _, k := range Keys() {
		if k == Ruthlessness || k == Focus {
			continue
		}
		if res.Levels[k] != DefaultLevel {
			t.Fatalf("%s=%d want default", k, res.Levels[k])
		}
	}
	if res.Rationales["focus"] != "steady" || res.Summary != "ok" {
		t.Fatalf("passthrough mismatch: %+v", res)
	}
}

func TestFinalizeAlwaysTotalAndBounded(t *testing.T) {
	inputs := []any{
		`{}`,
		`[]`,
		`42`,
		`null`,
		`{"levels":null}`,
		`{"levels":{"charm":-100,"charisma":1e9,"coolness":"x","toughness":true}}`,
		map[string]any{"levels": map[string]any{"focus": 2.2}},
		[]byte(`{"levels":{"impulsivity":9.5}}`),
		json.RawMessage(`{"levels":{"impulsivity":"0.4"}}`),
		nil,
	}
	for _, in := range inputs {
		res, err := Finalize(in)
		if err != nil {
			t.Fatalf("Finalize(%v): %v", in, err)
		}
		if len(res.Levels) != len(Keys()) {
			t.Fatalf("Finalize(%v) not total: %v", in, res.Levels)
		}
		for k, v := range res.Levels {
			if v < MinLevel || v > MaxLevel {
				t.Fatalf("Finalize(%v) %s=%d out of range", in, k, v)
			}
		}
		if res.Rationales == nil {
			t.Fatalf("rationales must default to empty map")
		}
	}
}

func TestFinalizeDefaultsPassthroughFields(t *testing.T) {
	res, err := Finalize(`{"levels":{},"rationales":"nope","summary":7}`)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if len(res.Rationales) != 0 || res.Summary != "" {
		t.Fatalf("expected defaults, got %+v", res)
	}

	res, err = Finalize(`{"rationales":{"charm":"smooth","focus":3,"extra":"kept"}}`)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if res.Rationales["charm"] != "smooth" || res.Rationales["extra"] != "kept" {
		t.Fatalf("rationales=%v", res.Rationales)
	}
	if _, ok := res.Rationales["focus"]; ok {
		t.Fatalf("non-string rationale must be dropped")
	}
}

func TestFinalizeInvalidJSON(t *testing.T) {
	content := "Sure! Here are the levels: " + strings.Repeat("x", 500)
	_, err := Finalize(content)
	var inv *InvalidOutputError
	if !errors.As(err, &inv) {
		t.Fatalf("expected InvalidOutputError, got %v", err)
	}
	if len([]rune(inv.Snippet)) != 200 {
		t.Fatalf("snippet len=%d", len([]rune(inv.Snippet)))
	}
	if !strings.HasPrefix(inv.Snippet, "Sure!") {
		t.Fatalf("snippet=%q", inv.Snippet)
	}

	if _, err := Finalize(""); err == nil {
		t.Fatalf("empty content must be invalid")
	}
}

func TestNeutralLevels(t *testing.T) {
	l := NeutralLevels()
	if len(l) != 11 {
		t.Fatalf("len=%d", len(l))
	}
	for k, v := range l {
		if v != DefaultLevel {
			t.Fatalf("%s=%d", k, v)
		}
	}
}

func TestFinalizeDroppedKeysSorted(t *testing.T) {
	res, err := Finalize(json.RawMessage(`{"levels":{"zeal":1,"focus":2,"anger":3,"ruthlessness":4}}`))
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if got := strings.Join(res.DroppedKeys, ","); got != "anger,zeal" {
		t.Fatalf("dropped=%q", got)
	}
	if res.Levels[Focus] != 2 || res.Levels[Ruthlessness] != 4 {
		t.Fatalf("levels=%v", res.Levels)
	}

	res, err = Finalize(`{"levels":{"focus":7}}`)
	if err != nil || res.DroppedKeys != nil {
		t.Fatalf("dropped=%v err=%v", res.DroppedKeys, err)
	}
}
