package traits

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Levels maps every Key to an integer in [MinLevel, MaxLevel].
type Levels map[Key]int

// NeutralLevels returns a total mapping with every key at DefaultLevel.
func NeutralLevels() Levels {
	out := make(Levels, len(keys))
	for _, k := range keys {
		out[k] = DefaultLevel
	}
	return out
}

// ClampLevel coerces an untrusted value into a trait level.
//
// Numbers and numeric strings are rounded half up and clamped into range.
// Anything else, including NaN and infinities, yields DefaultLevel.
func ClampLevel(v any) int {
	f, ok := toFloat(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return DefaultLevel
	}
	r := math.Floor(f + 0.5)
	if r < MinLevel {
		return MinLevel
	}
	if r > MaxLevel {
		return MaxLevel
	}
	return int(r)
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
