package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
)

// numberJSON keeps numeric literals as json.Number so large ids and decimals survive decoding
var numberJSON = jsoniter.Config{UseNumber: true, EscapeHTML: false}.Froze()

// FilterValue is a scalar literal or a two element range used by between
type FilterValue struct {
	items []any
}

// Scalar wraps a single literal
func Scalar(v any) *FilterValue { return &FilterValue{items: []any{v}} }

// Range wraps a lower and upper bound
func Range(lo, hi any) *FilterValue { return &FilterValue{items: []any{lo, hi}} }

// Items returns the literals, nil safe
func (v *FilterValue) Items() []any {
	if v == nil {
		return nil
	}
	return v.items
}

// Text renders the literals the way group labels carry them
func (v *FilterValue) Text() string {
	parts := make([]string, 0, len(v.Items()))
	for _, it := range v.Items() {
		parts = append(parts, LiteralText(it))
	}
	return strings.Join(parts, ",")
}

// MarshalJSON writes a scalar for one item and an array otherwise
func (v FilterValue) MarshalJSON() ([]byte, error) {
	if len(v.items) == 1 {
		return numberJSON.Marshal(v.items[0])
	}
	return numberJSON.Marshal(v.items)
}

// UnmarshalJSON accepts a scalar or an array of scalars
func (v *FilterValue) UnmarshalJSON(b []byte) error {
	var raw any
	if err := numberJSON.Unmarshal(b, &raw); err != nil {
		return err
	}
	switch x := raw.(type) {
	case []any:
		for _, it := range x {
			if _, ok := it.(map[string]any); ok {
				return fmt.Errorf("filter value items must be scalars")
			}
		}
		v.items = x
	case map[string]any:
		return fmt.Errorf("filter value must be a scalar or an array")
	default:
		v.items = []any{x}
	}
	return nil
}

// LiteralText formats one literal without quoting
func LiteralText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(x)
	}
}

// AsNumber reads a numeric literal
func AsNumber(v any) (float64, bool) {
	switch x := v.(type) {
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	}
	return 0, false
}

// AsTime reads a date literal, strings are RFC3339 and numbers are unix milliseconds
func AsTime(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x.UTC(), true
	case string:
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, strings.TrimSpace(x)); err == nil {
				return t.UTC(), true
			}
		}
	case json.Number, float64, int, int64:
		ms, ok := AsNumber(x)
		if ok {
			return time.UnixMilli(int64(ms)).UTC(), true
		}
	}
	return time.Time{}, false
}

// NumberLiteral reads a number filter literal, JSON strings are rejected even when they parse
func NumberLiteral(v any) (float64, bool) {
	if _, ok := v.(string); ok {
		return 0, false
	}
	return AsNumber(v)
}

// StringLiteral reads a string filter literal, only JSON strings qualify
func StringLiteral(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}
