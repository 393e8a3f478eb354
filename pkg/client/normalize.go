package client

import (
	"encoding/json"
	"strings"
	"unicode"
)

// Normalize rewrites camelCase object keys to snake_case throughout a JSON
// document, so records from older camelCase endpoints decode into the same
// structs as the snake_case API. When both spellings are present the
// snake_case value wins. Input that is not valid JSON is returned unchanged.
func Normalize(raw json.RawMessage) json.RawMessage {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return raw
	}
	out, err := json.Marshal(normalizeValue(doc))
	if err != nil {
		return raw
	}
	return out
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			snake := SnakeCase(k)
			if snake != k {
				if _, exists := t[snake]; exists {
					continue
				}
			}
			out[snake] = normalizeValue(val)
		}
		return out
	case []any:
		for i := range t {
			t[i] = normalizeValue(t[i])
		}
		return t
	default:
		return v
	}
}

// SnakeCase converts storeName to store_name and deliveryFeePerKm to
// delivery_fee_per_km. Runs of capitals stay together: orderID becomes order_id.
func SnakeCase(s string) string {
	if s == "" || strings.ContainsRune(s, '_') {
		return s
	}
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s) + 4)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 {
				prevLower := unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1])
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if prevLower || (unicode.IsUpper(runes[i-1]) && nextLower) {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
