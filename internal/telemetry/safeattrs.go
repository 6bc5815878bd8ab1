package telemetry

import (
	"sort"
	"strings"

	"go.opentelemetry.io/otel/attribute"
)

// denyKeys drop caller meta that may carry message content or identifiers.
var denyKeys = []string{
	"text",
	"message",
	"prompt",
	"content",
	"authorization",
	"api_key",
	"token",
	"password",
	"email",
	"phone",
}

// SafeAttributes filters out unsafe keys/values and returns OTEL attributes
// sorted by key.
func SafeAttributes(values map[string]any) []attribute.KeyValue {
	if len(values) == 0 {
		return nil
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var attrs []attribute.KeyValue
	for _, k := range keys {
		if denied(k) {
			continue
		}
		key := "rcc.meta." + k
		switch val := values[k].(type) {
		case string:
			if len(val) > 512 {
				continue
			}
			attrs = append(attrs, attribute.String(key, val))
		case bool:
			attrs = append(attrs, attribute.Bool(key, val))
		case int:
			attrs = append(attrs, attribute.Int(key, val))
		case int64:
			attrs = append(attrs, attribute.Int64(key, val))
		case float64:
			attrs = append(attrs, attribute.Float64(key, val))
		case []string:
			attrs = append(attrs, attribute.StringSlice(key, truncateStrings(val, 32)))
		default:
			// unsupported types ignored for safety
		}
	}
	return attrs
}

func denied(key string) bool {
	lk := strings.ToLower(key)
	for _, bad := range denyKeys {
		if strings.Contains(lk, bad) {
			return true
		}
	}
	return false
}

func truncateStrings(in []string, limit int) []string {
	if len(in) <= limit {
		return in
	}
	return in[:limit]
}
