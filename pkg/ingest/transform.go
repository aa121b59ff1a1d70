// Package ingest accepts raw payloads from external weather providers,
// normalizes them through configurable field mappings and turns them into
// station readings in the background.
package ingest

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/devandress/Estacion-metereologica/pkg/models"
)

// Transform applies a provider's field mapping to a raw payload. Each mapping
// entry names a canonical field and the dotted path to its value inside the
// payload, e.g. "main.temp". Paths that do not resolve are omitted from the
// result, never zero-filled. The inputs are not modified.
func Transform(raw map[string]interface{}, mapping models.FieldMapping) map[string]interface{} {
	normalized := make(map[string]interface{}, len(mapping))
	for field, path := range mapping {
		if value, ok := lookupPath(raw, path); ok {
			normalized[field] = value
		}
	}
	return normalized
}

// lookupPath walks a dotted path through nested objects. Any segment that
// hits a missing key or a non-object value fails the whole lookup.
func lookupPath(raw map[string]interface{}, path string) (interface{}, bool) {
	var current interface{} = raw
	for _, segment := range strings.Split(path, ".") {
		obj, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current, ok = obj[segment]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// numericField reads a normalized value as float64, tolerating the integer
// and string encodings providers tend to use
func numericField(data map[string]interface{}, field string) (float64, bool) {
	value, ok := data[field]
	if !ok || value == nil {
		return 0, false
	}
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
