package service

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSON recovers a JSON object from a free-form model answer. It first
// parses the span from the first '{' to the last '}', then the whole text.
func ExtractJSON(raw string) (map[string]any, error) {
	var lastErr error

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		obj, err := parseObject(raw[start : end+1])
		if err == nil {
			return obj, nil
		}
		lastErr = err
	}

	obj, err := parseObject(strings.TrimSpace(raw))
	if err == nil {
		return obj, nil
	}
	if lastErr == nil {
		lastErr = err
	}

	return nil, fmt.Errorf("%w: %v", ErrCompilationParse, lastErr)
}

func parseObject(s string) (map[string]any, error) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, fmt.Errorf("value is not an object")
	}
	return obj, nil
}
