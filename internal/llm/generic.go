package llm

import (
	"encoding/json"
	"strings"
)

// PromptPlaceholder is replaced with the prompt text inside a scalar
// "prompt" template value.
const PromptPlaceholder = "{{prompt}}"

// genericAdapter is used for providers without a dedicated adapter.
type genericAdapter struct{}

// Name returns the provider name.
func (genericAdapter) Name() string {
	return string(ProviderGeneric)
}

// ShapeBody injects the prompt into the template.
func (genericAdapter) ShapeBody(template map[string]any, prompt string) map[string]any {
	return shapeBody(template, prompt)
}

// ExtractText probes "text", then "response.text", and finally returns the
// whole response serialized as JSON.
func (genericAdapter) ExtractText(response any) string {
	if s, ok := lookup(response, "text").(string); ok {
		return s
	}
	if s, ok := lookup(response, "response", "text").(string); ok {
		return s
	}
	if response == nil {
		return ""
	}
	data, err := json.Marshal(response)
	if err != nil {
		return ""
	}
	return string(data)
}

// shapeBody applies the request shaping rules in priority order: messages
// array, contents array, scalar prompt, empty template. Unrecognized
// templates are returned as an unchanged copy.
func shapeBody(template map[string]any, prompt string) map[string]any {
	body := copyMap(template)

	if messages, ok := body["messages"].([]any); ok {
		body["messages"] = append(messages, map[string]any{
			"role":    "user",
			"content": prompt,
		})
		return body
	}

	if contents, ok := body["contents"].([]any); ok {
		body["contents"] = append(contents, map[string]any{
			"parts": []any{
				map[string]any{"text": prompt},
			},
		})
		return body
	}

	if p, ok := body["prompt"].(string); ok {
		if strings.Contains(p, PromptPlaceholder) {
			body["prompt"] = strings.ReplaceAll(p, PromptPlaceholder, prompt)
		} else {
			body["prompt"] = prompt
		}
		return body
	}

	if len(body) == 0 {
		return map[string]any{"prompt": prompt}
	}

	return body
}

// copyMap deep-copies the JSON-like structure of m. Slices are copied with
// spare capacity discarded so appends never alias the source.
func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		return copyMap(x)
	case []any:
		out := make([]any, len(x))
		for i := range x {
			out[i] = copyValue(x[i])
		}
		return out
	case []map[string]any:
		out := make([]any, len(x))
		for i := range x {
			out[i] = copyMap(x[i])
		}
		return out
	case map[string]string:
		out := make(map[string]any, len(x))
		for k, s := range x {
			out[k] = s
		}
		return out
	case []string:
		out := make([]any, len(x))
		for i := range x {
			out[i] = x[i]
		}
		return out
	default:
		return v
	}
}

// lookup walks a decoded JSON value along path. String elements index
// objects and int elements index arrays. It returns nil when any step is
// missing or of the wrong kind.
func lookup(v any, path ...any) any {
	cur := v
	for _, step := range path {
		switch key := step.(type) {
		case string:
			obj, ok := cur.(map[string]any)
			if !ok {
				return nil
			}
			cur, ok = obj[key]
			if !ok {
				return nil
			}
		case int:
			arr, ok := cur.([]any)
			if !ok || key < 0 || key >= len(arr) {
				return nil
			}
			cur = arr[key]
		default:
			return nil
		}
	}
	return cur
}
