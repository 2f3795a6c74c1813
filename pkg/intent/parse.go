package intent

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrIntentFormat indicates the model output parsed as JSON but did not meet
// the action/params contract.
var ErrIntentFormat = errors.New("intent output missing action or params")

// Extraction is the parsed model output before schema normalization.
type Extraction struct {
	Action Action
	Params map[string]*string
}

// ParseExtraction recovers the (action, params) object from raw model
// output. Model output is unreliable even under JSON mode, so parsing runs
// in stages: strip code fences, locate the outermost {...} span, parse, and
// unwrap double-encoded JSON strings.
func ParseExtraction(content string) (*Extraction, error) {
	stripped := stripFences(content)
	if stripped == "" {
		return nil, fmt.Errorf("no JSON content found in model output")
	}

	// Prefer the brace span (tolerates surrounding prose); fall back to the
	// whole content, which is what recovers double-encoded output where the
	// object sits inside an outer JSON string.
	raw, err := parseUnwrapping(extractBraceSpan(stripped))
	if err != nil {
		var fullErr error
		raw, fullErr = parseUnwrapping(stripped)
		if fullErr != nil {
			return nil, err
		}
	}

	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: output is not a JSON object", ErrIntentFormat)
	}
	actionVal, hasAction := obj["action"]
	paramsVal, hasParams := obj["params"]
	if !hasAction || !hasParams {
		return nil, ErrIntentFormat
	}

	actionStr, ok := actionVal.(string)
	if !ok {
		return nil, fmt.Errorf("%w: action is not a string", ErrIntentFormat)
	}

	params := map[string]*string{}
	if paramsVal != nil {
		paramsObj, ok := paramsVal.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: params is not an object", ErrIntentFormat)
		}
		for key, value := range paramsObj {
			params[key] = stringify(value)
		}
	}

	return &Extraction{Action: Action(actionStr), Params: params}, nil
}

// stripFences removes surrounding markdown code fences, including a
// language tag line such as "json".
func stripFences(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		first := strings.TrimSpace(trimmed[:idx])
		if len(first) <= 10 && !strings.ContainsAny(first, "{}") {
			trimmed = trimmed[idx+1:]
		}
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

// extractBraceSpan returns the span from the first '{' to the last '}', or
// the input unchanged when no such span exists.
func extractBraceSpan(content string) string {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		return content[start : end+1]
	}
	return content
}

// parseUnwrapping parses JSON, re-parsing while the result is itself a
// JSON-encoded string (double encoding).
func parseUnwrapping(candidate string) (any, error) {
	var value any
	if err := json.Unmarshal([]byte(candidate), &value); err != nil {
		return nil, fmt.Errorf("failed to parse model output as JSON: %w", err)
	}
	for {
		str, ok := value.(string)
		if !ok {
			return value, nil
		}
		var inner any
		if err := json.Unmarshal([]byte(str), &inner); err != nil {
			// A plain string that is not JSON is a contract violation.
			return nil, fmt.Errorf("%w: output is a bare string", ErrIntentFormat)
		}
		value = inner
	}
}

// stringify converts an extracted parameter value to a nullable string.
// JSON null stays nil; numbers and booleans are rendered via their JSON
// representation so ids survive extraction.
func stringify(value any) *string {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		return &v
	default:
		rendered, err := json.Marshal(v)
		if err != nil {
			return nil
		}
		s := string(rendered)
		return &s
	}
}
