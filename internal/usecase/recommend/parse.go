package recommend

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// selection is one model-chosen candidate.
type selection struct {
	id        string
	rationale string
}

var (
	errMalformed = errors.New("malformed model output")
	errNoValid   = errors.New("no valid identifiers in model output")
)

// parseSelection extracts the ordered identifiers from raw model output.
// Identifiers outside allowed are dropped and counted, duplicates keep their
// first position, and the result is cut to maxResults.
func parseSelection(raw string, allowed map[string]struct{}, maxResults int) ([]selection, int, error) {
	items, err := decodeItems(extractJSON(raw))
	if err != nil {
		return nil, 0, err
	}

	out := make([]selection, 0, min(len(items), maxResults))
	seen := make(map[string]struct{}, len(items))
	dropped := 0
	for _, it := range items {
		if it.id == "" {
			continue
		}
		if _, ok := allowed[it.id]; !ok {
			dropped++
			continue
		}
		if _, dup := seen[it.id]; dup {
			continue
		}
		seen[it.id] = struct{}{}
		if len(out) < maxResults {
			out = append(out, it)
		}
	}
	if len(out) == 0 {
		return nil, dropped, errNoValid
	}
	return out, dropped, nil
}

// decodeItems accepts {"recommendations":[...]} or a bare array; elements
// are objects or plain id strings.
func decodeItems(payload string) ([]selection, error) {
	var rawItems []json.RawMessage

	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(payload), &obj); err == nil {
		list, ok := firstKey(obj, "recommendations", "recommended_assessments", "results")
		if !ok {
			return nil, fmt.Errorf("%w: object has no recommendations array", errMalformed)
		}
		if err := json.Unmarshal(list, &rawItems); err != nil {
			return nil, fmt.Errorf("%w: recommendations is not an array: %w", errMalformed, err)
		}
	} else if err := json.Unmarshal([]byte(payload), &rawItems); err != nil {
		return nil, fmt.Errorf("%w: %w", errMalformed, err)
	}

	items := make([]selection, 0, len(rawItems))
	for _, ri := range rawItems {
		var id string
		if err := json.Unmarshal(ri, &id); err == nil {
			items = append(items, selection{id: strings.TrimSpace(id)})
			continue
		}
		var fields map[string]any
		if err := json.Unmarshal(ri, &fields); err != nil {
			continue
		}
		items = append(items, selection{
			id:        coerceString(firstOf(fields, "id", "identifier", "assessment_id", "url")),
			rationale: coerceString(firstOf(fields, "rationale", "reason", "justification")),
		})
	}
	return items, nil
}

func firstKey(obj map[string]json.RawMessage, keys ...string) (json.RawMessage, bool) {
	for _, k := range keys {
		if v, ok := obj[k]; ok {
			return v, true
		}
	}
	return nil, false
}

func firstOf(fields map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := fields[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strings.TrimSpace(fmt.Sprintf("%v", val))
	default:
		return ""
	}
}

// extractJSON strips a ```json fence, or any prose around the outermost JSON value.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if start := strings.Index(raw, "```"); start != -1 {
		body := raw[start+3:]
		body = strings.TrimPrefix(body, "json")
		body = strings.TrimPrefix(body, "JSON")
		if end := strings.Index(body, "```"); end != -1 {
			body = body[:end]
		}
		return strings.TrimSpace(body)
	}
	if json.Valid([]byte(raw)) {
		return raw
	}
	// модель иногда добавляет текст до и после JSON
	if i, j := strings.IndexAny(raw, "{["), strings.LastIndexAny(raw, "}]"); i != -1 && j > i {
		return raw[i : j+1]
	}
	return raw
}
