// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package llm

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Models sometimes wrap JSON in markdown fences despite the response MIME
// type, and sometimes add prose around it. parseResponse digs the object
// out before decoding.

var fencedJSONPattern = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// parseResponse decodes a model reply into a Response. It accepts a bare
// JSON object, a fenced block, or an object embedded in prose. Returns
// ErrInvalidJSON when no object can be decoded.
func parseResponse(text string) (*Response, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrInvalidJSON
	}

	candidates := make([]string, 0, 3)
	candidates = append(candidates, text)
	if m := fencedJSONPattern.FindStringSubmatch(text); m != nil {
		candidates = append(candidates, m[1])
	}
	if start, end := strings.Index(text, "{"), strings.LastIndex(text, "}"); start >= 0 && end > start {
		candidates = append(candidates, text[start:end+1])
	}

	for _, candidate := range candidates {
		var resp Response
		if err := json.Unmarshal([]byte(candidate), &resp); err == nil && resp.Reply != "" {
			pruneExtracted(resp.Extracted)
			return &resp, nil
		}
	}
	return nil, ErrInvalidJSON
}

// pruneExtracted drops the zero placeholders models echo back from the
// schema example, so they do not overwrite real values on merge.
func pruneExtracted(extracted map[string]any) {
	for key, value := range extracted {
		switch v := value.(type) {
		case string:
			if strings.TrimSpace(v) == "" {
				delete(extracted, key)
			}
		case float64:
			if v == 0 {
				delete(extracted, key)
			}
		case []any:
			if len(v) == 0 {
				delete(extracted, key)
			}
		case nil:
			delete(extracted, key)
		}
	}
}
