package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoJSONObject is returned when a model reply contains no JSON object.
var ErrNoJSONObject = errors.New("no JSON object in response")

// ExtractJSONObject strips markdown fences and surrounding prose from a model
// reply and returns the outermost {...} span.
func ExtractJSONObject(raw string) (string, error) {
	clean := strings.TrimSpace(raw)
	if rest, ok := strings.CutPrefix(clean, "```json"); ok {
		clean = rest
	} else if rest, ok := strings.CutPrefix(clean, "```"); ok {
		clean = rest
	}
	clean = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(clean), "```"))

	start := strings.Index(clean, "{")
	end := strings.LastIndex(clean, "}")
	if start < 0 || end <= start {
		return "", ErrNoJSONObject
	}
	return clean[start : end+1], nil
}

// DecodeJSON extracts the JSON object from raw and unmarshals it into v.
func DecodeJSON(raw string, v any) error {
	obj, err := ExtractJSONObject(raw)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(obj), v); err != nil {
		return fmt.Errorf("failed to parse model output: %w", err)
	}
	return nil
}
