package followup

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kursadbilgin/dining-desk/internal/domain"
)

// ParseResult is either a list of records or a failure that keeps the raw model text.
type ParseResult struct {
	Records []domain.FollowUp
	Raw     string
	Err     error
}

func (r ParseResult) OK() bool {
	return r.Err == nil
}

// ParseFollowUps interprets model output as a JSON array of follow-up objects.
func ParseFollowUps(raw string) ParseResult {
	trimmed := strings.TrimSpace(raw)

	items, err := decodeArray(trimmed)
	if err != nil {
		if candidate, ok := extractArray(trimmed); ok {
			if fallback, fallbackErr := decodeArray(candidate); fallbackErr == nil {
				items, err = fallback, nil
			}
		}
	}
	if err != nil {
		return ParseResult{
			Raw: raw,
			Err: fmt.Errorf("%w: %v", domain.ErrParse, err),
		}
	}

	records := make([]domain.FollowUp, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		records = append(records, domain.FollowUp{
			Name:        stringField(obj, "Name"),
			Reservation: stringField(obj, "Reservation"),
			Reason:      stringField(obj, "Reason"),
		})
	}

	return ParseResult{Records: records, Raw: raw}
}

func decodeArray(text string) ([]any, error) {
	if !strings.HasPrefix(text, "[") {
		return nil, fmt.Errorf("expected a JSON array")
	}

	decoder := json.NewDecoder(strings.NewReader(text))
	decoder.UseNumber()

	var items []any
	if err := decoder.Decode(&items); err != nil {
		return nil, err
	}
	if decoder.More() {
		return nil, fmt.Errorf("unexpected data after JSON array")
	}
	return items, nil
}

// extractArray drops markdown code fences and keeps the outermost [...] region.
func extractArray(text string) (string, bool) {
	var b bytes.Buffer
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}

	cleaned := b.String()
	start := strings.Index(cleaned, "[")
	end := strings.LastIndex(cleaned, "]")
	if start < 0 || end <= start {
		return "", false
	}
	return cleaned[start : end+1], true
}

func stringField(obj map[string]any, key string) string {
	switch v := obj[key].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
