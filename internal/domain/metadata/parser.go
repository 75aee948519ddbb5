package metadata

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"
)

var whitespaceRE = regexp.MustCompile(`\s+`)

// sanitize trims a string and collapses internal whitespace runs.
func sanitize(s string) string {
	return strings.TrimSpace(whitespaceRE.ReplaceAllString(s, " "))
}

var codeFenceRE = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")

// stripCodeFence removes surrounding markdown code-fence markers, with or
// without a language tag. Content without a fence passes through unchanged.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if matches := codeFenceRE.FindStringSubmatch(s); matches != nil {
		return matches[1]
	}
	return s
}

// ParseResponse normalizes provider output into a Record. Three shapes are
// tolerated, in order: no content at all (every active property receives a
// placeholder embedding the raw response), structured JSON (known keys are
// mapped case-insensitively), and free text (the whole sanitized content
// fills every active property). It never fails.
func ParseResponse(content, raw string, provider Tag, activeProperties []string) Record {
	record := Record{
		Provider:    provider,
		GeneratedAt: time.Now(),
	}

	active := make([]string, 0, len(activeProperties))
	for _, property := range activeProperties {
		if trimmed := strings.TrimSpace(property); trimmed != "" {
			active = append(active, trimmed)
		}
	}
	if len(active) == 0 {
		active = []string{"description"}
	}

	if strings.TrimSpace(content) == "" {
		placeholder := fmt.Sprintf("No content in provider response. Raw response: %s", sanitize(raw))
		for _, property := range active {
			record.SetProperty(property, placeholder)
		}
		return record
	}

	stripped := stripCodeFence(content)

	var payload map[string]any
	if err := json.Unmarshal([]byte(stripped), &payload); err == nil && payload != nil {
		fields := make(map[string]string, len(payload))
		for key, value := range payload {
			fields[strings.ToLower(key)] = coerceValue(value)
		}

		if title, ok := fields["title"]; ok {
			record.Title = title
		}
		if description, ok := fields["description"]; ok {
			record.Description = description
		}
		if tags, ok := fields["keywords"]; ok {
			record.Tags = tags
		} else if tags, ok := fields["tags"]; ok {
			record.Tags = tags
		}

		for _, property := range active {
			if value, ok := fields[strings.ToLower(property)]; ok {
				record.SetProperty(property, value)
			}
		}
		return record
	}

	// Not JSON: the model answered in prose, keep it rather than drop it.
	text := sanitize(content)
	for _, property := range active {
		record.SetProperty(property, text)
	}
	return record
}

// coerceValue flattens JSON values into sanitized display strings. Keyword
// lists arrive either as comma strings or arrays depending on the model.
func coerceValue(value any) string {
	switch typed := value.(type) {
	case string:
		return sanitize(typed)
	case []any:
		parts := make([]string, 0, len(typed))
		for _, item := range typed {
			if s := coerceValue(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	case nil:
		return ""
	default:
		return sanitize(fmt.Sprint(typed))
	}
}
