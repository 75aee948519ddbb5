package metadata

import (
	"fmt"
	"strings"
)

// genericPromptFormat is the last-resort instruction synthesized for a
// property nobody declared a prompt for.
const genericPromptFormat = "Analyze this image and provide relevant %s information. Return only that text."

// defaultGlobalPrompt asks for the full structured record in one call.
const defaultGlobalPrompt = "Analyze this image and return a JSON object with the fields " +
	`"Title", "Description" and "Keywords". The title is at most 70 characters, ` +
	"the description is one or two sentences, and the keywords are a comma " +
	"separated list of at most 30 relevant terms. Return only the JSON object."

// BuiltinPrompts returns the per-property default instructions shipped with
// the service. Lookup is case-insensitive.
func BuiltinPrompts() map[string]string {
	return map[string]string{
		"title":       "Analyze this image and write a concise, descriptive title of at most 70 characters. Return only the title text.",
		"description": "Analyze this image and write a one or two sentence description of its content. Return only the description text.",
		"keywords":    "Analyze this image and list up to 30 relevant keywords as a single comma separated line. Return only the keywords.",
		"tags":        "Analyze this image and list up to 30 relevant keywords as a single comma separated line. Return only the keywords.",
	}
}

// Resolve picks the instruction text for a property. First match wins:
// explicit override, the stored rule for the property, the built-in default
// (case-insensitive), the global default when no property is requested, and
// finally a synthesized generic instruction. Always returns non-empty text.
func Resolve(property, override string, rules []PromptRule, globalDefault string, builtins map[string]string) string {
	if text := strings.TrimSpace(override); text != "" {
		return text
	}

	property = strings.TrimSpace(property)
	if property != "" {
		for _, rule := range rules {
			if rule.Property == property && strings.TrimSpace(rule.Prompt) != "" {
				return strings.TrimSpace(rule.Prompt)
			}
		}
		for name, text := range builtins {
			if strings.EqualFold(name, property) && strings.TrimSpace(text) != "" {
				return strings.TrimSpace(text)
			}
		}
		return fmt.Sprintf(genericPromptFormat, property)
	}

	if text := strings.TrimSpace(globalDefault); text != "" {
		return text
	}
	return defaultGlobalPrompt
}
