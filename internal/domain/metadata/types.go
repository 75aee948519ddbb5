package metadata

import (
	"context"
	"strings"
	"time"

	"imagemeta-server-go/internal/domain/image"
)

// Tag identifies which branch of the pipeline produced a record.
type Tag string

const (
	TagPrimary  Tag = "primary"
	TagFallback Tag = "fallback"
	TagError    Tag = "error"
	TagDefault  Tag = "default"
)

// PromptRule binds a metadata property to the instruction text used to
// generate it. Property names are unique within the active set.
type PromptRule struct {
	Property string `json:"property" yaml:"property"`
	Prompt   string `json:"prompt" yaml:"prompt"`
}

// Record is the normalized output of a generation call. Every call, failed
// or not, yields exactly one Record.
type Record struct {
	Title                string            `json:"title,omitempty"`
	Description          string            `json:"description,omitempty"`
	Tags                 string            `json:"tags,omitempty"`
	Properties           map[string]string `json:"properties,omitempty"`
	Confidence           *float64          `json:"confidence,omitempty"`
	ProcessingTimeMillis *int64            `json:"processing_time_ms,omitempty"`
	Provider             Tag               `json:"provider"`
	Error                string            `json:"error,omitempty"`
	GeneratedAt          time.Time         `json:"generated_at"`
}

// SetProperty routes a value to the typed field for the known properties
// and into the Properties map for everything else.
func (r *Record) SetProperty(name, value string) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "title":
		r.Title = value
	case "description":
		r.Description = value
	case "tags", "keywords":
		r.Tags = value
	default:
		if r.Properties == nil {
			r.Properties = make(map[string]string)
		}
		r.Properties[name] = value
	}
}

// Property reads a value back by name, consulting typed fields first.
func (r *Record) Property(name string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "title":
		return r.Title, r.Title != ""
	case "description":
		return r.Description, r.Description != ""
	case "tags", "keywords":
		return r.Tags, r.Tags != ""
	default:
		value, ok := r.Properties[name]
		return value, ok
	}
}

// Combined pairs the results of the two independent branches of
// GenerateCombined.
type Combined struct {
	Primary   Record `json:"primary"`
	Secondary Record `json:"secondary"`
}

// Completion is the raw outcome of a provider call before parsing. Content
// holds the extracted message text (possibly empty), Raw the serialized
// response body. Degraded marks a canned response produced without network
// I/O because the provider is not configured.
type Completion struct {
	Content  string
	Raw      string
	Degraded bool
}

// Provider is a vision completion backend. Implementations own all network
// I/O and must honor context cancellation.
type Provider interface {
	Name() string
	Tag() Tag
	Complete(ctx context.Context, prompt string, ref image.Ref) (*Completion, error)
}
