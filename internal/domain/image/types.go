package image

import "fmt"

// Ref points at the subject image: either a fetchable URL or inline
// base64-encoded bytes with a format hint.
type Ref struct {
	URL    string
	Data   string
	Format string
}

// IsInline reports whether the reference carries inline image bytes.
func (r Ref) IsInline() bool {
	return r.Data != ""
}

// PayloadURL renders the reference in the form vision endpoints accept:
// the raw URL, or a data URL for inline bytes.
func (r Ref) PayloadURL() string {
	if r.URL != "" {
		return r.URL
	}
	format := r.Format
	if format == "" {
		format = "jpeg"
	}
	return fmt.Sprintf("data:image/%s;base64,%s", format, r.Data)
}

// Info describes the subject image. Supplied per call, never persisted.
type Info struct {
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Format    string `json:"format"`
	SizeBytes int64  `json:"size_bytes"`
	Filename  string `json:"filename"`
}
