package metadata

// GenerateRequest is the body of the generation endpoints. Exactly one of
// ImageURL and ImageData must be set.
type GenerateRequest struct {
	ImageURL  string `json:"image_url"`
	ImageData string `json:"image_data"`
	Format    string `json:"format"`
	Filename  string `json:"filename"`
	Property  string `json:"property"`
	Prompt    string `json:"prompt"`
}

// PromptRequest is the body of the prompt rule update endpoint.
type PromptRequest struct {
	Prompt string `json:"prompt" binding:"required"`
}

// StatusResponse reports service readiness.
type StatusResponse struct {
	Provider        string `json:"provider"`
	Configured      bool   `json:"configured"`
	FallbackEnabled bool   `json:"fallback_enabled"`
	StoreDriver     string `json:"store_driver"`
}
