package config

// Sample placeholder values shipped in the default configuration. The
// provider treats a config that still carries these as unconfigured and
// serves degraded responses instead of calling out.
const (
	SampleEndpointBase = "https://your-resource.openai.azure.com"
	SampleDeploymentID = "your-deployment"
)

// DefaultConfig returns the configuration used when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			IP:    "0.0.0.0",
			Port:  8080,
			Token: "",
		},
		Log: LogConfig{
			Level: "INFO",
			Dir:   "data/logs",
			File:  "server.log",
		},
		Provider: ProviderConfig{
			EndpointBase:  SampleEndpointBase,
			DeploymentID:  SampleDeploymentID,
			APIVersion:    "2024-02-01",
			APIKey:        "",
			ModelName:     "gpt-4o",
			TimeoutMillis: 30000,
			RetryAttempts: 3,
			FallbackPrompt: "Analyze this image and return a JSON object with the fields " +
				`"Title", "Description" and "Keywords". The title is at most 70 characters, ` +
				"the description is one or two sentences, and the keywords are a comma " +
				"separated list of at most 30 relevant terms. Return only the JSON object.",
		},
		Fallback: FallbackConfig{
			Enabled:       false,
			BaseURL:       "",
			APIKey:        "",
			ModelName:     "gpt-4o-mini",
			TimeoutMillis: 30000,
		},
		Image: ImageConfig{
			MaxFileSize:    10 * 1024 * 1024,
			MaxWidth:       8192,
			MaxHeight:      8192,
			AllowedFormats: []string{"jpeg", "jpg", "png", "webp", "gif", "bmp"},
		},
		Prompts: PromptsConfig{
			GlobalDefault: "",
			Rules:         nil,
		},
		Store: StoreConfig{
			Driver: "memory",
			SQLite: SQLiteStoreConfig{
				DSN: "data/prompts.db",
			},
		},
	}
}
