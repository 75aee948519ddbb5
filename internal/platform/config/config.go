package config

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Provider ProviderConfig `yaml:"provider"`
	Fallback FallbackConfig `yaml:"fallback"`
	Image    ImageConfig    `yaml:"image"`
	Prompts  PromptsConfig  `yaml:"prompts"`
	Store    StoreConfig    `yaml:"prompt_store"`
}

type ServerConfig struct {
	IP    string `yaml:"ip"`
	Port  int    `yaml:"port"`
	Token string `yaml:"token"`
}

type LogConfig struct {
	Level string `yaml:"log_level"`
	Dir   string `yaml:"log_dir"`
	File  string `yaml:"log_file"`
}

// ProviderConfig describes the primary vision endpoint. The deployment-style
// URL scheme is {endpoint_base}/openai/deployments/{deployment_id}/chat/completions.
type ProviderConfig struct {
	EndpointBase   string `yaml:"endpoint_base"`
	DeploymentID   string `yaml:"deployment_id"`
	APIVersion     string `yaml:"api_version"`
	APIKey         string `yaml:"api_key"`
	ModelName      string `yaml:"model_name"`
	TimeoutMillis  int    `yaml:"timeout_ms"`
	RetryAttempts  int    `yaml:"retry_attempts"`
	FallbackPrompt string `yaml:"fallback_prompt"`
}

// FallbackConfig describes the secondary OpenAI-compatible endpoint used by
// combined generation.
type FallbackConfig struct {
	Enabled       bool   `yaml:"enabled"`
	BaseURL       string `yaml:"url"`
	APIKey        string `yaml:"api_key"`
	ModelName     string `yaml:"model_name"`
	TimeoutMillis int    `yaml:"timeout_ms"`
}

type ImageConfig struct {
	MaxFileSize    int64    `yaml:"max_file_size"`
	MaxWidth       int      `yaml:"max_width"`
	MaxHeight      int      `yaml:"max_height"`
	AllowedFormats []string `yaml:"allowed_formats"`
}

type PromptsConfig struct {
	GlobalDefault string           `yaml:"global_default"`
	Rules         []PromptRuleSeed `yaml:"rules"`
}

// PromptRuleSeed pre-populates the prompt store on first start.
type PromptRuleSeed struct {
	Property string `yaml:"property"`
	Prompt   string `yaml:"prompt"`
}

type StoreConfig struct {
	Driver string            `yaml:"driver"`
	Redis  RedisStoreConfig  `yaml:"redis,omitempty"`
	SQLite SQLiteStoreConfig `yaml:"sqlite,omitempty"`
}

type RedisStoreConfig struct {
	Addr     string `yaml:"addr"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
	Prefix   string `yaml:"prefix,omitempty"`
}

type SQLiteStoreConfig struct {
	DSN string `yaml:"dsn,omitempty"`
}
