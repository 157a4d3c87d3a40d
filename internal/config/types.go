package config

// StoreType selects the persistence backend for the moderation queue.
type StoreType string

const (
	StoreSQLite StoreType = "sqlite"
	StoreFile   StoreType = "file"
)

// LogFormat selects the zap encoder.
type LogFormat string

const (
	LogFormatJSON    LogFormat = "json"
	LogFormatConsole LogFormat = "console"
)

// Config is the top-level modguard configuration, corresponding to .modguard.yml.
type Config struct {
	DataDir          string          `yaml:"data_dir" koanf:"data_dir"`
	Store            StoreType       `yaml:"store" koanf:"store"`
	LogLevel         string          `yaml:"log_level" koanf:"log_level"`
	LogFormat        LogFormat       `yaml:"log_format" koanf:"log_format"`
	MaxContentLength int             `yaml:"max_content_length" koanf:"max_content_length"`
	DefaultAdmin     string          `yaml:"default_admin" koanf:"default_admin"`
	Server           ServerConfig    `yaml:"server" koanf:"server"`
	Webhooks         []WebhookConfig `yaml:"webhooks,omitempty" koanf:"webhooks"`
}

// ServerConfig holds settings for the HTTP server.
type ServerConfig struct {
	Port            int  `yaml:"port" koanf:"port"`
	AllowAllOrigins bool `yaml:"allow_all_origins" koanf:"allow_all_origins"`
}

// WebhookConfig subscribes a URL to queue events. MinSeverity is Low, Medium
// or High; Events lists flagged and/or reviewed. Empty fields match everything.
type WebhookConfig struct {
	URL         string   `yaml:"url" koanf:"url"`
	MinSeverity string   `yaml:"min_severity,omitempty" koanf:"min_severity"`
	Events      []string `yaml:"events,omitempty" koanf:"events"`
}
