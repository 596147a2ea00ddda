package config

import "time"

type Duration struct {
	Duration time.Duration
}

type HTTPConfig struct {
	Addr              string   `yaml:"addr"`
	ReadHeaderTimeout Duration `yaml:"read_header_timeout"`
	IdleTimeout       Duration `yaml:"idle_timeout"`
	ShutdownTimeout   Duration `yaml:"shutdown_timeout"`
	MaxRequestBytes   int64    `yaml:"max_request_bytes"`

	// AllowedOrigins feeds the CORS middleware. Empty allows any origin, without credentials.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type OpenAIConfig struct {
	// APIKey may be empty at load time; requests then fail with missing_configuration.
	APIKey  string   `yaml:"api_key"`
	BaseURL string   `yaml:"base_url"`
	Model   string   `yaml:"model"`
	Timeout Duration `yaml:"timeout"`
}

type DocumentConfig struct {
	FetchTimeout Duration `yaml:"fetch_timeout"`
	MaxBytes     int64    `yaml:"max_bytes"`
	MaxPages     int      `yaml:"max_pages"`
	MaxChars     int      `yaml:"max_chars"`

	// GCSEnabled allows gs://bucket/object sources, read with application default credentials.
	GCSEnabled bool `yaml:"gcs_enabled"`
}

type ObservabilityConfig struct {
	ServiceName    string `yaml:"service_name"`
	MetricsEnabled bool   `yaml:"metrics_enabled"`

	OTelEnabled     bool              `yaml:"otel_enabled"`
	OTelEndpoint    string            `yaml:"otel_endpoint"`
	OTelInsecure    bool              `yaml:"otel_insecure"`
	OTelHeaders     map[string]string `yaml:"otel_headers"`
	OTelSampleRatio float64           `yaml:"otel_sample_ratio"`

	LogRedaction bool   `yaml:"log_redaction"`
	LogHashSalt  string `yaml:"log_hash_salt"`
}

type Config struct {
	Env           string              `yaml:"env"`
	HTTP          HTTPConfig          `yaml:"http"`
	OpenAI        OpenAIConfig        `yaml:"openai"`
	Document      DocumentConfig      `yaml:"document"`
	Observability ObservabilityConfig `yaml:"observability"`
}

const (
	DefaultModel   = "gpt-4o-mini"
	DefaultBaseURL = "https://api.openai.com"
)
