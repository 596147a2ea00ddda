package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	s := strings.TrimSpace(value.Value)
	if s == "" || s == "null" || s == "~" {
		d.Duration = 0
		return nil
	}
	dd, err := parseDuration(s)
	if err != nil {
		return err
	}
	d.Duration = dd
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// parseDuration accepts Go duration strings ("20s") or a bare integer number of seconds.
func parseDuration(s string) (time.Duration, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	dd, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("duration must be like \"5s\" or integer seconds: %w", err)
	}
	return dd, nil
}

func Default() *Config {
	return &Config{
		Env: "development",
		HTTP: HTTPConfig{
			Addr:              ":8080",
			ReadHeaderTimeout: Duration{Duration: 5 * time.Second},
			IdleTimeout:       Duration{Duration: 2 * time.Minute},
			ShutdownTimeout:   Duration{Duration: 15 * time.Second},
			MaxRequestBytes:   1 << 20,
		},
		OpenAI: OpenAIConfig{
			BaseURL: DefaultBaseURL,
			Model:   DefaultModel,
			Timeout: Duration{Duration: 60 * time.Second},
		},
		Document: DocumentConfig{
			FetchTimeout: Duration{Duration: 20 * time.Second},
			MaxBytes:     25 << 20,
			MaxPages:     40,
			MaxChars:     12000,
		},
		Observability: ObservabilityConfig{
			ServiceName:     "traitdial",
			MetricsEnabled:  true,
			OTelSampleRatio: 0.1,
			LogRedaction:    true,
		},
	}
}

// Load builds the process configuration from defaults, an optional YAML file
// (TRAITDIAL_CONFIG_PATH) and environment overrides.
func Load() (*Config, error) {
	return LoadWith(os.Getenv)
}

// LoadWith is Load with an injectable environment lookup.
func LoadWith(getenv func(string) string) (*Config, error) {
	cfg := Default()
	env := func(k string) string { return strings.TrimSpace(getenv(k)) }

	if p := env("TRAITDIAL_CONFIG_PATH"); p != "" {
		b, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", p, err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", p, err)
		}
	}

	if v := env("LOG_MODE"); v != "" {
		cfg.Env = v
	}
	if v := env("PORT"); v != "" {
		cfg.HTTP.Addr = ":" + strings.TrimPrefix(v, ":")
	}
	if v := env("HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := env("CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = splitList(v)
	}

	if v := env("OPENAI_API_KEY"); v != "" {
		cfg.OpenAI.APIKey = v
	}
	if v := env("OPENAI_BASE_URL"); v != "" {
		cfg.OpenAI.BaseURL = v
	}
	if v := env("OPENAI_MODEL"); v != "" {
		cfg.OpenAI.Model = v
	}

	var errs []error
	setDuration := func(key string, dst *Duration) {
		if v := env(key); v != "" {
			dd, err := parseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			dst.Duration = dd
		}
	}
	setInt := func(key string, dst *int) {
		if v := env(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	setDuration("OPENAI_TIMEOUT", &cfg.OpenAI.Timeout)
	setDuration("DOC_FETCH_TIMEOUT", &cfg.Document.FetchTimeout)
	setInt("DOC_MAX_PAGES", &cfg.Document.MaxPages)
	setInt("DOC_MAX_CHARS", &cfg.Document.MaxChars)
	if v := env("DOC_MAX_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("DOC_MAX_BYTES: %w", err))
		} else {
			cfg.Document.MaxBytes = n
		}
	}
	if v := env("GCS_FETCH_ENABLED"); v != "" {
		cfg.Document.GCSEnabled = parseBool(v)
	}

	if v := env("METRICS_ENABLED"); v != "" {
		cfg.Observability.MetricsEnabled = parseBool(v)
	}
	if v := env("OTEL_ENABLED"); v != "" {
		cfg.Observability.OTelEnabled = parseBool(v)
	}
	if v := env("OTEL_SERVICE_NAME"); v != "" {
		cfg.Observability.ServiceName = v
	}
	if v := env("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		cfg.Observability.OTelEndpoint = v
	}
	if v := env("OTEL_EXPORTER_OTLP_INSECURE"); v != "" {
		cfg.Observability.OTelInsecure = parseBool(v)
	}
	if v := env("OTEL_EXPORTER_OTLP_HEADERS"); v != "" {
		cfg.Observability.OTelHeaders = parseHeaders(v)
	}
	if v := env("OTEL_SAMPLER_RATIO"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("OTEL_SAMPLER_RATIO: %w", err))
		} else {
			cfg.Observability.OTelSampleRatio = f
		}
	}
	if v := env("LOG_REDACTION_ENABLED"); v != "" {
		cfg.Observability.LogRedaction = parseBool(v)
	}
	if v := env("LOG_HASH_SALT"); v != "" {
		cfg.Observability.LogHashSalt = v
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) normalize() {
	if strings.TrimSpace(c.Env) == "" {
		c.Env = "development"
	}
	if strings.TrimSpace(c.HTTP.Addr) == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.HTTP.MaxRequestBytes <= 0 {
		c.HTTP.MaxRequestBytes = 1 << 20
	}
	c.OpenAI.APIKey = strings.TrimSpace(c.OpenAI.APIKey)
	c.OpenAI.BaseURL = strings.TrimRight(strings.TrimSpace(c.OpenAI.BaseURL), "/")
	if c.OpenAI.BaseURL == "" {
		c.OpenAI.BaseURL = DefaultBaseURL
	}
	c.OpenAI.Model = strings.TrimSpace(c.OpenAI.Model)
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = DefaultModel
	}
	if c.Observability.OTelSampleRatio < 0 {
		c.Observability.OTelSampleRatio = 0
	}
	if c.Observability.OTelSampleRatio > 1 {
		c.Observability.OTelSampleRatio = 1
	}
}

func (c *Config) Validate() error {
	if c.OpenAI.Timeout.Duration < 0 {
		return errors.New("openai.timeout must not be negative")
	}
	if c.Document.FetchTimeout.Duration < 0 {
		return errors.New("document.fetch_timeout must not be negative")
	}
	if c.Document.MaxBytes <= 0 {
		return errors.New("document.max_bytes must be positive")
	}
	if c.Document.MaxPages <= 0 {
		return errors.New("document.max_pages must be positive")
	}
	if c.Document.MaxChars <= 0 {
		return errors.New("document.max_chars must be positive")
	}
	return nil
}

// HasCredentials reports whether the generation service can be called at all.
func (c *Config) HasCredentials() bool {
	return c != nil && strings.TrimSpace(c.OpenAI.APIKey) != ""
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "t", "true", "y", "yes", "on":
		return true
	default:
		return false
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseHeaders(raw string) map[string]string {
	headers := map[string]string{}
	for _, part := range strings.Split(raw, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		key := strings.TrimSpace(kv[0])
		val := strings.TrimSpace(kv[1])
		if key == "" || val == "" {
			continue
		}
		headers[key] = val
	}
	if len(headers) == 0 {
		return nil
	}
	return headers
}
