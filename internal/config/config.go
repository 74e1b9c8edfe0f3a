package config

import (
	"os"
	"strings"

	"llm-bridge/internal/adapter"
	"llm-bridge/internal/canonical"
)

// Config is the process configuration, read once from the environment.
// Vendor API keys are deliberately not required at boot: a missing key
// surfaces per call as a configuration error, so one unconfigured
// vendor does not take down the other two.
type Config struct {
	HTTPAddr           string
	CORSAllowedOrigins []string
	Vendors            map[canonical.Vendor]VendorConfig
}

type VendorConfig struct {
	APIKey  string
	BaseURL string
}

func FromEnv() Config {
	return Config{
		HTTPAddr:           getenvDefault("HTTP_ADDR", ":8080"),
		CORSAllowedOrigins: corsOrigins(os.Getenv("CORS_ALLOWED_ORIGINS")),
		Vendors: map[canonical.Vendor]VendorConfig{
			canonical.VendorOpenAI: {
				APIKey:  strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
				BaseURL: getenvDefault("OPENAI_BASE_URL", ""),
			},
			canonical.VendorAnthropic: {
				APIKey:  strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY")),
				BaseURL: getenvDefault("ANTHROPIC_BASE_URL", ""),
			},
			canonical.VendorGoogle: {
				APIKey:  strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
				BaseURL: getenvDefault("GEMINI_BASE_URL", ""),
			},
		},
	}
}

// Credentials implements dispatch.CredentialSource.
func (c Config) Credentials(v canonical.Vendor) (adapter.Credentials, bool) {
	vc, ok := c.Vendors[v]
	if !ok || vc.APIKey == "" {
		return adapter.Credentials{}, false
	}
	return adapter.Credentials{APIKey: vc.APIKey, BaseURL: vc.BaseURL}, true
}

func getenvDefault(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func corsOrigins(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
