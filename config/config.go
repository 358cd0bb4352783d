// Package config loads the widget service configuration from a YAML file
// with environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"roi-widget/service"
)

type Config struct {
	ListenAddr       string            `yaml:"listenAddr"`
	SubmitTimeout    time.Duration     `yaml:"submitTimeout"`
	FallbackEmail    string            `yaml:"fallbackEmail"`
	StrictValidation bool              `yaml:"strictValidation"`
	FieldMap         map[string]string `yaml:"fieldMap"`
	Page             Page              `yaml:"page"`
	CRM              CRM               `yaml:"crm"`
	Cache            Cache             `yaml:"cache"`
	RateLimit        RateLimit         `yaml:"rateLimit"`
}

type Page struct {
	URI  string `yaml:"uri"`
	Name string `yaml:"name"`
}

type CRM struct {
	BaseURL  string `yaml:"baseURL"`
	PortalID string `yaml:"portalID"`
	FormID   string `yaml:"formID"`
}

type Cache struct {
	RedisAddr string        `yaml:"redisAddr"`
	TTL       time.Duration `yaml:"ttl"`
}

type RateLimit struct {
	Capacity int           `yaml:"capacity"`
	Refill   time.Duration `yaml:"refill"`
}

func Default() Config {
	return Config{
		ListenAddr:    ":8080",
		SubmitTimeout: service.DefaultSubmitTimeout,
		FallbackEmail: service.DefaultFallbackEmail,
		Page:          Page{Name: "ROI Calculator"},
		Cache:         Cache{TTL: service.DefaultEstimateTTL},
		RateLimit:     RateLimit{Capacity: 5, Refill: time.Minute},
	}
}

// Load reads path over the defaults, then applies environment overrides.
// An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}
	cfg.applyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	set("ROI_LISTEN_ADDR", &c.ListenAddr)
	set("ROI_FALLBACK_EMAIL", &c.FallbackEmail)
	set("ROI_CRM_BASE_URL", &c.CRM.BaseURL)
	set("ROI_CRM_PORTAL_ID", &c.CRM.PortalID)
	set("ROI_CRM_FORM_ID", &c.CRM.FormID)
	set("ROI_REDIS_ADDR", &c.Cache.RedisAddr)
}

// CRMConfigured reports whether leads go to the CRM rather than a mail draft.
func (c Config) CRMConfigured() bool {
	return c.CRM.PortalID != "" && c.CRM.FormID != ""
}

func (c Config) Validate() error {
	var errs []string
	if c.ListenAddr == "" {
		errs = append(errs, "listenAddr is required")
	}
	if c.SubmitTimeout <= 0 || c.SubmitTimeout > service.MaxSubmitTimeout {
		errs = append(errs, fmt.Sprintf("submitTimeout must be in (0, %s]", service.MaxSubmitTimeout))
	}
	if !strings.Contains(c.FallbackEmail, "@") {
		errs = append(errs, "fallbackEmail must be an email address")
	}
	if (c.CRM.PortalID == "") != (c.CRM.FormID == "") {
		errs = append(errs, "crm.portalID and crm.formID must be set together")
	}
	if c.RateLimit.Capacity <= 0 || c.RateLimit.Refill <= 0 {
		errs = append(errs, "rateLimit capacity and refill must be positive")
	}
	if c.Cache.TTL < 0 {
		errs = append(errs, "cache.ttl must not be negative")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}
