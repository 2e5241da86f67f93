// Package config provides configuration loading and validation for
// ETaPprover. The file is read once at startup; every consumer receives an
// immutable value.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Default configuration constants.
const (
	DefaultSMTPHost  = "localhost"
	DefaultSMTPPort  = 25
	DefaultFromEmail = "etp-admin@lists.kit.edu"
	DefaultToEmail   = "webadmin@etp.kit.edu"
)

// Config holds the complete application configuration.
type Config struct {
	Repository RepositoryConfig `yaml:"repository" validate:"required"`
	Mattermost MattermostConfig `yaml:"mattermost"`
	SMTP       SMTPConfig       `yaml:"smtp"`
	Notify     NotifyConfig     `yaml:"notify" validate:"required"`
}

// RepositoryConfig holds the thesis-repository login settings.
type RepositoryConfig struct {
	BaseURL  string `yaml:"base_url" validate:"required,url"`
	Email    string `yaml:"email" validate:"required,email"`
	Password string `yaml:"password" validate:"required"`
}

// MattermostConfig holds the messaging-platform settings. An empty APIURL
// disables Mattermost notifications (and username verification) entirely;
// the email path still runs.
type MattermostConfig struct {
	APIURL string `yaml:"api_url" validate:"omitempty,url"`
	Token  string `yaml:"token" validate:"required_with=APIURL"`

	// InsecureSkipVerify accepts self-signed certificates, which the
	// institute's deployment uses.
	InsecureSkipVerify bool `yaml:"insecure_skip_verify"`
}

// Enabled reports whether Mattermost notifications are configured.
func (c MattermostConfig) Enabled() bool { return c.APIURL != "" }

// SMTPConfig holds the outgoing-mail settings. User and Password are
// optional; when set, plain authentication is used.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port" validate:"omitempty,min=1,max=65535"`
	From     string `yaml:"from" validate:"omitempty,email"`
	To       string `yaml:"to" validate:"omitempty,email"`
	UseTLS   bool   `yaml:"use_tls"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// Addr returns the host:port dial address.
func (c SMTPConfig) Addr() string { return fmt.Sprintf("%s:%d", c.Host, c.Port) }

// NotifyConfig holds the routing rules: who the webadmin is, which academic
// levels get Mattermost notifications, and the manual username overrides.
type NotifyConfig struct {
	// Webadmin is the Mattermost account copied into every supervisor
	// notification and every author permission request.
	Webadmin string `yaml:"webadmin" validate:"required,lowercase"`

	// EligibleLevels are matched as lowercase substrings of a submission's
	// academic level ("bachelor" matches "Bachelor Thesis").
	EligibleLevels []string `yaml:"eligible_levels" validate:"required,min=1,dive,required"`

	// Overrides maps a normalized name token to a known-correct username,
	// for people whose account does not follow any derivation pattern.
	Overrides map[string]string `yaml:"overrides" validate:"omitempty,dive,required"`
}

// Eligible reports whether a submission with the given academic level gets
// the Mattermost notification path.
func (c NotifyConfig) Eligible(level string) bool {
	lower := strings.ToLower(level)
	for _, want := range c.EligibleLevels {
		if strings.Contains(lower, strings.ToLower(want)) {
			return true
		}
	}
	return false
}

// Load reads, defaults and validates the YAML configuration at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates raw YAML configuration.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.SMTP.Host == "" {
		c.SMTP.Host = DefaultSMTPHost
	}
	if c.SMTP.Port == 0 {
		c.SMTP.Port = DefaultSMTPPort
	}
	if c.SMTP.From == "" {
		c.SMTP.From = DefaultFromEmail
	}
	if c.SMTP.To == "" {
		c.SMTP.To = DefaultToEmail
	}
}
