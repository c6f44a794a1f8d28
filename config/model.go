package config

import (
	"fmt"
	"strings"
)

type Config struct {
	LogLevel string `mapstructure:"LogLevel"`
	// Interval in seconds between cycles, 0 runs once.
	Interval int    `mapstructure:"Interval"`
	Cron     string `mapstructure:"Cron"`
	// Timeout in seconds applied to every network call.
	Timeout int `mapstructure:"Timeout"`

	Domain   string `mapstructure:"Domain"`
	Hostname string `mapstructure:"Hostname"`
	FQDN     string `mapstructure:"FQDN"`
	// TTL in seconds, 0 leaves the provider default.
	TTL int `mapstructure:"TTL"`

	IPv4 *Family `mapstructure:"IPv4"`
	IPv6 *Family `mapstructure:"IPv6"`

	DryRun          bool `mapstructure:"DryRun"`
	ContinueOnError bool `mapstructure:"ContinueOnError"`

	DDNS    *DDNS    `mapstructure:"DDNS"`
	Notify  *Notify  `mapstructure:"Notify"`
	Metrics *Metrics `mapstructure:"Metrics"`
}

type Family struct {
	Disable Bool   `mapstructure:"Disable"`
	Address string `mapstructure:"Address"`
	URL     string `mapstructure:"URL"`
}

type DDNS struct {
	Provider string            `mapstructure:"Provider"`
	Config   map[string]string `mapstructure:"Config"`
}

type Notify struct {
	Enable   bool              `mapstructure:"Enable"`
	Provider string            `mapstructure:"Provider"`
	Config   map[string]string `mapstructure:"Config"`
}

type Metrics struct {
	Address string `mapstructure:"Address"`
}

// Bool accepts the usual yes/no spellings found in environment variables.
type Bool bool

func (b *Bool) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "y", "yes", "t", "true", "on", "1":
		*b = true
	case "n", "no", "f", "false", "off", "0", "":
		*b = false
	default:
		return fmt.Errorf("invalid boolean %q", text)
	}
	return nil
}

// ConfigError reports a setting that prevents the service from starting.
type ConfigError struct {
	Key string
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %v", e.Key, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
