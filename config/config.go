package config

import (
	"errors"
	"fmt"
	"net/netip"
	"net/url"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"golang.org/x/net/publicsuffix"

	"github.com/Septrum101/linodeDdns/app/ip"
)

const (
	DefaultTTL      = 300
	DefaultTimeout  = 15
	DefaultProvider = "linode"
)

// envBindings maps config keys to the environment variables that set them.
var envBindings = map[string]string{
	"loglevel":                         "LOG_LEVEL",
	"interval":                         "LINODE_DNS_INTERVAL",
	"domain":                           "LINODE_DNS_DOMAIN",
	"hostname":                         "LINODE_DNS_HOSTNAME",
	"fqdn":                             "LINODE_DNS_FQDN",
	"ttl":                              "LINODE_DNS_TTL",
	"ipv4.disable":                     "DISABLE_IPV4",
	"ipv6.disable":                     "DISABLE_IPV6",
	"ipv4.url":                         "IPV4_URL",
	"ipv6.url":                         "IPV6_URL",
	"ipv4.address":                     "IPV4_ADDRESS",
	"ipv6.address":                     "IPV6_ADDRESS",
	"ddns.provider":                    "DDNS_PROVIDER",
	"ddns.config.linode_access_token":  "LINODE_ACCESS_TOKEN",
	"ddns.config.cloudflare_api_token": "CLOUDFLARE_API_TOKEN",
}

// GetConfig prepares a viper instance with defaults and environment bindings
// and reads the config file. An empty path searches the default locations, in
// which case a missing file is not an error.
func GetConfig(path string) (*viper.Viper, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/" + AppName)
		v.AddConfigPath("$HOME/." + AppName)
	}

	v.SetDefault("loglevel", "info")
	v.SetDefault("timeout", DefaultTimeout)
	v.SetDefault("ttl", DefaultTTL)
	v.SetDefault("ipv4.url", ip.DefaultIPv4URL)
	v.SetDefault("ipv6.url", ip.DefaultIPv6URL)
	v.SetDefault("ddns.provider", DefaultProvider)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, &ConfigError{Key: "file", Err: err}
		}
		log.Debug("No config file found, using environment")
	} else {
		log.Debugf("Using config file %s", v.ConfigFileUsed())
	}

	return v, nil
}

// Unmarshal decodes and validates the current viper settings.
func Unmarshal(v *viper.Viper) (*Config, error) {
	c := new(Config)
	if err := v.Unmarshal(c, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
	))); err != nil {
		return nil, &ConfigError{Key: "file", Err: err}
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate fills defaults and rejects settings that cannot work. It performs
// no network activity.
func (c *Config) Validate() error {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return &ConfigError{Key: "LogLevel", Err: err}
	}

	if c.FQDN != "" {
		if c.Domain != "" || c.Hostname != "" {
			return &ConfigError{Key: "FQDN", Err: errors.New("cannot be combined with Domain or Hostname")}
		}
		domain, host, err := SplitFQDN(c.FQDN)
		if err != nil {
			return &ConfigError{Key: "FQDN", Err: err}
		}
		c.Domain, c.Hostname = domain, host
	}
	c.Domain = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(c.Domain)), ".")
	c.Hostname = strings.ToLower(strings.TrimSpace(c.Hostname))
	if c.Domain == "" {
		return &ConfigError{Key: "Domain", Err: errors.New("required")}
	}

	if c.TTL < 0 {
		return &ConfigError{Key: "TTL", Err: fmt.Errorf("%d is negative", c.TTL)}
	}
	if c.Interval < 0 {
		return &ConfigError{Key: "Interval", Err: fmt.Errorf("%d is negative", c.Interval)}
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Cron != "" {
		if _, err := cron.ParseStandard(c.Cron); err != nil {
			return &ConfigError{Key: "Cron", Err: err}
		}
	}

	if c.DDNS == nil {
		c.DDNS = &DDNS{}
	}
	if c.DDNS.Config == nil {
		c.DDNS.Config = make(map[string]string)
	}
	c.DDNS.Provider = strings.ToLower(c.DDNS.Provider)
	switch c.DDNS.Provider {
	case "":
		c.DDNS.Provider = DefaultProvider
		fallthrough
	case "linode":
		if c.DDNS.Config[strings.ToLower("LINODE_ACCESS_TOKEN")] == "" {
			return &ConfigError{Key: "LINODE_ACCESS_TOKEN", Err: errors.New("required")}
		}
	case "cloudflare", "route53":
	default:
		return &ConfigError{Key: "DDNS.Provider", Err: fmt.Errorf("unsupported provider %q", c.DDNS.Provider)}
	}

	if c.IPv4 == nil {
		c.IPv4 = new(Family)
	}
	if c.IPv6 == nil {
		c.IPv6 = new(Family)
	}
	if err := c.IPv4.validate(ip.IPv4); err != nil {
		return err
	}
	if err := c.IPv6.validate(ip.IPv6); err != nil {
		return err
	}

	if c.Notify != nil && c.Notify.Enable {
		switch c.Notify.Provider {
		case "pushplus", "telegram":
		default:
			return &ConfigError{Key: "Notify.Provider", Err: fmt.Errorf("unsupported provider %q", c.Notify.Provider)}
		}
	}

	return nil
}

func (f *Family) validate(family ip.Family) error {
	key := family.String()

	if f.Address != "" {
		addr, err := netip.ParseAddr(strings.TrimSpace(f.Address))
		if err != nil {
			return &ConfigError{Key: key + ".Address", Err: err}
		}
		if !family.Match(addr) {
			return &ConfigError{Key: key + ".Address", Err: fmt.Errorf("%s is not an %s address", addr, family)}
		}
	}

	if f.URL == "" {
		f.URL = family.DefaultURL()
	}
	u, err := url.Parse(f.URL)
	if err != nil {
		return &ConfigError{Key: key + ".URL", Err: err}
	}
	switch u.Scheme {
	case "http", "https", "dns":
	default:
		return &ConfigError{Key: key + ".URL", Err: fmt.Errorf("unsupported scheme %q", u.Scheme)}
	}
	return nil
}

// Override returns the static address of the family, or the zero Addr when
// none is configured.
func (f *Family) Override() netip.Addr {
	addr, err := netip.ParseAddr(strings.TrimSpace(f.Address))
	if err != nil {
		return netip.Addr{}
	}
	return addr
}

// SplitFQDN separates a fully qualified name into its registrable domain and
// the host part below it. The apex yields an empty host.
func SplitFQDN(fqdn string) (domain string, host string, err error) {
	name := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(fqdn)), ".")
	domain, err = publicsuffix.EffectiveTLDPlusOne(name)
	if err != nil {
		return "", "", err
	}
	if name == domain {
		return domain, "", nil
	}
	return domain, strings.TrimSuffix(name, "."+domain), nil
}
