package controller

import (
	"fmt"
	"net/http"
	"time"

	cf "github.com/cloudflare/cloudflare-go"

	"github.com/Septrum101/linodeDdns/app/ip"
	"github.com/Septrum101/linodeDdns/app/reconcile"
	"github.com/Septrum101/linodeDdns/common/ddns"
	"github.com/Septrum101/linodeDdns/common/ddns/cloudflare"
	"github.com/Septrum101/linodeDdns/common/ddns/linode"
	"github.com/Septrum101/linodeDdns/common/ddns/route53"
	"github.com/Septrum101/linodeDdns/common/notify"
	"github.com/Septrum101/linodeDdns/common/notify/pushplus"
	"github.com/Septrum101/linodeDdns/common/notify/telegram"
	"github.com/Septrum101/linodeDdns/config"
)

func buildClient(c *config.Config) (ddns.Client, error) {
	timeout := time.Second * time.Duration(c.Timeout)

	var (
		ddnsCli ddns.Client
		err     error
	)
	switch c.DDNS.Provider {
	case "linode":
		ddnsCli, err = linode.New(c.DDNS.Config, timeout)
	case "cloudflare":
		ddnsCli, err = cloudflare.New(c.DDNS.Config, cf.HTTPClient(&http.Client{Timeout: timeout}))
	case "route53":
		ddnsCli, err = route53.New(c.DDNS.Config, timeout)
	default:
		err = fmt.Errorf("unsupported provider %q", c.DDNS.Provider)
	}
	if err != nil {
		return nil, &config.ConfigError{Key: "DDNS", Err: err}
	}

	if v, ok := ddnsCli.(ddns.TTLValidator); ok && !v.ValidTTL(c.TTL) {
		return nil, &config.ConfigError{Key: "TTL", Err: fmt.Errorf("%d is not accepted by %s", c.TTL, c.DDNS.Provider)}
	}
	return ddnsCli, nil
}

// buildResolver registers a source for every enabled family that has no
// static address.
func buildResolver(c *config.Config) (*ip.Resolver, error) {
	timeout := time.Second * time.Duration(c.Timeout)
	r := ip.NewResolver()

	families := map[ip.Family]*config.Family{ip.IPv4: c.IPv4, ip.IPv6: c.IPv6}
	for _, f := range ip.Families {
		fc := families[f]
		if bool(fc.Disable) || fc.Override().IsValid() {
			continue
		}
		src, err := ip.NewSource(fc.URL, f, timeout)
		if err != nil {
			return nil, &config.ConfigError{Key: f.String() + ".URL", Err: err}
		}
		r.Use(f, src)
	}
	return r, nil
}

func buildNotifier(c *config.Config) notify.Notify {
	if c.Notify == nil || !c.Notify.Enable {
		return nil
	}

	switch c.Notify.Provider {
	case "pushplus":
		return &pushplus.PushPlus{Token: c.Notify.Config["pushplus_token"]}
	case "telegram":
		return &telegram.Telegram{
			ApiHost: c.Notify.Config["telegram_apihost"],
			ChatID:  c.Notify.Config["telegram_chatid"],
			Token:   c.Notify.Config["telegram_token"],
		}
	default:
		return nil
	}
}

func buildReconcileConfig(c *config.Config) reconcile.Config {
	return reconcile.Config{
		Domain: c.Domain,
		Host:   c.Hostname,
		TTL:    c.TTL,
		IPv4: reconcile.FamilyConfig{
			Disabled: bool(c.IPv4.Disable),
			Override: c.IPv4.Override(),
		},
		IPv6: reconcile.FamilyConfig{
			Disabled: bool(c.IPv6.Disable),
			Override: c.IPv6.Override(),
		},
		DryRun: c.DryRun,
	}
}
