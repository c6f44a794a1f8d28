package ip

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"net/url"
	"strings"
	"time"

	"github.com/miekg/dns"
)

var queryType = map[Family]uint16{
	IPv4: dns.TypeA,
	IPv6: dns.TypeAAAA,
}

var queryNetwork = map[Family]string{
	IPv4: "udp4",
	IPv6: "udp6",
}

// dnsSource asks a resolver that answers with the client address, such as
// myip.opendns.com on resolver1.opendns.com.
type dnsSource struct {
	server string
	name   string
	family Family
	client *dns.Client
}

func newDNSSource(u *url.URL, family Family, timeout time.Duration) (*dnsSource, error) {
	name := strings.Trim(u.Path, "/")
	if u.Hostname() == "" || name == "" {
		return nil, fmt.Errorf("dns source %q must look like dns://server[:port]/name", u.String())
	}
	port := u.Port()
	if port == "" {
		port = "53"
	}

	return &dnsSource{
		server: net.JoinHostPort(u.Hostname(), port),
		name:   dns.Fqdn(name),
		family: family,
		client: &dns.Client{Net: queryNetwork[family], Timeout: timeout},
	}, nil
}

func (d *dnsSource) Lookup(ctx context.Context) (netip.Addr, error) {
	m := new(dns.Msg)
	m.SetQuestion(d.name, queryType[d.family])
	m.RecursionDesired = false

	r, _, err := d.client.ExchangeContext(ctx, m, d.server)
	if err != nil {
		return netip.Addr{}, err
	}
	if r.Rcode != dns.RcodeSuccess {
		return netip.Addr{}, fmt.Errorf("%s answered %s for %s", d.server, dns.RcodeToString[r.Rcode], d.name)
	}

	for _, rr := range r.Answer {
		var raw net.IP
		switch v := rr.(type) {
		case *dns.A:
			raw = v.A
		case *dns.AAAA:
			raw = v.AAAA
		default:
			continue
		}
		if addr, ok := netip.AddrFromSlice(raw); ok {
			if d.family == IPv4 {
				addr = addr.Unmap()
			}
			return addr, nil
		}
	}
	return netip.Addr{}, errors.New("empty answer from " + d.server)
}
