package ip

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"net/url"
	"time"
)

const (
	DefaultIPv4URL = "https://ipv4.icanhazip.com"
	DefaultIPv6URL = "https://ipv6.icanhazip.com"

	DefaultTimeout = time.Second * 15
)

// ErrUnavailable is wrapped by every Resolve failure. It means there is no
// local address for the family this cycle, which is not an error condition
// for the caller.
var ErrUnavailable = errors.New("no local address")

// Source looks up one public address.
type Source interface {
	Lookup(ctx context.Context) (netip.Addr, error)
}

// Resolver returns the public address of each configured family.
type Resolver struct {
	sources map[Family]Source
}

func NewResolver() *Resolver {
	return &Resolver{sources: make(map[Family]Source)}
}

// Use sets the source queried for family.
func (r *Resolver) Use(family Family, src Source) *Resolver {
	r.sources[family] = src
	return r
}

// Resolve performs a single lookup without retry. The result is verified to
// belong to family.
func (r *Resolver) Resolve(ctx context.Context, family Family) (netip.Addr, error) {
	src, ok := r.sources[family]
	if !ok {
		return netip.Addr{}, fmt.Errorf("%w: no %s source configured", ErrUnavailable, family)
	}

	addr, err := src.Lookup(ctx)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if !family.Match(addr) {
		return netip.Addr{}, fmt.Errorf("%w: got %s address %s", ErrUnavailable, familyOfAddr(addr), addr)
	}
	return addr, nil
}

// NewSource builds a source from a URL: http and https select a plain-text
// web service, dns selects a DNS query (dns://server[:port]/name).
func NewSource(rawURL string, family Family, timeout time.Duration) (Source, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse %s source %q: %w", family, rawURL, err)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	switch u.Scheme {
	case "http", "https":
		return newWebSource(u, family, timeout), nil
	case "dns":
		return newDNSSource(u, family, timeout)
	default:
		return nil, fmt.Errorf("unsupported %s source scheme %q", family, u.Scheme)
	}
}

func familyOfAddr(addr netip.Addr) Family {
	if addr.Is4() {
		return IPv4
	}
	return IPv6
}
