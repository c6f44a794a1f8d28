package ip

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// webSource asks a "what is my IP" service over http. The connection is
// dialed with the family's network so dual-stack hosts report the wanted
// address.
type webSource struct {
	url    string
	client *resty.Client
}

func newWebSource(u *url.URL, family Family, timeout time.Duration) *webSource {
	dialer := &net.Dialer{Timeout: timeout}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = func(ctx context.Context, _, addr string) (net.Conn, error) {
		return dialer.DialContext(ctx, family.Network(), addr)
	}

	cli := resty.New()
	cli.SetTransport(transport).
		SetTimeout(timeout).
		SetHeader("Cache-Control", "no-cache")

	return &webSource{url: u.String(), client: cli}
}

func (w *webSource) Lookup(ctx context.Context) (netip.Addr, error) {
	resp, err := w.client.R().SetContext(ctx).Get(w.url)
	if err != nil {
		return netip.Addr{}, err
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		return netip.Addr{}, fmt.Errorf("%s returned %s", w.url, resp.Status())
	}

	line, _ := bufio.NewReader(strings.NewReader(resp.String())).ReadString('\n')
	addr, err := netip.ParseAddr(strings.TrimSpace(line))
	if err != nil {
		return netip.Addr{}, fmt.Errorf("parse response of %s: %w", w.url, err)
	}
	return addr, nil
}
