package controller

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Septrum101/linodeDdns/app/ip"
	"github.com/Septrum101/linodeDdns/app/reconcile"
	"github.com/Septrum101/linodeDdns/common/ddns"
	"github.com/Septrum101/linodeDdns/common/ddns/fake"
	"github.com/Septrum101/linodeDdns/config"
)

type stubResolver map[ip.Family]netip.Addr

func (s stubResolver) Resolve(_ context.Context, f ip.Family) (netip.Addr, error) {
	if addr, ok := s[f]; ok {
		return addr, nil
	}
	return netip.Addr{}, ip.ErrUnavailable
}

type chanNotifier chan string

func (c chanNotifier) Webhook(title string, content string) error {
	c <- title + " " + content
	return nil
}

// countingClient counts cycles through ListDomains.
type countingClient struct {
	*fake.Provider
	cycles atomic.Int32
}

func (c *countingClient) ListDomains(ctx context.Context) ([]ddns.Domain, error) {
	c.cycles.Add(1)
	return c.Provider.ListDomains(ctx)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	c := &config.Config{
		Domain:   "example.com",
		Hostname: "home",
		TTL:      300,
		DDNS:     &config.DDNS{Provider: "linode", Config: map[string]string{"linode_access_token": "secret"}},
	}
	if err := c.Validate(); err != nil {
		t.Fatal(err)
	}
	return c
}

func newClient() *countingClient {
	return &countingClient{Provider: fake.New(ddns.Domain{ID: "1", Name: "example.com"})}
}

var local = stubResolver{ip.IPv4: netip.MustParseAddr("203.0.113.5")}

func TestRunOnce(t *testing.T) {
	client := newClient()
	notes := make(chanNotifier, 4)

	s, err := New(testConfig(t), WithClient(client), WithResolver(local), WithNotifier(notes))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if err := s.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	records := client.Records("1")
	if len(records) != 1 || records[0].Target != "203.0.113.5" || records[0].Type != "A" {
		t.Errorf("records = %+v", records)
	}

	select {
	case msg := <-notes:
		if !strings.Contains(msg, "home.example.com") || !strings.Contains(msg, "create") {
			t.Errorf("notification = %q", msg)
		}
	case <-time.After(time.Second * 5):
		t.Error("no notification")
	}
}

func TestRunOnceError(t *testing.T) {
	client := newClient()
	client.FailOn["list domains"] = true

	s, err := New(testConfig(t), WithClient(client), WithResolver(local))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	var reqErr *ddns.RequestError
	if err := s.Run(context.Background()); !errors.As(err, &reqErr) {
		t.Errorf("err = %v, want RequestError", err)
	}
}

func TestRunDomainNotFoundStopsLoop(t *testing.T) {
	c := testConfig(t)
	c.Domain = "missing.com"
	c.Interval = 1
	c.ContinueOnError = true

	s, err := New(c, WithClient(newClient()), WithResolver(local))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	if err := s.Run(ctx); !reconcile.IsDomainNotFound(err) {
		t.Errorf("err = %v, want DomainNotFoundError", err)
	}
}

func TestRunIntervalStopsOnError(t *testing.T) {
	c := testConfig(t)
	c.Interval = 1
	client := newClient()
	client.FailOn["create record"] = true

	s, err := New(c, WithClient(client), WithResolver(local))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	if err := s.Run(ctx); err == nil {
		t.Error("expected the loop to stop on a provider error")
	}
	if got := client.cycles.Load(); got != 1 {
		t.Errorf("cycles = %d, want 1", got)
	}
}

func TestRunIntervalContinueOnError(t *testing.T) {
	c := testConfig(t)
	c.Interval = 1
	c.ContinueOnError = true
	client := newClient()
	client.FailOn["create record"] = true

	s, err := New(c, WithClient(client), WithResolver(local))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond*2500)
	defer cancel()
	if err := s.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if got := client.cycles.Load(); got < 2 {
		t.Errorf("cycles = %d, want at least 2", got)
	}
}

func TestRunCron(t *testing.T) {
	c := testConfig(t)
	c.Cron = "@every 1s"
	client := newClient()

	s, err := New(c, WithClient(client), WithResolver(local))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond*2500)
	defer cancel()
	if err := s.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if got := client.cycles.Load(); got < 2 {
		t.Errorf("cycles = %d, want at least 2", got)
	}
	if records := client.Records("1"); len(records) != 1 {
		t.Errorf("records = %+v", records)
	}
}

func TestTaskSkipsWhileRunning(t *testing.T) {
	client := newClient()
	s, err := New(testConfig(t), WithClient(client), WithResolver(local))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	s.cronRunning.Store(true)
	if err := s.task(context.Background()); err != nil {
		t.Fatal(err)
	}
	if client.cycles.Load() != 0 {
		t.Error("task ran while another cycle was running")
	}
}

func TestHandler(t *testing.T) {
	s, err := New(testConfig(t), WithClient(newClient()), WithResolver(local))
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	h := s.handler()

	get := func(path string) int {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec.Code
	}

	if code := get("/healthz"); code != http.StatusOK {
		t.Errorf("/healthz = %d", code)
	}
	if code := get("/readyz"); code != http.StatusServiceUnavailable {
		t.Errorf("/readyz before first cycle = %d", code)
	}
	if err := s.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if code := get("/readyz"); code != http.StatusOK {
		t.Errorf("/readyz after cycle = %d", code)
	}
	if code := get("/metrics"); code != http.StatusOK {
		t.Errorf("/metrics = %d", code)
	}
}
