package fake

import (
	"context"
	"errors"
	"testing"

	"github.com/Septrum101/linodeDdns/common/ddns"
)

func TestProviderKeepsOrder(t *testing.T) {
	p := New(ddns.Domain{ID: "1", Name: "example.com"})
	p.Seed("1",
		ddns.Record{ID: "a", Host: "home", Type: "A", Target: "203.0.113.1"},
		ddns.Record{ID: "b", Host: "home", Type: "A", Target: "203.0.113.2"},
		ddns.Record{ID: "c", Host: "home", Type: "A", Target: "203.0.113.3"},
	)
	ctx := context.Background()

	if err := p.DeleteRecord(ctx, "1", "b"); err != nil {
		t.Fatal(err)
	}
	if _, err := p.CreateRecord(ctx, "1", ddns.Record{Host: "home", Type: "AAAA", Target: "2001:db8::1"}); err != nil {
		t.Fatal(err)
	}

	records, _ := p.ListDomainRecords(ctx, "1")
	got := []string{}
	for _, r := range records {
		got = append(got, r.Target)
	}
	want := []string{"203.0.113.1", "203.0.113.3", "2001:db8::1"}
	if len(got) != len(want) {
		t.Fatalf("targets = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("targets = %v, want %v", got, want)
		}
	}

	if calls := p.Calls(); len(calls) != 2 || calls[0].Op != "delete" || calls[1].Op != "create" {
		t.Errorf("calls = %+v", calls)
	}
}

func TestProviderUpdateMissing(t *testing.T) {
	p := New(ddns.Domain{ID: "1", Name: "example.com"})
	err := p.UpdateRecord(context.Background(), "1", "404", "203.0.113.1", 300)

	var reqErr *ddns.RequestError
	if !errors.As(err, &reqErr) || reqErr.StatusCode != 404 {
		t.Fatalf("err = %v, want 404 RequestError", err)
	}
}

func TestProviderFailOn(t *testing.T) {
	p := New(ddns.Domain{ID: "1", Name: "example.com"})
	p.FailOn["list domains"] = true

	_, err := p.ListDomains(context.Background())
	var reqErr *ddns.RequestError
	if !errors.As(err, &reqErr) || reqErr.StatusCode != 500 {
		t.Fatalf("err = %v, want 500 RequestError", err)
	}
}
