package linode

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Septrum101/linodeDdns/common/ddns"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Linode {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	l, err := New(map[string]string{
		strings.ToLower("LINODE_ACCESS_TOKEN"): "secret",
		strings.ToLower("LINODE_API_URL"):      srv.URL,
	}, time.Second*5)
	if err != nil {
		t.Fatal(err)
	}
	return l
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func TestNewRequiresToken(t *testing.T) {
	if _, err := New(map[string]string{}, time.Second); err == nil {
		t.Fatal("expected error for missing token")
	}
}

func TestListDomains(t *testing.T) {
	l := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/domains" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.URL.Query().Get("page_size"); got != pageSize {
			t.Errorf("page_size = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"data":[{"id":1,"domain":"other.com"},{"id":2,"domain":"example.com"}],"page":1,"pages":1,"results":2}`)
	})

	domains, err := l.ListDomains(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := []ddns.Domain{{ID: "1", Name: "other.com"}, {ID: "2", Name: "example.com"}}
	if len(domains) != len(want) {
		t.Fatalf("got %d domains, want %d", len(domains), len(want))
	}
	for i := range want {
		if domains[i] != want[i] {
			t.Errorf("domains[%d] = %+v, want %+v", i, domains[i], want[i])
		}
	}
}

func TestListDomainRecords(t *testing.T) {
	l := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/domains/2/records" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"data":[
			{"id":10,"name":"home","type":"A","target":"203.0.113.5","ttl_sec":3600},
			{"id":11,"name":"home","type":"AAAA","target":"2001:db8::1","ttl_sec":0},
			{"id":12,"name":"www","type":"CNAME","target":"example.com","ttl_sec":300}
		]}`)
	})

	records, err := l.ListDomainRecords(context.Background(), "2")
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}
	want := ddns.Record{ID: "10", Host: "home", Type: "A", Target: "203.0.113.5", TTL: 3600}
	if records[0] != want {
		t.Errorf("records[0] = %+v, want %+v", records[0], want)
	}
	if records[1].TTL != 0 {
		t.Errorf("records[1].TTL = %d, want 0", records[1].TTL)
	}
}

func TestCreateRecord(t *testing.T) {
	l := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/domains/2/records" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Error(err)
			return
		}
		if body["type"] != "AAAA" || body["name"] != "home" || body["target"] != "2001:db8::1" || body["ttl_sec"] != float64(300) {
			t.Errorf("body = %v", body)
		}
		writeJSON(w, http.StatusOK, map[string]any{"id": 20, "name": "home", "type": "AAAA", "target": "2001:db8::1", "ttl_sec": 300})
	})

	rec, err := l.CreateRecord(context.Background(), "2", ddns.Record{Host: "home", Type: "AAAA", Target: "2001:db8::1", TTL: 300})
	if err != nil {
		t.Fatal(err)
	}
	if rec.ID != "20" {
		t.Errorf("ID = %q, want 20", rec.ID)
	}
}

func TestUpdateRecord(t *testing.T) {
	l := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/domains/2/records/10" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if body["target"] != "203.0.113.5" || body["ttl_sec"] != float64(300) {
			t.Errorf("body = %v", body)
		}
		writeJSON(w, http.StatusOK, map[string]any{"id": 10})
	})

	if err := l.UpdateRecord(context.Background(), "2", "10", "203.0.113.5", 300); err != nil {
		t.Fatal(err)
	}
}

func TestDeleteRecordError(t *testing.T) {
	l := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("method = %s", r.Method)
		}
		writeJSON(w, http.StatusNotFound, map[string]any{"errors": []map[string]string{{"reason": "Not found"}}})
	})

	err := l.DeleteRecord(context.Background(), "2", "99")
	var reqErr *ddns.RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("err = %v, want *ddns.RequestError", err)
	}
	if reqErr.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d", reqErr.StatusCode)
	}
	if !strings.Contains(err.Error(), "Not found") {
		t.Errorf("error %q does not carry API reason", err)
	}
}

func TestTransportError(t *testing.T) {
	l := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	l.client.SetBaseURL("http://127.0.0.1:1")

	_, err := l.ListDomains(context.Background())
	var reqErr *ddns.RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("err = %v, want *ddns.RequestError", err)
	}
	if reqErr.StatusCode != 0 {
		t.Errorf("StatusCode = %d, want 0", reqErr.StatusCode)
	}
}

func TestValidTTL(t *testing.T) {
	l := &Linode{}
	for _, ttl := range []int{0, 300, 3600, 2419200} {
		if !l.ValidTTL(ttl) {
			t.Errorf("ValidTTL(%d) = false", ttl)
		}
	}
	for _, ttl := range []int{1, 60, 301, 86401} {
		if l.ValidTTL(ttl) {
			t.Errorf("ValidTTL(%d) = true", ttl)
		}
	}
}
