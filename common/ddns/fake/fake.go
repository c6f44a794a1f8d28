// Package fake provides an in-memory ddns.Client for tests.
package fake

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/Septrum101/linodeDdns/common/ddns"
)

// Call records one write made against the provider.
type Call struct {
	Op       string // create, update or delete
	DomainID string
	RecordID string
	Target   string
	TTL      int
}

// Provider keeps records in provider order, the way a real API returns them.
type Provider struct {
	mu      sync.Mutex
	domains []ddns.Domain
	records map[string][]ddns.Record
	nextID  int
	calls   []Call

	// FailOn makes the named operation ("list domains", "list domain records",
	// "create record", "update record", "delete record") fail with status 500.
	FailOn map[string]bool
	// FailRecord makes updates and deletes of the listed record ids fail with
	// status 500.
	FailRecord map[string]bool
}

// New returns a Provider holding the given domains and no records.
func New(domains ...ddns.Domain) *Provider {
	return &Provider{
		domains:    domains,
		records:    make(map[string][]ddns.Record),
		nextID:     1000,
		FailOn:     make(map[string]bool),
		FailRecord: make(map[string]bool),
	}
}

// Seed appends records to a domain without recording a call.
func (p *Provider) Seed(domainID string, records ...ddns.Record) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.records[domainID] = append(p.records[domainID], records...)
}

// Records returns a copy of the domain's records.
func (p *Provider) Records(domainID string) []ddns.Record {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]ddns.Record, len(p.records[domainID]))
	copy(out, p.records[domainID])
	return out
}

// Calls returns the writes made so far, oldest first.
func (p *Provider) Calls() []Call {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Call, len(p.calls))
	copy(out, p.calls)
	return out
}

// ResetCalls clears the write history.
func (p *Provider) ResetCalls() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = nil
}

func (p *Provider) fail(op string, recordIDs ...string) error {
	for _, id := range recordIDs {
		if p.FailRecord[id] {
			return &ddns.RequestError{Op: op, StatusCode: 500}
		}
	}
	if p.FailOn[op] {
		return &ddns.RequestError{Op: op, StatusCode: 500}
	}
	return nil
}

func (p *Provider) ListDomains(_ context.Context) ([]ddns.Domain, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.fail("list domains"); err != nil {
		return nil, err
	}
	out := make([]ddns.Domain, len(p.domains))
	copy(out, p.domains)
	return out, nil
}

func (p *Provider) ListDomainRecords(_ context.Context, domainID string) ([]ddns.Record, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.fail("list domain records"); err != nil {
		return nil, err
	}
	out := make([]ddns.Record, len(p.records[domainID]))
	copy(out, p.records[domainID])
	return out, nil
}

func (p *Provider) CreateRecord(_ context.Context, domainID string, r ddns.Record) (ddns.Record, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.fail("create record"); err != nil {
		return ddns.Record{}, err
	}
	p.nextID++
	r.ID = strconv.Itoa(p.nextID)
	p.records[domainID] = append(p.records[domainID], r)
	p.calls = append(p.calls, Call{Op: "create", DomainID: domainID, RecordID: r.ID, Target: r.Target, TTL: r.TTL})
	return r, nil
}

func (p *Provider) UpdateRecord(_ context.Context, domainID string, recordID string, target string, ttl int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.fail("update record", recordID); err != nil {
		return err
	}
	records := p.records[domainID]
	for i := range records {
		if records[i].ID == recordID {
			records[i].Target = target
			records[i].TTL = ttl
			p.calls = append(p.calls, Call{Op: "update", DomainID: domainID, RecordID: recordID, Target: target, TTL: ttl})
			return nil
		}
	}
	return &ddns.RequestError{Op: "update record", StatusCode: 404, Err: fmt.Errorf("record %s not found", recordID)}
}

func (p *Provider) DeleteRecord(_ context.Context, domainID string, recordID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.fail("delete record", recordID); err != nil {
		return err
	}
	records := p.records[domainID]
	for i := range records {
		if records[i].ID == recordID {
			p.records[domainID] = append(records[:i:i], records[i+1:]...)
			p.calls = append(p.calls, Call{Op: "delete", DomainID: domainID, RecordID: recordID})
			return nil
		}
	}
	return &ddns.RequestError{Op: "delete record", StatusCode: 404, Err: fmt.Errorf("record %s not found", recordID)}
}
