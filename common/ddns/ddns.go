package ddns

import (
	"context"
	"fmt"
)

const (
	RecordTypeA    = "A"
	RecordTypeAAAA = "AAAA"
)

// Domain is a zone managed by the provider.
type Domain struct {
	ID   string
	Name string
}

// Record is a single DNS record of a domain. Host is relative to the domain,
// the apex is "". TTL is in seconds, 0 leaves the provider default.
type Record struct {
	ID     string
	Host   string
	Type   string
	Target string
	TTL    int
}

func (r Record) String() string {
	return fmt.Sprintf("%s %s %q (TTL %s)", r.ID, r.Type, r.Target, FormatTTL(r.TTL))
}

// Client is the capability every DNS provider exposes. Pagination is not
// handled, only the first page of domains and records is returned.
type Client interface {
	ListDomains(ctx context.Context) ([]Domain, error)
	ListDomainRecords(ctx context.Context, domainID string) ([]Record, error)
	CreateRecord(ctx context.Context, domainID string, record Record) (Record, error)
	UpdateRecord(ctx context.Context, domainID string, recordID string, target string, ttl int) error
	DeleteRecord(ctx context.Context, domainID string, recordID string) error
}

// TTLValidator is implemented by clients whose provider only accepts a
// restricted set of TTL values.
type TTLValidator interface {
	ValidTTL(ttl int) bool
}

// ValueSetter is implemented by clients whose provider stores all values of
// a name and type as one set. Writing a value the set already holds merges
// the two records, so the record carrying that value is gone afterwards.
type ValueSetter interface {
	ValueSet() bool
}

// FormatTTL renders a TTL for log output.
func FormatTTL(ttl int) string {
	if ttl == 0 {
		return "default"
	}
	return fmt.Sprintf("%d", ttl)
}
