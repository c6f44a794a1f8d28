package reconcile

import (
	"fmt"
	"net/netip"
	"strings"

	"github.com/Septrum101/linodeDdns/app/ip"
	"github.com/Septrum101/linodeDdns/common/ddns"
)

type Action int

const (
	Create Action = iota
	Update
	Delete
)

func (a Action) String() string {
	switch a {
	case Create:
		return "create"
	case Update:
		return "update"
	case Delete:
		return "delete"
	default:
		return "unknown"
	}
}

// Operation is one write against the provider.
//
// Record is the new record for Create and the existing record for Update and
// Delete, so the target of a write is always pinned by the id captured when
// the records were listed. Target and TTL carry the new values of an Update.
type Operation struct {
	Action Action
	Family ip.Family
	Record ddns.Record
	Target string
	TTL    int
}

func (o Operation) String() string {
	switch o.Action {
	case Update:
		return fmt.Sprintf("update of %s %q (TTL %s) to %q (TTL %s)",
			o.Family, o.Record.Target, ddns.FormatTTL(o.Record.TTL), o.Target, ddns.FormatTTL(o.TTL))
	default:
		return fmt.Sprintf("%s of %s %q (TTL %s)",
			o.Action, o.Family, o.Record.Target, ddns.FormatTTL(o.Record.TTL))
	}
}

// FamilyState is everything known about one family at the start of a cycle.
type FamilyState struct {
	Family   ip.Family
	Disabled bool
	// Local is the invalid zero Addr when no local address is available.
	Local netip.Addr
	// Records are the host's records of this family in provider order.
	Records []ddns.Record
	// ValueSet is set when the provider keeps one value set per name and type,
	// see ddns.ValueSetter.
	ValueSet bool
}

// Partition selects the A and AAAA records of host, keeping provider order.
// Hosts compare case-insensitively. Records of other hosts or types are
// dropped.
func Partition(records []ddns.Record, host string) map[ip.Family][]ddns.Record {
	out := make(map[ip.Family][]ddns.Record, len(ip.Families))
	for i := range records {
		if !strings.EqualFold(records[i].Host, host) {
			continue
		}
		if f, ok := ip.FamilyOf(records[i].Type); ok {
			out[f] = append(out[f], records[i])
		}
	}
	return out
}

// Plan returns the writes that bring every family in line with its state.
// It performs no I/O.
func Plan(host string, ttl int, families ...FamilyState) []Operation {
	var ops []Operation
	for i := range families {
		ops = append(ops, PlanFamily(host, ttl, families[i])...)
	}
	return ops
}

// PlanFamily decides the writes for a single family.
//
// A disabled family loses all of its records. Otherwise the first record is
// canonical: it is updated when the local address or the TTL differ, and every
// record after it is deleted. Without a local address the canonical target is
// kept and only a TTL difference triggers an update. With no records at all a
// record is created, provided there is a local address.
func PlanFamily(host string, ttl int, s FamilyState) []Operation {
	var ops []Operation

	if s.Disabled {
		for _, r := range s.Records {
			ops = append(ops, Operation{Action: Delete, Family: s.Family, Record: r})
		}
		return ops
	}

	if len(s.Records) == 0 {
		if s.Local.IsValid() {
			ops = append(ops, Operation{
				Action: Create,
				Family: s.Family,
				Record: ddns.Record{
					Host:   host,
					Type:   s.Family.RecordType(),
					Target: s.Local.String(),
					TTL:    ttl,
				},
			})
		}
		return ops
	}

	canonical := s.Records[0]
	target := canonical.Target
	shouldUpdate := false
	if s.Local.IsValid() && !sameAddr(s.Local, canonical.Target) {
		target = s.Local.String()
		shouldUpdate = true
	}
	if canonical.TTL != ttl {
		shouldUpdate = true
	}
	if shouldUpdate {
		ops = append(ops, Operation{Action: Update, Family: s.Family, Record: canonical, Target: target, TTL: ttl})
	}

	for _, r := range s.Records[1:] {
		// the update already folded this value into the canonical record
		if shouldUpdate && s.ValueSet && sameTarget(target, r.Target) {
			continue
		}
		ops = append(ops, Operation{Action: Delete, Family: s.Family, Record: r})
	}
	return ops
}

// sameAddr compares addresses rather than strings, so "2001:db8:0::1" equals
// "2001:db8::1". An unparsable target never matches.
func sameAddr(local netip.Addr, target string) bool {
	addr, err := netip.ParseAddr(target)
	if err != nil {
		return false
	}
	return addr == local
}

func sameTarget(a string, b string) bool {
	addr, err := netip.ParseAddr(a)
	if err != nil {
		return a == b
	}
	return sameAddr(addr, b)
}
