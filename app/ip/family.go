package ip

import (
	"net/netip"

	"github.com/Septrum101/linodeDdns/common/ddns"
)

// Family is an IP address family, each mapped to one DNS record type.
type Family int

const (
	IPv4 Family = 4
	IPv6 Family = 6
)

// Families lists every family in reconciliation order.
var Families = []Family{IPv4, IPv6}

func (f Family) String() string {
	switch f {
	case IPv4:
		return "IPv4"
	case IPv6:
		return "IPv6"
	default:
		return "IPv?"
	}
}

func (f Family) RecordType() string {
	if f == IPv6 {
		return ddns.RecordTypeAAAA
	}
	return ddns.RecordTypeA
}

// Network returns the dial network pinned to this family.
func (f Family) Network() string {
	if f == IPv6 {
		return "tcp6"
	}
	return "tcp4"
}

// DefaultURL is the web service queried when no source is configured.
func (f Family) DefaultURL() string {
	if f == IPv6 {
		return DefaultIPv6URL
	}
	return DefaultIPv4URL
}

// Match reports whether addr belongs to the family.
func (f Family) Match(addr netip.Addr) bool {
	switch f {
	case IPv4:
		return addr.Is4()
	case IPv6:
		return addr.Is6()
	default:
		return false
	}
}

// FamilyOf maps a record type to its family.
func FamilyOf(recordType string) (Family, bool) {
	switch recordType {
	case ddns.RecordTypeA:
		return IPv4, true
	case ddns.RecordTypeAAAA:
		return IPv6, true
	default:
		return 0, false
	}
}
