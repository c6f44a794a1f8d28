package cloudflare

import (
	"context"
	"errors"
	"strings"

	"github.com/cloudflare/cloudflare-go"

	"github.com/Septrum101/linodeDdns/common/ddns"
)

const (
	// autoTTL is how Cloudflare spells "automatic".
	autoTTL = 1
	comment = "managed by linodeDdns"
)

// Cloudflare Implementation
type Cloudflare struct {
	client *cloudflare.API
	zones  map[string]string
}

// New builds a client from a scoped API token, or from the legacy global key
// and account email when no token is set.
func New(c map[string]string, opts ...cloudflare.Option) (*Cloudflare, error) {
	var (
		client *cloudflare.API
		err    error
	)
	if token := c[strings.ToLower("CLOUDFLARE_API_TOKEN")]; token != "" {
		client, err = cloudflare.NewWithAPIToken(token, opts...)
	} else {
		client, err = cloudflare.New(c[strings.ToLower("CLOUDFLARE_API_KEY")], c[strings.ToLower("CLOUDFLARE_EMAIL")], opts...)
	}
	if err != nil {
		return nil, err
	}

	return &Cloudflare{client: client, zones: make(map[string]string)}, nil
}

func (cf *Cloudflare) ListDomains(ctx context.Context) ([]ddns.Domain, error) {
	zones, err := cf.client.ListZones(ctx)
	if err != nil {
		return nil, wrap("list domains", err)
	}

	domains := make([]ddns.Domain, len(zones))
	for i := range zones {
		domains[i] = ddns.Domain{ID: zones[i].ID, Name: zones[i].Name}
		cf.zones[zones[i].ID] = zones[i].Name
	}
	return domains, nil
}

func (cf *Cloudflare) ListDomainRecords(ctx context.Context, domainID string) ([]ddns.Record, error) {
	records, _, err := cf.client.ListDNSRecords(ctx, cloudflare.ZoneIdentifier(domainID), cloudflare.ListDNSRecordsParams{})
	if err != nil {
		return nil, wrap("list domain records", err)
	}

	zone := cf.zoneName(ctx, domainID)
	out := make([]ddns.Record, len(records))
	for i := range records {
		out[i] = toRecord(zone, records[i])
	}
	return out, nil
}

func (cf *Cloudflare) CreateRecord(ctx context.Context, domainID string, record ddns.Record) (ddns.Record, error) {
	zone := cf.zoneName(ctx, domainID)
	created, err := cf.client.CreateDNSRecord(ctx, cloudflare.ZoneIdentifier(domainID), cloudflare.CreateDNSRecordParams{
		Type:    record.Type,
		Name:    toName(zone, record.Host),
		Content: record.Target,
		TTL:     toCloudflareTTL(record.TTL),
		Comment: comment,
	})
	if err != nil {
		return ddns.Record{}, wrap("create record", err)
	}
	return toRecord(zone, created), nil
}

func (cf *Cloudflare) UpdateRecord(ctx context.Context, domainID string, recordID string, target string, ttl int) error {
	_, err := cf.client.UpdateDNSRecord(ctx, cloudflare.ZoneIdentifier(domainID), cloudflare.UpdateDNSRecordParams{
		ID:      recordID,
		Content: target,
		TTL:     toCloudflareTTL(ttl),
	})
	return wrap("update record", err)
}

func (cf *Cloudflare) DeleteRecord(ctx context.Context, domainID string, recordID string) error {
	return wrap("delete record", cf.client.DeleteDNSRecord(ctx, cloudflare.ZoneIdentifier(domainID), recordID))
}

// ValidTTL accepts automatic (0 or 1) and the 60..86400 range.
func (cf *Cloudflare) ValidTTL(ttl int) bool {
	return ttl == 0 || ttl == autoTTL || (ttl >= 60 && ttl <= 86400)
}

// zoneName returns the zone apex, looking it up when ListDomains has not seen
// the zone yet.
func (cf *Cloudflare) zoneName(ctx context.Context, zoneID string) string {
	if name, ok := cf.zones[zoneID]; ok {
		return name
	}
	zone, err := cf.client.ZoneDetails(ctx, zoneID)
	if err != nil {
		return ""
	}
	cf.zones[zoneID] = zone.Name
	return zone.Name
}

func toRecord(zone string, r cloudflare.DNSRecord) ddns.Record {
	return ddns.Record{
		ID:     r.ID,
		Host:   toHost(zone, r.Name),
		Type:   r.Type,
		Target: r.Content,
		TTL:    fromCloudflareTTL(r.TTL),
	}
}

// toHost turns a record FQDN into a name relative to the zone, apex is "".
func toHost(zone string, name string) string {
	name = strings.TrimSuffix(strings.ToLower(name), ".")
	zone = strings.ToLower(zone)
	if name == zone {
		return ""
	}
	return strings.TrimSuffix(name, "."+zone)
}

func toName(zone string, host string) string {
	if host == "" {
		return zone
	}
	return host + "." + zone
}

func toCloudflareTTL(ttl int) int {
	if ttl == 0 {
		return autoTTL
	}
	return ttl
}

func fromCloudflareTTL(ttl int) int {
	if ttl == autoTTL {
		return 0
	}
	return ttl
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	reqErr := &ddns.RequestError{Op: op, Err: err}
	var cfErr *cloudflare.Error
	if errors.As(err, &cfErr) {
		reqErr.StatusCode = cfErr.StatusCode
	}
	return reqErr
}
