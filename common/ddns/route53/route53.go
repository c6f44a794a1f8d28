// Package route53 maps Route53 record sets onto individual records. Each
// value of a set is surfaced as one record whose id is TYPE/name/value, writes
// rewrite the owning set.
package route53

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/route53"

	"github.com/Septrum101/linodeDdns/common/ddns"
)

const (
	defaultRegion = "us-east-1"
	// defaultTTL is used when a record asks for the provider default, Route53
	// has none.
	defaultTTL = 300
)

type Route53 struct {
	svc   *route53.Route53
	zones map[string]string
}

func New(c map[string]string, timeout time.Duration) (*Route53, error) {
	region := c[strings.ToLower("AWS_REGION")]
	if region == "" {
		region = defaultRegion
	}
	conf := aws.NewConfig().WithRegion(region).WithHTTPClient(&http.Client{Timeout: timeout})
	if id := c[strings.ToLower("AWS_ACCESS_KEY_ID")]; id != "" {
		conf = conf.WithCredentials(credentials.NewStaticCredentials(
			id,
			c[strings.ToLower("AWS_SECRET_ACCESS_KEY")],
			"",
		))
	}
	if endpoint := c[strings.ToLower("ROUTE53_ENDPOINT")]; endpoint != "" {
		conf = conf.WithEndpoint(endpoint)
	}

	sess, err := session.NewSessionWithOptions(session.Options{
		Config:            *conf,
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return nil, err
	}

	return &Route53{svc: route53.New(sess), zones: make(map[string]string)}, nil
}

func (r *Route53) ListDomains(ctx context.Context) ([]ddns.Domain, error) {
	var domains []ddns.Domain
	err := r.svc.ListHostedZonesPagesWithContext(ctx, &route53.ListHostedZonesInput{},
		func(page *route53.ListHostedZonesOutput, _ bool) bool {
			for _, z := range page.HostedZones {
				d := ddns.Domain{
					ID:   strings.TrimPrefix(aws.StringValue(z.Id), "/hostedzone/"),
					Name: strings.TrimSuffix(aws.StringValue(z.Name), "."),
				}
				r.zones[d.ID] = d.Name
				domains = append(domains, d)
			}
			return true
		})
	if err != nil {
		return nil, wrap("list domains", err)
	}
	return domains, nil
}

func (r *Route53) ListDomainRecords(ctx context.Context, domainID string) ([]ddns.Record, error) {
	zone, err := r.zoneName(ctx, domainID)
	if err != nil {
		return nil, wrap("list domain records", err)
	}

	var records []ddns.Record
	err = r.svc.ListResourceRecordSetsPagesWithContext(ctx, &route53.ListResourceRecordSetsInput{
		HostedZoneId: aws.String(domainID),
	}, func(page *route53.ListResourceRecordSetsOutput, _ bool) bool {
		for _, set := range page.ResourceRecordSets {
			records = append(records, toRecords(zone, set)...)
		}
		return true
	})
	if err != nil {
		return nil, wrap("list domain records", err)
	}
	return records, nil
}

func (r *Route53) CreateRecord(ctx context.Context, domainID string, record ddns.Record) (ddns.Record, error) {
	zone, err := r.zoneName(ctx, domainID)
	if err != nil {
		return ddns.Record{}, wrap("create record", err)
	}
	name := toName(zone, record.Host)

	set, err := r.getSet(ctx, domainID, name, record.Type)
	if err != nil {
		return ddns.Record{}, wrap("create record", err)
	}
	if set == nil {
		set = &route53.ResourceRecordSet{Name: aws.String(name), Type: aws.String(record.Type)}
	}
	set.ResourceRecords = withValue(set.ResourceRecords, record.Target)
	set.TTL = aws.Int64(toRoute53TTL(record.TTL))

	if err := r.change(ctx, domainID, route53.ChangeActionUpsert, set); err != nil {
		return ddns.Record{}, wrap("create record", err)
	}
	record.ID = formatID(record.Type, name, record.Target)
	return record, nil
}

func (r *Route53) UpdateRecord(ctx context.Context, domainID string, recordID string, target string, ttl int) error {
	typ, name, value, err := parseID(recordID)
	if err != nil {
		return wrap("update record", err)
	}
	set, err := r.getSet(ctx, domainID, name, typ)
	if err != nil {
		return wrap("update record", err)
	}
	if set == nil || !hasValue(set.ResourceRecords, value) {
		return &ddns.RequestError{Op: "update record", StatusCode: 404, Err: fmt.Errorf("record %s not found", recordID)}
	}

	set.ResourceRecords = withValue(withoutValue(set.ResourceRecords, value), target)
	set.TTL = aws.Int64(toRoute53TTL(ttl))
	return wrap("update record", r.change(ctx, domainID, route53.ChangeActionUpsert, set))
}

func (r *Route53) DeleteRecord(ctx context.Context, domainID string, recordID string) error {
	typ, name, value, err := parseID(recordID)
	if err != nil {
		return wrap("delete record", err)
	}
	set, err := r.getSet(ctx, domainID, name, typ)
	if err != nil {
		return wrap("delete record", err)
	}
	if set == nil || !hasValue(set.ResourceRecords, value) {
		return &ddns.RequestError{Op: "delete record", StatusCode: 404, Err: fmt.Errorf("record %s not found", recordID)}
	}

	remaining := withoutValue(set.ResourceRecords, value)
	if len(remaining) == 0 {
		// DELETE must match the current set exactly
		return wrap("delete record", r.change(ctx, domainID, route53.ChangeActionDelete, set))
	}
	set.ResourceRecords = remaining
	return wrap("delete record", r.change(ctx, domainID, route53.ChangeActionUpsert, set))
}

// ValueSet reports that all values of a name and type share one record set.
func (r *Route53) ValueSet() bool {
	return true
}

// ValidTTL rejects 0, Route53 requires an explicit TTL on every set.
func (r *Route53) ValidTTL(ttl int) bool {
	return ttl >= 1 && ttl <= 2147483647
}

func (r *Route53) zoneName(ctx context.Context, zoneID string) (string, error) {
	if name, ok := r.zones[zoneID]; ok {
		return name, nil
	}
	out, err := r.svc.GetHostedZoneWithContext(ctx, &route53.GetHostedZoneInput{Id: aws.String(zoneID)})
	if err != nil {
		return "", err
	}
	name := strings.TrimSuffix(aws.StringValue(out.HostedZone.Name), ".")
	r.zones[zoneID] = name
	return name, nil
}

// getSet returns the record set of name and type, or nil when there is none.
func (r *Route53) getSet(ctx context.Context, zoneID string, name string, typ string) (*route53.ResourceRecordSet, error) {
	out, err := r.svc.ListResourceRecordSetsWithContext(ctx, &route53.ListResourceRecordSetsInput{
		HostedZoneId:    aws.String(zoneID),
		StartRecordName: aws.String(name),
		StartRecordType: aws.String(typ),
		MaxItems:        aws.String("1"),
	})
	if err != nil {
		return nil, err
	}
	for _, set := range out.ResourceRecordSets {
		if sameName(aws.StringValue(set.Name), name) && aws.StringValue(set.Type) == typ {
			return set, nil
		}
	}
	return nil, nil
}

func (r *Route53) change(ctx context.Context, zoneID string, action string, set *route53.ResourceRecordSet) error {
	_, err := r.svc.ChangeResourceRecordSetsWithContext(ctx, &route53.ChangeResourceRecordSetsInput{
		HostedZoneId: aws.String(zoneID),
		ChangeBatch: &route53.ChangeBatch{
			Comment: aws.String("linodeDdns"),
			Changes: []*route53.Change{{
				Action:            aws.String(action),
				ResourceRecordSet: set,
			}},
		},
	})
	return err
}

// toRecords flattens a set into one record per value. Alias sets carry no
// values and produce nothing.
func toRecords(zone string, set *route53.ResourceRecordSet) []ddns.Record {
	name := strings.TrimSuffix(aws.StringValue(set.Name), ".")
	typ := aws.StringValue(set.Type)
	ttl := int(aws.Int64Value(set.TTL))

	records := make([]ddns.Record, 0, len(set.ResourceRecords))
	for _, rr := range set.ResourceRecords {
		value := aws.StringValue(rr.Value)
		records = append(records, ddns.Record{
			ID:     formatID(typ, name, value),
			Host:   toHost(zone, name),
			Type:   typ,
			Target: value,
			TTL:    ttl,
		})
	}
	return records
}

func formatID(typ string, name string, value string) string {
	return typ + "/" + strings.TrimSuffix(name, ".") + "/" + value
}

func parseID(id string) (typ string, name string, value string, err error) {
	parts := strings.SplitN(id, "/", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", "", "", fmt.Errorf("malformed record id %q", id)
	}
	return parts[0], parts[1], parts[2], nil
}

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

func sameName(a string, b string) bool {
	return strings.EqualFold(strings.TrimSuffix(a, "."), strings.TrimSuffix(b, "."))
}

func hasValue(rrs []*route53.ResourceRecord, value string) bool {
	for _, rr := range rrs {
		if aws.StringValue(rr.Value) == value {
			return true
		}
	}
	return false
}

func withValue(rrs []*route53.ResourceRecord, value string) []*route53.ResourceRecord {
	if hasValue(rrs, value) {
		return rrs
	}
	return append(rrs, &route53.ResourceRecord{Value: aws.String(value)})
}

func withoutValue(rrs []*route53.ResourceRecord, value string) []*route53.ResourceRecord {
	out := make([]*route53.ResourceRecord, 0, len(rrs))
	for _, rr := range rrs {
		if aws.StringValue(rr.Value) != value {
			out = append(out, rr)
		}
	}
	return out
}

func toRoute53TTL(ttl int) int64 {
	if ttl == 0 {
		return defaultTTL
	}
	return int64(ttl)
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var reqErr *ddns.RequestError
	if errors.As(err, &reqErr) {
		return err
	}
	out := &ddns.RequestError{Op: op, Err: err}
	var failure awserr.RequestFailure
	if errors.As(err, &failure) {
		out.StatusCode = failure.StatusCode()
	}
	return out
}
