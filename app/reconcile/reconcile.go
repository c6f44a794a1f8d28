package reconcile

import (
	"context"
	"errors"
	"fmt"
	"net/netip"

	log "github.com/sirupsen/logrus"

	"github.com/Septrum101/linodeDdns/app/ip"
	"github.com/Septrum101/linodeDdns/common/ddns"
)

// DomainNotFoundError means the configured domain is not managed by the
// provider account. Retrying will not help.
type DomainNotFoundError struct {
	Domain string
}

func (e *DomainNotFoundError) Error() string {
	return fmt.Sprintf("domain %q not found", e.Domain)
}

// Resolver looks up the local public address of a family.
type Resolver interface {
	Resolve(ctx context.Context, family ip.Family) (netip.Addr, error)
}

type FamilyConfig struct {
	Disabled bool
	// Override replaces the resolver lookup when valid.
	Override netip.Addr
}

type Config struct {
	Domain string
	Host   string
	// TTL in seconds, 0 leaves the provider default.
	TTL    int
	IPv4   FamilyConfig
	IPv6   FamilyConfig
	DryRun bool
}

func (c *Config) family(f ip.Family) FamilyConfig {
	if f == ip.IPv6 {
		return c.IPv6
	}
	return c.IPv4
}

// Name is the fully qualified name of the managed host.
func (c *Config) Name() string {
	if c.Host == "" {
		return c.Domain
	}
	return c.Host + "." + c.Domain
}

// Result describes one reconciliation cycle.
type Result struct {
	DomainID string
	Planned  []Operation
	Applied  []Operation
}

type Reconciler struct {
	client   ddns.Client
	resolver Resolver
	conf     Config
}

func New(client ddns.Client, resolver Resolver, conf Config) *Reconciler {
	return &Reconciler{
		client:   client,
		resolver: resolver,
		conf:     conf,
	}
}

// Reconcile runs one cycle: fetch remote state, resolve local addresses, plan
// and apply. Remote state is fetched fresh on every call.
func (r *Reconciler) Reconcile(ctx context.Context) (*Result, error) {
	name := r.conf.Name()

	domains, err := r.client.ListDomains(ctx)
	if err != nil {
		return nil, err
	}
	domainID, err := FindDomainID(domains, r.conf.Domain)
	if err != nil {
		return nil, err
	}
	log.Debugf("[%s] Domain ID %s", name, domainID)

	records, err := r.client.ListDomainRecords(ctx, domainID)
	if err != nil {
		return nil, err
	}
	partitions := Partition(records, r.conf.Host)
	vs, ok := r.client.(ddns.ValueSetter)
	valueSet := ok && vs.ValueSet()

	states := make([]FamilyState, 0, len(ip.Families))
	for _, f := range ip.Families {
		fc := r.conf.family(f)
		s := FamilyState{Family: f, Disabled: fc.Disabled, Records: partitions[f], ValueSet: valueSet}
		for _, rec := range s.Records {
			log.Infof("[%s] Remote %s %q (TTL %s)", name, f, rec.Target, ddns.FormatTTL(rec.TTL))
		}
		if s.Disabled {
			log.Infof("[%s] %s disabled", name, f)
		} else {
			s.Local = r.localAddr(ctx, f)
		}
		states = append(states, s)
	}

	res := &Result{DomainID: domainID, Planned: Plan(r.conf.Host, r.conf.TTL, states...)}
	if len(res.Planned) == 0 {
		log.Infof("[%s] Records are up to date", name)
		return res, nil
	}
	if r.conf.DryRun {
		for _, op := range res.Planned {
			log.Infof("[%s] Dry run, would %s", name, op)
		}
		return res, nil
	}

	res.Applied, err = Apply(ctx, r.client, domainID, name, res.Planned)
	return res, err
}

func (r *Reconciler) localAddr(ctx context.Context, f ip.Family) netip.Addr {
	name := r.conf.Name()
	if o := r.conf.family(f).Override; o.IsValid() {
		log.Infof("[%s] Local %s %q (static)", name, f, o)
		return o
	}

	addr, err := r.resolver.Resolve(ctx, f)
	if err != nil {
		log.Infof("[%s] No local %s: %v", name, f, err)
		return netip.Addr{}
	}
	log.Infof("[%s] Local %s %q", name, f, addr)
	return addr
}

// FindDomainID returns the id of the domain called name.
func FindDomainID(domains []ddns.Domain, name string) (string, error) {
	for i := range domains {
		if domains[i].Name == name {
			return domains[i].ID, nil
		}
	}
	return "", &DomainNotFoundError{Domain: name}
}

// IsDomainNotFound reports whether err is, or wraps, a DomainNotFoundError.
func IsDomainNotFound(err error) bool {
	var target *DomainNotFoundError
	return errors.As(err, &target)
}
