package linode

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/Septrum101/linodeDdns/common/ddns"
)

const (
	apiURL   = "https://api.linode.com/v4"
	pageSize = "500"
)

// ValidTTLs are the TTL values accepted by the Linode domains API.
var ValidTTLs = []int{
	300,
	3600,
	7200,
	14400,
	28800,
	57600,
	86400,
	172800,
	345600,
	604800,
	1209600,
	2419200,
}

// Linode Implementation
type Linode struct {
	client *resty.Client
}

type domain struct {
	ID     int    `json:"id"`
	Domain string `json:"domain"`
}

type record struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Target string `json:"target"`
	TTLSec int    `json:"ttl_sec"`
}

type page[T any] struct {
	Data    []T `json:"data"`
	Page    int `json:"page"`
	Pages   int `json:"pages"`
	Results int `json:"results"`
}

type apiErrors struct {
	Errors []struct {
		Field  string `json:"field"`
		Reason string `json:"reason"`
	} `json:"errors"`
}

func (e *apiErrors) err() error {
	if e == nil || len(e.Errors) == 0 {
		return nil
	}
	reasons := make([]string, 0, len(e.Errors))
	for _, v := range e.Errors {
		if v.Field != "" {
			reasons = append(reasons, v.Field+": "+v.Reason)
		} else {
			reasons = append(reasons, v.Reason)
		}
	}
	return errors.New(strings.Join(reasons, "; "))
}

// New creates a Linode client. Required key in c: linode_access_token.
// Optional keys: linode_api_url.
func New(c map[string]string, timeout time.Duration) (*Linode, error) {
	token := c[strings.ToLower("LINODE_ACCESS_TOKEN")]
	if token == "" {
		return nil, errors.New("linode: missing access token")
	}
	baseURL := c[strings.ToLower("LINODE_API_URL")]
	if baseURL == "" {
		baseURL = apiURL
	}

	cli := resty.New()
	cli.SetBaseURL(baseURL).
		SetAuthToken(token).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	return &Linode{client: cli}, nil
}

func (l *Linode) ListDomains(ctx context.Context) ([]ddns.Domain, error) {
	rtn := &page[domain]{}
	if err := l.do(ctx, "list domains", resty.MethodGet, "/domains", nil, rtn); err != nil {
		return nil, err
	}

	domains := make([]ddns.Domain, 0, len(rtn.Data))
	for i := range rtn.Data {
		domains = append(domains, ddns.Domain{
			ID:   strconv.Itoa(rtn.Data[i].ID),
			Name: rtn.Data[i].Domain,
		})
	}
	return domains, nil
}

func (l *Linode) ListDomainRecords(ctx context.Context, domainID string) ([]ddns.Record, error) {
	rtn := &page[record]{}
	path := fmt.Sprintf("/domains/%s/records", domainID)
	if err := l.do(ctx, "list domain records", resty.MethodGet, path, nil, rtn); err != nil {
		return nil, err
	}

	records := make([]ddns.Record, 0, len(rtn.Data))
	for i := range rtn.Data {
		records = append(records, rtn.Data[i].toRecord())
	}
	return records, nil
}

func (l *Linode) CreateRecord(ctx context.Context, domainID string, r ddns.Record) (ddns.Record, error) {
	rtn := &record{}
	body := map[string]any{
		"type":    r.Type,
		"name":    r.Host,
		"target":  r.Target,
		"ttl_sec": r.TTL,
	}
	path := fmt.Sprintf("/domains/%s/records", domainID)
	if err := l.do(ctx, "create record", resty.MethodPost, path, body, rtn); err != nil {
		return ddns.Record{}, err
	}
	return rtn.toRecord(), nil
}

func (l *Linode) UpdateRecord(ctx context.Context, domainID string, recordID string, target string, ttl int) error {
	body := map[string]any{
		"target":  target,
		"ttl_sec": ttl,
	}
	path := fmt.Sprintf("/domains/%s/records/%s", domainID, recordID)
	return l.do(ctx, "update record", resty.MethodPut, path, body, nil)
}

func (l *Linode) DeleteRecord(ctx context.Context, domainID string, recordID string) error {
	path := fmt.Sprintf("/domains/%s/records/%s", domainID, recordID)
	return l.do(ctx, "delete record", resty.MethodDelete, path, nil, nil)
}

// ValidTTL implements ddns.TTLValidator. 0 keeps the Linode default.
func (l *Linode) ValidTTL(ttl int) bool {
	if ttl == 0 {
		return true
	}
	for _, v := range ValidTTLs {
		if v == ttl {
			return true
		}
	}
	return false
}

func (l *Linode) do(ctx context.Context, op string, method string, path string, body any, result any) error {
	apiErr := &apiErrors{}
	req := l.client.R().SetContext(ctx).SetError(apiErr)
	if method == resty.MethodGet {
		req.SetQueryParam("page_size", pageSize)
	}
	if body != nil {
		req.SetBody(body)
	}
	if result != nil {
		req.SetResult(result)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return &ddns.RequestError{Op: op, Err: err}
	}
	if !resp.IsSuccess() {
		return &ddns.RequestError{Op: op, StatusCode: resp.StatusCode(), Err: apiErr.err()}
	}
	return nil
}

func (r *record) toRecord() ddns.Record {
	return ddns.Record{
		ID:     strconv.Itoa(r.ID),
		Host:   r.Name,
		Type:   r.Type,
		Target: r.Target,
		TTL:    r.TTLSec,
	}
}
