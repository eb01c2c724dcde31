// Package facility answers hospital and provider questions from public CMS
// data: NPPES registry lookups, facility classification, related NPI
// discovery and CCN search over the CMS Hospital General Information file.
package facility

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/soyeahso/agentchat/internal/version"
)

const (
	nppesVersion = "2.1"
	nppesLimit   = 200
)

// NPPESResponse is the registry API envelope.
type NPPESResponse struct {
	ResultCount int        `json:"result_count"`
	Results     []Provider `json:"results"`
	Errors      []struct {
		Description string `json:"description"`
		Field       string `json:"field"`
	} `json:"Errors,omitempty"`
}

// Provider is one NPPES registry record.
type Provider struct {
	Number          FlexString `json:"number"`
	EnumerationType string     `json:"enumeration_type"`
	Basic           Basic      `json:"basic"`
	Addresses       []Address  `json:"addresses"`
	Taxonomies      []Taxonomy `json:"taxonomies"`
}

// Basic holds organization identity fields.
type Basic struct {
	LegalBusinessName     string `json:"legal_business_name"`
	OrganizationName      string `json:"organization_name"`
	ParentOrganizationLBN string `json:"parent_organization_legal_business_name"`
	OrganizationalSubpart string `json:"organizational_subpart"`
	Status                string `json:"status"`
}

// Address is a practice or mailing location.
type Address struct {
	Purpose    string `json:"address_purpose"`
	Address1   string `json:"address_1"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
}

// Taxonomy is a NUCC provider taxonomy assignment.
type Taxonomy struct {
	Code          string `json:"code"`
	Desc          string `json:"desc"`
	TaxonomyGroup string `json:"taxonomy_group"`
	Primary       bool   `json:"primary"`
	State         string `json:"state"`
}

// FlexString decodes a JSON string or number into a string. The registry
// has returned NPIs in both forms.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

// FirstAddress returns the first listed address, or a zero Address.
func (p Provider) FirstAddress() Address {
	if len(p.Addresses) == 0 {
		return Address{}
	}
	return p.Addresses[0]
}

// DisplayName prefers the legal business name.
func (p Provider) DisplayName() string {
	if p.Basic.LegalBusinessName != "" {
		return p.Basic.LegalBusinessName
	}
	return p.Basic.OrganizationName
}

// NPPESClient queries the NPPES NPI Registry API.
type NPPESClient struct {
	baseURL string
	http    *http.Client
}

// NewNPPESClient returns a client for baseURL. A zero timeout means 30s.
func NewNPPESClient(baseURL string, timeout time.Duration) *NPPESClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &NPPESClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// ByNPI looks up a single NPI.
func (c *NPPESClient) ByNPI(ctx context.Context, npi string) (*NPPESResponse, error) {
	q := url.Values{}
	q.Set("version", nppesVersion)
	q.Set("number", npi)
	return c.get(ctx, q)
}

// ByName searches type-2 (organization) NPIs by organization name,
// optionally restricted to a state.
func (c *NPPESClient) ByName(ctx context.Context, name, state string) (*NPPESResponse, error) {
	q := url.Values{}
	q.Set("version", nppesVersion)
	q.Set("enumeration_type", "NPI-2")
	q.Set("organization_name", name)
	q.Set("limit", strconv.Itoa(nppesLimit))
	if state != "" {
		q.Set("state", state)
	}
	return c.get(ctx, q)
}

func (c *NPPESClient) get(ctx context.Context, q url.Values) (*NPPESResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out NPPESResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if len(out.Errors) > 0 {
		return nil, fmt.Errorf("registry error: %s", out.Errors[0].Description)
	}
	return &out, nil
}
