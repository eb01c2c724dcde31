package facility

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/soyeahso/agentchat/internal/hooks"
	"github.com/soyeahso/agentchat/internal/logging"
	"github.com/soyeahso/agentchat/internal/metrics"
)

// Tool names, shared by the MCP server and the CLI.
const (
	ToolFacilityProfile = "get_facility_profile_by_npi"
	ToolFacilityType    = "get_facility_type_by_npi"
	ToolRelatedNPIs     = "get_related_npis"
	ToolCCNByName       = "get_ccn_by_hospital_name"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"

	relatedThreshold = 70.0
	ccnThreshold     = 60.0
	ccnLimit         = 5
)

var npiPattern = regexp.MustCompile(`^\d{10}$`)

// Response is the result of every lookup. Failures are reported in
// ErrorMessage with Status "error" rather than as Go errors, so callers
// can hand the value to an agent unchanged.
type Response struct {
	Status       string `json:"status"`
	Report       string `json:"report,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
	Data         any    `json:"data,omitempty"`
}

// OK reports whether the lookup succeeded.
func (r Response) OK() bool { return r.Status == StatusSuccess }

func errorResponse(format string, args ...any) Response {
	return Response{Status: StatusError, ErrorMessage: fmt.Sprintf(format, args...)}
}

// FacilityInfo describes one NPI.
type FacilityInfo struct {
	Name  string   `json:"name"`
	NPI   string   `json:"npi"`
	Kinds []string `json:"kinds"`
	City  string   `json:"city"`
	State string   `json:"state"`
}

// RelatedNPI is a sibling or subpart of the queried organization.
type RelatedNPI struct {
	NPI       string   `json:"npi"`
	Name      string   `json:"name"`
	Kinds     []string `json:"kinds"`
	City      string   `json:"city"`
	IsSubpart string   `json:"is_subpart"`
}

// RelatedData is the payload of RelatedNPIs.
type RelatedData struct {
	QueryNPI    string       `json:"query_npi"`
	RelatedNPIs []RelatedNPI `json:"related_npis"`
}

// ProfileData is the payload of Profile. Related is nil when the related
// lookup failed.
type ProfileData struct {
	Facility FacilityInfo `json:"facility"`
	Related  *RelatedData `json:"related,omitempty"`
}

// CCNMatch is one CMS hospital matching a name search.
type CCNMatch struct {
	CCN          string  `json:"ccn"`
	Name         string  `json:"name"`
	Address      string  `json:"address"`
	City         string  `json:"city"`
	State        string  `json:"state"`
	ZIP          string  `json:"zip"`
	HospitalType string  `json:"hospital_type"`
	MatchScore   float64 `json:"match_score"`
}

// CCNData is the payload of CCNByName.
type CCNData struct {
	Matches []CCNMatch `json:"matches"`
}

// Registry is the subset of NPPESClient the service needs.
type Registry interface {
	ByNPI(ctx context.Context, npi string) (*NPPESResponse, error)
	ByName(ctx context.Context, name, state string) (*NPPESResponse, error)
}

// Hospitals supplies the CMS hospital list.
type Hospitals interface {
	Hospitals(ctx context.Context) []Hospital
}

// LookupRecorder keeps a history of tool calls.
type LookupRecorder interface {
	RecordLookup(ctx context.Context, tool, query, status string) error
}

// Service implements the facility tools.
type Service struct {
	registry  Registry
	hospitals Hospitals
	log       *logging.Logger
	metrics   *metrics.Metrics
	hooks     *hooks.Manager
	recorder  LookupRecorder
}

// Option configures a Service.
type Option func(*Service)

// WithMetrics counts tool calls by status.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithHooks emits facility_lookup events.
func WithHooks(hm *hooks.Manager) Option {
	return func(s *Service) { s.hooks = hm }
}

// WithRecorder stores each tool call.
func WithRecorder(r LookupRecorder) Option {
	return func(s *Service) { s.recorder = r }
}

// NewService wires a Service.
func NewService(reg Registry, hospitals Hospitals, log *logging.Logger, opts ...Option) *Service {
	s := &Service{
		registry:  reg,
		hospitals: hospitals,
		log:       log.Sub("facility"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) finish(ctx context.Context, tool, query string, r Response) Response {
	s.metrics.RecordFacility(tool, r.Status)
	s.log.Debug().Str("tool", tool).Str("query", query).Str("status", r.Status).Msg("facility lookup")
	if s.recorder != nil {
		if err := s.recorder.RecordLookup(ctx, tool, query, r.Status); err != nil {
			s.log.Warn().Err(err).Msg("recording lookup failed")
		}
	}
	if s.hooks != nil {
		s.hooks.EmitAsync(ctx, hooks.EventFacilityLookup, map[string]any{
			"tool":   tool,
			"query":  query,
			"status": r.Status,
		})
	}
	return r
}

// lookupNPI validates npi and fetches its registry record.
func (s *Service) lookupNPI(ctx context.Context, npi string) (Provider, string, *Response) {
	npi = strings.TrimSpace(npi)
	if !npiPattern.MatchString(npi) {
		r := errorResponse("Provide a valid 10-digit NPI.")
		return Provider{}, npi, &r
	}
	data, err := s.registry.ByNPI(ctx, npi)
	if err != nil {
		r := errorResponse("NPPES lookup failed: %v", err)
		return Provider{}, npi, &r
	}
	if len(data.Results) == 0 {
		r := errorResponse("No NPPES match for NPI %s.", npi)
		return Provider{}, npi, &r
	}
	return data.Results[0], npi, nil
}

// FacilityType classifies a 10-digit NPI.
func (s *Service) FacilityType(ctx context.Context, npi string) Response {
	return s.finish(ctx, ToolFacilityType, npi, s.facilityType(ctx, npi))
}

func (s *Service) facilityType(ctx context.Context, npi string) Response {
	org, _, fail := s.lookupNPI(ctx, npi)
	if fail != nil {
		return *fail
	}

	addr := org.FirstAddress()
	info := FacilityInfo{
		Name:  org.Basic.LegalBusinessName,
		NPI:   string(org.Number),
		Kinds: Classify(org),
		City:  addr.City,
		State: addr.State,
	}
	return Response{
		Status: StatusSuccess,
		Report: fmt.Sprintf("%s (NPI %s) is classified as: %s in %s, %s.",
			info.Name, info.NPI, strings.Join(info.Kinds, ", "), info.City, info.State),
		Data: info,
	}
}

// RelatedNPIs finds NPIs registered under the same legal business name or
// parent organization, kept when the name (and city, if known) match
// closely enough.
func (s *Service) RelatedNPIs(ctx context.Context, npi string) Response {
	return s.finish(ctx, ToolRelatedNPIs, npi, s.relatedNPIs(ctx, npi))
}

func (s *Service) relatedNPIs(ctx context.Context, npi string) Response {
	org, npi, fail := s.lookupNPI(ctx, npi)
	if fail != nil {
		return *fail
	}

	lbn := org.Basic.LegalBusinessName
	targetCity := org.FirstAddress().City

	var queries []string
	for _, q := range []string{lbn, org.Basic.ParentOrganizationLBN} {
		if q != "" && (len(queries) == 0 || queries[0] != q) {
			queries = append(queries, q)
		}
	}

	seen := make(map[string]bool)
	var candidates []Provider
	for _, q := range queries {
		res, err := s.registry.ByName(ctx, q, "")
		if err != nil {
			s.log.Debug().Err(err).Str("name", q).Msg("related name search failed")
			continue
		}
		for _, p := range res.Results {
			n := string(p.Number)
			if n == "" || seen[n] {
				continue
			}
			seen[n] = true
			candidates = append(candidates, p)
		}
	}

	related := make([]RelatedNPI, 0, len(candidates))
	for _, p := range candidates {
		city := p.FirstAddress().City
		score := TokenSetRatio(p.Basic.LegalBusinessName, lbn)
		if targetCity != "" {
			score = (score + PartialRatio(city, targetCity)) / 2
		}
		if score < relatedThreshold {
			continue
		}
		related = append(related, RelatedNPI{
			NPI:       string(p.Number),
			Name:      p.DisplayName(),
			Kinds:     Classify(p),
			City:      city,
			IsSubpart: p.Basic.OrganizationalSubpart,
		})
	}

	return Response{
		Status: StatusSuccess,
		Report: fmt.Sprintf("Found %d related NPIs for %s.", len(related), npi),
		Data:   RelatedData{QueryNPI: npi, RelatedNPIs: related},
	}
}

// CCNByName searches the CMS hospital list for name, optionally within a
// two-letter state, returning up to five matches scoring at least 60.
func (s *Service) CCNByName(ctx context.Context, name, state string) Response {
	query := name
	if state != "" {
		query += " [" + state + "]"
	}
	return s.finish(ctx, ToolCCNByName, query, s.ccnByName(ctx, name, state))
}

func (s *Service) ccnByName(ctx context.Context, name, state string) Response {
	if strings.TrimSpace(name) == "" {
		return errorResponse("Provide a hospital name.")
	}

	all := s.hospitals.Hospitals(ctx)
	if len(all) == 0 {
		return errorResponse("CMS Hospital Database could not be loaded. Please try again later.")
	}

	matches := searchHospitals(all, name, state)
	if len(matches) == 0 {
		msg := fmt.Sprintf("No hospitals found matching '%s'", name)
		if state != "" {
			msg += " in state " + state
		}
		return Response{Status: StatusSuccess, Report: msg + ".", Data: CCNData{Matches: []CCNMatch{}}}
	}

	top := matches[0]
	return Response{
		Status: StatusSuccess,
		Report: fmt.Sprintf("Found %d matches. Top match: %s (CCN: %s) in %s, %s.",
			len(matches), top.Name, top.CCN, top.City, top.State),
		Data: CCNData{Matches: matches},
	}
}

// searchHospitals ranks hospitals by token-set similarity to name, takes
// the best five and drops those under the threshold. Ties keep file order.
func searchHospitals(all []Hospital, name, state string) []CCNMatch {
	state = strings.ToUpper(strings.TrimSpace(state))
	query := strings.ToUpper(name)

	type scored struct {
		h     Hospital
		score float64
	}
	var ranked []scored
	for _, h := range all {
		if state != "" && h.State != state {
			continue
		}
		ranked = append(ranked, scored{h, TokenSetRatio(query, h.Name)})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
	if len(ranked) > ccnLimit {
		ranked = ranked[:ccnLimit]
	}

	var out []CCNMatch
	for _, r := range ranked {
		if r.score < ccnThreshold {
			continue
		}
		out = append(out, CCNMatch{
			CCN:          r.h.CCN,
			Name:         r.h.Name,
			Address:      r.h.Address,
			City:         r.h.City,
			State:        r.h.State,
			ZIP:          r.h.ZIP,
			HospitalType: r.h.HospitalType,
			MatchScore:   r.score,
		})
	}
	return out
}

// Profile combines FacilityType and RelatedNPIs. A failed related lookup
// still returns the facility information.
func (s *Service) Profile(ctx context.Context, npi string) Response {
	return s.finish(ctx, ToolFacilityProfile, npi, s.profile(ctx, npi))
}

func (s *Service) profile(ctx context.Context, npi string) Response {
	npi = strings.TrimSpace(npi)
	if !npiPattern.MatchString(npi) {
		return errorResponse("Provide a valid 10-digit NPI.")
	}

	info := s.facilityType(ctx, npi)
	if !info.OK() {
		return info
	}
	out := ProfileData{Facility: info.Data.(FacilityInfo)}

	rel := s.relatedNPIs(ctx, npi)
	if !rel.OK() {
		return Response{
			Status: StatusSuccess,
			Report: info.Report + " No related NPIs returned.",
			Data:   out,
		}
	}
	related := rel.Data.(RelatedData)
	out.Related = &related
	return Response{
		Status: StatusSuccess,
		Report: fmt.Sprintf("%s Related NPIs found: %d.", info.Report, len(related.RelatedNPIs)),
		Data:   out,
	}
}
