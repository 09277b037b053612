package costing

import (
	"sort"
	"strings"

	"github.com/turtacn/KeyIP-CostEngine/pkg/errors"
)

// Jurisdiction is a patent office code.
type Jurisdiction string

const (
	JurisdictionUSPTO Jurisdiction = "USPTO"
	JurisdictionEPO   Jurisdiction = "EPO"
	JurisdictionIPOS  Jurisdiction = "IPOS"
)

// Policy defaults shared by every office unless overridden.
const (
	DefaultFreeClaims       = 15
	DefaultFreePages        = 30
	DefaultPerPageFee       = 50.0
	DefaultBaseTimeline     = 24
	DefaultDesignationCount = 5
)

// DefaultMaintenanceYears is used for offices without a tabulated schedule.
var DefaultMaintenanceYears = []int{4, 8, 12, 16, 20}

// JurisdictionPolicy holds the fixed rules of one office.
type JurisdictionPolicy struct {
	Code     Jurisdiction `mapstructure:"code" json:"code"`
	Name     string       `mapstructure:"name" json:"name"`
	Currency string       `mapstructure:"currency" json:"currency"`
	// GrantCountry is matched against GrantProgram.Country.
	GrantCountry     string `mapstructure:"grant_country" json:"grant_country"`
	MaintenanceYears []int  `mapstructure:"maintenance_years" json:"maintenance_years"`
	FreeClaims       int    `mapstructure:"free_claims" json:"free_claims"`
	FreePages        int    `mapstructure:"free_pages" json:"free_pages"`
	// PerPageFee is in the native currency.
	PerPageFee float64 `mapstructure:"per_page_fee" json:"per_page_fee"`
	// DesignationCount is the assumed number of designated states; zero
	// means the office charges no designation fees.
	DesignationCount   int      `mapstructure:"designation_count" json:"designation_count"`
	EntityTiers        bool     `mapstructure:"entity_tiers" json:"entity_tiers"`
	BaseTimelineMonths int      `mapstructure:"base_timeline_months" json:"base_timeline_months"`
	Aliases            []string `mapstructure:"aliases" json:"aliases,omitempty"`
}

// DueYears returns the maintenance years for the office, filtered to those
// within duration.
func (p JurisdictionPolicy) DueYears(duration int) []int {
	schedule := p.MaintenanceYears
	if len(schedule) == 0 {
		schedule = DefaultMaintenanceYears
	}
	years := make([]int, 0, len(schedule))
	for _, y := range schedule {
		if y <= duration {
			years = append(years, y)
		}
	}
	return years
}

func (p JurisdictionPolicy) withDefaults() JurisdictionPolicy {
	if p.FreeClaims <= 0 {
		p.FreeClaims = DefaultFreeClaims
	}
	if p.FreePages <= 0 {
		p.FreePages = DefaultFreePages
	}
	if p.PerPageFee <= 0 {
		p.PerPageFee = DefaultPerPageFee
	}
	if p.BaseTimelineMonths <= 0 {
		p.BaseTimelineMonths = DefaultBaseTimeline
	}
	if p.Currency == "" {
		p.Currency = ReportingCurrency
	}
	return p
}

// DefaultPolicies returns the built-in office rules.
func DefaultPolicies() []JurisdictionPolicy {
	epoYears := make([]int, 0, 18)
	for y := 3; y <= 20; y++ {
		epoYears = append(epoYears, y)
	}
	return []JurisdictionPolicy{
		{
			Code:               JurisdictionUSPTO,
			Name:               "United States Patent and Trademark Office",
			Currency:           "USD",
			GrantCountry:       "USA",
			MaintenanceYears:   []int{4, 8, 12},
			FreeClaims:         DefaultFreeClaims,
			FreePages:          DefaultFreePages,
			PerPageFee:         DefaultPerPageFee,
			EntityTiers:        true,
			BaseTimelineMonths: 24,
			Aliases:            []string{"US", "USA"},
		},
		{
			Code:               JurisdictionEPO,
			Name:               "European Patent Office",
			Currency:           "EUR",
			GrantCountry:       "EU",
			MaintenanceYears:   epoYears,
			FreeClaims:         DefaultFreeClaims,
			FreePages:          DefaultFreePages,
			PerPageFee:         DefaultPerPageFee,
			DesignationCount:   DefaultDesignationCount,
			BaseTimelineMonths: 30,
			Aliases:            []string{"EP", "EU"},
		},
		{
			Code:               JurisdictionIPOS,
			Name:               "Intellectual Property Office of Singapore",
			Currency:           "SGD",
			GrantCountry:       "Singapore",
			MaintenanceYears:   []int{5, 10, 15, 20},
			FreeClaims:         DefaultFreeClaims,
			FreePages:          DefaultFreePages,
			PerPageFee:         DefaultPerPageFee,
			BaseTimelineMonths: 18,
			Aliases:            []string{"SG", "SGP", "SINGAPORE"},
		},
	}
}

// PolicyRegistry resolves jurisdiction codes and aliases to their policy.
type PolicyRegistry struct {
	policies map[Jurisdiction]JurisdictionPolicy
	aliases  map[string]Jurisdiction
}

// NewPolicyRegistry creates a registry from the given policies. Missing
// thresholds are filled with package defaults.
func NewPolicyRegistry(policies ...JurisdictionPolicy) *PolicyRegistry {
	r := &PolicyRegistry{
		policies: make(map[Jurisdiction]JurisdictionPolicy, len(policies)),
		aliases:  make(map[string]Jurisdiction),
	}
	for _, p := range policies {
		p.Code = Jurisdiction(strings.ToUpper(string(p.Code)))
		r.policies[p.Code] = p.withDefaults()
		for _, a := range p.Aliases {
			r.aliases[strings.ToUpper(a)] = p.Code
		}
	}
	return r
}

// DefaultRegistry returns a registry holding DefaultPolicies.
func DefaultRegistry() *PolicyRegistry {
	return NewPolicyRegistry(DefaultPolicies()...)
}

// Normalize converts a code or alias to a registered Jurisdiction.
func (r *PolicyRegistry) Normalize(code string) (Jurisdiction, error) {
	upper := strings.ToUpper(strings.TrimSpace(code))
	if _, ok := r.policies[Jurisdiction(upper)]; ok {
		return Jurisdiction(upper), nil
	}
	if j, ok := r.aliases[upper]; ok {
		return j, nil
	}
	return "", errors.New(errors.ErrCodeJurisdictionUnsupported, "unsupported jurisdiction").WithDetail(code)
}

// Get returns the policy for j.
func (r *PolicyRegistry) Get(j Jurisdiction) (JurisdictionPolicy, bool) {
	p, ok := r.policies[j]
	return p, ok
}

// MustGet returns the policy for j, or a default policy carrying only the
// code when j is not registered.
func (r *PolicyRegistry) MustGet(j Jurisdiction) JurisdictionPolicy {
	if p, ok := r.policies[j]; ok {
		return p
	}
	return JurisdictionPolicy{Code: j}.withDefaults()
}

// List returns all registered policies sorted by code.
func (r *PolicyRegistry) List() []JurisdictionPolicy {
	list := make([]JurisdictionPolicy, 0, len(r.policies))
	for _, p := range r.policies {
		list = append(list, p)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Code < list[j].Code })
	return list
}

// Codes returns every registered jurisdiction code, sorted.
func (r *PolicyRegistry) Codes() []Jurisdiction {
	list := r.List()
	codes := make([]Jurisdiction, len(list))
	for i, p := range list {
		codes[i] = p.Code
	}
	return codes
}

//Personal.AI order the ending
