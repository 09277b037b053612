package client

import "time"

// StrategicContext is optional applicant context used by narrative insights.
type StrategicContext struct {
	Industry         string `json:"industry,omitempty"`
	BusinessStage    string `json:"business_stage,omitempty"`
	CompanyName      string `json:"company_name,omitempty"`
	PressingQuestion string `json:"pressing_question,omitempty"`
}

// CalculationInput describes a filing plan. Only Jurisdictions is required;
// the server fills defaults for the rest.
type CalculationInput struct {
	IPType              string            `json:"ip_type,omitempty"`
	Jurisdictions       []string          `json:"jurisdictions"`
	EntityType          string            `json:"entity_type,omitempty"`
	Complexity          string            `json:"solution_complexity,omitempty"`
	ProtectionDuration  int               `json:"protection_duration,omitempty"`
	ClaimCount          int               `json:"claim_count,omitempty"`
	PageCount           int               `json:"page_count,omitempty"`
	IndustrySector      string            `json:"industry_sector,omitempty"`
	CompanySize         string            `json:"company_size,omitempty"`
	BusinessDescription string            `json:"business_description,omitempty"`
	Context             *StrategicContext `json:"strategic_context,omitempty"`
	SkipSearchFees      bool              `json:"skip_search_fees,omitempty"`
}

type calculateRequest struct {
	CalculationInput
	Email string `json:"email,omitempty"`
}

// CostBreakdown is one office's cost split in the reporting currency.
type CostBreakdown struct {
	Filing          float64 `json:"filing"`
	Search          float64 `json:"search"`
	Examination     float64 `json:"examination"`
	Issue           float64 `json:"issue"`
	Maintenance     float64 `json:"maintenance"`
	ClaimsExtra     float64 `json:"claims_extra"`
	PagesExtra      float64 `json:"pages_extra"`
	Designations    float64 `json:"designations"`
	Total           float64 `json:"total"`
	DiscountedTotal float64 `json:"discounted_total"`
}

type TimelineEntry struct {
	Year        int     `json:"year"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	FeeType     string  `json:"fee_type"`
	IsRequired  bool    `json:"is_required"`
}

type MonthRange struct {
	Min     int `json:"min"`
	Max     int `json:"max"`
	Average int `json:"average"`
}

type TimelineEstimate struct {
	FilingToGrant    MonthRange `json:"filing_to_grant"`
	TotalTimeline    MonthRange `json:"total_timeline"`
	ProsecutionDelay int        `json:"prosecution_delays"`
	IndustryFactor   float64    `json:"industry_factor"`
}

type JurisdictionCost struct {
	Jurisdiction   string           `json:"jurisdiction"`
	NativeCurrency string           `json:"native_currency"`
	Costs          CostBreakdown    `json:"costs"`
	Timeline       []TimelineEntry  `json:"timeline"`
	Duration       TimelineEstimate `json:"duration"`
	DataComplete   bool             `json:"data_complete"`
}

type YearCost struct {
	Year int     `json:"year"`
	Cost float64 `json:"cost"`
}

type Insight struct {
	Type       string  `json:"type"`
	Title      string  `json:"title"`
	Message    string  `json:"message"`
	Priority   string  `json:"priority"`
	Confidence float64 `json:"confidence_score"`
	Actionable bool    `json:"actionable"`
}

// Assumption flags a part of the result computed with degraded data.
type Assumption struct {
	Kind         string `json:"kind"`
	Jurisdiction string `json:"jurisdiction,omitempty"`
	IPType       string `json:"ip_type,omitempty"`
	Message      string `json:"message"`
}

// Result is the full calculation output. Fields the SDK does not model are
// dropped on decode.
type Result struct {
	ReportingCurrency string             `json:"reporting_currency"`
	TotalCost         float64            `json:"total_cost"`
	TotalWithGrants   float64            `json:"total_with_grants"`
	PotentialSavings  float64            `json:"potential_savings"`
	PerJurisdiction   []JurisdictionCost `json:"per_jurisdiction"`
	Timeline          TimelineEstimate   `json:"timeline"`
	YearlyCashflow    []YearCost         `json:"yearly_cashflow"`
	CashFlowAlerts    []string           `json:"cash_flow_alerts"`
	Insights          []Insight          `json:"insights"`
	RiskScore         float64            `json:"risk_score"`
	SuggestedStrategy string             `json:"suggested_strategy"`
	ExchangeRatesUsed map[string]float64 `json:"exchange_rates_used"`
	Assumptions       []Assumption       `json:"assumptions"`
	CalculatedAt      time.Time          `json:"calculated_at"`
}

// Calculation is a stored calculation.
type Calculation struct {
	ID         string           `json:"id"`
	Email      string           `json:"email,omitempty"`
	Status     string           `json:"status"`
	Input      CalculationInput `json:"input"`
	Result     *Result          `json:"result"`
	ArchiveKey string           `json:"archive_key,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// CalculationUpdate changes a stored calculation. Nil fields are untouched.
type CalculationUpdate struct {
	Email  *string `json:"email,omitempty"`
	Status *string `json:"status,omitempty"`
}

type JurisdictionTotal struct {
	Jurisdiction string  `json:"jurisdiction"`
	Total        float64 `json:"total"`
}

// Preview is the free reduced view of a calculation.
type Preview struct {
	TotalCost       float64             `json:"total_cost"`
	PerJurisdiction []JurisdictionTotal `json:"per_jurisdiction"`
	YearlyCashflow  []YearCost          `json:"yearly_cashflow"`
	CashFlowAlerts  []string            `json:"cash_flow_alerts"`
	Timeline        TimelineEstimate    `json:"timeline"`
	GenericInsight  string              `json:"generic_insight"`
	UpgradeTeaser   string              `json:"upgrade_teaser"`
	Assumptions     []Assumption        `json:"assumptions"`
}

// FeeRecord is one row of an official fee schedule, in the office's currency.
type FeeRecord struct {
	ID                string     `json:"id"`
	Jurisdiction      string     `json:"jurisdiction"`
	IPType            string     `json:"ip_type"`
	Category          string     `json:"category"`
	Stage             string     `json:"lifecycle_stage"`
	Currency          string     `json:"currency"`
	Amount            *float64   `json:"amount,omitempty"`
	StandardAmount    *float64   `json:"standard_amount,omitempty"`
	SmallEntityAmount *float64   `json:"small_entity_amount,omitempty"`
	MicroEntityAmount *float64   `json:"micro_entity_amount,omitempty"`
	EffectiveDate     time.Time  `json:"effective_date"`
	ExpirationDate    *time.Time `json:"expiration_date,omitempty"`
	YearDue           *int       `json:"year_due,omitempty"`
	Description       string     `json:"description,omitempty"`
}

type feeListResponse struct {
	IPType string      `json:"ip_type"`
	Count  int         `json:"count"`
	Fees   []FeeRecord `json:"fees"`
}

// Jurisdiction describes a supported patent office.
type Jurisdiction struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Currency string `json:"currency"`
}

type jurisdictionListResponse struct {
	Jurisdictions []Jurisdiction `json:"jurisdictions"`
}

//Personal.AI order the ending
