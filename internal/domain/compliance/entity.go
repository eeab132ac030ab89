package compliance

import (
	"encoding/json"
	"fmt"
	"time"
)

// RuleID identifier type
type RuleID string

// AssessmentID identifier type
type AssessmentID string

// Severity enum
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Valid reports whether s is one of the known severity levels.
func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// Frequency enum
type Frequency string

const (
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyAnnual    Frequency = "annual"
	FrequencyPerTrip   Frequency = "per_trip"
)

// ViolationType enum
type ViolationType string

const (
	ViolationMissingSubmission  ViolationType = "missing_submission"
	ViolationOverdueSubmission  ViolationType = "overdue_submission"
	ViolationMissingRevenueData ViolationType = "missing_revenue_data"
	ViolationLowRevenue         ViolationType = "low_revenue"
	ViolationMissingTaxFiling   ViolationType = "missing_tax_filing"
	ViolationOverdueTaxFiling   ViolationType = "overdue_tax_filing"
	ViolationUndocumentedTrip   ViolationType = "undocumented_trip"
)

// RuleKind tags the definition variant of a rule.
type RuleKind string

const (
	KindReportSubmission  RuleKind = "report_submission"
	KindRevenueTracking   RuleKind = "revenue_tracking"
	KindTaxCompliance     RuleKind = "tax_compliance"
	KindTripDocumentation RuleKind = "trip_documentation"
)

// Definition is the closed set of rule definitions. Each variant carries the
// parameters its evaluation needs; Evaluate switches exhaustively on the
// concrete type.
type Definition interface {
	Kind() RuleKind
}

// ReportSubmissionDef flags companies whose latest report submission is
// missing or older than the deadline.
type ReportSubmissionDef struct {
	DeadlineDays int `json:"deadline_days"`
}

func (ReportSubmissionDef) Kind() RuleKind { return KindReportSubmission }

// RevenueTrackingDef flags companies whose recent average monthly revenue
// falls below the threshold. Zero threshold means the default applies.
type RevenueTrackingDef struct {
	MinMonthlyRevenue float64 `json:"min_monthly_revenue"`
}

func (RevenueTrackingDef) Kind() RuleKind { return KindRevenueTracking }

// TaxComplianceDef flags companies with missing or stale tax filings.
type TaxComplianceDef struct {
	FilingDeadlineDays int `json:"filing_deadline_days"`
}

func (TaxComplianceDef) Kind() RuleKind { return KindTaxCompliance }

// TripDocumentationDef flags business trips recorded without supporting
// documents.
type TripDocumentationDef struct{}

func (TripDocumentationDef) Kind() RuleKind { return KindTripDocumentation }

type definitionEnvelope struct {
	Type RuleKind `json:"type"`
}

// MarshalDefinition encodes a definition with its type tag.
func MarshalDefinition(d Definition) ([]byte, error) {
	if d == nil {
		return nil, fmt.Errorf("nil rule definition")
	}
	body, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	fields["type"] = d.Kind()
	return json.Marshal(fields)
}

// UnmarshalDefinition decodes a tagged definition back into its variant.
func UnmarshalDefinition(data []byte) (Definition, error) {
	var env definitionEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	switch env.Type {
	case KindReportSubmission:
		var d ReportSubmissionDef
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, err
		}
		return d, nil
	case KindRevenueTracking:
		var d RevenueTrackingDef
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, err
		}
		return d, nil
	case KindTaxCompliance:
		var d TaxComplianceDef
		if err := json.Unmarshal(data, &d); err != nil {
			return nil, err
		}
		return d, nil
	case KindTripDocumentation:
		return TripDocumentationDef{}, nil
	default:
		return nil, fmt.Errorf("unknown rule definition type: %q", env.Type)
	}
}

// Rule is a declarative compliance policy checked against one company's
// snapshot. Immutable for the duration of an evaluation pass.
type Rule struct {
	ID         RuleID     `json:"id"`
	CompanyID  string     `json:"company_id"`
	Name       string     `json:"name"`
	Category   string     `json:"category,omitempty"`
	Severity   Severity   `json:"severity"`
	Frequency  Frequency  `json:"frequency,omitempty"`
	Definition Definition `json:"-"`
	Active     bool       `json:"active"`
	CreatedAt  time.Time  `json:"created_at"`
}

type ruleJSON struct {
	ID         RuleID          `json:"id"`
	CompanyID  string          `json:"company_id"`
	Name       string          `json:"name"`
	Category   string          `json:"category,omitempty"`
	Severity   Severity        `json:"severity"`
	Frequency  Frequency       `json:"frequency,omitempty"`
	Definition json.RawMessage `json:"definition"`
	Active     bool            `json:"active"`
	CreatedAt  time.Time       `json:"created_at"`
}

func (r Rule) MarshalJSON() ([]byte, error) {
	def, err := MarshalDefinition(r.Definition)
	if err != nil {
		return nil, err
	}
	return json.Marshal(ruleJSON{
		ID:         r.ID,
		CompanyID:  r.CompanyID,
		Name:       r.Name,
		Category:   r.Category,
		Severity:   r.Severity,
		Frequency:  r.Frequency,
		Definition: def,
		Active:     r.Active,
		CreatedAt:  r.CreatedAt,
	})
}

func (r *Rule) UnmarshalJSON(data []byte) error {
	var raw ruleJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	def, err := UnmarshalDefinition(raw.Definition)
	if err != nil {
		return err
	}
	*r = Rule{
		ID:         raw.ID,
		CompanyID:  raw.CompanyID,
		Name:       raw.Name,
		Category:   raw.Category,
		Severity:   raw.Severity,
		Frequency:  raw.Frequency,
		Definition: def,
		Active:     raw.Active,
		CreatedAt:  raw.CreatedAt,
	}
	return nil
}

// RevenueEntry is one month of reported revenue.
type RevenueEntry struct {
	Month  string  `json:"month"` // YYYY-MM
	Amount float64 `json:"amount"`
}

// TripRecord is one reported business trip.
type TripRecord struct {
	ID          string     `json:"id"`
	Destination string     `json:"destination"`
	StartDate   time.Time  `json:"start_date"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	Documented  bool       `json:"documented"`
	DocumentURL string     `json:"document_url,omitempty"`
}

// FinancialSnapshot is the read-only input for one evaluation pass.
type FinancialSnapshot struct {
	CompanyID          string         `json:"company_id"`
	LastSubmissionDate *time.Time     `json:"last_submission_date,omitempty"`
	MonthlyRevenue     []RevenueEntry `json:"monthly_revenue,omitempty"`
	LastTaxFilingDate  *time.Time     `json:"last_tax_filing_date,omitempty"`
	Trips              []TripRecord   `json:"trips,omitempty"`
	ReportedAt         time.Time      `json:"reported_at"`
}

// Violation is one concrete rule failure. Never mutated after creation.
type Violation struct {
	RuleID      RuleID        `json:"rule_id"`
	Type        ViolationType `json:"type"`
	Severity    Severity      `json:"severity"`
	Description string        `json:"description"`
	DetectedAt  time.Time     `json:"detected_at"`
	Confidence  float64       `json:"confidence"`
}

// Anomaly is a pattern flagged by the advisor outside the deterministic rules.
type Anomaly struct {
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`
	Confidence  float64  `json:"confidence"`
}

// RecommendationPriority enum
type RecommendationPriority string

const (
	PriorityLow    RecommendationPriority = "low"
	PriorityMedium RecommendationPriority = "medium"
	PriorityHigh   RecommendationPriority = "high"
	PriorityUrgent RecommendationPriority = "urgent"
)

// Valid reports whether p is a known priority.
func (p RecommendationPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Recommendation is one advisor-generated remediation step.
type Recommendation struct {
	Priority    RecommendationPriority `json:"priority"`
	Action      string                 `json:"action"`
	Description string                 `json:"description"`
	Timeline    string                 `json:"timeline,omitempty"`
}

// AnalysisResult is the terminal output of one orchestration call. Sequences
// preserve detection order.
type AnalysisResult struct {
	Violations      []Violation      `json:"violations"`
	Anomalies       []Anomaly        `json:"anomalies"`
	Insights        []string         `json:"insights"`
	RiskScore       int              `json:"risk_score"`
	Recommendations []Recommendation `json:"recommendations"`
}

// Assessment is a persisted analysis result for one company.
type Assessment struct {
	ID              AssessmentID     `json:"id"`
	CompanyID       string           `json:"company_id"`
	RiskScore       int              `json:"risk_score"`
	Violations      []Violation      `json:"violations"`
	Anomalies       []Anomaly        `json:"anomalies"`
	Insights        []string         `json:"insights"`
	Recommendations []Recommendation `json:"recommendations"`
	ArchiveURL      string           `json:"archive_url,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
}
