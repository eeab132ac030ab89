package compliance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func daysAgo(n int) *time.Time {
	t := now.AddDate(0, 0, -n)
	return &t
}

func TestEvaluate_ReportSubmission_Missing(t *testing.T) {
	rule := Rule{ID: "r1", Severity: SeverityHigh, Definition: ReportSubmissionDef{DeadlineDays: 30}}
	snap := FinancialSnapshot{CompanyID: "acme"}

	v, err := Evaluate(rule, snap, now)
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, ViolationMissingSubmission, v.Type)
	assert.Equal(t, SeverityHigh, v.Severity)
	assert.Equal(t, 1.0, v.Confidence)
	assert.Equal(t, RuleID("r1"), v.RuleID)
	assert.Equal(t, now, v.DetectedAt)
}

func TestEvaluate_ReportSubmission_Overdue(t *testing.T) {
	rule := Rule{ID: "r1", Severity: SeverityHigh, Definition: ReportSubmissionDef{DeadlineDays: 30}}
	snap := FinancialSnapshot{CompanyID: "acme", LastSubmissionDate: daysAgo(40)}

	v, err := Evaluate(rule, snap, now)
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, ViolationOverdueSubmission, v.Type)
	assert.Contains(t, v.Description, "10 days overdue")
	assert.Equal(t, 1.0, v.Confidence)
}

func TestEvaluate_ReportSubmission_WithinDeadline(t *testing.T) {
	rule := Rule{ID: "r1", Severity: SeverityHigh, Definition: ReportSubmissionDef{DeadlineDays: 30}}
	snap := FinancialSnapshot{CompanyID: "acme", LastSubmissionDate: daysAgo(10)}

	v, err := Evaluate(rule, snap, now)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestEvaluate_RevenueTracking_MissingData(t *testing.T) {
	rule := Rule{ID: "r2", Severity: SeverityCritical, Definition: RevenueTrackingDef{MinMonthlyRevenue: 10000}}
	snap := FinancialSnapshot{CompanyID: "acme"}

	v, err := Evaluate(rule, snap, now)
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, ViolationMissingRevenueData, v.Type)
	assert.Equal(t, SeverityCritical, v.Severity)
	assert.Equal(t, 1.0, v.Confidence)
}

func TestEvaluate_RevenueTracking_LowRevenueForcesMediumSeverity(t *testing.T) {
	// Rule declares critical; the low_revenue violation must still be medium.
	rule := Rule{ID: "r2", Severity: SeverityCritical, Definition: RevenueTrackingDef{MinMonthlyRevenue: 10000}}
	snap := FinancialSnapshot{
		CompanyID: "acme",
		MonthlyRevenue: []RevenueEntry{
			{Month: "2025-03", Amount: 9000},
			{Month: "2025-04", Amount: 8000},
			{Month: "2025-05", Amount: 7000},
		},
	}

	v, err := Evaluate(rule, snap, now)
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, ViolationLowRevenue, v.Type)
	assert.Equal(t, SeverityMedium, v.Severity)
	assert.Equal(t, 0.85, v.Confidence)
}

func TestEvaluate_RevenueTracking_UsesLastThreeEntries(t *testing.T) {
	rule := Rule{ID: "r2", Severity: SeverityHigh, Definition: RevenueTrackingDef{MinMonthlyRevenue: 10000}}
	// Older entries are far below threshold but must be ignored.
	snap := FinancialSnapshot{
		CompanyID: "acme",
		MonthlyRevenue: []RevenueEntry{
			{Month: "2025-01", Amount: 100},
			{Month: "2025-02", Amount: 100},
			{Month: "2025-03", Amount: 12000},
			{Month: "2025-04", Amount: 12000},
			{Month: "2025-05", Amount: 12000},
		},
	}

	v, err := Evaluate(rule, snap, now)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestEvaluate_RevenueTracking_DefaultThreshold(t *testing.T) {
	rule := Rule{ID: "r2", Severity: SeverityHigh, Definition: RevenueTrackingDef{}}
	snap := FinancialSnapshot{
		CompanyID:      "acme",
		MonthlyRevenue: []RevenueEntry{{Month: "2025-05", Amount: 8000}},
	}

	v, err := Evaluate(rule, snap, now)
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, ViolationLowRevenue, v.Type)
	assert.Contains(t, v.Description, "10000.00")
}

func TestEvaluate_TaxCompliance(t *testing.T) {
	rule := Rule{ID: "r3", Severity: SeverityHigh, Definition: TaxComplianceDef{FilingDeadlineDays: 90}}

	v, err := Evaluate(rule, FinancialSnapshot{CompanyID: "acme"}, now)
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, ViolationMissingTaxFiling, v.Type)

	v, err = Evaluate(rule, FinancialSnapshot{CompanyID: "acme", LastTaxFilingDate: daysAgo(120)}, now)
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, ViolationOverdueTaxFiling, v.Type)
	assert.Contains(t, v.Description, "30 days overdue")

	v, err = Evaluate(rule, FinancialSnapshot{CompanyID: "acme", LastTaxFilingDate: daysAgo(30)}, now)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestEvaluate_TripDocumentation(t *testing.T) {
	rule := Rule{ID: "r4", Severity: SeverityLow, Definition: TripDocumentationDef{}}
	snap := FinancialSnapshot{
		CompanyID: "acme",
		Trips: []TripRecord{
			{ID: "t1", Destination: "Tashkent", Documented: true},
			{ID: "t2", Destination: "Samarkand", Documented: false},
		},
	}

	v, err := Evaluate(rule, snap, now)
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, ViolationUndocumentedTrip, v.Type)
	assert.Contains(t, v.Description, "t2 (Samarkand)")
	assert.NotContains(t, v.Description, "t1")

	v, err = Evaluate(rule, FinancialSnapshot{CompanyID: "acme"}, now)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestEvaluate_NilDefinitionIsError(t *testing.T) {
	_, err := Evaluate(Rule{ID: "r5", Severity: SeverityLow}, FinancialSnapshot{CompanyID: "acme"}, now)
	assert.Error(t, err)
}
