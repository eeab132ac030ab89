package compliance

import (
	"fmt"
	"strings"
	"time"
)

// DefaultRevenueThreshold applies when a revenue_tracking rule leaves its
// threshold unset.
const DefaultRevenueThreshold = 10000

// Evaluate applies one rule to a snapshot and returns at most one violation.
// A nil violation with nil error means the company is compliant for this
// rule. Errors are recoverable per rule: callers log them and continue the
// batch.
func Evaluate(rule Rule, snap FinancialSnapshot, now time.Time) (*Violation, error) {
	switch def := rule.Definition.(type) {
	case ReportSubmissionDef:
		return evaluateReportSubmission(rule, def, snap, now), nil
	case RevenueTrackingDef:
		return evaluateRevenueTracking(rule, def, snap, now), nil
	case TaxComplianceDef:
		return evaluateTaxCompliance(rule, def, snap, now), nil
	case TripDocumentationDef:
		return evaluateTripDocumentation(rule, snap, now), nil
	case nil:
		return nil, fmt.Errorf("rule %s has no definition", rule.ID)
	default:
		return nil, fmt.Errorf("rule %s: unsupported definition type %q", rule.ID, rule.Definition.Kind())
	}
}

func evaluateReportSubmission(rule Rule, def ReportSubmissionDef, snap FinancialSnapshot, now time.Time) *Violation {
	if snap.LastSubmissionDate == nil {
		return &Violation{
			RuleID:      rule.ID,
			Type:        ViolationMissingSubmission,
			Severity:    rule.Severity,
			Description: "No report submission on record",
			DetectedAt:  now,
			Confidence:  1.0,
		}
	}
	daysSince := int(now.Sub(*snap.LastSubmissionDate).Hours() / 24)
	if daysSince > def.DeadlineDays {
		overdue := daysSince - def.DeadlineDays
		return &Violation{
			RuleID:      rule.ID,
			Type:        ViolationOverdueSubmission,
			Severity:    rule.Severity,
			Description: fmt.Sprintf("Report submission is %d days overdue (last submitted %d days ago, deadline %d days)", overdue, daysSince, def.DeadlineDays),
			DetectedAt:  now,
			Confidence:  1.0,
		}
	}
	return nil
}

func evaluateRevenueTracking(rule Rule, def RevenueTrackingDef, snap FinancialSnapshot, now time.Time) *Violation {
	if len(snap.MonthlyRevenue) == 0 {
		return &Violation{
			RuleID:      rule.ID,
			Type:        ViolationMissingRevenueData,
			Severity:    rule.Severity,
			Description: "No monthly revenue data on record",
			DetectedAt:  now,
			Confidence:  1.0,
		}
	}
	threshold := def.MinMonthlyRevenue
	if threshold <= 0 {
		threshold = DefaultRevenueThreshold
	}
	entries := snap.MonthlyRevenue
	if len(entries) > 3 {
		entries = entries[len(entries)-3:]
	}
	var sum float64
	for _, e := range entries {
		sum += e.Amount
	}
	avg := sum / float64(len(entries))
	if avg < threshold {
		// Low revenue is a signal, not proof of non-compliance: severity is
		// pinned to medium regardless of the rule's own level.
		return &Violation{
			RuleID:      rule.ID,
			Type:        ViolationLowRevenue,
			Severity:    SeverityMedium,
			Description: fmt.Sprintf("Average monthly revenue %.2f over the last %d months is below the %.2f threshold", avg, len(entries), threshold),
			DetectedAt:  now,
			Confidence:  0.85,
		}
	}
	return nil
}

func evaluateTaxCompliance(rule Rule, def TaxComplianceDef, snap FinancialSnapshot, now time.Time) *Violation {
	if snap.LastTaxFilingDate == nil {
		return &Violation{
			RuleID:      rule.ID,
			Type:        ViolationMissingTaxFiling,
			Severity:    rule.Severity,
			Description: "No tax filing on record",
			DetectedAt:  now,
			Confidence:  1.0,
		}
	}
	daysSince := int(now.Sub(*snap.LastTaxFilingDate).Hours() / 24)
	if def.FilingDeadlineDays > 0 && daysSince > def.FilingDeadlineDays {
		return &Violation{
			RuleID:      rule.ID,
			Type:        ViolationOverdueTaxFiling,
			Severity:    rule.Severity,
			Description: fmt.Sprintf("Tax filing is %d days overdue (last filed %d days ago, deadline %d days)", daysSince-def.FilingDeadlineDays, daysSince, def.FilingDeadlineDays),
			DetectedAt:  now,
			Confidence:  1.0,
		}
	}
	return nil
}

func evaluateTripDocumentation(rule Rule, snap FinancialSnapshot, now time.Time) *Violation {
	var missing []string
	for _, trip := range snap.Trips {
		if !trip.Documented {
			label := trip.ID
			if trip.Destination != "" {
				label = fmt.Sprintf("%s (%s)", trip.ID, trip.Destination)
			}
			missing = append(missing, label)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &Violation{
		RuleID:      rule.ID,
		Type:        ViolationUndocumentedTrip,
		Severity:    rule.Severity,
		Description: fmt.Sprintf("%d business trip(s) without supporting documents: %s", len(missing), strings.Join(missing, ", ")),
		DetectedAt:  now,
		Confidence:  1.0,
	}
}
