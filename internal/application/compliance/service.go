package compliance

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jasur93/complyai-itpark/internal/application"
	"github.com/jasur93/complyai-itpark/internal/domain/advisor"
	domain "github.com/jasur93/complyai-itpark/internal/domain/compliance"
)

// DefaultAdvisorTimeout bounds each external advisor call.
const DefaultAdvisorTimeout = 30 * time.Second

// Service implements the analyze-company use cases. Safe for concurrent use;
// all state is request-scoped.
type Service struct {
	Rules       domain.RuleRepository
	Snapshots   domain.SnapshotRepository
	Assessments domain.AssessmentRepository
	Advisor     advisor.Advisor // nil when no credential is configured
	Documents   domain.DocumentStore
	Clock       application.Clock
	Logger      zerolog.Logger

	// AdvisorTimeout overrides DefaultAdvisorTimeout when positive.
	AdvisorTimeout time.Duration
}

// Analyze runs the rule engine and advisor over one snapshot. Advisor
// failures degrade to empty anomalies/recommendations; the call itself only
// fails on invalid input.
func (s *Service) Analyze(ctx context.Context, snap domain.FinancialSnapshot, rules []*domain.Rule) (domain.AnalysisResult, error) {
	if snap.CompanyID == "" {
		return domain.AnalysisResult{}, fmt.Errorf("snapshot has no company id")
	}
	now := s.Clock.Now()

	violations := make([]domain.Violation, 0, len(rules))
	for _, rule := range rules {
		if rule == nil {
			continue
		}
		v, err := domain.Evaluate(*rule, snap, now)
		if err != nil {
			// One broken rule must never abort the batch.
			s.Logger.Warn().Err(err).Str("rule_id", string(rule.ID)).
				Str("company", snap.CompanyID).Msg("rule evaluation failed, skipping")
			continue
		}
		if v != nil {
			violations = append(violations, *v)
		}
	}

	anomalies := s.detectAnomalies(ctx, snap)
	insights := make([]string, 0, len(anomalies))
	for _, a := range anomalies {
		insights = append(insights, fmt.Sprintf("%s: %s", a.Type, a.Description))
	}

	result := domain.AnalysisResult{
		Violations:      violations,
		Anomalies:       anomalies,
		Insights:        insights,
		RiskScore:       domain.Score(violations, anomalies),
		Recommendations: []domain.Recommendation{},
	}

	if len(violations) > 0 && s.Advisor != nil {
		result.Recommendations = s.generateRecommendations(ctx, result)
	}
	return result, nil
}

// AnalyzeCompany loads the company's snapshot and active rules, runs the
// engine, and persists the assessment.
func (s *Service) AnalyzeCompany(ctx context.Context, company string) (*domain.Assessment, error) {
	snap, err := s.Snapshots.Get(ctx, company)
	if err != nil {
		return nil, err
	}
	rules, err := s.Rules.ListActive(ctx, company)
	if err != nil {
		return nil, err
	}

	result, err := s.Analyze(ctx, *snap, rules)
	if err != nil {
		return nil, err
	}

	a := &domain.Assessment{
		ID:              domain.AssessmentID(uuid.New().String()),
		CompanyID:       company,
		RiskScore:       result.RiskScore,
		Violations:      result.Violations,
		Anomalies:       result.Anomalies,
		Insights:        result.Insights,
		Recommendations: result.Recommendations,
		CreatedAt:       s.Clock.Now(),
	}
	a.ArchiveURL = s.archive(ctx, a)

	if err := s.Assessments.Save(ctx, a); err != nil {
		return nil, fmt.Errorf("save assessment: %w", err)
	}
	return a, nil
}

// Get returns one assessment by id.
func (s *Service) Get(ctx context.Context, company string, id domain.AssessmentID) (*domain.Assessment, error) {
	return s.Assessments.Get(ctx, company, id)
}

// Latest returns the most recent assessments for a company.
func (s *Service) Latest(ctx context.Context, company string, limit int) ([]*domain.Assessment, error) {
	return s.Assessments.Latest(ctx, company, limit)
}

// Summary aggregates assessment activity over the last N days.
func (s *Service) Summary(ctx context.Context, company string, sinceDays int) (domain.Summary, error) {
	return s.Assessments.Summary(ctx, company, sinceDays)
}

func (s *Service) advisorTimeout() time.Duration {
	if s.AdvisorTimeout > 0 {
		return s.AdvisorTimeout
	}
	return DefaultAdvisorTimeout
}

func (s *Service) detectAnomalies(ctx context.Context, snap domain.FinancialSnapshot) []domain.Anomaly {
	if s.Advisor == nil {
		return []domain.Anomaly{}
	}
	ctx, cancel := context.WithTimeout(ctx, s.advisorTimeout())
	defer cancel()

	anomalies, err := s.Advisor.DetectAnomalies(ctx, snap)
	if err != nil {
		s.Logger.Warn().Err(err).Str("company", snap.CompanyID).
			Msg("anomaly detection degraded to empty result")
		return []domain.Anomaly{}
	}
	if anomalies == nil {
		anomalies = []domain.Anomaly{}
	}
	return anomalies
}

func (s *Service) generateRecommendations(ctx context.Context, result domain.AnalysisResult) []domain.Recommendation {
	ctx, cancel := context.WithTimeout(ctx, s.advisorTimeout())
	defer cancel()

	recs, err := s.Advisor.GenerateRecommendations(ctx, result)
	if err != nil {
		s.Logger.Warn().Err(err).Msg("recommendation generation degraded to empty result")
		return []domain.Recommendation{}
	}
	if recs == nil {
		recs = []domain.Recommendation{}
	}
	return recs
}

// archive stores the full assessment JSON in the document store. Best effort:
// a missing store or upload failure leaves ArchiveURL empty.
func (s *Service) archive(ctx context.Context, a *domain.Assessment) string {
	if s.Documents == nil {
		return ""
	}
	body, err := json.Marshal(a)
	if err != nil {
		return ""
	}
	key := fmt.Sprintf("%s/assessments/%s.json", a.CompanyID, a.ID)
	url, err := s.Documents.UploadBytes(ctx, key, body, "application/json")
	if err != nil {
		s.Logger.Warn().Err(err).Str("company", a.CompanyID).Msg("assessment archive upload failed")
		return ""
	}
	return url
}
