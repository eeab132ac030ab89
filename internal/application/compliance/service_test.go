package compliance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	domain "github.com/jasur93/complyai-itpark/internal/domain/compliance"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type mockAdvisor struct{ mock.Mock }

func (m *mockAdvisor) DetectAnomalies(ctx context.Context, snap domain.FinancialSnapshot) ([]domain.Anomaly, error) {
	args := m.Called(ctx, snap)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Anomaly), args.Error(1)
}

func (m *mockAdvisor) GenerateRecommendations(ctx context.Context, result domain.AnalysisResult) ([]domain.Recommendation, error) {
	args := m.Called(ctx, result)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Recommendation), args.Error(1)
}

type mockSnapshots struct{ mock.Mock }

func (m *mockSnapshots) Save(ctx context.Context, s *domain.FinancialSnapshot) error {
	return m.Called(ctx, s).Error(0)
}

func (m *mockSnapshots) Get(ctx context.Context, company string) (*domain.FinancialSnapshot, error) {
	args := m.Called(ctx, company)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FinancialSnapshot), args.Error(1)
}

type mockRules struct{ mock.Mock }

func (m *mockRules) Save(ctx context.Context, r *domain.Rule) error { return m.Called(ctx, r).Error(0) }
func (m *mockRules) Get(ctx context.Context, company string, id domain.RuleID) (*domain.Rule, error) {
	args := m.Called(ctx, company, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Rule), args.Error(1)
}
func (m *mockRules) List(ctx context.Context, company string) ([]*domain.Rule, error) {
	args := m.Called(ctx, company)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Rule), args.Error(1)
}
func (m *mockRules) ListActive(ctx context.Context, company string) ([]*domain.Rule, error) {
	args := m.Called(ctx, company)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Rule), args.Error(1)
}
func (m *mockRules) Delete(ctx context.Context, company string, id domain.RuleID) error {
	return m.Called(ctx, company, id).Error(0)
}

type mockAssessments struct{ mock.Mock }

func (m *mockAssessments) Save(ctx context.Context, a *domain.Assessment) error {
	return m.Called(ctx, a).Error(0)
}
func (m *mockAssessments) Get(ctx context.Context, company string, id domain.AssessmentID) (*domain.Assessment, error) {
	args := m.Called(ctx, company, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Assessment), args.Error(1)
}
func (m *mockAssessments) Latest(ctx context.Context, company string, limit int) ([]*domain.Assessment, error) {
	args := m.Called(ctx, company, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Assessment), args.Error(1)
}
func (m *mockAssessments) Summary(ctx context.Context, company string, sinceDays int) (domain.Summary, error) {
	args := m.Called(ctx, company, sinceDays)
	return args.Get(0).(domain.Summary), args.Error(1)
}

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func newService() *Service {
	return &Service{
		Clock:  fixedClock{t: testNow},
		Logger: zerolog.Nop(),
	}
}

func TestAnalyze_EmptyInput(t *testing.T) {
	svc := newService()

	result, err := svc.Analyze(context.Background(), domain.FinancialSnapshot{CompanyID: "acme"}, nil)
	require.NoError(t, err)
	assert.Empty(t, result.Violations)
	assert.Empty(t, result.Anomalies)
	assert.Empty(t, result.Insights)
	assert.Empty(t, result.Recommendations)
	assert.Equal(t, 0, result.RiskScore)
}

func TestAnalyze_MissingCompanyID(t *testing.T) {
	svc := newService()
	_, err := svc.Analyze(context.Background(), domain.FinancialSnapshot{}, nil)
	assert.Error(t, err)
}

func TestAnalyze_NoAdvisorScoresFromRulesOnly(t *testing.T) {
	svc := newService()
	rules := []*domain.Rule{
		{ID: "r1", Severity: domain.SeverityHigh, Definition: domain.ReportSubmissionDef{DeadlineDays: 30}},
	}

	result, err := svc.Analyze(context.Background(), domain.FinancialSnapshot{CompanyID: "acme"}, rules)
	require.NoError(t, err)
	require.Len(t, result.Violations, 1)
	assert.Equal(t, domain.ViolationMissingSubmission, result.Violations[0].Type)
	assert.Equal(t, 15, result.RiskScore)
	assert.Empty(t, result.Insights)
	assert.Empty(t, result.Recommendations)
}

func TestAnalyze_BrokenRuleDoesNotAbortBatch(t *testing.T) {
	svc := newService()
	rules := []*domain.Rule{
		{ID: "broken", Severity: domain.SeverityHigh}, // no definition
		nil,
		{ID: "r1", Severity: domain.SeverityLow, Definition: domain.ReportSubmissionDef{DeadlineDays: 30}},
	}

	result, err := svc.Analyze(context.Background(), domain.FinancialSnapshot{CompanyID: "acme"}, rules)
	require.NoError(t, err)
	require.Len(t, result.Violations, 1)
	assert.Equal(t, domain.RuleID("r1"), result.Violations[0].RuleID)
}

func TestAnalyze_AdvisorFailureDegradesToEmpty(t *testing.T) {
	adv := new(mockAdvisor)
	adv.On("DetectAnomalies", mock.Anything, mock.Anything).Return(nil, errors.New("endpoint unreachable"))
	adv.On("GenerateRecommendations", mock.Anything, mock.Anything).Return(nil, errors.New("endpoint unreachable"))

	svc := newService()
	svc.Advisor = adv
	rules := []*domain.Rule{
		{ID: "r1", Severity: domain.SeverityCritical, Definition: domain.ReportSubmissionDef{DeadlineDays: 30}},
	}

	result, err := svc.Analyze(context.Background(), domain.FinancialSnapshot{CompanyID: "acme"}, rules)
	require.NoError(t, err)
	assert.Len(t, result.Violations, 1)
	assert.Empty(t, result.Anomalies)
	assert.Empty(t, result.Recommendations)
	assert.Equal(t, 25, result.RiskScore)
	adv.AssertExpectations(t)
}

func TestAnalyze_AnomaliesFeedScoreAndInsights(t *testing.T) {
	adv := new(mockAdvisor)
	adv.On("DetectAnomalies", mock.Anything, mock.Anything).Return([]domain.Anomaly{
		{Type: "revenue_drop", Description: "Sharp decline in monthly revenue", Severity: domain.SeverityHigh, Confidence: 1.0},
	}, nil)

	svc := newService()
	svc.Advisor = adv

	result, err := svc.Analyze(context.Background(), domain.FinancialSnapshot{CompanyID: "acme"}, nil)
	require.NoError(t, err)
	require.Len(t, result.Anomalies, 1)
	require.Len(t, result.Insights, 1)
	assert.Contains(t, result.Insights[0], "revenue_drop")
	assert.Equal(t, 12, result.RiskScore)
	// No violations, so recommendations are not requested.
	assert.Empty(t, result.Recommendations)
	adv.AssertNotCalled(t, "GenerateRecommendations", mock.Anything, mock.Anything)
}

func TestAnalyze_RecommendationsOnlyWithViolations(t *testing.T) {
	adv := new(mockAdvisor)
	adv.On("DetectAnomalies", mock.Anything, mock.Anything).Return([]domain.Anomaly{}, nil)
	adv.On("GenerateRecommendations", mock.Anything, mock.Anything).Return([]domain.Recommendation{
		{Priority: domain.PriorityUrgent, Action: "Submit the overdue report", Timeline: "1 week"},
	}, nil)

	svc := newService()
	svc.Advisor = adv
	rules := []*domain.Rule{
		{ID: "r1", Severity: domain.SeverityHigh, Definition: domain.ReportSubmissionDef{DeadlineDays: 30}},
	}

	result, err := svc.Analyze(context.Background(), domain.FinancialSnapshot{CompanyID: "acme"}, rules)
	require.NoError(t, err)
	require.Len(t, result.Recommendations, 1)
	assert.Equal(t, domain.PriorityUrgent, result.Recommendations[0].Priority)
	adv.AssertExpectations(t)
}

func TestAnalyzeCompany_PersistsAssessment(t *testing.T) {
	snaps := new(mockSnapshots)
	snaps.On("Get", mock.Anything, "acme").Return(&domain.FinancialSnapshot{CompanyID: "acme"}, nil)

	rules := new(mockRules)
	rules.On("ListActive", mock.Anything, "acme").Return([]*domain.Rule{
		{ID: "r1", Severity: domain.SeverityMedium, Definition: domain.ReportSubmissionDef{DeadlineDays: 30}},
	}, nil)

	assessments := new(mockAssessments)
	var saved *domain.Assessment
	assessments.On("Save", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		saved = args.Get(1).(*domain.Assessment)
	}).Return(nil)

	svc := newService()
	svc.Snapshots = snaps
	svc.Rules = rules
	svc.Assessments = assessments

	a, err := svc.AnalyzeCompany(context.Background(), "acme")
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, a.ID, saved.ID)
	assert.NotEmpty(t, a.ID)
	assert.Equal(t, "acme", a.CompanyID)
	assert.Equal(t, 10, a.RiskScore)
	assert.Equal(t, testNow, a.CreatedAt)
	snaps.AssertExpectations(t)
	rules.AssertExpectations(t)
	assessments.AssertExpectations(t)
}

func TestAnalyzeCompany_SnapshotLookupFailurePropagates(t *testing.T) {
	snaps := new(mockSnapshots)
	snaps.On("Get", mock.Anything, "ghost").Return(nil, errors.New("sql: no rows in result set"))

	svc := newService()
	svc.Snapshots = snaps

	_, err := svc.AnalyzeCompany(context.Background(), "ghost")
	assert.Error(t, err)
}
