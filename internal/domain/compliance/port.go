package compliance

import "context"

// RuleRepository port (persistence for compliance rules)
type RuleRepository interface {
	Save(ctx context.Context, r *Rule) error
	Get(ctx context.Context, company string, id RuleID) (*Rule, error)
	List(ctx context.Context, company string) ([]*Rule, error)
	ListActive(ctx context.Context, company string) ([]*Rule, error)
	Delete(ctx context.Context, company string, id RuleID) error
}

// SnapshotRepository port (persistence for company financial snapshots)
type SnapshotRepository interface {
	Save(ctx context.Context, s *FinancialSnapshot) error
	Get(ctx context.Context, company string) (*FinancialSnapshot, error)
}

// AssessmentRepository port (persistence for risk assessments)
type AssessmentRepository interface {
	Save(ctx context.Context, a *Assessment) error
	Get(ctx context.Context, company string, id AssessmentID) (*Assessment, error)
	Latest(ctx context.Context, company string, limit int) ([]*Assessment, error)
	Summary(ctx context.Context, company string, sinceDays int) (Summary, error)
}

// Summary aggregates assessment activity over a window.
type Summary struct {
	TotalAssessments int     `json:"total_assessments"`
	AverageRiskScore float64 `json:"average_risk_score"`
	Critical         int     `json:"critical"`
	High             int     `json:"high"`
	Medium           int     `json:"medium"`
	Low              int     `json:"low"`
}

// DocumentStore port (object storage for report documents and archives)
type DocumentStore interface {
	Upload(ctx context.Context, localPath, key string) (string, error)
	UploadBytes(ctx context.Context, key string, data []byte, contentType string) (string, error)
}
