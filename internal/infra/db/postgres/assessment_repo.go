package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	domain "github.com/jasur93/complyai-itpark/internal/domain/compliance"
)

type AssessmentRepository struct{ db *sql.DB }

func NewAssessmentRepository(db *sql.DB) *AssessmentRepository {
	return &AssessmentRepository{db: db}
}

// Save insert/update assessment record
func (r *AssessmentRepository) Save(ctx context.Context, a *domain.Assessment) error {
	const q = `
INSERT INTO risk_assessments
  (id, company_id, risk_score, critical, high, medium, low,
   violations_json, anomalies_json, insights_json, recommendations_json,
   archive_url, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
ON CONFLICT (id) DO UPDATE SET
  risk_score = EXCLUDED.risk_score,
  critical = EXCLUDED.critical,
  high = EXCLUDED.high,
  medium = EXCLUDED.medium,
  low = EXCLUDED.low,
  violations_json = EXCLUDED.violations_json,
  anomalies_json = EXCLUDED.anomalies_json,
  insights_json = EXCLUDED.insights_json,
  recommendations_json = EXCLUDED.recommendations_json,
  archive_url = EXCLUDED.archive_url;`

	var crit, hi, med, lo int
	for _, v := range a.Violations {
		switch v.Severity {
		case domain.SeverityCritical:
			crit++
		case domain.SeverityHigh:
			hi++
		case domain.SeverityMedium:
			med++
		case domain.SeverityLow:
			lo++
		}
	}
	created := a.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q,
		a.ID, stringOrDash(a.CompanyID), a.RiskScore, crit, hi, med, lo,
		jsonOrEmptyArray(a.Violations), jsonOrEmptyArray(a.Anomalies),
		jsonOrEmptyArray(a.Insights), jsonOrEmptyArray(a.Recommendations),
		a.ArchiveURL, created,
	)
	return err
}

// Get by ID + company
func (r *AssessmentRepository) Get(ctx context.Context, company string, id domain.AssessmentID) (*domain.Assessment, error) {
	const q = `
SELECT id, company_id, risk_score, violations_json, anomalies_json,
       insights_json, recommendations_json, archive_url, created_at
FROM risk_assessments
WHERE company_id=$1 AND id=$2 LIMIT 1;`
	return scanAssessment(r.db.QueryRowContext(ctx, q, company, id))
}

// Latest assessments per company
func (r *AssessmentRepository) Latest(ctx context.Context, company string, limit int) ([]*domain.Assessment, error) {
	if limit <= 0 {
		limit = 20
	}
	const q = `
SELECT id, company_id, risk_score, violations_json, anomalies_json,
       insights_json, recommendations_json, archive_url, created_at
FROM risk_assessments
WHERE company_id=$1 ORDER BY created_at DESC, id DESC LIMIT $2;`
	rows, err := r.db.QueryContext(ctx, q, company, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Assessment
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Summary aggregates assessments since N days
func (r *AssessmentRepository) Summary(ctx context.Context, company string, sinceDays int) (domain.Summary, error) {
	if sinceDays <= 0 {
		sinceDays = 7
	}
	const q = `
SELECT COUNT(*), COALESCE(AVG(risk_score),0),
       COALESCE(SUM(critical),0), COALESCE(SUM(high),0),
       COALESCE(SUM(medium),0), COALESCE(SUM(low),0)
FROM risk_assessments
WHERE company_id=$1 AND created_at >= NOW() - ($2 || ' days')::interval;`
	var s domain.Summary
	err := r.db.QueryRowContext(ctx, q, company, sinceDays).Scan(
		&s.TotalAssessments, &s.AverageRiskScore, &s.Critical, &s.High, &s.Medium, &s.Low,
	)
	return s, err
}

func scanAssessment(row rowScanner) (*domain.Assessment, error) {
	var a domain.Assessment
	var violations, anomalies, insights, recs string
	if err := row.Scan(
		&a.ID, &a.CompanyID, &a.RiskScore, &violations, &anomalies,
		&insights, &recs, &a.ArchiveURL, &a.CreatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(violations), &a.Violations); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(anomalies), &a.Anomalies); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(insights), &a.Insights); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(recs), &a.Recommendations); err != nil {
		return nil, err
	}
	return &a, nil
}
