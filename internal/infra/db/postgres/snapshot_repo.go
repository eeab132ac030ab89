package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	domain "github.com/jasur93/complyai-itpark/internal/domain/compliance"
)

type SnapshotRepository struct{ db *sql.DB }

func NewSnapshotRepository(db *sql.DB) *SnapshotRepository { return &SnapshotRepository{db: db} }

// Save upserts the company's current snapshot
func (r *SnapshotRepository) Save(ctx context.Context, s *domain.FinancialSnapshot) error {
	const q = `
INSERT INTO financial_snapshots (company_id, snapshot_json, reported_at)
VALUES ($1,$2,$3)
ON CONFLICT (company_id) DO UPDATE SET
  snapshot_json = EXCLUDED.snapshot_json,
  reported_at = EXCLUDED.reported_at;`

	body, err := json.Marshal(s)
	if err != nil {
		return err
	}
	reported := s.ReportedAt
	if reported.IsZero() {
		reported = time.Now()
	}
	_, err = r.db.ExecContext(ctx, q, stringOrDash(s.CompanyID), string(body), reported)
	return err
}

// Get the company's snapshot
func (r *SnapshotRepository) Get(ctx context.Context, company string) (*domain.FinancialSnapshot, error) {
	const q = `SELECT snapshot_json FROM financial_snapshots WHERE company_id=$1 LIMIT 1;`
	var body string
	if err := r.db.QueryRowContext(ctx, q, company).Scan(&body); err != nil {
		return nil, err
	}
	var snap domain.FinancialSnapshot
	if err := json.Unmarshal([]byte(body), &snap); err != nil {
		return nil, err
	}
	if snap.CompanyID == "" {
		snap.CompanyID = company
	}
	return &snap, nil
}
