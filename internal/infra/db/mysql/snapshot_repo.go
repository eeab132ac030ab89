package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	domain "github.com/jasur93/complyai-itpark/internal/domain/compliance"
)

type SnapshotRepository struct {
	db *sql.DB
}

func NewSnapshotRepository(db *sql.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Save upserts the company's current snapshot. The snapshot body is one JSON
// document; only the company id and reported_at are promoted to columns.
func (r *SnapshotRepository) Save(ctx context.Context, s *domain.FinancialSnapshot) error {
	const q = `
INSERT INTO financial_snapshots (company_id, snapshot_json, reported_at)
VALUES (?,?,?)
ON DUPLICATE KEY UPDATE
  snapshot_json=VALUES(snapshot_json), reported_at=VALUES(reported_at);
`
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
	const q = `SELECT snapshot_json FROM financial_snapshots WHERE company_id=? LIMIT 1;`
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
