package postgres

import (
	"context"
	"database/sql"
	"time"

	domain "github.com/jasur93/complyai-itpark/internal/domain/compliance"
)

type RuleRepository struct{ db *sql.DB }

func NewRuleRepository(db *sql.DB) *RuleRepository { return &RuleRepository{db: db} }

// Save insert/update rule record
func (r *RuleRepository) Save(ctx context.Context, rule *domain.Rule) error {
	const q = `
INSERT INTO compliance_rules
  (id, company_id, name, category, severity, frequency, definition_json, active, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (id) DO UPDATE SET
  name = EXCLUDED.name,
  category = EXCLUDED.category,
  severity = EXCLUDED.severity,
  frequency = EXCLUDED.frequency,
  definition_json = EXCLUDED.definition_json,
  active = EXCLUDED.active;`

	def, err := domain.MarshalDefinition(rule.Definition)
	if err != nil {
		return err
	}
	created := rule.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err = r.db.ExecContext(ctx, q,
		rule.ID, stringOrDash(rule.CompanyID), rule.Name, rule.Category,
		rule.Severity, rule.Frequency, string(def), rule.Active, created,
	)
	return err
}

// Get by ID + company
func (r *RuleRepository) Get(ctx context.Context, company string, id domain.RuleID) (*domain.Rule, error) {
	const q = `
SELECT id, company_id, name, category, severity, frequency, definition_json, active, created_at
FROM compliance_rules
WHERE company_id=$1 AND id=$2 LIMIT 1;`
	return scanRule(r.db.QueryRowContext(ctx, q, company, id))
}

// List all rules for a company
func (r *RuleRepository) List(ctx context.Context, company string) ([]*domain.Rule, error) {
	const q = `
SELECT id, company_id, name, category, severity, frequency, definition_json, active, created_at
FROM compliance_rules
WHERE company_id=$1 ORDER BY created_at ASC, id ASC;`
	return r.queryRules(ctx, q, company)
}

// ListActive rules for a company, in creation order
func (r *RuleRepository) ListActive(ctx context.Context, company string) ([]*domain.Rule, error) {
	const q = `
SELECT id, company_id, name, category, severity, frequency, definition_json, active, created_at
FROM compliance_rules
WHERE company_id=$1 AND active ORDER BY created_at ASC, id ASC;`
	return r.queryRules(ctx, q, company)
}

// Delete one rule
func (r *RuleRepository) Delete(ctx context.Context, company string, id domain.RuleID) error {
	const q = `DELETE FROM compliance_rules WHERE company_id=$1 AND id=$2;`
	res, err := r.db.ExecContext(ctx, q, company, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *RuleRepository) queryRules(ctx context.Context, q string, args ...any) ([]*domain.Rule, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Rule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rule)
	}
	return out, rows.Err()
}

func scanRule(row rowScanner) (*domain.Rule, error) {
	var rule domain.Rule
	var defJSON string
	if err := row.Scan(
		&rule.ID, &rule.CompanyID, &rule.Name, &rule.Category,
		&rule.Severity, &rule.Frequency, &defJSON, &rule.Active, &rule.CreatedAt,
	); err != nil {
		return nil, err
	}
	def, err := domain.UnmarshalDefinition([]byte(defJSON))
	if err != nil {
		return nil, err
	}
	rule.Definition = def
	return &rule, nil
}
