package rules

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jasur93/complyai-itpark/internal/application"
	domain "github.com/jasur93/complyai-itpark/internal/domain/compliance"
)

// Service implements rule management use cases.
type Service struct {
	Repo  domain.RuleRepository
	Clock application.Clock
}

// CreateCommand carries a new rule. Definition arrives pre-decoded from the
// tagged JSON envelope.
type CreateCommand struct {
	CompanyID  string
	Name       string
	Category   string
	Severity   domain.Severity
	Frequency  domain.Frequency
	Definition domain.Definition
	Active     bool
}

// Create validates and persists a new rule.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*domain.Rule, error) {
	if err := validate(cmd.Name, cmd.Severity, cmd.Definition); err != nil {
		return nil, err
	}
	r := &domain.Rule{
		ID:         domain.RuleID(uuid.New().String()),
		CompanyID:  cmd.CompanyID,
		Name:       cmd.Name,
		Category:   cmd.Category,
		Severity:   cmd.Severity,
		Frequency:  cmd.Frequency,
		Definition: cmd.Definition,
		Active:     cmd.Active,
		CreatedAt:  s.Clock.Now(),
	}
	if err := s.Repo.Save(ctx, r); err != nil {
		return nil, fmt.Errorf("save rule: %w", err)
	}
	return r, nil
}

// Update replaces an existing rule's mutable fields.
func (s *Service) Update(ctx context.Context, company string, id domain.RuleID, cmd CreateCommand) (*domain.Rule, error) {
	existing, err := s.Repo.Get(ctx, company, id)
	if err != nil {
		return nil, err
	}
	if err := validate(cmd.Name, cmd.Severity, cmd.Definition); err != nil {
		return nil, err
	}
	existing.Name = cmd.Name
	existing.Category = cmd.Category
	existing.Severity = cmd.Severity
	existing.Frequency = cmd.Frequency
	existing.Definition = cmd.Definition
	existing.Active = cmd.Active
	if err := s.Repo.Save(ctx, existing); err != nil {
		return nil, fmt.Errorf("save rule: %w", err)
	}
	return existing, nil
}

// List returns all rules for a company.
func (s *Service) List(ctx context.Context, company string) ([]*domain.Rule, error) {
	return s.Repo.List(ctx, company)
}

// Get returns one rule.
func (s *Service) Get(ctx context.Context, company string, id domain.RuleID) (*domain.Rule, error) {
	return s.Repo.Get(ctx, company, id)
}

// Delete removes one rule.
func (s *Service) Delete(ctx context.Context, company string, id domain.RuleID) error {
	return s.Repo.Delete(ctx, company, id)
}

func validate(name string, severity domain.Severity, def domain.Definition) error {
	if name == "" {
		return fmt.Errorf("rule name is required")
	}
	if !severity.Valid() {
		return fmt.Errorf("invalid severity: %q", severity)
	}
	if def == nil {
		return fmt.Errorf("rule definition is required")
	}
	return nil
}
