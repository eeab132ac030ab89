package reports

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jasur93/complyai-itpark/internal/application"
	domain "github.com/jasur93/complyai-itpark/internal/domain/compliance"
)

// Service implements report-submission use cases: financial reports update
// the company snapshot, trip reports additionally store their supporting
// document in object storage.
type Service struct {
	Snapshots domain.SnapshotRepository
	Documents domain.DocumentStore
	Clock     application.Clock
	Logger    zerolog.Logger
}

// FinancialReportCommand carries one financial report submission.
type FinancialReportCommand struct {
	CompanyID      string
	MonthlyRevenue []domain.RevenueEntry
	TaxFiled       bool
}

// TripReportCommand carries one business-trip report. Document is the raw
// supporting file; empty means the trip is reported undocumented.
type TripReportCommand struct {
	CompanyID    string
	Destination  string
	StartDate    string // YYYY-MM-DD, defaults to the submission time
	Document     []byte
	DocumentName string
}

// SubmitFinancial merges a financial report into the company snapshot and
// stamps the submission date.
func (s *Service) SubmitFinancial(ctx context.Context, cmd FinancialReportCommand) (*domain.FinancialSnapshot, error) {
	if cmd.CompanyID == "" {
		return nil, fmt.Errorf("company id is required")
	}
	now := s.Clock.Now()

	snap := s.loadOrInit(ctx, cmd.CompanyID)
	snap.LastSubmissionDate = &now
	snap.ReportedAt = now
	if len(cmd.MonthlyRevenue) > 0 {
		snap.MonthlyRevenue = append(snap.MonthlyRevenue, cmd.MonthlyRevenue...)
	}
	if cmd.TaxFiled {
		snap.LastTaxFilingDate = &now
	}

	if err := s.Snapshots.Save(ctx, snap); err != nil {
		return nil, fmt.Errorf("save snapshot: %w", err)
	}
	return snap, nil
}

// SubmitTrip records a business trip. When a document is attached it is
// uploaded first; an upload failure fails the submission so trips are never
// silently marked documented without a stored file.
func (s *Service) SubmitTrip(ctx context.Context, cmd TripReportCommand) (*domain.FinancialSnapshot, error) {
	if cmd.CompanyID == "" {
		return nil, fmt.Errorf("company id is required")
	}
	now := s.Clock.Now()

	start := now
	if cmd.StartDate != "" {
		parsed, err := time.Parse("2006-01-02", cmd.StartDate)
		if err != nil {
			return nil, fmt.Errorf("invalid start date %q: %w", cmd.StartDate, err)
		}
		start = parsed
	}

	trip := domain.TripRecord{
		ID:          uuid.New().String(),
		Destination: cmd.Destination,
		StartDate:   start,
	}
	if len(cmd.Document) > 0 {
		if s.Documents == nil {
			return nil, fmt.Errorf("document storage is not configured")
		}
		name := cmd.DocumentName
		if name == "" {
			name = trip.ID + ".pdf"
		}
		key := fmt.Sprintf("%s/trips/%s%s", cmd.CompanyID, trip.ID, path.Ext(name))
		url, err := s.Documents.UploadBytes(ctx, key, cmd.Document, contentTypeFor(name))
		if err != nil {
			return nil, fmt.Errorf("upload trip document: %w", err)
		}
		trip.Documented = true
		trip.DocumentURL = url
	}

	snap := s.loadOrInit(ctx, cmd.CompanyID)
	snap.Trips = append(snap.Trips, trip)
	snap.ReportedAt = now

	if err := s.Snapshots.Save(ctx, snap); err != nil {
		return nil, fmt.Errorf("save snapshot: %w", err)
	}
	return snap, nil
}

// loadOrInit returns the stored snapshot or a fresh one for companies that
// have never reported.
func (s *Service) loadOrInit(ctx context.Context, company string) *domain.FinancialSnapshot {
	snap, err := s.Snapshots.Get(ctx, company)
	if err != nil || snap == nil {
		return &domain.FinancialSnapshot{CompanyID: company}
	}
	return snap
}

func contentTypeFor(name string) string {
	switch path.Ext(name) {
	case ".pdf":
		return "application/pdf"
	case ".json":
		return "application/json"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	default:
		return "application/octet-stream"
	}
}
