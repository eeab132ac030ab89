package advisor

import (
	"context"

	"github.com/jasur93/complyai-itpark/internal/domain/compliance"
)

// Advisor delegates free-form anomaly detection and recommendation text to an
// external model. Implementations must treat both operations as best-effort:
// transport and parse failures surface as errors here and are degraded to
// empty results by the caller.
type Advisor interface {
	DetectAnomalies(ctx context.Context, snap compliance.FinancialSnapshot) ([]compliance.Anomaly, error)
	GenerateRecommendations(ctx context.Context, result compliance.AnalysisResult) ([]compliance.Recommendation, error)
}
