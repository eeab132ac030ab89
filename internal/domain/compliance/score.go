package compliance

import "math"

// MaxRiskScore caps the aggregate risk score.
const MaxRiskScore = 100

// Point weights per severity level.
var (
	violationPoints = map[Severity]float64{
		SeverityCritical: 25,
		SeverityHigh:     15,
		SeverityMedium:   10,
		SeverityLow:      5,
	}
	anomalyPoints = map[Severity]float64{
		SeverityCritical: 20,
		SeverityHigh:     12,
		SeverityMedium:   8,
		SeverityLow:      3,
	}
)

// Score aggregates violations and anomalies into a risk score in [0,100].
// Anomaly contributions are weighted by their confidence; a missing
// confidence counts as 0.5.
func Score(violations []Violation, anomalies []Anomaly) int {
	var total float64
	for _, v := range violations {
		total += violationPoints[v.Severity]
	}
	for _, a := range anomalies {
		conf := a.Confidence
		if conf <= 0 {
			conf = 0.5
		}
		total += anomalyPoints[a.Severity] * conf
	}
	score := int(math.Round(total))
	if score > MaxRiskScore {
		score = MaxRiskScore
	}
	return score
}
