package compliance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore_Empty(t *testing.T) {
	assert.Equal(t, 0, Score(nil, nil))
}

func TestScore_ViolationWeights(t *testing.T) {
	violations := []Violation{
		{Severity: SeverityCritical}, // 25
		{Severity: SeverityHigh},     // 15
		{Severity: SeverityMedium},   // 10
		{Severity: SeverityLow},      // 5
	}
	assert.Equal(t, 55, Score(violations, nil))
}

func TestScore_AnomalyConfidenceWeighting(t *testing.T) {
	anomalies := []Anomaly{
		{Severity: SeverityCritical, Confidence: 1.0}, // 20
		{Severity: SeverityHigh, Confidence: 0.5},     // 6
		{Severity: SeverityMedium},                    // 8 * 0.5 = 4 (default confidence)
	}
	assert.Equal(t, 30, Score(nil, anomalies))
}

func TestScore_ClampedAt100(t *testing.T) {
	var violations []Violation
	for i := 0; i < 10; i++ {
		violations = append(violations, Violation{Severity: SeverityCritical})
	}
	assert.Equal(t, 100, Score(violations, nil))
}

func TestScore_MonotonicNonDecreasing(t *testing.T) {
	var violations []Violation
	prev := 0
	for i := 0; i < 30; i++ {
		violations = append(violations, Violation{Severity: SeverityLow})
		score := Score(violations, nil)
		assert.GreaterOrEqual(t, score, prev)
		assert.LessOrEqual(t, score, 100)
		prev = score
	}
}

func TestScore_Rounding(t *testing.T) {
	// low anomaly at 0.5 confidence = 1.5, rounds to 2
	assert.Equal(t, 2, Score(nil, []Anomaly{{Severity: SeverityLow, Confidence: 0.5}}))
}
