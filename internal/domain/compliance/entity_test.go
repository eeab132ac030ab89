package compliance

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefinitionEnvelope_RoundTrip(t *testing.T) {
	cases := []Definition{
		ReportSubmissionDef{DeadlineDays: 30},
		RevenueTrackingDef{MinMonthlyRevenue: 15000},
		TaxComplianceDef{FilingDeadlineDays: 90},
		TripDocumentationDef{},
	}
	for _, def := range cases {
		data, err := MarshalDefinition(def)
		require.NoError(t, err)

		got, err := UnmarshalDefinition(data)
		require.NoError(t, err)
		assert.Equal(t, def, got)
		assert.Equal(t, def.Kind(), got.Kind())
	}
}

func TestUnmarshalDefinition_UnknownType(t *testing.T) {
	_, err := UnmarshalDefinition([]byte(`{"type":"carbon_offset"}`))
	assert.Error(t, err)
}

func TestMarshalDefinition_Nil(t *testing.T) {
	_, err := MarshalDefinition(nil)
	assert.Error(t, err)
}

func TestRule_JSONCarriesTaggedDefinition(t *testing.T) {
	rule := Rule{
		ID:         "r1",
		CompanyID:  "acme",
		Name:       "Quarterly report",
		Severity:   SeverityHigh,
		Frequency:  FrequencyQuarterly,
		Definition: ReportSubmissionDef{DeadlineDays: 90},
		Active:     true,
		CreatedAt:  time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	data, err := json.Marshal(rule)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"report_submission"`)

	var decoded Rule
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, rule, decoded)
}
