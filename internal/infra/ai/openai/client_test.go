package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jasur93/complyai-itpark/internal/domain/advisor"
	domain "github.com/jasur93/complyai-itpark/internal/domain/compliance"
)

// fakeCompletion serves a chat-completion response whose message content is
// the provided string.
func fakeCompletion(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)

		var req struct {
			Model       string  `json:"model"`
			Temperature float64 `json:"temperature"`
			MaxTokens   int     `json:"max_tokens"`
			Messages    []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"choices":[{"message":{"role":"assistant","content":%q}}]}`, content)
	}))
}

func newTestClient(baseURL string) *Client {
	return NewClient("test-key", "gpt-4o-mini", baseURL+"/v1", zerolog.Nop())
}

func TestDetectAnomalies_ParsesArray(t *testing.T) {
	srv := fakeCompletion(t, `[{"type":"revenue_drop","description":"Revenue fell sharply","severity":"high","confidence":0.8}]`)
	defer srv.Close()

	c := newTestClient(srv.URL)
	anomalies, err := c.DetectAnomalies(context.Background(), domain.FinancialSnapshot{CompanyID: "acme"})
	require.NoError(t, err)
	require.Len(t, anomalies, 1)
	assert.Equal(t, "revenue_drop", anomalies[0].Type)
	assert.Equal(t, domain.SeverityHigh, anomalies[0].Severity)
}

func TestDetectAnomalies_MalformedResponseDegradesToEmpty(t *testing.T) {
	srv := fakeCompletion(t, `Sorry, I cannot produce JSON today.`)
	defer srv.Close()

	c := newTestClient(srv.URL)
	anomalies, err := c.DetectAnomalies(context.Background(), domain.FinancialSnapshot{CompanyID: "acme"})
	require.NoError(t, err)
	assert.Empty(t, anomalies)
}

func TestDetectAnomalies_QuotaExceeded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"Rate limit reached","type":"requests"}}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.DetectAnomalies(context.Background(), domain.FinancialSnapshot{CompanyID: "acme"})
	assert.ErrorIs(t, err, advisor.ErrQuotaExceeded)
}

func TestGenerateRecommendations_ParsesArray(t *testing.T) {
	srv := fakeCompletion(t, `[{"priority":"high","action":"File the report","description":"Submit within a week","timeline":"1 week"}]`)
	defer srv.Close()

	c := newTestClient(srv.URL)
	recs, err := c.GenerateRecommendations(context.Background(), domain.AnalysisResult{
		RiskScore:  40,
		Violations: []domain.Violation{{RuleID: "r1", Type: domain.ViolationOverdueSubmission, Severity: domain.SeverityHigh}},
	})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, domain.PriorityHigh, recs[0].Priority)
}

func TestGenerateRecommendations_TransportErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.GenerateRecommendations(context.Background(), domain.AnalysisResult{})
	assert.Error(t, err)
}
