package httpserver

import (
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	appcompliance "github.com/jasur93/complyai-itpark/internal/application/compliance"
	appreports "github.com/jasur93/complyai-itpark/internal/application/reports"
	apprules "github.com/jasur93/complyai-itpark/internal/application/rules"
	domadvisor "github.com/jasur93/complyai-itpark/internal/domain/advisor"
	domain "github.com/jasur93/complyai-itpark/internal/domain/compliance"
	"github.com/jasur93/complyai-itpark/internal/middleware"
)

type Router struct {
	complianceSvc *appcompliance.Service
	reportsSvc    *appreports.Service
	rulesSvc      *apprules.Service
}

func NewRouter(complianceSvc *appcompliance.Service, reportsSvc *appreports.Service, rulesSvc *apprules.Service) http.Handler {
	r := &Router{complianceSvc: complianceSvc, reportsSvc: reportsSvc, rulesSvc: rulesSvc}
	mux := chi.NewRouter()

	mux.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte("ok"))
	})

	mux.Route("/v1/{company}", func(rt chi.Router) {
		rt.Post("/analyze", r.wrap(r.handleAnalyze))
		rt.Get("/assessments/latest", r.wrap(r.handleLatestAssessments))
		rt.Get("/assessments/{id}", r.wrap(r.handleGetAssessment))
		rt.Get("/summary", r.wrap(r.handleSummary))

		rt.Get("/rules", r.wrap(r.handleListRules))
		rt.Post("/rules", r.wrap(r.handleCreateRule))
		rt.Put("/rules/{id}", r.wrap(r.handleUpdateRule))
		rt.Delete("/rules/{id}", r.wrap(r.handleDeleteRule))

		rt.Post("/reports/financial", r.wrap(r.handleFinancialReport))
		rt.Post("/reports/trip", r.wrap(r.handleTripReport))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// badRequestError marks caller mistakes for the 400 translation.
type badRequestError struct{ err error }

func (e badRequestError) Error() string { return e.err.Error() }
func (e badRequestError) Unwrap() error { return e.err }

func badRequest(format string, args ...any) error {
	return badRequestError{err: fmt.Errorf(format, args...)}
}

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			var br badRequestError
			switch {
			case errors.Is(err, sql.ErrNoRows):
				http.Error(w, "not found", http.StatusNotFound)
			case errors.Is(err, domadvisor.ErrQuotaExceeded):
				http.Error(w, "advisor quota exceeded", http.StatusTooManyRequests)
			case errors.As(err, &br):
				http.Error(w, br.Error(), http.StatusBadRequest)
			default:
				http.Error(w, "analysis failed", http.StatusInternalServerError)
			}
		}
	}
}

func company(req *http.Request) (string, error) {
	c := chi.URLParam(req, "company")
	if err := middleware.ValidateCompanyID(c); err != nil {
		return "", badRequestError{err: err}
	}
	return c, nil
}

func writeJSON(w http.ResponseWriter, v any) error {
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(v)
}

// POST /v1/{company}/analyze
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	c, err := company(req)
	if err != nil {
		return err
	}
	assessment, err := r.complianceSvc.AnalyzeCompany(req.Context(), c)
	if err != nil {
		return err
	}
	middleware.IncrementAnalyses()
	if len(assessment.Anomalies) == 0 && len(assessment.Insights) == 0 {
		middleware.IncrementAnalysesDegraded()
	}
	return writeJSON(w, assessment)
}

// GET /v1/{company}/assessments/latest?limit=20
func (r *Router) handleLatestAssessments(w http.ResponseWriter, req *http.Request) error {
	c, err := company(req)
	if err != nil {
		return err
	}
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	list, err := r.complianceSvc.Latest(req.Context(), c, middleware.ValidateLimit(limit))
	if err != nil {
		return err
	}
	if list == nil {
		list = []*domain.Assessment{}
	}
	return writeJSON(w, list)
}

// GET /v1/{company}/assessments/{id}
func (r *Router) handleGetAssessment(w http.ResponseWriter, req *http.Request) error {
	c, err := company(req)
	if err != nil {
		return err
	}
	id := chi.URLParam(req, "id")
	assessment, err := r.complianceSvc.Get(req.Context(), c, domain.AssessmentID(id))
	if err != nil {
		return err
	}
	return writeJSON(w, assessment)
}

// GET /v1/{company}/summary?days=7
func (r *Router) handleSummary(w http.ResponseWriter, req *http.Request) error {
	c, err := company(req)
	if err != nil {
		return err
	}
	days, _ := strconv.Atoi(req.URL.Query().Get("days"))
	summary, err := r.complianceSvc.Summary(req.Context(), c, middleware.ValidateDays(days))
	if err != nil {
		return err
	}
	return writeJSON(w, summary)
}

type ruleBody struct {
	Name       string           `json:"name"`
	Category   string           `json:"category"`
	Severity   domain.Severity  `json:"severity"`
	Frequency  domain.Frequency `json:"frequency"`
	Definition json.RawMessage  `json:"definition"`
	Active     *bool            `json:"active"`
}

func (b ruleBody) toCommand(company string) (apprules.CreateCommand, error) {
	if len(b.Definition) == 0 {
		return apprules.CreateCommand{}, badRequest("rule definition is required")
	}
	def, err := domain.UnmarshalDefinition(b.Definition)
	if err != nil {
		return apprules.CreateCommand{}, badRequest("invalid rule definition: %v", err)
	}
	active := true
	if b.Active != nil {
		active = *b.Active
	}
	return apprules.CreateCommand{
		CompanyID:  company,
		Name:       middleware.SanitizeString(b.Name),
		Category:   middleware.SanitizeString(b.Category),
		Severity:   b.Severity,
		Frequency:  b.Frequency,
		Definition: def,
		Active:     active,
	}, nil
}

// GET /v1/{company}/rules
func (r *Router) handleListRules(w http.ResponseWriter, req *http.Request) error {
	c, err := company(req)
	if err != nil {
		return err
	}
	list, err := r.rulesSvc.List(req.Context(), c)
	if err != nil {
		return err
	}
	if list == nil {
		list = []*domain.Rule{}
	}
	return writeJSON(w, list)
}

// POST /v1/{company}/rules
func (r *Router) handleCreateRule(w http.ResponseWriter, req *http.Request) error {
	c, err := company(req)
	if err != nil {
		return err
	}
	var body ruleBody
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return badRequest("invalid request body: %v", err)
	}
	cmd, err := body.toCommand(c)
	if err != nil {
		return err
	}
	rule, err := r.rulesSvc.Create(req.Context(), cmd)
	if err != nil {
		return badRequestError{err: err}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	return json.NewEncoder(w).Encode(rule)
}

// PUT /v1/{company}/rules/{id}
func (r *Router) handleUpdateRule(w http.ResponseWriter, req *http.Request) error {
	c, err := company(req)
	if err != nil {
		return err
	}
	id := chi.URLParam(req, "id")
	var body ruleBody
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return badRequest("invalid request body: %v", err)
	}
	cmd, err := body.toCommand(c)
	if err != nil {
		return err
	}
	rule, err := r.rulesSvc.Update(req.Context(), c, domain.RuleID(id), cmd)
	if err != nil {
		return err
	}
	return writeJSON(w, rule)
}

// DELETE /v1/{company}/rules/{id}
func (r *Router) handleDeleteRule(w http.ResponseWriter, req *http.Request) error {
	c, err := company(req)
	if err != nil {
		return err
	}
	id := chi.URLParam(req, "id")
	if err := r.rulesSvc.Delete(req.Context(), c, domain.RuleID(id)); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// POST /v1/{company}/reports/financial
func (r *Router) handleFinancialReport(w http.ResponseWriter, req *http.Request) error {
	c, err := company(req)
	if err != nil {
		return err
	}
	var body struct {
		MonthlyRevenue []domain.RevenueEntry `json:"monthly_revenue"`
		TaxFiled       bool                  `json:"tax_filed"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return badRequest("invalid request body: %v", err)
	}
	snap, err := r.reportsSvc.SubmitFinancial(req.Context(), appreports.FinancialReportCommand{
		CompanyID:      c,
		MonthlyRevenue: body.MonthlyRevenue,
		TaxFiled:       body.TaxFiled,
	})
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	return json.NewEncoder(w).Encode(snap)
}

// POST /v1/{company}/reports/trip
// Document is optional; when present it is base64-encoded file content.
func (r *Router) handleTripReport(w http.ResponseWriter, req *http.Request) error {
	c, err := company(req)
	if err != nil {
		return err
	}
	var body struct {
		Destination  string `json:"destination"`
		StartDate    string `json:"start_date,omitempty"`
		Document     string `json:"document,omitempty"`
		DocumentName string `json:"document_name,omitempty"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return badRequest("invalid request body: %v", err)
	}
	if body.StartDate != "" {
		if _, err := time.Parse("2006-01-02", body.StartDate); err != nil {
			return badRequest("start_date must be YYYY-MM-DD: %v", err)
		}
	}
	var doc []byte
	if body.Document != "" {
		doc, err = base64.StdEncoding.DecodeString(body.Document)
		if err != nil {
			return badRequest("document must be base64 encoded: %v", err)
		}
	}
	snap, err := r.reportsSvc.SubmitTrip(req.Context(), appreports.TripReportCommand{
		CompanyID:    c,
		Destination:  middleware.SanitizeString(body.Destination),
		StartDate:    body.StartDate,
		Document:     doc,
		DocumentName: body.DocumentName,
	})
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	return json.NewEncoder(w).Encode(snap)
}
