package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lexintel/LexTriage/internal/application/classification"
	"github.com/lexintel/LexTriage/internal/application/penalty"
	"github.com/lexintel/LexTriage/internal/application/retrieval"
	"github.com/lexintel/LexTriage/internal/application/triage"
)

// TriageHandler exposes the three cores and the combined pipeline.
type TriageHandler struct {
	classifier *classification.Service
	estimator  *penalty.Service
	engine     *retrieval.Engine
	pipeline   *triage.Service

	// defaultThreshold fills requests that omit precedent_threshold.  It
	// comes from configuration; there is no in-code fallback.
	defaultThreshold float64
}

// NewTriageHandler wires the handler.
func NewTriageHandler(
	classifier *classification.Service,
	estimator *penalty.Service,
	engine *retrieval.Engine,
	pipeline *triage.Service,
	defaultThreshold float64,
) *TriageHandler {
	return &TriageHandler{
		classifier:       classifier,
		estimator:        estimator,
		engine:           engine,
		pipeline:         pipeline,
		defaultThreshold: defaultThreshold,
	}
}

// ClassifyRequest is the body of POST /classify.
type ClassifyRequest struct {
	Text     string   `json:"text"`
	Keywords []string `json:"keywords,omitempty"`
	TopK     int      `json:"top_k,omitempty"`
}

// ClassifyResponse wraps the ranked candidates.
type ClassifyResponse struct {
	Candidates []classification.Candidate `json:"candidates"`
}

// Classify handles POST /api/v1/classify.
func (h *TriageHandler) Classify(c *gin.Context) {
	var req ClassifyRequest
	if !bindJSON(c, &req) {
		return
	}

	candidates, err := h.classifier.Classify(c.Request.Context(), req.Text, req.Keywords, req.TopK)
	if err != nil {
		respondError(c, err)
		return
	}
	if candidates == nil {
		candidates = []classification.Candidate{}
	}
	c.JSON(http.StatusOK, ClassifyResponse{Candidates: candidates})
}

// PenaltyRequest is the body of POST /penalties.
type PenaltyRequest struct {
	OffenseCode string   `json:"offense_code"`
	Text        string   `json:"text,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
	Actions     []string `json:"actions,omitempty"`
	Amounts     []string `json:"amounts,omitempty"`
}

// EstimatePenalty handles POST /api/v1/penalties.
func (h *TriageHandler) EstimatePenalty(c *gin.Context) {
	var req PenaltyRequest
	if !bindJSON(c, &req) {
		return
	}

	estimate, err := h.estimator.Estimate(c.Request.Context(), req.OffenseCode, penalty.Context{
		Text:     req.Text,
		Keywords: req.Keywords,
		Actions:  req.Actions,
		Amounts:  req.Amounts,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, estimate)
}

// CaseSearchRequest is the body of POST /cases/search.  A nil
// precedent_threshold selects the configured default.
type CaseSearchRequest struct {
	Query              string   `json:"query"`
	Sections           []string `json:"sections,omitempty"`
	TopK               int      `json:"top_k,omitempty"`
	PrecedentThreshold *float64 `json:"precedent_threshold,omitempty"`
}

// SearchCases handles POST /api/v1/cases/search.
func (h *TriageHandler) SearchCases(c *gin.Context) {
	var req CaseSearchRequest
	if !bindJSON(c, &req) {
		return
	}

	threshold := h.defaultThreshold
	if req.PrecedentThreshold != nil {
		threshold = *req.PrecedentThreshold
	}

	result, err := h.engine.Search(c.Request.Context(), req.Query, req.Sections, retrieval.Options{
		TopK:               req.TopK,
		PrecedentThreshold: threshold,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// TriageRequest is the body of POST /triage.
type TriageRequest struct {
	Text               string   `json:"text"`
	Keywords           []string `json:"keywords,omitempty"`
	Actions            []string `json:"actions,omitempty"`
	Amounts            []string `json:"amounts,omitempty"`
	TopK               int      `json:"top_k,omitempty"`
	RetrievalTopK      int      `json:"retrieval_top_k,omitempty"`
	PrecedentThreshold *float64 `json:"precedent_threshold,omitempty"`
}

// Triage handles POST /api/v1/triage.
func (h *TriageHandler) Triage(c *gin.Context) {
	var req TriageRequest
	if !bindJSON(c, &req) {
		return
	}

	threshold := h.defaultThreshold
	if req.PrecedentThreshold != nil {
		threshold = *req.PrecedentThreshold
	}

	report, err := h.pipeline.Triage(c.Request.Context(), triage.Request{
		Text:               req.Text,
		Keywords:           req.Keywords,
		Actions:            req.Actions,
		Amounts:            req.Amounts,
		TopK:               req.TopK,
		RetrievalTopK:      req.RetrievalTopK,
		PrecedentThreshold: threshold,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
