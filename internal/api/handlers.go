package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/neurocalc-mcp-server/internal/domain"
	"github.com/neurocalc-mcp-server/internal/feedback"
	"github.com/neurocalc-mcp-server/internal/service"
)

const (
	defaultFeedbackLimit = 50
	maxFeedbackLimit     = 500
	maxImportBytes       = 10 << 20
)

type calculateRequest struct {
	Answers domain.AnswerSet `json:"answers" binding:"required"`
}

type aspectsRequest struct {
	Side    domain.Hemisphere `json:"side" binding:"required"`
	Regions []string          `json:"regions"`
}

type createSessionRequest struct {
	CalculatorID string `json:"calculator_id" binding:"required"`
}

type answerRequest struct {
	Value domain.InputValue `json:"value"`
}

type sessionResponse struct {
	SessionID string `json:"session_id"`
	service.WizardState
}

type feedbackRequest struct {
	CalculatorID            string           `json:"calculator_id" binding:"required"`
	Answers                 domain.AnswerSet `json:"answers" binding:"required"`
	SuggestedInterpretation string           `json:"suggested_interpretation"`
	ClinicianInterpretation string           `json:"clinician_interpretation"`
	Agreed                  bool             `json:"agreed"`
	Notes                   string           `json:"notes"`
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	cfg := s.configManager.GetConfig()
	status := "healthy"
	checks := gin.H{}

	if s.deps.ResultCache != nil {
		ok := s.deps.ResultCache.IsHealthy(c.Request.Context())
		checks["cache"] = ok
		if !ok {
			status = "degraded"
		}
	}
	if s.deps.Feedback != nil {
		_, err := s.deps.Feedback.Count(c.Request.Context())
		checks["feedback_store"] = err == nil
		if err != nil {
			status = "degraded"
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    status,
		"timestamp": time.Now().UTC(),
		"version":   cfg.MCP.ServerVersion,
		"checks":    checks,
	})
}

func (s *Server) handleListCalculators(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"calculators": s.deps.Calculators.ListCalculators()})
}

func (s *Server) handleGetCalculator(c *gin.Context) {
	def, err := s.deps.Calculators.GetCalculator(c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, def)
}

func (s *Server) handleCalculate(c *gin.Context) {
	var req calculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondBadRequest(c, err)
		return
	}

	result, err := s.deps.Calculators.Calculate(c.Request.Context(), c.Param("id"), req.Answers)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleASPECTS(c *gin.Context) {
	var req aspectsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondBadRequest(c, err)
		return
	}

	result, err := s.deps.Calculators.ScoreASPECTS(req.Side, req.Regions)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleRACE(c *gin.Context) {
	var items domain.NIHSSItems
	if err := c.ShouldBindJSON(&items); err != nil {
		s.respondBadRequest(c, err)
		return
	}

	est, err := s.deps.Calculators.EstimateLVO(items)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, est)
}

func (s *Server) handleThrombectomy(c *gin.Context) {
	var in domain.ThrombectomyInputs
	if err := c.ShouldBindJSON(&in); err != nil {
		s.respondBadRequest(c, err)
		return
	}

	result, err := s.deps.Calculators.ClassifyThrombectomy(in)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleSERecommendation(c *gin.Context) {
	var profile domain.ComorbidityProfile
	if err := c.ShouldBindJSON(&profile); err != nil {
		s.respondBadRequest(c, err)
		return
	}

	rec := s.deps.Calculators.RecommendSEAgent(profile)
	c.JSON(http.StatusOK, gin.H{
		"agent":        rec.Agent,
		"display_name": rec.Agent.DisplayName(),
		"reason":       rec.Reason,
		"warnings":     rec.Warnings,
	})
}

func (s *Server) handleSEDose(c *gin.Context) {
	agent := domain.Agent(c.Query("agent"))

	var weight float64
	if raw := c.Query("weight_kg"); raw != "" {
		w, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			s.respondError(c, domain.NewValidationError("weight_kg", "must be a number", raw))
			return
		}
		if math.IsNaN(w) || math.IsInf(w, 0) {
			s.respondError(c, domain.NewValidationError("weight_kg", "must be a finite number", raw))
			return
		}
		weight = w
	}

	dose, err := s.deps.Calculators.CalculateDose(agent, weight)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"agent":     agent,
		"weight_kg": weight,
		"dose":      dose,
	})
}

func (s *Server) handleCreateSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondBadRequest(c, err)
		return
	}

	def, err := s.deps.Calculators.GetCalculator(req.CalculatorID)
	if err != nil {
		s.respondError(c, err)
		return
	}

	wizard := service.NewWizard(def)
	id := s.deps.Sessions.Create(wizard)
	c.JSON(http.StatusCreated, sessionResponse{SessionID: id, WizardState: wizard.State()})
}

// session loads the wizard named by the :sid parameter or writes a 404.
func (s *Server) session(c *gin.Context) (string, *service.Wizard, bool) {
	id := c.Param("sid")
	wizard, ok := s.deps.Sessions.Get(id)
	if !ok {
		s.respondError(c, fmt.Errorf("%w: session %s", domain.ErrNotFound, id))
		return "", nil, false
	}
	return id, wizard, true
}

func (s *Server) handleGetSession(c *gin.Context) {
	id, wizard, ok := s.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sessionResponse{SessionID: id, WizardState: wizard.State()})
}

func (s *Server) handleAnswer(c *gin.Context) {
	id, wizard, ok := s.session(c)
	if !ok {
		return
	}

	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondBadRequest(c, err)
		return
	}

	if err := wizard.Answer(c.Param("input"), req.Value); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionResponse{SessionID: id, WizardState: wizard.State()})
}

func (s *Server) handleResetSession(c *gin.Context) {
	id, wizard, ok := s.session(c)
	if !ok {
		return
	}
	wizard.Reset()
	c.JSON(http.StatusOK, sessionResponse{SessionID: id, WizardState: wizard.State()})
}

func (s *Server) handleSwitchCalculator(c *gin.Context) {
	id, wizard, ok := s.session(c)
	if !ok {
		return
	}

	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondBadRequest(c, err)
		return
	}
	def, err := s.deps.Calculators.GetCalculator(req.CalculatorID)
	if err != nil {
		s.respondError(c, err)
		return
	}

	wizard.Switch(def)
	c.JSON(http.StatusOK, sessionResponse{SessionID: id, WizardState: wizard.State()})
}

func (s *Server) handleDeleteSession(c *gin.Context) {
	id := c.Param("sid")
	if !s.deps.Sessions.Delete(id) {
		s.respondError(c, fmt.Errorf("%w: session %s", domain.ErrNotFound, id))
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleSubmitFeedback(c *gin.Context) {
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondBadRequest(c, err)
		return
	}

	fb := &feedback.Feedback{
		CalculatorID:            req.CalculatorID,
		Answers:                 req.Answers,
		SuggestedInterpretation: req.SuggestedInterpretation,
		ClinicianInterpretation: req.ClinicianInterpretation,
		Agreed:                  req.Agreed,
		Notes:                   req.Notes,
	}
	if err := s.fillSuggestion(c, fb); err != nil {
		s.respondError(c, err)
		return
	}

	if err := s.deps.Feedback.Save(c.Request.Context(), fb); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, fb)
}

// fillSuggestion validates the calculator and answers and, when the caller did
// not echo the interpretation they were shown, recomputes it.
func (s *Server) fillSuggestion(c *gin.Context, fb *feedback.Feedback) error {
	if fb.SuggestedInterpretation != "" {
		return s.deps.Calculators.Validate(fb.CalculatorID, fb.Answers)
	}
	result, err := s.deps.Calculators.Calculate(c.Request.Context(), fb.CalculatorID, fb.Answers)
	if err != nil {
		return err
	}
	fb.SuggestedInterpretation = result.Interpretation
	return nil
}

func (s *Server) handleListFeedback(c *gin.Context) {
	limit, err := queryInt(c, "limit", defaultFeedbackLimit)
	if err != nil {
		s.respondError(c, err)
		return
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if limit <= 0 || limit > maxFeedbackLimit {
		s.respondError(c, domain.NewValidationError("limit", fmt.Sprintf("must be between 1 and %d", maxFeedbackLimit), limit))
		return
	}
	if offset < 0 {
		s.respondError(c, domain.NewValidationError("offset", "must not be negative", offset))
		return
	}

	ctx := c.Request.Context()
	items, err := s.deps.Feedback.List(ctx, limit, offset)
	if err != nil {
		s.respondError(c, err)
		return
	}
	total, err := s.deps.Feedback.Count(ctx)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if items == nil {
		items = []*feedback.Feedback{}
	}

	c.JSON(http.StatusOK, gin.H{
		"feedback": items,
		"total":    total,
		"limit":    limit,
		"offset":   offset,
	})
}

func (s *Server) handleExportFeedback(c *gin.Context) {
	filename := fmt.Sprintf("neurocalc-feedback-%s.json", time.Now().UTC().Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Content-Type", "application/json")
	c.Status(http.StatusOK)

	if err := s.deps.Feedback.ExportJSON(c.Request.Context(), c.Writer); err != nil {
		s.logger.WithError(err).Error("Feedback export failed")
	}
}

// handleImportFeedback loads an export produced by /feedback/export. Every
// entry must carry a complete answer set for a known calculator; entries
// already stored are skipped.
func (s *Server) handleImportFeedback(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxImportBytes))
	if err != nil {
		s.respondBadRequest(c, err)
		return
	}

	var export feedback.FeedbackExport
	if err := json.Unmarshal(body, &export); err != nil {
		s.respondBadRequest(c, err)
		return
	}
	for i, fb := range export.Feedback {
		if fb == nil {
			s.respondError(c, domain.NewValidationError("feedback", fmt.Sprintf("entry %d is null", i), nil))
			return
		}
		if err := s.deps.Calculators.Validate(fb.CalculatorID, fb.Answers); err != nil {
			s.respondError(c, fmt.Errorf("entry %d: %w", i, err))
			return
		}
	}

	imported, skipped, err := s.deps.Feedback.ImportJSON(c.Request.Context(), bytes.NewReader(body))
	if err != nil {
		s.respondError(c, err)
		return
	}

	s.logger.WithFields(logrus.Fields{
		"imported": imported,
		"skipped":  skipped,
	}).Info("Feedback imported")
	c.JSON(http.StatusOK, gin.H{"imported": imported, "skipped": skipped})
}

func (s *Server) handleDeleteFeedback(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("fid"), 10, 64)
	if err != nil {
		s.respondError(c, domain.NewValidationError("id", "must be an integer", c.Param("fid")))
		return
	}
	if err := s.deps.Feedback.Delete(c.Request.Context(), id); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func queryInt(c *gin.Context, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.NewValidationError(name, "must be an integer", raw)
	}
	return v, nil
}
