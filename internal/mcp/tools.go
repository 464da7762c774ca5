package mcp

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/neurocalc-mcp-server/internal/domain"
	"github.com/neurocalc-mcp-server/internal/feedback"
)

const (
	toolListCalculators      = "list_calculators"
	toolCalculateScore       = "calculate_score"
	toolScoreASPECTS         = "score_aspects"
	toolEstimateLVO          = "estimate_lvo"
	toolClassifyThrombectomy = "classify_thrombectomy"
	toolRecommendSEAgent     = "recommend_se_agent"
	toolCalculateSEDose      = "calculate_se_dose"
	toolSubmitFeedback       = "submit_feedback"
)

// Tool inputs and outputs use plain JSON types so the SDK can infer schemas.

type ListCalculatorsParams struct{}

type OptionInfo struct {
	Value any    `json:"value"`
	Label string `json:"label"`
}

type InputInfo struct {
	ID      string       `json:"id"`
	Label   string       `json:"label"`
	Type    string       `json:"type"`
	Options []OptionInfo `json:"options,omitempty"`
}

type CalculatorInfo struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Inputs      []InputInfo `json:"inputs"`
}

type ListCalculatorsResult struct {
	Calculators []CalculatorInfo `json:"calculators"`
}

type CalculateScoreParams struct {
	CalculatorID string         `json:"calculator_id" jsonschema:"calculator id, e.g. gcs"`
	Answers      map[string]any `json:"answers" jsonschema:"answer per input id: number, boolean or string"`
}

type CalculateScoreResult struct {
	CalculatorID       string `json:"calculator_id"`
	CalculatorName     string `json:"calculator_name"`
	Score              any    `json:"score"`
	Interpretation     string `json:"interpretation"`
	AnswersFingerprint string `json:"answers_fingerprint"`
	Cached             bool   `json:"cached"`
}

type ScoreASPECTSParams struct {
	Side    string   `json:"side" jsonschema:"hemisphere scored: L or R"`
	Regions []string `json:"regions" jsonschema:"affected region keys, e.g. L-M1"`
}

type ThrombectomyParams struct {
	Time     string `json:"time,omitempty" jsonschema:"early (0-6h), late (6-24h) or out (>24h)"`
	MRS      string `json:"mrs,omitempty" jsonschema:"premorbid function: independent or dependent"`
	Location string `json:"location,omitempty" jsonschema:"occlusion: ant, post or distal"`
	Imaging  string `json:"imaging,omitempty" jsonschema:"core size: small, large or massive"`
	Mismatch string `json:"mismatch,omitempty" jsonschema:"perfusion mismatch: present or absent"`
}

type RecommendationResult struct {
	Agent       string   `json:"agent"`
	DisplayName string   `json:"display_name"`
	Reason      string   `json:"reason"`
	Warnings    []string `json:"warnings"`
}

type SEDoseParams struct {
	Agent    string  `json:"agent" jsonschema:"agent id, e.g. levetiracetam"`
	WeightKg float64 `json:"weight_kg,omitempty" jsonschema:"patient weight in kg"`
}

type SEDoseResult struct {
	Agent    string  `json:"agent"`
	WeightKg float64 `json:"weight_kg"`
	Dose     string  `json:"dose"`
}

type SubmitFeedbackParams struct {
	CalculatorID            string         `json:"calculator_id"`
	Answers                 map[string]any `json:"answers"`
	Agreed                  bool           `json:"agreed"`
	ClinicianInterpretation string         `json:"clinician_interpretation,omitempty"`
	Notes                   string         `json:"notes,omitempty"`
}

type SubmitFeedbackResult struct {
	ID                      int64     `json:"id"`
	CalculatorID            string    `json:"calculator_id"`
	AnswersFingerprint      string    `json:"answers_fingerprint"`
	SuggestedInterpretation string    `json:"suggested_interpretation"`
	SavedAt                 time.Time `json:"saved_at"`
}

// plainValue unwraps an InputValue into a JSON-native Go value.
func plainValue(v domain.InputValue) any {
	switch v.Kind() {
	case domain.KindNumber:
		n, _ := v.AsNumber()
		return n
	case domain.KindBool:
		b, _ := v.AsBool()
		return b
	case domain.KindTag:
		t, _ := v.AsTag()
		return t
	}
	return nil
}

// toolError reports a caller mistake as a tool result so the model can
// correct its arguments.
func toolError(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{
			Text: domain.ErrorCode(err) + ": " + err.Error(),
		}},
	}
}

func (s *Server) toolLog(tool string) *logrus.Entry {
	return s.logger.WithField("tool", tool)
}

func (s *Server) handleListCalculators(ctx context.Context, req *mcp.CallToolRequest, _ ListCalculatorsParams) (*mcp.CallToolResult, ListCalculatorsResult, error) {
	s.toolLog(toolListCalculators).Debug("Tool invoked")

	return nil, s.catalog(), nil
}

func (s *Server) catalog() ListCalculatorsResult {
	defs := s.calculators.ListCalculators()
	out := ListCalculatorsResult{Calculators: make([]CalculatorInfo, 0, len(defs))}
	for _, def := range defs {
		out.Calculators = append(out.Calculators, calculatorInfo(def))
	}
	return out
}

func calculatorInfo(def *domain.CalculatorDefinition) CalculatorInfo {
	info := CalculatorInfo{
		ID:          def.ID,
		Name:        def.Name,
		Description: def.Description,
		Inputs:      make([]InputInfo, 0, len(def.Inputs)),
	}
	for _, in := range def.Inputs {
		input := InputInfo{ID: in.ID, Label: in.Label, Type: string(in.Type)}
		for _, opt := range in.Options {
			input.Options = append(input.Options, OptionInfo{Value: plainValue(opt.Value), Label: opt.Label})
		}
		info.Inputs = append(info.Inputs, input)
	}
	return info
}

func (s *Server) handleCalculateScore(ctx context.Context, req *mcp.CallToolRequest, params CalculateScoreParams) (*mcp.CallToolResult, CalculateScoreResult, error) {
	s.toolLog(toolCalculateScore).WithField("calculator_id", params.CalculatorID).Info("Tool invoked")

	answers, err := domain.AnswerSetFromMap(params.Answers)
	if err != nil {
		return toolError(err), CalculateScoreResult{}, nil
	}

	res, err := s.calculators.Calculate(ctx, params.CalculatorID, answers)
	if err != nil {
		return toolError(err), CalculateScoreResult{}, nil
	}

	return nil, CalculateScoreResult{
		CalculatorID:       res.CalculatorID,
		CalculatorName:     res.CalculatorName,
		Score:              plainValue(res.Score),
		Interpretation:     res.Interpretation,
		AnswersFingerprint: res.AnswersFingerprint,
		Cached:             res.Cached,
	}, nil
}

func (s *Server) handleScoreASPECTS(ctx context.Context, req *mcp.CallToolRequest, params ScoreASPECTSParams) (*mcp.CallToolResult, domain.ASPECTSResult, error) {
	s.toolLog(toolScoreASPECTS).Debug("Tool invoked")

	res, err := s.calculators.ScoreASPECTS(domain.Hemisphere(params.Side), params.Regions)
	if err != nil {
		return toolError(err), domain.ASPECTSResult{}, nil
	}
	return nil, res, nil
}

func (s *Server) handleEstimateLVO(ctx context.Context, req *mcp.CallToolRequest, items domain.NIHSSItems) (*mcp.CallToolResult, domain.LVOEstimate, error) {
	s.toolLog(toolEstimateLVO).Debug("Tool invoked")

	est, err := s.calculators.EstimateLVO(items)
	if err != nil {
		return toolError(err), domain.LVOEstimate{}, nil
	}
	return nil, est, nil
}

func (s *Server) handleClassifyThrombectomy(ctx context.Context, req *mcp.CallToolRequest, params ThrombectomyParams) (*mcp.CallToolResult, domain.EligibilityClassification, error) {
	s.toolLog(toolClassifyThrombectomy).Debug("Tool invoked")

	res, err := s.calculators.ClassifyThrombectomy(domain.ThrombectomyInputs{
		Time:     domain.TimeWindow(params.Time),
		MRS:      domain.PremorbidFunction(params.MRS),
		Location: domain.OcclusionLocation(params.Location),
		Imaging:  domain.CoreSize(params.Imaging),
		Mismatch: domain.PerfusionMismatch(params.Mismatch),
	})
	if err != nil {
		return toolError(err), domain.EligibilityClassification{}, nil
	}
	return nil, res, nil
}

func (s *Server) handleRecommendSEAgent(ctx context.Context, req *mcp.CallToolRequest, profile domain.ComorbidityProfile) (*mcp.CallToolResult, RecommendationResult, error) {
	s.toolLog(toolRecommendSEAgent).Debug("Tool invoked")

	rec := s.calculators.RecommendSEAgent(profile)
	warnings := rec.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	return nil, RecommendationResult{
		Agent:       string(rec.Agent),
		DisplayName: rec.Agent.DisplayName(),
		Reason:      rec.Reason,
		Warnings:    warnings,
	}, nil
}

func (s *Server) handleCalculateSEDose(ctx context.Context, req *mcp.CallToolRequest, params SEDoseParams) (*mcp.CallToolResult, SEDoseResult, error) {
	s.toolLog(toolCalculateSEDose).Debug("Tool invoked")

	dose, err := s.calculators.CalculateDose(domain.Agent(params.Agent), params.WeightKg)
	if err != nil {
		return toolError(err), SEDoseResult{}, nil
	}
	return nil, SEDoseResult{Agent: params.Agent, WeightKg: params.WeightKg, Dose: dose}, nil
}

func (s *Server) handleSubmitFeedback(ctx context.Context, req *mcp.CallToolRequest, params SubmitFeedbackParams) (*mcp.CallToolResult, SubmitFeedbackResult, error) {
	log := s.toolLog(toolSubmitFeedback).WithField("calculator_id", params.CalculatorID)
	log.Info("Tool invoked")

	answers, err := domain.AnswerSetFromMap(params.Answers)
	if err != nil {
		return toolError(err), SubmitFeedbackResult{}, nil
	}

	res, err := s.calculators.Calculate(ctx, params.CalculatorID, answers)
	if err != nil {
		return toolError(err), SubmitFeedbackResult{}, nil
	}

	fb := &feedback.Feedback{
		CalculatorID:            res.CalculatorID,
		Answers:                 answers,
		SuggestedInterpretation: res.Interpretation,
		ClinicianInterpretation: params.ClinicianInterpretation,
		Agreed:                  params.Agreed,
		Notes:                   params.Notes,
	}
	if err := s.feedback.Save(ctx, fb); err != nil {
		log.WithError(err).Error("Failed to save feedback")
		return nil, SubmitFeedbackResult{}, err
	}

	return nil, SubmitFeedbackResult{
		ID:                      fb.ID,
		CalculatorID:            fb.CalculatorID,
		AnswersFingerprint:      fb.AnswersFingerprint,
		SuggestedInterpretation: fb.SuggestedInterpretation,
		SavedAt:                 fb.UpdatedAt,
	}, nil
}
