package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/neurocalc-mcp-server/internal/cache"
	"github.com/neurocalc-mcp-server/internal/domain"
)

// CalculatorService validates caller input and delegates to the pure
// calculators and pathway engines. It is safe for concurrent use.
type CalculatorService struct {
	logger *logrus.Logger
	cache  *cache.ResultCache
}

// CalculateResult is a scored calculation together with its provenance.
type CalculateResult struct {
	CalculatorID       string            `json:"calculator_id"`
	CalculatorName     string            `json:"calculator_name"`
	Score              domain.InputValue `json:"score"`
	Interpretation     string            `json:"interpretation"`
	AnswersFingerprint string            `json:"answers_fingerprint"`
	Cached             bool              `json:"cached"`
	ProcessingTime     time.Duration     `json:"processing_time"`
}

// NewCalculatorService creates a new calculator service. resultCache may be nil.
func NewCalculatorService(logger *logrus.Logger, resultCache *cache.ResultCache) *CalculatorService {
	return &CalculatorService{
		logger: logger,
		cache:  resultCache,
	}
}

// ListCalculators returns every registered calculator in display order.
func (s *CalculatorService) ListCalculators() []*domain.CalculatorDefinition {
	return Calculators()
}

// GetCalculator returns the calculator with the given ID.
func (s *CalculatorService) GetCalculator(id string) (*domain.CalculatorDefinition, error) {
	def, ok := LookupCalculator(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownCalculator, id)
	}
	return def, nil
}

// Validate checks that answers is a complete, well-typed AnswerSet for the
// calculator: no undeclared inputs, every declared input answered, and every
// value one the input accepts.
func (s *CalculatorService) Validate(id string, answers domain.AnswerSet) error {
	def, err := s.GetCalculator(id)
	if err != nil {
		return err
	}
	return validateAnswers(def, answers)
}

func validateAnswers(def *domain.CalculatorDefinition, answers domain.AnswerSet) error {
	for inputID, v := range answers {
		if _, ok := def.Input(inputID); !ok {
			return domain.NewValidationError(inputID, "input is not declared by calculator "+def.ID, v.String())
		}
	}

	var missing []string
	for _, in := range def.Inputs {
		v, ok := answers[in.ID]
		if !ok {
			missing = append(missing, in.ID)
			continue
		}
		if !in.Accepts(v) {
			return domain.NewValidationError(in.ID, acceptsMessage(in), v.String())
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", domain.ErrIncomplete, strings.Join(missing, ", "))
	}
	return nil
}

func acceptsMessage(in domain.InputSpec) string {
	if in.Type == domain.InputBoolean {
		return "must be a boolean"
	}
	values := make([]string, 0, len(in.Options))
	for _, o := range in.Options {
		values = append(values, o.Value.String())
	}
	return "must be one of " + strings.Join(values, ", ")
}

// Calculate validates answers and evaluates the calculator, consulting the
// result cache first.
func (s *CalculatorService) Calculate(ctx context.Context, id string, answers domain.AnswerSet) (*CalculateResult, error) {
	startTime := time.Now()

	def, err := s.GetCalculator(id)
	if err != nil {
		return nil, err
	}
	if err := validateAnswers(def, answers); err != nil {
		return nil, err
	}

	result := &CalculateResult{
		CalculatorID:       def.ID,
		CalculatorName:     def.Name,
		AnswersFingerprint: answers.Fingerprint(),
	}

	key := cache.Key(def.ID, answers)
	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, key); ok {
			result.Score = cached.Score
			result.Interpretation = cached.Interpretation
			result.Cached = true
			result.ProcessingTime = time.Since(startTime)
			return result, nil
		}
	}

	res := def.Calculate(answers)
	result.Score = res.Score
	result.Interpretation = res.Interpretation
	result.ProcessingTime = time.Since(startTime)

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, res); err != nil {
			s.logger.WithError(err).WithField("calculator_id", def.ID).Warn("Failed to cache calculation result")
		}
	}

	s.logger.WithFields(logrus.Fields{
		"calculator_id":   def.ID,
		"score":           res.Score.String(),
		"processing_time": result.ProcessingTime,
	}).Info("Calculation completed")

	return result, nil
}

// ScoreASPECTS validates the side and region keys, then scores the side.
func (s *CalculatorService) ScoreASPECTS(side domain.Hemisphere, regions []string) (domain.ASPECTSResult, error) {
	if err := validateStruct(aspectsInput{Side: side, Regions: regions}); err != nil {
		return domain.ASPECTSResult{}, err
	}

	result := ScoreASPECTS(side, regions)
	s.logger.WithFields(logrus.Fields{
		"side":     side,
		"affected": len(result.Affected),
		"score":    result.Score,
	}).Debug("ASPECTS scored")
	return result, nil
}

// EstimateLVO validates the NIHSS sub-item ranges and maps them to RACE.
func (s *CalculatorService) EstimateLVO(items domain.NIHSSItems) (domain.LVOEstimate, error) {
	if err := validateStruct(items); err != nil {
		return domain.LVOEstimate{}, err
	}

	est := EstimateLVO(items)
	s.logger.WithFields(logrus.Fields{
		"race_score":  est.Score,
		"probability": est.Probability,
	}).Debug("LVO estimated")
	return est, nil
}

// ClassifyThrombectomy validates the pathway fields and runs the decision list.
func (s *CalculatorService) ClassifyThrombectomy(in domain.ThrombectomyInputs) (domain.EligibilityClassification, error) {
	if err := validateStruct(in); err != nil {
		return domain.EligibilityClassification{}, err
	}

	result, rule := classifyEligibility(in)
	s.logger.WithFields(logrus.Fields{
		"time":     in.Time,
		"mrs":      in.MRS,
		"location": in.Location,
		"imaging":  in.Imaging,
		"mismatch": in.Mismatch,
		"rule":     rule,
		"status":   result.Status,
	}).Info("Thrombectomy eligibility classified")
	return result, nil
}

// RecommendSEAgent selects the second-stage status epilepticus agent.
func (s *CalculatorService) RecommendSEAgent(profile domain.ComorbidityProfile) domain.DrugRecommendation {
	rec := RecommendSecondStage(profile)
	s.logger.WithFields(logrus.Fields{
		"agent":    rec.Agent,
		"warnings": len(rec.Warnings),
	}).Info("Status epilepticus agent recommended")
	return rec
}

// CalculateDose returns the loading dose text for a known agent. A
// non-positive weight yields the "Enter weight" prompt, not an error; NaN and
// infinite weights are rejected.
func (s *CalculatorService) CalculateDose(agent domain.Agent, weightKg float64) (string, error) {
	if !agent.IsValid() {
		return "", fmt.Errorf("%w: %s", domain.ErrUnknownAgent, agent)
	}
	if err := validateStruct(doseInput{WeightKg: weightKg}); err != nil {
		return "", err
	}
	return CalculateDose(agent, weightKg), nil
}
