package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neurocalc-mcp-server/internal/domain"
)

func TestScoreASPECTS(t *testing.T) {
	tests := []struct {
		name           string
		side           domain.Hemisphere
		selected       []string
		want           int
		interpretation string
	}{
		{"no regions", domain.HemisphereLeft, nil, 10, "Small core: favorable for reperfusion"},
		{"other side ignored", domain.HemisphereLeft, []string{"R-M1", "R-M2", "R-M3"}, 10, "Small core: favorable for reperfusion"},
		{"two regions", domain.HemisphereLeft, []string{"L-M1", "L-IC"}, 8, "Small core: favorable for reperfusion"},
		{"duplicates counted once", domain.HemisphereRight, []string{"R-C", "R-C", "R-L"}, 8, "Small core: favorable for reperfusion"},
		{"moderate", domain.HemisphereRight, []string{"R-C", "R-L", "R-IC"}, 7, "Moderate core"},
		{"lower moderate", domain.HemisphereRight, []string{"R-C", "R-L", "R-IC", "R-I", "R-M1"}, 5, "Moderate core"},
		{"large", domain.HemisphereLeft, []string{"L-C", "L-L", "L-IC", "L-I", "L-M1", "L-M2"}, 4, "Large core: high risk of poor outcome"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := ScoreASPECTS(tt.side, tt.selected)
			assert.Equal(t, tt.want, r.Score)
			assert.Equal(t, tt.interpretation, r.Interpretation)
			assert.Len(t, r.Affected, 10-tt.want)
		})
	}
}

func TestScoreASPECTS_AllRegions(t *testing.T) {
	keys := make([]string, 0, len(ASPECTSRegions))
	for _, r := range ASPECTSRegions {
		keys = append(keys, ASPECTSKey(domain.HemisphereLeft, r))
	}
	assert.Equal(t, 0, ScoreASPECTS(domain.HemisphereLeft, keys).Score)
	assert.True(t, IsASPECTSRegion("M6"))
	assert.False(t, IsASPECTSRegion("M7"))
}

func TestClassifyEligibility(t *testing.T) {
	tests := []struct {
		name     string
		in       domain.ThrombectomyInputs
		status   domain.EligibilityStatus
		contains string
	}{
		{
			name:     "outside window short-circuits everything",
			in:       domain.ThrombectomyInputs{Time: domain.WindowOut, MRS: domain.PremorbidDependent, Location: domain.OcclusionBasilar, Imaging: domain.CoreSmall},
			status:   domain.StatusNA,
			contains: ">24h",
		},
		{
			name:   "basilar still N/A when outside window",
			in:     domain.ThrombectomyInputs{Time: domain.WindowOut, Location: domain.OcclusionBasilar},
			status: domain.StatusNA,
		},
		{
			name:     "dependent before location",
			in:       domain.ThrombectomyInputs{Time: domain.WindowEarly, MRS: domain.PremorbidDependent, Location: domain.OcclusionBasilar},
			status:   domain.StatusReview,
			contains: "mRS >1",
		},
		{
			name:     "basilar bypasses imaging",
			in:       domain.ThrombectomyInputs{Time: domain.WindowEarly, MRS: domain.PremorbidIndependent, Location: domain.OcclusionBasilar, Imaging: domain.CoreMassive},
			status:   domain.StatusEligible,
			contains: "BAOCHE",
		},
		{
			name:     "distal",
			in:       domain.ThrombectomyInputs{Time: domain.WindowLate, Location: domain.OcclusionDistal, Mismatch: domain.MismatchAbsent},
			status:   domain.StatusConsider,
			contains: "feasible",
		},
		{
			name:     "early small core",
			in:       domain.ThrombectomyInputs{Time: domain.WindowEarly, MRS: domain.PremorbidIndependent, Location: domain.OcclusionAnterior, Imaging: domain.CoreSmall},
			status:   domain.StatusEligible,
			contains: "HERMES",
		},
		{
			name:     "early large core",
			in:       domain.ThrombectomyInputs{Time: domain.WindowEarly, Location: domain.OcclusionAnterior, Imaging: domain.CoreLarge},
			status:   domain.StatusEligible,
			contains: "SELECT2",
		},
		{
			name:     "early massive core",
			in:       domain.ThrombectomyInputs{Time: domain.WindowEarly, Location: domain.OcclusionAnterior, Imaging: domain.CoreMassive},
			status:   domain.StatusFutile,
			contains: "futile",
		},
		{
			name:   "early unanswered imaging falls to else branch",
			in:     domain.ThrombectomyInputs{Time: domain.WindowEarly},
			status: domain.StatusFutile,
		},
		{
			name:     "late with mismatch",
			in:       domain.ThrombectomyInputs{Time: domain.WindowLate, Location: domain.OcclusionAnterior, Mismatch: domain.MismatchPresent},
			status:   domain.StatusEligible,
			contains: "DAWN",
		},
		{
			name:   "late without mismatch",
			in:     domain.ThrombectomyInputs{Time: domain.WindowLate, Location: domain.OcclusionAnterior, Mismatch: domain.MismatchAbsent},
			status: domain.StatusNotEligible,
		},
		{
			name:     "nothing answered",
			in:       domain.ThrombectomyInputs{},
			status:   domain.StatusUnknown,
			contains: "clinical correlation required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyEligibility(tt.in)
			assert.Equal(t, tt.status, got.Status)
			assert.NotEmpty(t, got.Interpretation)
			if tt.contains != "" {
				assert.Contains(t, got.Interpretation, tt.contains)
			}
		})
	}
}

func TestClassifyEligibility_OutAlwaysNA(t *testing.T) {
	mrs := []domain.PremorbidFunction{"", domain.PremorbidIndependent, domain.PremorbidDependent}
	locs := []domain.OcclusionLocation{"", domain.OcclusionAnterior, domain.OcclusionBasilar, domain.OcclusionDistal}
	cores := []domain.CoreSize{"", domain.CoreSmall, domain.CoreLarge, domain.CoreMassive}
	mismatches := []domain.PerfusionMismatch{"", domain.MismatchPresent, domain.MismatchAbsent}

	for _, m := range mrs {
		for _, l := range locs {
			for _, c := range cores {
				for _, mm := range mismatches {
					in := domain.ThrombectomyInputs{Time: domain.WindowOut, MRS: m, Location: l, Imaging: c, Mismatch: mm}
					assert.Equal(t, domain.StatusNA, ClassifyEligibility(in).Status, "%+v", in)
				}
			}
		}
	}
}

func TestCheckEVTRules(t *testing.T) {
	require.NoError(t, checkEVTRules(evtRules, evtFallback))

	always := func(domain.ThrombectomyInputs) bool { return true }
	ok := domain.EligibilityClassification{Status: domain.StatusReview}
	bad := domain.EligibilityClassification{Status: "Maybe"}

	err := checkEVTRules([]evtRule{{name: "r", matches: always, result: bad}}, evtFallback)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown status "Maybe"`)

	err = checkEVTRules([]evtRule{{name: "r", matches: always, result: ok}}, bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fallback")

	err = checkEVTRules([]evtRule{{name: "r", matches: always, result: ok}, {name: "r", matches: always, result: ok}}, evtFallback)
	assert.ErrorContains(t, err, "duplicated")

	err = checkEVTRules([]evtRule{{name: "r", result: ok}}, evtFallback)
	assert.ErrorContains(t, err, "incomplete")
}

func TestRecommendSecondStage(t *testing.T) {
	tests := []struct {
		name         string
		profile      domain.ComorbidityProfile
		agent        domain.Agent
		reason       string
		warningCount int
	}{
		{"no comorbidities", domain.ComorbidityProfile{}, domain.AgentLevetiracetam, "First-line", 0},
		{"renal only", domain.ComorbidityProfile{Renal: true}, domain.AgentFosphenytoin, "Renal sparing", 1},
		{"renal and cardiac", domain.ComorbidityProfile{Renal: true, Cardiac: true}, domain.AgentValproate, "", 2},
		{"renal, cardiac, liver", domain.ComorbidityProfile{Renal: true, Cardiac: true, Liver: true}, domain.AgentPhenobarbital, "", 3},
		{"renal, hypotension, pregnancy", domain.ComorbidityProfile{Renal: true, Hypotension: true, Pregnancy: true}, domain.AgentLacosamide, "", 3},
		{"liver does not block first line", domain.ComorbidityProfile{Liver: true, Pregnancy: true}, domain.AgentLevetiracetam, "First-line", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := RecommendSecondStage(tt.profile)
			assert.Equal(t, tt.agent, rec.Agent)
			if tt.reason != "" {
				assert.Contains(t, rec.Reason, tt.reason)
			}
			assert.Len(t, rec.Warnings, tt.warningCount)
			assert.NotContains(t, rec.Warnings, RenalAdjustmentWarning)
		})
	}
}

func TestRecommendSecondStage_AllFlagsFallsBack(t *testing.T) {
	rec := RecommendSecondStage(domain.ComorbidityProfile{
		Hypotension: true, Respiratory: true, Cardiac: true, Liver: true,
		Pancreatitis: true, Pregnancy: true, Renal: true, Carbapenem: true,
	})

	assert.Equal(t, domain.AgentLevetiracetam, rec.Agent)
	require.Len(t, rec.Warnings, 9)
	for i, fw := range seFlagWarnings {
		assert.Equal(t, fw.warning, rec.Warnings[i])
	}
	assert.Equal(t, RenalAdjustmentWarning, rec.Warnings[8])
}

func TestRecommendSecondStage_WarningsIndependentOfAgent(t *testing.T) {
	// Cardiac warning surfaces even though levetiracetam is unaffected by it.
	rec := RecommendSecondStage(domain.ComorbidityProfile{Cardiac: true})
	assert.Equal(t, domain.AgentLevetiracetam, rec.Agent)
	require.Len(t, rec.Warnings, 1)
	assert.Contains(t, rec.Warnings[0], "Cardiac")
}

func TestCalculateDose(t *testing.T) {
	tests := []struct {
		agent  domain.Agent
		weight float64
		want   string
	}{
		{domain.AgentLevetiracetam, 100, "4500 mg IV (60 mg/kg, max 4500mg)"},
		{domain.AgentLevetiracetam, 50, "3000 mg IV (60 mg/kg, max 4500mg)"},
		{domain.AgentLorazepam, 0, "Enter weight"},
		{domain.AgentLorazepam, -5, "Enter weight"},
		{domain.AgentLorazepam, 35, "3.5 mg IV (0.1 mg/kg, max 4mg)"},
		{domain.AgentLorazepam, 80, "4 mg IV (0.1 mg/kg, max 4mg)"},
		{domain.AgentMidazolam, 42, "8.4 mg IV (0.2 mg/kg, max 10mg)"},
		{domain.AgentDiazepam, 30, "4.5 mg IV (0.15 mg/kg, max 10mg)"},
		{domain.AgentDiazepam, 90, "10 mg IV (0.15 mg/kg, max 10mg)"},
		{domain.AgentFosphenytoin, 70, "1400 mg PE IV (20 mg PE/kg, max 1500mg PE)"},
		{domain.AgentFosphenytoin, 90, "1500 mg PE IV (20 mg PE/kg, max 1500mg PE)"},
		{domain.AgentValproate, 80, "3000 mg IV (40 mg/kg, max 3000mg)"},
		{domain.AgentLacosamide, 60, "480 mg IV (8 mg/kg, max 600mg)"},
		{domain.AgentPhenobarbital, 150, "3000 mg IV (20 mg/kg, no max; infuse at 50-100 mg/min)"},
		{domain.Agent("aspirin"), 70, ""},
	}

	for _, tt := range tests {
		t.Run(string(tt.agent), func(t *testing.T) {
			assert.Equal(t, tt.want, CalculateDose(tt.agent, tt.weight))
		})
	}
}

func TestEstimateLVO(t *testing.T) {
	zero := EstimateLVO(domain.NIHSSItems{})
	assert.Equal(t, 0, zero.Score)
	assert.Equal(t, domain.LVOLow, zero.Probability)
	assert.Equal(t, 20, zero.Percent)

	severe := EstimateLVO(domain.NIHSSItems{
		Facial: 3, Gaze: 2, Aphasia: 3,
		MotorArmLeft: 4, MotorArmRight: 4, MotorLegLeft: 4, MotorLegRight: 4,
	})
	assert.Equal(t, 9, severe.Score)
	assert.Equal(t, domain.LVOHigh, severe.Probability)
	assert.Equal(t, 85, severe.Percent)
	assert.Equal(t, domain.RACEComponents{Facial: 2, Arm: 2, Leg: 2, Gaze: 1, Aphasia: 2}, severe.Components)
}

func TestRACEComponentsFromNIHSS(t *testing.T) {
	tests := []struct {
		name  string
		items domain.NIHSSItems
		want  domain.RACEComponents
	}{
		{"facial 1", domain.NIHSSItems{Facial: 1}, domain.RACEComponents{Facial: 1}},
		{"facial 2", domain.NIHSSItems{Facial: 2}, domain.RACEComponents{Facial: 2}},
		{"worse arm wins", domain.NIHSSItems{MotorArmLeft: 1, MotorArmRight: 3}, domain.RACEComponents{Arm: 2}},
		{"leg 2 is mild", domain.NIHSSItems{MotorLegRight: 2}, domain.RACEComponents{Leg: 1}},
		{"gaze capped at 1", domain.NIHSSItems{Gaze: 2}, domain.RACEComponents{Gaze: 1}},
		{"aphasia 1", domain.NIHSSItems{Aphasia: 1}, domain.RACEComponents{Aphasia: 1}},
		{"extinction to agnosia", domain.NIHSSItems{Extinction: 2}, domain.RACEComponents{Agnosia: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RACEComponentsFromNIHSS(tt.items))
		})
	}
}

func TestEstimateLVO_Buckets(t *testing.T) {
	moderate := EstimateLVO(domain.NIHSSItems{Facial: 2, MotorArmLeft: 4, Gaze: 1})
	assert.Equal(t, 5, moderate.Score)
	assert.Equal(t, domain.LVOModerate, moderate.Probability)
	assert.Equal(t, 55, moderate.Percent)

	high := EstimateLVO(domain.NIHSSItems{Facial: 2, MotorArmLeft: 4, MotorLegLeft: 4, Gaze: 1})
	assert.Equal(t, 7, high.Score)
	assert.Equal(t, domain.LVOHigh, high.Probability)

	// aphasia and agnosia do not stack
	both := EstimateLVO(domain.NIHSSItems{Aphasia: 2, Extinction: 1})
	assert.Equal(t, 2, both.Score)
}
