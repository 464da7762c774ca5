package service

import (
	"fmt"

	"github.com/neurocalc-mcp-server/internal/domain"
)

// evtRule is one entry of the thrombectomy decision list.
type evtRule struct {
	name    string
	matches func(domain.ThrombectomyInputs) bool
	result  domain.EligibilityClassification
}

// evtRules is evaluated top-down; the first matching rule wins. Location is
// checked before the time tiers so that basilar and distal occlusions bypass
// the anterior circulation imaging criteria.
var evtRules = []evtRule{
	{
		name:    "outside_window",
		matches: func(in domain.ThrombectomyInputs) bool { return in.Time == domain.WindowOut },
		result: domain.EligibilityClassification{
			Status:         domain.StatusNA,
			Interpretation: "Outside standard thrombectomy window (>24h from last known well).",
		},
	},
	{
		name:    "premorbid_dependent",
		matches: func(in domain.ThrombectomyInputs) bool { return in.MRS == domain.PremorbidDependent },
		result: domain.EligibilityClassification{
			Status:         domain.StatusReview,
			Interpretation: "Premorbid mRS >1: patients were excluded from the major trials. Individualized decision.",
		},
	},
	{
		name:    "basilar",
		matches: func(in domain.ThrombectomyInputs) bool { return in.Location == domain.OcclusionBasilar },
		result: domain.EligibilityClassification{
			Status:         domain.StatusEligible,
			Interpretation: "Basilar artery occlusion: thrombectomy reasonable up to 24h (ATTENTION, BAOCHE).",
		},
	},
	{
		name:    "distal",
		matches: func(in domain.ThrombectomyInputs) bool { return in.Location == domain.OcclusionDistal },
		result: domain.EligibilityClassification{
			Status:         domain.StatusConsider,
			Interpretation: "Distal or medium vessel occlusion: consider if technically feasible and deficit is disabling.",
		},
	},
	{
		name: "early_small_core",
		matches: func(in domain.ThrombectomyInputs) bool {
			return in.Time == domain.WindowEarly && in.Imaging == domain.CoreSmall
		},
		result: domain.EligibilityClassification{
			Status:         domain.StatusEligible,
			Interpretation: "0-6h with small core (ASPECTS 6-10): strong evidence for thrombectomy (HERMES).",
		},
	},
	{
		name: "early_large_core",
		matches: func(in domain.ThrombectomyInputs) bool {
			return in.Time == domain.WindowEarly && in.Imaging == domain.CoreLarge
		},
		result: domain.EligibilityClassification{
			Status:         domain.StatusEligible,
			Interpretation: "0-6h with large core (ASPECTS 3-5): benefit shown (SELECT2, ANGEL-ASPECT, RESCUE-Japan LIMIT).",
		},
	},
	{
		name:    "early_other",
		matches: func(in domain.ThrombectomyInputs) bool { return in.Time == domain.WindowEarly },
		result: domain.EligibilityClassification{
			Status:         domain.StatusFutile,
			Interpretation: "Massive established infarct (ASPECTS 0-2): thrombectomy likely futile.",
		},
	},
	{
		name: "late_mismatch",
		matches: func(in domain.ThrombectomyInputs) bool {
			return in.Time == domain.WindowLate && in.Mismatch == domain.MismatchPresent
		},
		result: domain.EligibilityClassification{
			Status:         domain.StatusEligible,
			Interpretation: "6-24h with clinical-core or perfusion mismatch: eligible (DAWN, DEFUSE-3).",
		},
	},
	{
		name:    "late_no_mismatch",
		matches: func(in domain.ThrombectomyInputs) bool { return in.Time == domain.WindowLate },
		result: domain.EligibilityClassification{
			Status:         domain.StatusNotEligible,
			Interpretation: "6-24h without target mismatch: not eligible under DAWN/DEFUSE-3 criteria.",
		},
	},
}

var evtFallback = domain.EligibilityClassification{
	Status:         domain.StatusUnknown,
	Interpretation: "Insufficient criteria matched: clinical correlation required.",
}

func init() {
	if err := checkEVTRules(evtRules, evtFallback); err != nil {
		panic(err)
	}
}

// checkEVTRules rejects a decision list that could emit an outcome tag outside
// the fixed set.
func checkEVTRules(rules []evtRule, fallback domain.EligibilityClassification) error {
	seen := make(map[string]bool, len(rules))
	for i, rule := range rules {
		if rule.name == "" || rule.matches == nil {
			return fmt.Errorf("evt rule %d is incomplete", i)
		}
		if seen[rule.name] {
			return fmt.Errorf("evt rule %q is duplicated", rule.name)
		}
		seen[rule.name] = true
		if !rule.result.Status.IsValid() {
			return fmt.Errorf("evt rule %q has unknown status %q", rule.name, rule.result.Status)
		}
	}
	if !fallback.Status.IsValid() {
		return fmt.Errorf("evt fallback has unknown status %q", fallback.Status)
	}
	return nil
}

// ClassifyEligibility runs the thrombectomy decision list. It is total: inputs
// that match no rule yield the Unknown fallback.
func ClassifyEligibility(in domain.ThrombectomyInputs) domain.EligibilityClassification {
	c, _ := classifyEligibility(in)
	return c
}

// classifyEligibility also returns the name of the matched rule for logging.
func classifyEligibility(in domain.ThrombectomyInputs) (domain.EligibilityClassification, string) {
	for _, rule := range evtRules {
		if rule.matches(in) {
			return rule.result, rule.name
		}
	}
	return evtFallback, "fallback"
}
