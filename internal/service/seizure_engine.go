package service

import "github.com/neurocalc-mcp-server/internal/domain"

// RenalAdjustmentWarning is appended when no agent passes its exclusion gate.
const RenalAdjustmentWarning = "Must adjust dose for renal function"

// seExclusions are the derived gates of the second-stage selection.
type seExclusions struct {
	avoidValproate       bool
	avoidLacosamide      bool
	avoidPhenobarbital   bool
	cautionLevetiracetam bool
	cautionPhenytoin     bool
}

func deriveExclusions(p domain.ComorbidityProfile) seExclusions {
	return seExclusions{
		avoidValproate:       p.Liver || p.Pancreatitis || p.Pregnancy || p.Carbapenem,
		avoidLacosamide:      p.Cardiac,
		avoidPhenobarbital:   p.Hypotension || p.Respiratory,
		cautionLevetiracetam: p.Renal,
		cautionPhenytoin:     p.Hypotension || p.Cardiac,
	}
}

// seCandidate is one entry of the agent decision list.
type seCandidate struct {
	agent   domain.Agent
	reason  string
	blocked func(seExclusions) bool
}

var seCandidates = []seCandidate{
	{
		agent:   domain.AgentLevetiracetam,
		reason:  "First-line: broad efficacy, minimal drug interactions, no cardiac or respiratory depression",
		blocked: func(x seExclusions) bool { return x.cautionLevetiracetam },
	},
	{
		agent:   domain.AgentFosphenytoin,
		reason:  "Renal sparing: hepatic clearance, no renal dose adjustment",
		blocked: func(x seExclusions) bool { return x.cautionPhenytoin },
	},
	{
		agent:   domain.AgentValproate,
		reason:  "No hemodynamic or cardiac conduction effects",
		blocked: func(x seExclusions) bool { return x.avoidValproate },
	},
	{
		agent:   domain.AgentLacosamide,
		reason:  "Well tolerated, few interactions",
		blocked: func(x seExclusions) bool { return x.avoidLacosamide },
	},
	{
		agent:   domain.AgentPhenobarbital,
		reason:  "Remaining option: prepare for airway support",
		blocked: func(x seExclusions) bool { return x.avoidPhenobarbital },
	},
}

const seFallbackReason = "All alternatives contraindicated: levetiracetam with renal dose adjustment"

// seFlagWarnings maps each comorbidity flag to its warning, in display order.
var seFlagWarnings = []struct {
	set     func(domain.ComorbidityProfile) bool
	warning string
}{
	{func(p domain.ComorbidityProfile) bool { return p.Hypotension }, "Hypotension: avoid phenobarbital; phenytoin/fosphenytoin may worsen blood pressure"},
	{func(p domain.ComorbidityProfile) bool { return p.Respiratory }, "Respiratory compromise: phenobarbital and benzodiazepines depress respiration"},
	{func(p domain.ComorbidityProfile) bool { return p.Cardiac }, "Cardiac conduction risk: avoid lacosamide (PR prolongation); fosphenytoin requires ECG monitoring"},
	{func(p domain.ComorbidityProfile) bool { return p.Liver }, "Liver disease: avoid valproate (hepatotoxicity)"},
	{func(p domain.ComorbidityProfile) bool { return p.Pancreatitis }, "Pancreatitis history: avoid valproate"},
	{func(p domain.ComorbidityProfile) bool { return p.Pregnancy }, "Pregnancy: avoid valproate (teratogenic)"},
	{func(p domain.ComorbidityProfile) bool { return p.Renal }, "Renal impairment: levetiracetam requires dose adjustment"},
	{func(p domain.ComorbidityProfile) bool { return p.Carbapenem }, "Carbapenem co-administration: valproate levels drop rapidly; avoid"},
}

// RecommendSecondStage selects the second-stage agent for established status
// epilepticus. Warnings list every true flag regardless of the chosen agent.
func RecommendSecondStage(p domain.ComorbidityProfile) domain.DrugRecommendation {
	warnings := make([]string, 0, len(seFlagWarnings)+1)
	for _, fw := range seFlagWarnings {
		if fw.set(p) {
			warnings = append(warnings, fw.warning)
		}
	}

	x := deriveExclusions(p)
	for _, c := range seCandidates {
		if !c.blocked(x) {
			return domain.DrugRecommendation{Agent: c.agent, Reason: c.reason, Warnings: warnings}
		}
	}

	return domain.DrugRecommendation{
		Agent:    domain.AgentLevetiracetam,
		Reason:   seFallbackReason,
		Warnings: append(warnings, RenalAdjustmentWarning),
	}
}
