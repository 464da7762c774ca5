package service

import (
	"math"
	"strconv"

	"github.com/neurocalc-mcp-server/internal/domain"
)

// EnterWeightPrompt is returned instead of a dose when the weight is not positive.
const EnterWeightPrompt = "Enter weight"

type doseRule struct {
	perKg   float64
	cap     float64 // 0 means uncapped
	tenths  bool    // round to 0.1 mg instead of whole mg
	unit    string  // "mg" or "mg PE"
	caution string
}

var doseRules = map[domain.Agent]doseRule{
	domain.AgentLorazepam:     {perKg: 0.1, cap: 4, tenths: true, unit: "mg"},
	domain.AgentMidazolam:     {perKg: 0.2, cap: 10, tenths: true, unit: "mg"},
	domain.AgentDiazepam:      {perKg: 0.15, cap: 10, tenths: true, unit: "mg"},
	domain.AgentLevetiracetam: {perKg: 60, cap: 4500, unit: "mg"},
	domain.AgentFosphenytoin:  {perKg: 20, cap: 1500, unit: "mg PE"},
	domain.AgentValproate:     {perKg: 40, cap: 3000, unit: "mg"},
	domain.AgentLacosamide:    {perKg: 8, cap: 600, unit: "mg"},
	domain.AgentPhenobarbital: {perKg: 20, unit: "mg", caution: "infuse at 50-100 mg/min"},
}

// CalculateDose returns the weight-based loading dose as display text, e.g.
// "4500 mg IV (60 mg/kg, max 4500mg)". A weight of zero or less yields
// EnterWeightPrompt; an agent without a dosing rule yields "".
func CalculateDose(agent domain.Agent, weightKg float64) string {
	rule, ok := doseRules[agent]
	if !ok {
		return ""
	}
	if weightKg <= 0 {
		return EnterWeightPrompt
	}

	dose := rule.perKg * weightKg
	if rule.tenths {
		dose = math.Round(dose*10) / 10
	} else {
		dose = math.Round(dose)
	}
	if rule.cap > 0 {
		dose = math.Min(dose, rule.cap)
	}

	text := formatMg(dose) + " " + rule.unit + " IV (" + formatMg(rule.perKg) + " " + rule.unit + "/kg"
	switch {
	case rule.cap > 0:
		text += ", max " + formatMg(rule.cap) + rule.unit + ")"
	case rule.caution != "":
		text += ", no max; " + rule.caution + ")"
	default:
		text += ")"
	}
	return text
}

func formatMg(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
