package service

import (
	"fmt"

	"github.com/neurocalc-mcp-server/internal/domain"
)

// Calculator IDs
const (
	CalculatorGCS       = "gcs"
	CalculatorABCD2     = "abcd2"
	CalculatorNIHSS     = "nihss"
	CalculatorHASBLED   = "hasbled"
	CalculatorMRS       = "mrs"
	CalculatorHuntHess  = "hunthess"
	CalculatorICH       = "ich"
	CalculatorOttawaSAH = "ottawa"
	CalculatorRoPE      = "rope"
)

// Ottawa SAH categorical scores.
const (
	OttawaPositive = "POSITIVE"
	OttawaNegative = "NEGATIVE"
)

var huntHessMortality = []string{"30%", "40%", "50%", "80%", "90%"}

var ichMortality = map[int]string{
	0: "0%",
	1: "13%",
	2: "26%",
	3: "72%",
	4: "97%",
	5: "100%",
	6: "100%",
}

// ropeAttributableFraction is keyed by exact score. Scores 0-3 are absent and
// fall through to "0%". The 4/5 inversion is the published table.
var ropeAttributableFraction = map[int]string{
	4:  "38%",
	5:  "34%",
	6:  "62%",
	7:  "72%",
	8:  "84%",
	9:  "88% (PFO likely pathogenic)",
	10: "88% (PFO likely pathogenic)",
}

// nihssItems lists the 15 scored NIHSS items with their maximum value.
var nihssItems = []struct {
	id, label string
	max       int
}{
	{"loc", "1a. Level of consciousness", 3},
	{"loc_questions", "1b. LOC questions", 2},
	{"loc_commands", "1c. LOC commands", 2},
	{"gaze", "2. Best gaze", 2},
	{"visual", "3. Visual fields", 3},
	{"facial", "4. Facial palsy", 3},
	{"motor_arm_left", "5a. Motor arm, left", 4},
	{"motor_arm_right", "5b. Motor arm, right", 4},
	{"motor_leg_left", "6a. Motor leg, left", 4},
	{"motor_leg_right", "6b. Motor leg, right", 4},
	{"ataxia", "7. Limb ataxia", 2},
	{"sensory", "8. Sensory", 2},
	{"language", "9. Best language", 3},
	{"dysarthria", "10. Dysarthria", 2},
	{"extinction", "11. Extinction and inattention", 2},
}

var hasBledFactors = []struct{ id, label string }{
	{"hypertension", "Uncontrolled hypertension (SBP > 160)"},
	{"renal", "Abnormal renal function"},
	{"liver", "Abnormal liver function"},
	{"stroke", "Prior stroke"},
	{"bleeding", "Prior major bleeding or predisposition"},
	{"labile_inr", "Labile INR"},
	{"elderly", "Age > 65"},
	{"drugs", "Antiplatelet or NSAID use"},
	{"alcohol", "Alcohol use (>= 8 drinks/week)"},
}

var ottawaFlags = []struct{ id, label string }{
	{"age40", "Age >= 40"},
	{"neck_pain", "Neck pain or stiffness"},
	{"loc", "Witnessed loss of consciousness"},
	{"exertion", "Onset during exertion"},
	{"thunderclap", "Thunderclap headache (instantly peaking)"},
	{"neck_flexion", "Limited neck flexion on examination"},
}

var ropeBonuses = []struct{ id, label string }{
	{"no_hypertension", "No history of hypertension"},
	{"no_diabetes", "No history of diabetes"},
	{"no_prior_stroke", "No history of stroke or TIA"},
	{"non_smoker", "Non-smoker"},
	{"cortical_infarct", "Cortical infarct on imaging"},
}

// registry is built once and never mutated.
var registry = buildRegistry()

// Calculators returns the immutable registry in display order.
func Calculators() []*domain.CalculatorDefinition {
	out := make([]*domain.CalculatorDefinition, len(registry))
	copy(out, registry)
	return out
}

// LookupCalculator returns the calculator with the given ID.
func LookupCalculator(id string) (*domain.CalculatorDefinition, bool) {
	for _, def := range registry {
		if def.ID == id {
			return def, true
		}
	}
	return nil, false
}

func init() {
	if err := checkRegistry(registry); err != nil {
		panic(err)
	}
}

// checkRegistry verifies the shape every caller relies on: unique calculator
// and input ids, known input types, and options only on select inputs.
func checkRegistry(defs []*domain.CalculatorDefinition) error {
	ids := make(map[string]bool, len(defs))
	for _, def := range defs {
		if def.ID == "" || def.Calculate == nil {
			return fmt.Errorf("calculator %q is incomplete", def.ID)
		}
		if ids[def.ID] {
			return fmt.Errorf("calculator %q is registered twice", def.ID)
		}
		ids[def.ID] = true

		inputs := make(map[string]bool, len(def.Inputs))
		for _, in := range def.Inputs {
			if inputs[in.ID] {
				return fmt.Errorf("calculator %s: input %q is declared twice", def.ID, in.ID)
			}
			inputs[in.ID] = true

			if !in.Type.IsValid() {
				return fmt.Errorf("calculator %s: input %q has unknown type %q", def.ID, in.ID, in.Type)
			}
			if (in.Type == domain.InputSelect) != (len(in.Options) > 0) {
				return fmt.Errorf("calculator %s: input %q options do not match type %s", def.ID, in.ID, in.Type)
			}
		}
	}
	return nil
}

func buildRegistry() []*domain.CalculatorDefinition {
	return []*domain.CalculatorDefinition{
		gcsCalculator(),
		abcd2Calculator(),
		nihssCalculator(),
		hasBledCalculator(),
		mrsCalculator(),
		huntHessCalculator(),
		ichCalculator(),
		ottawaCalculator(),
		ropeCalculator(),
	}
}

func gcsCalculator() *domain.CalculatorDefinition {
	return &domain.CalculatorDefinition{
		ID:          CalculatorGCS,
		Name:        "Glasgow Coma Scale",
		Description: "Level of consciousness after brain injury (3-15).",
		Inputs: []domain.InputSpec{
			selectInput("eye", "Eye opening",
				opt(4, "Spontaneous"), opt(3, "To speech"), opt(2, "To pain"), opt(1, "None")),
			selectInput("verbal", "Verbal response",
				opt(5, "Oriented"), opt(4, "Confused"), opt(3, "Inappropriate words"),
				opt(2, "Incomprehensible sounds"), opt(1, "None")),
			selectInput("motor", "Motor response",
				opt(6, "Obeys commands"), opt(5, "Localizes pain"), opt(4, "Withdraws from pain"),
				opt(3, "Abnormal flexion"), opt(2, "Extension"), opt(1, "None")),
		},
		Calculate: func(a domain.AnswerSet) domain.CalculationResult {
			score := a.Number("eye") + a.Number("verbal") + a.Number("motor")
			var interpretation string
			switch {
			case score < 9:
				interpretation = "Severe brain injury (GCS 3-8)"
			case score <= 12:
				interpretation = "Moderate brain injury (GCS 9-12)"
			default:
				interpretation = "Minor brain injury (GCS 13-15)"
			}
			return numeric(score, interpretation)
		},
	}
}

func abcd2Calculator() *domain.CalculatorDefinition {
	return &domain.CalculatorDefinition{
		ID:          CalculatorABCD2,
		Name:        "ABCD2 Score",
		Description: "Short-term stroke risk after transient ischemic attack (0-7).",
		Inputs: []domain.InputSpec{
			boolInput("age", "Age >= 60"),
			boolInput("bp", "BP >= 140/90 at presentation"),
			selectInput("clinical", "Clinical features",
				opt(2, "Unilateral weakness"), opt(1, "Speech disturbance without weakness"), opt(0, "Other")),
			selectInput("duration", "Duration of symptoms",
				opt(2, ">= 60 minutes"), opt(1, "10-59 minutes"), opt(0, "< 10 minutes")),
			boolInput("diabetes", "Diabetes"),
		},
		Calculate: func(a domain.AnswerSet) domain.CalculationResult {
			score := flagPoints(a, "age") + flagPoints(a, "bp") + flagPoints(a, "diabetes") +
				a.Number("clinical") + a.Number("duration")
			var interpretation string
			switch {
			case score >= 6:
				interpretation = "High risk: 8.1% 2-day stroke risk"
			case score >= 4:
				interpretation = "Moderate risk: 4.1% 2-day stroke risk"
			default:
				interpretation = "Low risk: 1.0% 2-day stroke risk"
			}
			return numeric(score, interpretation)
		},
	}
}

func nihssCalculator() *domain.CalculatorDefinition {
	inputs := make([]domain.InputSpec, 0, len(nihssItems))
	for _, item := range nihssItems {
		opts := make([]domain.InputOption, 0, item.max+1)
		for v := 0; v <= item.max; v++ {
			opts = append(opts, opt(float64(v), fmt.Sprintf("%d", v)))
		}
		inputs = append(inputs, selectInput(item.id, item.label, opts...))
	}

	return &domain.CalculatorDefinition{
		ID:          CalculatorNIHSS,
		Name:        "NIH Stroke Scale",
		Description: "Stroke severity from 15 examination items (0-42).",
		Inputs:      inputs,
		Calculate: func(a domain.AnswerSet) domain.CalculationResult {
			var score float64
			for _, item := range nihssItems {
				score += a.Number(item.id)
			}
			var interpretation string
			switch {
			case score == 0:
				interpretation = "No stroke symptoms"
			case score <= 4:
				interpretation = "Minor stroke"
			case score <= 15:
				interpretation = "Moderate stroke"
			case score <= 20:
				interpretation = "Moderate to severe stroke"
			default:
				interpretation = "Severe stroke"
			}
			return numeric(score, interpretation)
		},
	}
}

func hasBledCalculator() *domain.CalculatorDefinition {
	inputs := make([]domain.InputSpec, 0, len(hasBledFactors))
	for _, f := range hasBledFactors {
		inputs = append(inputs, boolInput(f.id, f.label))
	}

	return &domain.CalculatorDefinition{
		ID:          CalculatorHASBLED,
		Name:        "HAS-BLED Score",
		Description: "Major bleeding risk on anticoagulation (0-9).",
		Inputs:      inputs,
		Calculate: func(a domain.AnswerSet) domain.CalculationResult {
			var score float64
			for _, f := range hasBledFactors {
				score += flagPoints(a, f.id)
			}
			var interpretation string
			switch {
			case score >= 3:
				interpretation = "High bleeding risk: caution and regular review"
			case score == 2:
				interpretation = "Moderate bleeding risk"
			default:
				interpretation = "Low bleeding risk"
			}
			return numeric(score, interpretation)
		},
	}
}

func mrsCalculator() *domain.CalculatorDefinition {
	return &domain.CalculatorDefinition{
		ID:          CalculatorMRS,
		Name:        "Modified Rankin Scale",
		Description: "Degree of disability or dependence after stroke (0-6).",
		Inputs: []domain.InputSpec{
			selectInput("mrs", "Functional status",
				opt(0, "No symptoms"),
				opt(1, "No significant disability"),
				opt(2, "Slight disability"),
				opt(3, "Moderate disability, walks unassisted"),
				opt(4, "Moderately severe disability"),
				opt(5, "Severe disability, bedridden"),
				opt(6, "Dead")),
		},
		Calculate: func(a domain.AnswerSet) domain.CalculationResult {
			score := a.Number("mrs")
			var interpretation string
			switch {
			case score == 6:
				interpretation = "Deceased"
			case score >= 3:
				interpretation = "Dependent"
			default:
				interpretation = "Functionally independent"
			}
			return numeric(score, interpretation)
		},
	}
}

func huntHessCalculator() *domain.CalculatorDefinition {
	return &domain.CalculatorDefinition{
		ID:          CalculatorHuntHess,
		Name:        "Hunt and Hess Scale",
		Description: "Clinical grade of aneurysmal subarachnoid hemorrhage (1-5).",
		Inputs: []domain.InputSpec{
			selectInput("grade", "Clinical presentation",
				opt(1, "Asymptomatic or mild headache"),
				opt(2, "Moderate to severe headache, nuchal rigidity, cranial nerve palsy only"),
				opt(3, "Drowsy, confused, or mild focal deficit"),
				opt(4, "Stupor, moderate to severe hemiparesis"),
				opt(5, "Coma, decerebrate posturing")),
		},
		Calculate: func(a domain.AnswerSet) domain.CalculationResult {
			score := a.Number("grade")
			return numeric(score, huntHessInterpretation(score))
		},
	}
}

func huntHessInterpretation(score float64) string {
	idx := int(score) - 1
	if float64(int(score)) != score || idx < 0 || idx >= len(huntHessMortality) {
		return "Unknown"
	}
	return "Approx. Mortality: " + huntHessMortality[idx]
}

func ichCalculator() *domain.CalculatorDefinition {
	return &domain.CalculatorDefinition{
		ID:          CalculatorICH,
		Name:        "ICH Score",
		Description: "30-day mortality after spontaneous intracerebral hemorrhage (0-6).",
		Inputs: []domain.InputSpec{
			selectInput("gcs", "Glasgow Coma Scale",
				opt(2, "3-4"), opt(1, "5-12"), opt(0, "13-15")),
			boolInput("volume", "ICH volume >= 30 cc"),
			boolInput("ivh", "Intraventricular hemorrhage"),
			boolInput("infratentorial", "Infratentorial origin"),
			boolInput("age", "Age >= 80"),
		},
		Calculate: func(a domain.AnswerSet) domain.CalculationResult {
			score := a.Number("gcs") + flagPoints(a, "volume") + flagPoints(a, "ivh") +
				flagPoints(a, "infratentorial") + flagPoints(a, "age")
			mortality, ok := ichMortality[int(score)]
			if !ok {
				mortality = "Unknown"
			}
			return numeric(score, "30-Day Mortality: "+mortality)
		},
	}
}

func ottawaCalculator() *domain.CalculatorDefinition {
	inputs := make([]domain.InputSpec, 0, len(ottawaFlags))
	for _, f := range ottawaFlags {
		inputs = append(inputs, boolInput(f.id, f.label))
	}

	return &domain.CalculatorDefinition{
		ID:          CalculatorOttawaSAH,
		Name:        "Ottawa SAH Rule",
		Description: "Rules out subarachnoid hemorrhage in alert patients with acute headache.",
		Inputs:      inputs,
		Calculate: func(a domain.AnswerSet) domain.CalculationResult {
			for _, f := range ottawaFlags {
				if a.Flag(f.id) {
					return domain.CalculationResult{
						Score:          domain.Tag(OttawaPositive),
						Interpretation: "Rule not met: SAH cannot be ruled out. Further investigation (CT, LP) required.",
					}
				}
			}
			return domain.CalculationResult{
				Score:          domain.Tag(OttawaNegative),
				Interpretation: "Rule met: SAH ruled out.",
			}
		},
	}
}

func ropeCalculator() *domain.CalculatorDefinition {
	inputs := []domain.InputSpec{
		selectInput("age", "Age group",
			opt(5, "18-29"), opt(4, "30-39"), opt(3, "40-49"),
			opt(2, "50-59"), opt(1, "60-69"), opt(0, ">= 70")),
	}
	for _, b := range ropeBonuses {
		inputs = append(inputs, boolInput(b.id, b.label))
	}

	return &domain.CalculatorDefinition{
		ID:          CalculatorRoPE,
		Name:        "RoPE Score",
		Description: "Likelihood that a patent foramen ovale is stroke-related (0-10).",
		Inputs:      inputs,
		Calculate: func(a domain.AnswerSet) domain.CalculationResult {
			score := a.Number("age")
			for _, b := range ropeBonuses {
				score += flagPoints(a, b.id)
			}
			fraction, ok := ropeAttributableFraction[int(score)]
			if !ok || float64(int(score)) != score {
				fraction = "0%"
			}
			return numeric(score, fraction)
		},
	}
}

func numeric(score float64, interpretation string) domain.CalculationResult {
	return domain.CalculationResult{Score: domain.Number(score), Interpretation: interpretation}
}

func flagPoints(a domain.AnswerSet, id string) float64 {
	if a.Flag(id) {
		return 1
	}
	return 0
}

func opt(value float64, label string) domain.InputOption {
	return domain.InputOption{Value: domain.Number(value), Label: label}
}

func selectInput(id, label string, options ...domain.InputOption) domain.InputSpec {
	return domain.InputSpec{ID: id, Label: label, Type: domain.InputSelect, Options: options}
}

func boolInput(id, label string) domain.InputSpec {
	return domain.InputSpec{ID: id, Label: label, Type: domain.InputBoolean}
}
