package domain

// TimeWindow is the interval since last known well.
type TimeWindow string

const (
	WindowEarly TimeWindow = "early" // 0-6h
	WindowLate  TimeWindow = "late"  // 6-24h
	WindowOut   TimeWindow = "out"   // >24h
)

// PremorbidFunction is the baseline modified Rankin status.
type PremorbidFunction string

const (
	PremorbidIndependent PremorbidFunction = "independent" // mRS 0-1
	PremorbidDependent   PremorbidFunction = "dependent"   // mRS >1
)

// OcclusionLocation is the site of the vessel occlusion.
type OcclusionLocation string

const (
	OcclusionAnterior OcclusionLocation = "ant"
	OcclusionBasilar  OcclusionLocation = "post"
	OcclusionDistal   OcclusionLocation = "distal"
)

// CoreSize is the imaging estimate of the infarct core.
type CoreSize string

const (
	CoreSmall   CoreSize = "small"   // ASPECTS 6-10
	CoreLarge   CoreSize = "large"   // ASPECTS 3-5
	CoreMassive CoreSize = "massive" // ASPECTS 0-2
)

// PerfusionMismatch records whether a target mismatch is present.
type PerfusionMismatch string

const (
	MismatchPresent PerfusionMismatch = "present"
	MismatchAbsent  PerfusionMismatch = "absent"
)

// ThrombectomyInputs are the five ordered fields of the EVT pathway. Empty
// fields are unanswered.
type ThrombectomyInputs struct {
	Time     TimeWindow        `json:"time" validate:"omitempty,oneof=early late out"`
	MRS      PremorbidFunction `json:"mrs" validate:"omitempty,oneof=independent dependent"`
	Location OcclusionLocation `json:"location" validate:"omitempty,oneof=ant post distal"`
	Imaging  CoreSize          `json:"imaging" validate:"omitempty,oneof=small large massive"`
	Mismatch PerfusionMismatch `json:"mismatch" validate:"omitempty,oneof=present absent"`
}

// EligibilityStatus is the outcome tag of the EVT pathway.
type EligibilityStatus string

const (
	StatusEligible    EligibilityStatus = "Eligible"
	StatusConsider    EligibilityStatus = "Consider"
	StatusReview      EligibilityStatus = "Review"
	StatusFutile      EligibilityStatus = "Futile"
	StatusNotEligible EligibilityStatus = "Not Eligible"
	StatusUnknown     EligibilityStatus = "Unknown"
	StatusNA          EligibilityStatus = "N/A"
)

// IsValid reports whether the status is one of the fixed outcome tags.
func (s EligibilityStatus) IsValid() bool {
	switch s {
	case StatusEligible, StatusConsider, StatusReview, StatusFutile,
		StatusNotEligible, StatusUnknown, StatusNA:
		return true
	}
	return false
}

// EligibilityClassification pairs an outcome tag with its rationale.
type EligibilityClassification struct {
	Status         EligibilityStatus `json:"status"`
	Interpretation string            `json:"interpretation"`
}

// ComorbidityProfile holds the eight independent status epilepticus risk flags.
type ComorbidityProfile struct {
	Hypotension  bool `json:"hypotension"`
	Respiratory  bool `json:"respiratory"`
	Cardiac      bool `json:"cardiac"`
	Liver        bool `json:"liver"`
	Pancreatitis bool `json:"pancreatitis"`
	Pregnancy    bool `json:"pregnancy"`
	Renal        bool `json:"renal"`
	Carbapenem   bool `json:"carbapenem"`
}

// Agent is an antiseizure medication handled by the SE pathway.
type Agent string

const (
	AgentLorazepam     Agent = "lorazepam"
	AgentMidazolam     Agent = "midazolam"
	AgentDiazepam      Agent = "diazepam"
	AgentLevetiracetam Agent = "levetiracetam"
	AgentFosphenytoin  Agent = "fosphenytoin"
	AgentValproate     Agent = "valproate"
	AgentLacosamide    Agent = "lacosamide"
	AgentPhenobarbital Agent = "phenobarbital"
)

// Agents lists every agent with a dosing rule.
var Agents = []Agent{
	AgentLorazepam, AgentMidazolam, AgentDiazepam,
	AgentLevetiracetam, AgentFosphenytoin, AgentValproate, AgentLacosamide, AgentPhenobarbital,
}

// IsValid reports whether the agent has a dosing rule.
func (a Agent) IsValid() bool {
	for _, known := range Agents {
		if a == known {
			return true
		}
	}
	return false
}

// DisplayName returns the capitalised drug name.
func (a Agent) DisplayName() string {
	switch a {
	case AgentLorazepam:
		return "Lorazepam"
	case AgentMidazolam:
		return "Midazolam"
	case AgentDiazepam:
		return "Diazepam"
	case AgentLevetiracetam:
		return "Levetiracetam"
	case AgentFosphenytoin:
		return "Fosphenytoin"
	case AgentValproate:
		return "Valproate"
	case AgentLacosamide:
		return "Lacosamide"
	case AgentPhenobarbital:
		return "Phenobarbital"
	}
	return string(a)
}

// DrugRecommendation is the output of the SE second-stage selection.
type DrugRecommendation struct {
	Agent    Agent    `json:"agent"`
	Reason   string   `json:"reason"`
	Warnings []string `json:"warnings"`
}

// NIHSSItems are the NIHSS sub-item scores consumed by the RACE mapping.
type NIHSSItems struct {
	Facial        int `json:"facial" validate:"min=0,max=3"`
	MotorArmLeft  int `json:"motor_arm_left" validate:"min=0,max=4"`
	MotorArmRight int `json:"motor_arm_right" validate:"min=0,max=4"`
	MotorLegLeft  int `json:"motor_leg_left" validate:"min=0,max=4"`
	MotorLegRight int `json:"motor_leg_right" validate:"min=0,max=4"`
	Gaze          int `json:"gaze" validate:"min=0,max=2"`
	Aphasia       int `json:"aphasia" validate:"min=0,max=3"`
	Extinction    int `json:"extinction" validate:"min=0,max=2"`
}

// RACEComponents are the per-item RACE scores.
type RACEComponents struct {
	Facial  int `json:"facial"`
	Arm     int `json:"arm"`
	Leg     int `json:"leg"`
	Gaze    int `json:"gaze"`
	Aphasia int `json:"aphasia"`
	Agnosia int `json:"agnosia"`
}

// LVOProbability is the three-tier large vessel occlusion bucket.
type LVOProbability string

const (
	LVOHigh     LVOProbability = "High"
	LVOModerate LVOProbability = "Moderate"
	LVOLow      LVOProbability = "Low"
)

// LVOEstimate is the RACE score and its probability bucket.
type LVOEstimate struct {
	Components  RACEComponents `json:"components"`
	Score       int            `json:"score"`
	Probability LVOProbability `json:"probability"`
	Percent     int            `json:"percent"`
}

// Hemisphere selects the side scored by ASPECTS.
type Hemisphere string

const (
	HemisphereLeft  Hemisphere = "L"
	HemisphereRight Hemisphere = "R"
)

// ASPECTSResult is the region-subtraction score and its band.
type ASPECTSResult struct {
	Side           Hemisphere `json:"side"`
	Score          int        `json:"score"`
	Affected       []string   `json:"affected"`
	Interpretation string     `json:"interpretation"`
}
