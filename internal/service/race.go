package service

import "github.com/neurocalc-mcp-server/internal/domain"

// threshold maps a raw NIHSS item to a RACE component: the component is the
// number of cut points the raw value reaches.
func threshold(raw int, cuts ...int) int {
	n := 0
	for _, c := range cuts {
		if raw >= c {
			n++
		}
	}
	return n
}

// RACEComponentsFromNIHSS maps NIHSS sub-items to RACE component scores.
func RACEComponentsFromNIHSS(items domain.NIHSSItems) domain.RACEComponents {
	return domain.RACEComponents{
		Facial:  threshold(items.Facial, 1, 2),
		Arm:     threshold(max(items.MotorArmLeft, items.MotorArmRight), 1, 3),
		Leg:     threshold(max(items.MotorLegLeft, items.MotorLegRight), 1, 3),
		Gaze:    threshold(items.Gaze, 1),
		Aphasia: threshold(items.Aphasia, 1, 2),
		Agnosia: threshold(items.Extinction, 1),
	}
}

// RACEScore totals the components. Aphasia and agnosia are alternative
// cortical signs of the dominant and non-dominant hemisphere, so only the
// higher of the two counts, keeping the total within 0-9.
func RACEScore(c domain.RACEComponents) int {
	return c.Facial + c.Arm + c.Leg + c.Gaze + max(c.Aphasia, c.Agnosia)
}

// EstimateLVO derives the RACE score from NIHSS sub-items and buckets it.
func EstimateLVO(items domain.NIHSSItems) domain.LVOEstimate {
	components := RACEComponentsFromNIHSS(items)
	score := RACEScore(components)

	est := domain.LVOEstimate{Components: components, Score: score}
	switch {
	case score >= 7:
		est.Probability, est.Percent = domain.LVOHigh, 85
	case score >= 5:
		est.Probability, est.Percent = domain.LVOModerate, 55
	default:
		est.Probability, est.Percent = domain.LVOLow, 20
	}
	return est
}
