package service

import (
	"sort"
	"strings"

	"github.com/neurocalc-mcp-server/internal/domain"
)

// ASPECTSRegions are the ten scored MCA territory regions per hemisphere.
var ASPECTSRegions = []string{"C", "L", "IC", "I", "M1", "M2", "M3", "M4", "M5", "M6"}

// IsASPECTSRegion reports whether name is one of the ten scored regions.
func IsASPECTSRegion(name string) bool {
	for _, r := range ASPECTSRegions {
		if r == name {
			return true
		}
	}
	return false
}

// ASPECTSKey builds the composite "Side-Region" selection key.
func ASPECTSKey(side domain.Hemisphere, region string) string {
	return string(side) + "-" + region
}

// ScoreASPECTS subtracts the number of distinct affected regions on the given
// side from 10. Keys for the other side are ignored.
func ScoreASPECTS(side domain.Hemisphere, selected []string) domain.ASPECTSResult {
	prefix := string(side) + "-"
	seen := make(map[string]struct{}, len(selected))
	affected := make([]string, 0, len(selected))
	for _, key := range selected {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		affected = append(affected, key)
	}
	sort.Strings(affected)

	score := 10 - len(affected)
	return domain.ASPECTSResult{
		Side:           side,
		Score:          score,
		Affected:       affected,
		Interpretation: aspectsInterpretation(score),
	}
}

func aspectsInterpretation(score int) string {
	switch {
	case score >= 8:
		return "Small core: favorable for reperfusion"
	case score >= 5:
		return "Moderate core"
	default:
		return "Large core: high risk of poor outcome"
	}
}
