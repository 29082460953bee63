package intel

import (
	"unicode/utf8"

	"github.com/failsight/backend/pkg/common"
)

// ScoringConfig holds every constant of the relevance scoring algorithm so
// threshold boundaries stay unit-testable in one place.
type ScoringConfig struct {
	BaseScore int

	// Rationale bonuses reward a present evaluation comment; the long bonus
	// applies above RationaleLongLen characters.
	RationaleLongLen     int
	RationaleBonusLong   int
	RationaleBonusShort  int
	RationaleBonusAbsent int

	// Evidence bonuses reward supporting objective-evidence text; the long
	// bonus applies above EvidenceLongLen characters.
	EvidenceLongLen     int
	EvidenceBonusLong   int
	EvidenceBonusShort  int
	EvidenceBonusAbsent int

	// SiblingBonus is added once per additional record in the same batch that
	// shares the record's equipment category and facility.
	SiblingBonus int

	// Confidence bands over the final score.
	HighConfidenceScore   int
	MediumConfidenceScore int
}

// DefaultScoringConfig returns the production scoring constants.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		BaseScore:             100,
		RationaleLongLen:      30,
		RationaleBonusLong:    30,
		RationaleBonusShort:   15,
		RationaleBonusAbsent:  5,
		EvidenceLongLen:       20,
		EvidenceBonusLong:     20,
		EvidenceBonusShort:    10,
		EvidenceBonusAbsent:   5,
		SiblingBonus:          5,
		HighConfidenceScore:   140,
		MediumConfidenceScore: 120,
	}
}

// Confidence bands and evidence quality classes.
const (
	ConfidenceHigh   = "High"
	ConfidenceMedium = "Medium"
	ConfidenceLow    = "Low"

	EvidenceStrong   = "Strong"
	EvidenceModerate = "Moderate"
	EvidenceLimited  = "Limited"
)

// ScoredResult is a RawResult with its relevance score, classification bands,
// and the number of distinct source categories that corroborated the incident.
type ScoredResult struct {
	RawResult

	Score           int    `json:"score"`
	Confidence      string `json:"confidence"`
	EvidenceQuality string `json:"evidence_quality"`
	Corroboration   int    `json:"corroboration_count"`
}

// ScoreAndDedupe scores every raw result independently, then merges records
// describing the same incident, keeping the single highest-scoring record per
// incident number. Score ties are broken by registration priority, so named
// templates beat category groups beat comprehensive queries. Records without
// an incident number are treated as unique and never merged.
//
// A record with no usable text still receives the minimum band; absence of
// narrative is informative, not a reason to drop a precedent.
func ScoreAndDedupe(cfg ScoringConfig, raw []RawResult) []ScoredResult {
	if len(raw) == 0 {
		return nil
	}

	siblings := countSiblings(raw)

	scored := make([]ScoredResult, 0, len(raw))
	for i, result := range raw {
		rationaleBonus := textBonus(
			result.Fields.String(common.FieldEvaluationComment),
			cfg.RationaleLongLen, cfg.RationaleBonusLong, cfg.RationaleBonusShort, cfg.RationaleBonusAbsent,
		)
		evidenceBonus := textBonus(
			result.Fields.String(common.FieldObjectiveEvidence),
			cfg.EvidenceLongLen, cfg.EvidenceBonusLong, cfg.EvidenceBonusShort, cfg.EvidenceBonusAbsent,
		)

		score := cfg.BaseScore + rationaleBonus + evidenceBonus + cfg.SiblingBonus*siblings[i]

		scored = append(scored, ScoredResult{
			RawResult:       result,
			Score:           score,
			Confidence:      confidenceBand(cfg, score),
			EvidenceQuality: evidenceQuality(cfg, rationaleBonus, evidenceBonus),
		})
	}

	return dedupe(scored)
}

func textBonus(text string, longLen, long, short, absent int) int {
	switch {
	case text == "":
		return absent
	case utf8.RuneCountInString(text) > longLen:
		return long
	default:
		return short
	}
}

func confidenceBand(cfg ScoringConfig, score int) string {
	switch {
	case score >= cfg.HighConfidenceScore:
		return ConfidenceHigh
	case score >= cfg.MediumConfidenceScore:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

func evidenceQuality(cfg ScoringConfig, rationaleBonus, evidenceBonus int) string {
	if rationaleBonus >= cfg.RationaleBonusLong && evidenceBonus >= cfg.EvidenceBonusLong {
		return EvidenceStrong
	}
	if rationaleBonus >= cfg.RationaleBonusShort || evidenceBonus >= cfg.EvidenceBonusShort {
		return EvidenceModerate
	}
	return EvidenceLimited
}

// countSiblings returns, per input index, the number of other records in the
// batch sharing the record's equipment category and facility. Records without
// an equipment category never match.
func countSiblings(raw []RawResult) []int {
	groups := make(map[string]int)
	keys := make([]string, len(raw))
	for i, result := range raw {
		equipment := result.Fields.String(common.FieldEquipmentCategory)
		if equipment == "" {
			continue
		}
		key := equipment + "|" + result.Fields.String(common.FieldFacility)
		keys[i] = key
		groups[key]++
	}

	counts := make([]int, len(raw))
	for i, key := range keys {
		if key == "" {
			continue
		}
		counts[i] = groups[key] - 1
	}
	return counts
}

// dedupe keeps one representative per incident number and records how many
// distinct source categories surfaced the incident.
func dedupe(scored []ScoredResult) []ScoredResult {
	best := make(map[string]int)
	categories := make(map[string]map[string]bool)
	order := make([]int, 0, len(scored))

	for i, result := range scored {
		incident := result.Fields.String(common.FieldIncidentNumber)
		if incident == "" {
			order = append(order, i)
			continue
		}

		if categories[incident] == nil {
			categories[incident] = make(map[string]bool)
		}
		categories[incident][result.Category] = true

		current, exists := best[incident]
		if !exists {
			best[incident] = i
			order = append(order, i)
			continue
		}
		if result.Score > scored[current].Score ||
			(result.Score == scored[current].Score && result.priority < scored[current].priority) {
			best[incident] = i
		}
	}

	out := make([]ScoredResult, 0, len(order))
	for _, idx := range order {
		result := scored[idx]
		incident := result.Fields.String(common.FieldIncidentNumber)
		if incident != "" {
			result = scored[best[incident]]
			result.Corroboration = len(categories[incident])
		} else {
			result.Corroboration = 1
		}
		out = append(out, result)
	}
	return out
}
