package intel

import (
	"fmt"
	"sort"
	"strings"

	"github.com/failsight/backend/pkg/common"
)

// IntelligenceReport is the final search output: the ranked, capped result
// list plus the counts and summary the dashboard renders.
type IntelligenceReport struct {
	Term              string         `json:"term"`
	Results           []ScoredResult `json:"results"`
	CategoryCounts    map[string]int `json:"category_counts"`
	Summary           string         `json:"summary"`
	TotalResults      int            `json:"total_results"`
	UniqueResults     int            `json:"unique_results"`
	DisplayedResults  int            `json:"displayed_results"`
	FailedDefinitions int            `json:"failed_definitions,omitempty"`
}

// buildReport ranks the deduplicated results, truncates to limit, and
// assembles the report. Ranking is score descending with ties broken by
// incident initiation date descending, then incident number, so a fixed
// store snapshot always yields identical output.
func buildReport(term string, scored []ScoredResult, total, limit, failed int) *IntelligenceReport {
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		ti, iok := scored[i].Fields.Time(common.FieldInitiatedAt)
		tj, jok := scored[j].Fields.Time(common.FieldInitiatedAt)
		if iok && jok && !ti.Equal(tj) {
			return ti.After(tj)
		}
		if iok != jok {
			return iok
		}
		return scored[i].Fields.String(common.FieldIncidentNumber) < scored[j].Fields.String(common.FieldIncidentNumber)
	})

	unique := len(scored)
	if len(scored) > limit {
		scored = scored[:limit]
	}

	counts := make(map[string]int, 8)
	for _, result := range scored {
		counts[result.Category]++
	}

	return &IntelligenceReport{
		Term:              term,
		Results:           scored,
		CategoryCounts:    counts,
		Summary:           buildSummary(term, total, unique, counts),
		TotalResults:      total,
		UniqueResults:     unique,
		DisplayedResults:  len(scored),
		FailedDefinitions: failed,
	}
}

func buildSummary(term string, total, unique int, counts map[string]int) string {
	if unique == 0 {
		return fmt.Sprintf("No matches found for '%s'", term)
	}

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %d", name, counts[name]))
	}

	return fmt.Sprintf("Found %d results (%d unique) for '%s' | Categories: %s",
		total, unique, term, strings.Join(parts, ", "))
}
