package intel

import (
	"testing"

	"github.com/failsight/backend/pkg/common"
)

func scoredResult(incident, category string, score int, initiatedAt string) ScoredResult {
	fields := common.Record{}
	if incident != "" {
		fields[common.FieldIncidentNumber] = incident
	}
	if initiatedAt != "" {
		fields[common.FieldInitiatedAt] = initiatedAt
	}
	return ScoredResult{
		RawResult: RawResult{Category: category, Fields: fields},
		Score:     score,
	}
}

func TestBuildReportRanking(t *testing.T) {
	scored := []ScoredResult{
		scoredResult("INC-3", "A", 110, "2024-01-10"),
		scoredResult("INC-1", "A", 150, "2024-03-01"),
		scoredResult("INC-2", "B", 150, "2024-05-01"),
		scoredResult("INC-5", "B", 110, "2024-01-10"),
		scoredResult("INC-4", "B", 110, ""),
	}

	report := buildReport("pump", scored, 8, 100, 0)

	wantOrder := []string{"INC-2", "INC-1", "INC-3", "INC-5", "INC-4"}
	if len(report.Results) != len(wantOrder) {
		t.Fatalf("len(Results) = %d, want %d", len(report.Results), len(wantOrder))
	}
	for i, want := range wantOrder {
		got := report.Results[i].Fields.String(common.FieldIncidentNumber)
		if got != want {
			t.Errorf("Results[%d] = %s, want %s", i, got, want)
		}
	}

	if report.TotalResults != 8 {
		t.Errorf("TotalResults = %d, want 8", report.TotalResults)
	}
	if report.UniqueResults != 5 {
		t.Errorf("UniqueResults = %d, want 5", report.UniqueResults)
	}
	if report.DisplayedResults != 5 {
		t.Errorf("DisplayedResults = %d, want 5", report.DisplayedResults)
	}
}

func TestBuildReportCapsResults(t *testing.T) {
	scored := []ScoredResult{
		scoredResult("INC-1", "A", 150, "2024-03-01"),
		scoredResult("INC-2", "A", 140, "2024-03-01"),
		scoredResult("INC-3", "B", 130, "2024-03-01"),
	}

	report := buildReport("pump", scored, 3, 2, 0)

	if len(report.Results) != 2 {
		t.Fatalf("len(Results) = %d, want 2", len(report.Results))
	}
	if report.DisplayedResults != 2 || report.UniqueResults != 3 {
		t.Errorf("Displayed/Unique = %d/%d, want 2/3", report.DisplayedResults, report.UniqueResults)
	}

	// Category counts describe the displayed slice, not the full set.
	if report.CategoryCounts["A"] != 2 || report.CategoryCounts["B"] != 0 {
		t.Errorf("CategoryCounts = %v", report.CategoryCounts)
	}
}

func TestBuildSummary(t *testing.T) {
	tests := []struct {
		name   string
		total  int
		unique int
		counts map[string]int
		want   string
	}{
		{
			name:   "no matches",
			total:  0,
			unique: 0,
			want:   "No matches found for 'pump'",
		},
		{
			name:   "counts sorted by frequency then name",
			total:  7,
			unique: 4,
			counts: map[string]int{"Verification": 1, "Equipment Pattern": 2, "Causal Chain": 1},
			want:   "Found 7 results (4 unique) for 'pump' | Categories: Equipment Pattern: 2, Causal Chain: 1, Verification: 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := buildSummary("pump", tt.total, tt.unique, tt.counts)
			if got != tt.want {
				t.Errorf("buildSummary() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildReportFailedDefinitions(t *testing.T) {
	report := buildReport("pump", nil, 0, 10, 3)
	if report.FailedDefinitions != 3 {
		t.Errorf("FailedDefinitions = %d, want 3", report.FailedDefinitions)
	}
	if report.Summary != "No matches found for 'pump'" {
		t.Errorf("Summary = %q", report.Summary)
	}
}
