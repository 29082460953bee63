package intel

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/failsight/backend/pkg/common"
)

func questionRegistry(t *testing.T) *Registry {
	t.Helper()
	registry, err := NewRegistry([]QueryDefinition{
		def("proven_solutions", "PS {{FILTER}}"),
		def("who_can_help", "WH {{FILTER}}"),
		def("resolution_timeline", "RT {{FILTER}}"),
		def("effective_actions", "EA {{FILTER}}"),
		def("investigation_steps", "IS {{FILTER}}"),
	}, nil, nil)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	return registry
}

func questionEngine(t *testing.T, records []common.Record) *Engine {
	t.Helper()
	return newTestEngine(t, questionRegistry(t), func(_ context.Context, _ string, _ map[string]any) ([]common.Record, error) {
		return records, nil
	})
}

func TestParseQuestion(t *testing.T) {
	for _, raw := range []string{"feasibility", " Feasibility ", "TIMELINE", "investigation_priority"} {
		if _, err := ParseQuestion(raw); err != nil {
			t.Errorf("ParseQuestion(%q) error = %v", raw, err)
		}
	}

	if _, err := ParseQuestion("root_cause"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("ParseQuestion(unknown) error = %v, want ErrInvalidInput", err)
	}
}

func TestAnswerQuestionRejectsUnknownQuestion(t *testing.T) {
	engine := questionEngine(t, nil)
	if _, err := engine.AnswerQuestion(context.Background(), Question("bogus"), "pump", nil); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("AnswerQuestion() error = %v, want ErrInvalidInput", err)
	}
}

func TestAnswerFeasibility(t *testing.T) {
	records := make([]common.Record, 0, 10)
	for i := 0; i < 10; i++ {
		r := common.Record{common.FieldIncidentNumber: string(rune('A' + i))}
		if i < 7 {
			r[common.FieldEffective] = "Yes"
			r[common.FieldCompleted] = true
		} else {
			r[common.FieldEffective] = "No"
		}
		records = append(records, r)
	}

	answer, err := questionEngine(t, records).AnswerQuestion(context.Background(), QuestionFeasibility, "pump", nil)
	if err != nil {
		t.Fatalf("AnswerQuestion() error = %v", err)
	}

	if !answer.Found || answer.Feasibility == nil {
		t.Fatalf("answer not found: %+v", answer)
	}
	f := answer.Feasibility
	if f.Precedents != 10 || f.VerifiedEffective != 7 || f.Completed != 7 || !f.Fixable {
		t.Errorf("Feasibility = %+v, want 10 precedents / 7 effective / 7 completed / fixable", f)
	}
	if !strings.Contains(answer.Message, "7") || !strings.Contains(answer.Message, "10") {
		t.Errorf("Message = %q", answer.Message)
	}
}

func TestAnswerFeasibilityNoEffectivePrecedent(t *testing.T) {
	records := []common.Record{
		{common.FieldIncidentNumber: "INC-1", common.FieldEffective: "No"},
	}

	answer, err := questionEngine(t, records).AnswerQuestion(context.Background(), QuestionFeasibility, "pump", nil)
	if err != nil {
		t.Fatalf("AnswerQuestion() error = %v", err)
	}
	if answer.Found {
		t.Error("Found = true, want false with no effective precedent")
	}
	if answer.Message != "No precedent found for 'pump'" {
		t.Errorf("Message = %q", answer.Message)
	}
}

func TestAnswerResponsibleParty(t *testing.T) {
	records := []common.Record{
		{common.FieldIncidentNumber: "A", common.FieldDepartment: "Maintenance", common.FieldFacility: "F1", common.FieldEffective: true},
		{common.FieldIncidentNumber: "B", common.FieldDepartment: "Maintenance", common.FieldFacility: "F1", common.FieldEffective: true},
		{common.FieldIncidentNumber: "C", common.FieldDepartment: "Maintenance", common.FieldFacility: "F1", common.FieldEffective: false},
		{common.FieldIncidentNumber: "D", common.FieldDepartment: "Operations", common.FieldFacility: "F2", common.FieldEffective: true},
		{common.FieldIncidentNumber: "E"},
	}

	answer, err := questionEngine(t, records).AnswerQuestion(context.Background(), QuestionResponsibleParty, "pump", nil)
	if err != nil {
		t.Fatalf("AnswerQuestion() error = %v", err)
	}

	if !answer.Found || len(answer.Contacts) != 2 {
		t.Fatalf("Contacts = %+v, want 2 entries", answer.Contacts)
	}

	// Operations: 1/1 = 1.0, sorts above Maintenance 2/3 = 0.7.
	first := answer.Contacts[0]
	if first.Department != "Operations" || first.SuccessRate != 1.0 {
		t.Errorf("Contacts[0] = %+v", first)
	}
	second := answer.Contacts[1]
	if second.Department != "Maintenance" || second.TotalCases != 3 || second.EffectiveResolutions != 2 {
		t.Errorf("Contacts[1] = %+v", second)
	}
	if second.SuccessRate != 0.7 {
		t.Errorf("SuccessRate = %v, want 0.7", second.SuccessRate)
	}
}

func TestAnswerTimeline(t *testing.T) {
	records := []common.Record{
		{common.FieldIncidentNumber: "A", common.FieldInitiatedAt: "2024-01-01", common.FieldCompletedAt: "2024-01-03"},
		{common.FieldIncidentNumber: "B", common.FieldInitiatedAt: "2024-01-01", common.FieldCompletedAt: "2024-01-05"},
		{common.FieldIncidentNumber: "C", common.FieldInitiatedAt: "2024-01-01", common.FieldVerifiedAt: "2024-01-07"},
		{common.FieldIncidentNumber: "D", common.FieldInitiatedAt: "2024-01-01"},
	}

	answer, err := questionEngine(t, records).AnswerQuestion(context.Background(), QuestionTimeline, "pump", nil)
	if err != nil {
		t.Fatalf("AnswerQuestion() error = %v", err)
	}

	if !answer.Found || answer.Timeline == nil {
		t.Fatalf("answer not found: %+v", answer)
	}
	tl := answer.Timeline
	if tl.SampleSize != 3 || tl.InsufficientData != 1 {
		t.Errorf("SampleSize/InsufficientData = %d/%d, want 3/1", tl.SampleSize, tl.InsufficientData)
	}
	if tl.AverageDays != 4.0 {
		t.Errorf("AverageDays = %v, want 4.0", tl.AverageDays)
	}
	if tl.MinDays != 2 || tl.MaxDays != 6 {
		t.Errorf("Min/Max = %d/%d, want 2/6", tl.MinDays, tl.MaxDays)
	}
}

func TestAnswerTimelineAllInsufficient(t *testing.T) {
	records := []common.Record{
		{common.FieldIncidentNumber: "A", common.FieldInitiatedAt: "2024-01-01"},
	}

	answer, err := questionEngine(t, records).AnswerQuestion(context.Background(), QuestionTimeline, "pump", nil)
	if err != nil {
		t.Fatalf("AnswerQuestion() error = %v", err)
	}
	if answer.Found {
		t.Error("Found = true, want false without completion dates")
	}
	if answer.Timeline == nil || answer.Timeline.InsufficientData != 1 {
		t.Errorf("Timeline = %+v", answer.Timeline)
	}
}

func TestAnswerEffectiveAction(t *testing.T) {
	records := []common.Record{
		{common.FieldIncidentNumber: "A", common.FieldEffective: true, common.FieldRecommendedAction: "Replace seal kit", common.FieldEvaluationComment: "short"},
		{common.FieldIncidentNumber: "B", common.FieldEffective: true, common.FieldRecommendedAction: "Replace seal kit", common.FieldEvaluationComment: "verified leak-free after 30 day run"},
		{common.FieldIncidentNumber: "C", common.FieldEffective: true, common.FieldActionPlan: "Align coupling"},
		{common.FieldIncidentNumber: "D", common.FieldEffective: false, common.FieldRecommendedAction: "Tighten gland"},
	}

	answer, err := questionEngine(t, records).AnswerQuestion(context.Background(), QuestionEffectiveAction, "pump", nil)
	if err != nil {
		t.Fatalf("AnswerQuestion() error = %v", err)
	}

	if !answer.Found || len(answer.Actions) != 2 {
		t.Fatalf("Actions = %+v, want 2 entries", answer.Actions)
	}
	top := answer.Actions[0]
	if top.Action != "Replace seal kit" || top.Frequency != 2 {
		t.Errorf("Actions[0] = %+v", top)
	}
	if top.Rationale != "verified leak-free after 30 day run" {
		t.Errorf("Rationale = %q, want the longest comment", top.Rationale)
	}
	if answer.Actions[1].Action != "Align coupling" {
		t.Errorf("Actions[1] = %+v", answer.Actions[1])
	}
}

func TestAnswerInvestigationPriority(t *testing.T) {
	plan := "Check bearing temperature | Inspect seal faces | short"
	records := []common.Record{
		{common.FieldIncidentNumber: "A", common.FieldActionPlan: plan, common.FieldRootCause: "Bearing wear"},
		{common.FieldIncidentNumber: "B", common.FieldActionPlan: "Check bearing temperature", common.FieldRootCause: "Lubrication failure"},
	}

	answer, err := questionEngine(t, records).AnswerQuestion(context.Background(), QuestionInvestigationPriority, "pump", nil)
	if err != nil {
		t.Fatalf("AnswerQuestion() error = %v", err)
	}

	if !answer.Found || len(answer.Checks) != 2 {
		t.Fatalf("Checks = %+v, want 2 entries (short fragment dropped)", answer.Checks)
	}
	top := answer.Checks[0]
	if top.Step != "Check bearing temperature" || top.Frequency != 2 {
		t.Errorf("Checks[0] = %+v", top)
	}
	if len(top.RootCauses) != 2 {
		t.Errorf("RootCauses = %v, want both causes", top.RootCauses)
	}
	for _, check := range answer.Checks {
		if len(check.Step) < DefaultQuestionConfig().MinFragmentLen {
			t.Errorf("short fragment survived: %q", check.Step)
		}
	}
}

func TestQuestionCriticality(t *testing.T) {
	tests := []struct {
		name    string
		records []common.Record
		want    string
	}{
		{
			name:    "no signals",
			records: []common.Record{{common.FieldIncidentNumber: "A"}},
			want:    "Low",
		},
		{
			name: "overdue past high threshold",
			records: []common.Record{
				{common.FieldIncidentNumber: "A", common.FieldDaysPastDue: 12.0},
			},
			want: "High",
		},
		{
			name: "loss past medium threshold",
			records: []common.Record{
				{common.FieldIncidentNumber: "A", common.FieldLossAmount: 3000.0},
			},
			want: "Medium",
		},
		{
			name: "either signal alone can raise criticality",
			records: []common.Record{
				{common.FieldIncidentNumber: "A", common.FieldDaysPastDue: 1.0, common.FieldLossAmount: 50000.0},
			},
			want: "High",
		},
		{
			name: "averages computed over distinct incidents",
			records: []common.Record{
				{common.FieldIncidentNumber: "A", common.FieldDaysPastDue: 20.0},
				{common.FieldIncidentNumber: "A", common.FieldDaysPastDue: 20.0},
				{common.FieldIncidentNumber: "B", common.FieldDaysPastDue: 0.0},
			},
			want: "Medium", // (20 + 0) / 2 = 10, above the medium bar only
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			answer, err := questionEngine(t, tt.records).AnswerQuestion(context.Background(), QuestionFeasibility, "pump", nil)
			if err != nil {
				t.Fatalf("AnswerQuestion() error = %v", err)
			}
			if answer.Criticality != tt.want {
				t.Errorf("Criticality = %q, want %q", answer.Criticality, tt.want)
			}
		})
	}
}

func TestAnswerQuestionStoreFailure(t *testing.T) {
	engine := newTestEngine(t, questionRegistry(t), func(_ context.Context, _ string, _ map[string]any) ([]common.Record, error) {
		return nil, errors.New("connection refused")
	})

	if _, err := engine.AnswerQuestion(context.Background(), QuestionTimeline, "pump", nil); !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("AnswerQuestion() error = %v, want ErrStoreUnavailable", err)
	}
}

func TestAnswerQuestionMissingTemplate(t *testing.T) {
	registry, err := NewRegistry([]QueryDefinition{def("proven_solutions", "PS {{FILTER}}")}, nil, nil)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	engine := newTestEngine(t, registry, func(_ context.Context, _ string, _ map[string]any) ([]common.Record, error) {
		return nil, nil
	})

	if _, err := engine.AnswerQuestion(context.Background(), QuestionTimeline, "pump", nil); err == nil {
		t.Error("AnswerQuestion() error = nil, want missing-template error")
	}
}
