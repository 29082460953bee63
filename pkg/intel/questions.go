package intel

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/failsight/backend/pkg/common"
)

// Question identifies one of the five canonical stakeholder questions.
type Question string

const (
	QuestionFeasibility           Question = "feasibility"
	QuestionResponsibleParty      Question = "responsible_party"
	QuestionTimeline              Question = "timeline"
	QuestionEffectiveAction       Question = "effective_action"
	QuestionInvestigationPriority Question = "investigation_priority"
)

// ParseQuestion validates a question identifier from the wire.
func ParseQuestion(raw string) (Question, error) {
	q := Question(strings.ToLower(strings.TrimSpace(raw)))
	switch q {
	case QuestionFeasibility, QuestionResponsibleParty, QuestionTimeline,
		QuestionEffectiveAction, QuestionInvestigationPriority:
		return q, nil
	}
	return "", fmt.Errorf("%w: unknown question %q", ErrInvalidInput, raw)
}

// questionTemplates binds each question to the named templates it executes.
var questionTemplates = map[Question][]string{
	QuestionFeasibility:           {"proven_solutions"},
	QuestionResponsibleParty:      {"who_can_help"},
	QuestionTimeline:              {"resolution_timeline"},
	QuestionEffectiveAction:       {"effective_actions"},
	QuestionInvestigationPriority: {"investigation_steps"},
}

// QuestionConfig holds the extraction and criticality constants of the
// stakeholder question mapper.
type QuestionConfig struct {
	// MinFragmentLen discards investigation-step fragments shorter than this.
	MinFragmentLen int
	// StepDelimiter splits multi-step action-plan text into fragments.
	StepDelimiter string
	// TopChecks caps the investigation-priority fragment list.
	TopChecks int
	// MaxActions caps the effective-action list.
	MaxActions int

	// Criticality thresholds. High wins when either signal exceeds its high
	// threshold; Medium when either exceeds its medium threshold.
	OverdueHighDays   float64
	OverdueMediumDays float64
	LossHigh          float64
	LossMedium        float64
}

// DefaultQuestionConfig returns the production question-mapper constants.
func DefaultQuestionConfig() QuestionConfig {
	return QuestionConfig{
		MinFragmentLen:    12,
		StepDelimiter:     "|",
		TopChecks:         5,
		MaxActions:        10,
		OverdueHighDays:   10,
		OverdueMediumDays: 5,
		LossHigh:          10000,
		LossMedium:        2500,
	}
}

// QuestionAnswer is the structured answer to one stakeholder question. Found
// is false when no precedent matched; the answer is still well-formed and
// carries an explanatory message.
type QuestionAnswer struct {
	Question    Question `json:"question"`
	Term        string   `json:"term"`
	Found       bool     `json:"found"`
	Message     string   `json:"message"`
	Criticality string   `json:"criticality"`

	Feasibility *FeasibilityAnswer  `json:"feasibility,omitempty"`
	Contacts    []Contact           `json:"contacts,omitempty"`
	Timeline    *TimelineAnswer     `json:"timeline,omitempty"`
	Actions     []ProvenAction      `json:"actions,omitempty"`
	Checks      []InvestigationStep `json:"checks,omitempty"`
}

// FeasibilityAnswer reports how often this class of problem was fixed before.
type FeasibilityAnswer struct {
	Precedents        int  `json:"precedents"`
	VerifiedEffective int  `json:"verified_effective"`
	Completed         int  `json:"completed"`
	Fixable           bool `json:"fixable"`
}

// Contact is a department that resolved similar incidents, with its track
// record. SuccessRate is effective resolutions over total cases, rounded to
// one decimal.
type Contact struct {
	Department           string  `json:"department"`
	Facility             string  `json:"facility"`
	TotalCases           int     `json:"total_cases"`
	EffectiveResolutions int     `json:"effective_resolutions"`
	SuccessRate          float64 `json:"success_rate"`
}

// TimelineAnswer is the elapsed-day distribution over incidents that carry
// both an initiation and a completion date. Incidents missing either date are
// counted in InsufficientData instead.
type TimelineAnswer struct {
	AverageDays      float64 `json:"average_days"`
	MinDays          int     `json:"min_days"`
	MaxDays          int     `json:"max_days"`
	SampleSize       int     `json:"sample_size"`
	InsufficientData int     `json:"insufficient_data"`
}

// ProvenAction is a verified-effective remediation with its rationale and how
// often it was applied.
type ProvenAction struct {
	Action    string `json:"action"`
	Rationale string `json:"rationale,omitempty"`
	Frequency int    `json:"frequency"`
}

// InvestigationStep is one action-plan fragment ranked by how often it
// appears across matching incidents, with the root causes it addressed.
type InvestigationStep struct {
	Step       string   `json:"step"`
	Frequency  int      `json:"frequency"`
	RootCauses []string `json:"root_causes,omitempty"`
}

// AnswerQuestion answers one canonical stakeholder question for the search
// term. The bound named templates are executed through the same orchestrator
// as Search, with the same failure semantics; zero matches produce a
// well-formed "no precedent found" answer rather than an error.
func (e *Engine) AnswerQuestion(ctx context.Context, question Question, term string, keywords []string) (*QuestionAnswer, error) {
	if _, err := ParseQuestion(string(question)); err != nil {
		return nil, err
	}

	predicate, err := BuildFilter(term, keywords)
	if err != nil {
		return nil, err
	}

	defs := make([]QueryDefinition, 0, 2)
	for _, key := range questionTemplates[question] {
		def, ok := e.registry.Get(key)
		if !ok {
			return nil, fmt.Errorf("no template registered for question %q (missing %q)", question, key)
		}
		defs = append(defs, def)
	}

	raw, _, err := e.runDefinitions(ctx, defs, predicate)
	if err != nil {
		return nil, err
	}

	answer := &QuestionAnswer{
		Question:    question,
		Term:        strings.TrimSpace(term),
		Criticality: e.questions.criticality(raw),
	}

	switch question {
	case QuestionFeasibility:
		e.questions.answerFeasibility(answer, raw)
	case QuestionResponsibleParty:
		e.questions.answerResponsibleParty(answer, raw)
	case QuestionTimeline:
		e.questions.answerTimeline(answer, raw)
	case QuestionEffectiveAction:
		e.questions.answerEffectiveAction(answer, raw)
	case QuestionInvestigationPriority:
		e.questions.answerInvestigationPriority(answer, raw)
	}

	if !answer.Found && answer.Message == "" {
		answer.Message = fmt.Sprintf("No precedent found for '%s'", answer.Term)
	}

	return answer, nil
}

// criticality classifies the matching incident set from two independent
// signals: average days past due and average recorded financial loss.
func (cfg QuestionConfig) criticality(raw []RawResult) string {
	var overdueSum, overdueN, lossSum, lossN float64

	seen := make(map[string]bool)
	for _, result := range raw {
		incident := result.Fields.String(common.FieldIncidentNumber)
		if incident != "" {
			if seen[incident] {
				continue
			}
			seen[incident] = true
		}
		if v, ok := result.Fields.Float(common.FieldDaysPastDue); ok {
			overdueSum += v
			overdueN++
		}
		if v, ok := result.Fields.Float(common.FieldLossAmount); ok {
			lossSum += v
			lossN++
		}
	}

	var avgOverdue, avgLoss float64
	if overdueN > 0 {
		avgOverdue = overdueSum / overdueN
	}
	if lossN > 0 {
		avgLoss = lossSum / lossN
	}

	switch {
	case avgOverdue > cfg.OverdueHighDays || avgLoss > cfg.LossHigh:
		return "High"
	case avgOverdue > cfg.OverdueMediumDays || avgLoss > cfg.LossMedium:
		return "Medium"
	default:
		return "Low"
	}
}

func (cfg QuestionConfig) answerFeasibility(answer *QuestionAnswer, raw []RawResult) {
	precedents := make(map[string]bool)
	effective := make(map[string]bool)
	completed := make(map[string]bool)

	for i, result := range raw {
		incident := result.Fields.String(common.FieldIncidentNumber)
		if incident == "" {
			incident = fmt.Sprintf("~%d", i)
		}
		precedents[incident] = true
		if result.Fields.Effectiveness() == common.EffectivenessEffective {
			effective[incident] = true
		}
		if done, ok := result.Fields.Bool(common.FieldCompleted); ok && done {
			completed[incident] = true
		}
	}

	if len(effective) == 0 {
		return
	}

	answer.Found = true
	answer.Feasibility = &FeasibilityAnswer{
		Precedents:        len(precedents),
		VerifiedEffective: len(effective),
		Completed:         len(completed),
		Fixable:           true,
	}
	answer.Message = fmt.Sprintf("%d verified-effective precedents out of %d matching incidents; this problem has been fixed before",
		len(effective), len(precedents))
}

func (cfg QuestionConfig) answerResponsibleParty(answer *QuestionAnswer, raw []RawResult) {
	type track struct {
		total     map[string]bool
		effective map[string]bool
	}
	groups := make(map[string]*track)

	for i, result := range raw {
		department := result.Fields.String(common.FieldDepartment)
		if department == "" {
			continue
		}
		facility := result.Fields.String(common.FieldFacility)
		key := department + "|" + facility

		incident := result.Fields.String(common.FieldIncidentNumber)
		if incident == "" {
			incident = fmt.Sprintf("~%d", i)
		}

		g := groups[key]
		if g == nil {
			g = &track{total: make(map[string]bool), effective: make(map[string]bool)}
			groups[key] = g
		}
		g.total[incident] = true
		if result.Fields.Effectiveness() == common.EffectivenessEffective {
			g.effective[incident] = true
		}
	}

	contacts := make([]Contact, 0, len(groups))
	for key, g := range groups {
		department, facility, _ := strings.Cut(key, "|")
		rate := 0.0
		if len(g.total) > 0 {
			rate = math.Round(float64(len(g.effective))/float64(len(g.total))*10) / 10
		}
		contacts = append(contacts, Contact{
			Department:           department,
			Facility:             facility,
			TotalCases:           len(g.total),
			EffectiveResolutions: len(g.effective),
			SuccessRate:          rate,
		})
	}

	sort.Slice(contacts, func(i, j int) bool {
		if contacts[i].SuccessRate != contacts[j].SuccessRate {
			return contacts[i].SuccessRate > contacts[j].SuccessRate
		}
		if contacts[i].TotalCases != contacts[j].TotalCases {
			return contacts[i].TotalCases > contacts[j].TotalCases
		}
		return contacts[i].Department < contacts[j].Department
	})

	if len(contacts) == 0 {
		return
	}

	answer.Found = true
	answer.Contacts = contacts
	answer.Message = fmt.Sprintf("%d departments have handled similar incidents", len(contacts))
}

func (cfg QuestionConfig) answerTimeline(answer *QuestionAnswer, raw []RawResult) {
	type span struct {
		days     int
		complete bool
	}
	byIncident := make(map[string]span)
	keys := make([]string, 0)

	for i, result := range raw {
		incident := result.Fields.String(common.FieldIncidentNumber)
		if incident == "" {
			incident = fmt.Sprintf("~%d", i)
		}

		initiated, iok := result.Fields.Time(common.FieldInitiatedAt)
		completedAt, cok := result.Fields.Time(common.FieldCompletedAt)
		if !cok {
			completedAt, cok = result.Fields.Time(common.FieldVerifiedAt)
		}

		if existing, seen := byIncident[incident]; seen && existing.complete {
			continue
		} else if !seen {
			keys = append(keys, incident)
		}

		if iok && cok {
			elapsed := int(math.Round(completedAt.Sub(initiated).Hours() / 24))
			byIncident[incident] = span{days: elapsed, complete: true}
		} else {
			byIncident[incident] = span{}
		}
	}

	timeline := &TimelineAnswer{}
	sum := 0
	for _, key := range keys {
		s := byIncident[key]
		if !s.complete {
			timeline.InsufficientData++
			continue
		}
		if timeline.SampleSize == 0 || s.days < timeline.MinDays {
			timeline.MinDays = s.days
		}
		if timeline.SampleSize == 0 || s.days > timeline.MaxDays {
			timeline.MaxDays = s.days
		}
		sum += s.days
		timeline.SampleSize++
	}

	if timeline.SampleSize == 0 {
		if timeline.InsufficientData > 0 {
			answer.Timeline = timeline
			answer.Message = fmt.Sprintf("%d matching incidents lack completion dates; no timeline estimate available",
				timeline.InsufficientData)
		}
		return
	}

	timeline.AverageDays = math.Round(float64(sum)/float64(timeline.SampleSize)*10) / 10

	answer.Found = true
	answer.Timeline = timeline
	answer.Message = fmt.Sprintf("similar incidents took %.1f days on average (%d-%d days, %d samples)",
		timeline.AverageDays, timeline.MinDays, timeline.MaxDays, timeline.SampleSize)
}

func (cfg QuestionConfig) answerEffectiveAction(answer *QuestionAnswer, raw []RawResult) {
	type usage struct {
		incidents map[string]bool
		rationale string
	}
	actions := make(map[string]*usage)

	for i, result := range raw {
		if result.Fields.Effectiveness() != common.EffectivenessEffective {
			continue
		}
		action := result.Fields.String(common.FieldRecommendedAction)
		if action == "" {
			action = result.Fields.String(common.FieldActionPlan)
		}
		if action == "" {
			continue
		}

		incident := result.Fields.String(common.FieldIncidentNumber)
		if incident == "" {
			incident = fmt.Sprintf("~%d", i)
		}

		u := actions[action]
		if u == nil {
			u = &usage{incidents: make(map[string]bool)}
			actions[action] = u
		}
		u.incidents[incident] = true
		if rationale := result.Fields.String(common.FieldEvaluationComment); len(rationale) > len(u.rationale) {
			u.rationale = rationale
		}
	}

	ranked := make([]ProvenAction, 0, len(actions))
	for action, u := range actions {
		ranked = append(ranked, ProvenAction{
			Action:    action,
			Rationale: u.rationale,
			Frequency: len(u.incidents),
		})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Frequency != ranked[j].Frequency {
			return ranked[i].Frequency > ranked[j].Frequency
		}
		return ranked[i].Action < ranked[j].Action
	})
	if len(ranked) > cfg.MaxActions {
		ranked = ranked[:cfg.MaxActions]
	}

	if len(ranked) == 0 {
		return
	}

	answer.Found = true
	answer.Actions = ranked
	answer.Message = fmt.Sprintf("%d verified-effective actions found", len(ranked))
}

func (cfg QuestionConfig) answerInvestigationPriority(answer *QuestionAnswer, raw []RawResult) {
	type stepInfo struct {
		frequency int
		causes    map[string]bool
	}
	steps := make(map[string]*stepInfo)

	for _, result := range raw {
		plan := result.Fields.String(common.FieldActionPlan)
		if plan == "" {
			continue
		}
		rootCause := result.Fields.String(common.FieldRootCause)

		for _, fragment := range strings.Split(plan, cfg.StepDelimiter) {
			fragment = strings.TrimSpace(fragment)
			if len(fragment) < cfg.MinFragmentLen {
				continue
			}
			info := steps[fragment]
			if info == nil {
				info = &stepInfo{causes: make(map[string]bool)}
				steps[fragment] = info
			}
			info.frequency++
			if rootCause != "" {
				info.causes[rootCause] = true
			}
		}
	}

	ranked := make([]InvestigationStep, 0, len(steps))
	for step, info := range steps {
		causes := make([]string, 0, len(info.causes))
		for cause := range info.causes {
			causes = append(causes, cause)
		}
		sort.Strings(causes)
		if len(causes) > 3 {
			causes = causes[:3]
		}
		ranked = append(ranked, InvestigationStep{
			Step:       step,
			Frequency:  info.frequency,
			RootCauses: causes,
		})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Frequency != ranked[j].Frequency {
			return ranked[i].Frequency > ranked[j].Frequency
		}
		return ranked[i].Step < ranked[j].Step
	})
	if len(ranked) > cfg.TopChecks {
		ranked = ranked[:cfg.TopChecks]
	}

	if len(ranked) == 0 {
		return
	}

	answer.Found = true
	answer.Checks = ranked
	answer.Message = fmt.Sprintf("%d recurring investigation steps identified", len(ranked))
}
