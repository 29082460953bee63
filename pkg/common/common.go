package common

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Record is one flat row returned by a pattern query execution. Keys are the
// query's declared output field names; values are scalars as delivered by the
// store driver (string, number, bool, time.Time, or nil).
//
// Query definitions are authored independently and expose different field
// subsets, so consumers must go through the typed accessors below instead of
// assuming a value's dynamic type.
type Record map[string]any

// Canonical output field names. Every query definition aliases its columns to
// a subset of these. FieldIncidentNumber, FieldTitle and FieldInitiatedAt form
// the identity subset that row-level definitions provide; aggregate
// definitions (equipment frequency) return keyless records that are never
// merged.
const (
	FieldIncidentNumber       = "incident_number"
	FieldTitle                = "title"
	FieldFacility             = "facility_code"
	FieldEquipmentCategory    = "equipment_category"
	FieldOperatingCentre      = "operating_centre"
	FieldWorkflowStage        = "workflow_stage"
	FieldDaysPastDue          = "days_past_due"
	FieldInitiatedAt          = "initiated_at"
	FieldProblemDescription   = "problem_description"
	FieldRequirement          = "requirement"
	FieldRootCause            = "root_cause"
	FieldObjectiveEvidence    = "objective_evidence"
	FieldActionPlan           = "action_plan"
	FieldImmediateContainment = "immediate_containment"
	FieldRecommendedAction    = "recommended_action"
	FieldDueAt                = "due_at"
	FieldCompletedAt          = "completed_at"
	FieldCompleted            = "completed"
	FieldEffective            = "effective"
	FieldEvaluationComment    = "evaluation_comment"
	FieldVerifiedAt           = "verified_at"
	FieldDepartment           = "department"
	FieldLossAmount           = "loss_amount"
	FieldRecurring            = "recurring"
	FieldStrategyDocument     = "strategy_document"
	FieldFrequency            = "frequency"
)

// Effectiveness is the normalized verification outcome. The store holds this
// field inconsistently (boolean in some definitions, "Yes"/"No" strings in
// others); records are normalized to this tri-state before scoring.
type Effectiveness string

const (
	EffectivenessEffective   Effectiveness = "effective"
	EffectivenessIneffective Effectiveness = "ineffective"
	EffectivenessUnknown     Effectiveness = "unknown"
)

// NormalizeEffectiveness maps the raw verification value to the tri-state.
func NormalizeEffectiveness(v any) Effectiveness {
	switch val := v.(type) {
	case nil:
		return EffectivenessUnknown
	case bool:
		if val {
			return EffectivenessEffective
		}
		return EffectivenessIneffective
	case Effectiveness:
		return val
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "yes", "true", "effective", "y", "1":
			return EffectivenessEffective
		case "no", "false", "ineffective", "n", "0":
			return EffectivenessIneffective
		}
		return EffectivenessUnknown
	default:
		return EffectivenessUnknown
	}
}

// String returns the value of key as a trimmed string, or "" when the field is
// absent, nil, or not textual.
func (r Record) String(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case Effectiveness:
		return string(val)
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	}
	return ""
}

// Float returns the value of key as a float64. Numeric types and numeric
// strings are accepted.
func (r Record) Float(key string) (float64, bool) {
	v, ok := r[key]
	if !ok || v == nil {
		return 0, false
	}
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// Bool returns the value of key as a bool. Accepts bool values and the usual
// textual spellings.
func (r Record) Bool(key string) (bool, bool) {
	v, ok := r[key]
	if !ok || v == nil {
		return false, false
	}
	switch val := v.(type) {
	case bool:
		return val, true
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "true", "yes", "y", "1":
			return true, true
		case "false", "no", "n", "0":
			return false, true
		}
	}
	return false, false
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Time returns the value of key as a time.Time. time.Time values pass through;
// strings are parsed against the layouts the source system emits.
func (r Record) Time(key string) (time.Time, bool) {
	v, ok := r[key]
	if !ok || v == nil {
		return time.Time{}, false
	}
	switch val := v.(type) {
	case time.Time:
		if val.IsZero() {
			return time.Time{}, false
		}
		return val, true
	case string:
		s := strings.TrimSpace(val)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// Effectiveness returns the normalized verification outcome for the record.
func (r Record) Effectiveness() Effectiveness {
	v, ok := r[FieldEffective]
	if !ok {
		return EffectivenessUnknown
	}
	return NormalizeEffectiveness(v)
}
