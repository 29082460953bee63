package intel

import (
	"context"
	"fmt"
	"time"

	"github.com/failsight/backend/pkg/store"
)

const (
	defaultWorkers      = 4
	defaultQueryTimeout = 5 * time.Second
	defaultResultCap    = 100
)

// Engine is the intelligence search client. It fans a search term out across
// the query definition registry, scores and deduplicates the raw results, and
// answers the canonical stakeholder questions.
//
// An Engine holds no per-call state; a single instance is safe for concurrent
// searches. Create one with NewEngine.
type Engine struct {
	registry     *Registry
	store        store.PatternStore
	scoring      ScoringConfig
	questions    QuestionConfig
	workers      int
	queryTimeout time.Duration
	resultCap    int
}

// NewEngineParams configures a new Engine.
//
// Registry and Store are required. Workers bounds concurrent query executions
// against the store, QueryTimeout bounds each individual execution, and
// ResultCap is the default report size limit. Zero values select defaults.
type NewEngineParams struct {
	Registry     *Registry
	Store        store.PatternStore
	Scoring      *ScoringConfig
	Questions    *QuestionConfig
	Workers      int
	QueryTimeout time.Duration
	ResultCap    int
}

// NewEngine creates an Engine from the given parameters.
func NewEngine(params NewEngineParams) (*Engine, error) {
	if params.Registry == nil {
		return nil, fmt.Errorf("intel: registry is required")
	}
	if params.Store == nil {
		return nil, fmt.Errorf("intel: store is required")
	}

	e := &Engine{
		registry:     params.Registry,
		store:        params.Store,
		scoring:      DefaultScoringConfig(),
		questions:    DefaultQuestionConfig(),
		workers:      params.Workers,
		queryTimeout: params.QueryTimeout,
		resultCap:    params.ResultCap,
	}
	if params.Scoring != nil {
		e.scoring = *params.Scoring
	}
	if params.Questions != nil {
		e.questions = *params.Questions
	}
	if e.workers <= 0 {
		e.workers = defaultWorkers
	}
	if e.queryTimeout <= 0 {
		e.queryTimeout = defaultQueryTimeout
	}
	if e.resultCap <= 0 {
		e.resultCap = defaultResultCap
	}

	return e, nil
}

// Registry exposes the engine's definition catalog for introspection.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Search runs the search term (plus optional keyword tokens) across every
// registered query definition and returns the ranked, deduplicated report.
// limit caps the number of returned results; zero selects the engine default.
//
// Partial per-definition failures are absorbed; the call fails only on
// invalid input, cancellation, or when every definition failed.
func (e *Engine) Search(ctx context.Context, term string, keywords []string, limit int) (*IntelligenceReport, error) {
	predicate, err := BuildFilter(term, keywords)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = e.resultCap
	}

	raw, failed, err := e.runDefinitions(ctx, e.registry.Definitions(), predicate)
	if err != nil {
		return nil, err
	}

	scored := ScoreAndDedupe(e.scoring, raw)
	return buildReport(term, scored, len(raw), limit, failed), nil
}
