package intel

import (
	"context"
	"fmt"
	"sync"

	"github.com/failsight/backend/pkg/common"
	"github.com/failsight/backend/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// RawResult is one record returned by one query definition execution, tagged
// with the provenance of the definition that produced it.
type RawResult struct {
	TemplateKey  string        `json:"template_key"`
	TemplateName string        `json:"template_name"`
	Kind         Kind          `json:"kind"`
	Category     string        `json:"category"`
	Subcategory  string        `json:"subcategory,omitempty"`
	Fields       common.Record `json:"fields"`

	priority int
}

// runDefinitions substitutes the predicate into every definition in defs,
// executes them against the store with bounded concurrency, and collects the
// tagged records. The returned slice is ordered by registry position, with
// each definition's own declared ordering preserved inside its slot.
//
// Individual execution failures are logged under the definition's key and
// contribute an empty result set; the second return value counts them. The
// call errors only on cancellation or when every definition failed.
func (e *Engine) runDefinitions(ctx context.Context, defs []QueryDefinition, predicate string) ([]RawResult, int, error) {
	if len(defs) == 0 {
		return nil, 0, nil
	}

	perDef := make([][]RawResult, len(defs))
	failed := 0
	var mu sync.Mutex

	eg := errgroup.Group{}
	eg.SetLimit(e.workers)

	for i, def := range defs {
		idx, d := i, def
		eg.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}

			qctx, cancel := context.WithTimeout(ctx, e.queryTimeout)
			defer cancel()

			records, err := e.store.Execute(qctx, d.WithFilter(predicate), nil)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				logger.Warn("[Intel] Query definition failed", "key", d.Key, "err", err)
				mu.Lock()
				failed++
				mu.Unlock()
				return nil
			}

			tagged := make([]RawResult, 0, len(records))
			for _, record := range records {
				tagged = append(tagged, tagRecord(d, record))
			}

			mu.Lock()
			perDef[idx] = tagged
			mu.Unlock()
			return nil
		})
	}

	// Workers never return errors; Wait is only a completion barrier.
	_ = eg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	if failed == len(defs) {
		return nil, 0, fmt.Errorf("%w: all %d query definitions failed", ErrStoreUnavailable, len(defs))
	}

	results := make([]RawResult, 0)
	for _, batch := range perDef {
		results = append(results, batch...)
	}

	return results, failed, nil
}

// tagRecord attaches provenance and normalizes the effectiveness field to the
// tri-state the scorer and question extractors rely on. The store itself does
// not guarantee a consistent representation.
func tagRecord(def QueryDefinition, record common.Record) RawResult {
	if v, ok := record[common.FieldEffective]; ok {
		record[common.FieldEffective] = common.NormalizeEffectiveness(v)
	}

	return RawResult{
		TemplateKey:  def.Key,
		TemplateName: def.DisplayName,
		Kind:         def.Kind,
		Category:     def.Category,
		Subcategory:  def.Subcategory,
		Fields:       record,
		priority:     def.priority,
	}
}
