package intel

import (
	"fmt"
	"strings"
)

// FilterPlaceholder is the single substitution point inside every query body.
// The filter builder's predicate replaces it verbatim at execution time.
const FilterPlaceholder = "{{FILTER}}"

// Kind distinguishes the three registration classes of query definitions.
type Kind string

const (
	// KindTemplate is a stakeholder-oriented named template, one concern each.
	KindTemplate Kind = "template"
	// KindCategory is one variant of a broader analytical category group.
	KindCategory Kind = "category"
	// KindComprehensive is a wide exploratory pattern used as a recall backstop.
	KindComprehensive Kind = "comprehensive"
)

// Ordering names the declared result ordering of a definition.
type Ordering string

const (
	OrderRecent   Ordering = "recent"
	OrderFrequent Ordering = "frequent"
)

// QueryDefinition is one immutable catalog entry: a parameterized pattern
// query plus the metadata the orchestrator and scorer need. Body contains
// FilterPlaceholder exactly once.
type QueryDefinition struct {
	Key         string
	DisplayName string
	Kind        Kind
	Category    string
	Subcategory string
	Body        string
	Fields      []string
	ResultCap   int
	Ordering    Ordering

	priority int
}

// Priority is the definition's registration rank. Lower ranks were registered
// earlier and win deduplication tie-breaks.
func (d QueryDefinition) Priority() int {
	return d.priority
}

// WithFilter substitutes the predicate into the definition's filter
// placeholder and returns the executable query body.
func (d QueryDefinition) WithFilter(predicate string) string {
	return strings.Replace(d.Body, FilterPlaceholder, predicate, 1)
}

// Registry is the immutable catalog of query definitions. Iteration order is
// fixed: named templates first, then category groups, then comprehensive
// queries, so higher-precision sources are collected before low-precision
// ones and win under deduplication.
type Registry struct {
	defs  []QueryDefinition
	byKey map[string]int
}

// NewRegistry validates and assembles a registry from the three collections.
// Keys must be unique across all collections and every body must contain the
// filter placeholder exactly once.
func NewRegistry(templates, categories, comprehensive []QueryDefinition) (*Registry, error) {
	r := &Registry{
		byKey: make(map[string]int),
	}

	add := func(defs []QueryDefinition, kind Kind) error {
		for _, def := range defs {
			if def.Key == "" {
				return fmt.Errorf("query definition with empty key (kind %s)", kind)
			}
			if _, exists := r.byKey[def.Key]; exists {
				return fmt.Errorf("duplicate query definition key %q", def.Key)
			}
			if strings.Count(def.Body, FilterPlaceholder) != 1 {
				return fmt.Errorf("query definition %q must contain %s exactly once", def.Key, FilterPlaceholder)
			}
			def.Kind = kind
			if def.DisplayName == "" {
				def.DisplayName = def.Key
			}
			if def.Category == "" {
				def.Category = def.DisplayName
			}
			if def.Ordering == "" {
				def.Ordering = OrderRecent
			}
			def.priority = len(r.defs)
			r.byKey[def.Key] = len(r.defs)
			r.defs = append(r.defs, def)
		}
		return nil
	}

	if err := add(templates, KindTemplate); err != nil {
		return nil, err
	}
	if err := add(categories, KindCategory); err != nil {
		return nil, err
	}
	if err := add(comprehensive, KindComprehensive); err != nil {
		return nil, err
	}

	if len(r.defs) == 0 {
		return nil, fmt.Errorf("registry has no query definitions")
	}

	return r, nil
}

// Definitions returns all definitions in registration order.
func (r *Registry) Definitions() []QueryDefinition {
	out := make([]QueryDefinition, len(r.defs))
	copy(out, r.defs)
	return out
}

// Get returns the definition registered under key.
func (r *Registry) Get(key string) (QueryDefinition, bool) {
	idx, ok := r.byKey[key]
	if !ok {
		return QueryDefinition{}, false
	}
	return r.defs[idx], true
}

// Len is the number of registered definitions.
func (r *Registry) Len() int {
	return len(r.defs)
}
