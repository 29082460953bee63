package intel

import (
	"fmt"
	"strings"
)

// filterFields are the columns the keyword predicate matches against. Every
// query body joins the incident chain under these aliases, so the predicate
// is valid in any definition's placeholder position.
var filterFields = []string{
	"p.description",
	"ar.equipment_category",
	"rc.statement",
	"ap.plan_text",
}

// BuildFilter turns the search term and optional keyword tokens into the
// predicate text substituted into every definition's filter placeholder. The
// predicate means: any configured field contains the term or any keyword,
// case-insensitively.
//
// The term is embedded as a quoted literal, so everything that could break
// out of the literal or re-open the placeholder is neutralized. An empty or
// whitespace-only term is rejected with ErrInvalidInput.
func BuildFilter(term string, keywords []string) (string, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return "", fmt.Errorf("%w: search term is empty", ErrInvalidInput)
	}

	tokens := make([]string, 0, len(keywords)+1)
	seen := make(map[string]bool)
	for _, raw := range append([]string{term}, keywords...) {
		token := escapeToken(raw)
		if token == "" || seen[token] {
			continue
		}
		seen[token] = true
		tokens = append(tokens, token)
	}
	if len(tokens) == 0 {
		return "", fmt.Errorf("%w: search term is empty after escaping", ErrInvalidInput)
	}

	clauses := make([]string, 0, len(filterFields)*len(tokens))
	for _, field := range filterFields {
		for _, token := range tokens {
			clauses = append(clauses, fmt.Sprintf("%s ILIKE '%%%s%%'", field, token))
		}
	}

	return "(" + strings.Join(clauses, " OR ") + ")", nil
}

// escapeToken neutralizes characters that would terminate the quoted literal,
// act as pattern wildcards, or reintroduce a placeholder.
func escapeToken(raw string) string {
	token := strings.TrimSpace(raw)
	token = strings.ReplaceAll(token, "{", "")
	token = strings.ReplaceAll(token, "}", "")
	token = strings.ReplaceAll(token, `\`, `\\`)
	token = strings.ReplaceAll(token, "'", "''")
	token = strings.ReplaceAll(token, "%", `\%`)
	token = strings.ReplaceAll(token, "_", `\_`)
	return token
}
