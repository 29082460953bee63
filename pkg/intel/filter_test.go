package intel

import (
	"errors"
	"strings"
	"testing"
)

func TestBuildFilter(t *testing.T) {
	tests := []struct {
		name     string
		term     string
		keywords []string
		contains []string
		excludes []string
	}{
		{
			name:     "single term covers every field",
			term:     "conveyor",
			contains: []string{"p.description ILIKE '%conveyor%'", "ar.equipment_category ILIKE '%conveyor%'", "rc.statement ILIKE '%conveyor%'", "ap.plan_text ILIKE '%conveyor%'"},
		},
		{
			name:     "keywords add clauses",
			term:     "pump",
			keywords: []string{"seal failure"},
			contains: []string{"p.description ILIKE '%pump%'", "p.description ILIKE '%seal failure%'"},
		},
		{
			name:     "duplicate keywords collapse",
			term:     "valve",
			keywords: []string{"valve", " valve "},
			excludes: []string{"valve%' OR p.description ILIKE '%valve"},
		},
		{
			name:     "single quotes doubled",
			term:     "o'ring",
			contains: []string{"'%o''ring%'"},
		},
		{
			name:     "wildcards escaped",
			term:     "100%_load",
			contains: []string{`'%100\%\_load%'`},
		},
		{
			name:     "backslash escaped",
			term:     `path\to`,
			contains: []string{`'%path\\to%'`},
		},
		{
			name:     "placeholder braces stripped",
			term:     "{{FILTER}}motor",
			contains: []string{"'%FILTERmotor%'"},
			excludes: []string{"{{"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			predicate, err := BuildFilter(tt.term, tt.keywords)
			if err != nil {
				t.Fatalf("BuildFilter() error = %v", err)
			}
			if !strings.HasPrefix(predicate, "(") || !strings.HasSuffix(predicate, ")") {
				t.Errorf("predicate not parenthesized: %s", predicate)
			}
			for _, want := range tt.contains {
				if !strings.Contains(predicate, want) {
					t.Errorf("predicate missing %q:\n%s", want, predicate)
				}
			}
			for _, unwanted := range tt.excludes {
				if strings.Contains(predicate, unwanted) {
					t.Errorf("predicate contains %q:\n%s", unwanted, predicate)
				}
			}
		})
	}
}

func TestBuildFilterRejectsEmptyTerm(t *testing.T) {
	for _, term := range []string{"", "   ", "\t\n", "{}"} {
		if _, err := BuildFilter(term, nil); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("BuildFilter(%q) error = %v, want ErrInvalidInput", term, err)
		}
	}
}

func TestBuildFilterClauseCount(t *testing.T) {
	predicate, err := BuildFilter("motor", []string{"bearing", "vibration"})
	if err != nil {
		t.Fatalf("BuildFilter() error = %v", err)
	}

	// 4 fields x 3 tokens.
	got := strings.Count(predicate, "ILIKE")
	if got != 12 {
		t.Errorf("clause count = %d, want 12", got)
	}
	if strings.Count(predicate, " OR ") != 11 {
		t.Errorf("OR count = %d, want 11", strings.Count(predicate, " OR "))
	}
}
