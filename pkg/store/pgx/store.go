package pgx

import (
	"context"
	"fmt"

	"github.com/failsight/backend/pkg/common"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PatternStore executes pattern queries against the incident-workflow schema
// in Postgres. Each Execute call checks a connection out of the pool and
// returns it before the call completes.
type PatternStore struct {
	pool *pgxpool.Pool
}

// NewPatternStore creates a store backed by the given connection pool.
func NewPatternStore(pool *pgxpool.Pool) *PatternStore {
	return &PatternStore{pool: pool}
}

// Execute runs body with the given named parameters and materializes every row
// as a Record keyed by the query's column names.
func (s *PatternStore) Execute(ctx context.Context, body string, params map[string]any) ([]common.Record, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Release()

	var rows pgx.Rows
	if len(params) > 0 {
		rows, err = conn.Query(ctx, body, pgx.NamedArgs(params))
	} else {
		rows, err = conn.Query(ctx, body)
	}
	if err != nil {
		return nil, fmt.Errorf("query execution failed: %w", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	records := make([]common.Record, 0)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("failed to read row values: %w", err)
		}
		record := make(common.Record, len(fields))
		for i, fd := range fields {
			record[string(fd.Name)] = values[i]
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration failed: %w", err)
	}

	return records, nil
}
