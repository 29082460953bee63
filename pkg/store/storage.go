package store

import (
	"context"

	"github.com/failsight/backend/pkg/common"
)

// PatternStore executes read-only pattern-matching queries against the
// incident-workflow graph and returns flat records.
//
// Execute must be side-effect free. Implementations acquire and release their
// own connection per call; callers never hold a session across a full search.
type PatternStore interface {
	Execute(ctx context.Context, body string, params map[string]any) ([]common.Record, error)
}
