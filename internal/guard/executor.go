package guard

import (
	"context"
	"time"

	"nlsql/internal/logging"
	"nlsql/internal/store"
)

// Querier runs raw SQL text against the dataset.
type Querier interface {
	Query(ctx context.Context, query string) (*store.ResultSet, error)
}

// Executor sanitizes, validates and runs candidate queries. It never passes a
// rejected statement to its Querier.
type Executor struct {
	querier Querier
	slow    time.Duration
}

// NewExecutor creates an executor over q.
func NewExecutor(q Querier) *Executor {
	return &Executor{querier: q, slow: 2 * time.Second}
}

// Run returns the sanitized query text alongside the result. The text is
// returned on every path so callers can display what was attempted.
func (e *Executor) Run(ctx context.Context, candidate string) (string, *store.ResultSet, error) {
	query := Sanitize(candidate)

	if err := Validate(query); err != nil {
		logging.GuardWarn("refused query (%s): %q", describe(err), query)
		return query, nil, err
	}

	timer := logging.StartTimer(logging.CategoryStore, "guarded query")
	rs, err := e.querier.Query(ctx, query)
	timer.StopWithThreshold(e.slow)
	if err != nil {
		return query, nil, err
	}
	return query, rs, nil
}
